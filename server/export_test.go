package server

var SafeReturnTo = safeReturnTo
