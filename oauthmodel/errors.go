package oauthmodel

import "errors"

var (
	ErrMissingClientID            = errors.New("client id is required")
	ErrMissingOpenIDScope         = errors.New("scope must include openid")
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrInvalidCodeChallengeMethod = errors.New("invalid code challenge method")
	ErrInvalidRedirectUri         = errors.New("invalid or no redirect uri")
	ErrInvalidResponseType        = errors.New("unsupported response type")
	ErrMissingState               = errors.New("state is required")
)
