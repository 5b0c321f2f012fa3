package config

import (
	"time"

	"github.com/jrsteele09/storefront-auth/internal/utils"
)

const (
	pendingAuthTTLVar = "PENDING_AUTH_TTL"
	sessionMaxAgeVar  = "SESSION_MAX_AGE"
	refreshSkewVar    = "REFRESH_SKEW"
	tokenTimeoutVar   = "TOKEN_TIMEOUT"
	cookieSecureVar   = "SESSION_COOKIE_SECURE"
	sealingKeyVar     = "SESSION_SEALING_KEY"
)

type Security struct {
	PendingAuthTTL time.Duration `yaml:"pendingAuthTTL"`
	SessionMaxAge  time.Duration `yaml:"sessionMaxAge"`
	RefreshSkew    time.Duration `yaml:"refreshSkew"`
	TokenTimeout   time.Duration `yaml:"tokenTimeout"`
	CookieSecure   *bool         `yaml:"cookieSecure"`
	SealingKey     string        `yaml:"sealingKey"`
}

var _ SecurityConfig = Security{}

// GetPendingAuthTTL bounds how long an abandoned login attempt is kept.
func (s Security) GetPendingAuthTTL() time.Duration {
	return getDuration(pendingAuthTTLVar, s.PendingAuthTTL, 10*time.Minute)
}

func (s Security) GetSessionMaxAge() time.Duration {
	return getDuration(sessionMaxAgeVar, s.SessionMaxAge, 24*time.Hour)
}

// GetRefreshSkew is the margin before access token expiry at which a refresh is triggered.
func (s Security) GetRefreshSkew() time.Duration {
	return getDuration(refreshSkewVar, s.RefreshSkew, 30*time.Second)
}

// GetTokenTimeout bounds every call to the token endpoint.
func (s Security) GetTokenTimeout() time.Duration {
	return getDuration(tokenTimeoutVar, s.TokenTimeout, 10*time.Second)
}

func (s Security) GetCookieSecure() bool {
	return getBool(cookieSecureVar, utils.Value(s.CookieSecure))
}

func (s Security) GetSealingKey() string {
	return GetEnv(sealingKeyVar, s.SealingKey)
}
