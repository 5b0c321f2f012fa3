package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	OIDCConfig
	SecurityConfig
	RoutesConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetAPIBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type OIDCConfig interface {
	GetIssuer() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetAuthURL() string
	GetTokenURL() string
	GetEndSessionURL() string
	GetPostLogoutRedirectURL() string
}

type SecurityConfig interface {
	GetPendingAuthTTL() time.Duration
	GetSessionMaxAge() time.Duration
	GetRefreshSkew() time.Duration
	GetTokenTimeout() time.Duration
	GetCookieSecure() bool
	GetSealingKey() string
}

type RoutesConfig interface {
	GetProtectedPrefixes() []string
	GetLoginPath() string
	GetPostLoginPath() string
}

type StorageConfig interface {
	GetStoreBackend() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type mainConfig struct {
	EnvVars  `yaml:"server"`
	Cors     `yaml:"cors"`
	OIDC     `yaml:"oidc"`
	Security `yaml:"security"`
	Routes   `yaml:"routes"`
	Storage  `yaml:"storage"`
}

// New returns a configuration driven by environment variables and built-in defaults.
func New() Config {
	return mainConfig{}
}
