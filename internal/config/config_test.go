package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/storefront-auth/internal/config"
	"github.com/jrsteele09/storefront-auth/internal/utils"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: "9090"
  baseURL: https://shop.example.com/
oidc:
  issuer: https://idp.example.com/realms/shop
  clientID: shop-frontend
  scopes: [openid, email]
security:
  pendingAuthTTL: 5m
  refreshSkew: 45s
routes:
  protectedPrefixes: [/dashboard, /settings, /admin]
storage:
  backend: redis
  redisDB: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080/auth/callback", c.GetRedirectURL())
	require.Equal(t, []string{"openid", "profile", "email", "offline_access"}, c.GetScopes())
	require.Equal(t, 10*time.Minute, c.GetPendingAuthTTL())
	require.Equal(t, 30*time.Second, c.GetRefreshSkew())
	require.Equal(t, 10*time.Second, c.GetTokenTimeout())
	require.Equal(t, []string{"/dashboard", "/settings"}, c.GetProtectedPrefixes())
	require.Equal(t, "/login", c.GetLoginPath())
	require.Equal(t, config.StoreBackendMemory, c.GetStoreBackend())
}

func TestLoad_File(t *testing.T) {
	c, err := config.Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://shop.example.com", c.GetBaseURL())
	require.Equal(t, "https://shop.example.com/auth/callback", c.GetRedirectURL())
	require.Equal(t, "https://idp.example.com/realms/shop", c.GetIssuer())
	require.Equal(t, "shop-frontend", c.GetClientID())
	require.Equal(t, []string{"openid", "email"}, c.GetScopes())
	require.Equal(t, 5*time.Minute, c.GetPendingAuthTTL())
	require.Equal(t, 45*time.Second, c.GetRefreshSkew())
	require.Equal(t, []string{"/dashboard", "/settings", "/admin"}, c.GetProtectedPrefixes())
	require.Equal(t, config.StoreBackendRedis, c.GetStoreBackend())
	require.Equal(t, 2, c.GetRedisDB())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "from-env")
	t.Setenv("REFRESH_SKEW", "1m")
	t.Setenv("PROTECTED_PREFIXES", "/dashboard, /orders")

	c, err := config.Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	require.Equal(t, "from-env", c.GetClientID())
	require.Equal(t, time.Minute, c.GetRefreshSkew())
	require.Equal(t, []string{"/dashboard", "/orders"}, c.GetProtectedPrefixes())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", c.GetPort())
}

func TestLoad_Malformed(t *testing.T) {
	_, err := config.Load(writeConfig(t, "server: [unterminated"))
	require.Error(t, err)
}

func TestSecurity_CookieSecure(t *testing.T) {
	require.False(t, config.Security{}.GetCookieSecure())
	require.True(t, config.Security{CookieSecure: utils.Ptr(true)}.GetCookieSecure())

	t.Setenv("SESSION_COOKIE_SECURE", "false")
	require.False(t, config.Security{CookieSecure: utils.Ptr(true)}.GetCookieSecure())
}
