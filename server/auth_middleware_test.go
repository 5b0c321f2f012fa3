package server_test

import (
	"testing"

	"github.com/jrsteele09/storefront-auth/server"
	"github.com/stretchr/testify/require"
)

func TestProtectedRouteSet_Matches(t *testing.T) {
	set := server.NewProtectedRouteSet("/dashboard", "settings/", "/dashboard", " ")
	require.Equal(t, []string{"/dashboard", "/settings"}, set.Prefixes())

	tests := []struct {
		path string
		want bool
	}{
		{"/dashboard", true},
		{"/dashboard/", true},
		{"/dashboard/products", true},
		{"/dashboard/orders/42/status", true},
		{"/settings/profile", true},
		{"/dashboards", false},
		{"/settingsx", false},
		{"/", false},
		{"/login", false},
		{"/auth/callback", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, set.Matches(tt.path))
		})
	}
}

func TestProtectedRouteSet_Root(t *testing.T) {
	set := server.NewProtectedRouteSet("/")
	require.True(t, set.Matches("/"))
	require.True(t, set.Matches("/anything/at/all"))

	require.False(t, server.NewProtectedRouteSet().Matches("/dashboard"))
}

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		name     string
		returnTo string
		want     string
	}{
		{"local path", "/dashboard/products", "/dashboard/products"},
		{"local path with query", "/dashboard/orders?status=pending", "/dashboard/orders?status=pending"},
		{"empty", "", "/dashboard"},
		{"absolute url", "https://evil.example.com/", "/dashboard"},
		{"scheme relative", "//evil.example.com", "/dashboard"},
		{"backslash", `/\evil.example.com`, "/dashboard"},
		{"relative", "dashboard", "/dashboard"},
		{"javascript", "javascript:alert(1)", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, server.SafeReturnTo(tt.returnTo, "/dashboard"))
		})
	}
}
