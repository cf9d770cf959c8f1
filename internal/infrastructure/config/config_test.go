package config

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "dev-secret"})
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.True(t, cfg.IsLocal())
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.True(t, cfg.Auth.TokenRevocation)
	require.Equal(t, "token", cfg.Cookie.Name)
	require.Equal(t, http.SameSiteNoneMode, cfg.SameSite())
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.Origins)
	require.Equal(t, "inventory", cfg.Mongo.Database)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ENV":             "production",
		"JWT_SECRET":      "0123456789abcdef0123456789abcdef",
		"TOKEN_TTL":       "1h",
		"CORS_ORIGINS":    "https://app.example.com,https://admin.example.com",
		"COOKIE_SAMESITE": "Strict",
		"BCRYPT_COST":     "12",
	})
	require.NoError(t, err)

	require.False(t, cfg.IsLocal())
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.Origins)
	require.Equal(t, http.SameSiteStrictMode, cfg.SameSite())
	require.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret in production", map[string]string{"ENV": "production", "JWT_SECRET": "short"}},
		{"non-positive ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "0s"}},
		{"bad samesite", map[string]string{"JWT_SECRET": "s", "COOKIE_SAMESITE": "sometimes"}},
		{"bad cost", map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "99"}},
		{"unparseable ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)
			require.Error(t, err)
		})
	}
}

func TestParseSameSite(t *testing.T) {
	for in, want := range map[string]http.SameSite{
		"none":   http.SameSiteNoneMode,
		" Lax ":  http.SameSiteLaxMode,
		"STRICT": http.SameSiteStrictMode,
	} {
		got, err := ParseSameSite(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseSameSite("")
	require.Error(t, err)
}
