package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "JWT_SECRET", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL",
		"STORAGE_DRIVER", "CONFIG_FILE", "CORS_ALLOWED_ORIGINS", "SMTP_PORT", "NOTIFY_WORKERS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, StorageLocal, cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\njwt_secret: from-file\nallowed_origins: [\"https://a.example\"]\n"), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.AllowedOrigins)
}

func TestValidateRejectsMissingSecretInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", EnvProduction)

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *AppConfig){
		"env":           func(c *AppConfig) { c.Env = "staging" },
		"ttl order":     func(c *AppConfig) { c.AccessTTL = c.RefreshTTL },
		"driver":        func(c *AppConfig) { c.Storage.Driver = "ftp" },
		"r2 incomplete": func(c *AppConfig) { c.Storage.Driver = StorageR2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaults()
			cfg.JWTSecret = "secret"
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_ACCESS_TTL")
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", d.ConnString())

	d.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", d.ConnString())
}

func TestVerifyIDTokenChecksAudience(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aud := "client-id"
		if r.URL.Query().Get("id_token") == "foreign" {
			aud = "other"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"123","email":"a@example.com","aud":"` + aud + `"}`))
	}))
	defer srv.Close()

	g := NewGoogleConfig(GoogleOAuth{ClientID: "client-id", ClientSecret: "secret"})
	require.NotNil(t, g)
	g.TokenInfoURL = srv.URL

	info, err := g.VerifyIDToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "123", info.Subject())
	assert.Equal(t, "a@example.com", info.Email)

	_, err = g.VerifyIDToken(context.Background(), "foreign")
	assert.Error(t, err)
}

func TestNilGoogleConfigIsDisabled(t *testing.T) {
	assert.Nil(t, NewGoogleConfig(GoogleOAuth{}))

	var g *GoogleConfig
	_, err := g.VerifyIDToken(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}
