package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "TELEGRAM_TOKEN", "JWT_SECRET", "REDIS_ADDR", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "openai:\n  api_key: sk-test\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "store", cfg.Entitlement.Mode)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10000, cfg.RateLimit.MaxClients)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.IdleTTL)
	assert.Equal(t, "coach:", cfg.Redis.KeyPrefix)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: sk-file
  model: gpt-4o
llm:
  timeout: 5s
storage:
  backend: redis
safety:
  keywords: ["hopeless", "give up on life"]
entitlement:
  mode: allow_all
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, []string{"hopeless", "give up on life"}, cfg.Safety.Keywords)
	assert.Equal(t, "allow_all", cfg.Entitlement.Mode)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "openai:\n  api_key: sk-file\nstorage:\n  backend: postgres\n")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("DATABASE_URL", "postgres://coach:pw@db.internal:6543/coaching?sslmode=require")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "shh", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, DatabaseConfig{
		Host: "db.internal", Port: 6543, User: "coach", Password: "pw", DBName: "coaching", SSLMode: "require",
	}, cfg.Database)
}

func TestLoadConfigValidation(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "openai:\n  model: gpt-4o\n"))
	assert.ErrorContains(t, err, "openai.api_key")

	_, err = LoadConfig(writeConfig(t, "openai:\n  api_key: k\nstorage:\n  backend: sqlite\n"))
	assert.ErrorContains(t, err, "storage.backend")

	_, err = LoadConfig(writeConfig(t, "openai:\n  api_key: k\nentitlement:\n  mode: maybe\n"))
	assert.ErrorContains(t, err, "entitlement.mode")

	_, err = LoadConfig(writeConfig(t, "openai:\n  api_key: k\nstorage:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "database.dbname")
}

func TestParseDatabaseURL(t *testing.T) {
	cfg, err := parseDatabaseURL("postgres://user@localhost/coach")
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, "coach", cfg.DBName)

	_, err = parseDatabaseURL("mysql://user@localhost/coach")
	assert.Error(t, err)
}
