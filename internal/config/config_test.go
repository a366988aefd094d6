package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_MODEL", "")
	t.Setenv("DB_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.AIModel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AIBaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("AI_API_KEY", "secret")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("STORAGE", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.AIProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AIModel)
	assert.Equal(t, "secret", cfg.AIKey)
	assert.Equal(t, 45*time.Second, cfg.AITimeout)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Empty(t, cfg.AIBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "udo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: sqlite\nai_model: from-file\nhttp_addr: \":9000\"\n"), 0o600))

	t.Setenv("AI_MODEL", "from-env")
	t.Setenv("STORAGE", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "from-env", cfg.AIModel)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestValidateMissingCredential(t *testing.T) {
	cfg := &Config{AIProvider: ProviderOpenAI, Storage: StorageMemory}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingCredential)

	cfg.AIProvider = ProviderOllama
	assert.NoError(t, cfg.Validate())
}

func TestValidatePostgresNeedsHost(t *testing.T) {
	cfg := &Config{AIProvider: ProviderOpenAI, AIKey: "k", Storage: StoragePostgres}
	assert.Error(t, cfg.Validate())

	cfg.DBHost = "localhost"
	cfg.DBName = "udo"
	assert.NoError(t, cfg.Validate())
}

func TestConnString(t *testing.T) {
	cfg := &Config{DBHost: "h", DBPort: 5432, DBUser: "u", DBPassword: "p", DBName: "d"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", cfg.ConnString())
}

func TestLoadLocalDefaultsToSQLite(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("SQLITE_PATH", "")

	cfg, err := LoadLocal("")
	require.NoError(t, err)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "udo.db", filepath.Base(cfg.SQLitePath))

	t.Setenv("STORAGE", "memory")
	cfg, err = LoadLocal("")
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
}
