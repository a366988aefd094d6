package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage back-ends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// AI providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

var ErrMissingCredential = errors.New("AI_API_KEY is not configured")

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	Storage    string
	SQLitePath string

	AIProvider string
	AIKey      string
	AIModel    string
	AIBaseURL  string
	AITimeout  time.Duration

	JWTSecret string
	HTTPAddr  string
	LogLevel  string

	OTelEnabled bool
	OTelStdout  bool
}

var keys = []string{
	"db_host", "db_port", "db_user", "db_password", "db_name",
	"storage", "sqlite_path",
	"ai_provider", "ai_api_key", "ai_model", "ai_base_url", "ai_timeout",
	"jwt_secret", "http_addr", "log_level",
	"otel_enabled", "otel_stdout",
}

// Load reads configuration from the environment and, when path is not empty,
// from a YAML file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	return load(path, StoragePostgres)
}

// LoadLocal is Load for single-user runs: storage defaults to the SQLite
// file under ~/.udo instead of Postgres.
func LoadLocal(path string) (*Config, error) {
	return load(path, StorageSQLite)
}

func load(path, storage string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_port", 5432)
	v.SetDefault("storage", storage)
	v.SetDefault("sqlite_path", defaultSQLitePath())
	v.SetDefault("ai_provider", ProviderOpenAI)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")

	for _, k := range keys {
		// AutomaticEnv alone does not see keys that are absent from the file
		_ = v.BindEnv(k, strings.ToUpper(k))
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("ai_provider")))

	model := v.GetString("ai_model")
	if model == "" {
		model = defaultModel(provider)
	}

	baseURL := v.GetString("ai_base_url")
	if baseURL == "" && provider == ProviderOpenAI {
		baseURL = "https://api.openai.com/v1"
	}

	return &Config{
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetInt("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),

		Storage:    strings.ToLower(v.GetString("storage")),
		SQLitePath: v.GetString("sqlite_path"),

		AIProvider: provider,
		AIKey:      v.GetString("ai_api_key"),
		AIModel:    model,
		AIBaseURL:  strings.TrimRight(baseURL, "/"),
		AITimeout:  v.GetDuration("ai_timeout"),

		JWTSecret: v.GetString("jwt_secret"),
		HTTPAddr:  v.GetString("http_addr"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),

		OTelEnabled: v.GetBool("otel_enabled"),
		OTelStdout:  v.GetBool("otel_stdout"),
	}, nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderAnthropic:
		return "claude-haiku-4-5-20251001"
	case ProviderOllama:
		return "llama3.2"
	default:
		return "gpt-4o-mini"
	}
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "udo.db"
	}
	return filepath.Join(home, ".udo", "udo.db")
}

// RequiresKey reports whether the configured provider needs AI_API_KEY.
// A local ollama daemon does not.
func (c *Config) RequiresKey() bool {
	return c.AIProvider != ProviderOllama
}

// Validate checks the settings every entry point depends on. A missing AI
// credential is a startup error, not a per-request one.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}

	switch c.Storage {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.RequiresKey() && c.AIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}
