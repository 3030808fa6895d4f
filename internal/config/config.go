package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"example.com/friendship-notes/internal/stringsx"
)

// Store backends understood by notestore.Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// LLM providers selectable with LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderCanned = "canned"
)

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	PublicBaseURL string `yaml:"public_base_url"`
	TrustProxy    bool   `yaml:"trust_proxy"`

	StoreBackend string `yaml:"store_backend"`
	NotesFile    string `yaml:"notes_file"`
	MongoURI     string `yaml:"mongodb_uri"`
	DatabaseURL  string `yaml:"database_url"`
	SQLitePath   string `yaml:"sqlite_path"`

	MaxOpenConns    int           `yaml:"db_max_open"`
	MaxIdleConns    int           `yaml:"db_max_idle"`
	ConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"db_conn_max_idle_time"`

	LLMProvider  string `yaml:"llm_provider"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		StoreBackend:    BackendMemory,
		NotesFile:       filepath.Join(os.TempDir(), "friendship-notes.json"),
		SQLitePath:      "friendship-notes.db",
		MaxOpenConns:    20,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		LLMProvider:     ProviderGemini,
		GeminiModel:     "gemini-2.0-flash",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads the environment on top of Defaults.
func Load() Config {
	return apply(Defaults())
}

// LoadFile reads a YAML file on top of Defaults, then the environment on top
// of the file. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	base := Defaults()
	if path == "" {
		return apply(base), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return apply(base), nil
}

func apply(c Config) Config {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.PublicBaseURL = getenv("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.TrustProxy = getenvBool("TRUST_PROXY", c.TrustProxy)

	c.StoreBackend = stringsx.Normalize(getenv("STORE_BACKEND", c.StoreBackend))
	c.NotesFile = getenv("NOTES_FILE", c.NotesFile)
	c.MongoURI = getenv("MONGODB_URI", c.MongoURI)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)

	c.MaxOpenConns = getenvInt("DB_MAX_OPEN", c.MaxOpenConns)
	c.MaxIdleConns = getenvInt("DB_MAX_IDLE", c.MaxIdleConns)
	c.ConnMaxLifetime = getenvDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)
	c.ConnMaxIdleTime = getenvDuration("DB_CONN_MAX_IDLE_TIME", c.ConnMaxIdleTime)

	c.LLMProvider = stringsx.Normalize(getenv("LLM_PROVIDER", c.LLMProvider))
	c.GeminiAPIKey = getenv("GEMINI_API_KEY", getenv("GOOGLE_API_KEY", c.GeminiAPIKey))
	c.GeminiModel = getenv("GEMINI_MODEL", c.GeminiModel)

	c.LogLevel = stringsx.Normalize(getenv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = stringsx.Normalize(getenv("LOG_FORMAT", c.LogFormat))
	return c
}

// Validate reports settings that make the selected backend or provider unusable.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMemory:
	case BackendFile:
		if c.NotesFile == "" {
			errs = append(errs, errors.New("NOTES_FILE is required for the file store"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}

	switch c.LLMProvider {
	case ProviderCanned:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLMProvider))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
