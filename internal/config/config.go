package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/richdownie/healthme/internal/analysis"
	"github.com/richdownie/healthme/internal/storage"
)

const (
	AuthLocal  = "local"
	AuthRemote = "remote"
	AuthJWT    = "jwt"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	StorageBackend string
	PostgresDSN    string
	SQLitePath     string
	ActivitiesFile string
	UsersFile      string

	AuthMode       string
	AuthToken      string
	AuthServiceURL string
	JWTSecret      string

	AnalysisEnabled  bool
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	AnalysisTimeout  time.Duration
	DietTipsTimeout  time.Duration

	SessionTTL  time.Duration
	CORSOrigins []string
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

// Load reads .env (when present) and the environment once per process.
func Load() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			loadErr = fmt.Errorf("config: read .env: %w", err)
			return
		}
		cfg, loadErr = FromEnv()
	})
	return cfg, loadErr
}

// LoadEnvFile applies an explicit env file. Variables already set in the
// environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// FromEnv builds and validates a Config from the current environment.
func FromEnv() (*Config, error) {
	var errs []error
	c := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8088"),

		StorageBackend: getEnv("STORAGE_BACKEND", storage.BackendFile),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "data/healthme.db"),
		ActivitiesFile: getEnv("ACTIVITIES_FILE", "data/activities.json"),
		UsersFile:      getEnv("USERS_FILE", "data/users.json"),

		AuthMode:       getEnv("AUTH_MODE", AuthLocal),
		AuthToken:      getEnv("AUTH_TOKEN", ""),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", analysis.DefaultModel),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", analysis.DefaultBaseURL),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),
	}
	c.AnalysisEnabled = getBool("ANALYSIS_ENABLED", true, &errs)
	c.AnalysisTimeout = getDuration("ANALYSIS_TIMEOUT", 15*time.Second, &errs)
	c.DietTipsTimeout = getDuration("DIET_TIPS_TIMEOUT", 20*time.Second, &errs)
	c.SessionTTL = getDuration("SESSION_TTL", 24*time.Hour, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.StorageBackend {
	case storage.BackendFile:
		if c.ActivitiesFile == "" || c.UsersFile == "" {
			return errors.New("file storage requires ACTIVITIES_FILE and USERS_FILE to be set")
		}
	case storage.BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case storage.BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, postgres, sqlite (got %q)", c.StorageBackend)
	}
	switch c.AuthMode {
	case AuthLocal:
		if c.Env == "production" && c.AuthToken == "" {
			return errors.New("AUTH_TOKEN is required for local auth in production")
		}
	case AuthRemote:
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	case AuthJWT:
		if len(c.JWTSecret) < 16 {
			return errors.New("JWT_SECRET of at least 16 bytes is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: local, remote, jwt (got %q)", c.AuthMode)
	}
	if c.AnalysisTimeout <= 0 || c.DietTipsTimeout <= 0 || c.SessionTTL <= 0 {
		return errors.New("ANALYSIS_TIMEOUT, DIET_TIPS_TIMEOUT and SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:        c.StorageBackend,
		ActivitiesFile: c.ActivitiesFile,
		UsersFile:      c.UsersFile,
		PostgresDSN:    c.PostgresDSN,
		SQLitePath:     c.SQLitePath,
	}
}

func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		APIKey:          c.AnthropicAPIKey,
		BaseURL:         c.AnthropicBaseURL,
		Model:           c.AnthropicModel,
		Timeout:         c.AnalysisTimeout,
		DietTipsTimeout: c.DietTipsTimeout,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
