package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the client.
type Config struct {
	AppName string
	API     APIConfig
	Breaker BreakerConfig
	Store   StoreConfig
	Redis   RedisConfig
	Tasks   TasksConfig
	Context ContextConfig
	Logger  LoggerConfig
	MockAPI MockAPIConfig
}

type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	MaxConns int
}

type BreakerConfig struct {
	// MaxFailures consecutive transport failures open the breaker; 0 disables it.
	MaxFailures int
	OpenTimeout time.Duration
}

type StoreConfig struct {
	Driver    string
	Path      string
	Namespace string
	// TTL expires stored session keys; zero keeps them until logout.
	TTL time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	Timeout  time.Duration
}

type TasksConfig struct {
	PageLimit       int
	RefreshInterval time.Duration
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MockAPIConfig struct {
	Addr     string
	Secret   string
	TokenTTL time.Duration
}

const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Load reads configuration from environment variables (optionally .env)
// and applies defaults that work against a local API.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName: getString("APP_NAME", "taskctl"),
		API: APIConfig{
			BaseURL:  strings.TrimRight(getString("API_BASE_URL", "http://localhost:3000"), "/"),
			Timeout:  getDuration("API_TIMEOUT", 10*time.Second),
			MaxConns: getInt("API_MAX_CONNS", 16),
		},
		Breaker: BreakerConfig{
			MaxFailures: getInt("BREAKER_MAX_FAILURES", 5),
			OpenTimeout: getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(getString("STORE_DRIVER", StoreBolt)),
			Path:      getString("STORE_PATH", defaultStorePath()),
			Namespace: getString("STORE_NAMESPACE", "taskclient"),
			TTL:       getDuration("STORE_TTL", 0),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			Timeout:  getDuration("REDIS_TIMEOUT", 2*time.Second),
		},
		Tasks: TasksConfig{
			PageLimit:       getInt("TASKS_PAGE_LIMIT", 10),
			RefreshInterval: getDuration("REFRESH_INTERVAL", time.Minute),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		MockAPI: MockAPIConfig{
			Addr:     getString("MOCK_API_ADDR", "127.0.0.1:3000"),
			Secret:   getString("MOCK_API_SECRET", "dev-secret"),
			TokenTTL: getDuration("MOCK_API_TOKEN_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks settings that may also be overridden after Load, e.g. by
// command line flags.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreBolt, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("STORE_TTL must not be negative, got %s", c.Store.TTL)
	}
	if c.Tasks.PageLimit <= 0 {
		c.Tasks.PageLimit = 10
	}
	return nil
}

func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskctl", "session.db")
	}
	return "./data/session.db"
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
