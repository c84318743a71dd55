package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Cache   CacheConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment  string
	LogFilePath  string
	CallbackAddr string
	LoginTimeout time.Duration
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver   string // "file", "redis" or "memory"
	Path     string
	Origin   string // namespace of the persisted record, mirrors a browser origin
	RedisURL string
}

type CacheConfig struct {
	EventsStaleTime time.Duration
	Retention       time.Duration
	CleanupInterval time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment:  getEnv("GO_ENV", "development"),
			LogFilePath:  getEnv("LOG_FILE_PATH", ".calassist/calassist.log"),
			CallbackAddr: getEnv("CALLBACK_ADDR", "localhost:5173"),
			LoginTimeout: getEnvAsDuration("LOGIN_TIMEOUT", 5*time.Minute),
		},
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "file"),
			Path:     getEnv("STORAGE_PATH", ".calassist/storage.yaml"),
			Origin:   getEnv("STORAGE_ORIGIN", "http://localhost:5173"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Cache: CacheConfig{
			EventsStaleTime: getEnvAsDuration("EVENTS_STALE_TIME", time.Minute),
			Retention:       getEnvAsDuration("CACHE_RETENTION", 5*time.Minute),
			CleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "calassist"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
