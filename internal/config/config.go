package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Keys          APIKeys
	KnowledgeBase KnowledgeBaseConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	ConsoleLogFilePath string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
}

type APIKeys struct {
	ElevenLabs string
}

type KnowledgeBaseConfig struct {
	BaseURL           string
	ConvaiPrefix      string
	LegacyPrefix      string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	DetailCacheTTL    time.Duration
	LivePollInterval  time.Duration
	DriftRepairTopic  string
	DriftMaxAttempts  int
	DefaultPageSize   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ConsoleLogFilePath: getEnv("CONSOLE_LOG_FILE_PATH", "logs/console.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Keys: APIKeys{
			ElevenLabs: getEnv("ELEVENLABS_API_KEY", ""),
		},
		KnowledgeBase: KnowledgeBaseConfig{
			BaseURL:           getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			ConvaiPrefix:      getEnv("ELEVENLABS_KB_PREFIX", "/v1/convai/knowledge-base"),
			LegacyPrefix:      getEnv("ELEVENLABS_KB_LEGACY_PREFIX", "/v1/knowledge-base"),
			RequestTimeout:    getEnvAsDuration("KB_REQUEST_TIMEOUT", 20*time.Second),
			RequestsPerSecond: getEnvAsFloat("KB_REQUESTS_PER_SECOND", 5),
			DetailCacheTTL:    getEnvAsDuration("KB_DETAIL_CACHE_TTL", 5*time.Minute),
			LivePollInterval:  getEnvAsDuration("KB_LIVE_POLL_INTERVAL", 5*time.Second),
			DriftRepairTopic:  getEnv("KB_DRIFT_REPAIR_TOPIC", "KNOWLEDGE_META_REPAIR"),
			DriftMaxAttempts:  getEnvAsInt("KB_DRIFT_MAX_ATTEMPTS", 3),
			DefaultPageSize:   getEnvAsInt("KB_DEFAULT_PAGE_SIZE", 10),
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
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
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

// getEnvAsDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
