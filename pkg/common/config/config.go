package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	CityConfigTopic  string
	AuditServicePort string

	// City configuration
	CityConfigCacheTTL time.Duration
	CityConfigSeedFile string

	// Sources
	SourceFetchTimeout      time.Duration
	SourceOAuthTokenURL     string
	SourceOAuthClientID     string
	SourceOAuthClientSecret string
	SourceOAuthScopes       []string
}

// Load reads the configuration from the environment. Values found in the file
// named by ENV_FILE (default ".env") are applied first without overriding
// variables that are already set.
func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "citypark"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "citypark123"),
		PostgresDB:       getEnv("POSTGRES_DB", "citypark"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "citypark-config-audit"),
		CityConfigTopic:  getEnv("CITY_CONFIG_TOPIC", "city-config-events"),
		AuditServicePort: getEnv("AUDIT_SERVICE_PORT", "8081"),

		CityConfigCacheTTL: getDuration("CITY_CONFIG_CACHE_TTL", 5*time.Minute),
		CityConfigSeedFile: getEnv("CITY_CONFIG_SEED_FILE", ""),

		SourceFetchTimeout:      getDuration("SOURCE_FETCH_TIMEOUT", 10*time.Second),
		SourceOAuthTokenURL:     getEnv("SOURCE_OAUTH_TOKEN_URL", ""),
		SourceOAuthClientID:     getEnv("SOURCE_OAUTH_CLIENT_ID", ""),
		SourceOAuthClientSecret: getEnv("SOURCE_OAUTH_CLIENT_SECRET", ""),
		SourceOAuthScopes:       getStringSliceEnv("SOURCE_OAUTH_SCOPES", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getStringSliceEnv splits a comma separated value, dropping blank entries.
func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
