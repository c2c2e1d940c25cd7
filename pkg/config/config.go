package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Allocation    AllocationConfig
	Notifications NotificationsConfig
	OTEL          OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host     string
	Port     int
	Env      string
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AllocationConfig holds bed allocation and queue tuning
type AllocationConfig struct {
	// BedTurnoverHours is the assumed average time a bed stays occupied,
	// used to estimate queue wait times.
	BedTurnoverHours int

	// AutoAllocateBatch caps how many queued bookings one auto-allocation
	// pass considers.
	AutoAllocateBatch int

	// CascadeQueueSize bounds the post-release cascade task queue.
	CascadeQueueSize int

	// NotifyTopN caps how many ranked bookings one notification pass inspects.
	NotifyTopN int

	// NotifySignificantPosition is the highest queue position still considered
	// worth a position-update notice.
	NotifySignificantPosition int

	// NotifyThrottleHours is the minimum gap between two position-update
	// notices to the same booking.
	NotifyThrottleHours int
}

// NotificationsConfig holds WhatsApp Cloud API configuration
type NotificationsConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ipd_admissions"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Allocation: AllocationConfig{
			BedTurnoverHours:          getEnvAsInt("BED_TURNOVER_HOURS", 48),
			AutoAllocateBatch:         getEnvAsInt("AUTO_ALLOCATE_BATCH", 10),
			CascadeQueueSize:          getEnvAsInt("CASCADE_QUEUE_SIZE", 64),
			NotifyTopN:                getEnvAsInt("NOTIFY_TOP_N", 10),
			NotifySignificantPosition: getEnvAsInt("NOTIFY_SIGNIFICANT_POSITION", 5),
			NotifyThrottleHours:       getEnvAsInt("NOTIFY_THROTTLE_HOURS", 24),
		},
		Notifications: NotificationsConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ipd-admission-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
