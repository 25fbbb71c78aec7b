package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application. It is built once in
// main and passed into constructors; nothing reads the environment after
// LoadConfig returns.
type Config struct {
	Port        string
	Origin      string
	Environment string
	AppURL      string

	JWT      JWTConfig
	Database DatabaseConfig
	Mailer   MailerConfig
}

// JWTConfig holds token issuance settings.
type JWTConfig struct {
	Secret                string
	OneTimeSecret         string
	Issuer                string
	Audience              string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	OneTimeTokenTTLHours  int
	ClockSkewSeconds      int
	// RefreshTokenHashKey, when non-empty, switches refresh-token hashing
	// from plain SHA-256 to HMAC-SHA256 keyed with this value.
	RefreshTokenHashKey string
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds email delivery configuration.
type MailerConfig struct {
	Transport            string
	SMTPAddr             string
	DefaultFrom          string
	FlushIntervalSeconds int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "recycle"),
	}
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	accessTTL, err := getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getEnvInt("REFRESH_TOKEN_TTL_DAYS", 7)
	if err != nil {
		return nil, err
	}
	oneTimeTTL, err := getEnvInt("ONETIME_TOKEN_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	clockSkew, err := getEnvInt("JWT_CLOCK_SKEW_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	flushInterval, err := getEnvInt("MAILER_FLUSH_INTERVAL_SECONDS", 15)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("APP_ENV", "development"),
		AppURL:      getEnv("APP_URL", "http://localhost:3001"),
		JWT: JWTConfig{
			Secret:                getEnv("JWT_SECRET", "default_jwt_secret"),
			OneTimeSecret:         getEnv("JWT_ONETIME_SECRET", "default_onetime_secret"),
			Issuer:                getEnv("JWT_ISSUER", "recycle-api"),
			Audience:              getEnv("JWT_AUDIENCE", "recycle-app"),
			AccessTokenTTLMinutes: accessTTL,
			RefreshTokenTTLDays:   refreshTTL,
			OneTimeTokenTTLHours:  oneTimeTTL,
			ClockSkewSeconds:      clockSkew,
			RefreshTokenHashKey:   getEnv("REFRESH_TOKEN_HASH_KEY", ""),
		},
		Database: dbConfig,
		Mailer: MailerConfig{
			Transport:            getEnv("MAILER_TRANSPORT", "log"),
			SMTPAddr:             getEnv("MAILER_SMTP_ADDR", "localhost:25"),
			DefaultFrom:          getEnv("MAILER_DEFAULT_FROM", "noreply@recycle.local"),
			FlushIntervalSeconds: flushInterval,
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
