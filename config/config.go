package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV string
	PORT   int
	// Document store
	DB_DRIVER string // mongo | memory
	MONGO_URI string
	MONGO_DB  string
	// Ledger database (PostgreSQL)
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Object storage (S3 compatible)
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	SPACES_CDN_URL    string
	// Payment gateway
	FLUTTERWAVE_SECRET_KEY string
	FLUTTERWAVE_BASE_URL   string
	PAYMENT_REDIRECT_URL   string
	PAYMENT_CURRENCY       string
	// Mail
	SENDGRID_API_KEY  string
	MAIL_FROM_NAME    string
	MAIL_FROM_ADDRESS string
	// Runtime
	CRON_ENABLED    bool
	ALLOWED_ORIGINS string
	FANOUT_LIMIT    int
	MAX_UPLOAD_MB   int
	// Seed
	SUPER_ADMIN_EMAIL    string
	SUPER_ADMIN_PASSWORD string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	fanout, err := strconv.Atoi(os.Getenv("FANOUT_LIMIT"))
	if err != nil || fanout < 1 {
		fanout = 4
	}

	maxUpload, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_MB"))
	if err != nil || maxUpload < 1 {
		maxUpload = 20
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:    os.Getenv("GO_ENV"),
		PORT:      port,
		DB_DRIVER: strings.ToLower(getEnvOrDefault("DB_DRIVER", "mongo")),
		MONGO_URI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MONGO_DB:  getEnvOrDefault("MONGO_DB", "gamification"),
		// Ledger
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "gamification-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// Object storage
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		SPACES_CDN_URL:    os.Getenv("SPACES_CDN_URL"),
		// Payments
		FLUTTERWAVE_SECRET_KEY: os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		FLUTTERWAVE_BASE_URL:   getEnvOrDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3"),
		PAYMENT_REDIRECT_URL:   getEnvOrDefault("PAYMENT_REDIRECT_URL", "http://localhost:3000/payment-redirect"),
		PAYMENT_CURRENCY:       getEnvOrDefault("PAYMENT_CURRENCY", "USD"),
		// Mail
		SENDGRID_API_KEY:  os.Getenv("SENDGRID_API_KEY"),
		MAIL_FROM_NAME:    getEnvOrDefault("MAIL_FROM_NAME", "Gamification LMS"),
		MAIL_FROM_ADDRESS: getEnvOrDefault("MAIL_FROM_ADDRESS", "noreply@gamification.local"),
		// Runtime
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false",
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		FANOUT_LIMIT:    fanout,
		MAX_UPLOAD_MB:   maxUpload,
		// Seed
		SUPER_ADMIN_EMAIL:    os.Getenv("SUPER_ADMIN_EMAIL"),
		SUPER_ADMIN_PASSWORD: os.Getenv("SUPER_ADMIN_PASSWORD"),
	}

	return envVariables, nil
}

// IsProduction reports whether the service runs with GO_ENV=production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
