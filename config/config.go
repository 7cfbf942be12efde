package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string
	APP_URL    string

	REDIS_ADDR     string
	REDIS_PASSWORD string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	// Dunning
	GRACE_PERIOD_DAYS   int
	MAX_PAYMENT_RETRIES int

	// Freeze quota
	MIN_DAYS_PER_PAUSE int
	MAX_DAYS_PER_PAUSE int
	MAX_DAYS_PER_YEAR  int
	FIRST_MONTH_DAYS   int

	// Revenue sharing
	PLATFORM_FEE_PERCENT int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	APP_URL = getEnv("APP_URL", "http://localhost:5173")

	REDIS_ADDR = getEnv("REDIS_ADDR", "")
	REDIS_PASSWORD = getEnv("REDIS_PASSWORD", "")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	GRACE_PERIOD_DAYS = getEnvInt("GRACE_PERIOD_DAYS", 3)
	MAX_PAYMENT_RETRIES = getEnvInt("MAX_PAYMENT_RETRIES", 3)

	MIN_DAYS_PER_PAUSE = getEnvInt("MIN_DAYS_PER_PAUSE", 7)
	MAX_DAYS_PER_PAUSE = getEnvInt("MAX_DAYS_PER_PAUSE", 30)
	MAX_DAYS_PER_YEAR = getEnvInt("MAX_DAYS_PER_YEAR", 90)
	FIRST_MONTH_DAYS = getEnvInt("FIRST_MONTH_DAYS", 30)

	PLATFORM_FEE_PERCENT = getEnvInt("PLATFORM_FEE_PERCENT", 10)
}

func GracePeriod() time.Duration {
	return time.Duration(GRACE_PERIOD_DAYS) * 24 * time.Hour
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %q", key, value)
	}
	return n
}
