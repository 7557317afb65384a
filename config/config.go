package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	AppName   string
	JWTKey    string
	SaltRound int

	DBDialect  string // postgres, mysql or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	EmailSender    string
	SMTPPassword   string
	SendgridAPIKey string

	PaymentGatewayURL string
	PaymentGatewayKey string

	StreakReminderCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		AppName:   getEnv("APP_NAME", "LearnSphere"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBDialect:  getEnv("DB_DIALECT", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "learnsphere"),

		EmailSender:    getEnv("EMAIL_SENDER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		PaymentGatewayURL: getEnv("PAYMENT_GATEWAY_URL", ""),
		PaymentGatewayKey: getEnv("PAYMENT_GATEWAY_KEY", ""),

		StreakReminderCron: getEnv("STREAK_REMINDER_CRON", "0 18 * * *"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
