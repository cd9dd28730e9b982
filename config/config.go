package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads environment variables from .env unless GO_ENV says otherwise
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// .env is optional outside development setups
		if err := godotenv.Load(); err != nil && goEnv != "" {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Upstream completion API
	OPENAI_API_KEY  string
	OPENAI_BASE_URL string
	OPENAI_MODEL    string
	// Defaults seeded into the settings row
	SCHOOL_NAME           string
	THEME                 string
	DATA_RETENTION_MONTHS int
	// Bootstrap super-admin credentials
	SUPERADMIN_USERNAME string
	SUPERADMIN_PASSWORD string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	retentionMonths, err := strconv.Atoi(os.Getenv("DATA_RETENTION_MONTHS"))
	if err != nil || retentionMonths < 1 {
		retentionMonths = 12
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	openaiModel := os.Getenv("OPENAI_MODEL")
	if openaiModel == "" {
		openaiModel = "gpt-4o-mini"
	}

	schoolName := os.Getenv("SCHOOL_NAME")
	if schoolName == "" {
		schoolName = "School Portal"
	}

	theme := os.Getenv("THEME")
	if theme == "" {
		theme = "dark"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Upstream completion API
		OPENAI_API_KEY:  os.Getenv("OPENAI_API_KEY"),
		OPENAI_BASE_URL: baseURL,
		OPENAI_MODEL:    openaiModel,
		// Settings defaults
		SCHOOL_NAME:           schoolName,
		THEME:                 theme,
		DATA_RETENTION_MONTHS: retentionMonths,
		// Super admin bootstrap
		SUPERADMIN_USERNAME: os.Getenv("SUPERADMIN_USERNAME"),
		SUPERADMIN_PASSWORD: os.Getenv("SUPERADMIN_PASSWORD"),
	}

	return envVariables, nil
}
