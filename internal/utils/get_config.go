package utils

import (
	"os"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`
	DBTimezone string `yaml:"DB_TIMEZONE"`

	JWTSecret     string `yaml:"JWT_SECRET"`
	JWTTTLMinutes string `yaml:"JWT_TTL_MINUTES"`
	ServerAddress string `yaml:"SERVER_ADDRESS"`
	RateLimit     string `yaml:"RATE_LIMIT_PER_SECOND"`

	// Mailing configuration
	AppURL           string `yaml:"APP_URL"`
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS configuration
	AWSS3Bucket         string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region         string `yaml:"AWS_S3_REGION"`
	AWSAccessKey        string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey        string `yaml:"AWS_SECRET_KEY"`
	AWSEndpointURL      string `yaml:"AWS_ENDPOINT_URL"`
	DynamoDBEventsTable string `yaml:"DYNAMODB_EVENTS_TABLE"`

	// Redis
	RedisAddr     string `yaml:"REDIS_ADDR"`
	RedisPassword string `yaml:"REDIS_PASSWORD"`

	// Receipt parser service
	ReceiptParserURL            string `yaml:"RECEIPT_PARSER_URL"`
	ReceiptParserTimeoutSeconds string `yaml:"RECEIPT_PARSER_TIMEOUT_SECONDS"`
	ReceiptRatePerSecond        string `yaml:"RECEIPT_RATE_PER_SECOND"`

	// Logging and notifications
	LogFile            string `yaml:"LOG_FILE"`
	LogLevel           string `yaml:"LOG_LEVEL"`
	BannerSettleMillis string `yaml:"BANNER_SETTLE_MILLIS"`
}

var (
	config     Config
	configOnce sync.Once
)

// LoadConfig reads .env (if present) and config.yaml. Environment variables
// take precedence over yaml values in GetConfig.
func LoadConfig() {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Warnf("Error reading .env file: %s", err)
		}

		file, err := os.ReadFile("config.yaml")
		if err != nil {
			log.Warnf("Error reading YAML file: %s", err)
			return
		}

		if err := yaml.Unmarshal(file, &config); err != nil {
			log.Errorf("Error parsing YAML file: %s", err)
			return
		}
	})
}

func GetConfig(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	switch key {
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "DB_TIMEZONE":
		return config.DBTimezone
	case "RATE_LIMIT_PER_SECOND":
		return config.RateLimit
	case "JWT_SECRET":
		return config.JWTSecret
	case "JWT_TTL_MINUTES":
		return config.JWTTTLMinutes
	case "SERVER_ADDRESS":
		return config.ServerAddress
	case "APP_URL":
		return config.AppURL
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "AWS_ENDPOINT_URL":
		return config.AWSEndpointURL
	case "DYNAMODB_EVENTS_TABLE":
		return config.DynamoDBEventsTable
	case "REDIS_ADDR":
		return config.RedisAddr
	case "REDIS_PASSWORD":
		return config.RedisPassword
	case "RECEIPT_PARSER_URL":
		return config.ReceiptParserURL
	case "RECEIPT_PARSER_TIMEOUT_SECONDS":
		return config.ReceiptParserTimeoutSeconds
	case "RECEIPT_RATE_PER_SECOND":
		return config.ReceiptRatePerSecond
	case "LOG_FILE":
		return config.LogFile
	case "LOG_LEVEL":
		return config.LogLevel
	case "BANNER_SETTLE_MILLIS":
		return config.BannerSettleMillis
	default:
		return ""
	}
}

// GetConfigDefault returns fallback when key is unset.
func GetConfigDefault(key, fallback string) string {
	if v := GetConfig(key); v != "" {
		return v
	}
	return fallback
}

func GetConfigInt(key string, fallback int) int {
	v := GetConfig(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("config %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func GetConfigFloat(key string, fallback float64) float64 {
	v := GetConfig(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("config %s=%q is not a number, using %v", key, v, fallback)
		return fallback
	}
	return f
}
