package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost                string
	DBUser                string
	DBPassword            string
	DBName                string
	DBPort                string
	AppPort               string
	AppEnv                string
	JWTSecret             string
	PaystackSecretKey     string
	PaystackWebhookSecret string
	PaymentCallbackURL    string
	MigrationsPath        string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:                os.Getenv("DB_HOST"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBPort:                os.Getenv("DB_PORT"),
		AppPort:               os.Getenv("APP_PORT"),
		AppEnv:                os.Getenv("APP_ENV"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		PaystackSecretKey:     os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackWebhookSecret: os.Getenv("PAYSTACK_WEBHOOK_SECRET"),
		PaymentCallbackURL:    os.Getenv("PAYMENT_CALLBACK_URL"),
		MigrationsPath:        os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "./migrations"
	}

	// Paystack signs webhooks with the account secret key unless a
	// dedicated signing secret is configured.
	if cfg.PaystackWebhookSecret == "" {
		cfg.PaystackWebhookSecret = cfg.PaystackSecretKey
	}

	return cfg
}
