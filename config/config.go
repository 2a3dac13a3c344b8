package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string
	MongoURI string // optional: gateway payload audit store

	// Payment provider selection: "razorpay" (default) or "stripe".
	PaymentProvider string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	StripeSecretKey  string
	StripeWebhookKey string

	// PublicBaseURL is substituted for localhost callback URLs before they are
	// handed to the gateway; gateways reject non-HTTPS callbacks.
	PublicBaseURL string

	Currency string

	JWTSecret string

	KafkaBrokers string
	KafkaTopic   string

	SMTPServer     string
	SMTPPort       string
	SMTPEmail      string
	SMTPPassword   string
	SMTPSenderName string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MongoURI: os.Getenv("MONGO_URI"),

		PaymentProvider: getEnv("PAYMENT_PROVIDER", "razorpay"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		StripeSecretKey:  os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://craftory.in"),
		Currency:      getEnv("CURRENCY", "INR"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),

		SMTPServer:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPEmail:      os.Getenv("SMTP_EMAIL"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPSenderName: getEnv("SMTP_SENDER_NAME", "Craftory"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required database environment variables")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	return cfg, nil
}

// GatewayConfigured reports whether credentials for the selected provider are set.
// The payment surface answers 503 until they are.
func (c *Config) GatewayConfigured() bool {
	switch c.PaymentProvider {
	case "stripe":
		return c.StripeSecretKey != "" && c.StripeWebhookKey != ""
	default:
		return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
