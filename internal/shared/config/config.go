package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Mail providers
const (
	ProviderSendGrid = "sendgrid"
	ProviderPostmark = "postmark"
	ProviderResend   = "resend"
)

// Config holds application configuration
type Config struct {
	MongoDB   MongoDBConfig
	RabbitMQ  RabbitMQConfig
	Mail      MailConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// MongoDBConfig holds MongoDB configuration
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
}

// RabbitMQConfig holds RabbitMQ configuration. An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// MailConfig holds mail provider configuration
type MailConfig struct {
	Provider  string
	APIKey    string
	FromEmail string
	FromName  string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// RateLimitConfig holds per-client rate limit settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// MissingError lists required environment variables that were not set
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	provider := strings.ToLower(getEnv("MAIL_PROVIDER", ProviderSendGrid))

	cfg := &Config{
		MongoDB: MongoDBConfig{
			URI:        strings.TrimSpace(os.Getenv("MONGODB_URI")),
			Database:   strings.TrimSpace(os.Getenv("MONGODB_DB_NAME")),
			Collection: strings.TrimSpace(os.Getenv("MONGODB_COLLECTION_NAME")),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "notifications"),
		},
		Mail: MailConfig{
			Provider:  provider,
			APIKey:    strings.TrimSpace(os.Getenv(apiKeyEnv(provider))),
			FromEmail: strings.TrimSpace(os.Getenv("FROM_EMAIL")),
			FromName:  strings.TrimSpace(os.Getenv("FROM_NAME")),
		},
		Server: ServerConfig{
			Port: getEnv("CAMPAIGN_SERVICE_PORT", "8085"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required value is present
func (c *Config) Validate() error {
	if apiKeyEnv(c.Mail.Provider) == "" {
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.Mail.Provider)
	}

	required := []struct {
		key   string
		value string
	}{
		{"MONGODB_URI", c.MongoDB.URI},
		{"MONGODB_DB_NAME", c.MongoDB.Database},
		{"MONGODB_COLLECTION_NAME", c.MongoDB.Collection},
		{apiKeyEnv(c.Mail.Provider), c.Mail.APIKey},
		{"FROM_EMAIL", c.Mail.FromEmail},
		{"FROM_NAME", c.Mail.FromName},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// apiKeyEnv returns the credential variable for a provider, or "" when unsupported
func apiKeyEnv(provider string) string {
	switch provider {
	case ProviderSendGrid:
		return "SENDGRID_API_KEY"
	case ProviderPostmark:
		return "POSTMARK_SERVER_TOKEN"
	case ProviderResend:
		return "RESEND_API_KEY"
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
