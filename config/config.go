package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Public base URL of the web app, used in bot links and share pages
	AppURL string `env:"APP_URL" envDefault:"http://localhost:5173"`

	// Canonical public site, used in shared listing URLs
	PublicURL string `env:"PUBLIC_URL" envDefault:"https://thefinder.co.il"`

	// Optional YAML city catalog replacing the embedded one
	CitiesFile string `env:"CITIES_FILE"`

	// Optional built index.html used as the shell of listing share pages
	IndexHTMLPath string `env:"INDEX_HTML_PATH"`

	Server struct {
		Port            string        `env:"PORT" envDefault:"5000"`
		AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Database struct {
		// "postgres" or "sqlite"
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		URL    string `env:"DATABASE_URL" envDefault:"data/thefinder.db"`
	}

	Auth struct {
		JWTSecret              string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
		TokenTTL               time.Duration `env:"JWT_TTL" envDefault:"24h"`
		AdminPassword          string        `env:"ADMIN_PASSWORD"`
		AdminSessionTTL        time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"12h"`
		SubscriptionLinkSecret string        `env:"SUBSCRIPTION_LINK_SECRET"`
	}

	Redis struct {
		// Admin sessions are kept in memory when empty
		URL string `env:"REDIS_URL"`
	}

	Telegram struct {
		BotToken    string `env:"TELEGRAM_BOT_TOKEN"`
		AdminChatID string `env:"TELEGRAM_ADMIN_CHAT_ID"`
	}

	RateLimit struct {
		RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
		Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	}

	Ingest struct {
		// Ingestion is disabled when empty
		AMQPURL   string `env:"AMQP_URL"`
		Queue     string `env:"AMQP_QUEUE" envDefault:"processed_listings"`
		Prefetch  int    `env:"AMQP_PREFETCH" envDefault:"50"`
		QueueSize int    `env:"INGEST_QUEUE_SIZE" envDefault:"100"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of listings to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before processing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"5"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.Auth.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD must be set in production")
		}
	}
	if c.BatchProcessing.MaxBatchSize <= 0 {
		return errors.New("BATCH_MAX_SIZE must be positive")
	}
	return nil
}

// LinkSecret signs personal subscription links.
func (c *Config) LinkSecret() string {
	if c.Auth.SubscriptionLinkSecret != "" {
		return c.Auth.SubscriptionLinkSecret
	}
	return c.Auth.JWTSecret
}
