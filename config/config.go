package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"storefront-dev-secret"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	RedisURL       string        `env:"REDIS_URL"`
	CartTTL        time.Duration `env:"CART_TTL" envDefault:"168h"`
	EventsBackend  string        `env:"EVENTS_BACKEND" envDefault:"none"`
	OrderTopicARN  string        `env:"SNS_ORDER_EVENTS_TOPIC_ARN"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic     string        `env:"KAFKA_TOPIC" envDefault:"order.placed"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:5173" envSeparator:","`
	RateLimit      int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	RateBurst      int           `env:"RATE_LIMIT_BURST" envDefault:"50"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	SeedDemoUser   bool          `env:"SEED_DEMO_USER" envDefault:"true"`
	ErrorInjection bool          `env:"ERROR_INJECTION" envDefault:"true"`

	CloudWatchEnabled   bool   `env:"CLOUDWATCH_ENABLED" envDefault:"false"`
	CloudWatchNamespace string `env:"CLOUDWATCH_NAMESPACE" envDefault:"PharmacyStorefront"`
}

const (
	EventsNone  = "none"
	EventsSNS   = "sns"
	EventsKafka = "kafka"
)

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.EventsBackend {
	case EventsNone, EventsSNS, EventsKafka:
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of none, sns, kafka; got %q", c.EventsBackend)
	}
	if c.EventsBackend == EventsSNS && c.OrderTopicARN == "" {
		return fmt.Errorf("SNS_ORDER_EVENTS_TOPIC_ARN is required when EVENTS_BACKEND=sns")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
