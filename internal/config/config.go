package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"betting-backend/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	URL         string `env:"URL"`
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"5432"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Name        string `env:"NAME"`
	SSLMode     string `env:"SSL_MODE" envDefault:"disable"`
	MaxConns    int32  `env:"MAX_CONNS" envDefault:"10"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

// DSN returns URL when set, otherwise a DSN built from the discrete fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode)
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Channel  string `env:"CHANNEL" envDefault:"betting:big_wins"`
}

type RabbitMQConfig struct {
	URL        string `env:"URL"`
	Exchange   string `env:"EXCHANGE" envDefault:"betting_events"`
	RoutingKey string `env:"ROUTING_KEY" envDefault:"wager.big_win"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"big-wins"`
}

type StoreConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
}

type NotifyConfig struct {
	QueueSize int `env:"QUEUE_SIZE" envDefault:"256"`
}

type RateLimitConfig struct {
	BetsPerMinute int `env:"BETS_PER_MINUTE" envDefault:"30"`
}

type Config struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Port            string        `env:"PORT" envDefault:"3000"`
	CORSOrigin      string        `env:"CORS_ORIGIN" envDefault:"*"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	StartingBalance models.Money  `env:"STARTING_BALANCE" envDefault:"1000.00"`
	MaxBet          models.Money  `env:"MAX_BET" envDefault:"100000.00"`
	AdminEmails     []string      `env:"ADMIN_EMAILS" envSeparator:","`
	// RNGSeed makes game outcomes reproducible. Zero selects crypto/rand.
	RNGSeed uint64 `env:"RNG_SEED" envDefault:"0"`

	Store     StoreConfig     `envPrefix:"STORE_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RabbitMQ  RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Notify    NotifyConfig    `envPrefix:"NOTIFY_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Name == "" {
			return fmt.Errorf("store driver %q needs DATABASE_URL or DATABASE_NAME", c.Store.Driver)
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store driver %q needs REDIS_ADDR", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE must not be negative")
	}
	if c.MaxBet <= 0 {
		return fmt.Errorf("MAX_BET must be positive")
	}
	if c.Notify.QueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
