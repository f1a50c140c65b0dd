package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Kafka       KafkaConfig
	Reservation ReservationConfig
	Sweeper     SweeperConfig
	Publisher   PublisherConfig
	Consumer    ConsumerConfig
	CORS        CORSConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type KafkaConfig struct {
	Brokers         []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	InventoryTopic  string   `envconfig:"KAFKA_INVENTORY_TOPIC" default:"inventory"`
	PaymentsTopic   string   `envconfig:"KAFKA_PAYMENTS_TOPIC" default:"payments"`
	DeadLetterTopic string   `envconfig:"KAFKA_DEAD_LETTER_TOPIC" default:"inventory.dlq"`
	ConsumerGroup   string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"inventory-engine"`
}

type ReservationConfig struct {
	DefaultTTL time.Duration `envconfig:"RESERVATION_DEFAULT_TTL" default:"10m"`
}

type SweeperConfig struct {
	Interval  time.Duration `envconfig:"SWEEPER_INTERVAL" default:"30s"`
	BatchSize int32         `envconfig:"SWEEPER_BATCH_SIZE" default:"100"`
}

type PublisherConfig struct {
	PollInterval time.Duration `envconfig:"PUBLISHER_POLL_INTERVAL" default:"1s"`
	BatchSize    int32         `envconfig:"PUBLISHER_BATCH_SIZE" default:"100"`
	MaxRetries   int32         `envconfig:"PUBLISHER_MAX_RETRIES" default:"5"`
}

type ConsumerConfig struct {
	MaxRetries       int           `envconfig:"CONSUMER_MAX_RETRIES" default:"3"`
	RetryBackoff     time.Duration `envconfig:"CONSUMER_RETRY_BACKOFF" default:"100ms"`
	LivenessInterval time.Duration `envconfig:"CONSUMER_LIVENESS_INTERVAL" default:"30s"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Kafka: KafkaConfig{
			Brokers:         []string{"localhost:19092"},
			InventoryTopic:  "inventory",
			PaymentsTopic:   "payments",
			DeadLetterTopic: "inventory.dlq",
			ConsumerGroup:   "inventory-engine-test",
		},
		Reservation: ReservationConfig{
			DefaultTTL: 10 * time.Minute,
		},
		Sweeper: SweeperConfig{
			Interval:  time.Second,
			BatchSize: 100,
		},
		Publisher: PublisherConfig{
			PollInterval: 100 * time.Millisecond,
			BatchSize:    100,
			MaxRetries:   5,
		},
		Consumer: ConsumerConfig{
			MaxRetries:       3,
			RetryBackoff:     100 * time.Millisecond,
			LivenessInterval: time.Second,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
	}
}
