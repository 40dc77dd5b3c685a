// Package config loads application configuration from environment
// variables, with optional overrides from a local .env file.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the configuration for the simulator process.
type Config struct {
	Symbol    string  `env:"SYMBOL" envDefault:"SIM-USD"`
	BasePrice float64 `env:"BASE_PRICE" envDefault:"100.0"`

	Sentiment  string `env:"SENTIMENT" envDefault:"neutral"`
	Intensity  string `env:"INTENSITY" envDefault:"normal"`
	NewsShocks bool   `env:"NEWS_SHOCKS" envDefault:"true"`

	MaxMatchLevels int `env:"MAX_MATCH_LEVELS" envDefault:"100"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server ServerConfig `envPrefix:"SERVER_"`
	Kafka  KafkaConfig  `envPrefix:"KAFKA_"`
}

// ServerConfig holds the configuration for the WebSocket/metrics server.
type ServerConfig struct {
	Addr          string `env:"ADDR" envDefault:":8081"`
	DepthInterval int    `env:"DEPTH_INTERVAL_MS" envDefault:"250"`
}

// KafkaConfig holds the configuration for the trade stream publisher.
// Publishing is disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS"`
	Topic   string   `env:"TOPIC" envDefault:"trades"`
}

// MustLoad loads the configuration from environment variables and .env file.
// It panics when parsing fails.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load()

	return env.Parse(cfg)
}
