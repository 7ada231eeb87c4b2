package config

import (
	"fmt"
	"net"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/chess-relay/internal/validator"
)

const (
	RoleRelay = "relay"
	RoleHost  = "host"
	RoleJoin  = "join"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Role      string    `yaml:"role" env:"ROLE" env-default:"relay" validate:"oneof=relay host join"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090" validate:"omitempty,numeric"`
	Relay     Relay     `yaml:"relay"`
	Redis     Redis     `yaml:"redis"`
	Client    Client    `yaml:"client"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Relay - where the relay listens, used by the relay and host roles.
type Relay struct {
	Host     string `yaml:"host" env:"RELAY_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"RELAY_PORT" env-default:"5000" validate:"required,numeric"`
	Capacity int    `yaml:"capacity" env:"RELAY_CAPACITY" env-default:"2" validate:"eq=2"`
}

// Redis - match ledger storage. Disabled means matches are kept in memory.
type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379" validate:"numeric"`
}

// Client - relay a joining peer connects to.
type Client struct {
	Address string `yaml:"address" env:"CLIENT_ADDRESS" env-default:"localhost"`
	Port    string `yaml:"port" env:"CLIENT_PORT" env-default:"5000" validate:"required,numeric"`
}

// Telemetry - OTLP collector receiving relay traces and metrics.
type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:"localhost:4317" validate:"omitempty,hostname_port"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"chess-relay"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads path with environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := validator.GetValidator().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

func (that *Relay) GetListenAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

func (that *Client) GetRelayAddr() string {
	return net.JoinHostPort(that.Address, that.Port)
}
