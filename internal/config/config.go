package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	multiplayerPort = "8000"
	staticPort      = "3000"
)

type Config struct {
	LogLevel    string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort    string `yaml:"port" env:"PORT"`
	Multiplayer bool   `yaml:"multiplayer" env:"MULTIPLAYER" env-default:"true"`
	StaticDir   string `yaml:"static-dir" env:"STATIC_DIR" env-default:"public"`
	Relay       Relay  `yaml:"relay"`
	Redis       Redis  `yaml:"redis"`
}

type Relay struct {
	AckRejections  bool          `yaml:"ack-rejections" env:"RELAY_ACK_REJECTIONS" env-default:"false"`
	ReconnectGrace time.Duration `yaml:"reconnect-grace" env:"RELAY_RECONNECT_GRACE" env-default:"15s"`
	CodeTTL        time.Duration `yaml:"code-ttl" env:"RELAY_CODE_TTL" env-default:"10m"`
	RateLimit      float64       `yaml:"rate-limit" env:"RELAY_RATE_LIMIT" env-default:"20"`
	RateBurst      int           `yaml:"rate-burst" env:"RELAY_RATE_BURST" env-default:"40"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"RELAY_MAX_MESSAGE_SIZE" env-default:"4096"`
	PingInterval   time.Duration `yaml:"ping-interval" env:"RELAY_PING_INTERVAL" env-default:"25s"`
	PongWait       time.Duration `yaml:"pong-wait" env:"RELAY_PONG_WAIT" env-default:"60s"`
	WriteWait      time.Duration `yaml:"write-wait" env:"RELAY_WRITE_WAIT" env-default:"10s"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Load - reads config.yml when it exists, otherwise the environment alone.
// Environment variables always win over the file.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	if config.Relay.PingInterval >= config.Relay.PongWait {
		return nil, fmt.Errorf("ping-interval %s must be shorter than pong-wait %s", config.Relay.PingInterval, config.Relay.PongWait)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Port - the listen port; unset means 8000 with multiplayer and 3000 for static only.
func (that *Config) Port() string {
	if that.HTTPPort != "" {
		return that.HTTPPort
	}

	if that.Multiplayer {
		return multiplayerPort
	}

	return staticPort
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
