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
	DriverLocal = "local"
	DriverRedis = "redis"
)

var ErrUnknownDriver = errors.New("unknown broadcast driver")

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3000"`
	DebugLocks bool      `yaml:"debug-locks" env:"DEBUG_LOCKS" env-default:"false"`
	Broadcast  Broadcast `yaml:"broadcast"`
	Redis      Redis     `yaml:"redis"`
	Registry   Registry  `yaml:"registry"`
}

type Broadcast struct {
	Driver        string `yaml:"driver" env:"BROADCAST_DRIVER" env-default:"local"`
	ChannelPrefix string `yaml:"channel-prefix" env:"BROADCAST_CHANNEL_PREFIX" env-default:"tictactoe:room:"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Registry struct {
	// MatchTTL of zero keeps matches until restart.
	MatchTTL      time.Duration `yaml:"match-ttl" env:"MATCH_TTL" env-default:"0s"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"SWEEP_INTERVAL" env-default:"1m"`
}

// Load - reads path with env overrides, or env alone when path does not exist.
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

	if err = config.validate(); err != nil {
		return nil, err
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

func (that *Config) validate() error {
	switch that.Broadcast.Driver {
	case DriverLocal, DriverRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.Broadcast.Driver)
	}

	if that.Registry.MatchTTL > 0 && that.Registry.SweepInterval <= 0 {
		return fmt.Errorf("sweep-interval must be positive when match-ttl is set, got %s", that.Registry.SweepInterval)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
