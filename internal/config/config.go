package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release or test
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	DSN    string `mapstructure:"dsn"`
}

type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Cleanup string        `mapstructure:"cleanup"` // cron spec
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Verbose    bool   `mapstructure:"verbose"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	DriverMemory = "memory"
	DriverSqlite = "sqlite"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.driver", DriverSqlite)
	v.SetDefault("storage.dsn", "raffle.db")
	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.cleanup", "@every 10m")
	v.SetDefault("log.file", "logs/raffle.log")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads .env, config.yaml and RAFFLE_* environment variables, in that
// order of increasing precedence for the environment.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env file loaded: %v", err)
	}

	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/raffle")
	}

	v.SetEnvPrefix("raffle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Warningf("no config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %q", c.Server.Mode)
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverSqlite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSqlite && c.Storage.DSN == "" {
		return errors.New("storage.dsn is required for sqlite")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	return nil
}
