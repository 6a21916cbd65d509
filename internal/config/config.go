// Package config loads runtime settings from an optional YAML file with
// HOMEBASE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type VAPIDConfig struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	Subscriber string `yaml:"subscriber"`
}

type TriggerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

type Config struct {
	Port      string         `yaml:"port"`
	DBPath    string         `yaml:"db_path"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Timezone  string         `yaml:"timezone"`
	JWTSecret string         `yaml:"jwt_secret"`
	Redis     RedisConfig    `yaml:"redis"`
	Telegram  TelegramConfig `yaml:"telegram"`
	VAPID     VAPIDConfig    `yaml:"vapid"`
	Trigger   TriggerConfig  `yaml:"trigger"`
}

func Default() Config {
	return Config{
		Port:      "8080",
		DBPath:    "homebase.db",
		LogLevel:  "info",
		LogFormat: "text",
		Timezone:  "UTC",
		Trigger: TriggerConfig{
			Interval: time.Hour,
			Workers:  4,
		},
	}
}

// Load reads path (a missing file is fine when path is empty or absent),
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HOMEBASE_PORT", &c.Port)
	str("HOMEBASE_DB_PATH", &c.DBPath)
	str("HOMEBASE_LOG_LEVEL", &c.LogLevel)
	str("HOMEBASE_LOG_FORMAT", &c.LogFormat)
	str("HOMEBASE_TIMEZONE", &c.Timezone)
	str("HOMEBASE_JWT_SECRET", &c.JWTSecret)
	str("HOMEBASE_REDIS_ADDR", &c.Redis.Addr)
	str("HOMEBASE_REDIS_PASSWORD", &c.Redis.Password)
	str("HOMEBASE_TELEGRAM_TOKEN", &c.Telegram.Token)
	str("HOMEBASE_VAPID_PUBLIC_KEY", &c.VAPID.PublicKey)
	str("HOMEBASE_VAPID_PRIVATE_KEY", &c.VAPID.PrivateKey)
	str("HOMEBASE_VAPID_SUBSCRIBER", &c.VAPID.Subscriber)

	if v, ok := lookup("HOMEBASE_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMEBASE_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v, ok := lookup("HOMEBASE_TRIGGER_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOMEBASE_TRIGGER_INTERVAL: %w", err)
		}
		c.Trigger.Interval = d
	}
	if v, ok := lookup("HOMEBASE_TRIGGER_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMEBASE_TRIGGER_WORKERS: %w", err)
		}
		c.Trigger.Workers = n
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt secret is required (HOMEBASE_JWT_SECRET)"))
	} else if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt secret must be at least 16 bytes"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Trigger.Interval < time.Minute {
		errs = append(errs, errors.New("trigger interval must be at least 1m"))
	}
	if c.Trigger.Workers < 1 {
		errs = append(errs, errors.New("trigger workers must be positive"))
	}
	if (c.VAPID.PublicKey == "") != (c.VAPID.PrivateKey == "") {
		errs = append(errs, errors.New("vapid public and private keys must be set together"))
	}
	return errors.Join(errs...)
}
