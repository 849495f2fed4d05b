package config

import (
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env" validate:"oneof=development production test"`
	Timezone string `yaml:"timezone" validate:"timezone"`
	Server   struct {
		Port            string `yaml:"port" validate:"required,numeric"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" validate:"required,min=16"`
		TokenTTL  string `yaml:"tokenTTL"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL                           string `yaml:"ttl"`
		AllowMultipleAttemptsPerTopic bool   `yaml:"allowMultipleAttemptsPerTopic"`
	} `yaml:"quiz"`
}

// Default returns the settings used when neither the file nor the
// environment says otherwise.
func Default() Config {
	var cfg Config
	cfg.Env = "development"
	cfg.Timezone = "UTC"
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.Log.Level = "info"
	cfg.Auth.TokenTTL = "24h"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.AllowMultipleAttemptsPerTopic = true
	return cfg
}

// Load reads YAML config from path on top of Default, then applies .env and
// environment overrides and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", path)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, errors.Wrapf(err, "read %s", path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, errors.Wrap(err, "load .env")
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set("LMS_ENV", &cfg.Env)
	set("LMS_TIMEZONE", &cfg.Timezone)
	set("PORT", &cfg.Server.Port)
	set("LOG_LEVEL", &cfg.Log.Level)
	set("JWT_SECRET", &cfg.Auth.JWTSecret)
	set("DATABASE_URL", &cfg.Postgres.URL)
	set("REDIS_ADDR", &cfg.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Redis.Password)
	if v := os.Getenv("LMS_ALLOW_MULTIPLE_ATTEMPTS"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "LMS_ALLOW_MULTIPLE_ATTEMPTS")
		}
		cfg.Quiz.AllowMultipleAttemptsPerTopic = allow
	}
	return nil
}

// Validate checks struct tags.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
