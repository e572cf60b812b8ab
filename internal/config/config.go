// Package config loads the service configuration from a YAML file
// with environment-variable overrides for secrets.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort     int      `yaml:"HTTP_PORT"`
	DBHost       string   `yaml:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	JWTSecret    string   `yaml:"JWT_SECRET"`
	BcryptCost   int      `yaml:"BCRYPT_COST"`
	RedisAddr    string   `yaml:"REDIS_ADDR"`
	RedisPass    string   `yaml:"REDIS_PASSWORD"`
	RedisDB      int      `yaml:"REDIS_DB"`
}

// Load reads the YAML file at path and applies env overrides. A .env
// file next to the binary is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPass = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTPPort = n
		}
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	return &cfg, nil
}
