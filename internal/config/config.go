package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Values come from an optional YAML
// file named by CANVAS_CONFIG, then from the environment (including a .env
// file), environment winning.
type Config struct {
	Port           string   `yaml:"port"`
	Host           string   `yaml:"host"`
	DatabaseURL    string   `yaml:"database_url"`
	RedisURL       string   `yaml:"redis_url"`
	JWTSecret      string   `yaml:"jwt_secret"`
	JWKSIssuerURL  string   `yaml:"jwks_issuer_url"`
	LogLevel       string   `yaml:"log_level"`
	JaegerEndpoint string   `yaml:"jaeger_endpoint"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{Port: "8080", LogLevel: "info"}
	if path := os.Getenv("CANVAS_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Host = getEnv("HOST", c.Host)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWKSIssuerURL = getEnv("JWKS_ISSUER_URL", c.JWKSIssuerURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", c.JaegerEndpoint)
	if origins, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(origins)
	}
}

// Validate reports configuration that cannot serve.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.JWKSIssuerURL == "" {
		return errors.New("JWT_SECRET or JWKS_ISSUER_URL is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// SlogLevel is the configured log level. Validate has already rejected
// unknown names.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
