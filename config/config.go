package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the SQLite catalog/equivalence store configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds the catalog retrieval cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MatchingConfig holds the comparison engine tuning knobs
type MatchingConfig struct {
	MinAcceptanceScore int           `mapstructure:"min_acceptance_score"`
	CandidateLimit     int           `mapstructure:"candidate_limit"`
	MaxAlternatives    int           `mapstructure:"max_alternatives"`
	RetrieveTimeout    time.Duration `mapstructure:"retrieve_timeout"`
	Workers            int           `mapstructure:"workers"`
}

// RateLimitConfig holds the inbound per-IP rate limit configuration
type RateLimitConfig struct {
	PerIP float64 `mapstructure:"per_ip"` // requests per second
	Burst int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cuidaelmango/")

	v.SetEnvPrefix("CUIDAELMANGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("database.path", "data/cuidaelmango.db")

	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("matching.min_acceptance_score", 50)
	v.SetDefault("matching.candidate_limit", 20)
	v.SetDefault("matching.max_alternatives", 3)
	v.SetDefault("matching.retrieve_timeout", "2s")
	v.SetDefault("matching.workers", 4)

	v.SetDefault("ratelimit.per_ip", 10.0)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required (set CUIDAELMANGO_DATABASE_PATH)")
	}

	if config.Matching.MinAcceptanceScore < 0 || config.Matching.MinAcceptanceScore > 100 {
		return fmt.Errorf("matching.min_acceptance_score must be in [0,100], got: %d",
			config.Matching.MinAcceptanceScore)
	}

	if config.Matching.CandidateLimit <= 0 {
		return fmt.Errorf("matching.candidate_limit must be positive, got: %d",
			config.Matching.CandidateLimit)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %f", config.RateLimit.PerIP)
	}

	return nil
}
