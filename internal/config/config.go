// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Oracle fallback modes control what happens when the verification
// oracle is unconfigured or unavailable.
const (
	FallbackLenient = "lenient" // auto-approve with confidence 100
	FallbackStrict  = "strict"  // reject with confidence 0
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Game     GameConfig     `mapstructure:"game"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Photos   PhotosConfig   `mapstructure:"photos"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// OracleConfig holds vision-model verification configuration.
// An empty APIKey disables verification and the Fallback mode decides
// whether claims are auto-approved or rejected.
type OracleConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	ConfidenceThreshold int           `mapstructure:"confidence_threshold"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Fallback            string        `mapstructure:"fallback"`
}

// GameConfig holds the point table for scored actions.
type GameConfig struct {
	PartyPhotoPoints int `mapstructure:"party_photo_points"`
	FilmPoints       int `mapstructure:"film_points"`
	TeamJoinPoints   int `mapstructure:"team_join_points"`
	PuzzlePoints     int `mapstructure:"puzzle_points"`
}

// SeedConfig holds the universe seed file location.
type SeedConfig struct {
	Path string `mapstructure:"path"`
}

// PhotosConfig holds submission photo storage configuration.
type PhotosConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, ORACLE_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Oracle.Fallback != FallbackLenient && cfg.Oracle.Fallback != FallbackStrict {
		return nil, fmt.Errorf("invalid oracle.fallback %q: must be %q or %q",
			cfg.Oracle.Fallback, FallbackLenient, FallbackStrict)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "partybot")
	v.SetDefault("database.name", "partybot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Oracle defaults
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.model", "gpt-4o")
	v.SetDefault("oracle.confidence_threshold", 70)
	v.SetDefault("oracle.timeout", "15s")
	v.SetDefault("oracle.fallback", FallbackLenient)

	// Point table defaults
	v.SetDefault("game.party_photo_points", 1)
	v.SetDefault("game.film_points", 20)
	v.SetDefault("game.team_join_points", 25)
	v.SetDefault("game.puzzle_points", 25)

	// Seed and storage defaults
	v.SetDefault("seed.path", "config/universes.yaml")
	v.SetDefault("photos.base_path", "data/photos")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
