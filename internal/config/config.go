package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Escrow     EscrowConfig     `json:"escrow"`
	Auth       AuthConfig       `json:"auth"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	RateLimit    int           `json:"rate_limit"` // mutating requests per caller per minute
}

// DatabaseConfig holds the Supabase mirror configuration. The mirror is
// optional; when disabled the engine runs purely in process.
type DatabaseConfig struct {
	Enabled     bool   `json:"enabled"`
	SupabaseURL string `json:"supabase_url"`
	SupabaseKey string `json:"supabase_key"`
}

// EscrowConfig holds the engine configuration. ArbiterAddress is the one
// account allowed to resolve disputes. ChainURL points at the external
// value-transfer node; when empty the in-memory simulator is used instead.
type EscrowConfig struct {
	ArbiterAddress  string        `json:"arbiter_address"`
	ChainURL        string        `json:"chain_url"`
	TransferTimeout time.Duration `json:"transfer_timeout"`
}

// AuthConfig holds the bearer-token settings for the HTTP surface.
type AuthConfig struct {
	TokenSecret string `json:"token_secret"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled  bool   `json:"enabled"`
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit:    60,
		},
		Database: DatabaseConfig{
			Enabled:     false,
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			SupabaseKey: os.Getenv("SUPABASE_KEY"),
		},
		Escrow: EscrowConfig{
			ArbiterAddress:  os.Getenv("ESCROW_ARBITER"),
			ChainURL:        os.Getenv("CHAIN_URL"),
			TransferTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenSecret: os.Getenv("TOKEN_SECRET"),
		},
		Monitoring: MonitoringConfig{
			Enabled:  true,
			LogLevel: "info",
			LogFile:  "logs/escrowd.log",
		},
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Escrow.ArbiterAddress == "" {
		return fmt.Errorf("arbiter address is required")
	}

	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret is required")
	}

	if c.Database.Enabled {
		if c.Database.SupabaseURL == "" {
			return fmt.Errorf("supabase URL is required when the mirror is enabled")
		}
		if c.Database.SupabaseKey == "" {
			return fmt.Errorf("supabase key is required when the mirror is enabled")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535")
	}

	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	if c.Escrow.TransferTimeout <= 0 {
		return fmt.Errorf("transfer timeout must be positive")
	}

	return nil
}
