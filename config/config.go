package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Services struct {
		ConversationURL string `yaml:"conversation_url"`
		AuthURL         string `yaml:"auth_url"`
		QueryURL        string `yaml:"query_url"`
	} `yaml:"services"`
	Auth struct {
		TokenPath string `yaml:"token_path"`
	} `yaml:"auth"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Paths struct {
		DocumentsDir string `yaml:"documents_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".docchat", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".docchat")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Services.ConversationURL = "http://localhost:8001"
	cfg.Services.AuthURL = "http://localhost:8002"
	cfg.Services.QueryURL = "http://127.0.0.1:8000"
	cfg.Logging.Level = "info"

	homeDir := os.Getenv("HOME")
	cfg.Auth.TokenPath = filepath.Join(homeDir, ".docchat", "token")
	cfg.Paths.DocumentsDir = filepath.Join(homeDir, "documents")

	return cfg
}
