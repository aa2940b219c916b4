// Package config holds the application configuration: capture settings,
// loop timing, provider selection, and the control-server address.
// Provider credentials are deliberately kept out of the file and sourced
// from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/menta2k/chart-watch/pkg/provider"
	"github.com/menta2k/chart-watch/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Provider ProviderConfig `json:"provider"`
	Capture  CaptureConfig  `json:"capture"`
	Monitor  MonitorConfig  `json:"monitor"`
	Server   ServerConfig   `json:"server"`
}

// ProviderConfig selects the AI backend and optional model overrides.
type ProviderConfig struct {
	Default   string            `json:"default"`
	Models    map[string]string `json:"models,omitempty"`
	OllamaURL string            `json:"ollama_url,omitempty"`
}

// CaptureConfig controls how screen frames are produced.
type CaptureConfig struct {
	Display int     `json:"display"`
	Format  string  `json:"format"`
	Quality int     `json:"quality"`
	Scale   float64 `json:"scale"`
}

// MonitorConfig controls the analysis loop timing and the initial region.
type MonitorConfig struct {
	IntervalSeconds int           `json:"interval_seconds"`
	Region          *types.Region `json:"region,omitempty"`
}

// Interval returns the cycle period as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// ServerConfig holds the control-surface listen address.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Default: provider.OpenAI,
		},
		Capture: CaptureConfig{
			Display: 0,
			Format:  "png",
			Quality: 90,
			Scale:   0,
		},
		Monitor: MonitorConfig{
			IntervalSeconds: 30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8377",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	known := false
	for _, id := range provider.Known() {
		if c.Provider.Default == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("provider.default %q is not a known provider", c.Provider.Default)
	}

	switch c.Capture.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("capture.format must be one of jpg, png, webp")
	}

	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return fmt.Errorf("capture.quality must be between 1 and 100")
	}

	if c.Capture.Scale < 0 {
		return fmt.Errorf("capture.scale must not be negative")
	}

	if c.Monitor.IntervalSeconds < 5 {
		return fmt.Errorf("monitor.interval_seconds must be at least 5")
	}

	if c.Monitor.Region != nil && !c.Monitor.Region.Valid() {
		return fmt.Errorf("monitor.region must have positive width and height")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "chart-watch", "config.json")
}
