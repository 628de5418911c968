package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/gerunddev/notematrix/internal/matrix"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the notematrix configuration
type Config struct {
	VaultDir       string          `json:"vault_dir"`
	LogFile        string          `json:"log_file"`
	Debug          bool            `json:"debug"`
	SaveDebounce   time.Duration   `json:"-"` // Custom JSON handling below
	EchoGrace      time.Duration   `json:"-"`
	RenderDebounce time.Duration   `json:"-"`
	Defaults       matrix.Settings `json:"defaults"`
}

// fileConfig is the on-disk shape, with durations as strings.
type fileConfig struct {
	VaultDir       string           `json:"vault_dir"`
	LogFile        string           `json:"log_file"`
	Debug          bool             `json:"debug,omitempty"`
	SaveDebounce   string           `json:"save_debounce,omitempty"`
	EchoGrace      string           `json:"echo_grace,omitempty"`
	RenderDebounce string           `json:"render_debounce,omitempty"`
	Defaults       *json.RawMessage `json:"defaults,omitempty"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		VaultDir:       filepath.Join(home, "Documents", "vault"),
		LogFile:        filepath.Join(xdg.StateHome, "notematrix", "notematrix.log"),
		SaveDebounce:   500 * time.Millisecond,
		EchoGrace:      100 * time.Millisecond,
		RenderDebounce: 50 * time.Millisecond,
		Defaults:       matrix.DefaultSettings(),
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "notematrix", "config.json")
	}
	return filepath.Join(home, ".config", "notematrix", "config.json")
}

// Load reads configuration from the config directory. Comments and trailing
// commas are accepted. Missing keys keep their defaults.
func Load() (*Config, error) {
	configPath := ConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.ExpandPaths(); err != nil {
				return nil, fmt.Errorf("failed to expand paths: %w", err)
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Parse decodes a config document over the defaults without validating it.
func Parse(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var raw fileConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig()
	if raw.VaultDir != "" {
		cfg.VaultDir = raw.VaultDir
	}
	if raw.LogFile != "" {
		cfg.LogFile = raw.LogFile
	}
	cfg.Debug = raw.Debug

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"save_debounce", raw.SaveDebounce, &cfg.SaveDebounce},
		{"echo_grace", raw.EchoGrace, &cfg.EchoGrace},
		{"render_debounce", raw.RenderDebounce, &cfg.RenderDebounce},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format '%s': %w", d.name, d.value, err)
		}
		*d.dst = v
	}

	if raw.Defaults != nil {
		if err := json.Unmarshal(*raw.Defaults, &cfg.Defaults); err != nil {
			return nil, fmt.Errorf("invalid defaults: %w", err)
		}
		cfg.Defaults = cfg.Defaults.Clone()
	}

	return cfg, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	configPath := ConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	defaults, err := json.Marshal(c.Defaults.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	msg := json.RawMessage(defaults)

	raw := fileConfig{
		VaultDir:       c.VaultDir,
		LogFile:        c.LogFile,
		Debug:          c.Debug,
		SaveDebounce:   c.SaveDebounce.String(),
		EchoGrace:      c.EchoGrace.String(),
		RenderDebounce: c.RenderDebounce.String(),
		Defaults:       &msg,
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("%w: vault_dir cannot be empty", ErrInvalid)
	}
	if c.LogFile == "" {
		return fmt.Errorf("%w: log_file cannot be empty", ErrInvalid)
	}
	if c.SaveDebounce <= 0 {
		return fmt.Errorf("%w: save_debounce must be positive", ErrInvalid)
	}
	if c.EchoGrace <= 0 {
		return fmt.Errorf("%w: echo_grace must be positive", ErrInvalid)
	}
	if c.RenderDebounce < 0 {
		return fmt.Errorf("%w: render_debounce cannot be negative", ErrInvalid)
	}
	if c.Defaults.TodoTag == "" {
		return fmt.Errorf("%w: defaults.todoTag cannot be empty", ErrInvalid)
	}
	if c.Defaults.MaxFiles < 0 {
		return fmt.Errorf("%w: defaults.maxFiles cannot be negative", ErrInvalid)
	}
	return nil
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.VaultDir, err = expandPath(c.VaultDir)
	if err != nil {
		return fmt.Errorf("failed to expand vault_dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
