// Package config holds the JSON configuration of the sparse shell and of the
// components it wires: logging, the envelope codec and telemetry.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/log"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

const (
	DefaultConfigFileName = "sparse.json"
	CurrentConfigVersion  = 1
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("configuration not found")
)

// Compression names accepted for the envelope body
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionZstd   = "zstd"
)

// Key kinds accepted by the shell store
const (
	KeyKindLong  = "long"
	KeyKindArray = "array"
)

// EnvelopeConfig controls how detached entries are serialized
type EnvelopeConfig struct {
	Compression string `json:"compression"`
	ZstdLevel   int    `json:"zstd_level"`
}

// ShellConfig controls the interactive shell
type ShellConfig struct {
	Prompt       string `json:"prompt"`
	HistoryFile  string `json:"history_file"`
	HistoryLimit int    `json:"history_limit"`
	KeyKind      string `json:"key_kind"`
}

type Config struct {
	Version  int    `json:"version"`
	LogLevel string `json:"log_level"`

	Envelope  EnvelopeConfig   `json:"envelope"`
	Telemetry telemetry.Config `json:"telemetry"`
	Shell     ShellConfig      `json:"shell"`

	mu sync.RWMutex
}

// NewDefaultConfig creates a Config with recommended default values
func NewDefaultConfig() *Config {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".sparse_history")
	}

	return &Config{
		Version:  CurrentConfigVersion,
		LogLevel: "info",

		Envelope: EnvelopeConfig{
			Compression: CompressionNone,
			ZstdLevel:   3,
		},

		Telemetry: telemetry.DefaultConfig(),

		Shell: ShellConfig{
			Prompt:       "sparse> ",
			HistoryFile:  historyFile,
			HistoryLimit: 1000,
			KeyKind:      KeyKindLong,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validate()
}

func (c *Config) validate() error {
	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Envelope.Compression {
	case CompressionNone, CompressionSnappy, CompressionZstd:
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidConfig, c.Envelope.Compression)
	}

	if c.Envelope.ZstdLevel < 1 || c.Envelope.ZstdLevel > 22 {
		return fmt.Errorf("%w: zstd level must be between 1 and 22", ErrInvalidConfig)
	}

	if c.Shell.HistoryLimit < 0 {
		return fmt.Errorf("%w: history limit must not be negative", ErrInvalidConfig)
	}

	switch c.Shell.KeyKind {
	case KeyKindLong, KeyKindArray:
	default:
		return fmt.Errorf("%w: unknown key kind %q", ErrInvalidConfig, c.Shell.KeyKind)
	}

	if c.Telemetry.Enabled {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("%w: telemetry: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Load reads and validates the configuration stored at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to path through a temporary file
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename config: %w", err)
	}

	return nil
}

// LoadFromEnv overrides values from SPARSE_* environment variables
func (c *Config) LoadFromEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if val := os.Getenv("SPARSE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("SPARSE_ENVELOPE_COMPRESSION"); val != "" {
		c.Envelope.Compression = val
	}

	if val := os.Getenv("SPARSE_ENVELOPE_ZSTD_LEVEL"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			c.Envelope.ZstdLevel = level
		}
	}

	if val := os.Getenv("SPARSE_SHELL_PROMPT"); val != "" {
		c.Shell.Prompt = val
	}

	if val := os.Getenv("SPARSE_SHELL_HISTORY_FILE"); val != "" {
		c.Shell.HistoryFile = val
	}

	if val := os.Getenv("SPARSE_SHELL_KEY_KIND"); val != "" {
		c.Shell.KeyKind = val
	}

	c.Telemetry.LoadFromEnv()
}

// Update applies the given function to modify the configuration
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}
