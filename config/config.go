// Package config loads the host configuration.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"k40nano/board"
	"k40nano/host/nano"
	"k40nano/host/serial"
	"k40nano/plotter"
)

const milsPerMM = 1000.0 / 25.4

// BedConfig is the usable bed area
type BedConfig struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// Config is the complete host configuration
type Config struct {
	Board  string `json:"board"`  // speed table, e.g. "M2"; required
	Device string `json:"device"` // empty selects the first Nano found

	Baud          int `json:"baud"`
	ReadTimeoutMS int `json:"read_timeout_ms"`

	DefaultSpeed float64    `json:"default_speed"` // mm/s
	Bed          *BedConfig `json:"bed,omitempty"`

	Retries        int `json:"retries"`
	PollIntervalMS int `json:"poll_interval_ms"`
	TimeoutSeconds int `json:"timeout_seconds"`

	MonitorAddr string `json:"monitor_addr,omitempty"`

	FlipY   bool `json:"flip_y"`
	JogStep int  `json:"jog_step"` // mils per key press
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// DefaultConfig returns the configuration used without a config file
func DefaultConfig() *Config {
	config := &Config{
		Bed: &BedConfig{WidthMM: 300, HeightMM: 200},
	}
	applyDefaults(config)
	return config
}

// applyDefaults fills in missing values
func applyDefaults(config *Config) {
	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.ReadTimeoutMS == 0 {
		config.ReadTimeoutMS = 100
	}
	if config.DefaultSpeed == 0 {
		config.DefaultSpeed = plotter.DefaultSpeed
	}
	if config.Retries == 0 {
		config.Retries = 5
	}
	if config.PollIntervalMS == 0 {
		config.PollIntervalMS = 100
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = 300
	}
	if config.JogStep == 0 {
		config.JogStep = 100 // 0.1 inch
	}
}

// Validate checks values that have no usable default
func (c *Config) Validate() error {
	if c.Board != "" {
		if _, err := board.ByName(c.Board); err != nil {
			return err
		}
	}
	if c.DefaultSpeed < 0 {
		return fmt.Errorf("default_speed must be positive, got %v", c.DefaultSpeed)
	}
	if c.Bed != nil && (c.Bed.WidthMM <= 0 || c.Bed.HeightMM <= 0) {
		return fmt.Errorf("bed size must be positive, got %vx%v mm", c.Bed.WidthMM, c.Bed.HeightMM)
	}
	if c.Retries < 0 || c.JogStep < 0 {
		return fmt.Errorf("retries and jog_step must not be negative")
	}
	return nil
}

// SpeedTable returns the configured board. The board has to be named
// explicitly, there is no default.
func (c *Config) SpeedTable() (board.Board, error) {
	b, err := board.ByName(c.Board)
	if err != nil {
		return nil, fmt.Errorf("speed table: %w", err)
	}
	return b, nil
}

// Limits returns the bed area in mils, nil when no bed is configured
func (c *Config) Limits() *plotter.Bounds {
	if c.Bed == nil {
		return nil
	}
	return &plotter.Bounds{
		MaxX: int(math.Round(c.Bed.WidthMM * milsPerMM)),
		MaxY: int(math.Round(c.Bed.HeightMM * milsPerMM)),
	}
}

// PlotterConfig returns the plotter settings
func (c *Config) PlotterConfig(logger *log.Logger) plotter.Config {
	return plotter.Config{
		DefaultSpeed: c.DefaultSpeed,
		Limits:       c.Limits(),
		Logger:       logger,
	}
}

// SerialConfig returns the port settings for device
func (c *Config) SerialConfig(device string) *serial.Config {
	cfg := serial.DefaultConfig(device)
	cfg.Baud = c.Baud
	cfg.ReadTimeout = c.ReadTimeoutMS
	return cfg
}

// ConnectionConfig returns the packet transport settings
func (c *Config) ConnectionConfig() nano.Config {
	cfg := nano.DefaultConfig()
	cfg.Retries = c.Retries
	cfg.PollInterval = time.Duration(c.PollIntervalMS) * time.Millisecond
	cfg.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	return cfg
}
