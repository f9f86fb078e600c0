// Package config loads the simulator configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// QueueConfig bounds the frame queue and its statistics window.
type QueueConfig struct {
	MaxLength  int `yaml:"max_length"`
	RateWindow int `yaml:"rate_window"`
}

// SourceConfig shapes the synthetic frame producer.
type SourceConfig struct {
	FPS    float64 `yaml:"fps"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// SinkConfig shapes the consumer tick loop.
type SinkConfig struct {
	TickMs int `yaml:"tick_ms"`
}

// Config is the full simulator configuration.
type Config struct {
	Queue    QueueConfig  `yaml:"queue"`
	Source   SourceConfig `yaml:"source"`
	Sink     SinkConfig   `yaml:"sink"`
	HTTPAddr string       `yaml:"http_addr"`
	// RecordPath enables session recording of consumed frames when
	// non-empty.
	RecordPath string `yaml:"record_path"`
	LogLevel   string `yaml:"log_level"`
	LogColor   bool   `yaml:"log_color"`
}

// Default returns the configuration used when no file is given: a
// 30fps 640x480 source against a 60Hz consumer tick and a five-frame
// queue.
func Default() *Config {
	return &Config{
		Queue:    QueueConfig{MaxLength: 5, RateWindow: 30},
		Source:   SourceConfig{FPS: 30, Width: 640, Height: 480},
		Sink:     SinkConfig{TickMs: 16},
		HTTPAddr: ":8081",
		LogLevel: "info",
		LogColor: true,
	}
}

// Load reads and validates a YAML configuration file. Fields left
// unset in the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the queue or the loops cannot run
// with.
func (c *Config) Validate() error {
	if c.Queue.MaxLength <= 0 {
		return fmt.Errorf("queue.max_length must be positive, got %d", c.Queue.MaxLength)
	}
	if c.Queue.RateWindow <= 0 {
		return fmt.Errorf("queue.rate_window must be positive, got %d", c.Queue.RateWindow)
	}
	if c.Source.FPS <= 0 || c.Source.FPS > 240 {
		return fmt.Errorf("source.fps out of range: %g", c.Source.FPS)
	}
	if c.Source.Width <= 0 || c.Source.Height <= 0 {
		return fmt.Errorf("source resolution invalid: %dx%d", c.Source.Width, c.Source.Height)
	}
	if c.Sink.TickMs <= 0 {
		return fmt.Errorf("sink.tick_ms must be positive, got %d", c.Sink.TickMs)
	}
	return nil
}

// FrameInterval returns the time between produced frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Source.FPS)
}

// TickInterval returns the time between consumer ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Sink.TickMs) * time.Millisecond
}
