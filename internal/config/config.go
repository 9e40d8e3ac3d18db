package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths         PathsConfig         `yaml:"paths"`
	Watcher       WatcherConfig       `yaml:"watcher"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Summary       SummaryConfig       `yaml:"summary"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type PathsConfig struct {
	Recordings string `yaml:"recordings"`
	Database   string `yaml:"database"`
}

type WatcherConfig struct {
	StabilityWindowSeconds int `yaml:"stability_window_seconds"`
	RescanIntervalSeconds  int `yaml:"rescan_interval_seconds"`
}

type WhisperConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
	Threads    int    `yaml:"threads"`
	Mock       bool   `yaml:"mock"`
}

type TranscriptionConfig struct {
	TimeoutSeconds      int `yaml:"timeout_seconds"`
	RetryBudget         int `yaml:"retry_budget"`
	RetryBackoffSeconds int `yaml:"retry_backoff_seconds"`
	WorkerPoolSize      int `yaml:"worker_pool_size"`
}

type SummaryConfig struct {
	Provider       string `yaml:"provider"`
	OpenAIModel    string `yaml:"openai_model"`
	GeminiModel    string `yaml:"gemini_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.Recordings == "" {
		return fmt.Errorf("paths.recordings is required")
	}
	if c.Paths.Database == "" {
		return fmt.Errorf("paths.database is required")
	}
	if !c.Whisper.Mock {
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required")
		}
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required")
		}
	}

	if c.Watcher.StabilityWindowSeconds == 0 {
		c.Watcher.StabilityWindowSeconds = 10
	}
	if c.Watcher.RescanIntervalSeconds == 0 {
		c.Watcher.RescanIntervalSeconds = 5
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = 300
	}
	if c.Transcription.RetryBudget == 0 {
		c.Transcription.RetryBudget = 3
	}
	if c.Transcription.RetryBackoffSeconds == 0 {
		c.Transcription.RetryBackoffSeconds = 5
	}
	if c.Transcription.WorkerPoolSize == 0 {
		c.Transcription.WorkerPoolSize = 2
	}
	if c.Summary.Provider == "" {
		c.Summary.Provider = "openai"
	}
	if c.Summary.Provider != "openai" && c.Summary.Provider != "gemini" {
		return fmt.Errorf("summary.provider must be openai or gemini, got %q", c.Summary.Provider)
	}
	if c.Summary.OpenAIModel == "" {
		c.Summary.OpenAIModel = "gpt-4o-mini"
	}
	if c.Summary.GeminiModel == "" {
		c.Summary.GeminiModel = "gemini-2.5-flash"
	}
	if c.Summary.TimeoutSeconds == 0 {
		c.Summary.TimeoutSeconds = 60
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

func (c *Config) StabilityWindow() time.Duration {
	return time.Duration(c.Watcher.StabilityWindowSeconds) * time.Second
}

func (c *Config) RescanInterval() time.Duration {
	return time.Duration(c.Watcher.RescanIntervalSeconds) * time.Second
}

func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Transcription.RetryBackoffSeconds) * time.Second
}

func (c *Config) SummaryTimeout() time.Duration {
	return time.Duration(c.Summary.TimeoutSeconds) * time.Second
}
