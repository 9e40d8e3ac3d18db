package config

import (
	"os"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Paths: PathsConfig{
					Recordings: "data/recordings",
					Database:   "data/daybook.db",
				},
				Whisper: WhisperConfig{
					BinaryPath: "./whisper",
					ModelPath:  "models/test.bin",
				},
			},
			wantErr: false,
		},
		{
			name: "missing recordings path",
			config: Config{
				Paths: PathsConfig{
					Database: "data/daybook.db",
				},
				Whisper: WhisperConfig{
					BinaryPath: "./whisper",
					ModelPath:  "models/test.bin",
				},
			},
			wantErr: true,
		},
		{
			name: "missing whisper binary",
			config: Config{
				Paths: PathsConfig{
					Recordings: "data/recordings",
					Database:   "data/daybook.db",
				},
				Whisper: WhisperConfig{
					ModelPath: "models/test.bin",
				},
			},
			wantErr: true,
		},
		{
			name: "mock engine needs no whisper paths",
			config: Config{
				Paths: PathsConfig{
					Recordings: "data/recordings",
					Database:   "data/daybook.db",
				},
				Whisper: WhisperConfig{Mock: true},
			},
			wantErr: false,
		},
		{
			name: "unknown summary provider",
			config: Config{
				Paths: PathsConfig{
					Recordings: "data/recordings",
					Database:   "data/daybook.db",
				},
				Whisper: WhisperConfig{Mock: true},
				Summary: SummaryConfig{Provider: "claude"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Paths: PathsConfig{
			Recordings: "data/recordings",
			Database:   "data/daybook.db",
		},
		Whisper: WhisperConfig{Mock: true},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.StabilityWindow() != 10*time.Second {
		t.Errorf("StabilityWindow() = %v, want 10s", cfg.StabilityWindow())
	}
	if cfg.Transcription.RetryBudget != 3 {
		t.Errorf("RetryBudget = %d, want 3", cfg.Transcription.RetryBudget)
	}
	if cfg.Transcription.WorkerPoolSize != 2 {
		t.Errorf("WorkerPoolSize = %d, want 2", cfg.Transcription.WorkerPoolSize)
	}
	if cfg.Summary.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Summary.Provider)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
paths:
  recordings: "data/recordings"
  database: "data/daybook.db"

watcher:
  stability_window_seconds: 15
  rescan_interval_seconds: 3

whisper:
  binary_path: "./whisper"
  model_path: "models/test.bin"
  language: "ru"

transcription:
  timeout_seconds: 120
  retry_budget: 5

logging:
  level: "debug"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.Recordings != "data/recordings" {
		t.Errorf("Recordings = %v, want data/recordings", cfg.Paths.Recordings)
	}
	if cfg.StabilityWindow() != 15*time.Second {
		t.Errorf("StabilityWindow() = %v, want 15s", cfg.StabilityWindow())
	}
	if cfg.Whisper.Language != "ru" {
		t.Errorf("Language = %v, want ru", cfg.Whisper.Language)
	}
	if cfg.Transcription.RetryBudget != 5 {
		t.Errorf("RetryBudget = %d, want 5", cfg.Transcription.RetryBudget)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
