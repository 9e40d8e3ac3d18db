package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/pkg/executor"
	"github.com/mzolotukhin/daybook/pkg/wavinfo"
)

type whisperEngine struct {
	cfg    config.WhisperConfig
	exec   executor.Executor
	logger logger.Logger
}

// NewEngine returns the engine selected by the configuration: whisper.cpp
// against the local binary, or a mock engine for development without one.
func NewEngine(cfg *config.Config, exec executor.Executor, log logger.Logger) Engine {
	if cfg.Whisper.Mock {
		return &mockEngine{}
	}
	return &whisperEngine{
		cfg:    cfg.Whisper,
		exec:   exec,
		logger: log.With("component", "whisper"),
	}
}

// Transcribe runs whisper.cpp on the audio file and maps its JSON output
// into fragment-local segments.
// -oj: JSON output
// -l: force language (prevents hallucination)
// -ml/-mc 0: no segment length / context limits, better for long audio
func (e *whisperEngine) Transcribe(ctx context.Context, audioPath string) ([]store.TranscriptSegment, error) {
	tempDir, err := os.MkdirTemp("", "daybook-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outputPrefix := filepath.Join(tempDir, "transcript")

	args := []string{
		"-m", e.cfg.ModelPath,
		"-f", audioPath,
		"-oj",
		"-l", e.cfg.Language,
		"-t", strconv.Itoa(e.cfg.Threads),
		"-ml", "0",
		"-mc", "0",
		"--output-file", outputPrefix,
	}

	if _, err := e.exec.Execute(ctx, e.cfg.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}

	data, err := os.ReadFile(outputPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	segments, err := parseWhisperOutput(data)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("engine output parsed", "file", filepath.Base(audioPath), "segments", len(segments))
	return segments, nil
}

// parseWhisperOutput maps whisper.cpp JSON (millisecond offsets) into
// ordered, non-overlapping fragment-local segments. Empty and degenerate
// spans are dropped; overlaps are clamped to the previous segment's end.
func parseWhisperOutput(data []byte) ([]store.TranscriptSegment, error) {
	var out struct {
		Transcription []struct {
			Offsets struct {
				From int64 `json:"from"`
				To   int64 `json:"to"`
			} `json:"offsets"`
			Text string `json:"text"`
		} `json:"transcription"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]store.TranscriptSegment, 0, len(out.Transcription))
	prevEnd := 0.0
	for _, raw := range out.Transcription {
		text := strings.TrimSpace(raw.Text)
		if text == "" {
			continue
		}
		start := float64(raw.Offsets.From) / 1000.0
		end := float64(raw.Offsets.To) / 1000.0
		if start < prevEnd {
			start = prevEnd
		}
		if end <= start {
			continue
		}
		segments = append(segments, store.TranscriptSegment{Start: start, End: end, Text: text})
		prevEnd = end
	}
	return segments, nil
}

// mockEngine produces a placeholder transcript covering the whole chunk.
// Keeps the pipeline runnable without a whisper binary.
type mockEngine struct{}

func (m *mockEngine) Transcribe(_ context.Context, audioPath string) ([]store.TranscriptSegment, error) {
	duration, err := wavinfo.Duration(audioPath)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = 1
	}
	return []store.TranscriptSegment{{
		Start: 0,
		End:   duration,
		Text:  fmt.Sprintf("[mock transcript] %s", filepath.Base(audioPath)),
	}}, nil
}
