package wavinfo

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeWAV builds a minimal PCM WAV: 16kHz mono 16-bit with the given
// number of samples.
func writeWAV(t *testing.T, samples int) string {
	t.Helper()

	const (
		sampleRate = 16000
		channels   = 1
		bits       = 16
	)
	dataSize := samples * channels * bits / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bits))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		want    float64
	}{
		{"one second", 16000, 1.0},
		{"half second", 8000, 0.5},
		{"ten minutes", 16000 * 600, 600.0},
		{"empty data", 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWAV(t, tt.samples)
			got, err := Duration(path)
			if err != nil {
				t.Fatalf("Duration() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationNotWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff container"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Duration(path); err == nil {
		t.Error("Duration() should fail on a non-WAV file")
	}
}

func TestDurationMissingFile(t *testing.T) {
	if _, err := Duration(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Duration() should fail on a missing file")
	}
}
