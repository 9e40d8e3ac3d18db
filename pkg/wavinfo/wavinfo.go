// Package wavinfo reads the duration of a PCM WAV file from its RIFF
// header. The recorder produces fixed-format chunks (mono PCM, fixed
// sample rate), so a header read is enough to place a fragment on the
// day timeline before it has been transcribed.
package wavinfo

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Duration returns the playback length of the WAV file in seconds.
func Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readDuration(f)
}

func readDuration(r io.Reader) (float64, error) {
	var riff struct {
		ChunkID [4]byte
		Size    uint32
		Format  [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return 0, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff.ChunkID[:]) != "RIFF" || string(riff.Format[:]) != "WAVE" {
		return 0, fmt.Errorf("not a WAV file")
	}

	var byteRate uint32

	// Chunks appear in file order; fmt must precede data.
	for {
		var header struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, fmt.Errorf("no data chunk found")
			}
			return 0, fmt.Errorf("read chunk header: %w", err)
		}

		switch string(header.ID[:]) {
		case "fmt ":
			var format struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &format); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			if format.ByteRate == 0 {
				return 0, fmt.Errorf("invalid byte rate")
			}
			byteRate = format.ByteRate
			if rest := int64(header.Size) - 16; rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return 0, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			if byteRate == 0 {
				return 0, fmt.Errorf("data chunk before fmt chunk")
			}
			return float64(header.Size) / float64(byteRate), nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(header.Size)); err != nil {
				return 0, fmt.Errorf("skip %q chunk: %w", header.ID, err)
			}
		}
	}
}
