// Package playlist assembles the ordered play list for a day's
// timeline: transcribed fragments with contiguous offsets, ready for a
// client to play back as one continuous day.
package playlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/store"
)

// Entry is one playable fragment on the day timeline.
type Entry struct {
	FragmentID      uuid.UUID                 `json:"fragment_id"`
	Locator         string                    `json:"locator"`
	SourceFilename  string                    `json:"source_filename"`
	RecordedAt      string                    `json:"recorded_at"`
	OffsetSeconds   float64                   `json:"offset_seconds"`
	DurationSeconds float64                   `json:"duration_seconds"`
	Segments        []store.TranscriptSegment `json:"segments"`
}

// Playlist is the full playback plan for one day.
type Playlist struct {
	Date                 string  `json:"date"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	HasMediumSummary     bool    `json:"has_medium_summary"`
	HasShortSummary      bool    `json:"has_short_summary"`
	Entries              []Entry `json:"entries"`
}

type Builder struct {
	store store.Store
}

func NewBuilder(st store.Store) *Builder {
	return &Builder{store: st}
}

// Build assembles the playlist for date from the current store state.
// Only transcribed fragments are included; offsets are recomputed so
// entries stay contiguous even when some of the day's fragments are
// pending or failed.
func (b *Builder) Build(ctx context.Context, date string) (*Playlist, error) {
	day, err := b.store.Day(ctx, date)
	if err != nil {
		return nil, err
	}

	fragments, err := b.store.FragmentsByDay(ctx, date, store.StateTranscribed)
	if err != nil {
		return nil, err
	}

	pl := &Playlist{
		Date:             day.Date,
		HasMediumSummary: day.HasMediumSummary(),
		HasShortSummary:  day.HasShortSummary(),
		Entries:          make([]Entry, 0, len(fragments)),
	}

	var offset float64
	for _, fr := range fragments {
		pl.Entries = append(pl.Entries, Entry{
			FragmentID:      fr.ID,
			Locator:         "/audio/" + fr.ID.String(),
			SourceFilename:  fr.SourceFilename,
			RecordedAt:      fr.RecordedAt.Format("2006-01-02 15:04:05"),
			OffsetSeconds:   offset,
			DurationSeconds: fr.DurationSeconds,
			Segments:        fr.Segments.Data(),
		})
		offset += fr.DurationSeconds
	}
	pl.TotalDurationSeconds = offset

	return pl, nil
}
