package transcriber

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/store"
)

// Engine converts a chunk's audio into fragment-local transcript segments.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) ([]store.TranscriptSegment, error)
}

// Transcriber drains the ingestion queue with a bounded worker pool and
// drives the per-fragment state machine.
type Transcriber interface {
	Start(ctx context.Context)
	// Stop waits for in-flight fragments to finish.
	Stop()
	// Enqueue submits a pending fragment for transcription. Fire-and-forget:
	// if the queue is full the job is dropped and picked up again by the
	// watcher's next reconciliation pass.
	Enqueue(id uuid.UUID)
	// Retry re-claims a failed fragment and transcribes it with a fresh
	// attempt budget.
	Retry(ctx context.Context, id uuid.UUID) error
	// Regenerate re-transcribes an already-transcribed fragment, replacing
	// its segments atomically. The previous transcript survives a failed
	// regeneration.
	Regenerate(ctx context.Context, id uuid.UUID) error
}

var (
	// ErrNotRetryable is returned when retry is requested for a fragment
	// that is not in the failed state.
	ErrNotRetryable = errors.New("fragment is not in a retryable state")
	// ErrNotRegenerable is returned when regeneration is requested for a
	// fragment that has never been transcribed and has not failed.
	ErrNotRegenerable = errors.New("fragment has no transcript to regenerate")
)
