package store

import (
	"context"

	"github.com/google/uuid"
)

// Store persists fragments and days.
type Store interface {
	// Transaction runs fn against a transactional view of the store.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// CreateFragmentIfAbsent inserts the fragment unless one with the same
	// source filename already exists. Returns the persisted fragment and
	// whether a new row was created.
	CreateFragmentIfAbsent(ctx context.Context, fragment *Fragment) (*Fragment, bool, error)
	Fragment(ctx context.Context, id uuid.UUID) (*Fragment, error)
	// FragmentsByDay returns the day's fragments ordered by
	// (recorded_at, source_filename), optionally filtered by state.
	FragmentsByDay(ctx context.Context, date string, states ...ProcessingState) ([]*Fragment, error)
	FragmentsByState(ctx context.Context, state ProcessingState) ([]*Fragment, error)
	// ClaimFragment transitions the fragment to transcribing if it is
	// currently in one of the given states. Returns false when the claim
	// was lost (already claimed, or not in an eligible state).
	ClaimFragment(ctx context.Context, id uuid.UUID, from ...ProcessingState) (bool, error)
	SetFragmentState(ctx context.Context, id uuid.UUID, state ProcessingState) error
	// RecordAttempt persists a failed attempt while the fragment stays claimed.
	RecordAttempt(ctx context.Context, id uuid.UUID, attempt int, lastError string) error
	// MarkTranscribed atomically replaces the segments and transitions to
	// transcribed.
	MarkTranscribed(ctx context.Context, id uuid.UUID, segments []TranscriptSegment, attempt int) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempt int, lastError string) error
	UpdateFragmentOffset(ctx context.Context, id uuid.UUID, offset float64) error
	// ResetStaleTranscribing returns fragments stranded in transcribing
	// (e.g. by a crash) to pending. Returns the number of rows reset.
	ResetStaleTranscribing(ctx context.Context) (int64, error)

	GetOrCreateDay(ctx context.Context, date string) (*Day, error)
	Day(ctx context.Context, date string) (*Day, error)
	Days(ctx context.Context) ([]*Day, error)
	UpdateDayAggregate(ctx context.Context, date string, totalDuration float64, fullText string) error
	SaveMediumSummary(ctx context.Context, date, text string) error
	SaveShortSummary(ctx context.Context, date, text string) error

	Stats(ctx context.Context) (*Stats, error)
}
