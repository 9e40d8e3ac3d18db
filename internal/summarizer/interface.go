package summarizer

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoMediumSummary is returned when a short summary is requested for
// a day that has no medium summary to derive it from.
var ErrNoMediumSummary = errors.New("day has no medium summary")

// ErrEmptySummary is returned when a caller tries to save a blank
// medium summary.
var ErrEmptySummary = errors.New("summary text is empty")

// GenerationError marks provider failures. The day's stored summaries
// are untouched when one is returned; the request can be retried.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("summary generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Summarizer manages a day's summaries. The medium summary is authored
// by the user and stored verbatim; the short summary is derived from
// the medium one by a language model.
type Summarizer interface {
	SaveMedium(ctx context.Context, date, text string) error
	GenerateShort(ctx context.Context, date string) (string, error)
}

// Client turns a medium summary into a short one.
type Client interface {
	ShortSummary(ctx context.Context, mediumSummary string) (string, error)
}
