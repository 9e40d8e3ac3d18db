package summarizer

import (
	"context"
	"strings"
)

// SaveMedium stores the user-authored medium summary for the day
// verbatim. The day row is created if the date has no recordings yet.
func (s *implSummarizer) SaveMedium(ctx context.Context, date, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptySummary
	}

	if _, err := s.store.GetOrCreateDay(ctx, date); err != nil {
		return err
	}
	if err := s.store.SaveMediumSummary(ctx, date, text); err != nil {
		return err
	}

	s.logger.Info("medium summary saved", "day", date, "chars", len(text))
	return nil
}

// GenerateShort derives the short summary from the day's medium
// summary. Only the medium summary is used as input; without one the
// call fails before any provider request is made. The stored summaries
// are untouched unless generation succeeds.
func (s *implSummarizer) GenerateShort(ctx context.Context, date string) (string, error) {
	day, err := s.store.Day(ctx, date)
	if err != nil {
		return "", err
	}
	if !day.HasMediumSummary() {
		return "", ErrNoMediumSummary
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.SummaryTimeout())
	defer cancel()

	text, err := s.client.ShortSummary(cctx, day.MediumSummary)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GenerationError{Err: ErrEmptySummary}
	}

	if err := s.store.SaveShortSummary(ctx, date, text); err != nil {
		return "", err
	}

	s.logger.Info("short summary generated", "day", date, "chars", len(text))
	return text, nil
}
