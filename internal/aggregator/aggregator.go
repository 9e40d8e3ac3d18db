// Package aggregator maintains each day's timeline: fragment offsets,
// total duration and the day's full text. Updates to one day are
// serialized; different days aggregate in parallel.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
)

type Aggregator struct {
	store  store.Store
	logger logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(st store.Store, log logger.Logger) *Aggregator {
	return &Aggregator{
		store:  st,
		logger: log.With("component", "aggregator"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Rebuild recomputes the day from its transcribed fragments: offsets in
// (recorded_at, filename) order, total duration, and full text. The whole
// recompute runs in one transaction under the day's lock, so arrival order
// of fragments never affects the result.
func (a *Aggregator) Rebuild(ctx context.Context, date string) error {
	lock := a.dayLock(date)
	lock.Lock()
	defer lock.Unlock()

	var total float64
	var count int

	err := a.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetOrCreateDay(ctx, date); err != nil {
			return fmt.Errorf("get or create day: %w", err)
		}

		fragments, err := tx.FragmentsByDay(ctx, date, store.StateTranscribed)
		if err != nil {
			return fmt.Errorf("list transcribed fragments: %w", err)
		}

		var fullText strings.Builder
		offset := 0.0
		for _, fr := range fragments {
			if fr.OffsetSeconds != offset {
				if err := tx.UpdateFragmentOffset(ctx, fr.ID, offset); err != nil {
					return fmt.Errorf("update offset for %s: %w", fr.SourceFilename, err)
				}
			}
			offset += fr.DurationSeconds

			for _, seg := range fr.Segments.Data() {
				text := strings.TrimSpace(seg.Text)
				if text == "" {
					continue
				}
				if fullText.Len() > 0 {
					fullText.WriteString(" ")
				}
				fullText.WriteString(text)
			}
		}

		total = offset
		count = len(fragments)
		return tx.UpdateDayAggregate(ctx, date, total, fullText.String())
	})
	if err != nil {
		return err
	}

	a.logger.Debug("day rebuilt", "date", date, "fragments", count, "total_seconds", total)
	return nil
}

func (a *Aggregator) dayLock(date string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[date] = lock
	}
	return lock
}
