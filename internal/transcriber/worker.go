package transcriber

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
)

// Start resets fragments stranded in transcribing by a previous run and
// spawns the worker pool. Pool size bounds how many engine invocations
// run at once.
func (t *implTranscriber) Start(ctx context.Context) {
	if n, err := t.store.ResetStaleTranscribing(ctx); err != nil {
		t.logger.Error("failed to reset stale fragments", "err", err)
	} else if n > 0 {
		t.logger.Info("reset stale transcribing fragments", "count", n)
	}

	for i := 0; i < t.cfg.Transcription.WorkerPoolSize; i++ {
		t.wg.Add(1)
		go t.worker(ctx, i)
	}
	t.logger.Info("transcription workers started", "pool_size", t.cfg.Transcription.WorkerPoolSize)
}

func (t *implTranscriber) Stop() {
	t.wg.Wait()
}

func (t *implTranscriber) worker(ctx context.Context, n int) {
	defer t.wg.Done()
	log := t.logger.With("worker", n)

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-t.jobs:
			t.process(ctx, j, log)
		}
	}
}

func (t *implTranscriber) Enqueue(id uuid.UUID) {
	select {
	case t.jobs <- job{id: id}:
	default:
		// The watcher re-enqueues pending fragments on its next pass.
		t.logger.Warn("job queue full, dropping enqueue", "fragment_id", id)
	}
}

func (t *implTranscriber) Retry(ctx context.Context, id uuid.UUID) error {
	ok, err := t.store.ClaimFragment(ctx, id, store.StateFailed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRetryable
	}
	// A manual retry starts over with a fresh budget.
	if err := t.store.RecordAttempt(ctx, id, 0, ""); err != nil {
		return err
	}
	if err := t.submit(ctx, job{id: id, claimed: true, prevState: store.StateFailed}); err != nil {
		t.releaseClaim(ctx, id, store.StateFailed, "")
		return err
	}
	return nil
}

func (t *implTranscriber) Regenerate(ctx context.Context, id uuid.UUID) error {
	fr, err := t.store.Fragment(ctx, id)
	if err != nil {
		return err
	}
	prev := fr.State

	ok, err := t.store.ClaimFragment(ctx, id, store.StateTranscribed, store.StateFailed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRegenerable
	}
	if err := t.store.RecordAttempt(ctx, id, 0, ""); err != nil {
		return err
	}

	// The day's aggregates track the playlist: a fragment under
	// regeneration is excluded from both until it completes.
	if prev == store.StateTranscribed {
		if err := t.aggregator.Rebuild(ctx, fr.DayDate); err != nil {
			t.logger.Error("day rebuild failed", "day", fr.DayDate, "err", err)
		}
	}

	if err := t.submit(ctx, job{id: id, claimed: true, regenerate: true, prevState: prev}); err != nil {
		t.releaseClaim(ctx, id, prev, fr.DayDate)
		return err
	}
	return nil
}

func (t *implTranscriber) submit(ctx context.Context, j job) error {
	select {
	case t.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseClaim puts a fragment back into prev after a claim whose job
// never reached the queue. Runs detached from the caller's context,
// which is typically already canceled when this is needed.
func (t *implTranscriber) releaseClaim(ctx context.Context, id uuid.UUID, prev store.ProcessingState, dayDate string) {
	rctx := context.WithoutCancel(ctx)
	if err := t.store.SetFragmentState(rctx, id, prev); err != nil {
		t.logger.Error("restore state failed", "fragment_id", id, "err", err)
		return
	}
	if prev == store.StateTranscribed && dayDate != "" {
		if err := t.aggregator.Rebuild(rctx, dayDate); err != nil {
			t.logger.Error("day rebuild failed", "day", dayDate, "err", err)
		}
	}
}

// process runs the state machine for one fragment: claim, transcribe
// with per-attempt timeout, retry with backoff, and either hand off to
// the aggregator or mark the fragment failed. Failures stay scoped to
// the fragment.
func (t *implTranscriber) process(ctx context.Context, j job, log logger.Logger) {
	if !j.claimed {
		ok, err := t.store.ClaimFragment(ctx, j.id, store.StatePending)
		if err != nil {
			log.Error("claim failed", "fragment_id", j.id, "err", err)
			return
		}
		if !ok {
			// Already claimed or already transcribed: duplicate enqueues
			// are no-ops.
			return
		}
	}

	fr, err := t.store.Fragment(ctx, j.id)
	if err != nil {
		log.Error("load fragment failed", "fragment_id", j.id, "err", err)
		return
	}

	log.Info("transcribing", "file", fr.SourceFilename, "day", fr.DayDate)

	budget := t.cfg.Transcription.RetryBudget
	attempts := fr.AttemptCount
	var lastErr error

	for attempts < budget {
		attempts++

		tctx, cancel := context.WithTimeout(ctx, t.cfg.TranscriptionTimeout())
		segments, err := t.engine.Transcribe(tctx, fr.FilePath)
		cancel()

		if err == nil {
			t.complete(ctx, fr, segments, attempts, log)
			return
		}
		lastErr = err

		if ctx.Err() != nil {
			// Shutdown mid-flight: leave the claim, the next start resets it.
			log.Warn("transcription interrupted by shutdown", "file", fr.SourceFilename)
			return
		}

		log.Warn("transcription attempt failed",
			"file", fr.SourceFilename, "attempt", attempts, "budget", budget, "err", err)
		if rerr := t.store.RecordAttempt(ctx, fr.ID, attempts, err.Error()); rerr != nil {
			log.Error("record attempt failed", "fragment_id", fr.ID, "err", rerr)
		}

		if attempts < budget {
			if !sleep(ctx, time.Duration(attempts)*t.cfg.RetryBackoff()) {
				return
			}
		}
	}

	t.exhausted(ctx, fr, j, attempts, lastErr, log)
}

func (t *implTranscriber) complete(ctx context.Context, fr *store.Fragment, segments []store.TranscriptSegment, attempts int, log logger.Logger) {
	if err := t.store.MarkTranscribed(ctx, fr.ID, segments, attempts); err != nil {
		log.Error("mark transcribed failed", "fragment_id", fr.ID, "err", err)
		return
	}
	log.Info("transcribed", "file", fr.SourceFilename, "segments", len(segments), "attempts", attempts)

	if err := t.aggregator.Rebuild(ctx, fr.DayDate); err != nil {
		log.Error("day rebuild failed", "day", fr.DayDate, "err", err)
	}
}

func (t *implTranscriber) exhausted(ctx context.Context, fr *store.Fragment, j job, attempts int, lastErr error, log logger.Logger) {
	msg := "unknown error"
	if lastErr != nil {
		msg = lastErr.Error()
	}

	if j.regenerate && j.prevState == store.StateTranscribed {
		// All-or-nothing: a failed regeneration keeps the prior transcript.
		if err := t.store.RecordAttempt(ctx, fr.ID, attempts, msg); err != nil {
			log.Error("record attempt failed", "fragment_id", fr.ID, "err", err)
		}
		if err := t.store.SetFragmentState(ctx, fr.ID, store.StateTranscribed); err != nil {
			log.Error("restore state failed", "fragment_id", fr.ID, "err", err)
		}
		// Fold the kept transcript back into the day's aggregates.
		if err := t.aggregator.Rebuild(ctx, fr.DayDate); err != nil {
			log.Error("day rebuild failed", "day", fr.DayDate, "err", err)
		}
		log.Warn("regeneration failed, previous transcript kept", "file", fr.SourceFilename, "err", msg)
		return
	}

	if err := t.store.MarkFailed(ctx, fr.ID, attempts, msg); err != nil {
		log.Error("mark failed failed", "fragment_id", fr.ID, "err", err)
		return
	}
	log.Error("retry budget exhausted, fragment failed",
		"file", fr.SourceFilename, "attempts", attempts, "err", msg)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
