package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *implStore) CreateFragmentIfAbsent(ctx context.Context, fragment *Fragment) (*Fragment, bool, error) {
	now := time.Now().UTC()
	fragment.CreatedAt = now
	fragment.UpdatedAt = now
	if fragment.State == "" {
		fragment.State = StatePending
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_filename"}},
			DoNothing: true,
		}).
		Create(fragment)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return fragment, true, nil
	}

	var existing Fragment
	err := s.db.WithContext(ctx).
		Where("source_filename = ?", fragment.SourceFilename).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (s *implStore) Fragment(ctx context.Context, id uuid.UUID) (*Fragment, error) {
	var out Fragment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *implStore) FragmentsByDay(ctx context.Context, date string, states ...ProcessingState) ([]*Fragment, error) {
	q := s.db.WithContext(ctx).
		Model(&Fragment{}).
		Where("day_date = ?", date)
	if len(states) > 0 {
		q = q.Where("state IN ?", states)
	}

	var out []*Fragment
	// Sort key ordering decides offsets; filename breaks recorded_at ties.
	err := q.Order("recorded_at ASC, source_filename ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *implStore) FragmentsByState(ctx context.Context, state ProcessingState) ([]*Fragment, error) {
	var out []*Fragment
	err := s.db.WithContext(ctx).
		Model(&Fragment{}).
		Where("state = ?", state).
		Order("recorded_at ASC, source_filename ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *implStore) ClaimFragment(ctx context.Context, id uuid.UUID, from ...ProcessingState) (bool, error) {
	if len(from) == 0 {
		from = []ProcessingState{StatePending}
	}
	res := s.db.WithContext(ctx).
		Model(&Fragment{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(map[string]interface{}{
			"state":      StateTranscribing,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *implStore) SetFragmentState(ctx context.Context, id uuid.UUID, state ProcessingState) error {
	return s.updateFragment(ctx, id, map[string]interface{}{
		"state": state,
	})
}

func (s *implStore) RecordAttempt(ctx context.Context, id uuid.UUID, attempt int, lastError string) error {
	return s.updateFragment(ctx, id, map[string]interface{}{
		"attempt_count": attempt,
		"last_error":    lastError,
	})
}

func (s *implStore) MarkTranscribed(ctx context.Context, id uuid.UUID, segments []TranscriptSegment, attempt int) error {
	return s.updateFragment(ctx, id, map[string]interface{}{
		"state":         StateTranscribed,
		"segments":      datatypes.NewJSONType(segments),
		"attempt_count": attempt,
		"last_error":    "",
	})
}

func (s *implStore) MarkFailed(ctx context.Context, id uuid.UUID, attempt int, lastError string) error {
	return s.updateFragment(ctx, id, map[string]interface{}{
		"state":         StateFailed,
		"attempt_count": attempt,
		"last_error":    lastError,
	})
}

func (s *implStore) UpdateFragmentOffset(ctx context.Context, id uuid.UUID, offset float64) error {
	return s.updateFragment(ctx, id, map[string]interface{}{
		"offset_seconds": offset,
	})
}

func (s *implStore) ResetStaleTranscribing(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&Fragment{}).
		Where("state = ?", StateTranscribing).
		Updates(map[string]interface{}{
			"state":      StatePending,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (s *implStore) updateFragment(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&Fragment{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
