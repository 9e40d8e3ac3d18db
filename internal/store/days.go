package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *implStore) GetOrCreateDay(ctx context.Context, date string) (*Day, error) {
	now := time.Now().UTC()
	day := &Day{Date: date, CreatedAt: now, UpdatedAt: now}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).
		Create(day).Error
	if err != nil {
		return nil, err
	}

	return s.Day(ctx, date)
}

func (s *implStore) Day(ctx context.Context, date string) (*Day, error) {
	var out Day
	err := s.db.WithContext(ctx).Where("date = ?", date).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *implStore) Days(ctx context.Context) ([]*Day, error) {
	var out []*Day
	err := s.db.WithContext(ctx).
		Model(&Day{}).
		Order("date DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *implStore) UpdateDayAggregate(ctx context.Context, date string, totalDuration float64, fullText string) error {
	return s.updateDay(ctx, date, map[string]interface{}{
		"total_duration_seconds": totalDuration,
		"full_text":              fullText,
	})
}

func (s *implStore) SaveMediumSummary(ctx context.Context, date, text string) error {
	return s.updateDay(ctx, date, map[string]interface{}{
		"medium_summary": text,
	})
}

func (s *implStore) SaveShortSummary(ctx context.Context, date, text string) error {
	return s.updateDay(ctx, date, map[string]interface{}{
		"short_summary": text,
	})
}

func (s *implStore) updateDay(ctx context.Context, date string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&Day{}).
		Where("date = ?", date).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *implStore) Stats(ctx context.Context) (*Stats, error) {
	var out Stats

	db := s.db.WithContext(ctx)
	if err := db.Model(&Day{}).Count(&out.TotalDays).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Fragment{}).Count(&out.TotalFragments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Fragment{}).Where("state = ?", StateFailed).Count(&out.FailedFragments).Error; err != nil {
		return nil, err
	}

	var total *float64
	err := db.Model(&Day{}).
		Select("SUM(total_duration_seconds)").
		Scan(&total).Error
	if err != nil {
		return nil, err
	}
	if total != nil {
		out.TotalDurationSeconds = *total
	}

	var last Fragment
	err = db.Model(&Fragment{}).Order("recorded_at DESC").First(&last).Error
	if err == nil {
		t := last.RecordedAt
		out.LastRecordedAt = &t
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &out, nil
}
