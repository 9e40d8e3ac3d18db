package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mzolotukhin/daybook/internal/logger"
)

// ErrNotFound is returned when a fragment or day does not exist.
var ErrNotFound = errors.New("not found")

type implStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// New opens (or creates) the sqlite database at path and migrates the schema.
func New(path string, log logger.Logger) (Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Day{}, &Fragment{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &implStore{db: db, logger: log.With("component", "store")}, nil
}

func (s *implStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&implStore{db: tx, logger: s.logger})
	})
}
