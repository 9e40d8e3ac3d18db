package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
)

// candidate is a file seen in the recordings tree that has not yet been
// stable for the full window.
type candidate struct {
	size    int64
	modTime time.Time
	since   time.Time // last moment size/modTime were observed to change
}

type implWatcher struct {
	cfg      *config.Config
	store    store.Store
	enqueuer Enqueuer
	logger   logger.Logger
	watcher  *fsnotify.Watcher

	candidates map[string]*candidate
	ingested   map[string]bool

	// now is swappable in tests to drive the stability window.
	now func() time.Time
}

// New creates a Watcher over the configured recordings directory.
func New(cfg *config.Config, st store.Store, enq Enqueuer, log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(cfg.Paths.Recordings); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		cfg:        cfg,
		store:      st,
		enqueuer:   enq,
		logger:     log.With("component", "watcher"),
		watcher:    fsw,
		candidates: make(map[string]*candidate),
		ingested:   make(map[string]bool),
		now:        time.Now,
	}, nil
}
