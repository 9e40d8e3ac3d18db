package transcriber

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/aggregator"
	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
)

const queueCapacity = 1024

type job struct {
	id uuid.UUID
	// claimed jobs were already transitioned to transcribing by the
	// submitter (retry / regenerate); workers claim the rest themselves.
	claimed    bool
	regenerate bool
	prevState  store.ProcessingState
}

type implTranscriber struct {
	cfg        *config.Config
	store      store.Store
	engine     Engine
	aggregator *aggregator.Aggregator
	logger     logger.Logger

	jobs chan job
	wg   sync.WaitGroup
}

// New creates a Transcriber backed by the given engine.
func New(cfg *config.Config, st store.Store, engine Engine, agg *aggregator.Aggregator, log logger.Logger) Transcriber {
	return &implTranscriber{
		cfg:        cfg,
		store:      st,
		engine:     engine,
		aggregator: agg,
		logger:     log.With("component", "transcriber"),
		jobs:       make(chan job, queueCapacity),
	}
}
