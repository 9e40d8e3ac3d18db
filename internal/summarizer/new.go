package summarizer

import (
	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/store"
)

type implSummarizer struct {
	cfg    *config.Config
	store  store.Store
	client Client
	logger logger.Logger
}

// New creates a Summarizer backed by the given client.
func New(cfg *config.Config, st store.Store, client Client, log logger.Logger) Summarizer {
	return &implSummarizer{
		cfg:    cfg,
		store:  st,
		client: client,
		logger: log.With("component", "summarizer"),
	}
}
