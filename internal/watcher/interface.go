package watcher

import (
	"context"

	"github.com/google/uuid"
)

// Watcher monitors the recordings tree for new audio files and hands
// stable ones off for transcription.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// Enqueuer receives fragments that are ready to transcribe.
type Enqueuer interface {
	Enqueue(id uuid.UUID)
}
