package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store Store
	inbox <-chan Event
	log   zerolog.Logger
}

func NewWorker(store Store, inbox <-chan Event, log zerolog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, log: log}
}

// Run drains the inbox until ctx is cancelled. Store failures are logged and
// skipped; one bad write must not stall the stream.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.log.Error().Err(err).
					Str("action", event.Action).
					Str("subject_id", event.SubjectID).
					Msg("failed to persist audit event")
			}
		}
	}
}
