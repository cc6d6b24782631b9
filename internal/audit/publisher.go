package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Publisher hands audit events to a buffered inbox drained by the Worker, so
// audit writes never sit on the request path. A full inbox drops the event
// and logs; audit is best-effort, the domain write already committed.
type Publisher struct {
	inbox chan<- Event
	log   zerolog.Logger
}

func NewPublisher(inbox chan<- Event, log zerolog.Logger) *Publisher {
	return &Publisher{inbox: inbox, log: log}
}

func (p *Publisher) Emit(_ context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.log.Warn().
			Str("action", event.Action).
			Str("subject_id", event.SubjectID).
			Msg("audit inbox full, event dropped")
	}
}
