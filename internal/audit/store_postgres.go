package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore appends audit events to an insert-only table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_events (ts, actor_id, action, subject_type, subject_id, outcome, detail)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		event.Timestamp, event.ActorID, event.Action, event.SubjectType, event.SubjectID,
		event.Outcome, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectType, subjectID string) ([]Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ts, actor_id, action, subject_type, subject_id, outcome, detail
		 FROM audit_events
		 WHERE subject_type=$1 AND subject_id=$2
		 ORDER BY ts`,
		subjectType, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.ActorID, &e.Action, &e.SubjectType, &e.SubjectID, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
