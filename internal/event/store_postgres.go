package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campreg/pkg/sentinel"
)

// PostgresStore persists events in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, name, location, description, start_date, end_date,
	registration_deadline, pre_reg_start, pre_reg_end,
	pre_reg_fee, pre_reg_sibling_fee, onsite_fee, onsite_sibling_fee, cook_fee,
	status, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, ev Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		ev.ID, ev.Name, ev.Location, ev.Description, ev.StartDate, ev.EndDate,
		ev.RegistrationDeadline, ev.PreRegStart, ev.PreRegEnd,
		ev.PreRegFee, ev.PreRegSiblingFee, ev.OnsiteFee, ev.OnsiteSiblingFee, ev.CookFee,
		ev.Status, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ev Event) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events SET name=$2, location=$3, description=$4, start_date=$5,
		 end_date=$6, registration_deadline=$7, pre_reg_start=$8, pre_reg_end=$9,
		 pre_reg_fee=$10, pre_reg_sibling_fee=$11, onsite_fee=$12,
		 onsite_sibling_fee=$13, cook_fee=$14, status=$15, updated_at=$16
		 WHERE id=$1`,
		ev.ID, ev.Name, ev.Location, ev.Description, ev.StartDate, ev.EndDate,
		ev.RegistrationDeadline, ev.PreRegStart, ev.PreRegEnd,
		ev.PreRegFee, ev.PreRegSiblingFee, ev.OnsiteFee, ev.OnsiteSiblingFee, ev.CookFee,
		ev.Status, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Event, error) {
	row := s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, sentinel.ErrNotFound
		}
		return Event{}, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Event, error) {
	rows, err := s.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var ev Event
	err := row.Scan(
		&ev.ID, &ev.Name, &ev.Location, &ev.Description, &ev.StartDate, &ev.EndDate,
		&ev.RegistrationDeadline, &ev.PreRegStart, &ev.PreRegEnd,
		&ev.PreRegFee, &ev.PreRegSiblingFee, &ev.OnsiteFee, &ev.OnsiteSiblingFee, &ev.CookFee,
		&ev.Status, &ev.CreatedAt, &ev.UpdatedAt,
	)
	return ev, err
}
