package church

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campreg/pkg/sentinel"
)

// PostgresStore persists the organizational reference data.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveDivision(ctx context.Context, d Division) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO divisions (id, name, code, created_at) VALUES ($1,$2,$3,$4)`,
		d.ID, d.Name, d.Code, d.CreatedAt,
	)
	return translate(err, "insert division")
}

func (s *PostgresStore) FindDivision(ctx context.Context, id string) (Division, error) {
	var d Division
	err := s.db.QueryRow(ctx,
		`SELECT id, name, code, created_at FROM divisions WHERE id=$1`, id,
	).Scan(&d.ID, &d.Name, &d.Code, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Division{}, sentinel.ErrNotFound
		}
		return Division{}, fmt.Errorf("find division: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDivisions(ctx context.Context) ([]Division, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, code, created_at FROM divisions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	defer rows.Close()

	var out []Division
	for rows.Next() {
		var d Division
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan division: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveChurch(ctx context.Context, c Church) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO churches (id, division_id, name, pastor_name, active, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.DivisionID, c.Name, c.PastorName, c.Active, c.CreatedAt,
	)
	return translate(err, "insert church")
}

func (s *PostgresStore) UpdateChurch(ctx context.Context, c Church) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE churches SET division_id=$2, name=$3, pastor_name=$4, active=$5 WHERE id=$1`,
		c.ID, c.DivisionID, c.Name, c.PastorName, c.Active,
	)
	if err != nil {
		return fmt.Errorf("update church: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindChurch(ctx context.Context, id string) (Church, error) {
	var c Church
	err := s.db.QueryRow(ctx,
		`SELECT id, division_id, name, pastor_name, active, created_at FROM churches WHERE id=$1`, id,
	).Scan(&c.ID, &c.DivisionID, &c.Name, &c.PastorName, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Church{}, sentinel.ErrNotFound
		}
		return Church{}, fmt.Errorf("find church: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListChurches(ctx context.Context, divisionID string) ([]Church, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, division_id, name, pastor_name, active, created_at FROM churches
		 WHERE ($1 = '' OR division_id = $1) ORDER BY name`, divisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list churches: %w", err)
	}
	defer rows.Close()

	var out []Church
	for rows.Next() {
		var c Church
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.Name, &c.PastorName, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan church: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteChurch(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM churches WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete church: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SavePresident(ctx context.Context, p President) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO presidents (id, church_id, full_name, email, active, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.ChurchID, p.FullName, p.Email, p.Active, p.CreatedAt,
	)
	return translate(err, "insert president")
}

func (s *PostgresStore) UpdatePresident(ctx context.Context, p President) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE presidents SET church_id=$2, full_name=$3, email=$4, active=$5 WHERE id=$1`,
		p.ID, p.ChurchID, p.FullName, p.Email, p.Active,
	)
	if err != nil {
		return fmt.Errorf("update president: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindPresident(ctx context.Context, id string) (President, error) {
	var p President
	err := s.db.QueryRow(ctx,
		`SELECT id, church_id, full_name, email, active, created_at FROM presidents WHERE id=$1`, id,
	).Scan(&p.ID, &p.ChurchID, &p.FullName, &p.Email, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return President{}, sentinel.ErrNotFound
		}
		return President{}, fmt.Errorf("find president: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPresidents(ctx context.Context, churchID string) ([]President, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, church_id, full_name, email, active, created_at FROM presidents
		 WHERE ($1 = '' OR church_id = $1) ORDER BY full_name`, churchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list presidents: %w", err)
	}
	defer rows.Close()

	var out []President
	for rows.Next() {
		var p President
		if err := rows.Scan(&p.ID, &p.ChurchID, &p.FullName, &p.Email, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan president: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
