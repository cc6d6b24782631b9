package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campreg/pkg/sentinel"
)

// PostgresStore persists registrations and batches. Rosters are stored as
// JSONB; they are read and written as a unit and never queried row-wise.
//
// Race guards:
//   - the unique index on (church_id, event_id) serializes first submissions;
//   - review transitions are conditional UPDATEs on the current status, so a
//     lost race surfaces as zero affected rows, never an overwrite.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const batchColumns = `id, registration_id, batch_number, delegates, cooks, receipt_url,
	fee_type, fee_per_delegate, fee_per_sibling, fee_per_cook, total_fee,
	status, remarks, submitted_by, submitted_at, reviewer_id, reviewed_at`

// execer covers both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func insertRegistration(ctx context.Context, db execer, reg Registration) error {
	_, err := db.Exec(ctx,
		`INSERT INTO registrations (id, church_id, event_id, created_at)
		 VALUES ($1,$2,$3,$4)`,
		reg.ID, reg.ChurchID, reg.EventID, reg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, db execer, batch Batch) error {
	delegates, cooks, err := marshalRoster(batch.Roster)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		batch.ID, batch.RegistrationID, batch.BatchNumber, delegates, cooks, batch.ReceiptURL,
		batch.FeeType, batch.FeePerDelegate, batch.FeePerSibling, batch.FeePerCook, batch.TotalFee,
		batch.Status, nullString(batch.Remarks), batch.SubmittedBy, batch.SubmittedAt,
		nullString(batch.ReviewerID), batch.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// CreateRegistration inserts a registration row without any batches. It
// exists for tests that reproduce a registration stranded mid-submission;
// the submission path always goes through CreateRegistrationWithBatch.
func (s *PostgresStore) CreateRegistration(ctx context.Context, reg Registration) error {
	return insertRegistration(ctx, s.db, reg)
}

// CreateRegistrationWithBatch writes the registration and its opening batch
// in one transaction, so a crash can never leave a registration behind
// without its first batch.
func (s *PostgresStore) CreateRegistrationWithBatch(ctx context.Context, reg Registration, batch Batch) (Batch, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("begin first submission: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertRegistration(ctx, tx, reg); err != nil {
		return Batch{}, err
	}
	batch.RegistrationID = reg.ID
	batch.BatchNumber = 1
	if err := insertBatch(ctx, tx, batch); err != nil {
		return Batch{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Batch{}, fmt.Errorf("commit first submission: %w", err)
	}
	return batch, nil
}

func (s *PostgresStore) FindRegistration(ctx context.Context, id string) (Registration, error) {
	var reg Registration
	err := s.db.QueryRow(ctx,
		`SELECT id, church_id, event_id, created_at FROM registrations WHERE id=$1`, id,
	).Scan(&reg.ID, &reg.ChurchID, &reg.EventID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, sentinel.ErrNotFound
		}
		return Registration{}, fmt.Errorf("find registration: %w", err)
	}
	reg.Batches, err = s.listBatches(ctx, reg.ID)
	if err != nil {
		return Registration{}, err
	}
	return reg, nil
}

func (s *PostgresStore) FindRegistrationByChurchEvent(ctx context.Context, churchID, eventID string) (Registration, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM registrations WHERE church_id=$1 AND event_id=$2`, churchID, eventID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, sentinel.ErrNotFound
		}
		return Registration{}, fmt.Errorf("find registration by church/event: %w", err)
	}
	return s.FindRegistration(ctx, id)
}

func (s *PostgresStore) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]Registration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, church_id, event_id, created_at FROM registrations
		 WHERE event_id=$1 ORDER BY created_at`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.ChurchID, &reg.EventID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range regs {
		regs[i].Batches, err = s.listBatches(ctx, regs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return regs, nil
}

// AppendBatch locks the registration row so concurrent appends assign
// distinct batch numbers.
func (s *PostgresStore) AppendBatch(ctx context.Context, registrationID string, batch Batch) (Batch, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("begin append batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists string
	err = tx.QueryRow(ctx,
		`SELECT id FROM registrations WHERE id=$1 FOR UPDATE`, registrationID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, sentinel.ErrNotFound
		}
		return Batch{}, fmt.Errorf("lock registration: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM batches WHERE registration_id=$1`, registrationID,
	).Scan(&count); err != nil {
		return Batch{}, fmt.Errorf("count batches: %w", err)
	}

	batch.RegistrationID = registrationID
	batch.BatchNumber = count + 1
	if err := insertBatch(ctx, tx, batch); err != nil {
		return Batch{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Batch{}, fmt.Errorf("commit append batch: %w", err)
	}
	return batch, nil
}

func (s *PostgresStore) FindBatch(ctx context.Context, batchID string) (Batch, error) {
	row := s.db.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1`, batchID)
	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, sentinel.ErrNotFound
		}
		return Batch{}, fmt.Errorf("find batch: %w", err)
	}
	return batch, nil
}

func (s *PostgresStore) ReplacePendingBatch(ctx context.Context, batch Batch) error {
	delegates, cooks, err := marshalRoster(batch.Roster)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE batches SET delegates=$2, cooks=$3, receipt_url=$4, fee_type=$5,
		 fee_per_delegate=$6, fee_per_sibling=$7, fee_per_cook=$8, total_fee=$9
		 WHERE id=$1 AND status=$10`,
		batch.ID, delegates, cooks, batch.ReceiptURL, batch.FeeType,
		batch.FeePerDelegate, batch.FeePerSibling, batch.FeePerCook, batch.TotalFee,
		BatchPending,
	)
	if err != nil {
		return fmt.Errorf("replace batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, batch.ID)
	}
	return nil
}

func (s *PostgresStore) TransitionBatch(ctx context.Context, batchID string, expected, next BatchStatus, stamp ReviewStamp) (Batch, error) {
	var reviewedAt interface{}
	if stamp.ReviewerID != "" {
		reviewedAt = stamp.ReviewedAt
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE batches SET status=$3, remarks=$4, reviewer_id=$5, reviewed_at=$6
		 WHERE id=$1 AND status=$2`,
		batchID, expected, next, nullString(stamp.Remarks), nullString(stamp.ReviewerID), reviewedAt,
	)
	if err != nil {
		return Batch{}, fmt.Errorf("transition batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Batch{}, s.staleOrMissing(ctx, batchID)
	}
	return s.FindBatch(ctx, batchID)
}

func (s *PostgresStore) ListBatchRecords(ctx context.Context, filter Filter) ([]BatchRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT b.id, b.registration_id, b.batch_number, b.delegates, b.cooks, b.receipt_url,
		        b.fee_type, b.fee_per_delegate, b.fee_per_sibling, b.fee_per_cook, b.total_fee,
		        b.status, b.remarks, b.submitted_by, b.submitted_at, b.reviewer_id, b.reviewed_at,
		        r.church_id, r.event_id
		 FROM batches b JOIN registrations r ON r.id = b.registration_id
		 WHERE ($1 = '' OR r.event_id = $1)
		   AND ($2 = '' OR r.church_id = $2)
		   AND ($3 = '' OR b.status = $3)
		 ORDER BY b.submitted_at`,
		filter.EventID, filter.ChurchID, string(filter.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("list batch records: %w", err)
	}
	defer rows.Close()

	var records []BatchRecord
	for rows.Next() {
		var (
			rec        BatchRecord
			delegates  []byte
			cooks      []byte
			remarks    *string
			reviewerID *string
		)
		err := rows.Scan(
			&rec.ID, &rec.RegistrationID, &rec.BatchNumber, &delegates, &cooks, &rec.ReceiptURL,
			&rec.FeeType, &rec.FeePerDelegate, &rec.FeePerSibling, &rec.FeePerCook, &rec.TotalFee,
			&rec.Status, &remarks, &rec.SubmittedBy, &rec.SubmittedAt, &reviewerID, &rec.ReviewedAt,
			&rec.ChurchID, &rec.EventID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		if err := unmarshalRoster(delegates, cooks, &rec.Roster); err != nil {
			return nil, err
		}
		rec.Remarks = deref(remarks)
		rec.ReviewerID = deref(reviewerID)
		// Date-range filtering stays in one place with the in-memory path.
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	return records, rows.Err()
}

func (s *PostgresStore) ChurchHasPending(ctx context.Context, churchID string) (bool, error) {
	return s.existsQuery(ctx,
		`SELECT 1 FROM batches b JOIN registrations r ON r.id = b.registration_id
		 WHERE r.church_id=$1 AND b.status=$2 LIMIT 1`,
		churchID, BatchPending)
}

func (s *PostgresStore) ChurchHasParticipantData(ctx context.Context, churchID string) (bool, error) {
	return s.existsQuery(ctx,
		`SELECT 1 FROM batches b JOIN registrations r ON r.id = b.registration_id
		 WHERE r.church_id=$1 AND b.status<>$2
		   AND (jsonb_array_length(b.delegates) > 0 OR jsonb_array_length(b.cooks) > 0)
		 LIMIT 1`,
		churchID, BatchWithdrawn)
}

func (s *PostgresStore) EventHasParticipantData(ctx context.Context, eventID string) (bool, error) {
	return s.existsQuery(ctx,
		`SELECT 1 FROM batches b JOIN registrations r ON r.id = b.registration_id
		 WHERE r.event_id=$1 AND b.status<>$2
		   AND (jsonb_array_length(b.delegates) > 0 OR jsonb_array_length(b.cooks) > 0)
		 LIMIT 1`,
		eventID, BatchWithdrawn)
}

func (s *PostgresStore) existsQuery(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("existence query: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) listBatches(ctx context.Context, registrationID string) ([]Batch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE registration_id=$1 ORDER BY batch_number`,
		registrationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// staleOrMissing distinguishes a lost optimistic race from a missing row.
func (s *PostgresStore) staleOrMissing(ctx context.Context, batchID string) error {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM batches WHERE id=$1`, batchID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check batch: %w", err)
	}
	return sentinel.ErrStaleState
}

func scanBatch(row pgx.Row) (Batch, error) {
	var (
		batch      Batch
		delegates  []byte
		cooks      []byte
		remarks    *string
		reviewerID *string
	)
	err := row.Scan(
		&batch.ID, &batch.RegistrationID, &batch.BatchNumber, &delegates, &cooks, &batch.ReceiptURL,
		&batch.FeeType, &batch.FeePerDelegate, &batch.FeePerSibling, &batch.FeePerCook, &batch.TotalFee,
		&batch.Status, &remarks, &batch.SubmittedBy, &batch.SubmittedAt, &reviewerID, &batch.ReviewedAt,
	)
	if err != nil {
		return Batch{}, err
	}
	if err := unmarshalRoster(delegates, cooks, &batch.Roster); err != nil {
		return Batch{}, err
	}
	batch.Remarks = deref(remarks)
	batch.ReviewerID = deref(reviewerID)
	return batch, nil
}

func marshalRoster(roster Roster) ([]byte, []byte, error) {
	delegates, err := json.Marshal(roster.Delegates)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal delegates: %w", err)
	}
	cooks, err := json.Marshal(roster.Cooks)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal cooks: %w", err)
	}
	return delegates, cooks, nil
}

func unmarshalRoster(delegates, cooks []byte, roster *Roster) error {
	if err := json.Unmarshal(delegates, &roster.Delegates); err != nil {
		return fmt.Errorf("unmarshal delegates: %w", err)
	}
	if err := json.Unmarshal(cooks, &roster.Cooks); err != nil {
		return fmt.Errorf("unmarshal cooks: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
