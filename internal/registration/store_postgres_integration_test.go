//go:build integration

package registration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campreg/pkg/sentinel"
	"campreg/pkg/testutil/containers"
)

func seedReferenceRows(t *testing.T, pool *pgxpool.Pool, churchID, eventID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	divisionID := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO divisions (id, name, code, created_at) VALUES ($1,$2,$3,$4)`,
		divisionID, "Test Division", uuid.NewString()[:8], now)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO churches (id, division_id, name, pastor_name, active, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		churchID, divisionID, "Test Church", "", true, now)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO events (id, name, location, description, start_date, end_date,
			registration_deadline, pre_reg_start, pre_reg_end,
			pre_reg_fee, pre_reg_sibling_fee, onsite_fee, onsite_sibling_fee, cook_fee,
			status, created_at, updated_at)
		 VALUES ($1,$2,'','',$3,$4,$5,$6,$7,40000,30000,50000,40000,20000,'UPCOMING',$8,$8)`,
		eventID, "Test Camp", now.AddDate(0, 1, 0), now.AddDate(0, 1, 3),
		now.AddDate(0, 0, 25), now, now.AddDate(0, 0, 20), now)
	require.NoError(t, err)
}

func TestPostgresStoreWorkflow(t *testing.T) {
	pc := containers.NewPostgresContainer(t, "../../migrations/0001_init.sql")
	store := NewPostgresStore(pc.Pool)
	ctx := context.Background()

	churchID, eventID := uuid.NewString(), uuid.NewString()
	seedReferenceRows(t, pc.Pool, churchID, eventID)

	roster := Roster{
		Delegates: []Delegate{{FullName: "Ana Reyes", Age: 20, Gender: GenderFemale}},
		Cooks:     []Cook{{FullName: "Fely Santos", Age: 45, Gender: GenderFemale}},
	}
	reg := Registration{ID: uuid.NewString(), ChurchID: churchID, EventID: eventID, CreatedAt: time.Now().UTC()}
	batch, err := store.CreateRegistrationWithBatch(ctx, reg, Batch{
		ID:          uuid.NewString(),
		Roster:      roster,
		ReceiptURL:  "mem://receipts/r1",
		FeeType:     FeePreRegistration,
		TotalFee:    60000,
		Status:      BatchPending,
		SubmittedBy: "pres-1",
		SubmittedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.BatchNumber)
	assert.Equal(t, reg.ID, batch.RegistrationID)

	t.Run("duplicate registration conflicts without orphan rows", func(t *testing.T) {
		_, err := store.CreateRegistrationWithBatch(ctx,
			Registration{ID: uuid.NewString(), ChurchID: churchID, EventID: eventID, CreatedAt: time.Now().UTC()},
			Batch{ID: uuid.NewString(), Status: BatchPending, SubmittedAt: time.Now().UTC()})
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		var batches int
		require.NoError(t, pc.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM batches`).Scan(&batches))
		assert.Equal(t, 1, batches)
	})

	t.Run("roster round-trips through jsonb", func(t *testing.T) {
		got, err := store.FindBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, roster, got.Roster)
		assert.Equal(t, int64(60000), got.TotalFee)
	})

	t.Run("second batch numbers sequentially", func(t *testing.T) {
		second, err := store.AppendBatch(ctx, reg.ID, Batch{
			ID:          uuid.NewString(),
			Roster:      Roster{Cooks: []Cook{{FullName: "Gina Uy", Age: 50, Gender: GenderFemale}}},
			ReceiptURL:  "mem://receipts/r2",
			FeeType:     FeePreRegistration,
			Status:      BatchPending,
			SubmittedBy: "pres-1",
			SubmittedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, second.BatchNumber)
	})

	t.Run("transition guards against stale state", func(t *testing.T) {
		stamp := ReviewStamp{ReviewerID: "admin-1", ReviewedAt: time.Now().UTC()}
		reviewed, err := store.TransitionBatch(ctx, batch.ID, BatchPending, BatchApproved, stamp)
		require.NoError(t, err)
		assert.Equal(t, BatchApproved, reviewed.Status)
		assert.Equal(t, "admin-1", reviewed.ReviewerID)

		_, err = store.TransitionBatch(ctx, batch.ID, BatchPending, BatchRejected, stamp)
		assert.ErrorIs(t, err, sentinel.ErrStaleState)
	})

	t.Run("replace refuses a reviewed batch", func(t *testing.T) {
		edited := batch
		edited.TotalFee = 1
		assert.ErrorIs(t, store.ReplacePendingBatch(ctx, edited), sentinel.ErrStaleState)
	})

	t.Run("guards see the participant data", func(t *testing.T) {
		hasData, err := store.EventHasParticipantData(ctx, eventID)
		require.NoError(t, err)
		assert.True(t, hasData)

		pending, err := store.ChurchHasPending(ctx, churchID)
		require.NoError(t, err)
		assert.True(t, pending, "second batch is still pending")
	})

	t.Run("batch records join church and event", func(t *testing.T) {
		records, err := store.ListBatchRecords(ctx, Filter{EventID: eventID})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, churchID, records[0].ChurchID)
	})
}
