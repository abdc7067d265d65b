package costhistory

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// journalQuerier mimics the cost_history table for Recorder tests.
type journalQuerier struct {
	costs map[int64][]float64
}

func newJournalQuerier() *journalQuerier {
	return &journalQuerier{costs: make(map[int64][]float64)}
}

func (q *journalQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	productID := args[0].(int64)
	cost := args[1].(float64)
	q.costs[productID] = append(q.costs[productID], cost)
	return pgconn.CommandTag{}, nil
}

func (q *journalQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *journalQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	productID := args[0].(int64)
	history := q.costs[productID]
	if len(history) == 0 {
		return errRow{err: pgx.ErrNoRows}
	}
	return costRow{cost: history[len(history)-1]}
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

type costRow struct{ cost float64 }

func (r costRow) Scan(dest ...any) error {
	*(dest[0].(*float64)) = r.cost
	return nil
}

func TestRecordDeduplicatesUnchangedCost(t *testing.T) {
	q := newJournalQuerier()
	rec := Recorder{}
	ctx := context.Background()
	now := time.Now()

	appended, err := rec.Record(ctx, q, 1, 5.0, now, nil)
	require.NoError(t, err)
	require.True(t, appended)
	require.Len(t, q.costs[1], 1)

	appended, err = rec.Record(ctx, q, 1, 5.0, now, nil)
	require.NoError(t, err)
	require.False(t, appended, "unchanged cost must not append")
	require.Len(t, q.costs[1], 1)

	appended, err = rec.Record(ctx, q, 1, 6.5, now, nil)
	require.NoError(t, err)
	require.True(t, appended)
	require.Equal(t, []float64{5.0, 6.5}, q.costs[1])

	// returning to an earlier cost still differs from the latest entry
	appended, err = rec.Record(ctx, q, 1, 5.0, now, nil)
	require.NoError(t, err)
	require.True(t, appended)
	require.Len(t, q.costs[1], 3)
}

func TestRecordTracksProductsIndependently(t *testing.T) {
	q := newJournalQuerier()
	rec := Recorder{}
	ctx := context.Background()
	now := time.Now()

	_, err := rec.Record(ctx, q, 1, 5.0, now, nil)
	require.NoError(t, err)
	appended, err := rec.Record(ctx, q, 2, 5.0, now, nil)
	require.NoError(t, err)
	require.True(t, appended, "different product starts its own timeline")
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	q := newJournalQuerier()
	rec := Recorder{}
	ctx := context.Background()

	_, err := rec.Record(ctx, q, 0, 5.0, time.Now(), nil)
	require.Error(t, err)

	_, err = rec.Record(ctx, q, 1, -1.0, time.Now(), nil)
	require.Error(t, err)
	require.Empty(t, q.costs[1])
}
