package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// counterQuerier mimics the atomic upsert-increment semantics of the
// day_sequences table.
type counterQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newCounterQuerier() *counterQuerier {
	return &counterQuerier{counters: make(map[string]int64)}
}

func (q *counterQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *counterQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *counterQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	series, _ := args[0].(string)
	day, _ := args[1].(string)
	q.mu.Lock()
	defer q.mu.Unlock()
	key := series + ":" + day
	q.counters[key]++
	return scanRow{value: q.counters[key]}
}

type scanRow struct {
	value int64
}

func (r scanRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.value
	return nil
}

func TestFormatParseRoundTrip(t *testing.T) {
	number, err := Format(SeriesPurchase, "20240613", 7)
	require.NoError(t, err)
	require.Equal(t, "OC-20240613-0007", number)

	series, day, seq, err := Parse(number)
	require.NoError(t, err)
	require.Equal(t, SeriesPurchase, series)
	require.Equal(t, "20240613", day)
	require.EqualValues(t, 7, seq)

	number, err = Format(SeriesSale, "20240613", 12)
	require.NoError(t, err)
	require.Equal(t, "ORD-V-20240613-0012", number)

	series, _, seq, err = Parse(number)
	require.NoError(t, err)
	require.Equal(t, SeriesSale, series)
	require.EqualValues(t, 12, seq)
}

func TestParseRejectsMalformedNumbers(t *testing.T) {
	cases := []string{
		"",
		"OC",
		"OC-20240613",
		"OC-notaday-0001",
		"OC-20240613-zero",
		"OC-20240613-0000",
		"XX-20240613-0001",
	}
	for _, input := range cases {
		_, _, _, err := Parse(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestDayKeyUsesBusinessDate(t *testing.T) {
	date := time.Date(2024, 6, 13, 23, 45, 0, 0, time.UTC)
	require.Equal(t, "20240613", DayKey(date))
}

func TestNextIsUniquePerBucketUnderConcurrency(t *testing.T) {
	q := newCounterQuerier()
	alloc := Allocator{}
	ctx := context.Background()

	const n = 64
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := alloc.Next(ctx, q, SeriesSale, "20240613")
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for seq := range results {
		require.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	for i := int64(1); i <= n; i++ {
		require.True(t, seen[i], "missing sequence %d", i)
	}
}

func TestNextRejectsUnknownSeries(t *testing.T) {
	_, err := Allocator{}.Next(context.Background(), newCounterQuerier(), Series("refund"), "20240613")
	require.ErrorIs(t, err, ErrUnknownSeries)
}
