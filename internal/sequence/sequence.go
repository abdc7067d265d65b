// Package sequence issues unique, human-readable, day-scoped order numbers.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
)

// Series identifies an independent counter space for order numbers.
type Series string

// Known order series.
const (
	SeriesPurchase Series = "purchase"
	SeriesSale     Series = "sale"
)

const dayLayout = "20060102"

var (
	// ErrUnknownSeries indicates an unrecognised series or number prefix.
	ErrUnknownSeries = errors.New("sequence: unknown series")
	// ErrMalformedNumber indicates an order number that does not match the
	// <prefix>-<day>-<seq> layout.
	ErrMalformedNumber = errors.New("sequence: malformed order number")
)

// Prefix returns the rendered number prefix for the series.
func (s Series) Prefix() (string, error) {
	switch s {
	case SeriesPurchase:
		return "OC", nil
	case SeriesSale:
		return "ORD-V", nil
	}
	return "", ErrUnknownSeries
}

// SeriesForPrefix resolves a number prefix back to its series.
func SeriesForPrefix(prefix string) (Series, error) {
	switch prefix {
	case "OC":
		return SeriesPurchase, nil
	case "ORD-V":
		return SeriesSale, nil
	}
	return "", ErrUnknownSeries
}

// DayKey renders the counter bucket for a business date.
func DayKey(date time.Time) string {
	return date.Format(dayLayout)
}

// Format renders an order number, e.g. OC-20240613-0007.
func Format(series Series, day string, seq int64) (string, error) {
	prefix, err := series.Prefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day, seq), nil
}

// Parse splits an order number into series, day bucket and sequence value.
func Parse(number string) (Series, string, int64, error) {
	parts := strings.Split(number, "-")
	if len(parts) < 3 {
		return "", "", 0, ErrMalformedNumber
	}
	seqPart := parts[len(parts)-1]
	dayPart := parts[len(parts)-2]
	prefix := strings.Join(parts[:len(parts)-2], "-")

	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || seq < 1 {
		return "", "", 0, ErrMalformedNumber
	}
	if _, err := time.Parse(dayLayout, dayPart); err != nil {
		return "", "", 0, ErrMalformedNumber
	}
	series, err := SeriesForPrefix(prefix)
	if err != nil {
		return "", "", 0, err
	}
	return series, dayPart, seq, nil
}

// Allocator hands out the next number of a (series, day) bucket. The
// increment is a single atomic upsert so concurrent callers can never
// observe the same value. Issued numbers are never recycled.
type Allocator struct{}

// Next returns the next sequence value for the bucket, starting at 1.
// It runs on the caller's Querier so order creation can allocate inside
// its own transaction.
func (Allocator) Next(ctx context.Context, q db.Querier, series Series, day string) (int64, error) {
	if _, err := series.Prefix(); err != nil {
		return 0, err
	}
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO day_sequences (series, day, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (series, day)
		DO UPDATE SET last_number = day_sequences.last_number + 1
		RETURNING last_number
	`, string(series), day).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sequence: allocate %s/%s: %w", series, day, err)
	}
	return seq, nil
}

// NextNumber allocates and renders the next order number for a business date.
func (a Allocator) NextNumber(ctx context.Context, q db.Querier, series Series, date time.Time) (string, error) {
	day := DayKey(date)
	seq, err := a.Next(ctx, q, series, day)
	if err != nil {
		return "", err
	}
	return Format(series, day, seq)
}
