package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a single flooring order. Number is unique across the whole
// system and never reused. The four computed fields (MaterialCost,
// LaborCost, Tax, Total) are always derivable from Area, the per-square-foot
// costs, and TaxRate via Price; they are recomputed whenever area, product,
// or state changes.
type Order struct {
	Number       int
	Date         time.Time
	CustomerName string
	State        string
	TaxRate      decimal.Decimal
	ProductType  string
	Area         decimal.Decimal

	CostPerSquareFoot      decimal.Decimal
	LaborCostPerSquareFoot decimal.Decimal

	MaterialCost decimal.Decimal
	LaborCost    decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Day builds a normalized date key (UTC midnight) from calendar components.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf normalizes an arbitrary timestamp to its date key.
func DateOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// Repository defines persistence for per-date order collections. One date's
// orders live in one file; Save fully rewrites that file. The caller owns
// serializing access to a given date.
type Repository interface {
	// LoadAll scans the order directory and returns every order keyed by
	// date, plus the maximum order number seen across all rows (0 if none).
	// A malformed file is reported and skipped; it does not abort the load.
	LoadAll(ctx context.Context) (map[time.Time][]*Order, int, error)
	// Save rewrites the file for date with the given orders, creating it if
	// absent. The rewrite is atomic per file: a crash mid-write never
	// corrupts other dates' files.
	Save(ctx context.Context, date time.Time, orders []*Order) error
	// ExportAll writes one consolidated file containing every order across
	// all dates, sorted by ascending order number, with the order date
	// appended to each row.
	ExportAll(ctx context.Context, byDate map[time.Time][]*Order) error
}

// ReadError indicates a malformed order file: wrong field count,
// non-numeric decimal, unparsable date token, or a duplicate order number.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read orders %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
