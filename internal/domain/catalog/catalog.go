package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is an entry in the product price list. Reference data: loaded once
// at startup and read-only for the life of the process.
type Product struct {
	Type                   string
	CostPerSquareFoot      decimal.Decimal
	LaborCostPerSquareFoot decimal.Decimal
}

// TaxInfo is the tax rate for one state. Rate is a percentage, e.g. 4.45
// means 4.45%.
type TaxInfo struct {
	StateAbbreviation string
	StateName         string
	Rate              decimal.Decimal
}

// Store provides read access to the reference data files.
type Store interface {
	Products(ctx context.Context) ([]Product, error)
	Taxes(ctx context.Context) ([]TaxInfo, error)
}

// ReadError indicates a catalog file is missing or contains a malformed
// record.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read catalog %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
