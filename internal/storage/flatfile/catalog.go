package flatfile

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/flooring-orders/internal/domain/catalog"
	"github.com/xenking/flooring-orders/pkg/textfile"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore implements catalog.Store backed by the two reference data
// files. The files are read on demand; callers load them once at startup
// and treat the result as immutable.
type CatalogStore struct {
	productsFile string
	taxesFile    string
}

// NewCatalogStore returns a CatalogStore reading from the given file paths.
func NewCatalogStore(productsFile, taxesFile string) *CatalogStore {
	return &CatalogStore{productsFile: productsFile, taxesFile: taxesFile}
}

// Products parses the product price list: header line plus
// `productType,costPerSquareFoot,laborCostPerSquareFoot` records.
func (s *CatalogStore) Products(_ context.Context) ([]catalog.Product, error) {
	records, err := textfile.Records(s.productsFile)
	if err != nil {
		return nil, &catalog.ReadError{File: s.productsFile, Err: err}
	}

	products := make([]catalog.Product, 0, len(records))
	for _, rec := range records {
		fields := strings.Split(rec, ",")
		if len(fields) != 3 {
			return nil, &catalog.ReadError{
				File: s.productsFile,
				Err:  errors.Errorf("record %q: want 3 fields, got %d", rec, len(fields)),
			}
		}

		cost, err := decimal.NewFromString(fields[1])
		if err != nil {
			return nil, &catalog.ReadError{File: s.productsFile, Err: errors.Wrapf(err, "record %q", rec)}
		}
		labor, err := decimal.NewFromString(fields[2])
		if err != nil {
			return nil, &catalog.ReadError{File: s.productsFile, Err: errors.Wrapf(err, "record %q", rec)}
		}

		products = append(products, catalog.Product{
			Type:                   fields[0],
			CostPerSquareFoot:      cost,
			LaborCostPerSquareFoot: labor,
		})
	}

	return products, nil
}

// Taxes parses the tax table: header line plus
// `stateAbbrev,stateName,taxRate` records.
func (s *CatalogStore) Taxes(_ context.Context) ([]catalog.TaxInfo, error) {
	records, err := textfile.Records(s.taxesFile)
	if err != nil {
		return nil, &catalog.ReadError{File: s.taxesFile, Err: err}
	}

	taxes := make([]catalog.TaxInfo, 0, len(records))
	for _, rec := range records {
		fields := strings.Split(rec, ",")
		if len(fields) != 3 {
			return nil, &catalog.ReadError{
				File: s.taxesFile,
				Err:  errors.Errorf("record %q: want 3 fields, got %d", rec, len(fields)),
			}
		}

		rate, err := decimal.NewFromString(fields[2])
		if err != nil {
			return nil, &catalog.ReadError{File: s.taxesFile, Err: errors.Wrapf(err, "record %q", rec)}
		}

		taxes = append(taxes, catalog.TaxInfo{
			StateAbbreviation: fields[0],
			StateName:         fields[1],
			Rate:              rate,
		})
	}

	return taxes, nil
}
