package flatfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/flooring-orders/internal/domain/order"
	"github.com/xenking/flooring-orders/pkg/textfile"
)

const orderHeader = "OrderNumber,CustomerName,State,TaxRate,ProductType,Area," +
	"CostPerSquareFoot,LaborCostPerSquareFoot,MaterialCost,LaborCost,Tax,Total"

const (
	orderFieldCount = 12
	dateToken       = "01022006" // MMDDYYYY
	exportDate      = "01-02-2006"
)

var orderFileName = regexp.MustCompile(`^Orders_(\d{8})\.txt$`)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepositoryConfig holds the file locations for the order store.
type OrderRepositoryConfig struct {
	// Dir is the directory holding one Orders_MMDDYYYY.txt file per date.
	Dir string
	// ExportFile receives the consolidated export.
	ExportFile string
	// ExportJSONFile, when non-empty, receives a JSON-lines copy of the
	// export alongside the text file.
	ExportJSONFile string
	// ExportGzip writes a gzip-compressed copy of the export next to
	// ExportFile.
	ExportGzip bool
}

// OrderRepository implements order.Repository on per-date flat files. Each
// write fully rewrites one date's file through an atomic temp+rename, so a
// failed write never corrupts other dates. Access to one date must be
// serialized by the caller; the repository holds no locks.
type OrderRepository struct {
	cfg OrderRepositoryConfig
	lg  *zap.Logger
}

// NewOrderRepository returns an OrderRepository using the given locations.
func NewOrderRepository(cfg OrderRepositoryConfig, lg *zap.Logger) *OrderRepository {
	return &OrderRepository{cfg: cfg, lg: lg}
}

type fileResult struct {
	name   string
	date   time.Time
	orders []*order.Order
	err    error
}

// LoadAll scans the order directory, parsing every per-date file
// concurrently. A malformed file (wrong field count, non-numeric decimal,
// bad date token) or one that repeats an already-seen order number is
// logged and skipped; the remaining files still load. The returned max is
// the highest order number across all loaded rows, 0 if none.
func (r *OrderRepository) LoadAll(ctx context.Context) (map[time.Time][]*order.Order, int, error) {
	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		return nil, 0, &order.ReadError{File: r.cfg.Dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && orderFileName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	results := make([]fileResult, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(r.loadFile(ctx, i, name, results))
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	// Merge in sorted filename order so duplicate detection is
	// deterministic: the later file loses.
	index := make(map[time.Time][]*order.Order, len(names))
	seen := make(map[int]struct{})
	maxNum := 0

	for _, res := range results {
		if res.err == nil {
			inFile := make(map[int]struct{}, len(res.orders))
			for _, o := range res.orders {
				_, dupAcross := seen[o.Number]
				_, dupWithin := inFile[o.Number]
				if dupAcross || dupWithin {
					res.err = errors.Errorf("duplicate order number %d", o.Number)
					break
				}
				inFile[o.Number] = struct{}{}
			}
		}
		if res.err != nil {
			readErr := &order.ReadError{File: res.name, Err: res.err}
			r.lg.Warn("Skipping order file", zap.String("file", res.name), zap.Error(readErr))
			continue
		}

		for _, o := range res.orders {
			seen[o.Number] = struct{}{}
			if o.Number > maxNum {
				maxNum = o.Number
			}
		}
		index[res.date] = res.orders
	}

	return index, maxNum, nil
}

func (r *OrderRepository) loadFile(ctx context.Context, idx int, name string, results []fileResult) func() error {
	return func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := fileResult{name: name}
		defer func() { results[idx] = res }()

		token := orderFileName.FindStringSubmatch(name)[1]
		date, err := time.ParseInLocation(dateToken, token, time.UTC)
		if err != nil {
			res.err = errors.Wrapf(err, "date token %q", token)
			return nil
		}
		res.date = date

		records, err := textfile.Records(filepath.Join(r.cfg.Dir, name))
		if err != nil {
			res.err = err
			return nil
		}

		orders := make([]*order.Order, 0, len(records))
		for _, rec := range records {
			o, err := parseOrderRow(date, rec)
			if err != nil {
				res.err = err
				return nil
			}
			orders = append(orders, o)
		}
		res.orders = orders
		return nil
	}
}

// Save rewrites the file for date with the given orders in the given order.
func (r *OrderRepository) Save(ctx context.Context, date time.Time, orders []*order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(r.cfg.Dir, "Orders_"+date.Format(dateToken)+".txt")

	lines := make([]string, 0, len(orders)+1)
	lines = append(lines, orderHeader)
	for _, o := range orders {
		lines = append(lines, formatOrderRow(o))
	}

	return textfile.WriteAtomic(path, func(w io.Writer) error {
		return textfile.WriteLines(w, lines)
	})
}

// ExportAll flattens every date's orders into one list sorted by ascending
// order number and fully rewrites the consolidated export file. When
// configured, gzip and JSON-lines copies are written next to it.
func (r *OrderRepository) ExportAll(ctx context.Context, byDate map[time.Time][]*order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var all []*order.Order
	for _, orders := range byDate {
		all = append(all, orders...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number < all[j].Number })

	lines := make([]string, 0, len(all)+1)
	lines = append(lines, orderHeader+",OrderDate")
	for _, o := range all {
		lines = append(lines, formatOrderRow(o)+","+o.Date.Format(exportDate))
	}

	if err := textfile.WriteAtomic(r.cfg.ExportFile, func(w io.Writer) error {
		return textfile.WriteLines(w, lines)
	}); err != nil {
		return err
	}

	if r.cfg.ExportGzip {
		if err := r.writeGzipCopy(lines); err != nil {
			return err
		}
	}
	if r.cfg.ExportJSONFile != "" {
		if err := r.writeJSONCopy(all); err != nil {
			return err
		}
	}

	r.lg.Info("Orders exported",
		zap.Int("orders", len(all)),
		zap.String("file", r.cfg.ExportFile),
	)
	return nil
}

func (r *OrderRepository) writeGzipCopy(lines []string) error {
	return textfile.WriteAtomic(r.cfg.ExportFile+".gz", func(w io.Writer) error {
		gz := pgzip.NewWriter(w)
		if err := textfile.WriteLines(gz, lines); err != nil {
			_ = gz.Close()
			return err
		}
		return gz.Close()
	})
}

// writeJSONCopy writes one JSON object per line, for downstream tooling
// that would rather not parse the delimited text format.
func (r *OrderRepository) writeJSONCopy(all []*order.Order) error {
	return textfile.WriteAtomic(r.cfg.ExportJSONFile, func(w io.Writer) error {
		var e jx.Encoder
		for _, o := range all {
			e.Reset()
			e.Obj(func(e *jx.Encoder) {
				e.Field("orderNumber", func(e *jx.Encoder) { e.Int(o.Number) })
				e.Field("orderDate", func(e *jx.Encoder) { e.Str(o.Date.Format(exportDate)) })
				e.Field("customerName", func(e *jx.Encoder) { e.Str(o.CustomerName) })
				e.Field("state", func(e *jx.Encoder) { e.Str(o.State) })
				e.Field("taxRate", func(e *jx.Encoder) { e.Str(formatRate(o.TaxRate)) })
				e.Field("productType", func(e *jx.Encoder) { e.Str(o.ProductType) })
				e.Field("area", func(e *jx.Encoder) { e.Str(o.Area.StringFixed(2)) })
				e.Field("costPerSquareFoot", func(e *jx.Encoder) { e.Str(o.CostPerSquareFoot.StringFixed(2)) })
				e.Field("laborCostPerSquareFoot", func(e *jx.Encoder) { e.Str(o.LaborCostPerSquareFoot.StringFixed(2)) })
				e.Field("materialCost", func(e *jx.Encoder) { e.Str(o.MaterialCost.StringFixed(2)) })
				e.Field("laborCost", func(e *jx.Encoder) { e.Str(o.LaborCost.StringFixed(2)) })
				e.Field("tax", func(e *jx.Encoder) { e.Str(o.Tax.StringFixed(2)) })
				e.Field("total", func(e *jx.Encoder) { e.Str(o.Total.StringFixed(2)) })
			})
			if _, err := w.Write(e.Bytes()); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatOrderRow serializes an order in the exact 12-column row format.
// Monetary fields and area carry exactly 2 fraction digits; the tax rate
// keeps the precision it was stored with.
func formatOrderRow(o *order.Order) string {
	fields := []string{
		strconv.Itoa(o.Number),
		o.CustomerName,
		o.State,
		formatRate(o.TaxRate),
		o.ProductType,
		o.Area.StringFixed(2),
		o.CostPerSquareFoot.StringFixed(2),
		o.LaborCostPerSquareFoot.StringFixed(2),
		o.MaterialCost.StringFixed(2),
		o.LaborCost.StringFixed(2),
		o.Tax.StringFixed(2),
		o.Total.StringFixed(2),
	}
	return strings.Join(fields, ",")
}

// formatRate renders a tax rate with the scale it was parsed with, so a
// stored "25.00" round-trips as "25.00" and "4.5" as "4.5".
func formatRate(rate decimal.Decimal) string {
	if exp := rate.Exponent(); exp < 0 {
		return rate.StringFixed(-exp)
	}
	return rate.String()
}

func parseOrderRow(date time.Time, rec string) (*order.Order, error) {
	fields := strings.Split(rec, ",")
	if len(fields) != orderFieldCount {
		return nil, errors.Errorf("record %q: want %d fields, got %d", rec, orderFieldCount, len(fields))
	}

	number, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, errors.Wrapf(err, "record %q: order number", rec)
	}

	var parseErr error
	dec := func(name, s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil && parseErr == nil {
			parseErr = errors.Wrapf(err, "record %q: %s", rec, name)
		}
		return d
	}

	o := &order.Order{
		Number:                 number,
		Date:                   date,
		CustomerName:           fields[1],
		State:                  fields[2],
		TaxRate:                dec("tax rate", fields[3]),
		ProductType:            fields[4],
		Area:                   dec("area", fields[5]),
		CostPerSquareFoot:      dec("cost per square foot", fields[6]),
		LaborCostPerSquareFoot: dec("labor cost per square foot", fields[7]),
		MaterialCost:           dec("material cost", fields[8]),
		LaborCost:              dec("labor cost", fields[9]),
		Tax:                    dec("tax", fields[10]),
		Total:                  dec("total", fields[11]),
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return o, nil
}
