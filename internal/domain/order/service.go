package order

import (
	"context"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/flooring-orders/internal/domain/catalog"
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9., ]+$`)
	minimumArea = decimal.RequireFromString("100.00")
)

// Service owns the in-memory order index and order-number assignment. It is
// the single source of truth after Init; every mutation is flushed to the
// Repository synchronously before the call returns. Construct once per
// process and hand the instance to whichever layer drives it.
type Service struct {
	store catalog.Store
	repo  Repository
	now   func() time.Time

	products []catalog.Product
	taxes    []catalog.TaxInfo
	index    map[time.Time][]*Order
	nextNum  int
}

// NewService creates a Service with the required dependencies. Init must be
// called before any other method.
func NewService(store catalog.Store, repo Repository) *Service {
	return &Service{store: store, repo: repo, now: time.Now}
}

// Init loads the catalog and the full order index into memory and seeds the
// order-number counter at one past the highest number ever observed.
func (s *Service) Init(ctx context.Context) error {
	taxes, err := s.store.Taxes(ctx)
	if err != nil {
		return errors.Wrap(err, "load taxes")
	}
	products, err := s.store.Products(ctx)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	index, maxNum, err := s.repo.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "load orders")
	}

	s.taxes = taxes
	s.products = products
	s.index = index
	s.nextNum = maxNum + 1
	return nil
}

// Products returns the loaded product catalog.
func (s *Service) Products() []catalog.Product { return s.products }

// Taxes returns the loaded per-state tax table.
func (s *Service) Taxes() []catalog.TaxInfo { return s.taxes }

// OrdersByDate returns the live order list for one date. The slice may be
// nil when the date has no orders.
func (s *Service) OrdersByDate(date time.Time) []*Order {
	return s.index[DateOf(date)]
}

// HasOrders fails with ErrNoOrders when the index holds no orders for date.
func (s *Service) HasOrders(date time.Time) error {
	if len(s.index[DateOf(date)]) == 0 {
		return ErrNoOrders
	}
	return nil
}

// ValidateDate fails with ErrInvalidDate unless date is strictly after the
// current date.
func (s *Service) ValidateDate(date time.Time) error {
	today := DateOf(s.now())
	if !DateOf(date).After(today) {
		return ErrInvalidDate
	}
	return nil
}

// ValidateCustomerName fails with ErrInvalidName unless name consists
// entirely of letters, digits, periods, commas, and spaces.
func (s *Service) ValidateCustomerName(name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// ValidateState fails with ErrInvalidState unless the abbreviation has an
// exact, case-sensitive match in the loaded tax table.
func (s *Service) ValidateState(abbrev string) error {
	for _, ti := range s.taxes {
		if ti.StateAbbreviation == abbrev {
			return nil
		}
	}
	return ErrInvalidState
}

// ValidateArea fails with ErrInvalidArea when area is below 100.00. An
// absent area is the decimal zero value and fails the same way.
func (s *Service) ValidateArea(area decimal.Decimal) error {
	if area.Cmp(minimumArea) < 0 {
		return ErrInvalidArea
	}
	return nil
}

// AddOrder assigns the next order number, appends the order to its date's
// bucket, and persists that bucket. Returns the assigned number. The
// counter is incremented even if a later removal frees the number; numbers
// are never reused.
func (s *Service) AddOrder(ctx context.Context, o *Order) (int, error) {
	o.Number = s.nextNum
	s.nextNum++

	date := DateOf(o.Date)
	o.Date = date
	s.index[date] = append(s.index[date], o)

	if err := s.repo.Save(ctx, date, s.index[date]); err != nil {
		return o.Number, errors.Wrap(err, "save orders")
	}
	return o.Number, nil
}

// EditOrder replaces the stored order matching (date, number) in place and
// persists that date's bucket.
func (s *Service) EditOrder(ctx context.Context, o *Order) error {
	date := DateOf(o.Date)
	orders := s.index[date]

	i := indexOf(orders, o.Number)
	if i < 0 {
		return &NotFoundError{Date: date, Number: o.Number}
	}
	orders[i] = o

	if err := s.repo.Save(ctx, date, orders); err != nil {
		return errors.Wrap(err, "save orders")
	}
	return nil
}

// RemoveOrder deletes the stored order matching (date, number) and persists
// the remaining (possibly empty) bucket.
func (s *Service) RemoveOrder(ctx context.Context, o *Order) error {
	date := DateOf(o.Date)
	orders := s.index[date]

	i := indexOf(orders, o.Number)
	if i < 0 {
		return &NotFoundError{Date: date, Number: o.Number}
	}
	orders = append(orders[:i], orders[i+1:]...)
	s.index[date] = orders

	if err := s.repo.Save(ctx, date, orders); err != nil {
		return errors.Wrap(err, "save orders")
	}
	return nil
}

// FetchForEdit returns an owned deep copy of the matching order with the
// priced fields cleared pending reconfiguration, so speculative edits never
// touch stored state until the caller commits them via EditOrder.
func (s *Service) FetchForEdit(date time.Time, number int) (*Order, error) {
	date = DateOf(date)
	i := indexOf(s.index[date], number)
	if i < 0 {
		return nil, &NotFoundError{Date: date, Number: number}
	}

	src := s.index[date][i]
	return &Order{
		Number:       src.Number,
		Date:         src.Date,
		CustomerName: src.CustomerName,
		State:        src.State,
		ProductType:  src.ProductType,
		Area:         src.Area,
	}, nil
}

// FetchForDelete returns the live order reference for (date, number).
// Deletion needs no speculative-edit isolation, so no copy is made.
func (s *Service) FetchForDelete(date time.Time, number int) (*Order, error) {
	date = DateOf(date)
	i := indexOf(s.index[date], number)
	if i < 0 {
		return nil, &NotFoundError{Date: date, Number: number}
	}
	return s.index[date][i], nil
}

// Configure resolves the order's product and state against the catalog,
// copies the per-square-foot costs onto the order, and computes all derived
// monetary fields. Used for the new-order flow where the raw fields are
// already set on the order.
func (s *Service) Configure(o *Order) error {
	p, ok := s.productByType(o.ProductType)
	if !ok {
		return ErrUnknownProduct
	}
	rate, ok := s.taxRate(o.State)
	if !ok {
		return ErrInvalidState
	}

	o.CostPerSquareFoot = p.CostPerSquareFoot
	o.LaborCostPerSquareFoot = p.LaborCostPerSquareFoot
	o.TaxRate = rate
	s.reprice(o)
	return nil
}

// ConfigureAs overwrites the order's raw fields with the supplied values
// and reconfigures it. Used for the edit flow where replacement values are
// collected separately.
func (s *Service) ConfigureAs(o *Order, name, state string, product catalog.Product, area decimal.Decimal) error {
	rate, ok := s.taxRate(state)
	if !ok {
		return ErrInvalidState
	}

	o.CustomerName = name
	o.State = state
	o.Area = area
	o.ProductType = product.Type
	o.CostPerSquareFoot = product.CostPerSquareFoot
	o.LaborCostPerSquareFoot = product.LaborCostPerSquareFoot
	o.TaxRate = rate
	s.reprice(o)
	return nil
}

// Export writes the consolidated export file from the full in-memory index.
func (s *Service) Export(ctx context.Context) error {
	if err := s.repo.ExportAll(ctx, s.index); err != nil {
		return errors.Wrap(err, "export orders")
	}
	return nil
}

func (s *Service) reprice(o *Order) {
	q := Price(o.Area, o.CostPerSquareFoot, o.LaborCostPerSquareFoot, o.TaxRate)
	o.MaterialCost = q.MaterialCost
	o.LaborCost = q.LaborCost
	o.Tax = q.Tax
	o.Total = q.Total
}

func (s *Service) productByType(productType string) (catalog.Product, bool) {
	for _, p := range s.products {
		if p.Type == productType {
			return p, true
		}
	}
	return catalog.Product{}, false
}

func (s *Service) taxRate(abbrev string) (decimal.Decimal, bool) {
	for _, ti := range s.taxes {
		if ti.StateAbbreviation == abbrev {
			return ti.Rate, true
		}
	}
	return decimal.Decimal{}, false
}

func indexOf(orders []*Order, number int) int {
	for i, o := range orders {
		if o.Number == number {
			return i
		}
	}
	return -1
}
