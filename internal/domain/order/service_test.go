package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/flooring-orders/internal/domain/catalog"
)

// --- Mock implementations ---

type mockStore struct {
	products []catalog.Product
	taxes    []catalog.TaxInfo
	err      error
}

func (m *mockStore) Products(_ context.Context) ([]catalog.Product, error) {
	return m.products, m.err
}

func (m *mockStore) Taxes(_ context.Context) ([]catalog.TaxInfo, error) {
	return m.taxes, m.err
}

type mockRepo struct {
	index   map[time.Time][]*Order
	maxNum  int
	saved   map[time.Time][]*Order
	saveErr error
	exports int
}

func (m *mockRepo) LoadAll(_ context.Context) (map[time.Time][]*Order, int, error) {
	if m.index == nil {
		m.index = make(map[time.Time][]*Order)
	}
	return m.index, m.maxNum, nil
}

func (m *mockRepo) Save(_ context.Context, date time.Time, orders []*Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[time.Time][]*Order)
	}
	m.saved[date] = append([]*Order(nil), orders...)
	return nil
}

func (m *mockRepo) ExportAll(_ context.Context, _ map[time.Time][]*Order) error {
	m.exports++
	return nil
}

// --- Helpers ---

var (
	tile   = catalog.Product{Type: "Tile", CostPerSquareFoot: d("3.50"), LaborCostPerSquareFoot: d("4.15")}
	carpet = catalog.Product{Type: "Carpet", CostPerSquareFoot: d("2.25"), LaborCostPerSquareFoot: d("2.10")}

	testTaxes = []catalog.TaxInfo{
		{StateAbbreviation: "TX", StateName: "Texas", Rate: d("4.45")},
		{StateAbbreviation: "CA", StateName: "California", Rate: d("25.00")},
	}

	fixedNow = time.Date(2013, time.March, 10, 15, 30, 0, 0, time.UTC)
)

func newTestService(t *testing.T, repo *mockRepo) *Service {
	t.Helper()
	svc := NewService(&mockStore{
		products: []catalog.Product{tile, carpet},
		taxes:    testTaxes,
	}, repo)
	svc.now = func() time.Time { return fixedNow }
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func newTestOrder(date time.Time) *Order {
	return &Order{
		Date:         date,
		CustomerName: "Ada Lovelace",
		State:        "CA",
		ProductType:  "Tile",
		Area:         d("249.00"),
	}
}

// --- Tests ---

func TestInit_SeedsNextOrderNumber(t *testing.T) {
	day := Day(2013, time.June, 1)
	repo := &mockRepo{
		index:  map[time.Time][]*Order{day: {{Number: 7, Date: day}}},
		maxNum: 7,
	}
	svc := newTestService(t, repo)

	o := newTestOrder(Day(2013, time.June, 2))
	require.NoError(t, svc.Configure(o))
	num, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, 8, num)
}

func TestValidateDate(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	assert.NoError(t, svc.ValidateDate(Day(2013, time.March, 11)))
	assert.ErrorIs(t, svc.ValidateDate(Day(2013, time.March, 10)), ErrInvalidDate)
	assert.ErrorIs(t, svc.ValidateDate(Day(2012, time.December, 31)), ErrInvalidDate)
}

func TestValidateCustomerName(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	tests := []struct {
		name  string
		valid bool
	}{
		{"Ada Lovelace", true},
		{"Acme, Inc.", true},
		{"42", true},
		{"", false},
		{"Bob;DROP TABLE", false},
		{"Renée", false},
	}
	for _, tt := range tests {
		err := svc.ValidateCustomerName(tt.name)
		if tt.valid {
			assert.NoError(t, err, "name %q", tt.name)
		} else {
			assert.ErrorIs(t, err, ErrInvalidName, "name %q", tt.name)
		}
	}
}

func TestValidateState_CaseSensitive(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	assert.NoError(t, svc.ValidateState("TX"))
	assert.ErrorIs(t, svc.ValidateState("tx"), ErrInvalidState)
	assert.ErrorIs(t, svc.ValidateState("ZZ"), ErrInvalidState)
}

func TestValidateArea(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	assert.NoError(t, svc.ValidateArea(d("100.00")))
	assert.ErrorIs(t, svc.ValidateArea(d("99.99")), ErrInvalidArea)
	// The zero value stands in for an absent area.
	assert.ErrorIs(t, svc.ValidateArea(decimal.Decimal{}), ErrInvalidArea)
}

func TestAddOrder_AssignsMonotonicNumbers(t *testing.T) {
	repo := &mockRepo{maxNum: 3}
	svc := newTestService(t, repo)
	day := Day(2013, time.June, 1)

	var numbers []int
	for i := 0; i < 3; i++ {
		o := newTestOrder(day)
		require.NoError(t, svc.Configure(o))
		num, err := svc.AddOrder(context.Background(), o)
		require.NoError(t, err)
		numbers = append(numbers, num)

		// Intervening removals must not cause reuse.
		if i == 1 {
			require.NoError(t, svc.RemoveOrder(context.Background(), o))
		}
	}

	assert.Equal(t, []int{4, 5, 6}, numbers)
}

func TestAddOrder_PersistsBucket(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	_, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	require.Len(t, repo.saved[day], 1)
	assert.Equal(t, 1, repo.saved[day][0].Number)
}

func TestAddOrder_SaveFailureKeepsIndex(t *testing.T) {
	repo := &mockRepo{saveErr: errors.New("disk full")}
	svc := newTestService(t, repo)
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	_, err := svc.AddOrder(context.Background(), o)
	require.Error(t, err)

	// The in-memory index stays authoritative even when the flush failed.
	assert.Len(t, svc.OrdersByDate(day), 1)
}

func TestEditOrder_ReplacesInPlace(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	num, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	edited, err := svc.FetchForEdit(day, num)
	require.NoError(t, err)
	require.NoError(t, svc.ConfigureAs(edited, "Grace Hopper", "TX", carpet, d("150.00")))
	require.NoError(t, svc.EditOrder(context.Background(), edited))

	stored := svc.OrdersByDate(day)
	require.Len(t, stored, 1)
	assert.Equal(t, "Grace Hopper", stored[0].CustomerName)
	assert.Equal(t, "Carpet", stored[0].ProductType)
	require.Len(t, repo.saved[day], 1)
}

func TestEditOrder_NotFound(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	o := newTestOrder(Day(2013, time.June, 1))
	o.Number = 99

	var nfErr *NotFoundError
	err := svc.EditOrder(context.Background(), o)
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, 99, nfErr.Number)
}

func TestRemoveOrder(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	_, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveOrder(context.Background(), o))
	assert.Empty(t, svc.OrdersByDate(day))
	// The now-empty bucket is still flushed.
	saved, ok := repo.saved[day]
	require.True(t, ok)
	assert.Empty(t, saved)

	var nfErr *NotFoundError
	require.ErrorAs(t, svc.RemoveOrder(context.Background(), o), &nfErr)
}

func TestHasOrders(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	day := Day(2013, time.June, 1)

	assert.ErrorIs(t, svc.HasOrders(day), ErrNoOrders)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	_, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	assert.NoError(t, svc.HasOrders(day))
}

func TestFetchForEdit_ReturnsIsolatedCopy(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	num, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	edited, err := svc.FetchForEdit(day, num)
	require.NoError(t, err)

	// Priced fields are cleared pending reconfiguration.
	assert.True(t, edited.Total.IsZero())
	assert.True(t, edited.TaxRate.IsZero())
	assert.Equal(t, "Ada Lovelace", edited.CustomerName)

	// Speculative edits never reach stored state.
	edited.CustomerName = "Mallory"
	assert.Equal(t, "Ada Lovelace", svc.OrdersByDate(day)[0].CustomerName)
}

func TestFetchForDelete_ReturnsLiveReference(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	day := Day(2013, time.June, 1)

	o := newTestOrder(day)
	require.NoError(t, svc.Configure(o))
	num, err := svc.AddOrder(context.Background(), o)
	require.NoError(t, err)

	ref, err := svc.FetchForDelete(day, num)
	require.NoError(t, err)
	assert.Same(t, svc.OrdersByDate(day)[0], ref)

	var nfErr *NotFoundError
	_, err = svc.FetchForDelete(day, num+1)
	require.ErrorAs(t, err, &nfErr)
}

func TestConfigure_CopiesProductAndComputes(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	o := newTestOrder(Day(2013, time.June, 1))
	require.NoError(t, svc.Configure(o))

	assert.True(t, d("3.50").Equal(o.CostPerSquareFoot))
	assert.True(t, d("4.15").Equal(o.LaborCostPerSquareFoot))
	assert.True(t, d("25.00").Equal(o.TaxRate))
	assert.True(t, d("2381.06").Equal(o.Total))
}

func TestConfigure_UnknownKeys(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	o := newTestOrder(Day(2013, time.June, 1))
	o.ProductType = "Linoleum"
	assert.ErrorIs(t, svc.Configure(o), ErrUnknownProduct)

	o = newTestOrder(Day(2013, time.June, 1))
	o.State = "ZZ"
	assert.ErrorIs(t, svc.Configure(o), ErrInvalidState)
}

func TestConfigureAs_RepricesOnAreaChange(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	o := newTestOrder(Day(2013, time.June, 1))
	require.NoError(t, svc.Configure(o))
	before := o.Total

	require.NoError(t, svc.ConfigureAs(o, o.CustomerName, o.State, tile, d("300.00")))
	assert.False(t, before.Equal(o.Total))
	assert.True(t, d("300.00").Equal(o.Area))
}

func TestConfigureAs_NameOnlyChangeKeepsMoney(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	o := newTestOrder(Day(2013, time.June, 1))
	require.NoError(t, svc.Configure(o))
	material, labor, tax, total := o.MaterialCost, o.LaborCost, o.Tax, o.Total

	require.NoError(t, svc.ConfigureAs(o, "Grace Hopper", o.State, tile, o.Area))

	assert.Equal(t, "Grace Hopper", o.CustomerName)
	assert.True(t, material.Equal(o.MaterialCost))
	assert.True(t, labor.Equal(o.LaborCost))
	assert.True(t, tax.Equal(o.Tax))
	assert.True(t, total.Equal(o.Total))
}

func TestExport_Delegates(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)

	require.NoError(t, svc.Export(context.Background()))
	assert.Equal(t, 1, repo.exports)
}
