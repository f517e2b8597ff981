// Package cli implements the interactive text menu around the order
// service. It owns all terminal I/O, prompt formatting, and the retry
// loops around validation failures; the service never formats prompts.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/flooring-orders/internal/domain/catalog"
	"github.com/xenking/flooring-orders/internal/domain/order"
)

const dateInput = "01/02/2006" // MM/DD/YYYY

// Menu drives the six-action text menu against an initialized Service.
// Input and output are injected so the menu is testable without a
// terminal.
type Menu struct {
	svc *order.Service
	in  *bufio.Scanner
	out io.Writer
}

// NewMenu creates a Menu reading from r and writing to w.
func NewMenu(svc *order.Service, r io.Reader, w io.Writer) *Menu {
	return &Menu{
		svc: svc,
		in:  bufio.NewScanner(r),
		out: w,
	}
}

// Run loops the main menu until the user quits, input ends, or the context
// is canceled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, err := m.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.displayOrders()
		case "2":
			err = m.addOrder(ctx)
		case "3":
			err = m.editOrder(ctx)
		case "4":
			err = m.removeOrder(ctx)
		case "5":
			err = m.export(ctx)
		case "6":
			m.printf("  * Thank you. Goodbye!\n")
			return nil
		default:
			m.printf("  * Invalid input, try again\n")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *Menu) printMenu() {
	m.printf("  * * * * * * * * * * * * * * * * * * * * * * * *\n")
	m.printf("  * <<Flooring Program>>\n")
	m.printf("  * 1. Display Orders\n")
	m.printf("  * 2. Add an Order\n")
	m.printf("  * 3. Edit an Order\n")
	m.printf("  * 4. Remove an Order\n")
	m.printf("  * 5. Export All Data\n")
	m.printf("  * 6. Quit\n")
	m.printf("  * * * * * * * * * * * * * * * * * * * * * * * *\n")
	m.printf("  > ")
}

func (m *Menu) displayOrders() error {
	date, err := m.promptExistingDate()
	if err != nil {
		return err
	}
	if date.IsZero() {
		return nil
	}
	for _, o := range m.svc.OrdersByDate(date) {
		m.printOrder(o)
	}
	return nil
}

func (m *Menu) addOrder(ctx context.Context) error {
	date, err := promptUntil(m, "Enter the order date (MM/DD/YYYY): ", m.parseFutureDate)
	if err != nil {
		return err
	}
	name, err := promptUntil(m, "Enter the customer name: ", m.parseName)
	if err != nil {
		return err
	}

	m.printTaxes()
	state, err := promptUntil(m, "Enter the customer state abbreviation: ", m.parseState)
	if err != nil {
		return err
	}
	product, err := m.promptProduct(catalog.Product{})
	if err != nil {
		return err
	}
	area, err := promptUntil(m, "Enter the order area (min 100.00 sq ft): ", m.parseArea)
	if err != nil {
		return err
	}

	o := &order.Order{
		Date:         date,
		CustomerName: name,
		State:        state,
		ProductType:  product.Type,
		Area:         area,
	}
	if err := m.svc.Configure(o); err != nil {
		m.printf("  * %v\n", err)
		return nil
	}

	m.printOrder(o)
	ok, err := m.confirm("Place this order? (Y/N): ")
	if err != nil || !ok {
		return err
	}

	number, err := m.svc.AddOrder(ctx, o)
	if err != nil {
		return err
	}
	m.printf("  * Order placed. Your order number is %d\n", number)
	return nil
}

func (m *Menu) editOrder(ctx context.Context) error {
	existing, err := m.promptOrder(m.svc.FetchForEdit)
	if err != nil || existing == nil {
		return err
	}

	name, err := promptUntil(m,
		fmt.Sprintf("Enter the customer name (%s): ", existing.CustomerName),
		keepCurrent(existing.CustomerName, m.parseName),
	)
	if err != nil {
		return err
	}

	m.printTaxes()
	state, err := promptUntil(m,
		fmt.Sprintf("Enter the customer state abbreviation (%s): ", existing.State),
		keepCurrent(existing.State, m.parseState),
	)
	if err != nil {
		return err
	}

	current, _ := m.productByType(existing.ProductType)
	product, err := m.promptProduct(current)
	if err != nil {
		return err
	}

	area, err := promptUntil(m,
		fmt.Sprintf("Enter the order area (%s): ", existing.Area.StringFixed(2)),
		keepCurrentDecimal(existing.Area, m.parseArea),
	)
	if err != nil {
		return err
	}

	if err := m.svc.ConfigureAs(existing, name, state, product, area); err != nil {
		m.printf("  * %v\n", err)
		return nil
	}

	m.printOrder(existing)
	ok, err := m.confirm("Save these changes? (Y/N): ")
	if err != nil || !ok {
		return err
	}

	if err := m.svc.EditOrder(ctx, existing); err != nil {
		m.printf("  * %v\n", err)
		return nil
	}
	m.printf("  * Order updated\n")
	return nil
}

func (m *Menu) removeOrder(ctx context.Context) error {
	toDelete, err := m.promptOrder(m.svc.FetchForDelete)
	if err != nil || toDelete == nil {
		return err
	}

	m.printOrder(toDelete)
	ok, err := m.confirm("Delete this order? (Y/N): ")
	if err != nil || !ok {
		return err
	}

	if err := m.svc.RemoveOrder(ctx, toDelete); err != nil {
		m.printf("  * %v\n", err)
		return nil
	}
	m.printf("  * Order removed\n")
	return nil
}

func (m *Menu) export(ctx context.Context) error {
	if err := m.svc.Export(ctx); err != nil {
		return err
	}
	m.printf("  * Orders exported successfully\n")
	return nil
}

// promptOrder collects a date and order number and fetches the matching
// order via fetch. A not-found failure restarts from the date prompt, per
// the recovery contract for edit/delete flows.
func (m *Menu) promptOrder(fetch func(time.Time, int) (*order.Order, error)) (*order.Order, error) {
	for {
		date, err := m.promptExistingDate()
		if err != nil {
			return nil, err
		}
		if date.IsZero() {
			return nil, nil
		}

		line, err := m.prompt("Enter the order number: ")
		if err != nil {
			return nil, err
		}
		number, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			m.printf("  * Order number must be a whole number\n")
			continue
		}

		o, err := fetch(date, number)
		if err != nil {
			m.printf("  * %v\n", err)
			continue
		}
		return o, nil
	}
}

// promptExistingDate loops until the user enters a date that has orders.
// Returns the zero time when the date is well-formed but has no orders, so
// callers can bail out of the flow like the original menu does.
func (m *Menu) promptExistingDate() (time.Time, error) {
	for {
		line, err := m.prompt("Enter the order date (MM/DD/YYYY): ")
		if err != nil {
			return time.Time{}, err
		}
		date, err := time.ParseInLocation(dateInput, strings.TrimSpace(line), time.UTC)
		if err != nil {
			m.printf("  * Dates must be entered as MM/DD/YYYY\n")
			continue
		}
		if err := m.svc.HasOrders(date); err != nil {
			m.printf("  * %v\n", err)
			return time.Time{}, nil
		}
		return date, nil
	}
}

func (m *Menu) promptProduct(current catalog.Product) (catalog.Product, error) {
	products := m.svc.Products()
	m.printf("  * Available products:\n")
	for i, p := range products {
		m.printf("  * %d. %s (material $%s/sq ft, labor $%s/sq ft)\n",
			i+1, p.Type, p.CostPerSquareFoot.StringFixed(2), p.LaborCostPerSquareFoot.StringFixed(2))
	}

	label := "Select a product: "
	if current.Type != "" {
		label = fmt.Sprintf("Select a product (%s): ", current.Type)
	}

	for {
		line, err := m.prompt(label)
		if err != nil {
			return catalog.Product{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" && current.Type != "" {
			return current, nil
		}
		i, err := strconv.Atoi(line)
		if err != nil || i < 1 || i > len(products) {
			m.printf("  * Enter a number between 1 and %d\n", len(products))
			continue
		}
		return products[i-1], nil
	}
}

func (m *Menu) printTaxes() {
	m.printf("  * Supported states:\n")
	for _, ti := range m.svc.Taxes() {
		m.printf("  * %s - %s (%s%%)\n", ti.StateAbbreviation, ti.StateName, ti.Rate)
	}
}

func (m *Menu) printOrder(o *order.Order) {
	m.printf("  * | Order Number: %d\n", o.Number)
	m.printf("  * | Order Date: %s\n", o.Date.Format(dateInput))
	m.printf("  * | Customer Name: %s\n", o.CustomerName)
	m.printf("  * | State: %s\n", o.State)
	m.printf("  * | Tax Rate: %s\n", o.TaxRate)
	m.printf("  * | Product Type: %s\n", o.ProductType)
	m.printf("  * | Area: %s sq ft\n", o.Area.StringFixed(2))
	m.printf("  * | Cost Per Square Foot: $%s\n", o.CostPerSquareFoot.StringFixed(2))
	m.printf("  * | Labor Cost Per Square Foot: $%s\n", o.LaborCostPerSquareFoot.StringFixed(2))
	m.printf("  * | Material Cost: $%s\n", o.MaterialCost.StringFixed(2))
	m.printf("  * | Labor Cost: $%s\n", o.LaborCost.StringFixed(2))
	m.printf("  * | Tax: $%s\n", o.Tax.StringFixed(2))
	m.printf("  * | Total: $%s\n", o.Total.StringFixed(2))
}

func (m *Menu) confirm(label string) (bool, error) {
	line, err := m.prompt(label)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// --- field parsers for promptUntil ---

func (m *Menu) parseFutureDate(line string) (time.Time, error) {
	date, err := time.ParseInLocation(dateInput, line, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("dates must be entered as MM/DD/YYYY")
	}
	if err := m.svc.ValidateDate(date); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func (m *Menu) parseName(line string) (string, error) {
	if err := m.svc.ValidateCustomerName(line); err != nil {
		return "", err
	}
	return line, nil
}

func (m *Menu) parseState(line string) (string, error) {
	if err := m.svc.ValidateState(line); err != nil {
		return "", err
	}
	return line, nil
}

func (m *Menu) parseArea(line string) (decimal.Decimal, error) {
	area, err := decimal.NewFromString(line)
	if err != nil {
		return decimal.Decimal{}, errors.New("area must be a number")
	}
	if err := m.svc.ValidateArea(area); err != nil {
		return decimal.Decimal{}, err
	}
	return area, nil
}

// keepCurrent wraps a parser so an empty line keeps the current value, for
// edit-flow prompts.
func keepCurrent(current string, parse func(string) (string, error)) func(string) (string, error) {
	return func(line string) (string, error) {
		if line == "" {
			return current, nil
		}
		return parse(line)
	}
}

func keepCurrentDecimal(current decimal.Decimal, parse func(string) (decimal.Decimal, error)) func(string) (decimal.Decimal, error) {
	return func(line string) (decimal.Decimal, error) {
		if line == "" {
			return current, nil
		}
		return parse(line)
	}
}

// promptUntil re-prompts until parse accepts the input, printing the
// validation message between attempts.
func promptUntil[T any](m *Menu, label string, parse func(string) (T, error)) (T, error) {
	var zero T
	for {
		line, err := m.prompt(label)
		if err != nil {
			return zero, err
		}
		v, err := parse(strings.TrimSpace(line))
		if err != nil {
			m.printf("  * %v\n", err)
			continue
		}
		return v, nil
	}
}

func (m *Menu) prompt(label string) (string, error) {
	m.printf("  * %s", label)
	return m.readLine()
}

func (m *Menu) readLine() (string, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return m.in.Text(), nil
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Menu) productByType(productType string) (catalog.Product, bool) {
	for _, p := range m.svc.Products() {
		if p.Type == productType {
			return p, true
		}
	}
	return catalog.Product{}, false
}
