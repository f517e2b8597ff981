package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for order input validation. They are always recoverable:
// the caller should re-prompt for the failing field and retry.
var (
	ErrInvalidDate    = errors.New("order date must be in the future")
	ErrInvalidName    = errors.New("customer name does not meet format specifications")
	ErrInvalidState   = errors.New("invalid input or state is unsupported")
	ErrInvalidArea    = errors.New("area must be at least 100.00")
	ErrNoOrders       = errors.New("there are no orders for that date")
	ErrUnknownProduct = errors.New("product type is not in the catalog")
)

// NotFoundError indicates the combination of order date and order number
// does not match an existing order. During an edit or delete flow it signals
// the caller to re-collect the date/number pair, not just one field.
type NotFoundError struct {
	Date   time.Time
	Number int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d on %s not found", e.Number, e.Date.Format("2006-01-02"))
}
