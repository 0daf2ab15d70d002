package detail

import (
	"time"

	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/entity"
)

// DateLayout is how timestamps are shown to the user.
const DateLayout = "02/01/2006 às 15:04"

// Order is the screen's local copy of a support order.
// When and Closed are display strings; Closed is empty while the order is open.
type Order struct {
	ID          string
	Patrimony   string
	Description string
	Status      entity.OrderStatus
	Solution    string
	When        string
	Closed      string
}

// IsClosed reports whether the order is resolved.
func (o Order) IsClosed() bool {
	return o.Status == entity.StatusClosed
}

// StatusLabel is the banner text for the order status.
func (o Order) StatusLabel() string {
	if o.IsClosed() {
		return "finalizado"
	}
	return "em andamento"
}

// FromDocument maps a raw record into the local shape, formatting timestamps in loc.
func FromDocument(doc dto.OrderDocument, loc *time.Location) Order {
	order := Order{
		ID:          doc.ID,
		Patrimony:   doc.Patrimony,
		Description: doc.Description,
		Status:      entity.OrderStatus(doc.Status),
		Solution:    doc.Solution,
		When:        FormatTimestamp(doc.CreatedAt, loc),
	}
	if doc.ClosedAt != nil && !doc.ClosedAt.IsZero() {
		order.Closed = FormatTimestamp(*doc.ClosedAt, loc)
	}
	return order
}

// FormatTimestamp renders t for display. A nil loc means local time.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}
