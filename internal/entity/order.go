package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle state of a support order.
type OrderStatus string

const (
	StatusOpen   OrderStatus = "open"
	StatusClosed OrderStatus = "closed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Order is an equipment repair request stored in the orders collection.
// Solution and ClosedAt are only populated once Status is closed.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          string      `bun:"id,pk" json:"id"`
	Patrimony   string      `bun:"patrimony,notnull" json:"patrimony"`
	Description string      `bun:"description,notnull" json:"description"`
	Status      OrderStatus `bun:"status,notnull" json:"status"`
	Solution    string      `bun:"solution,nullzero" json:"solution,omitempty"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	ClosedAt    *time.Time  `bun:"closed_at,nullzero" json:"closed_at,omitempty"`
}

// IsClosed reports whether the order has been resolved.
func (o *Order) IsClosed() bool {
	return o != nil && o.Status == StatusClosed
}
