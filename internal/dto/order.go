package dto

import "time"

// FieldValue is a write-time placeholder resolved by the order service.
type FieldValue string

// ServerTimestamp asks the service to stamp the field with its own clock.
const ServerTimestamp FieldValue = "server_timestamp"

// Collection is the document collection holding support orders.
const Collection = "orders"

// OrderDocument is the raw order record exchanged over transport layers.
type OrderDocument struct {
	ID          string     `json:"id"`
	Patrimony   string     `json:"patrimony"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Solution    string     `json:"solution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// OrderUpdate carries the fields of an update request. ClosedAt only accepts ServerTimestamp.
type OrderUpdate struct {
	Status   string     `json:"status"`
	Solution string     `json:"solution"`
	ClosedAt FieldValue `json:"closed_at,omitempty"`
}

// OrderRegistration is the payload for opening a new order.
type OrderRegistration struct {
	Patrimony   string `json:"patrimony"`
	Description string `json:"description"`
}
