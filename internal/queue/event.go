// Package queue defines the reservation events exchanged over RabbitMQ,
// the publisher used by the service layer and the consumer that keeps
// an audit log of them.
package queue

// Event types.
const (
	ReservationCreated = "reservation.created"
	ReservationUpdated = "reservation.updated"
	ReservationDeleted = "reservation.deleted"
)

// ReservationEvent is published after a reservation write commits.  It
// carries enough detail for consumers to log or notify without querying
// the database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	DinerID       uint64 `json:"diner_id"`
	DinerName     string `json:"diner_name,omitempty"`
	TableID       uint64 `json:"table_id"`
	TableNumber   string `json:"table_number,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PartySize     int    `json:"party_size"`
	OccurredAt    string `json:"occurred_at"`
}
