package model

// DateLayout and TimeLayout are the wire and storage formats for a
// reservation's calendar date and time of day.  Times are always stored
// with seconds so that "20:00" and "20:00:00" denote the same slot.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Reservation binds one diner to one table at a specific date and time.
// A reservation is a point in time, not an interval: two reservations
// collide only when table, date and time are all equal.
//
// Diner and Table are only populated when the caller explicitly loads
// them; they are never fetched lazily.
type Reservation struct {
	ID        uint64 `json:"id"`         // reservations.id
	Date      string `json:"date"`       // reservations.date (YYYY-MM-DD)
	Time      string `json:"time"`       // reservations.time (HH:MM:SS)
	PartySize int    `json:"party_size"` // reservations.party_size
	DinerID   uint64 `json:"diner_id"`   // reservations.diner_id
	TableID   uint64 `json:"table_id"`   // reservations.table_id
	Diner     *Diner `json:"diner,omitempty"`
	Table     *Table `json:"table,omitempty"`
}

// Slot identifies the (table, date, time) triple that at most one
// reservation may occupy.
type Slot struct {
	TableID uint64
	Date    string
	Time    string
}

// Slot returns the slot occupied by the reservation.
func (r *Reservation) Slot() Slot {
	return Slot{TableID: r.TableID, Date: r.Date, Time: r.Time}
}
