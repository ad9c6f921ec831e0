package service

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Outcome is the verdict of an availability check.
type Outcome int

const (
	Available Outcome = iota
	InsufficientCapacity
	SlotTaken
)

func (o Outcome) String() string {
	switch o {
	case Available:
		return "available"
	case InsufficientCapacity:
		return "insufficient_capacity"
	case SlotTaken:
		return "slot_taken"
	}
	return "unknown"
}

// tableGetter and slotChecker are the read-only views the checker needs.
type tableGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
}

type slotChecker interface {
	SlotTaken(ctx context.Context, slot model.Slot, excludeID uint64) (bool, error)
}

// Checker decides whether a reservation may occupy a slot.  It never
// writes; the slot unique key in the store remains the final guard
// against two requests that pass the check at the same time.
type Checker struct {
	tables       tableGetter
	reservations slotChecker
}

// NewChecker returns a Checker reading from the given stores.
func NewChecker(tables tableGetter, reservations slotChecker) *Checker {
	return &Checker{tables: tables, reservations: reservations}
}

// AvailabilityRequest describes a prospective reservation.  ExcludeID
// is the reservation being updated, or 0 for a new one.  Time must be
// normalised to HH:MM:SS.
type AvailabilityRequest struct {
	TableID   uint64
	Date      string
	Time      string
	PartySize int
	ExcludeID uint64
}

// Check runs the capacity test followed by the slot test.  An unknown
// table yields repository.ErrTableNotFound.
func (c *Checker) Check(ctx context.Context, req AvailabilityRequest) (Outcome, error) {
	out, _, err := c.CheckCapacity(ctx, req.TableID, req.PartySize)
	if err != nil || out != Available {
		return out, err
	}
	return c.CheckSlot(ctx, model.Slot{TableID: req.TableID, Date: req.Date, Time: req.Time}, req.ExcludeID)
}

// CheckCapacity loads the table and compares its capacity with
// partySize.  The loaded table is returned for the caller's convenience.
func (c *Checker) CheckCapacity(ctx context.Context, tableID uint64, partySize int) (Outcome, *model.Table, error) {
	t, err := c.tables.GetByID(ctx, tableID)
	if err != nil {
		return Available, nil, err
	}
	if t.Capacity < partySize {
		return InsufficientCapacity, t, nil
	}
	return Available, t, nil
}

// CheckSlot reports SlotTaken when a reservation other than excludeID
// holds the slot.
func (c *Checker) CheckSlot(ctx context.Context, slot model.Slot, excludeID uint64) (Outcome, error) {
	taken, err := c.reservations.SlotTaken(ctx, slot, excludeID)
	if err != nil {
		return Available, err
	}
	if taken {
		return SlotTaken, nil
	}
	return Available, nil
}
