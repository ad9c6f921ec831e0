package service

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/pagination"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// DinerStore is the persistence contract of the diner manager.
// repository.DinerRepo implements it.
type DinerStore interface {
	Create(ctx context.Context, d *model.Diner) error
	GetByID(ctx context.Context, id uint64) (*model.Diner, error)
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)
	Update(ctx context.Context, d *model.Diner) error
	HasReservations(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ListQuery) ([]model.Diner, int64, error)
}

// TableStore is the persistence contract of the table manager.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	NumberTaken(ctx context.Context, number string, excludeID uint64) (bool, error)
	Update(ctx context.Context, t *model.Table) error
	HasReservations(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ListQuery) ([]model.Table, int64, error)
}

// ReservationStore is the persistence contract of the reservation
// lifecycle.  GetByID and List return reservations with Diner and Table
// attached.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	SlotTaken(ctx context.Context, slot model.Slot, excludeID uint64) (bool, error)
	Update(ctx context.Context, r *model.Reservation) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ReservationListQuery) ([]model.Reservation, int64, error)
}

// Page is one window of a listed collection.
type Page[T any] struct {
	Items  []T
	Total  int64
	Params pagination.Params
}

var (
	_ DinerStore       = (*repository.DinerRepo)(nil)
	_ TableStore       = (*repository.TableRepo)(nil)
	_ ReservationStore = (*repository.ReservationRepo)(nil)
)
