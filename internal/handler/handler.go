// Package handler exposes the diner, table and reservation managers as a
// JSON REST API on echo.
package handler

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// DinerManager is implemented by service.DinerService.
type DinerManager interface {
	Create(ctx context.Context, in service.DinerInput) (*model.Diner, error)
	Get(ctx context.Context, id uint64) (*model.Diner, error)
	Update(ctx context.Context, id uint64, p service.DinerPatch) (*model.Diner, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ListQuery) (service.Page[model.Diner], error)
}

// TableManager is implemented by service.TableService.
type TableManager interface {
	Create(ctx context.Context, in service.TableInput) (*model.Table, error)
	Get(ctx context.Context, id uint64) (*model.Table, error)
	Update(ctx context.Context, id uint64, p service.TablePatch) (*model.Table, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ListQuery) (service.Page[model.Table], error)
}

// ReservationManager is implemented by service.ReservationService.
type ReservationManager interface {
	Create(ctx context.Context, in service.ReservationInput) (*model.Reservation, error)
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	Update(ctx context.Context, id uint64, p service.ReservationPatch) (*model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ReservationListQuery) (service.Page[model.Reservation], error)
	Availability(ctx context.Context, q service.AvailabilityQuery) (service.Outcome, error)
}

// Paging holds the per_page default and ceiling for list endpoints.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

var (
	_ DinerManager       = (*service.DinerService)(nil)
	_ TableManager       = (*service.TableService)(nil)
	_ ReservationManager = (*service.ReservationService)(nil)
)
