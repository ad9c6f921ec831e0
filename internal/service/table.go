package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/validator"
)

// TableInput is a complete table as submitted on create.
type TableInput struct {
	TableNumber string  `json:"table_number" validate:"required,max=50"`
	Capacity    int     `json:"capacity" validate:"required,min=1,max=2147483647"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
}

// TablePatch carries the fields supplied on update.  Location is
// cleared by null or a blank string.
type TablePatch struct {
	TableNumber *string        `json:"table_number"`
	Capacity    *int           `json:"capacity"`
	Location    OptionalString `json:"location"`
}

// TableService manages tables and guards table number uniqueness.
type TableService struct {
	store TableStore
}

// NewTableService returns a TableService backed by store.
func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

func (in *TableInput) normalize() {
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	in.Location = trimOptional(in.Location)
}

// Create validates and stores a new table.
func (s *TableService) Create(ctx context.Context, in TableInput) (*model.Table, error) {
	in.normalize()
	if fields := validator.Validate(in); fields != nil {
		return nil, validationError(fields)
	}
	if err := s.ensureNumberFree(ctx, in.TableNumber, 0); err != nil {
		return nil, err
	}

	t := &model.Table{TableNumber: in.TableNumber, Capacity: in.Capacity, Location: in.Location}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, tableWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("table_id", t.ID).Msg("table created")
	return t, nil
}

// Get returns one table.
func (s *TableService) Get(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrTableNotFound, msgTableNotFound)
	}
	return t, nil
}

// Update merges p over the stored table.
func (s *TableService) Update(ctx context.Context, id uint64, p TablePatch) (*model.Table, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrTableNotFound, msgTableNotFound)
	}

	in := TableInput{TableNumber: existing.TableNumber, Capacity: existing.Capacity, Location: existing.Location}
	if p.TableNumber != nil {
		in.TableNumber = *p.TableNumber
	}
	if p.Capacity != nil {
		in.Capacity = *p.Capacity
	}
	in.Location = p.Location.apply(in.Location)
	in.normalize()
	if fields := validator.Validate(in); fields != nil {
		return nil, validationError(fields)
	}
	if in.TableNumber != existing.TableNumber {
		if err := s.ensureNumberFree(ctx, in.TableNumber, id); err != nil {
			return nil, err
		}
	}

	t := &model.Table{ID: id, TableNumber: in.TableNumber, Capacity: in.Capacity, Location: in.Location}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, tableWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("table_id", id).Msg("table updated")
	return t, nil
}

// Delete removes a table that holds no reservations.
func (s *TableService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return lookupError(err, repository.ErrTableNotFound, msgTableNotFound)
	}
	has, err := s.store.HasReservations(ctx, id)
	if err != nil {
		return internal(err)
	}
	if has {
		return conflict(msgTableHasRes, nil)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return tableWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("table_id", id).Msg("table deleted")
	return nil
}

// List returns one page of tables.
func (s *TableService) List(ctx context.Context, q repository.ListQuery) (Page[model.Table], error) {
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return Page[model.Table]{}, internal(err)
	}
	return Page[model.Table]{Items: items, Total: total, Params: q.Page}, nil
}

func (s *TableService) ensureNumberFree(ctx context.Context, number string, excludeID uint64) error {
	taken, err := s.store.NumberTaken(ctx, number, excludeID)
	if err != nil {
		return internal(err)
	}
	if taken {
		return fieldConflict("table_number", msgTableNumberTaken, nil)
	}
	return nil
}

func tableWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrTableNumberTaken):
		return fieldConflict("table_number", msgTableNumberTaken, err)
	case errors.Is(err, repository.ErrHasReservations):
		return conflict(msgTableHasRes, err)
	case errors.Is(err, repository.ErrTableNotFound):
		return notFound(msgTableNotFound, err)
	}
	return internal(err)
}
