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

// DinerInput is a complete diner as submitted on create.
type DinerInput struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

// DinerPatch carries the fields supplied on update.  Phone and address
// are cleared by null or a blank string.
type DinerPatch struct {
	Name    *string        `json:"name"`
	Email   *string        `json:"email"`
	Phone   OptionalString `json:"phone"`
	Address OptionalString `json:"address"`
}

// DinerService manages diners and guards their email uniqueness.
type DinerService struct {
	store DinerStore
}

// NewDinerService returns a DinerService backed by store.
func NewDinerService(store DinerStore) *DinerService {
	return &DinerService{store: store}
}

func (in *DinerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = trimOptional(in.Phone)
	in.Address = trimOptional(in.Address)
}

// Create validates and stores a new diner.
func (s *DinerService) Create(ctx context.Context, in DinerInput) (*model.Diner, error) {
	in.normalize()
	if fields := validator.Validate(in); fields != nil {
		return nil, validationError(fields)
	}
	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	d := &model.Diner{Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, dinerWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("diner_id", d.ID).Msg("diner created")
	return d, nil
}

// Get returns one diner.
func (s *DinerService) Get(ctx context.Context, id uint64) (*model.Diner, error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrDinerNotFound, msgDinerNotFound)
	}
	return d, nil
}

// Update merges p over the stored diner.  Email uniqueness is checked
// against every other diner.
func (s *DinerService) Update(ctx context.Context, id uint64, p DinerPatch) (*model.Diner, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrDinerNotFound, msgDinerNotFound)
	}

	in := DinerInput{Name: existing.Name, Email: existing.Email, Phone: existing.Phone, Address: existing.Address}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	in.Phone = p.Phone.apply(in.Phone)
	in.Address = p.Address.apply(in.Address)
	in.normalize()
	if fields := validator.Validate(in); fields != nil {
		return nil, validationError(fields)
	}
	if in.Email != existing.Email {
		if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
			return nil, err
		}
	}

	d := &model.Diner{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.store.Update(ctx, d); err != nil {
		return nil, dinerWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("diner_id", id).Msg("diner updated")
	return d, nil
}

// Delete removes a diner that holds no reservations.
func (s *DinerService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return lookupError(err, repository.ErrDinerNotFound, msgDinerNotFound)
	}
	has, err := s.store.HasReservations(ctx, id)
	if err != nil {
		return internal(err)
	}
	if has {
		return conflict(msgDinerHasRes, nil)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dinerWriteError(err)
	}
	logger.FromContext(ctx).Info().Uint64("diner_id", id).Msg("diner deleted")
	return nil
}

// List returns one page of diners.
func (s *DinerService) List(ctx context.Context, q repository.ListQuery) (Page[model.Diner], error) {
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return Page[model.Diner]{}, internal(err)
	}
	return Page[model.Diner]{Items: items, Total: total, Params: q.Page}, nil
}

func (s *DinerService) ensureEmailFree(ctx context.Context, email string, excludeID uint64) error {
	taken, err := s.store.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return internal(err)
	}
	if taken {
		return fieldConflict("email", msgEmailTaken, nil)
	}
	return nil
}

func dinerWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return fieldConflict("email", msgEmailTaken, err)
	case errors.Is(err, repository.ErrHasReservations):
		return conflict(msgDinerHasRes, err)
	case errors.Is(err, repository.ErrDinerNotFound):
		return notFound(msgDinerNotFound, err)
	}
	return internal(err)
}

// trimOptional trims an optional text field; blank becomes nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
