package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/validator"
)

// ReservationInput is a complete reservation as submitted on create.
type ReservationInput struct {
	Date      string `json:"date" validate:"required,date_ymd"`
	Time      string `json:"time" validate:"required,clock"`
	PartySize int    `json:"party_size" validate:"required,min=1,max=2147483647"`
	DinerID   uint64 `json:"diner_id" validate:"required"`
	TableID   uint64 `json:"table_id" validate:"required"`
}

// ReservationPatch carries the fields supplied on update.  Nil fields
// keep their stored value.
type ReservationPatch struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	PartySize *int    `json:"party_size"`
	DinerID   *uint64 `json:"diner_id"`
	TableID   *uint64 `json:"table_id"`
}

// AvailabilityQuery asks whether a party fits a table at a date and time.
type AvailabilityQuery struct {
	TableID   uint64 `json:"table_id"`
	Date      string `json:"date" validate:"required,date_ymd"`
	Time      string `json:"time" validate:"required,clock"`
	PartySize int    `json:"party_size" validate:"required,min=1,max=2147483647"`
}

// ReservationService runs the reservation lifecycle: shape validation,
// availability checking, persistence and event publication.
type ReservationService struct {
	reservations   ReservationStore
	diners         DinerStore
	tables         TableStore
	checker        *Checker
	events         EventPublisher
	now            func() time.Time
	futureOnUpdate bool
}

// ReservationOption customises a ReservationService.
type ReservationOption func(*ReservationService)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) { s.now = now }
}

// WithEvents publishes reservation events through p.
func WithEvents(p EventPublisher) ReservationOption {
	return func(s *ReservationService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithFutureOnUpdate controls whether an update that moves a
// reservation must land on today or later.  It defaults to true.
func WithFutureOnUpdate(enabled bool) ReservationOption {
	return func(s *ReservationService) { s.futureOnUpdate = enabled }
}

// NewReservationService wires the lifecycle to its stores.
func NewReservationService(reservations ReservationStore, diners DinerStore, tables TableStore, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		reservations:   reservations,
		diners:         diners,
		tables:         tables,
		checker:        NewChecker(tables, reservations),
		events:         nopPublisher{},
		now:            time.Now,
		futureOnUpdate: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checker exposes the availability checker used by the service.
func (s *ReservationService) Checker() *Checker { return s.checker }

// Create validates in, checks availability and stores the reservation.
// The returned reservation has Diner and Table attached.
func (s *ReservationService) Create(ctx context.Context, in ReservationInput) (*model.Reservation, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)

	fe := fieldErrors{}
	fe.merge(validator.Validate(in))
	if len(fe["date"]) == 0 && s.isPast(in.Date) {
		fe.add("date", "The date must be today or later.")
	}
	if err := s.checkReferences(ctx, fe, in.DinerID, in.TableID); err != nil {
		return nil, err
	}
	if err := fe.err(); err != nil {
		metrics.ObserveReservation(metrics.OutcomeRejected)
		return nil, err
	}
	in.Time = normalizeClock(in.Time)

	out, err := s.checker.Check(ctx, AvailabilityRequest{
		TableID:   in.TableID,
		Date:      in.Date,
		Time:      in.Time,
		PartySize: in.PartySize,
	})
	if err != nil {
		return nil, s.checkError(err)
	}
	if err := rejectOutcome(out); err != nil {
		return nil, err
	}

	r := &model.Reservation{
		Date:      in.Date,
		Time:      in.Time,
		PartySize: in.PartySize,
		DinerID:   in.DinerID,
		TableID:   in.TableID,
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		return nil, writeError(err)
	}
	created, err := s.reservations.GetByID(ctx, r.ID)
	if err != nil {
		return nil, internal(err)
	}

	metrics.ObserveReservation(metrics.OutcomeCreated)
	logger.FromContext(ctx).Info().Uint64("reservation_id", created.ID).Uint64("table_id", created.TableID).
		Str("date", created.Date).Str("time", created.Time).Msg("reservation created")
	s.publish(ctx, queue.ReservationCreated, created)
	return created, nil
}

// Update merges p over the stored reservation and re-validates only
// what changed: capacity when the table or party size changed, the slot
// when the date, time or table changed.  The reservation never
// conflicts with itself.
func (s *ReservationService) Update(ctx context.Context, id uint64, p ReservationPatch) (*model.Reservation, error) {
	existing, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrReservationNotFound, msgReservationNotFnd)
	}

	in := ReservationInput{
		Date:      existing.Date,
		Time:      existing.Time,
		PartySize: existing.PartySize,
		DinerID:   existing.DinerID,
		TableID:   existing.TableID,
	}
	if p.Date != nil {
		in.Date = strings.TrimSpace(*p.Date)
	}
	if p.Time != nil {
		in.Time = strings.TrimSpace(*p.Time)
	}
	if p.PartySize != nil {
		in.PartySize = *p.PartySize
	}
	if p.DinerID != nil {
		in.DinerID = *p.DinerID
	}
	if p.TableID != nil {
		in.TableID = *p.TableID
	}

	fe := fieldErrors{}
	fe.merge(validator.Validate(in))
	if len(fe["time"]) == 0 {
		in.Time = normalizeClock(in.Time)
	}

	dateChanged := in.Date != existing.Date
	timeChanged := in.Time != existing.Time
	tableChanged := in.TableID != existing.TableID
	dinerChanged := in.DinerID != existing.DinerID
	partyChanged := in.PartySize != existing.PartySize

	if s.futureOnUpdate && dateChanged && len(fe["date"]) == 0 && s.isPast(in.Date) {
		fe.add("date", "The date must be today or later.")
	}
	var dinerID, tableID uint64
	if dinerChanged {
		dinerID = in.DinerID
	}
	if tableChanged {
		tableID = in.TableID
	}
	if err := s.checkReferences(ctx, fe, dinerID, tableID); err != nil {
		return nil, err
	}
	if err := fe.err(); err != nil {
		metrics.ObserveReservation(metrics.OutcomeRejected)
		return nil, err
	}

	if tableChanged || partyChanged {
		out, _, err := s.checker.CheckCapacity(ctx, in.TableID, in.PartySize)
		if err != nil {
			return nil, s.checkError(err)
		}
		if err := rejectOutcome(out); err != nil {
			return nil, err
		}
	}
	if dateChanged || timeChanged || tableChanged {
		out, err := s.checker.CheckSlot(ctx, model.Slot{TableID: in.TableID, Date: in.Date, Time: in.Time}, id)
		if err != nil {
			return nil, internal(err)
		}
		if err := rejectOutcome(out); err != nil {
			return nil, err
		}
	}

	r := &model.Reservation{
		ID:        id,
		Date:      in.Date,
		Time:      in.Time,
		PartySize: in.PartySize,
		DinerID:   in.DinerID,
		TableID:   in.TableID,
	}
	if err := s.reservations.Update(ctx, r); err != nil {
		return nil, writeError(err)
	}
	updated, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrReservationNotFound, msgReservationNotFnd)
	}

	metrics.ObserveReservation(metrics.OutcomeUpdated)
	logger.FromContext(ctx).Info().Uint64("reservation_id", id).Msg("reservation updated")
	s.publish(ctx, queue.ReservationUpdated, updated)
	return updated, nil
}

// Delete removes a reservation.  Nothing depends on a reservation so
// the delete is unconditional once the record exists.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	existing, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, repository.ErrReservationNotFound, msgReservationNotFnd)
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return lookupError(err, repository.ErrReservationNotFound, msgReservationNotFnd)
	}

	metrics.ObserveReservation(metrics.OutcomeDeleted)
	logger.FromContext(ctx).Info().Uint64("reservation_id", id).Msg("reservation deleted")
	s.publish(ctx, queue.ReservationDeleted, existing)
	return nil
}

// Get returns one reservation with its diner and table.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, repository.ErrReservationNotFound, msgReservationNotFnd)
	}
	return r, nil
}

// List returns one page of reservations.
func (s *ReservationService) List(ctx context.Context, q repository.ReservationListQuery) (Page[model.Reservation], error) {
	items, total, err := s.reservations.List(ctx, q)
	if err != nil {
		return Page[model.Reservation]{}, internal(err)
	}
	return Page[model.Reservation]{Items: items, Total: total, Params: q.Page}, nil
}

// Availability runs the checker for a prospective reservation without
// storing anything.
func (s *ReservationService) Availability(ctx context.Context, q AvailabilityQuery) (Outcome, error) {
	q.Date = strings.TrimSpace(q.Date)
	q.Time = strings.TrimSpace(q.Time)
	if fields := validator.Validate(q); fields != nil {
		return Available, validationError(fields)
	}
	out, err := s.checker.Check(ctx, AvailabilityRequest{
		TableID:   q.TableID,
		Date:      q.Date,
		Time:      normalizeClock(q.Time),
		PartySize: q.PartySize,
	})
	if err != nil {
		return Available, lookupError(err, repository.ErrTableNotFound, msgTableNotFound)
	}
	metrics.ObserveAvailability(out.String())
	return out, nil
}

// checkReferences records a field error for each non-zero id that does
// not resolve.  Ids that already failed shape validation are skipped.
func (s *ReservationService) checkReferences(ctx context.Context, fe fieldErrors, dinerID, tableID uint64) error {
	if dinerID != 0 && len(fe["diner_id"]) == 0 {
		if _, err := s.diners.GetByID(ctx, dinerID); err != nil {
			if !errors.Is(err, repository.ErrDinerNotFound) {
				return internal(err)
			}
			fe.add("diner_id", "The selected diner does not exist.")
		}
	}
	if tableID != 0 && len(fe["table_id"]) == 0 {
		if _, err := s.tables.GetByID(ctx, tableID); err != nil {
			if !errors.Is(err, repository.ErrTableNotFound) {
				return internal(err)
			}
			fe.add("table_id", "The selected table does not exist.")
		}
	}
	return nil
}

// checkError maps a checker failure.  The table was verified moments
// before, so a missing table here means it was deleted concurrently.
func (s *ReservationService) checkError(err error) error {
	if errors.Is(err, repository.ErrTableNotFound) {
		return validationError(map[string][]string{"table_id": {"The selected table does not exist."}})
	}
	return internal(err)
}

func (s *ReservationService) isPast(date string) bool {
	// YYYY-MM-DD compares chronologically as a string
	return date < s.now().Format(model.DateLayout)
}

func rejectOutcome(out Outcome) error {
	switch out {
	case InsufficientCapacity:
		metrics.ObserveReservation(metrics.OutcomeInsufficientCapacity)
		return unprocessable(msgCapacity)
	case SlotTaken:
		metrics.ObserveReservation(metrics.OutcomeSlotTaken)
		return conflict(msgSlotTaken, nil)
	}
	return nil
}

// writeError maps a failed reservation insert or update.
func writeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		metrics.ObserveReservation(metrics.OutcomeSlotTaken)
		return conflict(msgSlotTaken, err)
	case errors.Is(err, repository.ErrInvalidReference):
		return notFound("The selected diner or table no longer exists", err)
	case errors.Is(err, repository.ErrReservationNotFound):
		return notFound(msgReservationNotFnd, err)
	}
	return internal(err)
}

// lookupError maps sentinel to NotFound and anything else to Internal.
func lookupError(err, sentinel error, msg string) error {
	if errors.Is(err, sentinel) {
		return notFound(msg, err)
	}
	return internal(err)
}

// normalizeClock renders a valid HH:MM or HH:MM:SS value as HH:MM:SS.
// Invalid input is returned unchanged.
func normalizeClock(s string) string {
	t, ok := validator.ParseClock(s)
	if !ok {
		return s
	}
	return t.Format(model.TimeLayout)
}
