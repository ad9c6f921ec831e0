package service

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

// EventPublisher delivers reservation events after a write commits.
// queue.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }

const publishTimeout = 3 * time.Second

// publish sends a best-effort event.  Failures are logged and never
// reach the caller.
func (s *ReservationService) publish(ctx context.Context, typ string, r *model.Reservation) {
	ev := queue.ReservationEvent{
		Type:          typ,
		ReservationID: r.ID,
		DinerID:       r.DinerID,
		TableID:       r.TableID,
		Date:          r.Date,
		Time:          r.Time,
		PartySize:     r.PartySize,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if r.Diner != nil {
		ev.DinerName = r.Diner.Name
	}
	if r.Table != nil {
		ev.TableNumber = r.Table.TableNumber
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("type", typ).Uint64("reservation_id", r.ID).Msg("reservation event not published")
	}
}
