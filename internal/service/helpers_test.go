package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db           *memDB
	events       *recordingPublisher
	diners       *DinerService
	tables       *TableService
	reservations *ReservationService
}

func newFixture(t *testing.T, opts ...ReservationOption) *fixture {
	t.Helper()
	db := newMemDB()
	events := &recordingPublisher{}
	opts = append([]ReservationOption{WithClock(func() time.Time { return fixedNow }), WithEvents(events)}, opts...)
	return &fixture{
		db:           db,
		events:       events,
		diners:       NewDinerService(memDiners{db}),
		tables:       NewTableService(memTables{db}),
		reservations: NewReservationService(memReservations{db}, memDiners{db}, memTables{db}, opts...),
	}
}

func (f *fixture) diner(t *testing.T, name, email string) *model.Diner {
	t.Helper()
	d, err := f.diners.Create(context.Background(), DinerInput{Name: name, Email: email})
	if err != nil {
		t.Fatalf("create diner %s: %v", email, err)
	}
	return d
}

func (f *fixture) table(t *testing.T, number string, capacity int) *model.Table {
	t.Helper()
	tb, err := f.tables.Create(context.Background(), TableInput{TableNumber: number, Capacity: capacity})
	if err != nil {
		t.Fatalf("create table %s: %v", number, err)
	}
	return tb
}

func (f *fixture) reserve(t *testing.T, in ReservationInput) *model.Reservation {
	t.Helper()
	r, err := f.reservations.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create reservation %+v: %v", in, err)
	}
	return r
}

func wantKind(t *testing.T, err error, want Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *service.Error, got %T: %v", err, err)
	}
	if se.Kind != want {
		t.Fatalf("kind = %s, want %s (%v)", se.Kind, want, err)
	}
	return se
}

func ptr[T any](v T) *T { return &v }
