package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/iliyamo/restaurant-reservation/internal/pagination"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

func TestReservationScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.diner(t, "Ana", "ana@example.com")
	t4 := f.table(t, "T4", 4)

	first, err := f.reservations.Create(ctx, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: ana.ID, TableID: t4.ID})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Diner == nil || first.Table == nil {
		t.Fatal("created reservation must carry diner and table")
	}
	if first.Time != "20:00:00" {
		t.Errorf("time = %q, want normalised 20:00:00", first.Time)
	}

	_, err = f.reservations.Create(ctx, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 1, DinerID: ana.ID, TableID: t4.ID})
	wantKind(t, err, KindConflict)

	fresh := f.table(t, "T5", 4)
	_, err = f.reservations.Create(ctx, ReservationInput{Date: "2025-06-01", Time: "21:00", PartySize: 5, DinerID: ana.ID, TableID: fresh.ID})
	wantKind(t, err, KindUnprocessable)

	wantKind(t, f.tables.Delete(ctx, t4.ID), KindConflict)
	if _, err := f.tables.Get(ctx, t4.ID); err != nil {
		t.Fatalf("table must survive a blocked delete: %v", err)
	}

	if err := f.reservations.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete reservation: %v", err)
	}
	if err := f.tables.Delete(ctx, t4.ID); err != nil {
		t.Fatalf("delete table: %v", err)
	}
}

func TestCreateOverCapacityAlwaysUnprocessable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")

	for _, capacity := range []int{1, 2, 4, 8} {
		tb := f.table(t, "C"+string(rune('0'+capacity)), capacity)
		f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "19:00", PartySize: 1, DinerID: d.ID, TableID: tb.ID})

		for _, p := range []int{capacity + 1, capacity + 5} {
			// both a free and an occupied slot
			for _, clock := range []string{"20:00", "19:00"} {
				_, err := f.reservations.Create(ctx, ReservationInput{Date: "2025-06-01", Time: clock, PartySize: p, DinerID: d.ID, TableID: tb.ID})
				wantKind(t, err, KindUnprocessable)
			}
		}
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)

	tests := []struct {
		name  string
		in    ReservationInput
		field string
	}{
		{"missing date", ReservationInput{Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID}, "date"},
		{"malformed date", ReservationInput{Date: "01/06/2025", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID}, "date"},
		{"past date", ReservationInput{Date: "2025-04-30", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID}, "date"},
		{"malformed time", ReservationInput{Date: "2025-06-01", Time: "8pm", PartySize: 2, DinerID: d.ID, TableID: tb.ID}, "time"},
		{"zero party", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 0, DinerID: d.ID, TableID: tb.ID}, "party_size"},
		{"negative party", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: -3, DinerID: d.ID, TableID: tb.ID}, "party_size"},
		{"party beyond column range", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 1 << 40, DinerID: d.ID, TableID: tb.ID}, "party_size"},
		{"unknown diner", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: 999, TableID: tb.ID}, "diner_id"},
		{"unknown table", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: 999}, "table_id"},
		{"missing diner", ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, TableID: tb.ID}, "diner_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.reservations.Create(context.Background(), tc.in)
			se := wantKind(t, err, KindValidation)
			if len(se.Fields[tc.field]) == 0 {
				t.Fatalf("expected field error for %q, got %v", tc.field, se.Fields)
			}
		})
	}
}

func TestCreateTodayIsAllowed(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	f.reserve(t, ReservationInput{Date: "2025-05-01", Time: "08:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})
}

func TestCreateValidationRunsBeforeAvailability(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 2)

	// over capacity but with a bad time: shape errors win
	_, err := f.reservations.Create(context.Background(), ReservationInput{Date: "2025-06-01", Time: "99:99", PartySize: 9, DinerID: d.ID, TableID: tb.ID})
	wantKind(t, err, KindValidation)
}

func TestCreateTimeFormatsShareSlot(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	_, err := f.reservations.Create(context.Background(), ReservationInput{Date: "2025-06-01", Time: "20:00:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})
	wantKind(t, err, KindConflict)
}

func TestCreateRaceCaughtByUniqueKey(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	f.db.skipSlotCheck = true
	_, err := f.reservations.Create(context.Background(), ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})
	wantKind(t, err, KindConflict)
	if n := len(f.db.reservations); n != 1 {
		t.Fatalf("reservations = %d, want 1", n)
	}
}

func TestUpdateSelfExclusion(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	got, err := f.reservations.Update(context.Background(), r.ID, ReservationPatch{
		Date:    ptr("2025-06-01"),
		Time:    ptr("20:00:00"),
		TableID: ptr(tb.ID),
	})
	if err != nil {
		t.Fatalf("update to own slot: %v", err)
	}
	if got.Date != r.Date || got.Time != r.Time || got.TableID != r.TableID {
		t.Fatalf("slot changed: %+v", got)
	}
}

func TestUpdateCollision(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})
	other := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "21:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	_, err := f.reservations.Update(context.Background(), other.ID, ReservationPatch{Time: ptr("20:00")})
	wantKind(t, err, KindConflict)

	stored, _ := f.reservations.Get(context.Background(), other.ID)
	if stored.Time != "21:00:00" {
		t.Fatalf("rejected update must not persist, time = %s", stored.Time)
	}
}

func TestUpdateRechecksCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	big := f.table(t, "BIG", 6)
	small := f.table(t, "SMALL", 2)
	r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 4, DinerID: d.ID, TableID: big.ID})

	_, err := f.reservations.Update(ctx, r.ID, ReservationPatch{PartySize: ptr(7)})
	wantKind(t, err, KindUnprocessable)

	_, err = f.reservations.Update(ctx, r.ID, ReservationPatch{TableID: ptr(small.ID)})
	wantKind(t, err, KindUnprocessable)

	got, err := f.reservations.Update(ctx, r.ID, ReservationPatch{TableID: ptr(small.ID), PartySize: ptr(2)})
	if err != nil {
		t.Fatalf("move to small table with smaller party: %v", err)
	}
	if got.Table == nil || got.Table.TableNumber != "SMALL" {
		t.Fatalf("table not attached after update: %+v", got.Table)
	}
}

func TestUpdateKeepsUnsuppliedFields(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	got, err := f.reservations.Update(context.Background(), r.ID, ReservationPatch{PartySize: ptr(3)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.PartySize != 3 || got.Date != "2025-06-01" || got.Time != "20:00:00" || got.DinerID != d.ID || got.TableID != tb.ID {
		t.Fatalf("unexpected merge result: %+v", got)
	}
}

func TestUpdateUnknownDiner(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	_, err := f.reservations.Update(context.Background(), r.ID, ReservationPatch{DinerID: ptr(uint64(999))})
	se := wantKind(t, err, KindValidation)
	if len(se.Fields["diner_id"]) == 0 {
		t.Fatalf("fields = %v", se.Fields)
	}
}

func TestUpdatePastDatePolicy(t *testing.T) {
	for _, enforce := range []bool{true, false} {
		f := newFixture(t, WithFutureOnUpdate(enforce))
		d := f.diner(t, "Ana", "ana@example.com")
		tb := f.table(t, "T1", 4)
		r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

		_, err := f.reservations.Update(context.Background(), r.ID, ReservationPatch{Date: ptr("2025-01-15")})
		if enforce {
			wantKind(t, err, KindValidation)
		} else if err != nil {
			t.Fatalf("lenient policy rejected past date: %v", err)
		}
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.reservations.Update(context.Background(), 42, ReservationPatch{PartySize: ptr(2)})
	wantKind(t, err, KindNotFound)
	wantKind(t, f.reservations.Delete(context.Background(), 42), KindNotFound)
	_, err = f.reservations.Get(context.Background(), 42)
	wantKind(t, err, KindNotFound)
}

func TestReservationEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	r := f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})
	if _, err := f.reservations.Update(ctx, r.ID, ReservationPatch{PartySize: ptr(3)}); err != nil {
		t.Fatal(err)
	}
	// rejected writes publish nothing
	_, _ = f.reservations.Update(ctx, r.ID, ReservationPatch{PartySize: ptr(30)})
	if err := f.reservations.Delete(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{queue.ReservationCreated, queue.ReservationUpdated, queue.ReservationDeleted}
	if got := f.events.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if ev := f.events.events[0]; ev.DinerName != "Ana" || ev.TableNumber != "T1" {
		t.Fatalf("event missing names: %+v", ev)
	}
}

func TestAvailabilityQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	f.reserve(t, ReservationInput{Date: "2025-06-01", Time: "20:00", PartySize: 2, DinerID: d.ID, TableID: tb.ID})

	out, err := f.reservations.Availability(ctx, AvailabilityQuery{TableID: tb.ID, Date: "2025-06-01", Time: "20:00:00", PartySize: 2})
	if err != nil || out != SlotTaken {
		t.Fatalf("got %s, %v; want slot_taken", out, err)
	}
	out, err = f.reservations.Availability(ctx, AvailabilityQuery{TableID: tb.ID, Date: "2025-06-01", Time: "22:00", PartySize: 2})
	if err != nil || out != Available {
		t.Fatalf("got %s, %v; want available", out, err)
	}
	_, err = f.reservations.Availability(ctx, AvailabilityQuery{TableID: 404, Date: "2025-06-01", Time: "22:00", PartySize: 2})
	wantKind(t, err, KindNotFound)
	_, err = f.reservations.Availability(ctx, AvailabilityQuery{TableID: tb.ID, Date: "tomorrow", Time: "22:00", PartySize: 2})
	wantKind(t, err, KindValidation)
}

func TestListReservationsPages(t *testing.T) {
	f := newFixture(t)
	d := f.diner(t, "Ana", "ana@example.com")
	tb := f.table(t, "T1", 4)
	for _, clock := range []string{"18:00", "19:00", "20:00", "21:00", "22:00"} {
		f.reserve(t, ReservationInput{Date: "2025-06-01", Time: clock, PartySize: 2, DinerID: d.ID, TableID: tb.ID})
	}

	var seen int
	for page := 1; page <= 3; page++ {
		q := repository.ReservationListQuery{ListQuery: repository.ListQuery{Page: pagination.Params{Page: page, PerPage: 2}}}
		p, err := f.reservations.List(context.Background(), q)
		if err != nil {
			t.Fatal(err)
		}
		if p.Total != 5 {
			t.Fatalf("total = %d", p.Total)
		}
		seen += len(p.Items)
	}
	if seen != 5 {
		t.Fatalf("saw %d reservations across pages, want 5", seen)
	}
}
