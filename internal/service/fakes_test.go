package service

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// memDB emulates the MySQL schema, including the email, table number
// and slot unique keys and the RESTRICT foreign keys.
type memDB struct {
	mu           sync.Mutex
	nextID       uint64
	diners       map[uint64]model.Diner
	tables       map[uint64]model.Table
	reservations map[uint64]model.Reservation

	// skipSlotCheck makes SlotTaken always answer false, simulating a
	// competing request that commits between check and insert.
	skipSlotCheck bool
	// hideReservations makes HasReservations always answer false,
	// simulating a reservation created after the delete pre-check.
	hideReservations bool
}

func newMemDB() *memDB {
	return &memDB{
		diners:       map[uint64]model.Diner{},
		tables:       map[uint64]model.Table{},
		reservations: map[uint64]model.Reservation{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

type memDiners struct{ db *memDB }
type memTables struct{ db *memDB }
type memReservations struct{ db *memDB }

func (m memDiners) Create(_ context.Context, d *model.Diner) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.diners {
		if o.Email == d.Email {
			return repository.ErrEmailTaken
		}
	}
	d.ID = m.db.id()
	m.db.diners[d.ID] = *d
	return nil
}

func (m memDiners) GetByID(_ context.Context, id uint64) (*model.Diner, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	d, ok := m.db.diners[id]
	if !ok {
		return nil, repository.ErrDinerNotFound
	}
	return &d, nil
}

func (m memDiners) EmailTaken(_ context.Context, email string, excludeID uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.diners {
		if o.Email == email && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memDiners) Update(_ context.Context, d *model.Diner) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.diners[d.ID]; !ok {
		return repository.ErrDinerNotFound
	}
	for _, o := range m.db.diners {
		if o.Email == d.Email && o.ID != d.ID {
			return repository.ErrEmailTaken
		}
	}
	m.db.diners[d.ID] = *d
	return nil
}

func (m memDiners) HasReservations(_ context.Context, id uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.hideReservations {
		return false, nil
	}
	for _, r := range m.db.reservations {
		if r.DinerID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m memDiners) Delete(_ context.Context, id uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.diners[id]; !ok {
		return repository.ErrDinerNotFound
	}
	for _, r := range m.db.reservations {
		if r.DinerID == id {
			return repository.ErrHasReservations
		}
	}
	delete(m.db.diners, id)
	return nil
}

func (m memDiners) List(_ context.Context, q repository.ListQuery) ([]model.Diner, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var all []model.Diner
	for _, d := range m.db.diners {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, q.Page.Offset(), q.Page.PerPage), int64(len(all)), nil
}

func (m memTables) Create(_ context.Context, t *model.Table) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.tables {
		if o.TableNumber == t.TableNumber {
			return repository.ErrTableNumberTaken
		}
	}
	t.ID = m.db.id()
	m.db.tables[t.ID] = *t
	return nil
}

func (m memTables) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tables[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	return &t, nil
}

func (m memTables) NumberTaken(_ context.Context, number string, excludeID uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.tables {
		if o.TableNumber == number && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memTables) Update(_ context.Context, t *model.Table) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.tables[t.ID]; !ok {
		return repository.ErrTableNotFound
	}
	for _, o := range m.db.tables {
		if o.TableNumber == t.TableNumber && o.ID != t.ID {
			return repository.ErrTableNumberTaken
		}
	}
	m.db.tables[t.ID] = *t
	return nil
}

func (m memTables) HasReservations(_ context.Context, id uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.hideReservations {
		return false, nil
	}
	for _, r := range m.db.reservations {
		if r.TableID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m memTables) Delete(_ context.Context, id uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.tables[id]; !ok {
		return repository.ErrTableNotFound
	}
	for _, r := range m.db.reservations {
		if r.TableID == id {
			return repository.ErrHasReservations
		}
	}
	delete(m.db.tables, id)
	return nil
}

func (m memTables) List(_ context.Context, q repository.ListQuery) ([]model.Table, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var all []model.Table
	for _, t := range m.db.tables {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, q.Page.Offset(), q.Page.PerPage), int64(len(all)), nil
}

// insertable enforces the slot key and both foreign keys.  Callers hold
// the lock.
func (m memReservations) insertable(r *model.Reservation) error {
	if _, ok := m.db.diners[r.DinerID]; !ok {
		return repository.ErrInvalidReference
	}
	if _, ok := m.db.tables[r.TableID]; !ok {
		return repository.ErrInvalidReference
	}
	for _, o := range m.db.reservations {
		if o.ID != r.ID && o.Slot() == r.Slot() {
			return repository.ErrSlotTaken
		}
	}
	return nil
}

func (m memReservations) Create(_ context.Context, r *model.Reservation) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.insertable(r); err != nil {
		return err
	}
	r.ID = m.db.id()
	stored := *r
	stored.Diner, stored.Table = nil, nil
	m.db.reservations[r.ID] = stored
	return nil
}

func (m memReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	m.attach(&r)
	return &r, nil
}

func (m memReservations) attach(r *model.Reservation) {
	d := m.db.diners[r.DinerID]
	t := m.db.tables[r.TableID]
	r.Diner, r.Table = &d, &t
}

func (m memReservations) SlotTaken(_ context.Context, slot model.Slot, excludeID uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.skipSlotCheck {
		return false, nil
	}
	for _, o := range m.db.reservations {
		if o.ID != excludeID && o.Slot() == slot {
			return true, nil
		}
	}
	return false, nil
}

func (m memReservations) Update(_ context.Context, r *model.Reservation) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.reservations[r.ID]; !ok {
		return repository.ErrReservationNotFound
	}
	if err := m.insertable(r); err != nil {
		return err
	}
	stored := *r
	stored.Diner, stored.Table = nil, nil
	m.db.reservations[r.ID] = stored
	return nil
}

func (m memReservations) Delete(_ context.Context, id uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.reservations[id]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(m.db.reservations, id)
	return nil
}

func (m memReservations) List(_ context.Context, q repository.ReservationListQuery) ([]model.Reservation, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var all []model.Reservation
	for _, r := range m.db.reservations {
		if q.Date != "" && r.Date != q.Date {
			continue
		}
		if q.TableID != 0 && r.TableID != q.TableID {
			continue
		}
		m.attach(&r)
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, q.Page.Offset(), q.Page.PerPage), int64(len(all)), nil
}

func window[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
