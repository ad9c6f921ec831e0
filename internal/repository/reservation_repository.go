package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo provides CRUD and search over the reservations table.
// Reads always join the owning diner and table so that callers receive
// fully populated reservations in one round trip.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationRow is the flattened result of reservationSelect.
type reservationRow struct {
	ID        uint64 `db:"id"`
	Date      string `db:"date"`
	Time      string `db:"time"`
	PartySize int    `db:"party_size"`
	DinerID   uint64 `db:"diner_id"`
	TableID   uint64 `db:"table_id"`

	DinerName    string         `db:"diner_name"`
	DinerEmail   string         `db:"diner_email"`
	DinerPhone   sql.NullString `db:"diner_phone"`
	DinerAddress sql.NullString `db:"diner_address"`

	TableNumber   string         `db:"table_number"`
	TableCapacity int            `db:"table_capacity"`
	TableLocation sql.NullString `db:"table_location"`
}

func (r reservationRow) toModel() model.Reservation {
	return model.Reservation{
		ID:        r.ID,
		Date:      r.Date,
		Time:      r.Time,
		PartySize: r.PartySize,
		DinerID:   r.DinerID,
		TableID:   r.TableID,
		Diner: &model.Diner{
			ID:      r.DinerID,
			Name:    r.DinerName,
			Email:   r.DinerEmail,
			Phone:   nullableString(r.DinerPhone),
			Address: nullableString(r.DinerAddress),
		},
		Table: &model.Table{
			ID:          r.TableID,
			TableNumber: r.TableNumber,
			Capacity:    r.TableCapacity,
			Location:    nullableString(r.TableLocation),
		},
	}
}

// DATE and TIME columns are formatted in SQL so the driver hands back
// plain strings regardless of parseTime.
const reservationSelect = `SELECT r.id,
		DATE_FORMAT(r.date, '%Y-%m-%d') AS date,
		TIME_FORMAT(r.time, '%H:%i:%s') AS time,
		r.party_size, r.diner_id, r.table_id,
		d.name AS diner_name, d.email AS diner_email, d.phone AS diner_phone, d.address AS diner_address,
		t.table_number, t.capacity AS table_capacity, t.location AS table_location
	FROM reservations r
	JOIN diners d ON d.id = r.diner_id
	JOIN dining_tables t ON t.id = r.table_id`

var reservationSortColumns = map[string]string{
	"id":         "r.id",
	"date":       "r.date",
	"time":       "r.time",
	"party_size": "r.party_size",
}

// Create inserts a reservation and sets its generated ID.  The unique
// key on (table_id, date, time) makes the insert fail with ErrSlotTaken
// when a concurrent request booked the same slot first; a dangling
// diner or table reference yields ErrInvalidReference.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (date, time, party_size, diner_id, table_id) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.Date, res.Time, res.PartySize, res.DinerID, res.TableID)
	if err != nil {
		return mapWriteError(err, ErrSlotTaken)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID retrieves a reservation with its diner and table.  It returns
// ErrReservationNotFound when no row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var row reservationRow
	if err := r.db.GetContext(ctx, &row, reservationSelect+` WHERE r.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	res := row.toModel()
	return &res, nil
}

// SlotTaken reports whether a reservation other than excludeID occupies
// the slot.  Pass 0 as excludeID when checking for a new reservation.
func (r *ReservationRepo) SlotTaken(ctx context.Context, slot model.Slot, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM reservations
		WHERE table_id = ? AND date = ? AND time = ? AND id <> ?)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, slot.TableID, slot.Date, slot.Time, excludeID); err != nil {
		return false, err
	}
	return taken, nil
}

// Update overwrites every mutable column of the reservation.  Moving
// onto an occupied slot yields ErrSlotTaken.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET date = ?, time = ?, party_size = ?, diner_id = ?, table_id = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, res.Date, res.Time, res.PartySize, res.DinerID, res.TableID, res.ID)
	if err != nil {
		return mapWriteError(err, ErrSlotTaken)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// Delete removes a reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// reservationFilter builds the WHERE condition and its arguments for a
// reservation list.  The search term is matched against the diner's
// name, phone and email and the table number; a purely numeric term
// additionally matches reservations whose party size is at least that
// number.
func reservationFilter(q ReservationListQuery) (string, []any) {
	var where []string
	var args []any
	if q.Date != "" {
		where = append(where, "r.date = ?")
		args = append(args, q.Date)
	}
	if q.DinerID != 0 {
		where = append(where, "r.diner_id = ?")
		args = append(args, q.DinerID)
	}
	if q.TableID != 0 {
		where = append(where, "r.table_id = ?")
		args = append(args, q.TableID)
	}
	if q.PartySize != 0 {
		where = append(where, "r.party_size = ?")
		args = append(args, q.PartySize)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		p := likePattern(term)
		or := []string{
			"LOWER(d.name) LIKE ?",
			"LOWER(COALESCE(d.phone, '')) LIKE ?",
			"LOWER(d.email) LIKE ?",
			"LOWER(t.table_number) LIKE ?",
		}
		args = append(args, p, p, p, p)
		if n, err := strconv.Atoi(term); err == nil {
			or = append(or, "r.party_size >= ?")
			args = append(args, n)
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}
	return whereClause(where), args
}

// List returns one page of reservations matching q.
func (r *ReservationRepo) List(ctx context.Context, q ReservationListQuery) ([]model.Reservation, int64, error) {
	cond, args := reservationFilter(q)

	countSQL := `SELECT COUNT(*) FROM reservations r
		JOIN diners d ON d.id = r.diner_id
		JOIN dining_tables t ON t.id = r.table_id
		WHERE ` + cond
	var total int64
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, err
	}

	dataSQL := reservationSelect + `
		WHERE ` + cond + `
		ORDER BY ` + orderBy(reservationSortColumns, q.ListQuery, "r.id ASC") + `
		LIMIT ? OFFSET ?`
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, dataSQL, append(args, q.Page.PerPage, q.Page.Offset())...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, total, nil
}
