package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// DinerRepo provides CRUD and search over the diners table.
type DinerRepo struct {
	db *sqlx.DB
}

// NewDinerRepo constructs a DinerRepo with the given DB handle.
func NewDinerRepo(db *sqlx.DB) *DinerRepo {
	return &DinerRepo{db: db}
}

// dinerRow mirrors the diners table.
type dinerRow struct {
	ID      uint64         `db:"id"`
	Name    string         `db:"name"`
	Email   string         `db:"email"`
	Phone   sql.NullString `db:"phone"`
	Address sql.NullString `db:"address"`
}

func (r dinerRow) toModel() model.Diner {
	return model.Diner{
		ID:      r.ID,
		Name:    r.Name,
		Email:   r.Email,
		Phone:   nullableString(r.Phone),
		Address: nullableString(r.Address),
	}
}

var dinerSortColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"email": "email",
}

// Create inserts a diner and sets its generated ID.  A duplicate email
// yields ErrEmailTaken.
func (r *DinerRepo) Create(ctx context.Context, d *model.Diner) error {
	const q = `INSERT INTO diners (name, email, phone, address) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, d.Name, d.Email, d.Phone, d.Address)
	if err != nil {
		return mapWriteError(err, ErrEmailTaken)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetByID retrieves a diner.  It returns ErrDinerNotFound when no row
// matches.
func (r *DinerRepo) GetByID(ctx context.Context, id uint64) (*model.Diner, error) {
	const q = `SELECT id, name, email, phone, address FROM diners WHERE id = ?`
	var row dinerRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDinerNotFound
		}
		return nil, err
	}
	d := row.toModel()
	return &d, nil
}

// EmailTaken reports whether another diner already uses email.  The
// diner identified by excludeID is ignored so that an update can keep
// its own address; pass 0 on create.
func (r *DinerRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM diners WHERE email = ? AND id <> ?)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, email, excludeID); err != nil {
		return false, err
	}
	return taken, nil
}

// Update overwrites every mutable column of the diner.
func (r *DinerRepo) Update(ctx context.Context, d *model.Diner) error {
	const q = `UPDATE diners SET name = ?, email = ?, phone = ?, address = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, d.Name, d.Email, d.Phone, d.Address, d.ID)
	if err != nil {
		return mapWriteError(err, ErrEmailTaken)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDinerNotFound
	}
	return nil
}

// HasReservations reports whether any reservation references the diner.
func (r *DinerRepo) HasReservations(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE diner_id = ?)`
	var has bool
	if err := r.db.GetContext(ctx, &has, q, id); err != nil {
		return false, err
	}
	return has, nil
}

// Delete removes a diner.  The foreign key on reservations.diner_id is
// RESTRICT, so a reservation created after the caller's pre-check still
// blocks the delete; that rejection surfaces as ErrHasReservations.
func (r *DinerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diners WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, nil)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDinerNotFound
	}
	return nil
}

// dinerFilter matches the search term against name, email and phone.
func dinerFilter(q ListQuery) (string, []any) {
	term := strings.TrimSpace(q.Search)
	if term == "" {
		return whereClause(nil), nil
	}
	p := likePattern(term)
	return "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(COALESCE(phone, '')) LIKE ?)", []any{p, p, p}
}

// List returns one page of diners whose name, email or phone contains
// the search term, together with the total number of matches.
func (r *DinerRepo) List(ctx context.Context, q ListQuery) ([]model.Diner, int64, error) {
	cond, args := dinerFilter(q)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM diners WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT id, name, email, phone, address FROM diners
		WHERE ` + cond + `
		ORDER BY ` + orderBy(dinerSortColumns, q, "id ASC") + `
		LIMIT ? OFFSET ?`
	var rows []dinerRow
	if err := r.db.SelectContext(ctx, &rows, dataSQL, append(args, q.Page.PerPage, q.Page.Offset())...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Diner, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, total, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
