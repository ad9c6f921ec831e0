package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// TableRepo provides CRUD and search over the dining_tables table.
type TableRepo struct {
	db *sqlx.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sqlx.DB) *TableRepo {
	return &TableRepo{db: db}
}

type tableRow struct {
	ID          uint64         `db:"id"`
	TableNumber string         `db:"table_number"`
	Capacity    int            `db:"capacity"`
	Location    sql.NullString `db:"location"`
}

func (r tableRow) toModel() model.Table {
	return model.Table{
		ID:          r.ID,
		TableNumber: r.TableNumber,
		Capacity:    r.Capacity,
		Location:    nullableString(r.Location),
	}
}

var tableSortColumns = map[string]string{
	"id":           "id",
	"table_number": "table_number",
	"capacity":     "capacity",
	"location":     "location",
}

// Create inserts a table and sets its generated ID.  A duplicate table
// number yields ErrTableNumberTaken.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO dining_tables (table_number, capacity, location) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.TableNumber, t.Capacity, t.Location)
	if err != nil {
		return mapWriteError(err, ErrTableNumberTaken)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a table.  It returns ErrTableNotFound when no row
// matches.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT id, table_number, capacity, location FROM dining_tables WHERE id = ?`
	var row tableRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	t := row.toModel()
	return &t, nil
}

// NumberTaken reports whether another table already carries number,
// ignoring the table identified by excludeID.
func (r *TableRepo) NumberTaken(ctx context.Context, number string, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM dining_tables WHERE table_number = ? AND id <> ?)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, number, excludeID); err != nil {
		return false, err
	}
	return taken, nil
}

// Update overwrites every mutable column of the table.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE dining_tables SET table_number = ?, capacity = ?, location = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.TableNumber, t.Capacity, t.Location, t.ID)
	if err != nil {
		return mapWriteError(err, ErrTableNumberTaken)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// HasReservations reports whether any reservation references the table.
func (r *TableRepo) HasReservations(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE table_id = ?)`
	var has bool
	if err := r.db.GetContext(ctx, &has, q, id); err != nil {
		return false, err
	}
	return has, nil
}

// Delete removes a table.  A RESTRICT violation from reservations.table_id
// surfaces as ErrHasReservations.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, nil)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

func tableFilter(q ListQuery) (string, []any) {
	term := strings.TrimSpace(q.Search)
	if term == "" {
		return whereClause(nil), nil
	}
	p := likePattern(term)
	return "(LOWER(table_number) LIKE ? OR LOWER(COALESCE(location, '')) LIKE ?)", []any{p, p}
}

// List returns one page of tables whose number or location contains the
// search term.
func (r *TableRepo) List(ctx context.Context, q ListQuery) ([]model.Table, int64, error) {
	cond, args := tableFilter(q)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM dining_tables WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT id, table_number, capacity, location FROM dining_tables
		WHERE ` + cond + `
		ORDER BY ` + orderBy(tableSortColumns, q, "id ASC") + `
		LIMIT ? OFFSET ?`
	var rows []tableRow
	if err := r.db.SelectContext(ctx, &rows, dataSQL, append(args, q.Page.PerPage, q.Page.Offset())...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Table, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, total, nil
}
