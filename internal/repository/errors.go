// Package repository implements persistence for diners, tables and
// reservations on top of MySQL.  Repositories return the sentinel values
// below so that the service layer can tell failure scenarios apart
// without inspecting driver errors.  Low level MySQL errors that carry a
// domain meaning (duplicate natural key, row still referenced, missing
// parent) are translated here and nowhere else.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrDinerNotFound is returned when a diner lookup fails.
	ErrDinerNotFound = errors.New("diner not found")
	// ErrTableNotFound is returned when a table lookup fails.
	ErrTableNotFound = errors.New("table not found")
	// ErrReservationNotFound is returned when a reservation lookup fails.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrEmailTaken signals a collision on diners.email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTableNumberTaken signals a collision on dining_tables.table_number.
	ErrTableNumberTaken = errors.New("table number already registered")
	// ErrSlotTaken signals a collision on the (table_id, date, time) unique key.
	ErrSlotTaken = errors.New("slot already reserved")

	// ErrHasReservations is returned when a diner or table cannot be
	// deleted because reservations still reference it.
	ErrHasReservations = errors.New("has associated reservations")
	// ErrInvalidReference is returned when an insert or update points at
	// a diner or table that no longer exists.
	ErrInvalidReference = errors.New("referenced diner or table does not exist")
)

// MySQL server error numbers that carry a domain meaning.
const (
	mysqlDuplicateEntry   = 1062 // ER_DUP_ENTRY
	mysqlRowIsReferenced  = 1217 // ER_ROW_IS_REFERENCED
	mysqlRowIsReferenced2 = 1451 // ER_ROW_IS_REFERENCED_2
	mysqlNoReferencedRow  = 1216 // ER_NO_REFERENCED_ROW
	mysqlNoReferencedRow2 = 1452 // ER_NO_REFERENCED_ROW_2
)

func mysqlNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateEntry(err error) bool {
	return mysqlNumber(err) == mysqlDuplicateEntry
}

func isRowReferenced(err error) bool {
	n := mysqlNumber(err)
	return n == mysqlRowIsReferenced || n == mysqlRowIsReferenced2
}

func isMissingParent(err error) bool {
	n := mysqlNumber(err)
	return n == mysqlNoReferencedRow || n == mysqlNoReferencedRow2
}

// mapWriteError translates driver errors raised by INSERT/UPDATE/DELETE
// statements.  dup is the sentinel for the table's natural key; it may
// be nil when the table has none.
func mapWriteError(err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case dup != nil && isDuplicateEntry(err):
		return dup
	case isRowReferenced(err):
		return ErrHasReservations
	case isMissingParent(err):
		return ErrInvalidReference
	}
	return err
}
