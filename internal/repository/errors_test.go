package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestMapWriteError(t *testing.T) {
	plain := errors.New("connection reset")
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	tests := []struct {
		name string
		err  error
		dup  error
		want error
	}{
		{name: "nil", err: nil, dup: ErrEmailTaken, want: nil},
		{name: "duplicate email", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'diners.uk_diners_email'"}, dup: ErrEmailTaken, want: ErrEmailTaken},
		{name: "duplicate slot", err: &mysql.MySQLError{Number: 1062}, dup: ErrSlotTaken, want: ErrSlotTaken},
		{name: "wrapped duplicate", err: fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), dup: ErrTableNumberTaken, want: ErrTableNumberTaken},
		{name: "fk restrict on delete", err: &mysql.MySQLError{Number: 1451}, want: ErrHasReservations},
		{name: "legacy fk restrict", err: &mysql.MySQLError{Number: 1217}, want: ErrHasReservations},
		{name: "missing parent", err: &mysql.MySQLError{Number: 1452}, want: ErrInvalidReference},
		{name: "unmapped driver error", err: deadlock, want: deadlock},
		{name: "non driver error", err: plain, want: plain},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapWriteError(tc.err, tc.dup)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDuplicateWithoutNaturalKeyPassesThrough(t *testing.T) {
	err := &mysql.MySQLError{Number: 1062}
	if got := mapWriteError(err, nil); !errors.Is(got, err) {
		t.Fatalf("expected raw error, got %v", got)
	}
}
