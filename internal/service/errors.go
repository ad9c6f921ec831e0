// Package service holds the reservation domain rules: the availability
// checker, the reservation lifecycle, and the diner and table managers.
// Every exported operation reports failures as *Error so that the HTTP
// layer can map them without inspecting storage errors.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.
type Kind int

const (
	// KindInternal covers anything unexpected, including unmapped
	// storage errors.  It is the zero value so an unclassified error
	// never leaks as a client error.
	KindInternal Kind = iota
	// KindValidation means the input is malformed; Fields says why.
	KindValidation
	// KindNotFound means the addressed record does not exist.
	KindNotFound
	// KindConflict covers natural key collisions, taken slots and
	// deletes blocked by dependent reservations.
	KindConflict
	// KindUnprocessable means a domain rule rejected otherwise valid
	// input, e.g. a party larger than the table.
	KindUnprocessable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Error is the single error type returned by service operations.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string // field name to reasons; may be nil
	Err     error               // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindInternal when err is not a
// service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Message strings shared by the managers.
const (
	msgValidation        = "The given data was invalid."
	msgInternal          = "Internal server error"
	msgDinerNotFound     = "Diner not found"
	msgTableNotFound     = "Table not found"
	msgReservationNotFnd = "Reservation not found"
	msgSlotTaken         = "The table is already reserved for that date and time"
	msgCapacity          = "Insufficient table capacity for the party size"
	msgDinerHasRes       = "Cannot delete diner: it has associated reservations"
	msgTableHasRes       = "Cannot delete table: it has associated reservations"
	msgEmailTaken        = "The email has already been taken."
	msgTableNumberTaken  = "The table number has already been taken."
)

func validationError(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: msgValidation, Fields: fields}
}

func notFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func fieldConflict(field, msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Fields: map[string][]string{field: {msg}}, Err: err}
}

func unprocessable(msg string) *Error {
	return &Error{Kind: KindUnprocessable, Message: msg}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: msgInternal, Err: err}
}

// fieldErrors accumulates per-field reasons.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, reason string) { f[field] = append(f[field], reason) }

func (f fieldErrors) merge(other map[string][]string) {
	for k, v := range other {
		f[k] = append(f[k], v...)
	}
}

// err returns nil when no field failed.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return validationError(f)
}
