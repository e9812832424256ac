package raffle

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by every raffle operation.
//
// Errors carry a Code for programmatic handling plus optional context about
// the reservation or numbers involved. Use errors.Is against the Err*
// sentinels, or the Is* helpers, to branch on the category.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ReservationID identifies the affected reservation, if any.
	ReservationID string

	// Numbers lists the ticket numbers involved (unavailable or unknown).
	Numbers []int

	// Err is the underlying cause (persistence failures).
	Err error
}

// ErrorCode categorizes raffle errors.
type ErrorCode string

const (
	// CodeConfig indicates an invalid pool size or other configuration.
	CodeConfig ErrorCode = "CONFIG"

	// CodeNotFound indicates an unknown ticket number or reservation id.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeConflict indicates a duplicate reservation id.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeNumbersUnavailable indicates requested numbers are not free.
	CodeNumbersUnavailable ErrorCode = "NUMBERS_UNAVAILABLE"

	// CodePersistence indicates the snapshot write failed after the
	// in-memory transition was applied.
	CodePersistence ErrorCode = "PERSISTENCE"

	// CodeInvalidRequest indicates a malformed request (no numbers, no holder).
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrConfig             = &Error{Code: CodeConfig}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrConflict           = &Error{Code: CodeConflict}
	ErrNumbersUnavailable = &Error{Code: CodeNumbersUnavailable}
	ErrPersistence        = &Error{Code: CodePersistence}
	ErrInvalidRequest     = &Error{Code: CodeInvalidRequest}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.ReservationID != "" {
		fmt.Fprintf(&b, " (reservation=%s)", e.ReservationID)
	}
	if len(e.Numbers) > 0 {
		fmt.Fprintf(&b, " (numbers=%v)", e.Numbers)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func codeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfigError returns true if err is a configuration error.
func IsConfigError(err error) bool { return codeOf(err) == CodeConfig }

// IsNotFound returns true if err reports an unknown number or reservation.
func IsNotFound(err error) bool { return codeOf(err) == CodeNotFound }

// IsConflict returns true if err reports a duplicate reservation id.
func IsConflict(err error) bool { return codeOf(err) == CodeConflict }

// IsUnavailable returns true if err reports numbers that are not free.
func IsUnavailable(err error) bool { return codeOf(err) == CodeNumbersUnavailable }

// IsPersistence returns true if err reports a failed snapshot write.
// The state change that preceded it has already been applied.
func IsPersistence(err error) bool { return codeOf(err) == CodePersistence }

// IsInvalidRequest returns true if err reports a malformed request.
func IsInvalidRequest(err error) bool { return codeOf(err) == CodeInvalidRequest }

// NewConfigError creates an Error for invalid configuration.
func NewConfigError(format string, args ...any) *Error {
	return &Error{Code: CodeConfig, Message: fmt.Sprintf(format, args...)}
}

func newTicketNotFound(numbers ...int) *Error {
	return &Error{Code: CodeNotFound, Message: "ticket number out of range", Numbers: numbers}
}

func newReservationNotFound(id string) *Error {
	return &Error{Code: CodeNotFound, Message: "reservation not found", ReservationID: id}
}

func newUnavailable(numbers []int) *Error {
	return &Error{Code: CodeNumbersUnavailable, Message: "numbers are not free", Numbers: numbers}
}

func newPersistenceError(reservationID string, err error) *Error {
	return &Error{
		Code:          CodePersistence,
		Message:       "state applied but snapshot was not saved",
		ReservationID: reservationID,
		Err:           err,
	}
}

func newInvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}
