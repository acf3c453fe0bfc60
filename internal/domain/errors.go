package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a domain error so adapters can map it to a
// transport-specific response without inspecting codes.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindInsufficientPayment ErrorKind = "insufficient_payment"
	KindLedger              ErrorKind = "ledger"
)

// Error is the single error type produced by the orchestrator. It carries a
// stable machine-readable code alongside the human message; amount-related
// errors additionally carry the figures the caller needs to correct the
// request.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string

	// Required/Provided are set only for INSUFFICIENT_PAYMENT.
	Required decimal.Decimal
	Provided decimal.Decimal

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of a domain error, or KindLedger for anything the
// orchestrator did not produce itself (a failed ledger call surfaces as-is).
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindLedger
}

// CodeOf returns the machine code of a domain error, or empty string.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func ErrInvalidWallet() *Error {
	return &Error{Kind: KindValidation, Code: "INVALID_WALLET", Message: "invalid wallet address"}
}

func ErrValidation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: fmt.Sprintf(format, args...)}
}

func ErrNotOwner(resource string) *Error {
	return &Error{Kind: KindValidation, Code: "NOT_OWNER", Message: fmt.Sprintf("caller does not own this %s", resource)}
}

func ErrUserNotFound(address string) *Error {
	return &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: fmt.Sprintf("user %s not found", address)}
}

func ErrStationNotFound(stationID int64) *Error {
	return &Error{Kind: KindNotFound, Code: "STATION_NOT_FOUND", Message: fmt.Sprintf("station %d not found", stationID)}
}

func ErrSessionNotFound(sessionID int64) *Error {
	return &Error{Kind: KindNotFound, Code: "SESSION_NOT_FOUND", Message: fmt.Sprintf("session %d not found", sessionID)}
}

func ErrReservationNotFound(reservationID int64) *Error {
	return &Error{Kind: KindNotFound, Code: "RESERVATION_NOT_FOUND", Message: fmt.Sprintf("reservation %d not found", reservationID)}
}

func ErrStationInUse(stationID int64) *Error {
	return &Error{Kind: KindConflict, Code: "STATION_IN_USE", Message: fmt.Sprintf("station %d is not available", stationID)}
}

func ErrStationNotReserved(stationID int64) *Error {
	return &Error{Kind: KindConflict, Code: "STATION_NOT_RESERVED", Message: fmt.Sprintf("station %d is not reserved for this user", stationID)}
}

func ErrStationAlreadyReserved(stationID int64) *Error {
	return &Error{Kind: KindConflict, Code: "STATION_ALREADY_RESERVED", Message: fmt.Sprintf("station %d is already reserved in the requested period", stationID)}
}

func ErrSessionNotActive(sessionID int64) *Error {
	return &Error{Kind: KindConflict, Code: "SESSION_NOT_ACTIVE", Message: fmt.Sprintf("session %d is not active", sessionID)}
}

// ErrSessionNotEnded is raised when a payment is attempted on a session that
// is still running and therefore not yet eligible to be marked paid.
func ErrSessionNotEnded(sessionID int64) *Error {
	return &Error{Kind: KindConflict, Code: "SESSION_NOT_PAID", Message: fmt.Sprintf("session %d must be ended before payment", sessionID)}
}

func ErrSessionAlreadyPaid(sessionID int64) *Error {
	return &Error{Kind: KindValidation, Code: "SESSION_ALREADY_PAID", Message: fmt.Sprintf("session %d is already paid", sessionID)}
}

func ErrReservationExpired(reservationID int64) *Error {
	return &Error{Kind: KindConflict, Code: "RESERVATION_EXPIRED", Message: fmt.Sprintf("reservation %d has already expired", reservationID)}
}

func ErrInsufficientPayment(required, provided decimal.Decimal) *Error {
	return &Error{
		Kind: KindInsufficientPayment,
		Code: "INSUFFICIENT_PAYMENT",
		Message: fmt.Sprintf("insufficient payment: required %s, provided %s",
			required.String(), provided.String()),
		Required: required,
		Provided: provided,
	}
}

// ErrLedger wraps a transport or contract failure from the ledger. The
// orchestrator never retries these: it has no way to know whether a
// partially-applied write succeeded.
func ErrLedger(err error) *Error {
	return &Error{Kind: KindLedger, Code: "LEDGER_ERROR", Message: err.Error(), cause: err}
}
