// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrSlotUnavailable indicates that a requested hour on a
// simulator was claimed by another booking, while
// ErrInsufficientCredit signals that a debit would push a balance
// below zero. Handlers translate each sentinel into an HTTP status.
package repository

import "errors"

// ErrValidation is returned when input fails a shape or range check
// before any database work happens, such as a malformed date or an
// hour outside 0-23. Handlers should translate this into an HTTP
// 400 response. Wrap it with fmt.Errorf("%w: ...") to carry detail.
var ErrValidation = errors.New("validation failed")

// ErrSlotUnavailable is returned when a booking cannot claim one of
// its hour slots because another confirmed booking holds it. Under
// concurrent creates for the same window the unique key on
// (simulator_id, slot_start) guarantees exactly one winner; the
// loser observes this error. Handlers should respond with 409.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrInsufficientCredit is returned when a debit exceeds the user's
// remaining simulator hours. The balance is left unchanged.
// Handlers should respond with 400.
var ErrInsufficientCredit = errors.New("insufficient credit")

// ErrPastBooking is returned when a cancellation targets a booking
// whose start time has already passed. Elapsed or in-progress
// sessions are not refundable. Handlers should respond with 400.
var ErrPastBooking = errors.New("booking already started")

// ErrMigrationRequired is returned when an operation needs the role
// columns on the users table and the schema predates them. Callers
// must surface a needs_migration flag so an operator can run the
// one-time migration and retry. Handlers should respond with 409.
var ErrMigrationRequired = errors.New("schema migration required")
