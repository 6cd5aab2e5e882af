package model

import "time"

// Booking statuses.  Only StatusConfirmed is ever written to the
// database.  StatusCompleted is a projection computed in the read
// path once the start time has passed; persisting it would let the
// stored value drift from the clock.  Cancellation deletes the row,
// so there is no stored CANCELLED state either.
const (
    StatusConfirmed = "CONFIRMED"
    StatusCompleted = "COMPLETED"
)

// Booking records a user's reservation of a simulator for a
// contiguous range of hour slots, optionally with a coach.  The
// debit of the user's credit balance happens in the same
// transaction as the insert, so a booking row always has a matching
// ledger entry.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who made the booking.
//  SimulatorID – simulator rig being booked.
//  StartTime   – first occupied hour (UTC, hour-aligned).
//  EndTime     – end of the last occupied hour (UTC, hour-aligned).
//  CoachID     – coach attached to the session, if any.
//  Status      – stored state (always CONFIRMED).
//  PaymentRef  – external payment reference, if any.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
    ID          uint64     // bookings.id
    UserID      uint64     // bookings.user_id
    SimulatorID uint64     // bookings.simulator_id
    StartTime   time.Time  // bookings.start_time
    EndTime     time.Time  // bookings.end_time
    CoachID     *uint64    // bookings.coach_id (nullable)
    Status      string     // bookings.status
    PaymentRef  *string    // bookings.payment_ref (nullable)
    CreatedAt   time.Time  // bookings.created_at
    UpdatedAt   time.Time  // bookings.updated_at
}

// BookingSlot maps a booking to one occupied hour on a simulator.
// The (simulator_id, slot_start) pair carries a unique key, which is
// what prevents two concurrent bookings from claiming the same hour:
// the second insert fails with a duplicate-key error and the losing
// transaction rolls back.
type BookingSlot struct {
    ID          uint64    // booking_slots.id
    BookingID   uint64    // booking_slots.booking_id
    SimulatorID uint64    // booking_slots.simulator_id
    SlotStart   time.Time // booking_slots.slot_start
}

// DisplayStatus projects the status shown to clients from the stored
// state and the current time.  A confirmed booking whose start time
// has passed reads as COMPLETED.
func (b Booking) DisplayStatus(now time.Time) string {
    if b.Status == StatusConfirmed && !b.StartTime.After(now) {
        return StatusCompleted
    }
    return b.Status
}
