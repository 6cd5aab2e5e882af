// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on the booking.lifecycle queue.
const (
    KindBookingCreated   = "booking.created"
    KindBookingCancelled = "booking.cancelled"
)

// BookingEvent is published when a booking is created or cancelled.
// It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary
// database.  RefundedHours is only set on cancellations.
type BookingEvent struct {
    Kind          string `json:"kind"`
    BookingID     uint64 `json:"booking_id"`
    UserID        uint64 `json:"user_id"`
    UserEmail     string `json:"user_email"`
    SimulatorID   uint64 `json:"simulator_id"`
    StartsAt      string `json:"starts_at"`
    EndsAt        string `json:"ends_at"`
    CoachID       uint64 `json:"coach_id,omitempty"`
    Hours         uint32 `json:"hours"`
    RefundedHours uint32 `json:"refunded_hours,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
