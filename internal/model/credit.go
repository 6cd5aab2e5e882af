package model

import "time"

// CreditBalance mirrors the `user_credits` table: the per-user
// counters of prepaid simulator hours and coaching sessions.  Both
// counters are non-negative; the debit path enforces this with a
// guarded UPDATE rather than reading then writing.
//
// Fields:
//  UserID           – owner of the balance (also the primary key).
//  SimulatorHours   – remaining prepaid simulator hours.
//  CoachingSessions – remaining prepaid coaching sessions.
//  UpdatedAt        – timestamp of last mutation.
type CreditBalance struct {
    UserID           uint64    // user_credits.user_id
    SimulatorHours   uint32    // user_credits.simulator_hours
    CoachingSessions uint32    // user_credits.coaching_sessions
    UpdatedAt        time.Time // user_credits.updated_at
}

// Audit actions recorded for every balance mutation.  AuditSet is the
// admin absolute overwrite: it replaces the balance rather than
// adding to it, and that is the documented behaviour, not a bug.
const (
    AuditDebit    = "debit"
    AuditRefund   = "refund"
    AuditPurchase = "purchase"
    AuditSet      = "set"
)

// CreditAudit is one row of the balance audit trail.  Every ledger
// mutation writes one, capturing the before and after values so an
// operator can reconstruct how a balance got where it is.  Refund
// and debit rows carry the booking they were triggered by.
type CreditAudit struct {
    ID          uint64    // credit_audit.id
    UserID      uint64    // credit_audit.user_id
    Action      string    // credit_audit.action
    HoursBefore uint32    // credit_audit.hours_before
    HoursAfter  uint32    // credit_audit.hours_after
    BookingID   *uint64   // credit_audit.booking_id (nullable)
    PaymentRef  *string   // credit_audit.payment_ref (nullable)
    CreatedAt   time.Time // credit_audit.created_at
}
