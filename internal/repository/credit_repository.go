package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/apexsim/simstudio/internal/model"
)

// CreditRepo is the credit ledger: it owns the `user_credits`
// balances and the `credit_audit` trail.  Debits and refunds run
// inside the caller's transaction so that a balance never moves
// without its matching booking mutation committing alongside it.
// Every mutation writes an audit row with before/after values.
type CreditRepo struct {
    db *sql.DB
}

// NewCreditRepo returns a new CreditRepo bound to the given database.
func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *CreditRepo) DB() *sql.DB { return r.db }

// Get returns the credit balance for a user.  When the user has no
// balance row, sql.ErrNoRows is returned.
func (r *CreditRepo) Get(ctx context.Context, userID uint64) (model.CreditBalance, error) {
    const q = `SELECT user_id, simulator_hours, coaching_sessions, updated_at
               FROM user_credits WHERE user_id = ?`
    var b model.CreditBalance
    err := r.db.QueryRowContext(ctx, q, userID).Scan(
        &b.UserID, &b.SimulatorHours, &b.CoachingSessions, &b.UpdatedAt,
    )
    return b, err
}

// GetTx is Get within an existing transaction, locking the row for
// update so the audit before-value cannot race a concurrent writer.
func (r *CreditRepo) GetTx(ctx context.Context, tx *sql.Tx, userID uint64) (model.CreditBalance, error) {
    const q = `SELECT user_id, simulator_hours, coaching_sessions, updated_at
               FROM user_credits WHERE user_id = ? FOR UPDATE`
    var b model.CreditBalance
    err := tx.QueryRowContext(ctx, q, userID).Scan(
        &b.UserID, &b.SimulatorHours, &b.CoachingSessions, &b.UpdatedAt,
    )
    return b, err
}

// CreateTx inserts a zeroed balance row for a new user within the
// signup transaction.
func (r *CreditRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
    const q = `INSERT INTO user_credits (user_id, simulator_hours, coaching_sessions) VALUES (?, 0, 0)`
    _, err := tx.ExecContext(ctx, q, userID)
    return err
}

// DebitTx atomically subtracts hours from the user's simulator-hour
// balance.  The UPDATE is guarded by `simulator_hours >= ?`; when no
// row matches, either the user has no balance row or the balance is
// too small, and ErrInsufficientCredit is returned with the balance
// untouched.  An audit row records the movement against the booking.
func (r *CreditRepo) DebitTx(ctx context.Context, tx *sql.Tx, userID uint64, hours uint32, bookingID uint64) error {
    before, err := r.GetTx(ctx, tx, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return ErrInsufficientCredit
        }
        return err
    }
    const q = `UPDATE user_credits SET simulator_hours = simulator_hours - ?
               WHERE user_id = ? AND simulator_hours >= ?`
    res, err := tx.ExecContext(ctx, q, hours, userID, hours)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInsufficientCredit
    }
    return r.auditTx(ctx, tx, model.CreditAudit{
        UserID:      userID,
        Action:      model.AuditDebit,
        HoursBefore: before.SimulatorHours,
        HoursAfter:  before.SimulatorHours - hours,
        BookingID:   &bookingID,
    })
}

// RefundTx atomically adds hours back to the user's balance as the
// refund for a cancelled booking.  The caller deletes the booking in
// the same transaction, which is what makes the refund idempotent: a
// second cancel cannot find the booking row any more.
func (r *CreditRepo) RefundTx(ctx context.Context, tx *sql.Tx, userID uint64, hours uint32, bookingID uint64) error {
    before, err := r.GetTx(ctx, tx, userID)
    if err != nil {
        return err
    }
    const q = `UPDATE user_credits SET simulator_hours = simulator_hours + ? WHERE user_id = ?`
    if _, err := tx.ExecContext(ctx, q, hours, userID); err != nil {
        return err
    }
    return r.auditTx(ctx, tx, model.CreditAudit{
        UserID:      userID,
        Action:      model.AuditRefund,
        HoursBefore: before.SimulatorHours,
        HoursAfter:  before.SimulatorHours + hours,
        BookingID:   &bookingID,
    })
}

// PurchaseTx credits the hours granted by a purchased package and
// records the external payment reference on the audit row.
func (r *CreditRepo) PurchaseTx(ctx context.Context, tx *sql.Tx, userID uint64, hours uint32, paymentRef string) error {
    before, err := r.GetTx(ctx, tx, userID)
    if err != nil {
        return err
    }
    const q = `UPDATE user_credits SET simulator_hours = simulator_hours + ? WHERE user_id = ?`
    if _, err := tx.ExecContext(ctx, q, hours, userID); err != nil {
        return err
    }
    return r.auditTx(ctx, tx, model.CreditAudit{
        UserID:      userID,
        Action:      model.AuditPurchase,
        HoursBefore: before.SimulatorHours,
        HoursAfter:  before.SimulatorHours + hours,
        PaymentRef:  &paymentRef,
    })
}

// SetAbsolute overwrites the user's balances with the given values.
// This is the admin override: it SETS the totals, it does not add to
// them.  The asymmetry with every other mutation is deliberate and
// documented in the admin UI; do not change it to be additive.
// Passing nil for either value leaves that counter untouched.
func (r *CreditRepo) SetAbsolute(ctx context.Context, userID uint64, simulatorHours, coachingSessions *uint32) (model.CreditBalance, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.CreditBalance{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    before, err := r.GetTx(ctx, tx, userID)
    if err != nil {
        return model.CreditBalance{}, err
    }
    after := before
    if simulatorHours != nil {
        after.SimulatorHours = *simulatorHours
    }
    if coachingSessions != nil {
        after.CoachingSessions = *coachingSessions
    }
    const q = `UPDATE user_credits SET simulator_hours = ?, coaching_sessions = ? WHERE user_id = ?`
    if _, err := tx.ExecContext(ctx, q, after.SimulatorHours, after.CoachingSessions, userID); err != nil {
        return model.CreditBalance{}, err
    }
    if err := r.auditTx(ctx, tx, model.CreditAudit{
        UserID:      userID,
        Action:      model.AuditSet,
        HoursBefore: before.SimulatorHours,
        HoursAfter:  after.SimulatorHours,
    }); err != nil {
        return model.CreditBalance{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.CreditBalance{}, err
    }
    committed = true
    after.UpdatedAt = time.Now().UTC()
    return after, nil
}

// ListAudit returns the most recent audit rows for a user, newest
// first, capped at limit.
func (r *CreditRepo) ListAudit(ctx context.Context, userID uint64, limit int) ([]model.CreditAudit, error) {
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    const q = `SELECT id, user_id, action, hours_before, hours_after, booking_id, payment_ref, created_at
               FROM credit_audit WHERE user_id = ? ORDER BY id DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, userID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.CreditAudit, 0)
    for rows.Next() {
        var a model.CreditAudit
        var bookingID sql.NullInt64
        var payRef sql.NullString
        if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.HoursBefore, &a.HoursAfter, &bookingID, &payRef, &a.CreatedAt); err != nil {
            return nil, err
        }
        if bookingID.Valid {
            bid := uint64(bookingID.Int64)
            a.BookingID = &bid
        }
        if payRef.Valid {
            ref := payRef.String
            a.PaymentRef = &ref
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// auditTx appends one row to the audit trail inside the mutation's
// transaction so the trail can never disagree with the balance.
func (r *CreditRepo) auditTx(ctx context.Context, tx *sql.Tx, a model.CreditAudit) error {
    const q = `INSERT INTO credit_audit (user_id, action, hours_before, hours_after, booking_id, payment_ref)
               VALUES (?, ?, ?, ?, ?, ?)`
    var bookingID interface{}
    if a.BookingID != nil {
        bookingID = *a.BookingID
    }
    var payRef interface{}
    if a.PaymentRef != nil {
        payRef = *a.PaymentRef
    }
    _, err := tx.ExecContext(ctx, q, a.UserID, a.Action, a.HoursBefore, a.HoursAfter, bookingID, payRef)
    return err
}
