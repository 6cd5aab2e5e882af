package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/apexsim/simstudio/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their hour
// slots.  A booking groups together one or more contiguous hour
// slots on a simulator for a user.  Occupied hours are stored in the
// booking_slots table, whose unique key on (simulator_id,
// slot_start) is the single source of truth for conflicts.  All
// timestamp fields are assumed to be stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning bookings and the credit ledger.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new booking and its slot rows within the scope
// of an existing transaction.  It populates the generated ID on the
// provided booking.  When another booking already holds one of the
// hours, the unique key on booking_slots rejects the insert and
// ErrSlotUnavailable is returned; the caller must roll back.  The
// caller must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, simulator_id, start_time, end_time, coach_id, status, payment_ref)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    var coachID interface{}
    if b.CoachID != nil {
        coachID = *b.CoachID
    }
    var payRef interface{}
    if b.PaymentRef != nil {
        payRef = *b.PaymentRef
    }
    result, err := tx.ExecContext(ctx, q, b.UserID, b.SimulatorID, b.StartTime.UTC(), b.EndTime.UTC(), coachID, b.Status, payRef)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // One slot row per occupied hour.  A duplicate key here means a
    // concurrent booking claimed the hour between the availability
    // check and this insert; the unique key settles the race.
    query := `INSERT INTO booking_slots (booking_id, simulator_id, slot_start) VALUES `
    args := make([]interface{}, 0)
    n := 0
    for t := b.StartTime.UTC(); t.Before(b.EndTime.UTC()); t = t.Add(time.Hour) {
        if n > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, b.ID, b.SimulatorID, t)
        n++
    }
    if n == 0 {
        return ErrValidation
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if isDuplicateKey(err) {
            return ErrSlotUnavailable
        }
        return err
    }
    return nil
}

// GetTx loads a booking by ID within a transaction, locking the row
// so a concurrent cancel of the same booking blocks until this one
// resolves.  Returns sql.ErrNoRows when the booking does not exist.
func (r *BookingRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
    const q = `SELECT id, user_id, simulator_id, start_time, end_time, coach_id, status, payment_ref, created_at, updated_at
               FROM bookings WHERE id = ? FOR UPDATE`
    return scanBooking(tx.QueryRowContext(ctx, q, id))
}

// GetByID loads a booking outside a transaction.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
    const q = `SELECT id, user_id, simulator_id, start_time, end_time, coach_id, status, payment_ref, created_at, updated_at
               FROM bookings WHERE id = ?`
    return scanBooking(r.db.QueryRowContext(ctx, q, id))
}

// DeleteTx removes a booking within a transaction.  The slot rows go
// with it via the foreign key cascade, freeing the hours.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `DELETE FROM bookings WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// BookedHours returns the set of occupied slot-start hours for one
// simulator on a calendar date.  The availability resolver subtracts
// these from the business-hours window.
func (r *BookingRepo) BookedHours(ctx context.Context, simulatorID uint64, dayStart time.Time) (map[int]bool, error) {
    dayEnd := dayStart.Add(24 * time.Hour)
    const q = `SELECT slot_start FROM booking_slots
               WHERE slot_start >= ? AND slot_start < ? AND simulator_id = ?`
    rows, err := r.db.QueryContext(ctx, q, dayStart.UTC(), dayEnd.UTC(), simulatorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    taken := make(map[int]bool)
    for rows.Next() {
        var t time.Time
        if err := rows.Scan(&t); err != nil {
            return nil, err
        }
        taken[t.UTC().Hour()] = true
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return taken, nil
}

// FullyBookedHours returns the hours on a calendar date where every
// simulator in the fleet is taken.  An hour with at least one free
// simulator stays bookable, so the no-simulator availability query
// is the union of the per-simulator free sets.
func (r *BookingRepo) FullyBookedHours(ctx context.Context, dayStart time.Time, fleetSize int) (map[int]bool, error) {
    if fleetSize < 1 {
        fleetSize = 1
    }
    dayEnd := dayStart.Add(24 * time.Hour)
    const q = `SELECT slot_start FROM booking_slots
               WHERE slot_start >= ? AND slot_start < ?
               GROUP BY slot_start
               HAVING COUNT(DISTINCT simulator_id) >= ?`
    rows, err := r.db.QueryContext(ctx, q, dayStart.UTC(), dayEnd.UTC(), fleetSize)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    taken := make(map[int]bool)
    for rows.Next() {
        var t time.Time
        if err := rows.Scan(&t); err != nil {
            return nil, err
        }
        taken[t.UTC().Hour()] = true
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return taken, nil
}

// BookingDetail is the read model returned by List: a booking joined
// with the booking user's name and email and the coach's name when a
// coach is attached.  Status is the display projection, so bookings
// whose start time has passed read as COMPLETED.
type BookingDetail struct {
    ID          uint64  `json:"id"`
    UserID      uint64  `json:"user_id"`
    UserName    string  `json:"user_name"`
    UserEmail   string  `json:"user_email"`
    SimulatorID uint64  `json:"simulator_id"`
    StartTime   string  `json:"start_time"`
    EndTime     string  `json:"end_time"`
    CoachID     *uint64 `json:"coach_id,omitempty"`
    CoachName   *string `json:"coach_name,omitempty"`
    Status      string  `json:"status"`
    PaymentRef  *string `json:"payment_ref,omitempty"`
}

// BookingFilter narrows a List call.  Zero-valued fields are ignored.
type BookingFilter struct {
    UserID      uint64
    SimulatorID uint64
    From        time.Time
    To          time.Time
}

// List returns bookings matching the filter, sorted by start time
// ascending.  The display status is projected from the stored state
// and the supplied clock; it is never persisted.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter, now time.Time) ([]BookingDetail, error) {
    q := `SELECT b.id, b.user_id, u.name, u.email, b.simulator_id, b.start_time, b.end_time,
                 b.coach_id, cu.name, b.status, b.payment_ref
          FROM bookings b
          JOIN users u ON u.id = b.user_id
          LEFT JOIN users cu ON cu.id = b.coach_id
          WHERE 1=1`
    args := make([]interface{}, 0, 4)
    if f.UserID != 0 {
        q += ` AND b.user_id = ?`
        args = append(args, f.UserID)
    }
    if f.SimulatorID != 0 {
        q += ` AND b.simulator_id = ?`
        args = append(args, f.SimulatorID)
    }
    if !f.From.IsZero() {
        q += ` AND b.start_time >= ?`
        args = append(args, f.From.UTC())
    }
    if !f.To.IsZero() {
        q += ` AND b.start_time < ?`
        args = append(args, f.To.UTC())
    }
    q += ` ORDER BY b.start_time ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    for rows.Next() {
        var d BookingDetail
        var start, end time.Time
        var coachID sql.NullInt64
        var coachName sql.NullString
        var payRef sql.NullString
        var status string
        if err := rows.Scan(
            &d.ID, &d.UserID, &d.UserName, &d.UserEmail, &d.SimulatorID, &start, &end,
            &coachID, &coachName, &status, &payRef,
        ); err != nil {
            return nil, err
        }
        d.StartTime = start.UTC().Format(time.RFC3339)
        d.EndTime = end.UTC().Format(time.RFC3339)
        if coachID.Valid {
            cid := uint64(coachID.Int64)
            d.CoachID = &cid
        }
        if coachName.Valid {
            cn := coachName.String
            d.CoachName = &cn
        }
        if payRef.Valid {
            ref := payRef.String
            d.PaymentRef = &ref
        }
        d.Status = model.Booking{Status: status, StartTime: start.UTC()}.DisplayStatus(now)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// scanBooking scans one bookings row from a QueryRow result.
func scanBooking(row *sql.Row) (model.Booking, error) {
    var b model.Booking
    var coachID sql.NullInt64
    var payRef sql.NullString
    err := row.Scan(
        &b.ID, &b.UserID, &b.SimulatorID, &b.StartTime, &b.EndTime,
        &coachID, &b.Status, &payRef, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return model.Booking{}, err
    }
    if coachID.Valid {
        cid := uint64(coachID.Int64)
        b.CoachID = &cid
    }
    if payRef.Valid {
        ref := payRef.String
        b.PaymentRef = &ref
    }
    b.StartTime = b.StartTime.UTC()
    b.EndTime = b.EndTime.UTC()
    return b, nil
}

// isDuplicateKey reports whether the error is a MySQL duplicate-key
// violation (error 1062).
func isDuplicateKey(err error) bool {
    if err == nil {
        return false
    }
    return strings.Contains(strings.ToLower(err.Error()), "1062") ||
        strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}
