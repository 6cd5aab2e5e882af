package repository

import (
    "context"
    "database/sql"

    "github.com/apexsim/simstudio/internal/model"
)

// HoursRepo persists the studio's weekly operating window and the
// per-date special overrides (holiday closures).  One business_hours
// row exists per weekday; writes are upserts keyed on day_of_week.
type HoursRepo struct {
    db *sql.DB
}

// NewHoursRepo returns a new HoursRepo bound to the given database.
func NewHoursRepo(db *sql.DB) *HoursRepo { return &HoursRepo{db: db} }

// ListBusinessHours returns all weekday rows ordered Sunday first.
func (r *HoursRepo) ListBusinessHours(ctx context.Context) ([]model.BusinessHours, error) {
    const q = `SELECT id, day_of_week, open_hour, close_hour, is_closed, updated_at
               FROM business_hours ORDER BY day_of_week ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.BusinessHours, 0, 7)
    for rows.Next() {
        var h model.BusinessHours
        if err := rows.Scan(&h.ID, &h.DayOfWeek, &h.OpenHour, &h.CloseHour, &h.IsClosed, &h.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetBusinessHours returns the row for one weekday.  sql.ErrNoRows
// when the weekday has never been configured; callers treat that as
// closed.
func (r *HoursRepo) GetBusinessHours(ctx context.Context, dayOfWeek int) (model.BusinessHours, error) {
    const q = `SELECT id, day_of_week, open_hour, close_hour, is_closed, updated_at
               FROM business_hours WHERE day_of_week = ?`
    var h model.BusinessHours
    err := r.db.QueryRowContext(ctx, q, dayOfWeek).Scan(
        &h.ID, &h.DayOfWeek, &h.OpenHour, &h.CloseHour, &h.IsClosed, &h.UpdatedAt,
    )
    return h, err
}

// UpsertBusinessHours writes the window for one weekday, replacing
// any existing row for that day.
func (r *HoursRepo) UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error {
    const q = `INSERT INTO business_hours (day_of_week, open_hour, close_hour, is_closed)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE open_hour = VALUES(open_hour),
                                       close_hour = VALUES(close_hour),
                                       is_closed = VALUES(is_closed)`
    _, err := r.db.ExecContext(ctx, q, h.DayOfWeek, h.OpenHour, h.CloseHour, h.IsClosed)
    return err
}

// GetSpecialDate returns the override for a calendar date
// (YYYY-MM-DD).  sql.ErrNoRows when the date has no override.
func (r *HoursRepo) GetSpecialDate(ctx context.Context, date string) (model.SpecialDate, error) {
    const q = `SELECT id, date, open_hour, close_hour, is_closed, reason, created_at
               FROM special_dates WHERE date = ?`
    var s model.SpecialDate
    err := r.db.QueryRowContext(ctx, q, date).Scan(
        &s.ID, &s.Date, &s.OpenHour, &s.CloseHour, &s.IsClosed, &s.Reason, &s.CreatedAt,
    )
    return s, err
}

// ListSpecialDates returns all overrides from the given date on,
// soonest first.
func (r *HoursRepo) ListSpecialDates(ctx context.Context, from string) ([]model.SpecialDate, error) {
    const q = `SELECT id, date, open_hour, close_hour, is_closed, reason, created_at
               FROM special_dates WHERE date >= ? ORDER BY date ASC`
    rows, err := r.db.QueryContext(ctx, q, from)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.SpecialDate, 0)
    for rows.Next() {
        var s model.SpecialDate
        if err := rows.Scan(&s.ID, &s.Date, &s.OpenHour, &s.CloseHour, &s.IsClosed, &s.Reason, &s.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpsertSpecialDate writes the override for one date, replacing any
// existing row for that date.
func (r *HoursRepo) UpsertSpecialDate(ctx context.Context, s model.SpecialDate) error {
    const q = `INSERT INTO special_dates (date, open_hour, close_hour, is_closed, reason)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE open_hour = VALUES(open_hour),
                                       close_hour = VALUES(close_hour),
                                       is_closed = VALUES(is_closed),
                                       reason = VALUES(reason)`
    _, err := r.db.ExecContext(ctx, q, s.Date, s.OpenHour, s.CloseHour, s.IsClosed, s.Reason)
    return err
}

// DeleteSpecialDate removes the override for a date.  Returns
// sql.ErrNoRows when none exists.
func (r *HoursRepo) DeleteSpecialDate(ctx context.Context, date string) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM special_dates WHERE date = ?`, date)
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
