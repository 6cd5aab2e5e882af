package repository

import (
    "context"
    "database/sql"

    "github.com/apexsim/simstudio/internal/model"
)

// CoachRepo persists coach profiles and their recurring weekly
// availability windows.  A profile is one-to-one with a user flagged
// is_coach; availability windows are the template the resolver
// intersects with business hours for coached bookings.
type CoachRepo struct {
    db *sql.DB
}

// NewCoachRepo returns a new CoachRepo bound to the given database.
func NewCoachRepo(db *sql.DB) *CoachRepo { return &CoachRepo{db: db} }

// UpsertProfile writes a coach's profile, replacing any existing one.
func (r *CoachRepo) UpsertProfile(ctx context.Context, p model.CoachProfile) error {
    const q = `INSERT INTO coach_profiles (user_id, hourly_rate_cents, description)
               VALUES (?, ?, ?)
               ON DUPLICATE KEY UPDATE hourly_rate_cents = VALUES(hourly_rate_cents),
                                       description = VALUES(description)`
    _, err := r.db.ExecContext(ctx, q, p.UserID, p.HourlyRateCents, p.Description)
    return err
}

// GetProfile returns the profile for a coach user.  sql.ErrNoRows
// when the user has no profile.
func (r *CoachRepo) GetProfile(ctx context.Context, userID uint64) (model.CoachProfile, error) {
    const q = `SELECT user_id, hourly_rate_cents, description, created_at, updated_at
               FROM coach_profiles WHERE user_id = ?`
    var p model.CoachProfile
    err := r.db.QueryRowContext(ctx, q, userID).Scan(
        &p.UserID, &p.HourlyRateCents, &p.Description, &p.CreatedAt, &p.UpdatedAt,
    )
    return p, err
}

// CoachListing joins a coach profile with the coach's display name
// for the public booking page.
type CoachListing struct {
    UserID          uint64 `json:"user_id"`
    Name            string `json:"name"`
    HourlyRateCents uint32 `json:"hourly_rate_cents"`
    Description     string `json:"description"`
}

// ListProfiles returns all coach profiles with their names, ordered
// by name.
func (r *CoachRepo) ListProfiles(ctx context.Context) ([]CoachListing, error) {
    const q = `SELECT p.user_id, u.name, p.hourly_rate_cents, p.description
               FROM coach_profiles p
               JOIN users u ON u.id = p.user_id
               ORDER BY u.name ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]CoachListing, 0)
    for rows.Next() {
        var l CoachListing
        if err := rows.Scan(&l.UserID, &l.Name, &l.HourlyRateCents, &l.Description); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// DeleteProfile removes a coach's profile.  Availability windows go
// with it via the foreign key cascade.  Returns sql.ErrNoRows when
// no profile exists.
func (r *CoachRepo) DeleteProfile(ctx context.Context, userID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM coach_profiles WHERE user_id = ?`, userID)
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

// AddAvailability inserts one weekly window and populates its ID.
func (r *CoachRepo) AddAvailability(ctx context.Context, a *model.CoachAvailability) error {
    const q = `INSERT INTO coach_availability (coach_id, day_of_week, start_hour, end_hour)
               VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, a.CoachID, a.DayOfWeek, a.StartHour, a.EndHour)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    a.ID = uint64(id)
    return nil
}

// GetAvailability loads one window by ID.  Returns sql.ErrNoRows
// when it does not exist.
func (r *CoachRepo) GetAvailability(ctx context.Context, id uint64) (model.CoachAvailability, error) {
    const q = `SELECT id, coach_id, day_of_week, start_hour, end_hour
               FROM coach_availability WHERE id = ?`
    var a model.CoachAvailability
    err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.CoachID, &a.DayOfWeek, &a.StartHour, &a.EndHour)
    return a, err
}

// ListAvailability returns a coach's weekly windows ordered by day
// and start hour.  When coachID is zero, all coaches' windows are
// returned.
func (r *CoachRepo) ListAvailability(ctx context.Context, coachID uint64) ([]model.CoachAvailability, error) {
    q := `SELECT id, coach_id, day_of_week, start_hour, end_hour FROM coach_availability`
    args := []interface{}{}
    if coachID != 0 {
        q += ` WHERE coach_id = ?`
        args = append(args, coachID)
    }
    q += ` ORDER BY coach_id, day_of_week, start_hour`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.CoachAvailability, 0)
    for rows.Next() {
        var a model.CoachAvailability
        if err := rows.Scan(&a.ID, &a.CoachID, &a.DayOfWeek, &a.StartHour, &a.EndHour); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetAvailabilityForDay returns a coach's windows for one weekday.
// An empty slice means the coach does not work that day.
func (r *CoachRepo) GetAvailabilityForDay(ctx context.Context, coachID uint64, dayOfWeek int) ([]model.CoachAvailability, error) {
    const q = `SELECT id, coach_id, day_of_week, start_hour, end_hour
               FROM coach_availability WHERE coach_id = ? AND day_of_week = ?
               ORDER BY start_hour`
    rows, err := r.db.QueryContext(ctx, q, coachID, dayOfWeek)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.CoachAvailability, 0)
    for rows.Next() {
        var a model.CoachAvailability
        if err := rows.Scan(&a.ID, &a.CoachID, &a.DayOfWeek, &a.StartHour, &a.EndHour); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// DeleteAvailability removes one window by ID.  Returns
// sql.ErrNoRows when it does not exist.
func (r *CoachRepo) DeleteAvailability(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM coach_availability WHERE id = ?`, id)
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
