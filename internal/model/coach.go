package model

import "time"

// CoachProfile carries the coach-specific attributes of a user
// flagged is_coach.  One-to-one with the users table.
//
// Fields:
//  UserID          – the coach's user record (primary key).
//  HourlyRateCents – rate charged per coached hour.
//  Description     – blurb shown on the booking page.
type CoachProfile struct {
    UserID          uint64    // coach_profiles.user_id
    HourlyRateCents uint32    // coach_profiles.hourly_rate_cents
    Description     string    // coach_profiles.description
    CreatedAt       time.Time // coach_profiles.created_at
    UpdatedAt       time.Time // coach_profiles.updated_at
}

// CoachAvailability is one window of a coach's recurring weekly
// schedule: "this coach works 14:00-18:00 on Tuesdays".  It is a
// template, not calendar-specific; the availability resolver
// intersects it with business hours for a concrete date.
type CoachAvailability struct {
    ID        uint64 // coach_availability.id
    CoachID   uint64 // coach_availability.coach_id
    DayOfWeek int    // coach_availability.day_of_week (0-6)
    StartHour int    // coach_availability.start_hour
    EndHour   int    // coach_availability.end_hour
}
