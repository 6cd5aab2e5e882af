package model

import "time"

// BusinessHours defines the studio's bookable window for one
// weekday.  One row exists per weekday (0=Sunday .. 6=Saturday).
// Hours are whole clock hours in the studio's timezone; overnight
// windows (close before open) are rejected at write time.
//
// Fields:
//  DayOfWeek – weekday the row applies to (0-6).
//  OpenHour  – first bookable hour of the day.
//  CloseHour – hour the studio closes (exclusive).
//  IsClosed  – the studio does not open at all on this weekday.
type BusinessHours struct {
    ID        uint64    // business_hours.id
    DayOfWeek int       // business_hours.day_of_week
    OpenHour  int       // business_hours.open_hour
    CloseHour int       // business_hours.close_hour
    IsClosed  bool      // business_hours.is_closed
    UpdatedAt time.Time // business_hours.updated_at
}

// SpecialDate overrides the standing business hours for one calendar
// date, typically a holiday closure.  When a row exists for a date
// it takes full precedence over that date's weekday row.
type SpecialDate struct {
    ID        uint64    // special_dates.id
    Date      string    // special_dates.date (YYYY-MM-DD)
    OpenHour  int       // special_dates.open_hour
    CloseHour int       // special_dates.close_hour
    IsClosed  bool      // special_dates.is_closed
    Reason    string    // special_dates.reason
    CreatedAt time.Time // special_dates.created_at
}
