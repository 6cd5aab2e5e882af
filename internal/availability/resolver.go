// Package availability computes the bookable hour slots for a
// simulator on a calendar date.  It is pure logic: the caller loads
// the business-hours window, any special-date override, the set of
// already-booked hours and the coach's weekly windows, and Resolve
// combines them.  Keeping the arithmetic free of database access
// means the whole slot model is testable without a running MySQL.
package availability

import (
    "errors"
    "time"
)

// ErrPastDate is returned when the requested date lies before the
// current day.  Handlers translate it into a 400 response.
var ErrPastDate = errors.New("date is in the past")

// Window is a same-day range of whole clock hours, open inclusive,
// close exclusive.  Closed short-circuits the range: a closed window
// yields no slots regardless of its hours.
type Window struct {
    Open   int
    Close  int
    Closed bool
}

// Valid reports whether the window's hours are in range and not
// overnight.  Overnight windows (close before open) are out of
// scope; same-day only.
func (w Window) Valid() bool {
    return w.Open >= 0 && w.Open <= 23 && w.Close >= 1 && w.Close <= 24 && w.Open < w.Close
}

// contains reports whether the one-hour slot starting at h fits
// entirely inside the window.
func (w Window) contains(h int) bool {
    return h >= w.Open && h+1 <= w.Close
}

// Slot is one bookable hour on the requested date.
type Slot struct {
    Hour  int       `json:"hour"`
    Start time.Time `json:"start"`
}

// Input carries everything Resolve needs for one date.
//
//  Day      – midnight UTC of the requested calendar date.
//  Now      – the current time; same-day resolution drops slots that
//             have already started.
//  Hours    – the standing business-hours window for Day's weekday.
//  Override – the special-date window for Day, if one exists.  It
//             takes full precedence over Hours.
//  Booked   – slot-start hours already claimed on the simulator.
//  Coach    – the coach's weekly windows for Day's weekday.  Nil
//             means no coach was requested; an empty non-nil slice
//             means a coach was requested but does not work that
//             day, which yields no slots.
type Input struct {
    Day      time.Time
    Now      time.Time
    Hours    Window
    Override *Window
    Booked   map[int]bool
    Coach    []Window
}

// Resolve returns the bookable slots for the input, ascending by
// hour.  A closed day, a fully-booked day or a coach with no window
// all return an empty slice, not an error; only a past date is an
// error.
func Resolve(in Input) ([]Slot, error) {
    today := in.Now.UTC().Truncate(24 * time.Hour)
    day := in.Day.UTC().Truncate(24 * time.Hour)
    if day.Before(today) {
        return nil, ErrPastDate
    }
    w := in.Hours
    if in.Override != nil {
        w = *in.Override
    }
    slots := make([]Slot, 0)
    if w.Closed || !w.Valid() {
        return slots, nil
    }
    for h := w.Open; h < w.Close; h++ {
        if in.Booked[h] {
            continue
        }
        if in.Coach != nil && !coachCovers(in.Coach, h) {
            continue
        }
        start := day.Add(time.Duration(h) * time.Hour)
        if start.Before(in.Now.UTC()) {
            continue
        }
        slots = append(slots, Slot{Hour: h, Start: start})
    }
    return slots, nil
}

// CoversRange reports whether every hour of [startHour, endHour) is
// bookable according to the given slots.  The booking create path
// uses this to re-validate the requested window against the resolved
// availability.
func CoversRange(slots []Slot, startHour, endHour int) bool {
    if startHour >= endHour {
        return false
    }
    have := make(map[int]bool, len(slots))
    for _, s := range slots {
        have[s.Hour] = true
    }
    for h := startHour; h < endHour; h++ {
        if !have[h] {
            return false
        }
    }
    return true
}

func coachCovers(windows []Window, h int) bool {
    for _, w := range windows {
        if !w.Closed && w.contains(h) {
            return true
        }
    }
    return false
}
