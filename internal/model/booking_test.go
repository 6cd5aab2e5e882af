package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestDisplayStatusProjectsCompleted(t *testing.T) {
    now := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)

    future := Booking{Status: StatusConfirmed, StartTime: now.Add(time.Hour)}
    assert.Equal(t, StatusConfirmed, future.DisplayStatus(now))

    started := Booking{Status: StatusConfirmed, StartTime: now}
    assert.Equal(t, StatusCompleted, started.DisplayStatus(now))

    past := Booking{Status: StatusConfirmed, StartTime: now.Add(-time.Hour)}
    assert.Equal(t, StatusCompleted, past.DisplayStatus(now))
}

func TestRoleOfAdminWins(t *testing.T) {
    assert.Equal(t, RoleAdmin, RoleOf(User{IsAdmin: true, IsCoach: true}))
    assert.Equal(t, RoleCoach, RoleOf(User{IsCoach: true}))
    assert.Equal(t, RoleCustomer, RoleOf(User{}))
}
