package handler

import (
    "net/http"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/repository"
)

func newCoachHandler(t *testing.T) (*CoachHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewCoachHandler(
        repository.NewCoachRepo(db),
        repository.NewUserRepo(db, repository.NewSchemaRepo(db)),
    ), mock
}

func windowRow(id, coachID uint64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "coach_id", "day_of_week", "start_hour", "end_hour"}).
        AddRow(id, coachID, 2, 14, 18)
}

func TestDeleteAvailabilityOwnWindow(t *testing.T) {
    h, mock := newCoachHandler(t)

    mock.ExpectQuery("SELECT id, coach_id, day_of_week, start_hour, end_hour").
        WithArgs(uint64(3)).
        WillReturnRows(windowRow(3, 9))
    mock.ExpectExec("DELETE FROM coach_availability").
        WithArgs(uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    c, rec := authedContext(http.MethodDelete, "/api/coach-availability?id=3", "", 9, model.RoleCoach)
    require.NoError(t, h.DeleteAvailability(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAvailabilityOtherCoachForbidden(t *testing.T) {
    h, mock := newCoachHandler(t)

    mock.ExpectQuery("SELECT id, coach_id, day_of_week, start_hour, end_hour").
        WithArgs(uint64(3)).
        WillReturnRows(windowRow(3, 9))

    c, rec := authedContext(http.MethodDelete, "/api/coach-availability?id=3", "", 7, model.RoleCustomer)
    require.NoError(t, h.DeleteAvailability(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAvailabilityAdminOverride(t *testing.T) {
    h, mock := newCoachHandler(t)

    mock.ExpectQuery("SELECT id, coach_id, day_of_week, start_hour, end_hour").
        WithArgs(uint64(3)).
        WillReturnRows(windowRow(3, 9))
    mock.ExpectExec("DELETE FROM coach_availability").
        WithArgs(uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    c, rec := authedContext(http.MethodDelete, "/api/coach-availability?id=3", "", 1, model.RoleAdmin)
    require.NoError(t, h.DeleteAvailability(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProfileStoresRate(t *testing.T) {
    h, mock := newCoachHandler(t)

    userCols := []string{"id", "email", "password_hash", "name", "mobile", "is_admin", "is_coach",
        "is_active", "created_at", "updated_at"}
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
    mock.ExpectQuery("SELECT id,email,password_hash").
        WithArgs(uint64(9)).
        WillReturnRows(sqlmock.NewRows(userCols).
            AddRow(9, "kim@example.com", "x", "Kim", "", false, true, true, time.Now().UTC(), time.Now().UTC()))
    mock.ExpectExec("INSERT INTO coach_profiles").
        WithArgs(uint64(9), uint32(8500), "Track-day specialist").
        WillReturnResult(sqlmock.NewResult(0, 1))

    body := `{"userId":9,"hourly_rate_cents":8500,"description":"Track-day specialist"}`
    c, rec := authedContext(http.MethodPut, "/api/coaches", body, 1, model.RoleAdmin)
    require.NoError(t, h.UpsertProfile(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProfileNegativeRateRejected(t *testing.T) {
    h, _ := newCoachHandler(t)

    body := `{"userId":9,"hourly_rate_cents":-100}`
    c, rec := authedContext(http.MethodPut, "/api/coaches", body, 1, model.RoleAdmin)
    require.NoError(t, h.UpsertProfile(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
