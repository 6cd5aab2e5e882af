package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/notify"
    "github.com/apexsim/simstudio/internal/repository"
)

var errDuplicateSlot = errors.New("Error 1062 (23000): Duplicate entry '2-2026-09-14 10:00:00' for key 'uq_sim_slot'")

func newTestHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    h := NewBookingHandler(
        repository.NewBookingRepo(db),
        repository.NewCreditRepo(db),
        repository.NewHoursRepo(db),
        repository.NewCoachRepo(db),
        repository.NewUserRepo(db, repository.NewSchemaRepo(db)),
        notify.NoopSender{},
        2,
    )
    return h, mock
}

func authedContext(method, target, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func bookingRow(id, userID uint64, start, end time.Time) *sqlmock.Rows {
    cols := []string{"id", "user_id", "simulator_id", "start_time", "end_time",
        "coach_id", "status", "payment_ref", "created_at", "updated_at"}
    return sqlmock.NewRows(cols).
        AddRow(id, userID, 2, start, end, nil, model.StatusConfirmed, nil, start.Add(-48*time.Hour), start.Add(-48*time.Hour))
}

func TestCancelRefundsHoursAndDeletes(t *testing.T) {
    h, mock := newTestHandler(t)

    start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
    end := start.Add(2 * time.Hour)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id, user_id, simulator_id").
        WithArgs(uint64(5)).
        WillReturnRows(bookingRow(5, 7, start, end))
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "simulator_hours", "coaching_sessions", "updated_at"}).
            AddRow(7, 3, 0, time.Now().UTC()))
    mock.ExpectExec(`UPDATE user_credits SET simulator_hours = simulator_hours \+`).
        WithArgs(uint32(2), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO credit_audit").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec("DELETE FROM bookings").
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    c, rec := authedContext(http.MethodDelete, "/api/bookings?id=5", "", 7, model.RoleCustomer)
    require.NoError(t, h.Cancel(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, float64(2), resp["refundedHours"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissingBookingIs404(t *testing.T) {
    h, mock := newTestHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id, user_id, simulator_id").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "simulator_id", "start_time", "end_time",
            "coach_id", "status", "payment_ref", "created_at", "updated_at"}))
    mock.ExpectRollback()

    c, rec := authedContext(http.MethodDelete, "/api/bookings?id=99", "", 7, model.RoleCustomer)
    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAfterStartRejected(t *testing.T) {
    h, mock := newTestHandler(t)

    start := time.Now().UTC().Add(-time.Hour)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id, user_id, simulator_id").
        WithArgs(uint64(5)).
        WillReturnRows(bookingRow(5, 7, start, start.Add(time.Hour)))
    mock.ExpectRollback()

    c, rec := authedContext(http.MethodDelete, "/api/bookings?id=5", "", 7, model.RoleCustomer)
    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), repository.ErrPastBooking.Error())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOtherUsersBookingForbidden(t *testing.T) {
    h, mock := newTestHandler(t)

    start := time.Now().UTC().Add(48 * time.Hour)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id, user_id, simulator_id").
        WithArgs(uint64(5)).
        WillReturnRows(bookingRow(5, 7, start, start.Add(time.Hour)))
    mock.ExpectRollback()

    c, rec := authedContext(http.MethodDelete, "/api/bookings?id=5", "", 8, model.RoleCustomer)
    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConcurrentSlotLoserGets409(t *testing.T) {
    h, mock := newTestHandler(t)

    // A Monday far enough out that the past-date guard never trips.
    day := time.Now().UTC().Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)
    dayStr := day.Format("2006-01-02")

    mock.ExpectQuery("SELECT id, day_of_week, open_hour, close_hour").
        WithArgs(int(day.Weekday())).
        WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "open_hour", "close_hour", "is_closed", "updated_at"}).
            AddRow(1, int(day.Weekday()), 8, 20, false, time.Now().UTC()))
    mock.ExpectQuery("SELECT id, date, open_hour, close_hour").
        WithArgs(dayStr).
        WillReturnRows(sqlmock.NewRows([]string{"id", "date", "open_hour", "close_hour", "is_closed", "reason", "created_at"}))
    mock.ExpectQuery("SELECT slot_start FROM booking_slots").
        WillReturnRows(sqlmock.NewRows([]string{"slot_start"}))

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO bookings").
        WillReturnResult(sqlmock.NewResult(11, 1))
    // The other writer got the hour first; the unique slot key settles it.
    mock.ExpectExec("INSERT INTO booking_slots").
        WillReturnError(errDuplicateSlot)
    mock.ExpectRollback()

    body := `{"simulatorId":2,"date":"` + dayStr + `","time":10,"hours":1}`
    c, rec := authedContext(http.MethodPost, "/api/bookings", body, 7, model.RoleCustomer)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsufficientCreditRollsBackSlot(t *testing.T) {
    h, mock := newTestHandler(t)

    day := time.Now().UTC().Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)
    dayStr := day.Format("2006-01-02")

    mock.ExpectQuery("SELECT id, day_of_week, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "open_hour", "close_hour", "is_closed", "updated_at"}).
            AddRow(1, int(day.Weekday()), 8, 20, false, time.Now().UTC()))
    mock.ExpectQuery("SELECT id, date, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "date", "open_hour", "close_hour", "is_closed", "reason", "created_at"}))
    mock.ExpectQuery("SELECT slot_start FROM booking_slots").
        WillReturnRows(sqlmock.NewRows([]string{"slot_start"}))

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO bookings").
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectExec("INSERT INTO booking_slots").
        WillReturnResult(sqlmock.NewResult(40, 2))
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "simulator_hours", "coaching_sessions", "updated_at"}).
            AddRow(7, 1, 0, time.Now().UTC()))
    mock.ExpectExec("UPDATE user_credits SET simulator_hours = simulator_hours -").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    body := `{"simulatorId":2,"date":"` + dayStr + `","time":10,"hours":2}`
    c, rec := authedContext(http.MethodPost, "/api/bookings", body, 7, model.RoleCustomer)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOutsideBusinessHoursIs409(t *testing.T) {
    h, mock := newTestHandler(t)

    day := time.Now().UTC().Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)
    dayStr := day.Format("2006-01-02")

    mock.ExpectQuery("SELECT id, day_of_week, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "open_hour", "close_hour", "is_closed", "updated_at"}).
            AddRow(1, int(day.Weekday()), 8, 12, false, time.Now().UTC()))
    mock.ExpectQuery("SELECT id, date, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "date", "open_hour", "close_hour", "is_closed", "reason", "created_at"}))
    mock.ExpectQuery("SELECT slot_start FROM booking_slots").
        WillReturnRows(sqlmock.NewRows([]string{"slot_start"}))

    body := `{"simulatorId":2,"date":"` + dayStr + `","time":14,"hours":1}`
    c, rec := authedContext(http.MethodPost, "/api/bookings", body, 7, model.RoleCustomer)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityWithoutSimulatorUsesFleetUnion(t *testing.T) {
    h, mock := newTestHandler(t)

    day := time.Now().UTC().Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)
    dayStr := day.Format("2006-01-02")

    mock.ExpectQuery("SELECT id, day_of_week, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "open_hour", "close_hour", "is_closed", "updated_at"}).
            AddRow(1, int(day.Weekday()), 9, 12, false, time.Now().UTC()))
    mock.ExpectQuery("SELECT id, date, open_hour, close_hour").
        WillReturnRows(sqlmock.NewRows([]string{"id", "date", "open_hour", "close_hour", "is_closed", "reason", "created_at"}))
    // 10:00 is the only hour where the whole fleet is taken; hours
    // where just one of the two simulators is booked stay offered.
    mock.ExpectQuery("HAVING COUNT\\(DISTINCT simulator_id\\) >=").
        WithArgs(day, day.Add(24*time.Hour), 2).
        WillReturnRows(sqlmock.NewRows([]string{"slot_start"}).AddRow(day.Add(10 * time.Hour)))

    c, rec := authedContext(http.MethodGet, "/api/availability?date="+dayStr, "", 7, model.RoleCustomer)
    require.NoError(t, h.Availability(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        Slots []struct {
            Hour int `json:"hour"`
        } `json:"slots"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    hours := make([]int, 0, len(resp.Slots))
    for _, s := range resp.Slots {
        hours = append(hours, s.Hour)
    }
    assert.Equal(t, []int{9, 11}, hours)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookForAnotherUserRequiresAdmin(t *testing.T) {
    h, _ := newTestHandler(t)

    body := `{"userId":99,"simulatorId":2,"date":"2030-01-07","time":10,"hours":1}`
    c, rec := authedContext(http.MethodPost, "/api/bookings", body, 7, model.RoleCustomer)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
