package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/notify"
    "github.com/apexsim/simstudio/internal/repository"
)

// failingSender always errors, standing in for an email provider
// outage.
type failingSender struct{}

func (failingSender) Send(context.Context, notify.Message) error {
    return errors.New("provider unavailable")
}

func newPackageHandler(t *testing.T, mailer notify.Sender) (*PackageHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewPackageHandler(
        repository.NewPackageRepo(db),
        repository.NewCreditRepo(db),
        repository.NewUserRepo(db, repository.NewSchemaRepo(db)),
        mailer,
    ), mock
}

func TestCreatePackageStoresPrice(t *testing.T) {
    h, mock := newPackageHandler(t, notify.NoopSender{})

    mock.ExpectExec("INSERT INTO packages").
        WithArgs("Starter Ten", uint32(10), uint32(45000), "Ten simulator hours", true).
        WillReturnResult(sqlmock.NewResult(4, 1))

    body := `{"name":"Starter Ten","hours":10,"price_cents":45000,"description":"Ten simulator hours"}`
    c, rec := authedContext(http.MethodPost, "/api/packages", body, 1, model.RoleAdmin)
    require.NoError(t, h.Create(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp model.Package
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, uint64(4), resp.ID)
    assert.Equal(t, uint32(45000), resp.PriceCents)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePackageNegativePriceRejected(t *testing.T) {
    h, _ := newPackageHandler(t, notify.NoopSender{})

    body := `{"name":"Broken","hours":5,"price_cents":-1}`
    c, rec := authedContext(http.MethodPost, "/api/packages", body, 1, model.RoleAdmin)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendReceiptSurvivesMailerFailure(t *testing.T) {
    h, mock := newPackageHandler(t, failingSender{})

    userCols := []string{"id", "email", "password_hash", "name", "mobile", "is_admin", "is_coach",
        "is_active", "created_at", "updated_at"}
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
    mock.ExpectQuery("SELECT id,email,password_hash").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows(userCols).
            AddRow(7, "dana@example.com", "x", "Dana", "", false, false, true, time.Now().UTC(), time.Now().UTC()))

    pkg := model.Package{ID: 4, Name: "Starter Ten", Hours: 10, PriceCents: 45000}
    // The failure is logged; it must not panic or propagate.
    h.sendReceipt(7, pkg, "pay-123")
    assert.NoError(t, mock.ExpectationsWereMet())
}
