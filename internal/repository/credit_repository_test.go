package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/apexsim/simstudio/internal/model"
)

func balanceRows(userID uint64, hours, sessions uint32) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"user_id", "simulator_hours", "coaching_sessions", "updated_at"}).
        AddRow(userID, hours, sessions, time.Now().UTC())
}

func TestDebitTxSubtractsAndAudits(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions, updated_at").
        WithArgs(uint64(7)).
        WillReturnRows(balanceRows(7, 10, 0))
    mock.ExpectExec("UPDATE user_credits SET simulator_hours = simulator_hours -").
        WithArgs(uint32(3), uint64(7), uint32(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO credit_audit").
        WithArgs(uint64(7), model.AuditDebit, uint32(10), uint32(7), uint64(42), nil).
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectCommit()

    repo := NewCreditRepo(db)
    ctx := context.Background()
    tx, err := db.BeginTx(ctx, nil)
    require.NoError(t, err)

    require.NoError(t, repo.DebitTx(ctx, tx, 7, 3, 42))
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitTxInsufficientBalance(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions, updated_at").
        WithArgs(uint64(7)).
        WillReturnRows(balanceRows(7, 2, 0))
    // The guarded UPDATE matches no row when the balance is short.
    mock.ExpectExec("UPDATE user_credits SET simulator_hours = simulator_hours -").
        WithArgs(uint32(5), uint64(7), uint32(5)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    repo := NewCreditRepo(db)
    ctx := context.Background()
    tx, err := db.BeginTx(ctx, nil)
    require.NoError(t, err)

    err = repo.DebitTx(ctx, tx, 7, 5, 42)
    assert.ErrorIs(t, err, ErrInsufficientCredit)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitTxMissingBalanceRow(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions, updated_at").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "simulator_hours", "coaching_sessions", "updated_at"}))
    mock.ExpectRollback()

    repo := NewCreditRepo(db)
    ctx := context.Background()
    tx, err := db.BeginTx(ctx, nil)
    require.NoError(t, err)

    err = repo.DebitTx(ctx, tx, 99, 1, 1)
    assert.ErrorIs(t, err, ErrInsufficientCredit)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundTxAddsHoursBack(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions, updated_at").
        WithArgs(uint64(7)).
        WillReturnRows(balanceRows(7, 4, 0))
    mock.ExpectExec(`UPDATE user_credits SET simulator_hours = simulator_hours \+`).
        WithArgs(uint32(2), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO credit_audit").
        WithArgs(uint64(7), model.AuditRefund, uint32(4), uint32(6), uint64(42), nil).
        WillReturnResult(sqlmock.NewResult(2, 1))
    mock.ExpectCommit()

    repo := NewCreditRepo(db)
    ctx := context.Background()
    tx, err := db.BeginTx(ctx, nil)
    require.NoError(t, err)

    require.NoError(t, repo.RefundTx(ctx, tx, 7, 2, 42))
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAbsoluteOverwritesNotAdds(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id, simulator_hours, coaching_sessions, updated_at").
        WithArgs(uint64(7)).
        WillReturnRows(balanceRows(7, 9, 3))
    // 5 replaces 9 outright; coaching sessions keep their stored value.
    mock.ExpectExec("UPDATE user_credits SET simulator_hours = \\?, coaching_sessions = \\?").
        WithArgs(uint32(5), uint32(3), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO credit_audit").
        WithArgs(uint64(7), model.AuditSet, uint32(9), uint32(5), nil, nil).
        WillReturnResult(sqlmock.NewResult(3, 1))
    mock.ExpectCommit()

    repo := NewCreditRepo(db)
    hours := uint32(5)
    bal, err := repo.SetAbsolute(context.Background(), 7, &hours, nil)
    require.NoError(t, err)
    assert.Equal(t, uint32(5), bal.SimulatorHours)
    assert.Equal(t, uint32(3), bal.CoachingSessions)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuditScansOptionalColumns(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    rows := sqlmock.NewRows([]string{"id", "user_id", "action", "hours_before", "hours_after", "booking_id", "payment_ref", "created_at"}).
        AddRow(2, 7, model.AuditPurchase, 0, 10, nil, "pay-123", time.Now().UTC()).
        AddRow(1, 7, model.AuditDebit, 10, 8, 42, nil, time.Now().UTC())
    mock.ExpectQuery("SELECT id, user_id, action, hours_before, hours_after, booking_id, payment_ref, created_at").
        WithArgs(uint64(7), 50).
        WillReturnRows(rows)

    repo := NewCreditRepo(db)
    out, err := repo.ListAudit(context.Background(), 7, 50)
    require.NoError(t, err)
    require.Len(t, out, 2)

    assert.Nil(t, out[0].BookingID)
    require.NotNil(t, out[0].PaymentRef)
    assert.Equal(t, "pay-123", *out[0].PaymentRef)

    require.NotNil(t, out[1].BookingID)
    assert.Equal(t, uint64(42), *out[1].BookingID)
    assert.Nil(t, out[1].PaymentRef)
    assert.NoError(t, mock.ExpectationsWereMet())
}
