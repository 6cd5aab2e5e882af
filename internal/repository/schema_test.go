package repository

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestHasRoleColumnsCachesAnswer(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    // One probe only; the second call must hit the cache.
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

    repo := NewSchemaRepo(db)
    ctx := context.Background()

    has, err := repo.HasRoleColumns(ctx)
    require.NoError(t, err)
    assert.True(t, has)

    has, err = repo.HasRoleColumns(ctx)
    require.NoError(t, err)
    assert.True(t, has)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRoleColumnsAddsMissingColumns(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectExec("ALTER TABLE users").
        WillReturnResult(sqlmock.NewResult(0, 0))

    repo := NewSchemaRepo(db)
    ctx := context.Background()

    require.NoError(t, repo.MigrateRoleColumns(ctx))

    // The capability cache now reports the columns without re-probing.
    has, err := repo.HasRoleColumns(ctx)
    require.NoError(t, err)
    assert.True(t, has)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRoleColumnsIdempotent(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

    repo := NewSchemaRepo(db)
    require.NoError(t, repo.MigrateRoleColumns(context.Background()))
    assert.NoError(t, mock.ExpectationsWereMet())
}
