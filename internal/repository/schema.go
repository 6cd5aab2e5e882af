package repository

import (
    "context"
    "database/sql"
    "sync"
)

// SchemaRepo answers capability questions about the underlying
// schema.  The studio's original users table predates the role
// columns; rather than failing every role edit with a raw SQL error,
// callers ask HasRoleColumns once and surface a needs-migration flag
// when the answer is no.  The result is cached for the life of the
// process and invalidated when the migration runs.
type SchemaRepo struct {
    db *sql.DB

    mu       sync.Mutex
    checked  bool
    hasRoles bool
}

// NewSchemaRepo returns a new SchemaRepo bound to the given database.
func NewSchemaRepo(db *sql.DB) *SchemaRepo { return &SchemaRepo{db: db} }

// HasRoleColumns reports whether users.is_admin and users.is_coach
// exist.  The check runs once per process; subsequent calls return
// the cached answer.
func (r *SchemaRepo) HasRoleColumns(ctx context.Context) (bool, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.checked {
        return r.hasRoles, nil
    }
    const q = `SELECT COUNT(*) FROM information_schema.columns
               WHERE table_schema = DATABASE() AND table_name = 'users'
                 AND column_name IN ('is_admin', 'is_coach')`
    var n int
    if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
        return false, err
    }
    r.checked = true
    r.hasRoles = n == 2
    return r.hasRoles, nil
}

// MigrateRoleColumns applies the one-time migration that adds the
// role columns.  It is idempotent: when the columns already exist it
// does nothing.  The capability cache is refreshed on success.
func (r *SchemaRepo) MigrateRoleColumns(ctx context.Context) error {
    has, err := r.HasRoleColumns(ctx)
    if err != nil {
        return err
    }
    if has {
        return nil
    }
    const q = `ALTER TABLE users
               ADD COLUMN is_admin TINYINT(1) NOT NULL DEFAULT 0,
               ADD COLUMN is_coach TINYINT(1) NOT NULL DEFAULT 0`
    if _, err := r.db.ExecContext(ctx, q); err != nil {
        return err
    }
    r.mu.Lock()
    r.checked = true
    r.hasRoles = true
    r.mu.Unlock()
    return nil
}
