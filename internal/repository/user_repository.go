package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/utils"
)

// UserRepo persists user accounts.  Role flag reads and writes are
// gated on the schema capability check: when the users table lacks
// the is_admin/is_coach columns, role fields read as false and role
// edits fail with ErrMigrationRequired.
type UserRepo struct {
    DB     *sql.DB
    Schema *SchemaRepo
}

func NewUserRepo(db *sql.DB, schema *SchemaRepo) *UserRepo { return &UserRepo{DB: db, Schema: schema} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user together with their zeroed credit balance in
// one transaction and returns the new user's ID.  Every account owns
// a balance row from the moment it exists, so the ledger never has
// to lazily create one mid-debit.
func (r *UserRepo) Create(ctx context.Context, email, password, name, mobile string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, name, mobile) VALUES (?,?,?,?)",
        email, hash, name, mobile)
    if err != nil {
        if isDuplicateKey(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    if _, err := tx.ExecContext(ctx,
        "INSERT INTO user_credits (user_id, simulator_hours, coaching_sessions) VALUES (?, 0, 0)",
        uint64(id)); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return r.getWhere(ctx, "email=?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg interface{}) (model.User, error) {
    hasRoles, err := r.Schema.HasRoleColumns(ctx)
    if err != nil {
        return model.User{}, err
    }
    var u model.User
    if hasRoles {
        err = r.DB.QueryRowContext(ctx,
            "SELECT id,email,password_hash,name,mobile,is_admin,is_coach,is_active,created_at,updated_at FROM users WHERE "+where+" LIMIT 1",
            arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Mobile, &u.IsAdmin, &u.IsCoach, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    } else {
        err = r.DB.QueryRowContext(ctx,
            "SELECT id,email,password_hash,name,mobile,is_active,created_at,updated_at FROM users WHERE "+where+" LIMIT 1",
            arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Mobile, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    }
    return u, err
}

// List returns all users ordered by creation time, newest first.
// Role flags read as false when the schema predates them.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
    hasRoles, err := r.Schema.HasRoleColumns(ctx)
    if err != nil {
        return nil, err
    }
    q := "SELECT id,email,password_hash,name,mobile,is_active,created_at,updated_at FROM users ORDER BY created_at DESC"
    if hasRoles {
        q = "SELECT id,email,password_hash,name,mobile,is_admin,is_coach,is_active,created_at,updated_at FROM users ORDER BY created_at DESC"
    }
    rows, err := r.DB.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    users := make([]model.User, 0)
    for rows.Next() {
        var u model.User
        if hasRoles {
            err = rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Mobile, &u.IsAdmin, &u.IsCoach, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
        } else {
            err = rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Mobile, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
        }
        if err != nil {
            return nil, err
        }
        users = append(users, u)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return users, nil
}

// UpdateProfile edits the user's display fields.  Returns
// sql.ErrNoRows when the user does not exist.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, mobile string) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE users SET name=?, mobile=? WHERE id=?", name, mobile, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // RowsAffected is also zero on a no-op update; confirm existence.
        var exists int
        if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// UpdateRoles sets the admin/coach flags.  When the schema lacks the
// role columns, ErrMigrationRequired is returned and the caller must
// prompt the one-time migration before retrying.
func (r *UserRepo) UpdateRoles(ctx context.Context, id uint64, isAdmin, isCoach bool) error {
    hasRoles, err := r.Schema.HasRoleColumns(ctx)
    if err != nil {
        return err
    }
    if !hasRoles {
        return ErrMigrationRequired
    }
    res, err := r.DB.ExecContext(ctx,
        "UPDATE users SET is_admin=?, is_coach=? WHERE id=?", isAdmin, isCoach, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil {
        return err
    } else if n == 0 {
        var exists int
        if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// Delete removes a user permanently.  This is the explicit,
// irreversible admin path; normal flows never hard-delete accounts.
// Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}
