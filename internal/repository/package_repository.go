package repository

import (
    "context"
    "database/sql"

    "github.com/apexsim/simstudio/internal/model"
)

// PackageRepo provides CRUD operations for purchasable hour
// bundles.  Delete is a soft operation: packages are deactivated,
// never removed, so audit rows and receipts keep a valid reference.
type PackageRepo struct {
    db *sql.DB
}

// NewPackageRepo returns a new PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// Create inserts a new package and populates its generated ID.
func (r *PackageRepo) Create(ctx context.Context, p *model.Package) error {
    const q = `INSERT INTO packages (name, hours, price_cents, description, is_active) VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.Name, p.Hours, p.PriceCents, p.Description, p.IsActive)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// GetByID returns a package by ID.  sql.ErrNoRows when absent.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (model.Package, error) {
    const q = `SELECT id, name, hours, price_cents, description, is_active, created_at, updated_at
               FROM packages WHERE id = ?`
    var p model.Package
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &p.ID, &p.Name, &p.Hours, &p.PriceCents, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
    )
    return p, err
}

// List returns packages ordered by price.  When activeOnly is true,
// deactivated packages are filtered out; the shop page passes true,
// the admin surface false.
func (r *PackageRepo) List(ctx context.Context, activeOnly bool) ([]model.Package, error) {
    q := `SELECT id, name, hours, price_cents, description, is_active, created_at, updated_at FROM packages`
    if activeOnly {
        q += ` WHERE is_active = 1`
    }
    q += ` ORDER BY price_cents ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Package, 0)
    for rows.Next() {
        var p model.Package
        if err := rows.Scan(&p.ID, &p.Name, &p.Hours, &p.PriceCents, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update edits all mutable fields of a package.  Returns
// sql.ErrNoRows when the package does not exist.
func (r *PackageRepo) Update(ctx context.Context, p model.Package) error {
    const q = `UPDATE packages SET name=?, hours=?, price_cents=?, description=?, is_active=? WHERE id=?`
    res, err := r.db.ExecContext(ctx, q, p.Name, p.Hours, p.PriceCents, p.Description, p.IsActive, p.ID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil {
        return err
    } else if n == 0 {
        var exists int
        if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE id=?`, p.ID).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// Deactivate flips is_active off.  This is what the DELETE endpoint
// calls; the row stays.  Returns sql.ErrNoRows when absent.
func (r *PackageRepo) Deactivate(ctx context.Context, id uint64) error {
    const q = `UPDATE packages SET is_active = 0 WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists int
        err := r.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE id=?`, id).Scan(&exists)
        if err != nil {
            return err
        }
    }
    return nil
}
