package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// may define separate response types with appropriate JSON tags.
// The IsAdmin and IsCoach flags live in dedicated columns that are
// added by a one-time schema migration; repositories must check
// for their presence before reading or writing them.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown in the booking portal.
//  Mobile       – contact number (optional, may be empty).
//  IsAdmin      – whether the user may use the admin surface.
//  IsCoach      – whether the user offers coached sessions.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Name         string    // users.name
    Mobile       string    // users.mobile
    IsAdmin      bool      // users.is_admin (migration-gated)
    IsCoach      bool      // users.is_coach (migration-gated)
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Role names carried in the JWT "role" claim. They are derived from
// the user's flag columns at token issue time and never stored.
const (
    RoleAdmin    = "ADMIN"
    RoleCoach    = "COACH"
    RoleCustomer = "CUSTOMER"
)

// RoleOf maps a user's flag columns to the role carried in tokens.
// Admin wins over coach when both flags are set.
func RoleOf(u User) string {
    switch {
    case u.IsAdmin:
        return RoleAdmin
    case u.IsCoach:
        return RoleCoach
    default:
        return RoleCustomer
    }
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
