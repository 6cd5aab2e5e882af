package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/repository"
)

// UserHandler is the admin surface over user accounts: listing,
// role assignment, profile edits and deletion, plus the one-shot
// schema migration that adds the role columns to installs predating
// them.
type UserHandler struct {
    Users  *repository.UserRepo
    Schema *repository.SchemaRepo
}

func NewUserHandler(users *repository.UserRepo, schema *repository.SchemaRepo) *UserHandler {
    return &UserHandler{Users: users, Schema: schema}
}

type updateUserReq struct {
    Name    string `json:"name"`
    Mobile  string `json:"mobile"`
    IsAdmin *bool  `json:"is_admin"`
    IsCoach *bool  `json:"is_coach"`
}

type userView struct {
    ID        uint64 `json:"id"`
    Email     string `json:"email"`
    Name      string `json:"name"`
    Mobile    string `json:"mobile"`
    Role      string `json:"role"`
    IsActive  bool   `json:"is_active"`
    CreatedAt string `json:"created_at"`
}

func viewOf(u model.User) userView {
    return userView{
        ID:        u.ID,
        Email:     u.Email,
        Name:      u.Name,
        Mobile:    u.Mobile,
        Role:      model.RoleOf(u),
        IsActive:  u.IsActive,
        CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
    }
}

// List handles GET /api/users.  Admin only.  The needsMigration flag
// tells the admin UI whether role assignment is available on this
// install's schema.
func (h *UserHandler) List(c echo.Context) error {
    ctx := c.Request().Context()
    users, err := h.Users.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
    }
    views := make([]userView, 0, len(users))
    for _, u := range users {
        views = append(views, viewOf(u))
    }
    hasRoles, err := h.Schema.HasRoleColumns(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to inspect schema"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items":          views,
        "needsMigration": !hasRoles,
    })
}

// Update handles PUT /api/users?id=.  Admin only.  Profile fields
// and role flags may be changed in one call; role changes on a
// schema without the role columns come back as 409 with the
// needsMigration flag so the client can offer the migration.
func (h *UserHandler) Update(c echo.Context) error {
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req updateUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx := c.Request().Context()
    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
    }
    if req.Name != "" || req.Mobile != "" {
        name, mobile := u.Name, u.Mobile
        if req.Name != "" {
            name = req.Name
        }
        if req.Mobile != "" {
            mobile = req.Mobile
        }
        if err := h.Users.UpdateProfile(ctx, id, name, mobile); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
        }
    }
    if req.IsAdmin != nil || req.IsCoach != nil {
        isAdminFlag, isCoachFlag := u.IsAdmin, u.IsCoach
        if req.IsAdmin != nil {
            isAdminFlag = *req.IsAdmin
        }
        if req.IsCoach != nil {
            isCoachFlag = *req.IsCoach
        }
        if err := h.Users.UpdateRoles(ctx, id, isAdminFlag, isCoachFlag); err != nil {
            if errors.Is(err, repository.ErrMigrationRequired) {
                return c.JSON(http.StatusConflict, echo.Map{
                    "error":          "role columns missing, run the migration first",
                    "needsMigration": true,
                })
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update roles"})
        }
    }
    updated, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reload user"})
    }
    return c.JSON(http.StatusOK, viewOf(updated))
}

// Delete handles DELETE /api/users?id=.  Admin only.  Admins cannot
// delete their own account.
func (h *UserHandler) Delete(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if id == callerID {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
    }
    if err := h.Users.Delete(c.Request().Context(), id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// Migrate handles POST /api/admin/migrate.  Adds the is_admin and
// is_coach columns when missing.  Safe to call repeatedly.
func (h *UserHandler) Migrate(c echo.Context) error {
    if err := h.Schema.MigrateRoleColumns(c.Request().Context()); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "migration failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":        "schema up to date",
        "needsMigration": false,
    })
}
