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

// CoachHandler manages coach profiles and their weekly availability
// windows.  Profile and window writes are admin only; a coach may
// also edit their own windows.
type CoachHandler struct {
    Coaches *repository.CoachRepo
    Users   *repository.UserRepo
}

func NewCoachHandler(coaches *repository.CoachRepo, users *repository.UserRepo) *CoachHandler {
    return &CoachHandler{Coaches: coaches, Users: users}
}

type coachProfileReq struct {
    UserID          uint64 `json:"userId"`
    HourlyRateCents int64  `json:"hourly_rate_cents"`
    Description     string `json:"description"`
}

type coachWindowReq struct {
    CoachID   uint64 `json:"coachId"`
    DayOfWeek int    `json:"day_of_week"`
    StartHour int    `json:"start_hour"`
    EndHour   int    `json:"end_hour"`
}

// List handles GET /api/coaches.  Open to any authenticated user so
// customers can pick a coach while booking.
func (h *CoachHandler) List(c echo.Context) error {
    items, err := h.Coaches.ListProfiles(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load coaches"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpsertProfile handles PUT /api/coaches.  Admin only.  The target
// user must exist and carry the coach role.
func (h *CoachHandler) UpsertProfile(c echo.Context) error {
    var req coachProfileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.UserID == 0 || req.HourlyRateCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and a non-negative rate are required"})
    }
    ctx := c.Request().Context()
    u, err := h.Users.GetByID(ctx, req.UserID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
    }
    if !u.IsCoach {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user does not have the coach role"})
    }
    err = h.Coaches.UpsertProfile(ctx, model.CoachProfile{
        UserID:          req.UserID,
        HourlyRateCents: uint32(req.HourlyRateCents),
        Description:     req.Description,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save coach profile"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "coach profile saved"})
}

// DeleteProfile handles DELETE /api/coaches?userId=.  Admin only.
func (h *CoachHandler) DeleteProfile(c echo.Context) error {
    userID, err := strconv.ParseUint(c.QueryParam("userId"), 10, 64)
    if err != nil || userID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid userId"})
    }
    if err := h.Coaches.DeleteProfile(c.Request().Context(), userID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "coach profile not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete coach profile"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "coach profile removed"})
}

// ListAvailability handles GET /api/coach-availability?coachId=.
// Without a coachId every coach's windows are returned.
func (h *CoachHandler) ListAvailability(c echo.Context) error {
    var coachID uint64
    var err error
    if s := c.QueryParam("coachId"); s != "" {
        if coachID, err = strconv.ParseUint(s, 10, 64); err != nil || coachID == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coachId"})
        }
    }
    items, err := h.Coaches.ListAvailability(c.Request().Context(), coachID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load coach availability"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddAvailability handles POST /api/coach-availability.  Admins may
// add windows for any coach; a coach may add their own.
func (h *CoachHandler) AddAvailability(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req coachWindowReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    coachID := req.CoachID
    if coachID == 0 {
        coachID = callerID
    }
    if coachID != callerID && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_of_week must be 0-6"})
    }
    if req.StartHour < 0 || req.StartHour > 23 || req.EndHour < 1 || req.EndHour > 24 || req.StartHour >= req.EndHour {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start/end window"})
    }
    w := &model.CoachAvailability{
        CoachID:   coachID,
        DayOfWeek: req.DayOfWeek,
        StartHour: req.StartHour,
        EndHour:   req.EndHour,
    }
    if err := h.Coaches.AddAvailability(c.Request().Context(), w); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save availability window"})
    }
    return c.JSON(http.StatusCreated, w)
}

// DeleteAvailability handles DELETE /api/coach-availability?id=.
// Admins may remove any window; a coach may only remove their own.
func (h *CoachHandler) DeleteAvailability(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    w, err := h.Coaches.GetAvailability(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "availability window not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability window"})
    }
    if w.CoachID != callerID && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Coaches.DeleteAvailability(ctx, id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "availability window not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete availability window"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "availability window removed"})
}
