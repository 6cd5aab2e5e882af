package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/apexsim/simstudio/internal/repository"
)

// CreditHandler exposes the credit balance and its audit trail.
// Reads are open to the owning user; the absolute overwrite is an
// admin-only maintenance operation.
type CreditHandler struct {
    Credits *repository.CreditRepo
}

func NewCreditHandler(credits *repository.CreditRepo) *CreditHandler {
    return &CreditHandler{Credits: credits}
}

type setCreditsReq struct {
    SimulatorHours   *uint32 `json:"simulator_hours"`
    CoachingSessions *uint32 `json:"coaching_sessions"`
}

// Get handles GET /api/user-credits.  Without a userId the caller's
// own balance is returned; an explicit userId requires admin.
func (h *CreditHandler) Get(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    userID := callerID
    if s := c.QueryParam("userId"); s != "" {
        if userID, err = strconv.ParseUint(s, 10, 64); err != nil || userID == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid userId"})
        }
        if userID != callerID && !isAdmin(c) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    bal, err := h.Credits.Get(c.Request().Context(), userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "credit record not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load credits"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":           bal.UserID,
        "simulator_hours":   bal.SimulatorHours,
        "coaching_sessions": bal.CoachingSessions,
        "updated_at":        bal.UpdatedAt,
    })
}

// Set handles PUT /api/user-credits?userId=.  The supplied values
// replace the stored balance outright; they are not added to it.
// Omitted fields keep their current value.  Admin only.
func (h *CreditHandler) Set(c echo.Context) error {
    userID, err := strconv.ParseUint(c.QueryParam("userId"), 10, 64)
    if err != nil || userID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid userId"})
    }
    var req setCreditsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.SimulatorHours == nil && req.CoachingSessions == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
    }
    bal, err := h.Credits.SetAbsolute(c.Request().Context(), userID, req.SimulatorHours, req.CoachingSessions)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "credit record not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update credits"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":           bal.UserID,
        "simulator_hours":   bal.SimulatorHours,
        "coaching_sessions": bal.CoachingSessions,
        "updated_at":        bal.UpdatedAt,
    })
}

// Audit handles GET /api/user-credits/audit.  Returns the most
// recent ledger movements, newest first.
func (h *CreditHandler) Audit(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    userID := callerID
    if s := c.QueryParam("userId"); s != "" {
        if userID, err = strconv.ParseUint(s, 10, 64); err != nil || userID == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid userId"})
        }
        if userID != callerID && !isAdmin(c) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    limit := 50
    if s := c.QueryParam("limit"); s != "" {
        if limit, err = strconv.Atoi(s); err != nil || limit <= 0 || limit > 500 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
        }
    }
    entries, err := h.Credits.ListAudit(c.Request().Context(), userID, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load audit entries"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
