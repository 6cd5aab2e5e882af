package handler

import (
    "database/sql"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/repository"
)

// HoursHandler manages the weekly business-hours table and the
// per-date overrides.  Reads are open to any authenticated user so
// the booking UI can render the calendar; writes are admin only.
type HoursHandler struct {
    Hours *repository.HoursRepo
}

func NewHoursHandler(hours *repository.HoursRepo) *HoursHandler {
    return &HoursHandler{Hours: hours}
}

type businessHoursReq struct {
    DayOfWeek int  `json:"day_of_week"`
    OpenHour  int  `json:"open_hour"`
    CloseHour int  `json:"close_hour"`
    IsClosed  bool `json:"is_closed"`
}

type specialDateReq struct {
    Date      string `json:"date"` // YYYY-MM-DD
    OpenHour  int    `json:"open_hour"`
    CloseHour int    `json:"close_hour"`
    IsClosed  bool   `json:"is_closed"`
    Reason    string `json:"reason"`
}

func validHoursWindow(open, close int, closed bool) bool {
    if closed {
        return true
    }
    return open >= 0 && open <= 23 && close >= 1 && close <= 24 && open < close
}

// ListBusinessHours handles GET /api/business-hours.
func (h *HoursHandler) ListBusinessHours(c echo.Context) error {
    items, err := h.Hours.ListBusinessHours(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load business hours"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetBusinessHours handles PUT /api/business-hours.  Upserts the row
// for one weekday.  Admin only.
func (h *HoursHandler) SetBusinessHours(c echo.Context) error {
    var req businessHoursReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_of_week must be 0-6"})
    }
    if !validHoursWindow(req.OpenHour, req.CloseHour, req.IsClosed) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid open/close window"})
    }
    err := h.Hours.UpsertBusinessHours(c.Request().Context(), model.BusinessHours{
        DayOfWeek: req.DayOfWeek,
        OpenHour:  req.OpenHour,
        CloseHour: req.CloseHour,
        IsClosed:  req.IsClosed,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save business hours"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "business hours saved"})
}

// ListSpecialDates handles GET /api/special-dates?from=.  With no
// from parameter only today and later are returned.
func (h *HoursHandler) ListSpecialDates(c echo.Context) error {
    from := c.QueryParam("from")
    if from != "" {
        if _, err := parseDay(from); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
        }
    }
    items, err := h.Hours.ListSpecialDates(c.Request().Context(), from)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load special dates"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetSpecialDate handles PUT /api/special-dates.  A special date
// replaces the weekday hours outright for that calendar day; setting
// is_closed makes it a full closure.  Admin only.
func (h *HoursHandler) SetSpecialDate(c echo.Context) error {
    var req specialDateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if _, err := parseDay(req.Date); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
    }
    if !validHoursWindow(req.OpenHour, req.CloseHour, req.IsClosed) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid open/close window"})
    }
    err := h.Hours.UpsertSpecialDate(c.Request().Context(), model.SpecialDate{
        Date:      req.Date,
        OpenHour:  req.OpenHour,
        CloseHour: req.CloseHour,
        IsClosed:  req.IsClosed,
        Reason:    req.Reason,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save special date"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "special date saved"})
}

// DeleteSpecialDate handles DELETE /api/special-dates?date=.  The
// weekday hours apply again once the override row is gone.
func (h *HoursHandler) DeleteSpecialDate(c echo.Context) error {
    date := c.QueryParam("date")
    if _, err := parseDay(date); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
    }
    if err := h.Hours.DeleteSpecialDate(c.Request().Context(), date); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "special date not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete special date"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "special date removed"})
}
