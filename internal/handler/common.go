package handler

import (
    "errors"
    "strconv"
    "time"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it
// to uint64.  The JWT middleware stores the raw claim value, whose
// concrete type depends on how the token was decoded.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the request carries the ADMIN role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == model.RoleAdmin
}

// parseDay parses a YYYY-MM-DD date into midnight UTC of that day.
func parseDay(s string) (time.Time, error) {
    return time.Parse("2006-01-02", s)
}

// dayKey is the canonical grouping key for the admin booking list: a
// YYYY-MM-DD string derived from the stored UTC timestamp.  Locale
// date strings are deliberately not used as keys; they vary by
// client locale and timezone while the stored timestamp does not.
func dayKey(t time.Time) string {
    return t.UTC().Format("2006-01-02")
}
