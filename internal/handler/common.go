package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/apperr"
)

// Error responses share one shape everywhere: {"status": n, "message": s}.

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"status": http.StatusBadRequest, "message": msg})
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"status": http.StatusUnauthorized, "message": msg})
}

func internalError(c echo.Context, msg string) error {
    return c.JSON(http.StatusInternalServerError, echo.Map{"status": http.StatusInternalServerError, "message": msg})
}

// writeErr renders a service error.  apperr values pass through with
// their status; anything else is demoted to a generic 500.
func writeErr(c echo.Context, err error) error {
    ae := apperr.From(err)
    return c.JSON(ae.Status, ae)
}

// currentUserID reads the user id stored by the JWT middleware.  The sub
// claim round-trips through JSON so numbers arrive as float64.
func currentUserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v), v > 0
    case uint64:
        return v, v > 0
    case string:
        n, err := strconv.ParseUint(v, 10, 64)
        return n, err == nil && n > 0
    default:
        return 0, false
    }
}

// paramID parses a positive numeric path parameter.  Everything else,
// including "abc" and "-1", is a malformed identifier.
func paramID(c echo.Context, name string) (uint64, error) {
    raw := c.Param(name)
    n, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || n == 0 {
        return 0, apperr.BadRequest("invalid " + name)
    }
    return n, nil
}
