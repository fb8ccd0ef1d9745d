package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/repository"
)

// DashboardHandler serves the admin aggregates.
type DashboardHandler struct {
    Dash *repository.DashboardRepo
}

func NewDashboardHandler(d *repository.DashboardRepo) *DashboardHandler {
    return &DashboardHandler{Dash: d}
}

// Get returns the headline totals plus per-activity occupancy.
func (h *DashboardHandler) Get(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    totals, err := h.Dash.GetTotals(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    occupancy, err := h.Dash.GetOccupancy(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "totals":    totals,
        "occupancy": occupancy,
    })
}
