package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/repository"
)

// ActivityHandler serves the guide-facing activity endpoints.  Guides can
// only touch their own activities; admins can touch everything.
type ActivityHandler struct {
    Activities *repository.ActivityRepo
}

func NewActivityHandler(a *repository.ActivityRepo) *ActivityHandler {
    return &ActivityHandler{Activities: a}
}

type activityReq struct {
    Name        string   `json:"name"`
    Location    string   `json:"location"`
    DurationMin uint32   `json:"duration_min"`
    Description string   `json:"description"`
    Accessible  bool     `json:"accessible"`
    PetsAllowed bool     `json:"pets_allowed"`
    Category    string   `json:"category"`
    Images      []string `json:"images"`
    State       string   `json:"state"` // update only: OPEN | STOPPED | CANCELLED
}

type activityResp struct {
    ID          uint64   `json:"id"`
    Name        string   `json:"name"`
    Location    string   `json:"location"`
    DurationMin uint32   `json:"duration_min"`
    Description string   `json:"description"`
    Accessible  bool     `json:"accessible"`
    PetsAllowed bool     `json:"pets_allowed"`
    Category    string   `json:"category"`
    State       string   `json:"state"`
    Images      []string `json:"images"`
}

func toActivityResp(a model.Activity) activityResp {
    return activityResp{
        ID:          a.ID,
        Name:        a.Name,
        Location:    a.Location,
        DurationMin: a.DurationMin,
        Description: a.Description,
        Accessible:  a.Accessible,
        PetsAllowed: a.PetsAllowed,
        Category:    a.Category,
        State:       string(a.State),
        Images:      a.Images,
    }
}

// Create registers a new activity owned by the current guide.  It starts
// OPEN with no events.
func (h *ActivityHandler) Create(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    var req activityReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return badRequest(c, "name is required")
    }
    if strings.TrimSpace(req.Category) == "" {
        return badRequest(c, "category is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    act := model.Activity{
        OwnerID:     uid,
        Name:        req.Name,
        Location:    strings.TrimSpace(req.Location),
        DurationMin: req.DurationMin,
        Description: req.Description,
        Accessible:  req.Accessible,
        PetsAllowed: req.PetsAllowed,
        Category:    strings.TrimSpace(req.Category),
        State:       model.ActivityOpen,
        Images:      req.Images,
    }
    if err := h.Activities.Create(ctx, &act); err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, toActivityResp(act))
}

// Update edits an activity the caller owns.  The state field accepts the
// guide-driven transitions (stop, reopen, cancel); a cancelled activity
// stays cancelled.
func (h *ActivityHandler) Update(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    id, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    var req activityReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    act, err := h.Activities.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "activity not found"})
        }
        return writeErr(c, err)
    }
    if act.OwnerID != uid && c.Get("role") != model.RoleAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "forbidden"})
    }
    if act.State == model.ActivityCancelled {
        return badRequest(c, "activity is cancelled")
    }

    if name := strings.TrimSpace(req.Name); name != "" {
        act.Name = name
    }
    if loc := strings.TrimSpace(req.Location); loc != "" {
        act.Location = loc
    }
    if req.DurationMin > 0 {
        act.DurationMin = req.DurationMin
    }
    if req.Description != "" {
        act.Description = req.Description
    }
    if cat := strings.TrimSpace(req.Category); cat != "" {
        act.Category = cat
    }
    act.Accessible = req.Accessible
    act.PetsAllowed = req.PetsAllowed
    if req.Images != nil {
        act.Images = req.Images
    }
    if req.State != "" {
        switch model.ActivityState(strings.ToUpper(req.State)) {
        case model.ActivityOpen:
            act.State = model.ActivityOpen
        case model.ActivityStopped:
            act.State = model.ActivityStopped
        case model.ActivityCancelled:
            act.State = model.ActivityCancelled
        default:
            return badRequest(c, "unknown activity state")
        }
    }

    if err := h.Activities.Update(ctx, &act); err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toActivityResp(act))
}

// ListMine lists the caller's activities, newest first.
func (h *ActivityHandler) ListMine(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    acts, err := h.Activities.ListByOwner(ctx, uid)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]activityResp, 0, len(acts))
    for _, a := range acts {
        out = append(out, toActivityResp(a))
    }
    return c.JSON(http.StatusOK, echo.Map{"activities": out})
}
