package handler

import (
    "bytes"
    "context"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/yuin/goldmark"
    "github.com/yuin/goldmark/extension"

    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/repository"
)

// BrowseHandler serves the public catalog: activity descriptions are
// authored in markdown by guides and rendered to HTML here, once per
// request, behind the response cache.
type BrowseHandler struct {
    Activities *repository.ActivityRepo
    Events     *repository.EventRepo
    Reviews    *repository.ReviewRepo
    md         goldmark.Markdown
}

func NewBrowseHandler(a *repository.ActivityRepo, e *repository.EventRepo, r *repository.ReviewRepo) *BrowseHandler {
    return &BrowseHandler{
        Activities: a,
        Events:     e,
        Reviews:    r,
        md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
    }
}

// renderDescription converts a markdown description to HTML.  On render
// failure the raw text is returned so the listing still works.
func (h *BrowseHandler) renderDescription(src string) string {
    if src == "" {
        return ""
    }
    var buf bytes.Buffer
    if err := h.md.Convert([]byte(src), &buf); err != nil {
        log.Printf("browse: markdown render failed: %v", err)
        return src
    }
    return buf.String()
}

type publicActivityResp struct {
    activityResp
    DescriptionHTML string `json:"description_html"`
}

func (h *BrowseHandler) toPublicResp(a model.Activity) publicActivityResp {
    return publicActivityResp{
        activityResp:    toActivityResp(a),
        DescriptionHTML: h.renderDescription(a.Description),
    }
}

// ListActivities lists OPEN activities, optionally filtered by category.
func (h *BrowseHandler) ListActivities(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    acts, err := h.Activities.ListOpen(ctx, c.QueryParam("category"))
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]publicActivityResp, 0, len(acts))
    for _, a := range acts {
        out = append(out, h.toPublicResp(a))
    }
    return c.JSON(http.StatusOK, echo.Map{"activities": out})
}

type reviewResp struct {
    ID        uint64    `json:"id"`
    Rating    uint8     `json:"rating"`
    Comment   string    `json:"comment"`
    CreatedAt time.Time `json:"created_at"`
}

// GetActivity returns one activity with its upcoming events and reviews.
func (h *BrowseHandler) GetActivity(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
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

    evs, err := h.Events.ListByActivity(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    now := time.Now().UTC()
    upcoming := make([]eventResp, 0, len(evs))
    for _, ev := range evs {
        if ev.State == model.EventActive && ev.Date.After(now) {
            upcoming = append(upcoming, toEventResp(ev))
        }
    }

    reviews, err := h.Reviews.ListByActivity(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    revs := make([]reviewResp, 0, len(reviews))
    for _, r := range reviews {
        revs = append(revs, reviewResp{ID: r.ID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "activity": h.toPublicResp(act),
        "events":   upcoming,
        "reviews":  revs,
    })
}

// ListEvents lists the bookable events of an activity: active, in the
// future, with at least one free seat.
func (h *BrowseHandler) ListEvents(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Activities.GetByID(ctx, id); err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "activity not found"})
        }
        return writeErr(c, err)
    }
    evs, err := h.Events.ListByActivity(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    now := time.Now().UTC()
    out := make([]eventResp, 0, len(evs))
    for _, ev := range evs {
        if ev.State == model.EventActive && ev.Date.After(now) && ev.BookedSeats < ev.Seats {
            out = append(out, toEventResp(ev))
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"events": out})
}
