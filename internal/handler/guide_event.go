package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/apperr"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/repository"
    "github.com/rutaviva/tour-booking/internal/schedule"
    "github.com/rutaviva/tour-booking/internal/service"
)

// EventHandler serves the guide-facing event endpoints: creating event
// series from a recurrence specification and cancelling recurring sets.
type EventHandler struct {
    Svc        *service.EventService
    Activities *repository.ActivityRepo
    Events     *repository.EventRepo
    Resv       *repository.ReservationRepo
}

func NewEventHandler(svc *service.EventService, a *repository.ActivityRepo, e *repository.EventRepo, r *repository.ReservationRepo) *EventHandler {
    return &EventHandler{Svc: svc, Activities: a, Events: e, Resv: r}
}

type repeatReq struct {
    Type     string   `json:"type"` // single | days | range
    Date     string   `json:"date"`
    Days     []string `json:"days"`
    Start    string   `json:"start"`
    End      string   `json:"end"`
    Weekdays []int    `json:"weekdays"` // 0=Sunday .. 6=Saturday
    Time     string   `json:"time"`     // "HH:MM"
}

type createEventsReq struct {
    Date       string     `json:"date"` // RFC3339, used when repeat is absent
    Seats      uint32     `json:"seats"`
    PriceCents uint32     `json:"price_cents"`
    Language   string     `json:"language"`
    GuideID    uint64     `json:"guide_id"`
    Repeat     *repeatReq `json:"repeat"`
}

type eventResp struct {
    ID          uint64    `json:"id"`
    ActivityID  uint64    `json:"activity_id"`
    Date        time.Time `json:"date"`
    Seats       uint32    `json:"seats"`
    BookedSeats uint32    `json:"booked_seats"`
    PriceCents  uint32    `json:"price_cents"`
    Language    string    `json:"language"`
    GuideID     uint64    `json:"guide_id"`
    State       string    `json:"state"`
}

func toEventResp(ev model.Event) eventResp {
    return eventResp{
        ID:          ev.ID,
        ActivityID:  ev.ActivityID,
        Date:        ev.Date,
        Seats:       ev.Seats,
        BookedSeats: ev.BookedSeats,
        PriceCents:  ev.PriceCents,
        Language:    ev.Language,
        GuideID:     ev.GuideID,
        State:       string(ev.State),
    }
}

func parseDate(s string) (time.Time, error) {
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return time.Time{}, apperr.BadRequest("invalid date " + s)
    }
    return t.UTC(), nil
}

// buildRepeatSpec maps the wire DTO onto the expander's value object.
func buildRepeatSpec(req *repeatReq) (*schedule.RepeatSpec, error) {
    if req == nil {
        return nil, nil
    }
    spec := &schedule.RepeatSpec{Kind: schedule.RepeatKind(req.Type)}
    if req.Time != "" {
        tod, err := schedule.ParseTimeOfDay(req.Time)
        if err != nil {
            return nil, apperr.BadRequest(err.Error())
        }
        spec.Time = tod
    }
    switch spec.Kind {
    case schedule.RepeatSingle:
        if req.Date != "" {
            d, err := parseDate(req.Date)
            if err != nil {
                return nil, err
            }
            spec.Date = d
        }
    case schedule.RepeatDays:
        for _, s := range req.Days {
            d, err := parseDate(s)
            if err != nil {
                return nil, err
            }
            spec.Days = append(spec.Days, d)
        }
    case schedule.RepeatRange:
        if req.Start != "" {
            d, err := parseDate(req.Start)
            if err != nil {
                return nil, err
            }
            spec.Start = d
        }
        if req.End != "" {
            d, err := parseDate(req.End)
            if err != nil {
                return nil, err
            }
            spec.End = d
        }
        for _, wd := range req.Weekdays {
            spec.Weekdays = append(spec.Weekdays, time.Weekday(wd))
        }
    default:
        return nil, apperr.BadRequest("unknown repeat type")
    }
    return spec, nil
}

// ownsActivity enforces that the caller owns the activity or is an admin.
func (h *EventHandler) ownsActivity(c echo.Context, act model.Activity) bool {
    uid, ok := currentUserID(c)
    if !ok {
        return false
    }
    return act.OwnerID == uid || c.Get("role") == model.RoleAdmin
}

// Create expands the request into concrete events on the activity.
func (h *EventHandler) Create(c echo.Context) error {
    activityID, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    var req createEventsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    act, err := h.Activities.GetByID(ctx, activityID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "activity not found"})
        }
        return writeErr(c, err)
    }
    if !h.ownsActivity(c, act) {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "forbidden"})
    }

    tmpl := schedule.Template{
        Seats:      req.Seats,
        PriceCents: req.PriceCents,
        Language:   req.Language,
        GuideID:    req.GuideID,
    }
    if req.Date != "" {
        d, err := parseDate(req.Date)
        if err != nil {
            return writeErr(c, err)
        }
        tmpl.Date = d
    }
    spec, err := buildRepeatSpec(req.Repeat)
    if err != nil {
        return writeErr(c, err)
    }

    created, err := h.Svc.CreateEvents(ctx, activityID, tmpl, spec)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]eventResp, 0, len(created))
    for _, ev := range created {
        out = append(out, toEventResp(ev))
    }
    return c.JSON(http.StatusCreated, echo.Map{"events": out})
}

type cancelRecurringReq struct {
    From     string `json:"from"`
    To       string `json:"to"`
    Weekdays []int  `json:"weekdays"`
}

// CancelRecurring cancels the recurring set seeded by the event in the
// path.  An empty weekday list cancels just that event.  The response is
// the full report; partial failures come back as 502 with the report
// attached so the client can see what did succeed.
func (h *EventHandler) CancelRecurring(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    var req cancelRecurringReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    act, err := h.Activities.GetByEventID(ctx, eventID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "event not found"})
        }
        return writeErr(c, err)
    }
    if !h.ownsActivity(c, act) {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "forbidden"})
    }

    var from, to time.Time
    if req.From != "" {
        if from, err = parseDate(req.From); err != nil {
            return writeErr(c, err)
        }
    }
    if req.To != "" {
        if to, err = parseDate(req.To); err != nil {
            return writeErr(c, err)
        }
        // An inclusive date-only upper bound covers the whole day.
        if to.Hour() == 0 && to.Minute() == 0 {
            to = to.Add(24*time.Hour - time.Second)
        }
    }
    weekdays := make([]time.Weekday, 0, len(req.Weekdays))
    for _, wd := range req.Weekdays {
        weekdays = append(weekdays, time.Weekday(wd))
    }

    report, err := h.Svc.CancelRecurringEvents(ctx, eventID, from, to, weekdays)
    if err != nil {
        ae := apperr.From(err)
        return c.JSON(ae.Status, echo.Map{"status": ae.Status, "message": ae.Message, "report": report})
    }
    return c.JSON(http.StatusOK, report)
}

// ListByActivity lists the events of one of the caller's activities.
func (h *EventHandler) ListByActivity(c echo.Context) error {
    activityID, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    act, err := h.Activities.GetByID(ctx, activityID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "activity not found"})
        }
        return writeErr(c, err)
    }
    if !h.ownsActivity(c, act) {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "forbidden"})
    }

    evs, err := h.Events.ListByActivity(ctx, activityID)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]eventResp, 0, len(evs))
    for _, ev := range evs {
        out = append(out, toEventResp(ev))
    }
    return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// ListReservations lists the reservations on one of the caller's events
// so the guide knows who is coming.
func (h *EventHandler) ListReservations(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    act, err := h.Activities.GetByEventID(ctx, eventID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "event not found"})
        }
        return writeErr(c, err)
    }
    if !h.ownsActivity(c, act) {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "forbidden"})
    }

    resvs, err := h.Resv.ListByEventForOwner(ctx, eventID)
    if err != nil {
        return writeErr(c, err)
    }
    type guestResp struct {
        ID         uint64 `json:"id"`
        Name       string `json:"name"`
        Email      string `json:"email"`
        Telephone  string `json:"telephone,omitempty"`
        NumPersons uint32 `json:"num_persons"`
        State      string `json:"state"`
    }
    out := make([]guestResp, 0, len(resvs))
    for _, r := range resvs {
        out = append(out, guestResp{
            ID:         r.ID,
            Name:       r.Name,
            Email:      r.Email,
            Telephone:  r.Telephone,
            NumPersons: r.NumPersons,
            State:      string(r.State),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
