package service

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/google/uuid"

    "github.com/rutaviva/tour-booking/internal/apperr"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/queue"
    "github.com/rutaviva/tour-booking/internal/repository"
    "github.com/rutaviva/tour-booking/internal/schedule"
)

// EventService is the event lifecycle manager: it expands recurrence
// specifications into concrete instances and cancels recurring sets
// consistently, cascading to affected reservations.
type EventService struct {
    activities ActivityStore
    events     EventStore
    users      UserDirectory
    resv       ReservationStore
    bookings   *ReservationService
    pub        queue.Publisher // nil disables audit events
    now        func() time.Time
}

// NewEventService wires the event lifecycle manager.  bookings provides
// the cascade cancellation path so reservation bookkeeping stays in one
// place.
func NewEventService(activities ActivityStore, events EventStore, users UserDirectory, resv ReservationStore, bookings *ReservationService, pub queue.Publisher) *EventService {
    if activities == nil || events == nil || users == nil || resv == nil || bookings == nil {
        panic("nil dependency passed to NewEventService")
    }
    return &EventService{
        activities: activities,
        events:     events,
        users:      users,
        resv:       resv,
        bookings:   bookings,
        pub:        pub,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// CreateEvents expands the template (optionally repeated) and appends the
// resulting instances to the activity.  Validation happens before any
// write: the activity must exist and not be cancelled, the guide must be
// an existing user with the guide role, and seats, price and language are
// required.  Ids are assigned by the store on insert.
func (s *EventService) CreateEvents(ctx context.Context, activityID uint64, tmpl schedule.Template, spec *schedule.RepeatSpec) ([]model.Event, error) {
    act, err := s.activities.GetByID(ctx, activityID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return nil, apperr.NotFound("activity not found")
        }
        return nil, apperr.From(err)
    }
    if act.State == model.ActivityCancelled {
        return nil, apperr.BadRequest("activity is cancelled")
    }
    if tmpl.Seats == 0 {
        return nil, apperr.BadRequest("seats is required")
    }
    if tmpl.PriceCents == 0 {
        return nil, apperr.BadRequest("price is required")
    }
    if tmpl.Language == "" {
        return nil, apperr.BadRequest("language is required")
    }
    if tmpl.GuideID == 0 {
        return nil, apperr.BadRequest("guide is required")
    }
    ok, err := s.users.IsGuide(ctx, tmpl.GuideID)
    if err != nil {
        return nil, apperr.From(err)
    }
    if !ok {
        return nil, apperr.NotFound("guide not found")
    }
    if err := schedule.Validate(tmpl, spec, s.now()); err != nil {
        return nil, apperr.From(err)
    }

    instances := schedule.Expand(tmpl, spec)
    if len(instances) == 0 {
        // A weekday filter excluding every day in range is legal input;
        // there is simply nothing to persist.
        return []model.Event{}, nil
    }
    inserted, err := s.events.InsertMany(ctx, act.ID, instances)
    if err != nil {
        return nil, apperr.From(err)
    }
    return inserted, nil
}

// CancelFailure records one reservation that could not be cascaded during
// a recurring cancellation.
type CancelFailure struct {
    EventID       uint64 `json:"event_id"`
    ReservationID uint64 `json:"reservation_id"`
    Reason        string `json:"reason"`
}

// CancelReport summarizes a recurring cancellation.  Events whose
// cascades all succeeded are in CancelledEvents; already-cancelled events
// are skipped untouched; an event with any failed cascade stays ACTIVE
// and its failures are listed.
type CancelReport struct {
    CancelledEvents       []uint64        `json:"cancelled_events"`
    SkippedEvents         []uint64        `json:"skipped_events,omitempty"`
    CancelledReservations int             `json:"cancelled_reservations"`
    Failures              []CancelFailure `json:"failures,omitempty"`
}

// CancelRecurringEvents cancels the recurring set seeded by eventID.
//
// With a non-empty weekday set, the selection is every event of the same
// activity sharing the seed's guide, dated inside [from, to] inclusive,
// at the seed's exact time of day, on one of the given weekdays.  With an
// empty set only the seed itself is cancelled.
//
// For every selected event all SUCCESS reservations are cancelled through
// the reservation manager (refund, state transition, seat release), and
// only then is the event marked CANCELLED.  Candidates are processed
// independently: one failing reservation never blocks the others, but its
// event is left ACTIVE and the failure is surfaced in the report and as
// an error after all feasible work has completed.  Re-running the
// operation over already-cancelled events performs no reservation work.
func (s *EventService) CancelRecurringEvents(ctx context.Context, eventID uint64, from, to time.Time, weekdays []time.Weekday) (CancelReport, error) {
    report := CancelReport{CancelledEvents: []uint64{}}

    seed, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return report, apperr.NotFound("event not found")
        }
        return report, apperr.From(err)
    }
    act, err := s.activities.GetByEventID(ctx, eventID)
    if err != nil {
        if err == repository.ErrActivityNotFound {
            return report, apperr.NotFound("activity not found")
        }
        return report, apperr.From(err)
    }

    candidates := []model.Event{seed}
    if len(weekdays) > 0 {
        if from.IsZero() || to.IsZero() {
            return report, apperr.BadRequest("date range is required with a weekday set")
        }
        if to.Before(from) {
            return report, apperr.BadRequest("date range end is before start")
        }
        include := make(map[time.Weekday]bool, len(weekdays))
        for _, wd := range weekdays {
            if wd < time.Sunday || wd > time.Saturday {
                return report, apperr.BadRequest("weekday out of range 0..6")
            }
            include[wd] = true
        }
        window, err := s.events.ListByActivityGuideWindow(ctx, act.ID, seed.GuideID, from, to)
        if err != nil {
            return report, apperr.From(err)
        }
        candidates = candidates[:0]
        for _, ev := range window {
            if ev.Date.Hour() != seed.Date.Hour() || ev.Date.Minute() != seed.Date.Minute() {
                continue
            }
            if !include[ev.Date.Weekday()] {
                continue
            }
            candidates = append(candidates, ev)
        }
    }

    toCancel := make([]uint64, 0, len(candidates))
    for _, ev := range candidates {
        if ev.State == model.EventCancelled {
            // Idempotence: nothing to refund, state stays as it is.
            report.SkippedEvents = append(report.SkippedEvents, ev.ID)
            continue
        }
        resvs, err := s.resv.ListByEventAndState(ctx, ev.ID, model.ReservationSuccess)
        if err != nil {
            report.Failures = append(report.Failures, CancelFailure{EventID: ev.ID, Reason: err.Error()})
            continue
        }
        failed := false
        for _, res := range resvs {
            if err := s.bookings.CancelForEventCancellation(ctx, res); err != nil {
                failed = true
                report.Failures = append(report.Failures, CancelFailure{
                    EventID:       ev.ID,
                    ReservationID: res.ID,
                    Reason:        err.Error(),
                })
                continue
            }
            report.CancelledReservations++
        }
        if failed {
            // The event must not read as cancelled while live successful
            // reservations still reference it.
            continue
        }
        toCancel = append(toCancel, ev.ID)
    }

    if err := s.events.SetStateBulk(ctx, toCancel, model.EventCancelled); err != nil {
        return report, apperr.From(err)
    }
    report.CancelledEvents = toCancel
    for _, id := range toCancel {
        s.auditEventCancelled(ctx, act, id)
    }

    if len(report.Failures) > 0 {
        return report, apperr.New(http.StatusBadGateway,
            fmt.Sprintf("%d reservation(s) could not be cancelled", len(report.Failures)))
    }
    return report, nil
}

func (s *EventService) auditEventCancelled(ctx context.Context, act model.Activity, eventID uint64) {
    if s.pub == nil {
        return
    }
    _ = s.pub.Publish(ctx, queue.BookingAuditEvent{
        MessageID:    uuid.NewString(),
        Kind:         queue.KindEventCancelled,
        ActivityID:   act.ID,
        ActivityName: act.Name,
        EventID:      eventID,
        OccurredAt:   s.now().Format(time.RFC3339),
    })
}
