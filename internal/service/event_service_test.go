package service

import (
    "context"
    "net/http"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/rutaviva/tour-booking/internal/apperr"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/queue"
    "github.com/rutaviva/tour-booking/internal/schedule"
)

type eventFixture struct {
    svc        *EventService
    activities *fakeActivityStore
    events     *fakeEventStore
    users      *fakeUserDirectory
    resv       *fakeReservationStore
    pay        *fakePayment
    pub        *recorderPublisher
}

func newEventFixture(t *testing.T) *eventFixture {
    t.Helper()
    f := &eventFixture{
        activities: newFakeActivityStore(),
        events:     newFakeEventStore(),
        users:      newFakeUserDirectory(),
        resv:       newFakeReservationStore(),
        pay:        newFakePayment(),
        pub:        &recorderPublisher{},
    }
    bookings := NewReservationService(f.events, f.resv, f.pay, nil, f.pub)
    bookings.now = func() time.Time { return testNow }
    f.svc = NewEventService(f.activities, f.events, f.users, f.resv, bookings, f.pub)
    f.svc.now = func() time.Time { return testNow }

    f.activities.activities[1] = model.Activity{ID: 1, Name: "Kayak tour", State: model.ActivityOpen}
    f.users.guides[7] = true
    return f
}

func (f *eventFixture) seedEvent(date time.Time, state model.EventState) model.Event {
    ev := f.events.add(model.Event{
        ActivityID: 1,
        Date:       date,
        Seats:      10,
        PriceCents: 2500,
        Language:   "en",
        GuideID:    7,
        State:      state,
    })
    f.activities.byEvent[ev.ID] = 1
    return ev
}

func validTemplate(date time.Time) schedule.Template {
    return schedule.Template{
        Date:       date,
        Seats:      10,
        PriceCents: 2500,
        Language:   "en",
        GuideID:    7,
    }
}

func TestCreateEvents(t *testing.T) {
    ctx := context.Background()

    t.Run("single event from a bare template", func(t *testing.T) {
        f := newEventFixture(t)
        date := testNow.Add(48 * time.Hour)

        created, err := f.svc.CreateEvents(ctx, 1, validTemplate(date), nil)
        require.NoError(t, err)
        require.Len(t, created, 1)
        assert.Equal(t, date, created[0].Date)
        assert.Equal(t, uint64(1), created[0].ActivityID)
        assert.Equal(t, model.EventActive, created[0].State)
        assert.Zero(t, created[0].BookedSeats)
    })

    t.Run("range repeat persists every expanded instance", func(t *testing.T) {
        f := newEventFixture(t)
        start := time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC) // Monday
        spec := &schedule.RepeatSpec{
            Kind:     schedule.RepeatRange,
            Start:    start,
            End:      start.Add(13 * 24 * time.Hour),
            Weekdays: []time.Weekday{time.Monday, time.Friday},
            Time:     schedule.TimeOfDay{Hour: 20},
        }

        created, err := f.svc.CreateEvents(ctx, 1, validTemplate(time.Time{}), spec)
        require.NoError(t, err)
        require.Len(t, created, 4)
        for _, ev := range created {
            stored, err := f.events.GetByID(ctx, ev.ID)
            require.NoError(t, err)
            assert.Equal(t, 20, stored.Date.Hour())
            wd := stored.Date.Weekday()
            assert.True(t, wd == time.Monday || wd == time.Friday)
        }
    })

    t.Run("empty expansion persists nothing", func(t *testing.T) {
        f := newEventFixture(t)
        // A Tuesday-to-Tuesday single-day window asking for Fridays.
        day := time.Date(2025, time.July, 8, 0, 0, 0, 0, time.UTC)
        spec := &schedule.RepeatSpec{
            Kind:     schedule.RepeatRange,
            Start:    day,
            End:      day,
            Weekdays: []time.Weekday{time.Friday},
            Time:     schedule.TimeOfDay{Hour: 20},
        }

        created, err := f.svc.CreateEvents(ctx, 1, validTemplate(time.Time{}), spec)
        require.NoError(t, err)
        assert.Empty(t, created)
        assert.Empty(t, f.events.events)
    })

    t.Run("unknown activity persists nothing", func(t *testing.T) {
        f := newEventFixture(t)
        _, err := f.svc.CreateEvents(ctx, 99, validTemplate(testNow.Add(time.Hour)), nil)
        assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
        assert.Empty(t, f.events.events)
    })

    t.Run("cancelled activity rejects new events", func(t *testing.T) {
        f := newEventFixture(t)
        f.activities.activities[2] = model.Activity{ID: 2, State: model.ActivityCancelled}
        _, err := f.svc.CreateEvents(ctx, 2, validTemplate(testNow.Add(time.Hour)), nil)
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
    })

    t.Run("non-guide user is guide not found", func(t *testing.T) {
        f := newEventFixture(t)
        tmpl := validTemplate(testNow.Add(time.Hour))
        tmpl.GuideID = 1234

        _, err := f.svc.CreateEvents(ctx, 1, tmpl, nil)
        require.Error(t, err)
        assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
        var appErr *apperr.Error
        require.ErrorAs(t, err, &appErr)
        assert.Equal(t, "guide not found", appErr.Message)
    })

    t.Run("missing template fields are rejected", func(t *testing.T) {
        f := newEventFixture(t)
        for name, mutate := range map[string]func(*schedule.Template){
            "no seats":    func(tm *schedule.Template) { tm.Seats = 0 },
            "no price":    func(tm *schedule.Template) { tm.PriceCents = 0 },
            "no language": func(tm *schedule.Template) { tm.Language = "" },
            "no guide":    func(tm *schedule.Template) { tm.GuideID = 0 },
        } {
            tmpl := validTemplate(testNow.Add(time.Hour))
            mutate(&tmpl)
            _, err := f.svc.CreateEvents(ctx, 1, tmpl, nil)
            assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err), name)
        }
    })
}

func TestCancelRecurringEvents(t *testing.T) {
    ctx := context.Background()

    t.Run("empty weekday set cancels only the seed", func(t *testing.T) {
        f := newEventFixture(t)
        seed := f.seedEvent(testNow.Add(48*time.Hour), model.EventActive)
        other := f.seedEvent(testNow.Add(72*time.Hour), model.EventActive)

        report, err := f.svc.CancelRecurringEvents(ctx, seed.ID, time.Time{}, time.Time{}, nil)
        require.NoError(t, err)
        assert.Equal(t, []uint64{seed.ID}, report.CancelledEvents)

        got, _ := f.events.GetByID(ctx, other.ID)
        assert.Equal(t, model.EventActive, got.State)
    })

    t.Run("weekday set selects matching events in window", func(t *testing.T) {
        f := newEventFixture(t)
        monday := time.Date(2025, time.July, 7, 20, 0, 0, 0, time.UTC)
        seed := f.seedEvent(monday, model.EventActive)
        nextMonday := f.seedEvent(monday.AddDate(0, 0, 7), model.EventActive)
        tuesday := f.seedEvent(monday.AddDate(0, 0, 1), model.EventActive)
        otherHour := f.seedEvent(monday.AddDate(0, 0, 14).Add(2*time.Hour), model.EventActive)

        report, err := f.svc.CancelRecurringEvents(ctx, seed.ID,
            monday, monday.AddDate(0, 0, 20), []time.Weekday{time.Monday})
        require.NoError(t, err)
        assert.ElementsMatch(t, []uint64{seed.ID, nextMonday.ID}, report.CancelledEvents)

        for _, id := range []uint64{tuesday.ID, otherHour.ID} {
            got, _ := f.events.GetByID(ctx, id)
            assert.Equal(t, model.EventActive, got.State)
        }
    })

    t.Run("cascades refunds and seat releases to successful reservations", func(t *testing.T) {
        f := newEventFixture(t)
        seed := f.seedEvent(testNow.Add(48*time.Hour), model.EventActive)
        f.events.ReserveSeats(ctx, seed.ID, 3)
        res := f.resv.add(model.Reservation{
            UserID: 42, EventID: seed.ID, NumPersons: 3,
            PaymentID: "intent-1", State: model.ReservationSuccess,
        })
        f.pay.statuses["intent-1"] = payment.StatusSuccess

        report, err := f.svc.CancelRecurringEvents(ctx, seed.ID, time.Time{}, time.Time{}, nil)
        require.NoError(t, err)
        assert.Equal(t, 1, report.CancelledReservations)
        assert.True(t, f.pay.refunds["intent-1"])

        stored, _ := f.resv.GetByIDForUser(ctx, res.ID, 42)
        assert.Equal(t, model.ReservationCancelled, stored.State)
        ev, _ := f.events.GetByID(ctx, seed.ID)
        assert.Equal(t, model.EventCancelled, ev.State)
        assert.Zero(t, ev.BookedSeats)
        assert.Contains(t, f.pub.kinds(), queue.KindEventCancelled)
        assert.Contains(t, f.pub.kinds(), queue.KindReservationCancelled)
    })

    t.Run("already cancelled events are skipped untouched", func(t *testing.T) {
        f := newEventFixture(t)
        seed := f.seedEvent(testNow.Add(48*time.Hour), model.EventCancelled)
        f.resv.add(model.Reservation{
            UserID: 42, EventID: seed.ID, NumPersons: 2,
            PaymentID: "intent-1", State: model.ReservationSuccess,
        })
        f.pay.statuses["intent-1"] = payment.StatusSuccess

        report, err := f.svc.CancelRecurringEvents(ctx, seed.ID, time.Time{}, time.Time{}, nil)
        require.NoError(t, err)
        assert.Empty(t, report.CancelledEvents)
        assert.Equal(t, []uint64{seed.ID}, report.SkippedEvents)
        assert.Zero(t, report.CancelledReservations, "no refund work on re-run")
        assert.Equal(t, payment.StatusSuccess, f.pay.statuses["intent-1"])
    })

    t.Run("failed cascade leaves the event active and reports 502", func(t *testing.T) {
        f := newEventFixture(t)
        seed := f.seedEvent(testNow.Add(48*time.Hour), model.EventActive)
        good := f.seedEvent(testNow.Add(48*time.Hour).AddDate(0, 0, 7), model.EventActive)
        f.resv.add(model.Reservation{
            UserID: 42, EventID: seed.ID, NumPersons: 2,
            PaymentID: "intent-bad", State: model.ReservationSuccess,
        })
        f.pay.failVerify["intent-bad"] = true

        report, err := f.svc.CancelRecurringEvents(ctx, seed.ID,
            seed.Date, good.Date, []time.Weekday{seed.Date.Weekday()})
        assert.Equal(t, http.StatusBadGateway, apperr.StatusOf(err))

        require.Len(t, report.Failures, 1)
        assert.Equal(t, seed.ID, report.Failures[0].EventID)

        stillActive, _ := f.events.GetByID(ctx, seed.ID)
        assert.Equal(t, model.EventActive, stillActive.State, "event with live reservations stays active")
        cancelled, _ := f.events.GetByID(ctx, good.ID)
        assert.Equal(t, model.EventCancelled, cancelled.State, "one failure does not block the rest")
        assert.Equal(t, []uint64{good.ID}, report.CancelledEvents)
    })

    t.Run("unknown seed is a 404", func(t *testing.T) {
        f := newEventFixture(t)
        _, err := f.svc.CancelRecurringEvents(ctx, 999, time.Time{}, time.Time{}, nil)
        assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
    })

    t.Run("weekday set without a window is rejected", func(t *testing.T) {
        f := newEventFixture(t)
        seed := f.seedEvent(testNow.Add(48*time.Hour), model.EventActive)
        _, err := f.svc.CancelRecurringEvents(ctx, seed.ID, time.Time{}, time.Time{}, []time.Weekday{time.Monday})
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
    })
}
