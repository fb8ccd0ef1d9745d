package service

import (
    "context"
    "errors"
    "net/http"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/rutaviva/tour-booking/internal/apperr"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/queue"
)

var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

type reservationFixture struct {
    svc    *ReservationService
    events *fakeEventStore
    resv   *fakeReservationStore
    pay    *fakePayment
    pub    *recorderPublisher
}

func newReservationFixture(t *testing.T) *reservationFixture {
    t.Helper()
    f := &reservationFixture{
        events: newFakeEventStore(),
        resv:   newFakeReservationStore(),
        pay:    newFakePayment(),
        pub:    &recorderPublisher{},
    }
    f.svc = NewReservationService(f.events, f.resv, f.pay, nil, f.pub)
    f.svc.now = func() time.Time { return testNow }
    return f
}

func (f *reservationFixture) seedEvent(seats, booked uint32, date time.Time) model.Event {
    return f.events.add(model.Event{
        ActivityID:  1,
        Date:        date,
        Seats:       seats,
        BookedSeats: booked,
        PriceCents:  2500,
        Language:    "en",
        GuideID:     7,
        State:       model.EventActive,
    })
}

func validInput(eventID uint64) CreateReservationInput {
    return CreateReservationInput{
        EventID:         eventID,
        NumPersons:      2,
        Name:            "Ada Lovelace",
        Email:           "ada@example.com",
        Telephone:       "+34 600 000 000",
        PaymentIntentID: "intent-1",
    }
}

func TestCreateReservation(t *testing.T) {
    ctx := context.Background()

    t.Run("books seats and starts pending", func(t *testing.T) {
        f := newReservationFixture(t)
        ev := f.seedEvent(10, 3, testNow.Add(48*time.Hour))

        res, err := f.svc.Create(ctx, 42, validInput(ev.ID))
        require.NoError(t, err)

        assert.Equal(t, model.ReservationPending, res.State)
        assert.Equal(t, uint32(5000), res.PriceCents)
        assert.Equal(t, uint64(42), res.UserID)

        got, err := f.events.GetByID(ctx, ev.ID)
        require.NoError(t, err)
        assert.Equal(t, uint32(5), got.BookedSeats)
        assert.Equal(t, []string{queue.KindReservationCreated}, f.pub.kinds())
    })

    t.Run("rejects overbooking without mutating the counter", func(t *testing.T) {
        f := newReservationFixture(t)
        ev := f.seedEvent(4, 3, testNow.Add(48*time.Hour))

        _, err := f.svc.Create(ctx, 42, validInput(ev.ID))
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

        got, _ := f.events.GetByID(ctx, ev.ID)
        assert.Equal(t, uint32(3), got.BookedSeats, "failed booking must not consume seats")
    })

    t.Run("rejects past and cancelled events", func(t *testing.T) {
        f := newReservationFixture(t)
        past := f.seedEvent(10, 0, testNow.Add(-time.Hour))
        _, err := f.svc.Create(ctx, 42, validInput(past.ID))
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

        cancelled := f.events.add(model.Event{Date: testNow.Add(time.Hour), Seats: 10, State: model.EventCancelled})
        _, err = f.svc.Create(ctx, 42, validInput(cancelled.ID))
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
    })

    t.Run("unknown event is a 404", func(t *testing.T) {
        f := newReservationFixture(t)
        _, err := f.svc.Create(ctx, 42, validInput(999))
        assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
    })

    t.Run("releases seats when the insert fails", func(t *testing.T) {
        f := newReservationFixture(t)
        ev := f.seedEvent(10, 3, testNow.Add(48*time.Hour))
        f.resv.insertErr = errors.New("store down")

        _, err := f.svc.Create(ctx, 42, validInput(ev.ID))
        require.Error(t, err)

        got, _ := f.events.GetByID(ctx, ev.ID)
        assert.Equal(t, uint32(3), got.BookedSeats)
    })

    t.Run("validates required fields", func(t *testing.T) {
        f := newReservationFixture(t)
        ev := f.seedEvent(10, 0, testNow.Add(48*time.Hour))

        for name, mutate := range map[string]func(*CreateReservationInput){
            "zero persons":   func(in *CreateReservationInput) { in.NumPersons = 0 },
            "blank name":     func(in *CreateReservationInput) { in.Name = "  " },
            "blank email":    func(in *CreateReservationInput) { in.Email = "" },
            "missing intent": func(in *CreateReservationInput) { in.PaymentIntentID = "" },
        } {
            in := validInput(ev.ID)
            mutate(&in)
            _, err := f.svc.Create(ctx, 42, in)
            assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err), name)
        }
    })
}

func TestCancelReservation(t *testing.T) {
    ctx := context.Background()

    seed := func(f *reservationFixture, state model.ReservationState, date time.Time) (model.Event, model.Reservation) {
        ev := f.seedEvent(10, 4, date)
        res := f.resv.add(model.Reservation{
            UserID:     42,
            EventID:    ev.ID,
            NumPersons: 2,
            PriceCents: 5000,
            Email:      "ada@example.com",
            PaymentID:  "intent-1",
            State:      state,
        })
        return ev, res
    }

    t.Run("refunds captured payment and releases future seats", func(t *testing.T) {
        f := newReservationFixture(t)
        ev, res := seed(f, model.ReservationSuccess, testNow.Add(72*time.Hour))
        f.pay.statuses["intent-1"] = payment.StatusSuccess

        got, err := f.svc.Cancel(ctx, 42, res.ID)
        require.NoError(t, err)
        assert.Equal(t, model.ReservationCancelled, got.State)
        assert.True(t, f.pay.refunds["intent-1"], "captured payment must be refunded")

        after, _ := f.events.GetByID(ctx, ev.ID)
        assert.Equal(t, uint32(2), after.BookedSeats)
    })

    t.Run("voids uncaptured payment without refund", func(t *testing.T) {
        f := newReservationFixture(t)
        _, res := seed(f, model.ReservationPending, testNow.Add(72*time.Hour))

        _, err := f.svc.Cancel(ctx, 42, res.ID)
        require.NoError(t, err)
        assert.False(t, f.pay.refunds["intent-1"])
        assert.Equal(t, payment.StatusCanceled, f.pay.statuses["intent-1"])
    })

    t.Run("past event keeps its occupancy", func(t *testing.T) {
        f := newReservationFixture(t)
        ev, res := seed(f, model.ReservationSuccess, testNow.Add(-72*time.Hour))
        f.pay.statuses["intent-1"] = payment.StatusSuccess

        _, err := f.svc.Cancel(ctx, 42, res.ID)
        require.NoError(t, err)

        after, _ := f.events.GetByID(ctx, ev.ID)
        assert.Equal(t, uint32(4), after.BookedSeats, "historical counters stay intact")
    })

    t.Run("cancelling twice is a 400", func(t *testing.T) {
        f := newReservationFixture(t)
        _, res := seed(f, model.ReservationCancelled, testNow.Add(72*time.Hour))
        _, err := f.svc.Cancel(ctx, 42, res.ID)
        assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
    })

    t.Run("someone else's reservation is a 404", func(t *testing.T) {
        f := newReservationFixture(t)
        _, res := seed(f, model.ReservationSuccess, testNow.Add(72*time.Hour))
        _, err := f.svc.Cancel(ctx, 1337, res.ID)
        assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
    })

    t.Run("payment gateway failure is a 502 and changes nothing", func(t *testing.T) {
        f := newReservationFixture(t)
        ev, res := seed(f, model.ReservationSuccess, testNow.Add(72*time.Hour))
        f.pay.failVerify["intent-1"] = true

        _, err := f.svc.Cancel(ctx, 42, res.ID)
        assert.Equal(t, http.StatusBadGateway, apperr.StatusOf(err))

        stored, _ := f.resv.GetByIDForUser(ctx, res.ID, 42)
        assert.Equal(t, model.ReservationSuccess, stored.State)
        after, _ := f.events.GetByID(ctx, ev.ID)
        assert.Equal(t, uint32(4), after.BookedSeats)
    })
}

func TestEffectiveState(t *testing.T) {
    now := testNow
    past := now.Add(-24 * time.Hour)
    future := now.Add(24 * time.Hour)

    cases := []struct {
        name   string
        stored model.ReservationState
        date   time.Time
        live   payment.Status
        want   model.ReservationState
    }{
        {"success upcoming stays success", model.ReservationSuccess, future, payment.StatusSuccess, model.ReservationSuccess},
        {"success past reads completed", model.ReservationSuccess, past, payment.StatusSuccess, model.ReservationCompleted},
        {"pending with captured payment", model.ReservationPending, future, payment.StatusSuccess, model.ReservationSuccess},
        {"pending captured on past event", model.ReservationPending, past, payment.StatusSuccess, model.ReservationCompleted},
        {"pending with failed payment", model.ReservationPending, future, payment.StatusFailure, model.ReservationFailure},
        {"pending with voided payment", model.ReservationPending, future, payment.StatusCanceled, model.ReservationCancelled},
        {"pending still pending", model.ReservationPending, future, payment.StatusPending, model.ReservationPending},
        {"cancelled never resurrects", model.ReservationCancelled, past, payment.StatusSuccess, model.ReservationCancelled},
        {"failure stays failure", model.ReservationFailure, future, payment.StatusSuccess, model.ReservationFailure},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, EffectiveState(tc.stored, tc.date, tc.live, now))
        })
    }
}

func TestGroupReservations(t *testing.T) {
    day := func(d int) time.Time {
        return time.Date(2025, time.June, d, 10, 0, 0, 0, time.UTC)
    }
    view := func(id uint64, date time.Time) ReservationView {
        return ReservationView{ID: id, EventDate: date}
    }

    t.Run("gap over three days splits groups", func(t *testing.T) {
        groups := GroupReservations([]ReservationView{
            view(1, day(1)),
            view(2, day(2)),
            view(3, day(7)),
        })
        require.Len(t, groups, 2)
        assert.Equal(t, day(1), groups[0].DateFrom)
        assert.Equal(t, day(2), groups[0].DateTo)
        assert.Len(t, groups[0].Reservations, 2)
        assert.Equal(t, day(7), groups[1].DateFrom)
        assert.Len(t, groups[1].Reservations, 1)
    })

    t.Run("exactly three days stays in one group", func(t *testing.T) {
        groups := GroupReservations([]ReservationView{
            view(1, day(1)),
            view(2, day(4)),
        })
        require.Len(t, groups, 1)
        assert.Equal(t, day(1), groups[0].DateFrom)
        assert.Equal(t, day(4), groups[0].DateTo)
    })

    t.Run("empty input yields no groups", func(t *testing.T) {
        assert.Empty(t, GroupReservations(nil))
    })
}

func TestList(t *testing.T) {
    ctx := context.Background()
    f := newReservationFixture(t)

    evLate := f.seedEvent(10, 2, testNow.Add(240*time.Hour))
    evSoon := f.seedEvent(10, 2, testNow.Add(24*time.Hour))
    f.resv.add(model.Reservation{UserID: 42, EventID: evLate.ID, NumPersons: 1, State: model.ReservationSuccess})
    f.resv.add(model.Reservation{UserID: 42, EventID: evSoon.ID, NumPersons: 1, State: model.ReservationSuccess})
    f.resv.add(model.Reservation{UserID: 99, EventID: evSoon.ID, NumPersons: 1, State: model.ReservationSuccess})

    groups, err := f.svc.List(ctx, 42)
    require.NoError(t, err)
    require.Len(t, groups, 2, "ten days apart means two groups")
    assert.Equal(t, evSoon.ID, groups[0].Reservations[0].EventID, "groups are date-ascending")
    assert.Equal(t, evLate.ID, groups[1].Reservations[0].EventID)
}
