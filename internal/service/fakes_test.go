package service

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/rutaviva/tour-booking/internal/ledger"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/queue"
    "github.com/rutaviva/tour-booking/internal/repository"
)

// In-memory stores mirroring the repository contracts, including the
// atomic capacity predicate of ReserveSeats.

type fakeActivityStore struct {
    activities map[uint64]model.Activity
    byEvent    map[uint64]uint64 // event id -> activity id
}

func newFakeActivityStore() *fakeActivityStore {
    return &fakeActivityStore{
        activities: map[uint64]model.Activity{},
        byEvent:    map[uint64]uint64{},
    }
}

func (f *fakeActivityStore) GetByID(_ context.Context, id uint64) (model.Activity, error) {
    act, ok := f.activities[id]
    if !ok {
        return model.Activity{}, repository.ErrActivityNotFound
    }
    return act, nil
}

func (f *fakeActivityStore) GetByEventID(_ context.Context, eventID uint64) (model.Activity, error) {
    actID, ok := f.byEvent[eventID]
    if !ok {
        return model.Activity{}, repository.ErrActivityNotFound
    }
    return f.GetByID(context.Background(), actID)
}

type fakeEventStore struct {
    mu     sync.Mutex
    events map[uint64]model.Event
    nextID uint64
}

func newFakeEventStore() *fakeEventStore {
    return &fakeEventStore{events: map[uint64]model.Event{}, nextID: 1}
}

func (f *fakeEventStore) add(ev model.Event) model.Event {
    f.mu.Lock()
    defer f.mu.Unlock()
    if ev.ID == 0 {
        ev.ID = f.nextID
        f.nextID++
    } else if ev.ID >= f.nextID {
        f.nextID = ev.ID + 1
    }
    f.events[ev.ID] = ev
    return ev
}

func (f *fakeEventStore) GetByID(_ context.Context, id uint64) (model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    ev, ok := f.events[id]
    if !ok {
        return model.Event{}, repository.ErrEventNotFound
    }
    return ev, nil
}

func (f *fakeEventStore) InsertMany(_ context.Context, activityID uint64, evs []model.Event) ([]model.Event, error) {
    out := make([]model.Event, 0, len(evs))
    for _, ev := range evs {
        ev.ActivityID = activityID
        out = append(out, f.add(ev))
    }
    return out, nil
}

func (f *fakeEventStore) ListByActivityGuideWindow(_ context.Context, activityID, guideID uint64, from, to time.Time) ([]model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Event
    for _, ev := range f.events {
        if ev.ActivityID != activityID || ev.GuideID != guideID {
            continue
        }
        if ev.Date.Before(from) || ev.Date.After(to) {
            continue
        }
        out = append(out, ev)
    }
    return out, nil
}

func (f *fakeEventStore) ReserveSeats(_ context.Context, eventID uint64, n uint32) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    ev, ok := f.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    if ev.State != model.EventActive {
        return repository.ErrNoCapacity
    }
    if err := ledger.Reserve(&ev, n); err != nil {
        return repository.ErrNoCapacity
    }
    f.events[eventID] = ev
    return nil
}

func (f *fakeEventStore) ReleaseSeats(_ context.Context, eventID uint64, n uint32) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    ev, ok := f.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    ledger.Release(&ev, n)
    f.events[eventID] = ev
    return nil
}

func (f *fakeEventStore) SetStateBulk(_ context.Context, ids []uint64, state model.EventState) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, id := range ids {
        ev, ok := f.events[id]
        if !ok {
            return repository.ErrEventNotFound
        }
        if state == model.EventCancelled {
            ledger.CancelEvent(&ev)
        } else {
            ev.State = state
        }
        f.events[id] = ev
    }
    return nil
}

type fakeReservationStore struct {
    mu           sync.Mutex
    reservations map[uint64]model.Reservation
    nextID       uint64
    insertErr    error
    setStateErr  map[uint64]error
}

func newFakeReservationStore() *fakeReservationStore {
    return &fakeReservationStore{
        reservations: map[uint64]model.Reservation{},
        nextID:       1,
        setStateErr:  map[uint64]error{},
    }
}

func (f *fakeReservationStore) add(res model.Reservation) model.Reservation {
    f.mu.Lock()
    defer f.mu.Unlock()
    if res.ID == 0 {
        res.ID = f.nextID
        f.nextID++
    } else if res.ID >= f.nextID {
        f.nextID = res.ID + 1
    }
    f.reservations[res.ID] = res
    return res
}

func (f *fakeReservationStore) Insert(_ context.Context, res *model.Reservation) error {
    if f.insertErr != nil {
        return f.insertErr
    }
    *res = f.add(*res)
    return nil
}

func (f *fakeReservationStore) GetByIDForUser(_ context.Context, id, userID uint64) (model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    res, ok := f.reservations[id]
    if !ok || res.UserID != userID {
        return model.Reservation{}, repository.ErrReservationNotFound
    }
    return res, nil
}

func (f *fakeReservationStore) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Reservation
    for _, res := range f.reservations {
        if res.UserID == userID {
            out = append(out, res)
        }
    }
    return out, nil
}

func (f *fakeReservationStore) ListByEventAndState(_ context.Context, eventID uint64, state model.ReservationState) ([]model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Reservation
    for _, res := range f.reservations {
        if res.EventID == eventID && res.State == state {
            out = append(out, res)
        }
    }
    return out, nil
}

func (f *fakeReservationStore) SetState(_ context.Context, id uint64, state model.ReservationState) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if err := f.setStateErr[id]; err != nil {
        return err
    }
    res, ok := f.reservations[id]
    if !ok {
        return repository.ErrReservationNotFound
    }
    res.State = state
    res.StateChangedAt = time.Now()
    f.reservations[id] = res
    return nil
}

type fakeUserDirectory struct {
    users  map[uint64]model.User
    guides map[uint64]bool
}

func newFakeUserDirectory() *fakeUserDirectory {
    return &fakeUserDirectory{users: map[uint64]model.User{}, guides: map[uint64]bool{}}
}

func (f *fakeUserDirectory) GetByID(_ context.Context, id uint64) (model.User, error) {
    u, ok := f.users[id]
    if !ok {
        return model.User{}, repository.ErrUserNotFound
    }
    return u, nil
}

func (f *fakeUserDirectory) IsGuide(_ context.Context, id uint64) (bool, error) {
    return f.guides[id], nil
}

var errPaymentDown = errors.New("payment gateway unreachable")

type fakePayment struct {
    mu        sync.Mutex
    statuses  map[string]payment.Status
    refunds   map[string]bool
    failVerify map[string]bool
}

func newFakePayment() *fakePayment {
    return &fakePayment{
        statuses:   map[string]payment.Status{},
        refunds:    map[string]bool{},
        failVerify: map[string]bool{},
    }
}

func (f *fakePayment) CreateIntent(_ context.Context, amountCents uint32) (payment.Intent, error) {
    return payment.Intent{ID: "intent-test", AmountCents: amountCents, Status: payment.StatusPending}, nil
}

func (f *fakePayment) ConfirmIntent(_ context.Context, id string) (payment.Intent, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.statuses[id] = payment.StatusSuccess
    return payment.Intent{ID: id, Status: payment.StatusSuccess}, nil
}

func (f *fakePayment) VerifyStatus(_ context.Context, id string) (payment.Status, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failVerify[id] {
        return "", errPaymentDown
    }
    status, ok := f.statuses[id]
    if !ok {
        return payment.StatusPending, nil
    }
    return status, nil
}

func (f *fakePayment) CancelPayment(_ context.Context, id string, refund bool) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.statuses[id] = payment.StatusCanceled
    f.refunds[id] = refund
    return nil
}

type recorderPublisher struct {
    mu     sync.Mutex
    events []queue.BookingAuditEvent
}

func (r *recorderPublisher) Publish(_ context.Context, ev queue.BookingAuditEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

func (r *recorderPublisher) kinds() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]string, 0, len(r.events))
    for _, ev := range r.events {
        out = append(out, ev.Kind)
    }
    return out
}
