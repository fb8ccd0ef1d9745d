package service

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/rutaviva/tour-booking/internal/apperr"
    "github.com/rutaviva/tour-booking/internal/mail"
    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/queue"
    "github.com/rutaviva/tour-booking/internal/repository"
)

// groupGap is the maximum distance between event dates inside one display
// group of a user's reservation list.
const groupGap = 3 * 24 * time.Hour

// ReservationService is the reservation lifecycle manager.  It keeps the
// seat ledger consistent with reservation state on every create and
// cancel, and classifies display state by combining stored state with the
// live payment status.
type ReservationService struct {
    events EventStore
    resv   ReservationStore
    pay    payment.Provider
    mailer mail.Sender     // nil disables notification emails
    pub    queue.Publisher // nil disables audit events
    now    func() time.Time
}

// NewReservationService wires the reservation lifecycle manager.  mailer
// and pub may be nil; mail and broker failures never fail a request
// either way.
func NewReservationService(events EventStore, resv ReservationStore, pay payment.Provider, mailer mail.Sender, pub queue.Publisher) *ReservationService {
    if events == nil || resv == nil || pay == nil {
        panic("nil dependency passed to NewReservationService")
    }
    return &ReservationService{
        events: events,
        resv:   resv,
        pay:    pay,
        mailer: mailer,
        pub:    pub,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// CreateReservationInput is the request to book seats on one event.  The
// payment intent is created by the caller (the HTTP layer) before the
// reservation exists, so a failed booking leaves only an unconfirmed
// intent behind.
type CreateReservationInput struct {
    EventID         uint64
    NumPersons      uint32
    Name            string
    Email           string
    Telephone       string
    PaymentIntentID string
}

// Create books seats for a user.  Seats are consumed through the store's
// atomic increment before the reservation row exists, so a concurrent
// booking racing the payment confirmation can never overbook; if the
// insert fails afterwards the seats are released again.  The reservation
// starts PENDING, its final state is resolved lazily from the payment
// collaborator.
func (s *ReservationService) Create(ctx context.Context, userID uint64, in CreateReservationInput) (model.Reservation, error) {
    if in.NumPersons == 0 {
        return model.Reservation{}, apperr.BadRequest("num_persons must be at least 1")
    }
    if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
        return model.Reservation{}, apperr.BadRequest("contact name and email are required")
    }
    if strings.TrimSpace(in.PaymentIntentID) == "" {
        return model.Reservation{}, apperr.BadRequest("payment intent id is required")
    }

    // The event reference crosses aggregates with no store-level
    // integrity, so it is validated here and nowhere else.
    ev, err := s.events.GetByID(ctx, in.EventID)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return model.Reservation{}, apperr.NotFound("event not found")
        }
        return model.Reservation{}, apperr.From(err)
    }
    if ev.State != model.EventActive {
        return model.Reservation{}, apperr.BadRequest("event is cancelled")
    }
    if ev.Date.Before(s.now()) {
        return model.Reservation{}, apperr.BadRequest("event date is in the past")
    }

    if err := s.events.ReserveSeats(ctx, ev.ID, in.NumPersons); err != nil {
        if err == repository.ErrNoCapacity {
            return model.Reservation{}, apperr.BadRequest("not enough free seats")
        }
        if err == repository.ErrEventNotFound {
            return model.Reservation{}, apperr.NotFound("event not found")
        }
        return model.Reservation{}, apperr.From(err)
    }

    res := model.Reservation{
        UserID:         userID,
        EventID:        ev.ID,
        NumPersons:     in.NumPersons,
        PriceCents:     ev.PriceCents * in.NumPersons,
        Name:           strings.TrimSpace(in.Name),
        Email:          strings.TrimSpace(in.Email),
        Telephone:      strings.TrimSpace(in.Telephone),
        PaymentID:      in.PaymentIntentID,
        State:          model.ReservationPending,
        StateChangedAt: s.now(),
    }
    if err := s.resv.Insert(ctx, &res); err != nil {
        // Give the seats back, the reservation never existed.
        if relErr := s.events.ReleaseSeats(ctx, ev.ID, in.NumPersons); relErr != nil {
            log.Printf("reservation: seat release after failed insert event=%d: %v", ev.ID, relErr)
        }
        return model.Reservation{}, apperr.From(err)
    }

    s.audit(ctx, queue.KindReservationCreated, ev, res, false)
    s.notify(ctx, res.Email, "Reservation received",
        fmt.Sprintf("<p>We received your reservation for %d person(s) on %s. You will be charged %0.2f once the payment is confirmed.</p>",
            res.NumPersons, ev.Date.Format("2006-01-02 15:04"), float64(res.PriceCents)/100))
    return res, nil
}

// Cancel cancels one reservation of the given user.  The payment is
// refunded when it was captured and voided otherwise.  Seats go back to
// the event only when its date is still in the future: past events keep
// their historical occupancy for reporting.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
    res, err := s.resv.GetByIDForUser(ctx, reservationID, userID)
    if err != nil {
        if err == repository.ErrReservationNotFound {
            return model.Reservation{}, apperr.NotFound("reservation not found")
        }
        return model.Reservation{}, apperr.From(err)
    }
    if res.State == model.ReservationCancelled {
        return model.Reservation{}, apperr.BadRequest("reservation is already cancelled")
    }

    ev, err := s.events.GetByID(ctx, res.EventID)
    if err != nil && err != repository.ErrEventNotFound {
        return model.Reservation{}, apperr.From(err)
    }

    refunded, err := s.voidOrRefund(ctx, res.PaymentID)
    if err != nil {
        return model.Reservation{}, apperr.New(http.StatusBadGateway, "payment cancellation failed")
    }

    // Only seats counted by the ledger are released, and only while the
    // event is still upcoming.
    counted := res.State == model.ReservationPending || res.State == model.ReservationSuccess
    if counted && ev.ID != 0 && ev.Date.After(s.now()) {
        if err := s.events.ReleaseSeats(ctx, ev.ID, res.NumPersons); err != nil {
            return model.Reservation{}, apperr.From(err)
        }
    }

    if err := s.resv.SetState(ctx, res.ID, model.ReservationCancelled); err != nil {
        return model.Reservation{}, apperr.From(err)
    }
    res.State = model.ReservationCancelled
    res.StateChangedAt = s.now()

    s.audit(ctx, queue.KindReservationCancelled, ev, res, refunded)
    s.notify(ctx, res.Email, "Reservation cancelled",
        fmt.Sprintf("<p>Your reservation for %s has been cancelled.%s</p>",
            ev.Date.Format("2006-01-02 15:04"), refundNote(refunded)))
    return res, nil
}

// CancelForEventCancellation is the cascade path used when a whole event
// is cancelled: the payment is refunded (it was captured, the reservation
// is SUCCESS), the reservation is marked cancelled and its seats are
// released so the ledger matches the remaining live reservations.
func (s *ReservationService) CancelForEventCancellation(ctx context.Context, res model.Reservation) error {
    refunded, err := s.voidOrRefund(ctx, res.PaymentID)
    if err != nil {
        return fmt.Errorf("refund reservation %d: %w", res.ID, err)
    }
    if err := s.resv.SetState(ctx, res.ID, model.ReservationCancelled); err != nil {
        return fmt.Errorf("mark reservation %d cancelled: %w", res.ID, err)
    }
    if err := s.events.ReleaseSeats(ctx, res.EventID, res.NumPersons); err != nil {
        return fmt.Errorf("release seats of reservation %d: %w", res.ID, err)
    }
    ev, _ := s.events.GetByID(ctx, res.EventID)
    res.State = model.ReservationCancelled
    s.audit(ctx, queue.KindReservationCancelled, ev, res, refunded)
    s.notify(ctx, res.Email, "Event cancelled",
        fmt.Sprintf("<p>The event on %s was cancelled by the organizer.%s</p>",
            ev.Date.Format("2006-01-02 15:04"), refundNote(refunded)))
    return nil
}

// voidOrRefund cancels a payment, refunding when the money was captured.
func (s *ReservationService) voidOrRefund(ctx context.Context, paymentID string) (bool, error) {
    status, err := s.pay.VerifyStatus(ctx, paymentID)
    if err != nil {
        return false, fmt.Errorf("verify payment %s: %w", paymentID, err)
    }
    refund := status == payment.StatusSuccess
    if err := s.pay.CancelPayment(ctx, paymentID, refund); err != nil {
        return false, fmt.Errorf("cancel payment %s: %w", paymentID, err)
    }
    return refund, nil
}

// EffectiveState computes the state shown to the user.  A SUCCESS
// reservation of a past event shows as COMPLETED; a stored PENDING defers
// to the live payment status.  Pure so it is testable without a payment
// collaborator.
func EffectiveState(stored model.ReservationState, eventDate time.Time, live payment.Status, now time.Time) model.ReservationState {
    if stored == model.ReservationSuccess && eventDate.Before(now) {
        return model.ReservationCompleted
    }
    if stored == model.ReservationPending {
        switch live {
        case payment.StatusSuccess:
            if eventDate.Before(now) {
                return model.ReservationCompleted
            }
            return model.ReservationSuccess
        case payment.StatusFailure:
            return model.ReservationFailure
        case payment.StatusCanceled:
            return model.ReservationCancelled
        }
    }
    return stored
}

// ReservationView is a reservation decorated for display.
type ReservationView struct {
    ID          uint64                 `json:"id"`
    EventID     uint64                 `json:"event_id"`
    ActivityID  uint64                 `json:"activity_id"`
    EventDate   time.Time              `json:"event_date"`
    NumPersons  uint32                 `json:"num_persons"`
    PriceCents  uint32                 `json:"price_cents"`
    Name        string                 `json:"name"`
    Email       string                 `json:"email"`
    Telephone   string                 `json:"telephone,omitempty"`
    State       model.ReservationState `json:"state"`
    StoredState model.ReservationState `json:"-"`
}

// ReservationGroup is a run of reservations whose event dates sit close
// together.  A new group starts whenever the gap between a reservation's
// event date and the latest date already in the group exceeds three days.
type ReservationGroup struct {
    DateFrom     time.Time         `json:"date_from"`
    DateTo       time.Time         `json:"date_to"`
    Reservations []ReservationView `json:"reservations"`
}

// GetOne returns one reservation of the user with its effective state.
func (s *ReservationService) GetOne(ctx context.Context, userID, reservationID uint64) (ReservationView, error) {
    res, err := s.resv.GetByIDForUser(ctx, reservationID, userID)
    if err != nil {
        if err == repository.ErrReservationNotFound {
            return ReservationView{}, apperr.NotFound("reservation not found")
        }
        return ReservationView{}, apperr.From(err)
    }
    ev, err := s.events.GetByID(ctx, res.EventID)
    if err != nil && err != repository.ErrEventNotFound {
        return ReservationView{}, apperr.From(err)
    }
    return s.view(ctx, res, ev), nil
}

// List returns the user's reservations grouped for display: sorted
// ascending by event date and partitioned at gaps over three days.
func (s *ReservationService) List(ctx context.Context, userID uint64) ([]ReservationGroup, error) {
    all, err := s.resv.ListByUser(ctx, userID)
    if err != nil {
        return nil, apperr.From(err)
    }
    views := make([]ReservationView, 0, len(all))
    for _, res := range all {
        ev, err := s.events.GetByID(ctx, res.EventID)
        if err != nil && err != repository.ErrEventNotFound {
            return nil, apperr.From(err)
        }
        views = append(views, s.view(ctx, res, ev))
    }
    sort.SliceStable(views, func(i, j int) bool { return views[i].EventDate.Before(views[j].EventDate) })
    return GroupReservations(views), nil
}

// GroupReservations partitions date-sorted views into contiguous groups.
// Pure; exported for the handler tests.
func GroupReservations(views []ReservationView) []ReservationGroup {
    groups := make([]ReservationGroup, 0)
    for _, v := range views {
        n := len(groups)
        if n == 0 || v.EventDate.Sub(groups[n-1].DateTo) > groupGap {
            groups = append(groups, ReservationGroup{
                DateFrom:     v.EventDate,
                DateTo:       v.EventDate,
                Reservations: []ReservationView{v},
            })
            continue
        }
        g := &groups[n-1]
        g.Reservations = append(g.Reservations, v)
        if v.EventDate.After(g.DateTo) {
            g.DateTo = v.EventDate
        }
    }
    return groups
}

func (s *ReservationService) view(ctx context.Context, res model.Reservation, ev model.Event) ReservationView {
    live := payment.StatusPending
    if res.State == model.ReservationPending && res.PaymentID != "" {
        status, err := s.pay.VerifyStatus(ctx, res.PaymentID)
        if err != nil {
            // Stale pending is better than a failed listing.
            log.Printf("reservation: verify payment %s: %v", res.PaymentID, err)
        } else {
            live = status
        }
    }
    return ReservationView{
        ID:          res.ID,
        EventID:     res.EventID,
        ActivityID:  ev.ActivityID,
        EventDate:   ev.Date,
        NumPersons:  res.NumPersons,
        PriceCents:  res.PriceCents,
        Name:        res.Name,
        Email:       res.Email,
        Telephone:   res.Telephone,
        State:       EffectiveState(res.State, ev.Date, live, s.now()),
        StoredState: res.State,
    }
}

func (s *ReservationService) audit(ctx context.Context, kind string, ev model.Event, res model.Reservation, refunded bool) {
    if s.pub == nil {
        return
    }
    _ = s.pub.Publish(ctx, queue.BookingAuditEvent{
        MessageID:     uuid.NewString(),
        Kind:          kind,
        ActivityID:    ev.ActivityID,
        EventID:       res.EventID,
        EventDate:     ev.Date.Format(time.RFC3339),
        ReservationID: res.ID,
        UserID:        res.UserID,
        NumPersons:    res.NumPersons,
        PriceCents:    res.PriceCents,
        Refunded:      refunded,
        OccurredAt:    s.now().Format(time.RFC3339),
    })
}

func (s *ReservationService) notify(ctx context.Context, to, subject, html string) {
    if s.mailer == nil || strings.TrimSpace(to) == "" {
        return
    }
    if err := s.mailer.Send(ctx, mail.Message{To: []string{to}, Subject: subject, HTML: html}); err != nil {
        log.Printf("reservation: notification %q to %s failed: %v", subject, to, err)
    }
}

func refundNote(refunded bool) string {
    if refunded {
        return " Your payment will be refunded."
    }
    return ""
}
