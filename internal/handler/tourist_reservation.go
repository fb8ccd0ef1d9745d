package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/repository"
    "github.com/rutaviva/tour-booking/internal/service"
)

// ReservationHandler serves the tourist-facing booking endpoints.  The
// handler owns the payment-intent step: the intent is created before the
// reservation so an aborted booking leaves only an unconfirmed intent.
type ReservationHandler struct {
    Svc    *service.ReservationService
    Events *repository.EventRepo
    Pay    payment.Provider
}

func NewReservationHandler(svc *service.ReservationService, e *repository.EventRepo, p payment.Provider) *ReservationHandler {
    return &ReservationHandler{Svc: svc, Events: e, Pay: p}
}

type createReservationReq struct {
    EventID    uint64 `json:"event_id"`
    NumPersons uint32 `json:"num_persons"`
    Name       string `json:"name"`
    Email      string `json:"email"`
    Telephone  string `json:"telephone"`
}

// Create books seats on an event.  The response carries the reservation
// together with its payment intent; the booking completes once the
// payment is confirmed.
func (h *ReservationHandler) Create(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if req.EventID == 0 || req.NumPersons == 0 {
        return badRequest(c, "event_id and num_persons are required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    ev, err := h.Events.GetByID(ctx, req.EventID)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "event not found"})
        }
        return writeErr(c, err)
    }

    intent, err := h.Pay.CreateIntent(ctx, ev.PriceCents*req.NumPersons)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"status": http.StatusBadGateway, "message": "payment intent failed"})
    }

    res, err := h.Svc.Create(ctx, uid, service.CreateReservationInput{
        EventID:         req.EventID,
        NumPersons:      req.NumPersons,
        Name:            req.Name,
        Email:           req.Email,
        Telephone:       req.Telephone,
        PaymentIntentID: intent.ID,
    })
    if err != nil {
        // The unconfirmed intent is voided so it never captures money.
        _ = h.Pay.CancelPayment(ctx, intent.ID, false)
        return writeErr(c, err)
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "reservation": toReservationResp(res),
        "payment":     intent,
    })
}

type reservationResp struct {
    ID         uint64    `json:"id"`
    EventID    uint64    `json:"event_id"`
    NumPersons uint32    `json:"num_persons"`
    PriceCents uint32    `json:"price_cents"`
    Name       string    `json:"name"`
    Email      string    `json:"email"`
    Telephone  string    `json:"telephone,omitempty"`
    PaymentID  string    `json:"payment_id"`
    State      string    `json:"state"`
    CreatedAt  time.Time `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
    return reservationResp{
        ID:         r.ID,
        EventID:    r.EventID,
        NumPersons: r.NumPersons,
        PriceCents: r.PriceCents,
        Name:       r.Name,
        Email:      r.Email,
        Telephone:  r.Telephone,
        PaymentID:  r.PaymentID,
        State:      string(r.State),
        CreatedAt:  r.CreatedAt,
    }
}

// ConfirmPayment captures a pending intent.  In production a gateway
// webhook would drive this; the sandbox exposes it to the client.
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
    if _, ok := currentUserID(c); !ok {
        return unauthorized(c, "unauthorized")
    }
    id := c.Param("id")
    if id == "" {
        return badRequest(c, "invalid payment id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    intent, err := h.Pay.ConfirmIntent(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, intent)
}

// Cancel cancels one of the caller's reservations, refunding captured
// payments and releasing seats on upcoming events.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    id, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    res, err := h.Svc.Cancel(ctx, uid, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResp(res))
}

// List returns the caller's reservations grouped by nearby event dates.
func (h *ReservationHandler) List(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    groups, err := h.Svc.List(ctx, uid)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"groups": groups})
}

// Get returns a single reservation of the caller with its effective
// state.
func (h *ReservationHandler) Get(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    id, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    view, err := h.Svc.GetOne(ctx, uid, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, view)
}
