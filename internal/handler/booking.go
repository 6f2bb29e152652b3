package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinetick/movie-booking/internal/booking"
    "github.com/cinetick/movie-booking/internal/payment"
    "github.com/cinetick/movie-booking/internal/queue"
    "github.com/cinetick/movie-booking/internal/repository"
    qp "github.com/cinetick/movie-booking/internal/service"
    "github.com/cinetick/movie-booking/internal/ticket"
)

// BookingHandler exposes the reservation, payment and ticket endpoints.
// Seat availability is public; everything else assumes JWT middleware
// has populated the user in context.
type BookingHandler struct {
    Bookings *booking.Service
    Payments *payment.Service
    Repo     *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler with non-nil deps.
func NewBookingHandler(b *booking.Service, p *payment.Service, repo *repository.BookingRepo) *BookingHandler {
    if b == nil || p == nil || repo == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: b, Payments: p, Repo: repo}
}

type seatSelectionReq struct {
    Seats []string `json:"seats" validate:"required,min=1,dive,required"`
}

// GetShowSeats handles GET /v1/shows/:id/seats.  It is public so
// guests can inspect occupancy before logging in; the response is a
// snapshot and may be slightly stale under concurrent booking.
func (h *BookingHandler) GetShowSeats(c echo.Context) error {
    showID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    av, err := h.Bookings.ShowAvailability(c.Request().Context(), showID)
    if err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
    }
    return c.JSON(http.StatusOK, av)
}

// bookingErr translates reservation errors into HTTP responses shared
// by CreateBooking and HoldSeats.
func bookingErr(c echo.Context, err error) error {
    var invalid *booking.InvalidRequestError
    if errors.As(err, &invalid) {
        resp := echo.Map{"error": invalid.Reason}
        if len(invalid.Seats) > 0 {
            resp["seats"] = invalid.Seats
        }
        return c.JSON(http.StatusBadRequest, resp)
    }
    var conflict *booking.ConflictError
    if errors.As(err, &conflict) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":     "seats already taken",
            "conflicts": conflict.Seats,
        })
    }
    if errors.Is(err, booking.ErrShowBusy) {
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "show is busy, retry shortly"})
    }
    if errors.Is(err, booking.ErrStorageUnavailable) {
        c.Response().Header().Set("Retry-After", "2")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, retry shortly"})
    }
    if errors.Is(err, repository.ErrShowNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
}

// CreateBooking handles POST /v1/shows/:id/bookings.  On success the
// selected seats are committed atomically; on contention the response
// names the exact conflicting seats so the client can re-pick.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var req seatSelectionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    b, err := h.Bookings.Reserve(c.Request().Context(), showID, req.Seats, userID)
    if err != nil {
        return bookingErr(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   b.ID,
        "show_id":      b.ShowID,
        "seats":        b.Seats,
        "total_cents":  b.TotalCents,
        "payment_done": b.PaymentDone,
        "created_at":   b.CreatedAt,
    })
}

// HoldSeats handles POST /v1/shows/:id/holds.  Held seats are blocked
// for other users until the hold expires or is released.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var req seatSelectionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    hold, err := h.Bookings.HoldSeats(c.Request().Context(), showID, req.Seats, userID)
    if err != nil {
        return bookingErr(c, err)
    }
    return c.JSON(http.StatusCreated, hold)
}

// ReleaseHolds handles DELETE /v1/shows/:id/holds.  It drops all of the
// caller's holds on the show and reports how many seats were freed.
func (h *BookingHandler) ReleaseHolds(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    released, err := h.Bookings.ReleaseHolds(c.Request().Context(), showID, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
    }
    return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Repo.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Repo.GetByIDForUser(c.Request().Context(), bookingID, userID)
    if err != nil {
        return bookingLookupErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "booking_id":      b.ID,
        "show_id":         b.ShowID,
        "seats":           b.Seats,
        "total_cents":     b.TotalCents,
        "payment_done":    b.PaymentDone,
        "transaction_ref": b.TransactionRef,
        "created_at":      b.CreatedAt,
    })
}

func bookingLookupErr(c echo.Context, err error) error {
    if errors.Is(err, repository.ErrBookingNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    }
    if errors.Is(err, repository.ErrForbidden) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
}

// AttachPayment handles POST /v1/bookings/:id/payment.  It generates a
// transaction reference and stores it on the booking; attaching twice
// is a conflict.
func (h *BookingHandler) AttachPayment(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ref, err := h.Payments.Attach(c.Request().Context(), bookingID, userID)
    if err != nil {
        if errors.Is(err, payment.ErrRefExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "transaction reference already attached"})
        }
        return bookingLookupErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"transaction_ref": ref})
}

// ConfirmPayment handles POST /v1/bookings/:id/payment/confirm.  On the
// first successful confirmation a booking.confirmed event is published
// for downstream consumers; publish failures are logged by the
// publisher and never fail the request.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    transitioned, err := h.Payments.Confirm(ctx, bookingID, userID)
    if err != nil {
        if errors.Is(err, payment.ErrNotAttached) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "no transaction reference attached"})
        }
        return bookingLookupErr(c, err)
    }

    // Repeat confirmations of an already-paid booking succeed but must
    // not re-announce it downstream.
    if transitioned {
        if tc, err := h.Repo.GetTicketContext(ctx, bookingID, userID); err == nil {
            ev := confirmedEvent(tc)
            go func() {
                pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
                defer cancel()
                _ = qp.PublishBookingConfirmed(pubCtx, ev)
            }()
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"payment_done": true})
}

func confirmedEvent(tc *repository.TicketContext) queue.BookingConfirmedEvent {
    b := tc.Booking
    ev := queue.BookingConfirmedEvent{
        BookingID:   b.ID,
        ShowID:      b.ShowID,
        TheaterName: tc.TheaterName,
        ScreenName:  tc.ScreenName,
        MovieTitle:  tc.MovieTitle,
        StartsAt:    tc.StartsAt.UTC().Format(time.RFC3339),
        Seats:       b.Seats,
        TotalCents:  b.TotalCents,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if b.UserID != nil {
        ev.UserID = *b.UserID
    }
    if b.TransactionRef != nil {
        ev.TransactionRef = *b.TransactionRef
    }
    return ev
}

// DownloadTicket handles GET /v1/bookings/:id/ticket.  The PDF embeds a
// QR code carrying the transaction reference and booking ID; it is only
// available once a transaction reference exists.
func (h *BookingHandler) DownloadTicket(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    tc, err := h.Repo.GetTicketContext(c.Request().Context(), bookingID, userID)
    if err != nil {
        return bookingLookupErr(c, err)
    }
    pdf, err := ticket.Issue(tc)
    if err != nil {
        if errors.Is(err, ticket.ErrNotFinalized) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "booking has no transaction reference"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render ticket"})
    }
    c.Response().Header().Set(echo.HeaderContentDisposition,
        fmt.Sprintf(`attachment; filename="ticket-%d.pdf"`, bookingID))
    return c.Blob(http.StatusOK, "application/pdf", pdf)
}
