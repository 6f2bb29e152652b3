// Package payment implements the synthetic payment step: it assigns a
// transaction reference to a committed booking and records payment
// confirmation.  No external gateway is involved; the reference exists
// so downstream consumers (ticket issuer, reconciliation) have a stable
// identifier to correlate on.
package payment

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/cinetick/movie-booking/internal/repository"
)

// ErrRefExists is returned when a booking already carries a transaction
// reference; references are attach-once.
var ErrRefExists = errors.New("payment: transaction reference already attached")

// ErrNotAttached is returned when confirmation is requested for a
// booking that never received a transaction reference.
var ErrNotAttached = errors.New("payment: no transaction reference attached")

// NewTransactionRef builds a reference of the form
// TXN<yyyymmddhhmmss><6 uppercase hex chars>.  The timestamp prefix
// makes references sort roughly by creation time; the random suffix
// keeps simultaneous references distinct.  Collisions are possible in
// theory but the keyspace per second makes them negligible.
func NewTransactionRef(now time.Time) string {
    suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
    return "TXN" + now.UTC().Format("20060102150405") + suffix
}

// Service attaches and confirms payments on bookings.
type Service struct {
    bookings *repository.BookingRepo
    now      func() time.Time
}

// NewService returns a payment service over the given booking store.
func NewService(bookings *repository.BookingRepo) *Service {
    if bookings == nil {
        panic("nil repository passed to payment.NewService")
    }
    return &Service{bookings: bookings, now: time.Now}
}

// Attach generates a transaction reference and stores it on the
// booking.  It does not mark the payment as done; completion is a
// separate, explicit step (Confirm).  Attaching twice fails with
// ErrRefExists.
func (s *Service) Attach(ctx context.Context, bookingID, userID uint64) (string, error) {
    b, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
    if err != nil {
        return "", err
    }
    if b.TransactionRef != nil {
        return "", ErrRefExists
    }
    ref := NewTransactionRef(s.now())
    if err := s.bookings.AttachTransactionRef(ctx, bookingID, userID, ref); err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            // The booking existed a moment ago, so the update can only
            // have missed because a reference landed concurrently.
            return "", ErrRefExists
        }
        return "", err
    }
    return ref, nil
}

// Confirm marks the booking's payment as completed.  It requires a
// transaction reference to already be attached.  The returned bool
// reports whether this call flipped payment_done; repeat confirmations
// succeed but return false, so callers can run first-confirmation side
// effects exactly once.
func (s *Service) Confirm(ctx context.Context, bookingID, userID uint64) (bool, error) {
    b, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
    if err != nil {
        return false, err
    }
    if b.TransactionRef == nil {
        return false, ErrNotAttached
    }
    if b.PaymentDone {
        return false, nil
    }
    if err := s.bookings.MarkPaymentDone(ctx, bookingID, userID); err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return false, ErrNotAttached
        }
        return false, err
    }
    return true, nil
}
