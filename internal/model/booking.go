package model

import "time"

// Booking records a committed reservation of one or more seats for a
// show.  Once persisted, the union of seat codes across all bookings of
// a show contains no duplicates: the reservation coordinator rejects
// conflicting requests and a unique index on (show_id, seat_code) backs
// that up at the storage layer.  A booking's seat list is never empty.
//
// Bookings are only mutated after creation to attach a transaction
// reference and to flip PaymentDone; cancellation is out of scope.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the booking (nil for guest bookings).
//  ShowID         – show the seats belong to.
//  Seats          – ordered seat codes, a subset of the show's seat map.
//  TotalCents     – total price in cents (seat count × per-seat price).
//  PaymentDone    – whether payment has been confirmed.
//  TransactionRef – synthetic payment reference (nil until attached).
//  CreatedAt      – when the booking was committed.
type Booking struct {
    ID             uint64    // bookings.id
    UserID         *uint64   // bookings.user_id (nullable)
    ShowID         uint64    // bookings.show_id
    Seats          []string  // booking_seats.seat_code, seat-map order
    TotalCents     uint32    // bookings.total_cents
    PaymentDone    bool      // bookings.payment_done
    TransactionRef *string   // bookings.transaction_ref (nullable)
    CreatedAt      time.Time // bookings.created_at
}
