// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published once a booking's payment is confirmed.
// It carries enough context for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID      uint64   `json:"booking_id"`
    UserID         uint64   `json:"user_id"`
    ShowID         uint64   `json:"show_id"`
    TheaterName    string   `json:"theater_name"`
    ScreenName     string   `json:"screen_name"`
    MovieTitle     string   `json:"movie_title"`
    StartsAt       string   `json:"starts_at"`
    Seats          []string `json:"seats"`
    TotalCents     uint32   `json:"total_cents"`
    TransactionRef string   `json:"transaction_ref"`
    ConfirmedAt    string   `json:"confirmed_at"`
}
