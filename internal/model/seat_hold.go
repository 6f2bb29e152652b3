package model

import "time"

// SeatHold is a short-lived pending reservation created while a user is
// walking through checkout.  It replaces session-held booking state with
// an explicit server-side record: the hold token travels between
// checkout steps and the record expires on its own at ExpiresAt.  Holds
// are advisory for the UI; the reservation coordinator's conflict check
// inside the commit transaction remains the source of truth.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who holds the seat (nil for guests).
//  ShowID    – show the held seat belongs to.
//  SeatCode  – held seat code (e.g. "B7").
//  HoldToken – opaque token returned to the client for correlation.
//  ExpiresAt – when the hold lapses.
//  CreatedAt – when the hold was created.
type SeatHold struct {
    ID        uint64    // seat_holds.id
    UserID    *uint64   // seat_holds.user_id (nullable)
    ShowID    uint64    // seat_holds.show_id
    SeatCode  string    // seat_holds.seat_code
    HoldToken string    // seat_holds.hold_token
    ExpiresAt time.Time // seat_holds.expires_at
    CreatedAt time.Time // seat_holds.created_at
}
