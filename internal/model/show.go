package model

import "time"

// Show is a scheduled screening of a movie on a particular screen.  The
// seat universe of a show is derived from its screen's geometry rather
// than stored.  Shows are listed in ascending start-time order.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – movie being screened.
//  ScreenID   – screen the show runs on.
//  StartsAt   – when the show begins (UTC).
//  PriceCents – per-seat price in cents.
//  CreatedAt  – creation timestamp.
type Show struct {
    ID         uint64    // shows.id
    MovieID    uint64    // shows.movie_id
    ScreenID   uint64    // shows.screen_id
    StartsAt   time.Time // shows.starts_at
    PriceCents uint32    // shows.price_cents
    CreatedAt  time.Time // shows.created_at
}
