package model

import "time"

// Movie is a catalog entry for a film that can be scheduled into shows.
// Catalog records are reference data: they are created and updated by
// administrators and never mutated by the booking flow.  This struct
// corresponds to a row in the `movies` table.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – film title.
//  Description – synopsis, may be empty.
//  DurationMin – running time in minutes (nil if unknown).
//  ReleaseDate – theatrical release date (nil if unknown).
//  Language    – original language, may be empty.
//  CreatedAt   – timestamp when the record was created.
type Movie struct {
    ID          uint64     // movies.id
    Title       string     // movies.title
    Description string     // movies.description
    DurationMin *uint32    // movies.duration_min (nullable)
    ReleaseDate *time.Time // movies.release_date (nullable)
    Language    string     // movies.language
    CreatedAt   time.Time  // movies.created_at
}
