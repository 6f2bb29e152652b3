package model

// Theater is a physical venue containing one or more screens.  Like
// movies, theaters are reference data managed by administrators.
//
// Fields:
//  ID      – primary key identifier.
//  Name    – venue name.
//  City    – city the venue is located in, may be empty.
//  Address – street address, may be empty.
type Theater struct {
    ID      uint64 // theaters.id
    Name    string // theaters.name
    City    string // theaters.city
    Address string // theaters.address
}

// Screen is an auditorium inside a theater.  Its seat universe is not
// stored: it is derived from Rows and Cols by the seatmap package, so a
// screen's geometry fully determines the seat codes of every show
// scheduled into it.  Rows and Cols are validated to be at least 1 when
// a screen is created.
//
// Fields:
//  ID        – primary key identifier.
//  TheaterID – containing theater.
//  Name      – screen name within the theater (e.g. "Screen 1").
//  Rows      – number of seating rows (>= 1).
//  Cols      – number of seats per row (>= 1).
type Screen struct {
    ID        uint64 // screens.id
    TheaterID uint64 // screens.theater_id
    Name      string // screens.name
    Rows      int    // screens.seat_rows
    Cols      int    // screens.seat_cols
}
