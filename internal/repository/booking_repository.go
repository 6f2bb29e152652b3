package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/cinetick/movie-booking/internal/model"
)

// BookingRepo provides persistence for bookings and their seat codes.
// A booking groups one or more seats for a show under a single commit;
// the seat codes live in the booking_seats table, which carries a
// unique index on (show_id, seat_code).  That index is the storage-level
// guarantee that no seat is ever committed to two bookings, independent
// of any in-process coordination.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so the coordinator can open
// transactions spanning bookings and seat holds.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// SeatCodesByShow returns the seat codes of every committed booking for
// a show, in no particular order.  This is the read used by the
// availability engine; it runs outside any transaction and may observe
// a slightly stale view, which is acceptable for display.
func (r *BookingRepo) SeatCodesByShow(ctx context.Context, showID uint64) ([]string, error) {
    return seatCodesByShow(ctx, r.db, showID)
}

// SeatCodesByShowTx is SeatCodesByShow executed within the caller's
// transaction.  The reservation coordinator uses it so that the
// conflict check and the insert observe the same snapshot.
func (r *BookingRepo) SeatCodesByShowTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]string, error) {
    return seatCodesByShow(ctx, tx, showID)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func seatCodesByShow(ctx context.Context, q queryer, showID uint64) ([]string, error) {
    rows, err := q.QueryContext(ctx, `SELECT seat_code FROM booking_seats WHERE show_id = ?`, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    codes := make([]string, 0)
    for rows.Next() {
        var code string
        if err := rows.Scan(&code); err != nil {
            return nil, err
        }
        codes = append(codes, code)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return codes, nil
}

// CreateTx inserts a booking and its seat rows within the provided
// transaction.  It populates the generated ID and CreatedAt on the
// booking.  The caller must commit or roll back.  A duplicate-key
// failure on booking_seats means another transaction committed one of
// the same seats first; detect it with IsDuplicateSeat.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, show_id, total_cents) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.UserID, b.ShowID, b.TotalCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)

    seatQ := `INSERT INTO booking_seats (booking_id, show_id, seat_code) VALUES `
    args := make([]any, 0, len(b.Seats)*3)
    for i, code := range b.Seats {
        if i > 0 {
            seatQ += ","
        }
        seatQ += "(?, ?, ?)"
        args = append(args, b.ID, b.ShowID, code)
    }
    if _, err := tx.ExecContext(ctx, seatQ, args...); err != nil {
        return err
    }

    // Read back DB-assigned defaults.
    const sel = `SELECT created_at, payment_done FROM bookings WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.PaymentDone)
}

// IsDuplicateSeat reports whether err is a MySQL duplicate-entry error
// (1062), which on booking_seats can only mean a (show_id, seat_code)
// collision with a concurrently committed booking.
func IsDuplicateSeat(err error) bool {
    if err == nil {
        return false
    }
    msg := strings.ToLower(err.Error())
    return strings.Contains(msg, "1062") || strings.Contains(msg, "duplicate entry")
}

// GetByIDForUser returns a booking with its seat codes, enforcing that
// it belongs to the given user.  It returns ErrBookingNotFound when no
// booking with the ID exists and ErrForbidden when it belongs to
// someone else.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
    const q = `SELECT id, user_id, show_id, total_cents, payment_done, transaction_ref, created_at FROM bookings WHERE id = ?`
    var (
        b      model.Booking
        uid    sql.NullInt64
        txnRef sql.NullString
    )
    err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&b.ID, &uid, &b.ShowID, &b.TotalCents, &b.PaymentDone, &txnRef, &b.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    if uid.Valid {
        owner := uint64(uid.Int64)
        b.UserID = &owner
    }
    if b.UserID == nil || *b.UserID != userID {
        return nil, ErrForbidden
    }
    if txnRef.Valid {
        ref := txnRef.String
        b.TransactionRef = &ref
    }
    seats, err := r.seatCodesByBooking(ctx, b.ID)
    if err != nil {
        return nil, err
    }
    b.Seats = seats
    return &b, nil
}

func (r *BookingRepo) seatCodesByBooking(ctx context.Context, bookingID uint64) ([]string, error) {
    const q = `SELECT seat_code FROM booking_seats WHERE booking_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    codes := make([]string, 0)
    for rows.Next() {
        var code string
        if err := rows.Scan(&code); err != nil {
            return nil, err
        }
        codes = append(codes, code)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return codes, nil
}

// AttachTransactionRef stores a transaction reference on a booking that
// does not yet have one.  It returns ErrBookingNotFound when the update
// matched no row, which callers should disambiguate by fetching the
// booking first (either the booking is gone or a reference is already
// attached).
func (r *BookingRepo) AttachTransactionRef(ctx context.Context, bookingID, userID uint64, ref string) error {
    const q = `UPDATE bookings SET transaction_ref = ? WHERE id = ? AND user_id = ? AND transaction_ref IS NULL`
    res, err := r.db.ExecContext(ctx, q, ref, bookingID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

// MarkPaymentDone flips payment_done on a booking that already carries a
// transaction reference.  Returns ErrBookingNotFound when nothing
// matched.
func (r *BookingRepo) MarkPaymentDone(ctx context.Context, bookingID, userID uint64) error {
    const q = `UPDATE bookings SET payment_done = TRUE WHERE id = ? AND user_id = ? AND transaction_ref IS NOT NULL`
    res, err := r.db.ExecContext(ctx, q, bookingID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

// BookingDetail is a denormalized view of a booking used when listing a
// user's bookings: the booking plus its show, movie and venue context.
type BookingDetail struct {
    ID             uint64    `json:"id"`
    ShowID         uint64    `json:"show_id"`
    MovieTitle     string    `json:"movie_title"`
    TheaterName    string    `json:"theater_name"`
    ScreenName     string    `json:"screen_name"`
    StartsAt       time.Time `json:"starts_at"`
    Seats          []string  `json:"seats"`
    TotalCents     uint32    `json:"total_cents"`
    PaymentDone    bool      `json:"payment_done"`
    TransactionRef *string   `json:"transaction_ref,omitempty"`
    CreatedAt      time.Time `json:"created_at"`
}

// ListByUser returns all bookings of a user, newest first, each with
// its seat codes and show/movie context.  An empty slice is returned
// when the user has no bookings.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    const q = `SELECT b.id, b.show_id, m.title, t.name, sc.name, s.starts_at,
                      b.total_cents, b.payment_done, b.transaction_ref, b.created_at
               FROM bookings b
               JOIN shows s ON s.id = b.show_id
               JOIN movies m ON m.id = s.movie_id
               JOIN screens sc ON sc.id = s.screen_id
               JOIN theaters t ON t.id = sc.theater_id
               WHERE b.user_id = ?
               ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            d      BookingDetail
            txnRef sql.NullString
        )
        if err := rows.Scan(&d.ID, &d.ShowID, &d.MovieTitle, &d.TheaterName, &d.ScreenName, &d.StartsAt,
            &d.TotalCents, &d.PaymentDone, &txnRef, &d.CreatedAt); err != nil {
            return nil, err
        }
        if txnRef.Valid {
            ref := txnRef.String
            d.TransactionRef = &ref
        }
        d.Seats = []string{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    // Populate seats for all bookings in a single query.
    ids := make([]any, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    seatQ := `SELECT booking_id, seat_code FROM booking_seats
              WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY booking_id, id`
    srows, err := r.db.QueryContext(ctx, seatQ, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var (
            bid  uint64
            code string
        )
        if err := srows.Scan(&bid, &code); err != nil {
            return nil, err
        }
        if idx, ok := index[bid]; ok {
            details[idx].Seats = append(details[idx].Seats, code)
        }
    }
    if err := srows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// TicketContext bundles everything the ticket issuer needs to render a
// booking: the booking itself plus movie, venue and show-time details.
type TicketContext struct {
    Booking     model.Booking
    MovieTitle  string
    TheaterName string
    ScreenName  string
    StartsAt    time.Time
}

// GetTicketContext loads a booking with its presentation context,
// enforcing ownership the same way GetByIDForUser does.
func (r *BookingRepo) GetTicketContext(ctx context.Context, bookingID, userID uint64) (*TicketContext, error) {
    b, err := r.GetByIDForUser(ctx, bookingID, userID)
    if err != nil {
        return nil, err
    }
    const q = `SELECT m.title, t.name, sc.name, s.starts_at
               FROM shows s
               JOIN movies m ON m.id = s.movie_id
               JOIN screens sc ON sc.id = s.screen_id
               JOIN theaters t ON t.id = sc.theater_id
               WHERE s.id = ?`
    var tc TicketContext
    if err := r.db.QueryRowContext(ctx, q, b.ShowID).Scan(&tc.MovieTitle, &tc.TheaterName, &tc.ScreenName, &tc.StartsAt); err != nil {
        return nil, err
    }
    tc.Booking = *b
    return &tc, nil
}
