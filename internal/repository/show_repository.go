package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/cinetick/movie-booking/internal/model"
)

// ShowRepo manages persistence for scheduled shows.  A show ties a
// movie to a screen at a start time with a per-seat price; its seat
// universe is derived from the screen's geometry rather than stored.
type ShowRepo struct {
    db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories, which the reservation
// coordinator relies on for its check-then-commit sequence.
func (r *ShowRepo) DB() *sql.DB { return r.db }

// Create inserts a new show and assigns the generated ID back to the
// struct.  The referenced movie and screen must already exist; foreign
// keys reject dangling references.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
    const q = `INSERT INTO shows (movie_id, screen_id, starts_at, price_cents) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ScreenID, s.StartsAt.UTC(), s.PriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound when
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
    const q = `SELECT id, movie_id, screen_id, starts_at, price_cents, created_at FROM shows WHERE id = ?`
    var s model.Show
    err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.PriceCents, &s.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrShowNotFound
        }
        return nil, err
    }
    return &s, nil
}

// GetWithScreen loads a show together with its screen geometry in a
// single query.  Both the availability engine and the reservation
// coordinator need the pair, so fetching them atomically avoids a
// window where the screen changes between two reads.
func (r *ShowRepo) GetWithScreen(ctx context.Context, id uint64) (*model.Show, *model.Screen, error) {
    const q = `SELECT s.id, s.movie_id, s.screen_id, s.starts_at, s.price_cents, s.created_at,
                      sc.id, sc.theater_id, sc.name, sc.seat_rows, sc.seat_cols
               FROM shows s
               JOIN screens sc ON sc.id = s.screen_id
               WHERE s.id = ?`
    var (
        show   model.Show
        screen model.Screen
    )
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &show.ID, &show.MovieID, &show.ScreenID, &show.StartsAt, &show.PriceCents, &show.CreatedAt,
        &screen.ID, &screen.TheaterID, &screen.Name, &screen.Rows, &screen.Cols,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, nil, ErrShowNotFound
        }
        return nil, nil, err
    }
    return &show, &screen, nil
}

// ShowListing is a denormalized row used when presenting upcoming shows
// for a movie: the show plus its screen and theater context.
type ShowListing struct {
    ID          uint64    `json:"id"`
    StartsAt    time.Time `json:"starts_at"`
    PriceCents  uint32    `json:"price_cents"`
    ScreenID    uint64    `json:"screen_id"`
    ScreenName  string    `json:"screen_name"`
    Rows        int       `json:"rows"`
    Cols        int       `json:"cols"`
    TheaterName string    `json:"theater_name"`
    TheaterCity string    `json:"theater_city"`
}

// ListUpcomingByMovie returns shows for a movie starting at or after the
// given instant, ordered by start time ascending.  The result includes
// screen and theater details for display.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID uint64, from time.Time) ([]ShowListing, error) {
    const q = `SELECT s.id, s.starts_at, s.price_cents,
                      sc.id, sc.name, sc.seat_rows, sc.seat_cols,
                      t.name, t.city
               FROM shows s
               JOIN screens sc ON sc.id = s.screen_id
               JOIN theaters t ON t.id = sc.theater_id
               WHERE s.movie_id = ? AND s.starts_at >= ?
               ORDER BY s.starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, movieID, from.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    listings := make([]ShowListing, 0)
    for rows.Next() {
        var l ShowListing
        if err := rows.Scan(&l.ID, &l.StartsAt, &l.PriceCents, &l.ScreenID, &l.ScreenName, &l.Rows, &l.Cols, &l.TheaterName, &l.TheaterCity); err != nil {
            return nil, err
        }
        listings = append(listings, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return listings, nil
}
