package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/cinetick/movie-booking/internal/model"
)

// TheaterRepo manages persistence for theaters and their screens.  A
// screen row carries the seat geometry (rows/cols) from which the
// seatmap package derives every seat code, so geometry is validated to
// be at least 1×1 before it reaches this layer.
type TheaterRepo struct {
    db *sql.DB
}

// NewTheaterRepo constructs a TheaterRepo with the given DB handle.
func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

// CreateTheater inserts a new theater and assigns the generated ID back
// to the struct.
func (r *TheaterRepo) CreateTheater(ctx context.Context, t *model.Theater) error {
    const q = `INSERT INTO theaters (name, city, address) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, t.Name, t.City, t.Address)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// GetTheater retrieves a theater by ID, returning ErrTheaterNotFound
// when no row matches.
func (r *TheaterRepo) GetTheater(ctx context.Context, id uint64) (*model.Theater, error) {
    const q = `SELECT id, name, city, address FROM theaters WHERE id = ?`
    var t model.Theater
    err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.City, &t.Address)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrTheaterNotFound
        }
        return nil, err
    }
    return &t, nil
}

// ListTheaters returns all theaters ordered by name.
func (r *TheaterRepo) ListTheaters(ctx context.Context) ([]model.Theater, error) {
    const q = `SELECT id, name, city, address FROM theaters ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    theaters := make([]model.Theater, 0)
    for rows.Next() {
        var t model.Theater
        if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Address); err != nil {
            return nil, err
        }
        theaters = append(theaters, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return theaters, nil
}

// CreateScreen inserts a new screen.  The caller is responsible for
// validating the seat geometry; this method only persists it.
func (r *TheaterRepo) CreateScreen(ctx context.Context, s *model.Screen) error {
    const q = `INSERT INTO screens (theater_id, name, seat_rows, seat_cols) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, s.TheaterID, s.Name, s.Rows, s.Cols)
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

// GetScreen retrieves a screen by ID, returning ErrScreenNotFound when
// no row matches.
func (r *TheaterRepo) GetScreen(ctx context.Context, id uint64) (*model.Screen, error) {
    const q = `SELECT id, theater_id, name, seat_rows, seat_cols FROM screens WHERE id = ?`
    var s model.Screen
    err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TheaterID, &s.Name, &s.Rows, &s.Cols)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrScreenNotFound
        }
        return nil, err
    }
    return &s, nil
}

// ListScreensByTheater returns the screens of a theater ordered by name.
func (r *TheaterRepo) ListScreensByTheater(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
    const q = `SELECT id, theater_id, name, seat_rows, seat_cols FROM screens WHERE theater_id = ? ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, theaterID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    screens := make([]model.Screen, 0)
    for rows.Next() {
        var s model.Screen
        if err := rows.Scan(&s.ID, &s.TheaterID, &s.Name, &s.Rows, &s.Cols); err != nil {
            return nil, err
        }
        screens = append(screens, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return screens, nil
}
