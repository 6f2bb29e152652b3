package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/cinetick/movie-booking/internal/model"
)

// MovieRepo manages persistence for the movie catalog.  Movies are
// reference data: the booking flow only ever reads them, while
// administrators create and update entries.
type MovieRepo struct {
    db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a new movie and assigns the generated ID back to the
// struct.  DurationMin and ReleaseDate may be nil.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
    const q = `INSERT INTO movies (title, description, duration_min, release_date, language) VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.DurationMin, m.ReleaseDate, m.Language)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

// GetByID retrieves a movie by its ID.  It returns ErrMovieNotFound
// when there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
    const q = `SELECT id, title, description, duration_min, release_date, language, created_at FROM movies WHERE id = ?`
    var (
        m        model.Movie
        duration sql.NullInt64
        release  sql.NullTime
    )
    err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Description, &duration, &release, &m.Language, &m.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrMovieNotFound
        }
        return nil, err
    }
    if duration.Valid {
        d := uint32(duration.Int64)
        m.DurationMin = &d
    }
    if release.Valid {
        t := release.Time
        m.ReleaseDate = &t
    }
    return &m, nil
}

// ListAll returns every movie in the catalog ordered by title.  When the
// catalog is empty it returns an empty slice and nil error.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
    const q = `SELECT id, title, description, duration_min, release_date, language, created_at FROM movies ORDER BY title`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    movies := make([]model.Movie, 0)
    for rows.Next() {
        var (
            m        model.Movie
            duration sql.NullInt64
            release  sql.NullTime
        )
        if err := rows.Scan(&m.ID, &m.Title, &m.Description, &duration, &release, &m.Language, &m.CreatedAt); err != nil {
            return nil, err
        }
        if duration.Valid {
            d := uint32(duration.Int64)
            m.DurationMin = &d
        }
        if release.Valid {
            t := release.Time
            m.ReleaseDate = &t
        }
        movies = append(movies, m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return movies, nil
}
