package repository

import (
    "context"
    "crypto/rand"
    "database/sql"
    "encoding/hex"
    "time"

    "github.com/cinetick/movie-booking/internal/model"
)

// SeatHoldRepo provides data access to the seat_holds table.  Holds are
// the explicit pending-reservation records created during checkout;
// they expire server-side and are purged opportunistically inside the
// same transactions that read them.  All timestamp comparisons are
// performed in UTC.
type SeatHoldRepo struct {
    db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// ExpireHoldsTx deletes all holds for a show whose expires_at has
// passed and returns the seat codes that were freed.  The caller must
// commit or roll back the supplied transaction.  When nothing has
// expired it returns an empty slice and nil error.
func (r *SeatHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]string, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT seat_code FROM seat_holds WHERE show_id = ? AND expires_at <= UTC_TIMESTAMP()`,
        showID,
    )
    if err != nil {
        return nil, err
    }
    var expired []string
    for rows.Next() {
        var code string
        if scanErr := rows.Scan(&code); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        expired = append(expired, code)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if len(expired) == 0 {
        return []string{}, nil
    }
    _, err = tx.ExecContext(ctx,
        `DELETE FROM seat_holds WHERE show_id = ? AND expires_at <= UTC_TIMESTAMP()`,
        showID,
    )
    if err != nil {
        return nil, err
    }
    return expired, nil
}

// ActiveHoldsByShowTx returns every live hold for a show.  The
// reservation coordinator uses this to treat other users' held seats
// as taken during its conflict check; holds belonging to the caller
// are filtered out by the coordinator, not here.
func (r *SeatHoldRepo) ActiveHoldsByShowTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]model.SeatHold, error) {
    const q = `SELECT id, user_id, show_id, seat_code, hold_token, expires_at, created_at
               FROM seat_holds
               WHERE show_id = ? AND expires_at > UTC_TIMESTAMP()`
    rows, err := tx.QueryContext(ctx, q, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var holds []model.SeatHold
    for rows.Next() {
        var (
            h   model.SeatHold
            uid sql.NullInt64
        )
        if err := rows.Scan(&h.ID, &uid, &h.ShowID, &h.SeatCode, &h.HoldToken, &h.ExpiresAt, &h.CreatedAt); err != nil {
            return nil, err
        }
        if uid.Valid {
            u := uint64(uid.Int64)
            h.UserID = &u
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holds, nil
}

// CreateMultipleTx inserts the given holds within the provided
// transaction.  Each hold must carry ShowID, SeatCode, HoldToken and
// ExpiresAt; CreatedAt defaults in the database.  Passing an empty
// slice has no effect and returns nil.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []model.SeatHold) error {
    if len(holds) == 0 {
        return nil
    }
    query := `INSERT INTO seat_holds (user_id, show_id, seat_code, hold_token, expires_at) VALUES `
    args := make([]any, 0, len(holds)*5)
    for i, h := range holds {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        args = append(args, h.UserID, h.ShowID, h.SeatCode, h.HoldToken, h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// DeleteByUserAndShowTx removes all holds a user has on a show and
// returns the freed seat codes.  It is called both when a user
// explicitly releases a hold and when a reservation commits.
func (r *SeatHoldRepo) DeleteByUserAndShowTx(ctx context.Context, tx *sql.Tx, userID, showID uint64) ([]string, error) {
    rows, err := tx.QueryContext(ctx, `SELECT seat_code FROM seat_holds WHERE user_id = ? AND show_id = ?`, userID, showID)
    if err != nil {
        return nil, err
    }
    var codes []string
    for rows.Next() {
        var code string
        if scanErr := rows.Scan(&code); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        codes = append(codes, code)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if _, err = tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE user_id = ? AND show_id = ?`, userID, showID); err != nil {
        return nil, err
    }
    return codes, nil
}

// NewHoldToken returns a 64-character random hex token used to
// correlate a batch of holds across checkout steps.
func NewHoldToken() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}

// BuildHolds assembles hold records for a batch of seat codes sharing
// one token and one expiry.  Handlers use it before CreateMultipleTx.
func BuildHolds(userID uint64, showID uint64, codes []string, token string, expiresAt time.Time) []model.SeatHold {
    holds := make([]model.SeatHold, 0, len(codes))
    for _, code := range codes {
        uid := userID
        holds = append(holds, model.SeatHold{
            UserID:    &uid,
            ShowID:    showID,
            SeatCode:  code,
            HoldToken: token,
            ExpiresAt: expiresAt,
        })
    }
    return holds
}
