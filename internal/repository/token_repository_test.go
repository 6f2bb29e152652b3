package repository

import (
    "context"
    "database/sql"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestValidateRefreshActiveToken(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTokenRepo(db)

    mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
        WithArgs("deadbeef").
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
            AddRow(7, time.Now().UTC().Add(time.Hour), nil))

    userID, err := repo.ValidateRefresh(context.Background(), "deadbeef")
    require.NoError(t, err)
    assert.EqualValues(t, 7, userID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRejectsRevokedAndExpired(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTokenRepo(db)

    mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
            AddRow(7, time.Now().UTC().Add(time.Hour), time.Now().UTC()))
    _, err = repo.ValidateRefresh(context.Background(), "revokedtoken")
    assert.ErrorIs(t, err, sql.ErrNoRows)

    mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
        WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
            AddRow(7, time.Now().UTC().Add(-time.Minute), nil))
    _, err = repo.ValidateRefresh(context.Background(), "expiredtoken")
    assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRevokeByHashStampsRevokedAt(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTokenRepo(db)

    mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW").
        WithArgs("deadbeef").
        WillReturnResult(sqlmock.NewResult(0, 1))

    require.NoError(t, repo.RevokeByHash(context.Background(), "deadbeef"))
    assert.NoError(t, mock.ExpectationsWereMet())
}
