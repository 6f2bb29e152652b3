package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestIsDuplicateSeat(t *testing.T) {
    assert.True(t, IsDuplicateSeat(errors.New("Error 1062: Duplicate entry '5-A1' for key 'uq_show_seat'")))
    assert.True(t, IsDuplicateSeat(errors.New("duplicate entry for key")))
    assert.False(t, IsDuplicateSeat(errors.New("connection refused")))
    assert.False(t, IsDuplicateSeat(nil))
}

func TestListByUserGroupsSeats(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewBookingRepo(db)

    now := time.Now().UTC()
    mock.ExpectQuery("FROM bookings b").WillReturnRows(
        sqlmock.NewRows([]string{"id", "show_id", "title", "theater", "screen", "starts_at", "total_cents", "payment_done", "transaction_ref", "created_at"}).
            AddRow(2, 5, "Arrival", "Grand Central", "Screen 1", now.Add(time.Hour), 30000, true, "TXN20260115103000AB12CD", now).
            AddRow(1, 5, "Arrival", "Grand Central", "Screen 1", now.Add(time.Hour), 15000, false, nil, now.Add(-time.Hour)))
    mock.ExpectQuery("FROM booking_seats").WillReturnRows(
        sqlmock.NewRows([]string{"booking_id", "seat_code"}).
            AddRow(1, "B1").
            AddRow(2, "A1").
            AddRow(2, "A2"))

    details, err := repo.ListByUser(context.Background(), 7)
    require.NoError(t, err)
    require.Len(t, details, 2)

    assert.EqualValues(t, 2, details[0].ID)
    assert.Equal(t, []string{"A1", "A2"}, details[0].Seats)
    require.NotNil(t, details[0].TransactionRef)
    assert.True(t, details[0].PaymentDone)

    assert.EqualValues(t, 1, details[1].ID)
    assert.Equal(t, []string{"B1"}, details[1].Seats)
    assert.Nil(t, details[1].TransactionRef)
}

func TestListByUserEmpty(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewBookingRepo(db)

    mock.ExpectQuery("FROM bookings b").WillReturnRows(
        sqlmock.NewRows([]string{"id", "show_id", "title", "theater", "screen", "starts_at", "total_cents", "payment_done", "transaction_ref", "created_at"}))

    details, err := repo.ListByUser(context.Background(), 7)
    require.NoError(t, err)
    assert.Empty(t, details)
}

func TestGetByIDForUserOwnership(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewBookingRepo(db)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(
        sqlmock.NewRows([]string{"id", "user_id", "show_id", "total_cents", "payment_done", "transaction_ref", "created_at"}).
            AddRow(9, 7, 5, 30000, false, nil, time.Now().UTC()))

    _, err = repo.GetByIDForUser(context.Background(), 9, 1234)
    assert.ErrorIs(t, err, ErrForbidden)
}
