package booking

import (
    "context"
    "database/sql"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinetick/movie-booking/internal/repository"
)

func newMockService(t *testing.T, pricing Pricing) (*Service, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    shows := repository.NewShowRepo(db)
    bookings := repository.NewBookingRepo(db)
    holds := repository.NewSeatHoldRepo(db)
    svc := NewService(shows, bookings, holds, pricing, time.Second, time.Minute)
    return svc, mock
}

// showWithScreenRows builds the row returned by the show+screen join
// for a show priced at priceCents on a rows x cols screen.
func showWithScreenRows(showID uint64, priceCents uint32, rows, cols int) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "movie_id", "screen_id", "starts_at", "price_cents", "created_at",
        "sc_id", "theater_id", "name", "seat_rows", "seat_cols",
    }).AddRow(showID, 1, 2, now.Add(time.Hour), priceCents, now, 2, 1, "Screen 1", rows, cols)
}

func seatCodeRows(codes ...string) *sqlmock.Rows {
    r := sqlmock.NewRows([]string{"seat_code"})
    for _, c := range codes {
        r.AddRow(c)
    }
    return r
}

func emptyHoldRows() *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "show_id", "seat_code", "hold_token", "expires_at", "created_at"})
}

func TestShowAvailabilityPartition(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows("A2"))

    av, err := svc.ShowAvailability(context.Background(), 5)
    require.NoError(t, err)
    assert.EqualValues(t, 5, av.ShowID)
    assert.Equal(t, 2, av.Rows)
    assert.Equal(t, 2, av.Cols)
    assert.Equal(t, []string{"A2"}, av.Taken)
    assert.Equal(t, []string{"A1", "B1", "B2"}, av.Available)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowAvailabilitySkipsMalformedCodes(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    // "Z9" is outside a 2x2 screen and must not poison the result.
    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows("Z9", "B1"))

    av, err := svc.ShowAvailability(context.Background(), 5)
    require.NoError(t, err)
    assert.Equal(t, []string{"B1"}, av.Taken)
    assert.Equal(t, []string{"A1", "A2", "B2"}, av.Available)
}

func TestReserveCommitsAndPricesPerSeat(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 4, 4))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectExec("INSERT INTO bookings").
        WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(45000)).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(1, 3))
    mock.ExpectQuery("SELECT created_at, payment_done FROM bookings").
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "payment_done"}).AddRow(time.Now().UTC(), false))
    mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE user_id").WillReturnRows(seatCodeRows())
    mock.ExpectExec("DELETE FROM seat_holds WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectCommit()

    b, err := svc.Reserve(context.Background(), 5, []string{"a1", "A2", "B1"}, 7)
    require.NoError(t, err)
    assert.EqualValues(t, 42, b.ID)
    assert.Equal(t, []string{"A1", "A2", "B1"}, b.Seats)
    assert.EqualValues(t, 45000, b.TotalCents)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveFlatPricing(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceFlat, FlatCents: 11000})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectExec("INSERT INTO bookings").
        WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(22000)).
        WillReturnResult(sqlmock.NewResult(43, 1))
    mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectQuery("SELECT created_at, payment_done FROM bookings").
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "payment_done"}).AddRow(time.Now().UTC(), false))
    mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE user_id").WillReturnRows(seatCodeRows())
    mock.ExpectExec("DELETE FROM seat_holds WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectCommit()

    b, err := svc.Reserve(context.Background(), 5, []string{"A1", "B2"}, 7)
    require.NoError(t, err)
    assert.EqualValues(t, 22000, b.TotalCents)
}

func TestReserveReportsConflictingSeats(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows("A2"))
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectRollback()

    _, err := svc.Reserve(context.Background(), 5, []string{"A1", "A2"}, 7)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"A2"}, conflict.Seats)
}

func TestReserveOthersHoldBlocks(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    other := uint64(99)
    holdRows := emptyHoldRows().AddRow(1, other, 5, "B1", "tok", time.Now().UTC().Add(time.Minute), time.Now().UTC())

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(holdRows)
    mock.ExpectRollback()

    _, err := svc.Reserve(context.Background(), 5, []string{"B1"}, 7)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"B1"}, conflict.Seats)
}

func TestReserveOwnHoldDoesNotBlock(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mine := uint64(7)
    holdRows := emptyHoldRows().AddRow(1, mine, 5, "B1", "tok", time.Now().UTC().Add(time.Minute), time.Now().UTC())

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(holdRows)
    mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(44, 1))
    mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT created_at, payment_done FROM bookings").
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "payment_done"}).AddRow(time.Now().UTC(), false))
    mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE user_id").WillReturnRows(seatCodeRows("B1"))
    mock.ExpectExec("DELETE FROM seat_holds WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    b, err := svc.Reserve(context.Background(), 5, []string{"B1"}, mine)
    require.NoError(t, err)
    assert.Equal(t, []string{"B1"}, b.Seats)
}

func TestReserveRejectsInvalidSelections(t *testing.T) {
    cases := []struct {
        name  string
        seats []string
    }{
        {"empty", nil},
        {"duplicate", []string{"A1", "a1"}},
        {"outside map", []string{"Z9"}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})
            mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))

            _, err := svc.Reserve(context.Background(), 5, tc.seats, 7)
            var invalid *InvalidRequestError
            assert.ErrorAs(t, err, &invalid)
        })
    }
}

func TestReserveUnknownShow(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})
    mock.ExpectQuery("JOIN screens").WillReturnError(sql.ErrNoRows)

    _, err := svc.Reserve(context.Background(), 999, []string{"A1"}, 7)
    assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestReserveDuplicateKeyMapsToConflict(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(45, 1))
    mock.ExpectExec("INSERT INTO booking_seats").
        WillReturnError(errors.New("Error 1062: Duplicate entry ' 5-A1' for key 'uq_show_seat'"))
    mock.ExpectRollback()
    // Re-read to name the exact conflicting seats.
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows("A1"))

    _, err := svc.Reserve(context.Background(), 5, []string{"A1"}, 7)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"A1"}, conflict.Seats)
}

func TestReserveRetriesThenStorageUnavailable(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    for i := 0; i < 3; i++ {
        mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
    }

    _, err := svc.Reserve(context.Background(), 5, []string{"A1"}, 7)
    assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestHoldSeatsConflictsWithAnyHold(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    other := uint64(99)
    holdRows := emptyHoldRows().AddRow(1, other, 5, "A1", "tok", time.Now().UTC().Add(time.Minute), time.Now().UTC())

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(holdRows)
    mock.ExpectRollback()

    _, err := svc.HoldSeats(context.Background(), 5, []string{"A1"}, 7)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"A1"}, conflict.Seats)
}

func TestHoldSeatsDuplicateKeyMapsToConflict(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    // Another process inserted a hold for the same seat between our
    // check and our insert; the unique index rejects ours.
    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectExec("INSERT INTO seat_holds").
        WillReturnError(errors.New("Error 1062: Duplicate entry '5-A1' for key 'uq_hold_show_seat'"))
    mock.ExpectRollback()

    _, err := svc.HoldSeats(context.Background(), 5, []string{"A1"}, 7)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"A1"}, conflict.Seats)
}

func TestHoldSeatsCreatesSharedToken(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
    mock.ExpectBegin()
    mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    mock.ExpectExec("INSERT INTO seat_holds").WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectCommit()

    hold, err := svc.HoldSeats(context.Background(), 5, []string{"A1", "B2"}, 7)
    require.NoError(t, err)
    assert.Len(t, hold.Token, 64)
    assert.Equal(t, []string{"A1", "B2"}, hold.Seats)
    assert.True(t, hold.ExpiresAt.After(time.Now()))
}

// TestReserveConcurrentSingleWinner drives several goroutines through
// the full Reserve path for the same seat.  The per-show lock
// serializes the transactions, so exactly one caller commits; the rest
// see the seat as taken and get a ConflictError naming it.
func TestReserveConcurrentSingleWinner(t *testing.T) {
    const workers = 3

    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})
    mock.MatchExpectationsInOrder(false)

    for i := 0; i < workers; i++ {
        mock.ExpectQuery("JOIN screens").WillReturnRows(showWithScreenRows(5, 15000, 2, 2))
        mock.ExpectBegin()
        mock.ExpectQuery("expires_at <= UTC_TIMESTAMP").WillReturnRows(seatCodeRows())
        mock.ExpectQuery("expires_at > UTC_TIMESTAMP").WillReturnRows(emptyHoldRows())
    }
    // First caller through the lock sees the seat free; later callers
    // see it committed.
    mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows())
    for i := 1; i < workers; i++ {
        mock.ExpectQuery("SELECT seat_code FROM booking_seats").WillReturnRows(seatCodeRows("A1"))
    }
    mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(50, 1))
    mock.ExpectExec("INSERT INTO booking_seats").WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT created_at, payment_done FROM bookings").
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "payment_done"}).AddRow(time.Now().UTC(), false))
    mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE user_id").WillReturnRows(seatCodeRows())
    mock.ExpectExec("DELETE FROM seat_holds WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectCommit()
    for i := 1; i < workers; i++ {
        mock.ExpectRollback()
    }

    errs := make(chan error, workers)
    var wg sync.WaitGroup
    for i := 0; i < workers; i++ {
        wg.Add(1)
        userID := uint64(100 + i)
        go func() {
            defer wg.Done()
            _, err := svc.Reserve(context.Background(), 5, []string{"A1"}, userID)
            errs <- err
        }()
    }
    wg.Wait()
    close(errs)

    var wins, losses int
    for err := range errs {
        if err == nil {
            wins++
            continue
        }
        var conflict *ConflictError
        if assert.ErrorAs(t, err, &conflict) {
            assert.Equal(t, []string{"A1"}, conflict.Seats)
        }
        losses++
    }
    assert.Equal(t, 1, wins)
    assert.Equal(t, workers-1, losses)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseHolds(t *testing.T) {
    svc, mock := newMockService(t, Pricing{Source: PriceSourceShow})

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE user_id").WillReturnRows(seatCodeRows("A1", "A2"))
    mock.ExpectExec("DELETE FROM seat_holds WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    released, err := svc.ReleaseHolds(context.Background(), 5, 7)
    require.NoError(t, err)
    assert.Equal(t, 2, released)
}
