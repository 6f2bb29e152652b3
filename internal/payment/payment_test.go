package payment

import (
    "context"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinetick/movie-booking/internal/repository"
)

func TestNewTransactionRefFormat(t *testing.T) {
    at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
    ref := NewTransactionRef(at)

    assert.Len(t, ref, 23)
    assert.True(t, regexp.MustCompile(`^TXN20260115103000[0-9A-F]{6}$`).MatchString(ref), "ref %q", ref)

    // The random suffix makes refs unique even within one second.
    assert.NotEqual(t, ref, NewTransactionRef(at))
}

func newMockPayment(t *testing.T) (*Service, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewService(repository.NewBookingRepo(db)), mock
}

func bookingRows(ref interface{}, paymentDone bool) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "show_id", "total_cents", "payment_done", "transaction_ref", "created_at"}).
        AddRow(9, 7, 5, 30000, paymentDone, ref, time.Now().UTC())
}

func seatRows(codes ...string) *sqlmock.Rows {
    r := sqlmock.NewRows([]string{"seat_code"})
    for _, c := range codes {
        r.AddRow(c)
    }
    return r
}

func TestAttachGeneratesAndStoresRef(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows(nil, false))
    mock.ExpectQuery("FROM booking_seats WHERE booking_id").WillReturnRows(seatRows("A1", "A2"))
    mock.ExpectExec("UPDATE bookings SET transaction_ref").WillReturnResult(sqlmock.NewResult(0, 1))

    ref, err := svc.Attach(context.Background(), 9, 7)
    require.NoError(t, err)
    assert.True(t, regexp.MustCompile(`^TXN\d{14}[0-9A-F]{6}$`).MatchString(ref), "ref %q", ref)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachTwiceConflicts(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows("TXN20260115103000AB12CD", false))
    mock.ExpectQuery("FROM booking_seats WHERE booking_id").WillReturnRows(seatRows("A1"))

    _, err := svc.Attach(context.Background(), 9, 7)
    assert.ErrorIs(t, err, ErrRefExists)
}

func TestAttachForeignBookingForbidden(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows(nil, false))

    _, err := svc.Attach(context.Background(), 9, 1234)
    assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestConfirmRequiresAttachedRef(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows(nil, false))
    mock.ExpectQuery("FROM booking_seats WHERE booking_id").WillReturnRows(seatRows("A1"))

    _, err := svc.Confirm(context.Background(), 9, 7)
    assert.ErrorIs(t, err, ErrNotAttached)
}

func TestConfirmMarksPaymentDone(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows("TXN20260115103000AB12CD", false))
    mock.ExpectQuery("FROM booking_seats WHERE booking_id").WillReturnRows(seatRows("A1"))
    mock.ExpectExec("UPDATE bookings SET payment_done").WillReturnResult(sqlmock.NewResult(0, 1))

    transitioned, err := svc.Confirm(context.Background(), 9, 7)
    require.NoError(t, err)
    assert.True(t, transitioned)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmIdempotent(t *testing.T) {
    svc, mock := newMockPayment(t)

    mock.ExpectQuery("FROM bookings WHERE id").WillReturnRows(bookingRows("TXN20260115103000AB12CD", true))
    mock.ExpectQuery("FROM booking_seats WHERE booking_id").WillReturnRows(seatRows("A1"))

    // Already paid: no UPDATE is issued and the call reports no
    // transition, so callers skip first-confirmation side effects.
    transitioned, err := svc.Confirm(context.Background(), 9, 7)
    require.NoError(t, err)
    assert.False(t, transitioned)
    require.NoError(t, mock.ExpectationsWereMet())
}
