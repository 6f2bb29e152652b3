// Package booking implements the seat-availability engine and the
// reservation coordinator: computing which seats of a show are free and
// atomically committing a set of seats without double-booking.
package booking

import (
    "errors"
    "fmt"
    "strings"
)

// ErrShowBusy is returned when the per-show lock could not be acquired
// within the configured timeout.  The condition is transient; clients
// should retry after a short delay.
var ErrShowBusy = errors.New("booking: show is busy, retry")

// ErrStorageUnavailable is returned after the coordinator has exhausted
// its internal retries against the data store.  Like ErrShowBusy it is
// retryable by the caller.
var ErrStorageUnavailable = errors.New("booking: storage unavailable")

// InvalidRequestError rejects a reservation request before any state is
// touched: an empty selection, duplicate codes within the request, or
// codes outside the show's seat map.  Seats lists the offending codes
// when that is meaningful.
type InvalidRequestError struct {
    Reason string
    Seats  []string
}

func (e *InvalidRequestError) Error() string {
    if len(e.Seats) == 0 {
        return "booking: invalid request: " + e.Reason
    }
    return fmt.Sprintf("booking: invalid request: %s: %s", e.Reason, strings.Join(e.Seats, ","))
}

// ConflictError reports that one or more requested seats were already
// committed (or held by another user) at the moment of the atomic
// check.  Seats names exactly the contested codes so the client can
// retry with the remainder.
type ConflictError struct {
    Seats []string
}

func (e *ConflictError) Error() string {
    return "booking: seats already taken: " + strings.Join(e.Seats, ",")
}
