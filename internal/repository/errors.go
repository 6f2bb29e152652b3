// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// string-matching driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, e.g. fetching another user's booking.
// Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// ErrTheaterNotFound indicates that a theater was not located in the DB.
var ErrTheaterNotFound = errors.New("theater not found")

// ErrScreenNotFound indicates that a screen was not located in the DB.
var ErrScreenNotFound = errors.New("screen not found")

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")
