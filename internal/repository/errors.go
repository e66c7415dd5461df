// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation and cancellation engines to distinguish between different
// failure scenarios. For example, ErrSeatConflict indicates that a claim
// found at least one requested seat no longer available, while
// ErrAlreadyCancelled signals that a booking has left the confirmed state
// and must not be cancelled (or refunded) again.
package repository

import "errors"

// ErrSeatConflict is returned by TryClaimTx when one or more requested
// seats were not available. The enclosing transaction must be rolled back
// so no partial claim survives.
var ErrSeatConflict = errors.New("seat conflict")

// ErrSeatNotHeld is returned by ReleaseTx when a seat expected to be held
// was not. A cancellation hitting this must roll back entirely.
var ErrSeatNotHeld = errors.New("seat not held")

// ErrBookingNotFound is returned when no booking exists for an id or ref.
var ErrBookingNotFound = errors.New("booking not found")

// ErrAlreadyCancelled is returned by the confirmed-to-cancelled transition
// when the booking is already cancelled. It is the idempotency guard that
// prevents double refunds.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrDuplicateBooking is returned when a booking ref collides with an
// existing row. With UUID refs this should not occur; the unique index is
// the storage-level backstop.
var ErrDuplicateBooking = errors.New("duplicate booking ref")

// ErrShowtimeNotFound is returned when a showtime id is unknown.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrMovieNotFound is returned when a movie id is unknown.
var ErrMovieNotFound = errors.New("movie not found")
