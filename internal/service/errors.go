package service

import "errors"

// ErrInvalidRequest covers malformed caller input: empty or duplicated seat
// sets, unparseable seat codes, unknown add-on names.  Validation happens
// before any state is touched.
var ErrInvalidRequest = errors.New("invalid request")

// ErrTooLateToCancel rejects cancellations at or after the showtime start.
var ErrTooLateToCancel = errors.New("too late to cancel")
