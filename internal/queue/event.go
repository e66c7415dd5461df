// Package queue defines message payloads exchanged over the message broker
// along with the publisher and the log-writing consumer.
package queue

import (
    "time"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// Queue names.  Both queues are durable and messages are persistent.
const (
    ConfirmedQueue = "booking.confirmed"
    CancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a reservation commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingConfirmedEvent struct {
    BookingNumber  uint64   `json:"booking_number"`
    BookingRef     string   `json:"booking_ref"`
    UserID         uint64   `json:"user_id"`
    ShowtimeID     uint64   `json:"showtime_id"`
    StartsAt       string   `json:"starts_at"`
    SeatCodes      []string `json:"seats"`
    TotalCostCents uint32   `json:"total_cost_cents"`
    ConfirmedAt    string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a cancellation commits.
type BookingCancelledEvent struct {
    BookingNumber uint64 `json:"booking_number"`
    BookingRef    string `json:"booking_ref"`
    UserID        uint64 `json:"user_id"`
    ShowtimeID    uint64 `json:"showtime_id"`
    StartsAt      string `json:"starts_at"`
    FeeCents      uint32 `json:"fee_cents"`
    RefundCents   uint32 `json:"refund_cents"`
    CancelledAt   string `json:"cancelled_at"`
}

// NewBookingConfirmedEvent builds the event payload for a committed booking.
func NewBookingConfirmedEvent(b *model.Booking, st model.Showtime, seatCodes []string) BookingConfirmedEvent {
    return BookingConfirmedEvent{
        BookingNumber:  b.ID,
        BookingRef:     b.Ref,
        UserID:         b.UserID,
        ShowtimeID:     b.ShowtimeID,
        StartsAt:       st.StartsAt.UTC().Format(time.RFC3339),
        SeatCodes:      seatCodes,
        TotalCostCents: b.TotalCostCents,
        ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
    }
}

// NewBookingCancelledEvent builds the event payload for a committed cancellation.
func NewBookingCancelledEvent(b *model.Booking, st model.Showtime, fee, refund uint32) BookingCancelledEvent {
    return BookingCancelledEvent{
        BookingNumber: b.ID,
        BookingRef:    b.Ref,
        UserID:        b.UserID,
        ShowtimeID:    b.ShowtimeID,
        StartsAt:      st.StartsAt.UTC().Format(time.RFC3339),
        FeeCents:      fee,
        RefundCents:   refund,
        CancelledAt:   time.Now().UTC().Format(time.RFC3339),
    }
}
