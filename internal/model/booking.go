package model

import "time"

// Booking statuses.  Confirmed bookings hold their seats; cancellation is
// the only legal transition and it is terminal.
const (
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
)

// Booking mirrors the bookings table.  Every booking carries two
// identifiers: ID is the auto-incremented, human-facing booking number
// assigned by the database at insert time, and Ref is the opaque UUID
// handle used in URLs and events.
type Booking struct {
    ID             uint64    // bookings.id (monotonic booking number)
    Ref            string    // bookings.ref (UUID)
    UserID         uint64    // bookings.user_id
    ShowtimeID     uint64    // bookings.showtime_id
    SeatCostCents  uint32    // bookings.seat_cost_cents
    AddOnCostCents uint32    // bookings.addon_cost_cents
    TotalCostCents uint32    // bookings.total_cost_cents
    Status         string    // bookings.status
    CreatedAt      time.Time // bookings.created_at
}

// BookingSeat is one seat reserved under a booking together with the unit
// price charged for it.
type BookingSeat struct {
    BookingID  uint64 // booking_seats.booking_id
    SeatCode   string // booking_seats.seat_code
    PriceCents uint32 // booking_seats.price_cents
}

// BookingAddOn is a concession item attached to a booking.
type BookingAddOn struct {
    BookingID      uint64 // booking_addons.booking_id
    Name           string // booking_addons.name
    Quantity       uint32 // booking_addons.quantity
    UnitPriceCents uint32 // booking_addons.unit_price_cents
}
