// Package pricing holds the pure pricing policy: seat prices by row tier,
// add-on prices from a configured catalog, and the time-based cancellation
// fee schedule.  Nothing in this package touches the database.
package pricing

import (
    "errors"
    "fmt"
    "math"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// Seat price tiers in cents, front rows first.  Two rows share each tier;
// rows beyond the table fall into the cheapest tier.
var rowTiers = []uint32{30000, 25000, 20000, 15000}

// ErrUnknownAddOn is returned for add-on names absent from the catalog.
var ErrUnknownAddOn = errors.New("unknown add-on")

// Policy prices seats and add-ons.  The add-on catalog is supplied by
// configuration at construction time and never mutated afterwards.
type Policy struct {
    addOns map[string]uint32
}

// NewPolicy builds a Policy around the given add-on catalog (name to unit
// price in cents).  The map is copied.
func NewPolicy(addOns map[string]uint32) *Policy {
    m := make(map[string]uint32, len(addOns))
    for name, price := range addOns {
        m[name] = price
    }
    return &Policy{addOns: m}
}

// SeatPrice maps a seat code to its unit price.  The price depends only on
// the seat's row, so equal rows always price equally.
func (p *Policy) SeatPrice(seatCode string) (uint32, error) {
    row, _, err := model.ParseSeatCode(seatCode)
    if err != nil {
        return 0, err
    }
    idx, ok := model.RowIndex(row)
    if !ok {
        return 0, fmt.Errorf("%w: %q", model.ErrBadSeatCode, seatCode)
    }
    tier := idx / 2
    if tier >= len(rowTiers) {
        tier = len(rowTiers) - 1
    }
    return rowTiers[tier], nil
}

// AddOnPrice returns the catalog price for an add-on name.
func (p *Policy) AddOnPrice(name string) (uint32, error) {
    price, ok := p.addOns[name]
    if !ok {
        return 0, fmt.Errorf("%w: %q", ErrUnknownAddOn, name)
    }
    return price, nil
}

// FeeFraction selects the cancellation fee fraction from the time remaining
// before the show starts.  Callers must reject cancellations at or after
// the start time before consulting this schedule.
func FeeFraction(hoursUntilShow float64) float64 {
    switch {
    case hoursUntilShow < 6:
        return 0.50
    case hoursUntilShow < 24:
        return 0.25
    default:
        return 0.10
    }
}

// CancellationFee splits a booking total into the fee kept and the amount
// refunded.  The fee is floored so the customer never pays a fractional
// cent more than the schedule says.
func CancellationFee(totalCents uint32, fraction float64) (fee, refund uint32) {
    fee = uint32(math.Floor(float64(totalCents) * fraction))
    return fee, totalCents - fee
}
