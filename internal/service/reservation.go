// Package service implements the booking engines: the transactional
// reservation flow (verify availability, claim seats, assign a booking id,
// record the booking) and the symmetric cancellation flow.  Each operation
// runs as one atomic unit of work; nothing survives a failed attempt.
package service

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "math"
    "sort"

    "github.com/google/uuid"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/pricing"
    "github.com/rishiatweb/movie-ticket-booking/internal/queue"
)

// SeatLedger is the slice of the seat repository the engines mutate.  Both
// methods are all-or-nothing over the requested seat set and only ever run
// inside an engine transaction.
type SeatLedger interface {
    TryClaimTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error
    ReleaseTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error
}

// BookingLedger is the slice of the booking repository the engines use.
type BookingLedger interface {
    CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
    CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error
    CreateAddOnsBulkTx(ctx context.Context, tx *sql.Tx, addOns []model.BookingAddOn) error
    GetForUpdateTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Booking, []string, error)
    TransitionToCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
}

// ShowtimeReader supplies showtime start times and capacities from the
// catalog collaborator.
type ShowtimeReader interface {
    GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showtime, error)
}

// TxRunner scopes a function to one atomic unit of work.
type TxRunner interface {
    WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// EventPublisher pushes domain events to the message broker.  Publishing is
// best effort and happens outside the transaction; failures are logged by
// the publisher, never surfaced to the booking caller.
type EventPublisher interface {
    BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
    BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// ReserveInput is a reservation request as received from the handler.
type ReserveInput struct {
    UserID     uint64
    ShowtimeID uint64
    SeatCodes  []string
    AddOns     map[string]uint32 // name -> quantity
}

// ReservationEngine orchestrates the atomic claim-and-book sequence.
type ReservationEngine struct {
    store     TxRunner
    seats     SeatLedger
    bookings  BookingLedger
    showtimes ShowtimeReader
    policy    *pricing.Policy
    events    EventPublisher
}

// NewReservationEngine wires a ReservationEngine.  events may be nil when
// no broker is configured.
func NewReservationEngine(store TxRunner, seats SeatLedger, bookings BookingLedger,
    showtimes ShowtimeReader, policy *pricing.Policy, events EventPublisher) *ReservationEngine {
    if store == nil || seats == nil || bookings == nil || showtimes == nil || policy == nil {
        panic("nil dependency passed to NewReservationEngine")
    }
    return &ReservationEngine{
        store:     store,
        seats:     seats,
        bookings:  bookings,
        showtimes: showtimes,
        policy:    policy,
        events:    events,
    }
}

// Reserve validates the request, prices it, and then runs the claim, id
// assignment and booking insert as one transaction.  On any failure after
// the claim the rollback returns the seats to available, so a failed
// attempt never leaves a seat held.  Validation and pricing touch no state,
// so an invalid request consumes no booking number.
func (e *ReservationEngine) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, []model.BookingSeat, error) {
    seatCodes, bookingSeats, seatCost, err := e.priceSeats(in.SeatCodes)
    if err != nil {
        return nil, nil, err
    }
    if in.UserID == 0 || in.ShowtimeID == 0 {
        return nil, nil, fmt.Errorf("%w: missing user or showtime", ErrInvalidRequest)
    }
    addOns, addOnCost, err := e.priceAddOns(in.AddOns)
    if err != nil {
        return nil, nil, err
    }
    // Cost columns are uint32 cents; reject orders they cannot represent.
    if uint64(seatCost)+uint64(addOnCost) > math.MaxUint32 {
        return nil, nil, fmt.Errorf("%w: order total too large", ErrInvalidRequest)
    }

    booking := &model.Booking{
        Ref:            uuid.NewString(),
        UserID:         in.UserID,
        ShowtimeID:     in.ShowtimeID,
        SeatCostCents:  seatCost,
        AddOnCostCents: addOnCost,
        TotalCostCents: seatCost + addOnCost,
        Status:         model.BookingConfirmed,
    }

    var showtime model.Showtime
    err = e.store.WithinTx(ctx, func(tx *sql.Tx) error {
        showtime, err = e.showtimes.GetByIDTx(ctx, tx, in.ShowtimeID)
        if err != nil {
            return err
        }
        if err := e.seats.TryClaimTx(ctx, tx, in.ShowtimeID, seatCodes); err != nil {
            return err
        }
        if err := e.bookings.CreateTx(ctx, tx, booking); err != nil {
            return err
        }
        for i := range bookingSeats {
            bookingSeats[i].BookingID = booking.ID
        }
        for i := range addOns {
            addOns[i].BookingID = booking.ID
        }
        if err := e.bookings.CreateSeatsBulkTx(ctx, tx, bookingSeats); err != nil {
            return err
        }
        return e.bookings.CreateAddOnsBulkTx(ctx, tx, addOns)
    })
    if err != nil {
        return nil, nil, err
    }

    if e.events != nil {
        ev := queue.NewBookingConfirmedEvent(booking, showtime, seatCodes)
        go func() {
            if err := e.events.BookingConfirmed(context.WithoutCancel(ctx), ev); err != nil {
                log.Printf("reservation: publish confirmed event failed: %v", err)
            }
        }()
    }
    return booking, bookingSeats, nil
}

// priceSeats normalizes and deduplicates the requested seat codes and
// prices each one.  An empty set, a duplicated code or an unparseable code
// is an ErrInvalidRequest.
func (e *ReservationEngine) priceSeats(raw []string) ([]string, []model.BookingSeat, uint32, error) {
    if len(raw) == 0 {
        return nil, nil, 0, fmt.Errorf("%w: no seats requested", ErrInvalidRequest)
    }
    seen := make(map[string]struct{}, len(raw))
    codes := make([]string, 0, len(raw))
    seats := make([]model.BookingSeat, 0, len(raw))
    var total uint32
    for _, c := range raw {
        code, err := model.NormalizeSeatCode(c)
        if err != nil {
            return nil, nil, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
        }
        if _, dup := seen[code]; dup {
            return nil, nil, 0, fmt.Errorf("%w: duplicate seat %s", ErrInvalidRequest, code)
        }
        seen[code] = struct{}{}
        price, err := e.policy.SeatPrice(code)
        if err != nil {
            return nil, nil, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
        }
        codes = append(codes, code)
        seats = append(seats, model.BookingSeat{SeatCode: code, PriceCents: price})
        total += price
    }
    return codes, seats, total, nil
}

// priceAddOns prices the requested add-ons.  Zero quantities are dropped;
// unknown names are an ErrInvalidRequest.  Names are processed in sorted
// order so inserts are deterministic.
func (e *ReservationEngine) priceAddOns(req map[string]uint32) ([]model.BookingAddOn, uint32, error) {
    if len(req) == 0 {
        return nil, 0, nil
    }
    names := make([]string, 0, len(req))
    for name := range req {
        names = append(names, name)
    }
    sort.Strings(names)
    addOns := make([]model.BookingAddOn, 0, len(names))
    // Accumulated in uint64: quantity times unit price can exceed uint32
    // and must fail the request instead of wrapping into a small total.
    var total uint64
    for _, name := range names {
        qty := req[name]
        if qty == 0 {
            continue
        }
        price, err := e.policy.AddOnPrice(name)
        if err != nil {
            return nil, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
        }
        addOns = append(addOns, model.BookingAddOn{Name: name, Quantity: qty, UnitPriceCents: price})
        total += uint64(qty) * uint64(price)
        if total > math.MaxUint32 {
            return nil, 0, fmt.Errorf("%w: add-on total too large", ErrInvalidRequest)
        }
    }
    return addOns, uint32(total), nil
}
