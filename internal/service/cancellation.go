package service

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/pricing"
    "github.com/rishiatweb/movie-ticket-booking/internal/queue"
)

// CancelResult is the financial outcome of a successful cancellation.
type CancelResult struct {
    BookingRef  string
    FeeCents    uint32
    RefundCents uint32
}

// CancellationEngine orchestrates the atomic cancel-and-release sequence.
// A booking moves from confirmed to cancelled exactly once; the fee depends
// on how long before the showtime the cancellation lands.
type CancellationEngine struct {
    store     TxRunner
    seats     SeatLedger
    bookings  BookingLedger
    showtimes ShowtimeReader
    events    EventPublisher
    now       func() time.Time
}

// NewCancellationEngine wires a CancellationEngine.  events may be nil.
func NewCancellationEngine(store TxRunner, seats SeatLedger, bookings BookingLedger,
    showtimes ShowtimeReader, events EventPublisher) *CancellationEngine {
    if store == nil || seats == nil || bookings == nil || showtimes == nil {
        panic("nil dependency passed to NewCancellationEngine")
    }
    return &CancellationEngine{
        store:     store,
        seats:     seats,
        bookings:  bookings,
        showtimes: showtimes,
        events:    events,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// Cancel transitions the booking identified by ref to cancelled, releases
// its seats and computes the fee and refund, all in one transaction.  The
// seat codes and showtime come from the stored booking, never from the
// caller.  When the status transition or the seat release fails, the whole
// unit rolls back and the booking stays confirmed with its seats held.
func (e *CancellationEngine) Cancel(ctx context.Context, ref string) (CancelResult, error) {
    var (
        result   CancelResult
        booking  *model.Booking
        showtime model.Showtime
    )
    err := e.store.WithinTx(ctx, func(tx *sql.Tx) error {
        b, seatCodes, err := e.bookings.GetForUpdateTx(ctx, tx, ref)
        if err != nil {
            return err
        }
        st, err := e.showtimes.GetByIDTx(ctx, tx, b.ShowtimeID)
        if err != nil {
            return err
        }
        now := e.now()
        if !now.Before(st.StartsAt) {
            return ErrTooLateToCancel
        }
        fraction := pricing.FeeFraction(st.StartsAt.Sub(now).Hours())

        if err := e.bookings.TransitionToCancelledTx(ctx, tx, b.ID); err != nil {
            return err
        }
        if err := e.seats.ReleaseTx(ctx, tx, b.ShowtimeID, seatCodes); err != nil {
            return err
        }
        fee, refund := pricing.CancellationFee(b.TotalCostCents, fraction)
        result = CancelResult{BookingRef: b.Ref, FeeCents: fee, RefundCents: refund}
        booking, showtime = b, st
        return nil
    })
    if err != nil {
        return CancelResult{}, err
    }

    if e.events != nil {
        ev := queue.NewBookingCancelledEvent(booking, showtime, result.FeeCents, result.RefundCents)
        go func() {
            if err := e.events.BookingCancelled(context.WithoutCancel(ctx), ev); err != nil {
                log.Printf("cancellation: publish cancelled event failed: %v", err)
            }
        }()
    }
    return result, nil
}
