package service

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
)

// seedBooking reserves seats and returns the committed booking.
func seedBooking(t *testing.T, store *memStore, showtimeID uint64, seatCodes ...string) *model.Booking {
    t.Helper()
    engine := newTestReservationEngine(store, nil)
    b, _, err := engine.Reserve(context.Background(), ReserveInput{
        UserID: 1, ShowtimeID: showtimeID, SeatCodes: seatCodes,
    })
    require.NoError(t, err)
    return b
}

func newTestCancellationEngine(store *memStore, events EventPublisher, now time.Time) *CancellationEngine {
    engine := NewCancellationEngine(store, store, store, store, events)
    engine.now = func() time.Time { return now }
    return engine
}

func TestCancelFeeSchedule(t *testing.T) {
    start := time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)

    cases := []struct {
        name       string
        cancelAt   time.Time
        wantFee    uint32
        wantRefund uint32
    }{
        // Booking total is 55000 cents (A1 + C1) throughout.
        {"more than a day out", start.Add(-25 * time.Hour), 5500, 49500},
        {"under a day out", start.Add(-23 * time.Hour), 13750, 41250},
        {"under six hours out", start.Add(-5 * time.Hour), 27500, 27500},
        {"minutes before", start.Add(-10 * time.Minute), 27500, 27500},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            store := newMemStore()
            store.addShowtime(1, start, "A1", "C1")
            b := seedBooking(t, store, 1, "A1", "C1")

            engine := newTestCancellationEngine(store, nil, tc.cancelAt)
            res, err := engine.Cancel(context.Background(), b.Ref)
            require.NoError(t, err)

            assert.Equal(t, b.Ref, res.BookingRef)
            assert.Equal(t, tc.wantFee, res.FeeCents)
            assert.Equal(t, tc.wantRefund, res.RefundCents)
            assert.Equal(t, b.TotalCostCents, res.FeeCents+res.RefundCents)

            // The seats went back on sale.
            assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
            assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "C1"))
        })
    }
}

func TestCancelAtOrAfterStart(t *testing.T) {
    start := time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)

    for _, cancelAt := range []time.Time{start, start.Add(time.Minute)} {
        store := newMemStore()
        store.addShowtime(1, start, "A1")
        b := seedBooking(t, store, 1, "A1")

        engine := newTestCancellationEngine(store, nil, cancelAt)
        _, err := engine.Cancel(context.Background(), b.Ref)
        assert.ErrorIs(t, err, ErrTooLateToCancel)

        // The booking survives untouched.
        assert.Equal(t, model.BookingConfirmed, store.bookings[b.Ref].Status)
        assert.Equal(t, model.SeatHeld, store.seatStatus(1, "A1"))
    }
}

func TestCancelUnknownRef(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1")
    engine := newTestCancellationEngine(store, nil, time.Now().UTC())

    _, err := engine.Cancel(context.Background(), "no-such-ref")
    assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelTwice(t *testing.T) {
    start := showStart()
    store := newMemStore()
    store.addShowtime(1, start, "A1")
    b := seedBooking(t, store, 1, "A1")

    engine := newTestCancellationEngine(store, nil, start.Add(-48*time.Hour))
    _, err := engine.Cancel(context.Background(), b.Ref)
    require.NoError(t, err)

    _, err = engine.Cancel(context.Background(), b.Ref)
    assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

    // Seats stay available; the second attempt changed nothing.
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
}

func TestCancelConcurrentExactlyOnce(t *testing.T) {
    start := showStart()
    store := newMemStore()
    store.addShowtime(1, start, "A1", "A2")
    b := seedBooking(t, store, 1, "A1", "A2")

    engine := newTestCancellationEngine(store, nil, start.Add(-30*time.Hour))

    const workers = 8
    var wg sync.WaitGroup
    errs := make([]error, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = engine.Cancel(context.Background(), b.Ref)
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range errs {
        if err == nil {
            wins++
        } else {
            assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
        }
    }
    assert.Equal(t, 1, wins, "the transition fires exactly once")
}

func TestCancelRollbackOnReleaseFailure(t *testing.T) {
    start := showStart()
    store := newMemStore()
    store.addShowtime(1, start, "A1")
    b := seedBooking(t, store, 1, "A1")
    store.failRelease = true

    engine := newTestCancellationEngine(store, nil, start.Add(-30*time.Hour))
    _, err := engine.Cancel(context.Background(), b.Ref)
    require.Error(t, err)

    // The status transition rolled back with the failed release.
    assert.Equal(t, model.BookingConfirmed, store.bookings[b.Ref].Status)
    assert.Equal(t, model.SeatHeld, store.seatStatus(1, "A1"))
}

func TestCancelRebookReleasedSeat(t *testing.T) {
    start := showStart()
    store := newMemStore()
    store.addShowtime(1, start, "A1")
    first := seedBooking(t, store, 1, "A1")

    cancelEngine := newTestCancellationEngine(store, nil, start.Add(-30*time.Hour))
    _, err := cancelEngine.Cancel(context.Background(), first.Ref)
    require.NoError(t, err)

    second := seedBooking(t, store, 1, "A1")
    assert.Greater(t, second.ID, first.ID, "booking numbers keep increasing")
    assert.Equal(t, model.SeatHeld, store.seatStatus(1, "A1"))
}

func TestCancelPublishesCancelledEvent(t *testing.T) {
    start := showStart()
    store := newMemStore()
    store.addShowtime(1, start, "A1")
    b := seedBooking(t, store, 1, "A1")

    pub := newCapturePublisher()
    engine := newTestCancellationEngine(store, pub, start.Add(-30*time.Hour))

    res, err := engine.Cancel(context.Background(), b.Ref)
    require.NoError(t, err)

    select {
    case ev := <-pub.cancelled:
        assert.Equal(t, b.Ref, ev.BookingRef)
        assert.Equal(t, res.FeeCents, ev.FeeCents)
        assert.Equal(t, res.RefundCents, ev.RefundCents)
    case <-time.After(2 * time.Second):
        t.Fatal("cancelled event was not published")
    }
}
