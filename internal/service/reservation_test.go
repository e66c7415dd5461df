package service

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/pricing"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
)

func newTestReservationEngine(store *memStore, events EventPublisher) *ReservationEngine {
    return NewReservationEngine(store, store, store, store, pricing.NewPolicy(testCatalog()), events)
}

func showStart() time.Time {
    return time.Now().UTC().Add(48 * time.Hour)
}

func TestReserveHappyPath(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2", "C1")
    engine := newTestReservationEngine(store, nil)

    booking, seats, err := engine.Reserve(context.Background(), ReserveInput{
        UserID:     7,
        ShowtimeID: 1,
        SeatCodes:  []string{"A1", "c1"},
        AddOns:     map[string]uint32{"Popcorn": 2},
    })
    require.NoError(t, err)

    assert.NotZero(t, booking.ID)
    assert.NotEmpty(t, booking.Ref)
    assert.Equal(t, model.BookingConfirmed, booking.Status)
    // A1 at 30000 plus C1 at 25000, plus two popcorn at 12000 each.
    assert.Equal(t, uint32(55000), booking.SeatCostCents)
    assert.Equal(t, uint32(24000), booking.AddOnCostCents)
    assert.Equal(t, uint32(79000), booking.TotalCostCents)

    require.Len(t, seats, 2)
    assert.Equal(t, "A1", seats[0].SeatCode)
    assert.Equal(t, "C1", seats[1].SeatCode)
    for _, s := range seats {
        assert.Equal(t, booking.ID, s.BookingID)
    }

    assert.Equal(t, model.SeatHeld, store.seatStatus(1, "A1"))
    assert.Equal(t, model.SeatHeld, store.seatStatus(1, "C1"))
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A2"))
}

func TestReserveValidation(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2")
    engine := newTestReservationEngine(store, nil)
    ctx := context.Background()

    cases := []struct {
        name string
        in   ReserveInput
    }{
        {"no seats", ReserveInput{UserID: 1, ShowtimeID: 1}},
        {"bad seat code", ReserveInput{UserID: 1, ShowtimeID: 1, SeatCodes: []string{"99"}}},
        {"duplicate seat", ReserveInput{UserID: 1, ShowtimeID: 1, SeatCodes: []string{"A1", "a1"}}},
        {"missing user", ReserveInput{ShowtimeID: 1, SeatCodes: []string{"A1"}}},
        {"missing showtime", ReserveInput{UserID: 1, SeatCodes: []string{"A1"}}},
        {"unknown add-on", ReserveInput{UserID: 1, ShowtimeID: 1, SeatCodes: []string{"A1"},
            AddOns: map[string]uint32{"Sushi": 1}}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, _, err := engine.Reserve(ctx, tc.in)
            assert.ErrorIs(t, err, ErrInvalidRequest)
        })
    }

    // Validation failures never touch seats or consume a booking number.
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
    assert.Equal(t, uint64(1), store.nextID)
}

func TestReserveAddOnQuantityOverflow(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1")
    engine := newTestReservationEngine(store, nil)

    // 400000 popcorns at 12000 cents overflow a uint32 total; the request
    // must fail instead of committing a wrapped, underpriced booking.
    _, _, err := engine.Reserve(context.Background(), ReserveInput{
        UserID: 1, ShowtimeID: 1, SeatCodes: []string{"A1"},
        AddOns: map[string]uint32{"Popcorn": 400000},
    })
    assert.ErrorIs(t, err, ErrInvalidRequest)

    // Rejected before the transaction: no seat claimed, no number consumed.
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
    assert.Empty(t, store.bookings)
    assert.Equal(t, uint64(1), store.nextID)
}

func TestReserveVisibleInOwnerListing(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2", "C1", "C2")
    engine := newTestReservationEngine(store, nil)
    ctx := context.Background()

    first, _, err := engine.Reserve(ctx, ReserveInput{
        UserID: 7, ShowtimeID: 1, SeatCodes: []string{"A1"},
        AddOns: map[string]uint32{"Popcorn": 1},
    })
    require.NoError(t, err)
    second, _, err := engine.Reserve(ctx, ReserveInput{
        UserID: 7, ShowtimeID: 1, SeatCodes: []string{"C1", "C2"},
    })
    require.NoError(t, err)

    list := store.listByOwner(7)
    require.Len(t, list, 2)

    // Newest first, each entry carrying the committed totals and seat set.
    assert.Equal(t, second.ID, list[0].ID)
    assert.Equal(t, second.TotalCostCents, list[0].TotalCostCents)
    assert.ElementsMatch(t, []string{"C1", "C2"}, store.seatCodesOf(second.ID))

    assert.Equal(t, first.ID, list[1].ID)
    assert.Equal(t, first.TotalCostCents, list[1].TotalCostCents)
    assert.ElementsMatch(t, []string{"A1"}, store.seatCodesOf(first.ID))

    // Other users see none of it.
    assert.Empty(t, store.listByOwner(8))
}

func TestReserveUnknownShowtime(t *testing.T) {
    store := newMemStore()
    engine := newTestReservationEngine(store, nil)

    _, _, err := engine.Reserve(context.Background(), ReserveInput{
        UserID: 1, ShowtimeID: 42, SeatCodes: []string{"A1"},
    })
    assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
}

func TestReserveSeatConflict(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2", "A3")
    engine := newTestReservationEngine(store, nil)
    ctx := context.Background()

    _, _, err := engine.Reserve(ctx, ReserveInput{UserID: 1, ShowtimeID: 1, SeatCodes: []string{"A2"}})
    require.NoError(t, err)

    // Overlapping request fails whole, including the free seats in it.
    _, _, err = engine.Reserve(ctx, ReserveInput{UserID: 2, ShowtimeID: 1, SeatCodes: []string{"A1", "A2", "A3"}})
    assert.ErrorIs(t, err, repository.ErrSeatConflict)

    // The free seats in the failed request were not leaked into held.
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A3"))
    assert.Equal(t, model.SeatHeld, store.seatStatus(1, "A2"))
}

func TestReserveRollbackOnInsertFailure(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2")
    store.failCreateSeats = true
    engine := newTestReservationEngine(store, nil)

    _, _, err := engine.Reserve(context.Background(), ReserveInput{
        UserID: 1, ShowtimeID: 1, SeatCodes: []string{"A1", "A2"},
    })
    require.Error(t, err)

    // The claim rolled back with the insert; nothing stayed held and the
    // failed attempt left no booking behind.
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A1"))
    assert.Equal(t, model.SeatAvailable, store.seatStatus(1, "A2"))
    assert.Empty(t, store.bookings)
}

func TestReserveConcurrentOverlap(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1", "A2")
    engine := newTestReservationEngine(store, nil)

    const workers = 16
    var wg sync.WaitGroup
    errs := make([]error, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, _, errs[i] = engine.Reserve(context.Background(), ReserveInput{
                UserID: uint64(i + 1), ShowtimeID: 1, SeatCodes: []string{"A1", "A2"},
            })
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range errs {
        if err == nil {
            wins++
        } else {
            assert.ErrorIs(t, err, repository.ErrSeatConflict)
        }
    }
    assert.Equal(t, 1, wins, "exactly one request owns the seats")
    assert.Len(t, store.bookings, 1)
}

func TestReserveConcurrentDistinctSeatsUniqueNumbers(t *testing.T) {
    store := newMemStore()
    codes := make([]string, 32)
    for i := range codes {
        codes[i] = model.SeatCodeAt(i)
    }
    store.addShowtime(1, showStart(), codes...)
    engine := newTestReservationEngine(store, nil)

    const workers = 32
    var wg sync.WaitGroup
    ids := make([]uint64, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            b, _, err := engine.Reserve(context.Background(), ReserveInput{
                UserID: uint64(i + 1), ShowtimeID: 1, SeatCodes: []string{codes[i]},
            })
            if assert.NoError(t, err) {
                ids[i] = b.ID
            }
        }(i)
    }
    wg.Wait()

    seen := map[uint64]bool{}
    for _, id := range ids {
        assert.NotZero(t, id)
        assert.False(t, seen[id], "booking number %d assigned twice", id)
        seen[id] = true
    }
}

func TestReservePublishesConfirmedEvent(t *testing.T) {
    store := newMemStore()
    store.addShowtime(1, showStart(), "A1")
    pub := newCapturePublisher()
    engine := newTestReservationEngine(store, pub)

    booking, _, err := engine.Reserve(context.Background(), ReserveInput{
        UserID: 3, ShowtimeID: 1, SeatCodes: []string{"A1"},
    })
    require.NoError(t, err)

    select {
    case ev := <-pub.confirmed:
        assert.Equal(t, booking.ID, ev.BookingNumber)
        assert.Equal(t, booking.Ref, ev.BookingRef)
        assert.Equal(t, []string{"A1"}, ev.SeatCodes)
    case <-time.After(2 * time.Second):
        t.Fatal("confirmed event was not published")
    }
}
