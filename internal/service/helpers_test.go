package service

import (
    "context"
    "database/sql"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/queue"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
)

// memStore is an in-memory stand-in for the database used by the engine
// tests.  It implements TxRunner, SeatLedger, BookingLedger and
// ShowtimeReader on one struct.  WithinTx holds the lock for the whole
// unit of work and restores a snapshot on error, which reproduces the two
// properties the engines lean on: serialized conflicting writers and
// rollback of partial writes.
type memStore struct {
    mu        sync.Mutex
    seats     map[uint64]map[string]string // showtime -> seat code -> status
    bookings  map[string]*model.Booking    // by ref
    byID      map[uint64]string            // booking id -> ref
    seatRows  map[uint64][]model.BookingSeat
    addOnRows map[uint64][]model.BookingAddOn
    showtimes map[uint64]model.Showtime
    nextID    uint64

    failCreateSeats bool
    failRelease     bool
}

func newMemStore() *memStore {
    return &memStore{
        seats:     map[uint64]map[string]string{},
        bookings:  map[string]*model.Booking{},
        byID:      map[uint64]string{},
        seatRows:  map[uint64][]model.BookingSeat{},
        addOnRows: map[uint64][]model.BookingAddOn{},
        showtimes: map[uint64]model.Showtime{},
        nextID:    1,
    }
}

func (m *memStore) addShowtime(id uint64, startsAt time.Time, seatCodes ...string) {
    m.showtimes[id] = model.Showtime{ID: id, MovieID: 1, StartsAt: startsAt, Capacity: uint32(len(seatCodes))}
    row := map[string]string{}
    for _, c := range seatCodes {
        row[c] = model.SeatAvailable
    }
    m.seats[id] = row
}

func (m *memStore) seatStatus(showtimeID uint64, code string) string {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.seats[showtimeID][code]
}

// listByOwner mirrors the booking repository's owner listing: all bookings
// of a user, newest first.
func (m *memStore) listByOwner(userID uint64) []model.Booking {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Booking{}
    for _, b := range m.bookings {
        if b.UserID == userID {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out
}

// seatCodesOf returns the seat codes recorded for a booking.
func (m *memStore) seatCodesOf(bookingID uint64) []string {
    m.mu.Lock()
    defer m.mu.Unlock()
    codes := make([]string, 0, len(m.seatRows[bookingID]))
    for _, s := range m.seatRows[bookingID] {
        codes = append(codes, s.SeatCode)
    }
    return codes
}

func (m *memStore) snapshot() *memStore {
    s := newMemStore()
    s.nextID = m.nextID
    for id, row := range m.seats {
        cp := make(map[string]string, len(row))
        for k, v := range row {
            cp[k] = v
        }
        s.seats[id] = cp
    }
    for ref, b := range m.bookings {
        cp := *b
        s.bookings[ref] = &cp
    }
    for id, ref := range m.byID {
        s.byID[id] = ref
    }
    for id, rows := range m.seatRows {
        s.seatRows[id] = append([]model.BookingSeat(nil), rows...)
    }
    for id, rows := range m.addOnRows {
        s.addOnRows[id] = append([]model.BookingAddOn(nil), rows...)
    }
    return s
}

func (m *memStore) restore(s *memStore) {
    m.seats = s.seats
    m.bookings = s.bookings
    m.byID = s.byID
    m.seatRows = s.seatRows
    m.addOnRows = s.addOnRows
    m.nextID = s.nextID
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    snap := m.snapshot()
    if err := fn(nil); err != nil {
        m.restore(snap)
        return err
    }
    return nil
}

func (m *memStore) TryClaimTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error {
    row := m.seats[showtimeID]
    claimed := 0
    for _, c := range seatCodes {
        if row[c] == model.SeatAvailable {
            row[c] = model.SeatHeld
            claimed++
        }
    }
    if claimed != len(seatCodes) {
        return fmt.Errorf("%w: claimed %d of %d seats", repository.ErrSeatConflict, claimed, len(seatCodes))
    }
    return nil
}

func (m *memStore) ReleaseTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error {
    if m.failRelease {
        return fmt.Errorf("release: injected failure")
    }
    row := m.seats[showtimeID]
    released := 0
    for _, c := range seatCodes {
        if row[c] == model.SeatHeld {
            row[c] = model.SeatAvailable
            released++
        }
    }
    if released != len(seatCodes) {
        return fmt.Errorf("%w: released %d of %d seats", repository.ErrSeatNotHeld, released, len(seatCodes))
    }
    return nil
}

func (m *memStore) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    if _, dup := m.bookings[b.Ref]; dup {
        return repository.ErrDuplicateBooking
    }
    b.ID = m.nextID
    m.nextID++
    b.CreatedAt = time.Now().UTC()
    cp := *b
    m.bookings[b.Ref] = &cp
    m.byID[b.ID] = b.Ref
    return nil
}

func (m *memStore) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
    if m.failCreateSeats {
        return fmt.Errorf("booking seats: injected failure")
    }
    for _, s := range seats {
        m.seatRows[s.BookingID] = append(m.seatRows[s.BookingID], s)
    }
    return nil
}

func (m *memStore) CreateAddOnsBulkTx(ctx context.Context, tx *sql.Tx, addOns []model.BookingAddOn) error {
    for _, a := range addOns {
        m.addOnRows[a.BookingID] = append(m.addOnRows[a.BookingID], a)
    }
    return nil
}

func (m *memStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Booking, []string, error) {
    b, ok := m.bookings[ref]
    if !ok {
        return nil, nil, repository.ErrBookingNotFound
    }
    cp := *b
    codes := make([]string, 0, len(m.seatRows[b.ID]))
    for _, s := range m.seatRows[b.ID] {
        codes = append(codes, s.SeatCode)
    }
    return &cp, codes, nil
}

func (m *memStore) TransitionToCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    ref, ok := m.byID[bookingID]
    if !ok {
        return repository.ErrBookingNotFound
    }
    b := m.bookings[ref]
    if b.Status == model.BookingCancelled {
        return repository.ErrAlreadyCancelled
    }
    b.Status = model.BookingCancelled
    return nil
}

func (m *memStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showtime, error) {
    st, ok := m.showtimes[id]
    if !ok {
        return model.Showtime{}, repository.ErrShowtimeNotFound
    }
    return st, nil
}

// capturePublisher records published events for assertions.  Engines
// publish from a goroutine, so tests wait on the channel.
type capturePublisher struct {
    confirmed chan queue.BookingConfirmedEvent
    cancelled chan queue.BookingCancelledEvent
}

func newCapturePublisher() *capturePublisher {
    return &capturePublisher{
        confirmed: make(chan queue.BookingConfirmedEvent, 8),
        cancelled: make(chan queue.BookingCancelledEvent, 8),
    }
}

func (p *capturePublisher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    p.confirmed <- ev
    return nil
}

func (p *capturePublisher) BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error {
    p.cancelled <- ev
    return nil
}

// testCatalog is the stock concession price list.
func testCatalog() map[string]uint32 {
    return map[string]uint32{
        "Popcorn":    12000,
        "Sandwich":   18000,
        "Nachos":     15000,
        "Soft Drink": 8000,
    }
}
