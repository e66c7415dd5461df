package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// BookingRepo is the booking ledger.  Bookings are append-mostly: rows are
// created in confirmed status, transition at most once to cancelled and are
// never deleted.  The human-facing booking number is the AUTO_INCREMENT
// primary key, so allocation happens inside the same INSERT that records
// the booking and can never hand the same number to two concurrent callers.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new confirmed booking within the scope of an existing
// transaction and populates the generated booking number on the record.
// A ref collision surfaces as ErrDuplicateBooking via the unique index.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (ref, user_id, showtime_id, seat_cost_cents, addon_cost_cents, total_cost_cents, status)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        b.Ref, b.UserID, b.ShowtimeID, b.SeatCostCents, b.AddOnCostCents, b.TotalCostCents, b.Status)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateBooking
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back the row to populate the DB-assigned creation timestamp.
    return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).
        Scan(&b.CreatedAt)
}

// CreateSeatsBulkTx inserts the booking_seats rows for a booking in a
// single statement.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO booking_seats (booking_id, seat_code, price_cents) VALUES `
    args := make([]interface{}, 0, len(seats)*3)
    for i, s := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, s.BookingID, s.SeatCode, s.PriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// CreateAddOnsBulkTx inserts the booking_addons rows for a booking in a
// single statement.
func (r *BookingRepo) CreateAddOnsBulkTx(ctx context.Context, tx *sql.Tx, addOns []model.BookingAddOn) error {
    if len(addOns) == 0 {
        return nil
    }
    query := `INSERT INTO booking_addons (booking_id, name, quantity, unit_price_cents) VALUES `
    args := make([]interface{}, 0, len(addOns)*4)
    for i, a := range addOns {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, a.BookingID, a.Name, a.Quantity, a.UnitPriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetForUpdateTx loads a booking by ref with a row lock, together with its
// seat codes, so the cancellation transaction operates on a stable view.
// Returns ErrBookingNotFound when the ref is unknown.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Booking, []string, error) {
    const q = `SELECT id, ref, user_id, showtime_id, seat_cost_cents, addon_cost_cents,
                      total_cost_cents, status, created_at
               FROM bookings WHERE ref = ? FOR UPDATE`
    var b model.Booking
    err := tx.QueryRowContext(ctx, q, ref).Scan(
        &b.ID, &b.Ref, &b.UserID, &b.ShowtimeID, &b.SeatCostCents, &b.AddOnCostCents,
        &b.TotalCostCents, &b.Status, &b.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, nil, ErrBookingNotFound
        }
        return nil, nil, err
    }
    rows, err := tx.QueryContext(ctx, `SELECT seat_code FROM booking_seats WHERE booking_id = ?`, b.ID)
    if err != nil {
        return nil, nil, err
    }
    defer rows.Close()
    var codes []string
    for rows.Next() {
        var code string
        if err := rows.Scan(&code); err != nil {
            return nil, nil, err
        }
        codes = append(codes, code)
    }
    if err := rows.Err(); err != nil {
        return nil, nil, err
    }
    return &b, codes, nil
}

// TransitionToCancelledTx performs the compare-and-swap from confirmed to
// cancelled within the caller's transaction.  When the conditional UPDATE
// matches nothing, the current status decides the outcome: a cancelled row
// yields ErrAlreadyCancelled, a missing row ErrBookingNotFound.  This is
// the guard that makes cancellation idempotent.
func (r *BookingRepo) TransitionToCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
        model.BookingCancelled, bookingID, model.BookingConfirmed)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var status string
    err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrBookingNotFound
    }
    if err != nil {
        return err
    }
    if status == model.BookingCancelled {
        return ErrAlreadyCancelled
    }
    return ErrBookingNotFound
}

// BookingDetail is a booking enriched with showtime and movie information
// plus its seats and add-ons, as returned to customers.
type BookingDetail struct {
    ID             uint64               `json:"booking_number"`
    Ref            string               `json:"ref"`
    ShowtimeID     uint64               `json:"showtime_id"`
    MovieTitle     string               `json:"movie_title"`
    StartsAt       time.Time            `json:"starts_at"`
    Seats          []model.BookingSeat  `json:"seats"`
    AddOns         []model.BookingAddOn `json:"add_ons"`
    SeatCostCents  uint32               `json:"seat_cost_cents"`
    AddOnCostCents uint32               `json:"addon_cost_cents"`
    TotalCostCents uint32               `json:"total_cost_cents"`
    Status         string               `json:"status"`
    CreatedAt      time.Time            `json:"created_at"`
}

// ListByOwner returns all bookings of a user, newest first, with seats and
// add-ons populated.  When no bookings exist an empty slice is returned.
func (r *BookingRepo) ListByOwner(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    const q = `SELECT b.id, b.ref, b.showtime_id, m.title, st.starts_at,
                      b.seat_cost_cents, b.addon_cost_cents, b.total_cost_cents,
                      b.status, b.created_at
               FROM bookings b
               JOIN showtimes st ON st.id = b.showtime_id
               JOIN movies m ON m.id = st.movie_id
               WHERE b.user_id = ?
               ORDER BY b.created_at DESC, b.id DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var d BookingDetail
        if err := rows.Scan(&d.ID, &d.Ref, &d.ShowtimeID, &d.MovieTitle, &d.StartsAt,
            &d.SeatCostCents, &d.AddOnCostCents, &d.TotalCostCents, &d.Status, &d.CreatedAt); err != nil {
            return nil, err
        }
        d.Seats = []model.BookingSeat{}
        d.AddOns = []model.BookingAddOn{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    if err := r.attachChildren(ctx, details, index); err != nil {
        return nil, err
    }
    return details, nil
}

// GetByRefForUser returns a single booking detail, enforcing ownership.
// Unknown refs and refs owned by other users both yield ErrBookingNotFound.
func (r *BookingRepo) GetByRefForUser(ctx context.Context, ref string, userID uint64) (*BookingDetail, error) {
    const q = `SELECT b.id, b.ref, b.showtime_id, m.title, st.starts_at,
                      b.seat_cost_cents, b.addon_cost_cents, b.total_cost_cents,
                      b.status, b.created_at
               FROM bookings b
               JOIN showtimes st ON st.id = b.showtime_id
               JOIN movies m ON m.id = st.movie_id
               WHERE b.ref = ? AND b.user_id = ?`
    var d BookingDetail
    err := r.db.QueryRowContext(ctx, q, ref, userID).Scan(
        &d.ID, &d.Ref, &d.ShowtimeID, &d.MovieTitle, &d.StartsAt,
        &d.SeatCostCents, &d.AddOnCostCents, &d.TotalCostCents, &d.Status, &d.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    d.Seats = []model.BookingSeat{}
    d.AddOns = []model.BookingAddOn{}
    details := []BookingDetail{d}
    if err := r.attachChildren(ctx, details, map[uint64]int{d.ID: 0}); err != nil {
        return nil, err
    }
    return &details[0], nil
}

// attachChildren populates seats and add-ons for the given details with one
// IN-query per child table.
func (r *BookingRepo) attachChildren(ctx context.Context, details []BookingDetail, index map[uint64]int) error {
    ids := make([]interface{}, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
    }
    ph := placeholders(len(ids))

    seatQ := `SELECT booking_id, seat_code, price_cents FROM booking_seats
              WHERE booking_id IN (` + ph + `) ORDER BY booking_id, seat_code`
    srows, err := r.db.QueryContext(ctx, seatQ, ids...)
    if err != nil {
        return err
    }
    defer srows.Close()
    for srows.Next() {
        var s model.BookingSeat
        if err := srows.Scan(&s.BookingID, &s.SeatCode, &s.PriceCents); err != nil {
            return err
        }
        if idx, ok := index[s.BookingID]; ok {
            details[idx].Seats = append(details[idx].Seats, s)
        }
    }
    if err := srows.Err(); err != nil {
        return err
    }

    addOnQ := `SELECT booking_id, name, quantity, unit_price_cents FROM booking_addons
               WHERE booking_id IN (` + ph + `) ORDER BY booking_id, name`
    arows, err := r.db.QueryContext(ctx, addOnQ, ids...)
    if err != nil {
        return err
    }
    defer arows.Close()
    for arows.Next() {
        var a model.BookingAddOn
        if err := arows.Scan(&a.BookingID, &a.Name, &a.Quantity, &a.UnitPriceCents); err != nil {
            return err
        }
        if idx, ok := index[a.BookingID]; ok {
            details[idx].AddOns = append(details[idx].AddOns, a)
        }
    }
    return arows.Err()
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
