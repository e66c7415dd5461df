package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// SeatRepo is the seat ledger: the authoritative record of which seats of a
// showtime are available and which are held by a confirmed booking.  Seats
// are keyed by (showtime_id, seat_code) with a unique constraint on the
// pair.  Status transitions happen only inside the reservation and
// cancellation transactions; no other caller writes seat status.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetStatuses returns the status of every seat of a showtime keyed by seat
// code.  The read is not part of any transaction and is only suitable for
// display; reservation decisions go through TryClaimTx.
func (r *SeatRepo) GetStatuses(ctx context.Context, showtimeID uint64) (map[string]string, error) {
    const q = `SELECT seat_code, status FROM seats WHERE showtime_id = ?`
    rows, err := r.db.QueryContext(ctx, q, showtimeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    statuses := make(map[string]string)
    for rows.Next() {
        var code, status string
        if err := rows.Scan(&code, &status); err != nil {
            return nil, err
        }
        statuses[code] = status
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return statuses, nil
}

// InitializeTx replaces the seat set of a showtime with exactly capacity
// fresh available seats.  It is idempotent and runs at scheduling time,
// never during the booking flow.  Seat codes are generated row by row
// (A1..A8, B1..B8, ...).
func (r *SeatRepo) InitializeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, capacity uint32) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE showtime_id = ?`, showtimeID); err != nil {
        return err
    }
    if capacity == 0 {
        return nil
    }
    query := `INSERT INTO seats (showtime_id, seat_code, status) VALUES `
    args := make([]interface{}, 0, int(capacity)*3)
    for i := 0; i < int(capacity); i++ {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, showtimeID, model.SeatCodeAt(i), model.SeatAvailable)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// TryClaimTx atomically transitions every seat in seatCodes from available
// to held within the caller's transaction.  The UPDATE is conditional on
// the current status, so concurrent claims over overlapping seat sets can
// never both see all their seats available: at most one claim touching a
// given seat matches the row.  When fewer rows change than seats were
// requested, the claim failed and ErrSeatConflict is returned; the caller
// must roll back so the partial transition never commits.
func (r *SeatRepo) TryClaimTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error {
    if len(seatCodes) == 0 {
        return nil
    }
    query := `UPDATE seats SET status = ? WHERE showtime_id = ? AND status = ? AND seat_code IN (` +
        placeholders(len(seatCodes)) + `)`
    args := make([]interface{}, 0, len(seatCodes)+3)
    args = append(args, model.SeatHeld, showtimeID, model.SeatAvailable)
    for _, code := range seatCodes {
        args = append(args, code)
    }
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != int64(len(seatCodes)) {
        return fmt.Errorf("%w: claimed %d of %d seats", ErrSeatConflict, n, len(seatCodes))
    }
    return nil
}

// ReleaseTx transitions the given seats from held back to available within
// the caller's transaction.  It is only invoked by the cancellation engine
// together with the booking status transition.  A mismatch between rows
// changed and seats requested means the ledger disagrees with the booking
// record; the caller must roll back and leave the booking confirmed.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCodes []string) error {
    if len(seatCodes) == 0 {
        return nil
    }
    query := `UPDATE seats SET status = ? WHERE showtime_id = ? AND status = ? AND seat_code IN (` +
        placeholders(len(seatCodes)) + `)`
    args := make([]interface{}, 0, len(seatCodes)+3)
    args = append(args, model.SeatAvailable, showtimeID, model.SeatHeld)
    for _, code := range seatCodes {
        args = append(args, code)
    }
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != int64(len(seatCodes)) {
        return fmt.Errorf("%w: released %d of %d seats", ErrSeatNotHeld, n, len(seatCodes))
    }
    return nil
}

// placeholders builds a "?, ?, ?" list of the given length for IN clauses.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
