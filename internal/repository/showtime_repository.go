package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// ShowtimeRepo reads and writes the showtimes table.  The booking engines
// only read from it (start time for the cancellation deadline, capacity for
// seat initialization); writes happen through the admin scheduling flow.
type ShowtimeRepo struct {
    db *sql.DB
}

// NewShowtimeRepo returns a new ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

const showtimeColumns = `id, movie_id, starts_at, capacity, created_at`

// GetByID fetches a showtime outside any transaction.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (model.Showtime, error) {
    var st model.Showtime
    err := r.db.QueryRowContext(ctx,
        `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id).
        Scan(&st.ID, &st.MovieID, &st.StartsAt, &st.Capacity, &st.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Showtime{}, ErrShowtimeNotFound
    }
    return st, err
}

// GetByIDTx fetches a showtime within the caller's transaction so engines
// read the start time and capacity in the same unit of work as their
// writes.
func (r *ShowtimeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showtime, error) {
    var st model.Showtime
    err := tx.QueryRowContext(ctx,
        `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id).
        Scan(&st.ID, &st.MovieID, &st.StartsAt, &st.Capacity, &st.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Showtime{}, ErrShowtimeNotFound
    }
    return st, err
}

// CreateTx inserts a showtime within the caller's transaction and populates
// the generated id.  Used by the scheduling flow together with seat
// initialization.
func (r *ShowtimeRepo) CreateTx(ctx context.Context, tx *sql.Tx, st *model.Showtime) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO showtimes (movie_id, starts_at, capacity) VALUES (?, ?, ?)`,
        st.MovieID, st.StartsAt.UTC(), st.Capacity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    st.ID = uint64(id)
    return nil
}

// ListByMovie returns the showtimes of a movie ordered by start time.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+showtimeColumns+` FROM showtimes WHERE movie_id = ? ORDER BY starts_at`, movieID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Showtime, 0)
    for rows.Next() {
        var st model.Showtime
        if err := rows.Scan(&st.ID, &st.MovieID, &st.StartsAt, &st.Capacity, &st.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, st)
    }
    return out, rows.Err()
}
