package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// MovieRepo provides CRUD for the movie catalog.
type MovieRepo struct {
    db *sql.DB
}

// NewMovieRepo returns a new MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and populates the generated id.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO movies (title, description, theatre) VALUES (?, ?, ?)`,
        m.Title, m.Description, m.Theatre)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
    var m model.Movie
    err := r.db.QueryRowContext(ctx,
        `SELECT id, title, description, theatre FROM movies WHERE id = ?`, id).
        Scan(&m.ID, &m.Title, &m.Description, &m.Theatre)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Movie{}, ErrMovieNotFound
    }
    return m, err
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, title, description, theatre FROM movies ORDER BY title`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Movie, 0)
    for rows.Next() {
        var m model.Movie
        if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Theatre); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}
