package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rishiatweb/movie-ticket-booking/internal/database"
    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
)

// CatalogHandler serves the movie and showtime catalog.  Reads are public;
// writes require the ADMIN role (enforced by route middleware).
type CatalogHandler struct {
    Movies    *repository.MovieRepo
    Showtimes *repository.ShowtimeRepo
    Seats     *repository.SeatRepo
    Store     *database.TxRunner
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, seats *repository.SeatRepo, store *database.TxRunner) *CatalogHandler {
    if movies == nil || showtimes == nil || seats == nil || store == nil {
        panic("nil dependency passed to NewCatalogHandler")
    }
    return &CatalogHandler{Movies: movies, Showtimes: showtimes, Seats: seats, Store: store}
}

type movieResp struct {
    ID          uint64 `json:"id"`
    Title       string `json:"title"`
    Description string `json:"description"`
    Theatre     string `json:"theatre"`
}

func toMovieResp(m model.Movie) movieResp {
    return movieResp{ID: m.ID, Title: m.Title, Description: m.Description, Theatre: m.Theatre}
}

type showtimeResp struct {
    ID       uint64    `json:"id"`
    MovieID  uint64    `json:"movie_id"`
    StartsAt time.Time `json:"starts_at"`
    Capacity uint32    `json:"capacity"`
}

func toShowtimeResp(st model.Showtime) showtimeResp {
    return showtimeResp{ID: st.ID, MovieID: st.MovieID, StartsAt: st.StartsAt, Capacity: st.Capacity}
}

// ListMovies handles GET /v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    movies, err := h.Movies.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
    }
    items := make([]movieResp, 0, len(movies))
    for _, m := range movies {
        items = append(items, toMovieResp(m))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type createMovieReq struct {
    Title       string `json:"title"`
    Description string `json:"description"`
    Theatre     string `json:"theatre"`
}

// CreateMovie handles POST /v1/admin/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
    var req createMovieReq
    if err := c.Bind(&req); err != nil || req.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m := &model.Movie{Title: req.Title, Description: req.Description, Theatre: req.Theatre}
    if err := h.Movies.Create(ctx, m); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create movie"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": toMovieResp(*m)})
}

// ListShowtimes handles GET /v1/movies/:id/showtimes.
func (h *CatalogHandler) ListShowtimes(c echo.Context) error {
    movieID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
    }
    shows, err := h.Showtimes.ListByMovie(ctx, movieID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtimes"})
    }
    items := make([]showtimeResp, 0, len(shows))
    for _, st := range shows {
        items = append(items, toShowtimeResp(st))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShowtimeSeats handles GET /v1/showtimes/:id/seats.  The returned map
// is a snapshot; a seat shown available here can still be lost to a
// concurrent booking, which the reservation endpoint reports as 409.
func (h *CatalogHandler) GetShowtimeSeats(c echo.Context) error {
    showtimeID, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    st, err := h.Showtimes.GetByID(ctx, showtimeID)
    if err != nil {
        if errors.Is(err, repository.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
    }
    statuses, err := h.Seats.GetStatuses(ctx, showtimeID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "showtime_id": st.ID,
        "starts_at":   st.StartsAt,
        "seats":       statuses,
    })
}

type scheduleShowtimeReq struct {
    MovieID  uint64    `json:"movie_id"`
    StartsAt time.Time `json:"starts_at"`
    Capacity uint32    `json:"capacity"`
}

// ScheduleShowtime handles POST /v1/admin/showtimes.  The showtime row and
// its full seat inventory are created in one transaction so a showtime is
// never visible without bookable seats.
func (h *CatalogHandler) ScheduleShowtime(c echo.Context) error {
    var req scheduleShowtimeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Capacity == 0 || req.Capacity > 26*model.SeatsPerRow {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity out of range"})
    }
    if req.StartsAt.IsZero() || !req.StartsAt.After(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
    }

    st := &model.Showtime{
        MovieID:  req.MovieID,
        StartsAt: req.StartsAt.UTC(),
        Capacity: req.Capacity,
    }
    err := h.Store.WithinTx(ctx, func(tx *sql.Tx) error {
        if err := h.Showtimes.CreateTx(ctx, tx, st); err != nil {
            return err
        }
        return h.Seats.InitializeTx(ctx, tx, st.ID, st.Capacity)
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to schedule showtime"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": toShowtimeResp(*st)})
}
