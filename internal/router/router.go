package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/rishiatweb/movie-ticket-booking/internal/config"
    "github.com/rishiatweb/movie-ticket-booking/internal/handler"
    "github.com/rishiatweb/movie-ticket-booking/internal/middleware"
    "github.com/rishiatweb/movie-ticket-booking/internal/model"
)

// Deps bundles everything route registration needs.  Redis may be nil, in
// which case the rate limiter and the catalog cache register as no-ops.
type Deps struct {
    Auth    *handler.AuthHandler
    Catalog *handler.CatalogHandler
    Booking *handler.BookingHandler
    Redis   *redis.Client
    Secret  string
}

// Register wires all routes onto the Echo instance.
//
// Public:      health check, auth, movie/showtime browsing, seat status.
// Customer:    booking create/cancel/list (JWT, any role).
// Admin only:  movie creation and showtime scheduling.
func Register(e *echo.Echo, d Deps) {
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)

    e.GET("/healthz", handler.Health)

    // Auth endpoints sit behind the rate limiter to slow credential
    // stuffing; everything else authenticated shares the same bucket
    // strategy keyed by user.
    authG := e.Group("/v1/auth", limiter)
    authG.POST("/register", d.Auth.Register)
    authG.POST("/login", d.Auth.Login)

    // Catalog browsing is public and cacheable.  Seat status is public
    // but NOT cached: clients pick seats from this snapshot and a stale
    // one would turn into conflict errors at booking time.
    e.GET("/v1/movies", d.Catalog.ListMovies, cache)
    e.GET("/v1/movies/:id/showtimes", d.Catalog.ListShowtimes, cache)
    e.GET("/v1/showtimes/:id/seats", d.Catalog.GetShowtimeSeats)

    // Customer endpoints: any authenticated role may book.
    v1 := e.Group("/v1", middleware.JWTAuth(d.Secret), middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
    v1.GET("/me", d.Auth.Me)
    v1.POST("/bookings", d.Booking.CreateBooking, limiter)
    v1.DELETE("/bookings/:ref", d.Booking.CancelBooking, limiter)
    v1.GET("/bookings/:ref", d.Booking.GetBooking)
    v1.GET("/my-bookings", d.Booking.ListMyBookings)

    // Admin endpoints manage the catalog.
    admin := e.Group("/v1/admin", middleware.JWTAuth(d.Secret), middleware.RequireRole(model.RoleAdmin))
    admin.POST("/movies", d.Catalog.CreateMovie)
    admin.POST("/showtimes", d.Catalog.ScheduleShowtime)
}
