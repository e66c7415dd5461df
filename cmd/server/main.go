package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/rishiatweb/movie-ticket-booking/internal/config"
    "github.com/rishiatweb/movie-ticket-booking/internal/database"
    "github.com/rishiatweb/movie-ticket-booking/internal/handler"
    "github.com/rishiatweb/movie-ticket-booking/internal/pricing"
    "github.com/rishiatweb/movie-ticket-booking/internal/queue"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
    "github.com/rishiatweb/movie-ticket-booking/internal/router"
    "github.com/rishiatweb/movie-ticket-booking/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()

    // The consumer writes booking events to the audit log.  It reconnects
    // on its own, so a broker outage only delays the log, never bookings.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    users := repository.NewUserRepo(db)
    movies := repository.NewMovieRepo(db)
    showtimes := repository.NewShowtimeRepo(db)
    seats := repository.NewSeatRepo(db)
    bookings := repository.NewBookingRepo(db)
    store := database.NewTxRunner(db)

    policy := pricing.NewPolicy(cfg.AddOnCatalog)
    events := queue.NewPublisher()

    reserve := service.NewReservationEngine(store, seats, bookings, showtimes, policy, events)
    cancel := service.NewCancellationEngine(store, seats, bookings, showtimes, events)

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Deps{
        Auth:    handler.NewAuthHandler(cfg, users),
        Catalog: handler.NewCatalogHandler(movies, showtimes, seats, store),
        Booking: handler.NewBookingHandler(reserve, cancel, bookings),
        Redis:   rdb,
        Secret:  cfg.JWTSecret,
    })

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
