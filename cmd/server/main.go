package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/cinetick/movie-booking/internal/booking"
    "github.com/cinetick/movie-booking/internal/config"
    "github.com/cinetick/movie-booking/internal/database"
    "github.com/cinetick/movie-booking/internal/handler"
    appmw "github.com/cinetick/movie-booking/internal/middleware"
    "github.com/cinetick/movie-booking/internal/payment"
    "github.com/cinetick/movie-booking/internal/queue"
    "github.com/cinetick/movie-booking/internal/repository"
    "github.com/cinetick/movie-booking/internal/router"
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

    // Redis backs the response cache and the rate limiter.  A nil
    // client disables both rather than failing startup.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: response cache and rate limiting disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    movies := repository.NewMovieRepo(db)
    theaters := repository.NewTheaterRepo(db)
    shows := repository.NewShowRepo(db)
    bookings := repository.NewBookingRepo(db)
    holds := repository.NewSeatHoldRepo(db)

    pricing := booking.Pricing{Source: cfg.PriceSource, FlatCents: cfg.FlatPriceCents}
    bookingSvc := booking.NewService(shows, bookings, holds, pricing, cfg.ReserveWait, cfg.HoldTTL)
    paymentSvc := payment.NewService(bookings)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    catalogH := handler.NewCatalogHandler(movies, theaters, shows)
    bookingH := handler.NewBookingHandler(bookingSvc, paymentSvc, bookings)

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    // The availability endpoint takes the brunt of browse traffic, so
    // it alone sits behind the response cache.
    seatsCache := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, catalogH, bookingH, seatsCache)
    router.RegisterAdmin(e, catalogH, cfg.JWTSecret)
    router.RegisterCustomer(e, bookingH, cfg.JWTSecret)

    // Consumes booking.confirmed events and appends them to the booking
    // log.  Runs its own reconnect loop for the life of the process.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
