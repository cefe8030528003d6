package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/restaurant-payments/internal/config"
    "github.com/iliyamo/restaurant-payments/internal/database"
    "github.com/iliyamo/restaurant-payments/internal/gateway"
    "github.com/iliyamo/restaurant-payments/internal/handler"
    "github.com/iliyamo/restaurant-payments/internal/middleware"
    "github.com/iliyamo/restaurant-payments/internal/notify"
    "github.com/iliyamo/restaurant-payments/internal/queue"
    "github.com/iliyamo/restaurant-payments/internal/repository"
    "github.com/iliyamo/restaurant-payments/internal/router"
    "github.com/iliyamo/restaurant-payments/internal/service"
)

func main() {
    _ = godotenv.Load() // best effort; real deployments set env directly
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Repositories
    paymentRepo := repository.NewPaymentRepo(db)
    reservationRepo := repository.NewReservationRepo(db)
    staffRepo := repository.NewStaffRepo(db)

    // The gateway stays nil without a credential; the service then
    // answers 503 on processor-backed endpoints instead of crashing.
    var gw gateway.PaymentGateway
    if cfg.StripeSecretKey != "" {
        gw = gateway.NewStripeGateway(cfg.StripeSecretKey)
    } else {
        log.Printf("STRIPE_SECRET_KEY not set; deposit payments disabled")
    }

    svc := service.NewPaymentService(paymentRepo, reservationRepo, gw, notify.PublishPaymentEvent, cfg.Currency)

    // Handlers
    paymentHandler := handler.NewPaymentHandler(svc)
    adminHandler := handler.NewAdminPaymentHandler(svc)
    authHandler := handler.NewStaffAuthHandler(cfg, staffRepo)

    // Redis-backed middleware degrades to no-ops when Redis is down.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and response cache disabled")
    }
    rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterPayments(e, paymentHandler, rateLimit)
    router.RegisterAdmin(e, authHandler, adminHandler, cfg.JWTSecret, cache)

    // Background consumer that turns payment events into guest emails
    // and audit log lines.  Runs its own reconnect loop.
    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            log.Printf("payment-consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
