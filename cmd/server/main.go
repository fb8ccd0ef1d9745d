package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/config"
    "github.com/rutaviva/tour-booking/internal/database"
    "github.com/rutaviva/tour-booking/internal/handler"
    "github.com/rutaviva/tour-booking/internal/mail"
    "github.com/rutaviva/tour-booking/internal/payment"
    "github.com/rutaviva/tour-booking/internal/queue"
    "github.com/rutaviva/tour-booking/internal/repository"
    "github.com/rutaviva/tour-booking/internal/router"
    "github.com/rutaviva/tour-booking/internal/service"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        // The payment sandbox keeps its intents in Redis, so the API
        // cannot take bookings without it.
        log.Fatal("redis: connection failed")
    }

    // Repositories.
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    activities := repository.NewActivityRepo(db)
    events := repository.NewEventRepo(db)
    reservations := repository.NewReservationRepo(db)
    reviews := repository.NewReviewRepo(db)
    dashboard := repository.NewDashboardRepo(db)

    // Collaborators.
    pay := payment.NewRedisProvider(rdb)
    var mailer mail.Sender
    if cfg.ResendAPIKey != "" {
        mailer = mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
    } else {
        log.Println("mail: RESEND_API_KEY not set, booking emails disabled")
    }
    var pub queue.Publisher
    if cfg.BrokerURL != "" {
        pub = queue.AMQPPublisher{}
        go func() {
            if err := queue.StartAuditConsumer(); err != nil {
                log.Printf("rabbitmq: audit consumer stopped: %v", err)
            }
        }()
    } else {
        log.Println("rabbitmq: RABBITMQ_URL not set, audit stream disabled")
    }

    // Services.
    bookingSvc := service.NewReservationService(events, reservations, pay, mailer, pub)
    eventSvc := service.NewEventService(activities, events, users, reservations, bookingSvc, pub)

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Handlers{
        Auth:      handler.NewAuthHandler(cfg, users, tokens),
        Browse:    handler.NewBrowseHandler(activities, events, reviews),
        Activity:  handler.NewActivityHandler(activities),
        Event:     handler.NewEventHandler(eventSvc, activities, events, reservations),
        Booking:   handler.NewReservationHandler(bookingSvc, events, pay),
        Review:    handler.NewReviewHandler(reviews, activities),
        Dashboard: handler.NewDashboardHandler(dashboard),
    }, cfg.JWTSecret, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
