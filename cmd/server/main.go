package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/apexsim/simstudio/internal/config"
    "github.com/apexsim/simstudio/internal/database"
    "github.com/apexsim/simstudio/internal/handler"
    "github.com/apexsim/simstudio/internal/notify"
    "github.com/apexsim/simstudio/internal/queue"
    "github.com/apexsim/simstudio/internal/repository"
    "github.com/apexsim/simstudio/internal/router"
)

func main() {
    // .env is optional; in production everything comes from the
    // real environment.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer func() { _ = db.Close() }()

    schema := repository.NewSchemaRepo(db)
    users := repository.NewUserRepo(db, schema)
    tokens := repository.NewTokenRepo(db)
    bookings := repository.NewBookingRepo(db)
    credits := repository.NewCreditRepo(db)
    packages := repository.NewPackageRepo(db)
    hours := repository.NewHoursRepo(db)
    coaches := repository.NewCoachRepo(db)

    mailer := notify.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)

    h := router.Handlers{
        Auth:     handler.NewAuthHandler(cfg, users, tokens),
        Bookings: handler.NewBookingHandler(bookings, credits, hours, coaches, users, mailer, cfg.SimulatorCount),
        Credits:  handler.NewCreditHandler(credits),
        Packages: handler.NewPackageHandler(packages, credits, users, mailer),
        Hours:    handler.NewHoursHandler(hours),
        Coaches:  handler.NewCoachHandler(coaches, users),
        Users:    handler.NewUserHandler(users, schema),
    }

    // The consumer writes booking lifecycle events to the audit log
    // file.  It reconnects on its own; a dead broker only costs the
    // log trail, never a request.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("queue consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    rdb := config.NewRedisClient()
    router.Register(e, h, cfg.JWTSecret, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
