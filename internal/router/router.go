package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/apexsim/simstudio/internal/config"
    "github.com/apexsim/simstudio/internal/handler"
    "github.com/apexsim/simstudio/internal/middleware"
    "github.com/apexsim/simstudio/internal/model"
)

// Handlers bundles every handler the API mounts so registration
// stays in one place.
type Handlers struct {
    Auth     *handler.AuthHandler
    Bookings *handler.BookingHandler
    Credits  *handler.CreditHandler
    Packages *handler.PackageHandler
    Hours    *handler.HoursHandler
    Coaches  *handler.CoachHandler
    Users    *handler.UserHandler
}

// Register mounts the full HTTP surface on the provided Echo
// instance.  The layout is three tiers: unauthenticated routes
// (health check and the auth endpoints), authenticated routes under
// /api, and the admin-only subset of /api guarded by RequireRole.
// The Redis-backed token bucket applies to everything authenticated;
// the response cache covers only the read-heavy availability lookup.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    pub := e.Group("/api/auth")
    pub.POST("/register", h.Auth.Register)
    pub.POST("/login", h.Auth.Login)
    pub.POST("/refresh", h.Auth.Refresh)
    pub.POST("/logout", h.Auth.Logout)

    api := e.Group("/api")
    api.Use(middleware.JWTAuth(jwtSecret))
    api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCoach, model.RoleCustomer))
    if rdb != nil {
        api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    }

    api.GET("/me", h.Auth.Me)

    if rdb != nil {
        api.GET("/availability", h.Bookings.Availability, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    } else {
        api.GET("/availability", h.Bookings.Availability)
    }

    api.GET("/bookings", h.Bookings.List)
    api.POST("/bookings", h.Bookings.Create)
    api.DELETE("/bookings", h.Bookings.Cancel)

    api.GET("/user-credits", h.Credits.Get)
    api.GET("/user-credits/audit", h.Credits.Audit)

    api.GET("/packages", h.Packages.List)
    api.POST("/purchases", h.Packages.Purchase)

    api.GET("/business-hours", h.Hours.ListBusinessHours)
    api.GET("/special-dates", h.Hours.ListSpecialDates)

    api.GET("/coaches", h.Coaches.List)
    api.GET("/coach-availability", h.Coaches.ListAvailability)
    api.POST("/coach-availability", h.Coaches.AddAvailability)
    api.DELETE("/coach-availability", h.Coaches.DeleteAvailability)

    admin := api.Group("", middleware.RequireRole(model.RoleAdmin))
    admin.PUT("/user-credits", h.Credits.Set)
    admin.POST("/packages", h.Packages.Create)
    admin.PUT("/packages", h.Packages.Update)
    admin.DELETE("/packages", h.Packages.Delete)
    admin.PUT("/business-hours", h.Hours.SetBusinessHours)
    admin.PUT("/special-dates", h.Hours.SetSpecialDate)
    admin.DELETE("/special-dates", h.Hours.DeleteSpecialDate)
    admin.PUT("/coaches", h.Coaches.UpsertProfile)
    admin.DELETE("/coaches", h.Coaches.DeleteProfile)
    admin.GET("/users", h.Users.List)
    admin.PUT("/users", h.Users.Update)
    admin.DELETE("/users", h.Users.Delete)
    admin.POST("/admin/migrate", h.Users.Migrate)
}
