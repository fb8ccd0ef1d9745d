package router // route registration for the booking API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/rutaviva/tour-booking/internal/config"
    "github.com/rutaviva/tour-booking/internal/handler"
    "github.com/rutaviva/tour-booking/internal/middleware"
    "github.com/rutaviva/tour-booking/internal/model"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
    Auth      *handler.AuthHandler
    Browse    *handler.BrowseHandler
    Activity  *handler.ActivityHandler
    Event     *handler.EventHandler
    Booking   *handler.ReservationHandler
    Review    *handler.ReviewHandler
    Dashboard *handler.DashboardHandler
}

// Register wires all routes.  Public catalog routes sit behind the Redis
// response cache and the rate limiter; everything under /v1 with side
// effects requires a JWT and the right role.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    // Auth: no session required.
    auth := e.Group("/v1/auth")
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)
    auth.POST("/refresh", h.Auth.Refresh)
    auth.POST("/refresh-access", h.Auth.RefreshAccess)
    auth.POST("/logout", h.Auth.Logout)

    // Public catalog: cached and rate limited, anonymous access.
    public := e.Group("/v1")
    public.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    public.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    public.GET("/activities", h.Browse.ListActivities)
    public.GET("/activities/:id", h.Browse.GetActivity)
    public.GET("/activities/:id/events", h.Browse.ListEvents)

    // Any authenticated user.
    user := e.Group("/v1")
    user.Use(middleware.JWTAuth(jwtSecret))
    user.GET("/me", h.Auth.Me)

    // Tourists: booking and reviews.
    tourist := e.Group("/v1")
    tourist.Use(middleware.JWTAuth(jwtSecret))
    tourist.Use(middleware.RequireRole(model.RoleTourist, model.RoleAdmin))
    tourist.POST("/reservations", h.Booking.Create)
    tourist.GET("/reservations", h.Booking.List)
    tourist.GET("/reservations/:id", h.Booking.Get)
    tourist.DELETE("/reservations/:id", h.Booking.Cancel)
    tourist.POST("/payments/:id/confirm", h.Booking.ConfirmPayment)
    tourist.POST("/activities/:id/reviews", h.Review.Create)

    // Guides: catalog management and event lifecycles.
    guide := e.Group("/v1/guide")
    guide.Use(middleware.JWTAuth(jwtSecret))
    guide.Use(middleware.RequireRole(model.RoleGuide, model.RoleAdmin))
    guide.POST("/activities", h.Activity.Create)
    guide.GET("/activities", h.Activity.ListMine)
    guide.PUT("/activities/:id", h.Activity.Update)
    guide.POST("/activities/:id/events", h.Event.Create)
    guide.GET("/activities/:id/events", h.Event.ListByActivity)
    guide.POST("/events/:id/cancel", h.Event.CancelRecurring)
    guide.GET("/events/:id/reservations", h.Event.ListReservations)

    // Admin: aggregates.
    admin := e.Group("/v1/admin")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.GET("/dashboard", h.Dashboard.Get)
}
