// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-payments/internal/handler"
    "github.com/iliyamo/restaurant-payments/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // This endpoint can be used by load balancers or monitoring systems
    // to verify that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterPayments registers the guest-facing deposit endpoints.  These
// routes are unauthenticated: the create-intent/confirm flow is driven
// from the public booking pages.  The optional rate limiter guards the
// processor-backed endpoints against abuse; pass nil to disable.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, rateLimit echo.MiddlewareFunc) {
    g := e.Group("/payments/reservation")
    if rateLimit != nil {
        g.Use(rateLimit)
    }
    g.POST("/create-intent", h.CreateIntent)
    g.POST("/confirm", h.Confirm)
    g.GET("/status/:reservationId", h.GetStatus)
    g.POST("/refund/:reservationId", h.Refund)
}

// RegisterAdmin registers the staff login endpoint and the privileged
// payment admin group.  Admin routes require a valid access token with
// the ADMIN role.  The optional cache middleware serves repeated list
// requests from Redis; pass nil to disable.
func RegisterAdmin(e *echo.Echo, auth *handler.StaffAuthHandler, admin *handler.AdminPaymentHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    e.POST("/v1/staff/login", auth.Login)

    g := e.Group(
        "/payments/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )
    if cache != nil {
        g.GET("/reservations", admin.List, cache)
    } else {
        g.GET("/reservations", admin.List)
    }
    g.PATCH("/reservation/:paymentId", admin.Update)
}
