// Package routes defines the API routing configuration.
package routes

import (
	"instantpay/internal/handlers"
	"instantpay/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Payments *handlers.PaymentHandler
	Accounts *handlers.AccountHandler
	Health   *handlers.HealthHandler
	// RateLimitMax applies to the payment endpoints; zero disables it.
	RateLimitMax int
}

// SetupRoutes mounts the API, health and metrics routes on app.
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	payments := api.Group("/payments", middleware.RateLimit(h.RateLimitMax))
	payments.Post("/send", h.Payments.SendPayment)
	payments.Get("/:idempotencyKey", h.Payments.GetPayment)

	api.Get("/accounts/:id", h.Accounts.GetAccount)
}
