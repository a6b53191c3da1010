package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []HealthCheck
	breaker func() string
	timeout time.Duration
}

// NewHealthHandler reports the given checks and, when breaker is not nil,
// the circuit breaker state.
func NewHealthHandler(breaker func() string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, breaker: breaker, timeout: 2 * time.Second}
}

// Health handles GET /health. Any failing check answers 503.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			services[check.Name] = "unavailable: " + err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		services[check.Name] = "connected"
	}

	body := fiber.Map{
		"status":   "ok",
		"services": services,
	}
	if status != fiber.StatusOK {
		body["status"] = "degraded"
	}
	if h.breaker != nil {
		body["circuitBreaker"] = h.breaker()
	}
	return c.Status(status).JSON(body)
}
