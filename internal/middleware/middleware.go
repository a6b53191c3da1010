// Package middleware configures the request processing chain shared by every
// route: panic recovery, access logging, CORS and rate limiting.
package middleware

import (
	"errors"
	"time"

	"instantpay/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Config holds the middleware settings.
type Config struct {
	AllowOrigins string
	// RateLimitMax is the number of payment requests allowed per client IP
	// per minute. Zero disables the limiter.
	RateLimitMax int
	AccessLog    bool
}

// LoadConfig reads CORS_ALLOW_ORIGINS and RATE_LIMIT_MAX.
func LoadConfig() Config {
	return Config{
		AllowOrigins: config.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		RateLimitMax: config.GetIntEnv("RATE_LIMIT_MAX", 100),
		AccessLog:    true,
	}
}

// Setup installs the global middleware on app.
func Setup(app *fiber.App, cfg Config) {
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Idempotency-Key",
		AllowMethods: "GET,POST,HEAD",
	}))

	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
}

// RateLimit limits requests per client IP. It returns a pass-through
// handler when max is not positive.
func RateLimit(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}

// ErrorHandler answers errors no handler dealt with. fiber errors keep their
// status, anything else is a 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled request error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
