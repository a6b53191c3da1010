package response

import (
	"instantpay/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
)

// Outcome writes a transfer outcome: 200 when SUCCESSFUL, 400 otherwise.
func Outcome(c *fiber.Ctx, outcome transfer.Outcome) error {
	status := fiber.StatusOK
	if outcome.SuccessCode != transfer.Successful {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(outcome)
}

// Failed writes a FAILED outcome with the given status.
func Failed(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(transfer.Outcome{
		SuccessCode: transfer.Failed,
		Message:     message,
	})
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
