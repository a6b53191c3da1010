package handlers

import (
	"errors"
	"strings"

	"instantpay/internal/repositories"
	"instantpay/internal/services/transfer"
	"instantpay/internal/utils/response"
	"instantpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader may carry the key instead of the request body.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentHandler struct {
	payments  transfer.Service
	transfers repositories.TransferRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewPaymentHandler takes the resilience-wrapped transfer service, so
// SendPayment never sees an error from it.
func NewPaymentHandler(payments transfer.Service, transfers repositories.TransferRepository, v *validation.Validator, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		payments:  payments,
		transfers: transfers,
		validator: v,
		logger:    logger,
	}
}

// SendPayment handles POST /api/payments/send
func (h *PaymentHandler) SendPayment(c *fiber.Ctx) error {
	var req validation.SendPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("malformed payment request", zap.Error(err))
		return response.Failed(c, fiber.StatusBadRequest, validation.Errors{
			{Field: "body", Message: "must be a valid JSON object"},
		}.Error())
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = c.Get(IdempotencyKeyHeader)
	}
	req = req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return err
		}
		h.logger.Warn("invalid payment request", zap.String("errors", verrs.Error()))
		return response.Failed(c, fiber.StatusBadRequest, verrs.Error())
	}

	cmd := req.Command()
	h.logger.Info("incoming payment request",
		zap.String("senderId", cmd.SenderID),
		zap.String("recipientId", cmd.RecipientID),
		zap.String("amount", cmd.Amount.String()),
		zap.String("idempotencyKey", cmd.IdempotencyKey),
	)

	outcome, err := h.payments.Transfer(c.UserContext(), cmd)
	if err != nil {
		// Only reachable with an unwrapped service.
		return err
	}
	return response.Outcome(c, outcome)
}

// GetPayment handles GET /api/payments/:idempotencyKey
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	record, err := h.transfers.FindByIdempotencyKey(c.UserContext(), c.Params("idempotencyKey"))
	if err != nil {
		if errors.Is(err, repositories.ErrTransferNotFound) {
			return response.NotFound(c, "Payment not found.")
		}
		return err
	}
	return response.Success(c, record)
}
