package handlers

import (
	"errors"

	"instantpay/internal/repositories"
	"instantpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	accounts repositories.AccountRepository
}

func NewAccountHandler(accounts repositories.AccountRepository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// GetAccount handles GET /api/accounts/:id
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.accounts.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found.")
		}
		return err
	}
	return response.Success(c, account)
}
