package repositories

import (
	"fmt"
	"strings"

	"instantpay/internal/models"

	"github.com/shopspring/decimal"
)

// ParseSeedAccounts parses "id:balance,id:balance". Blank input yields no
// accounts.
func ParseSeedAccounts(spec string) ([]*models.Account, error) {
	var accounts []*models.Account
	seen := make(map[string]bool)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, balance, ok := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid seed entry %q: want id:balance", entry)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(balance))
		if err != nil {
			return nil, fmt.Errorf("invalid balance for %s: %w", id, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("invalid balance for %s: must not be negative", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("account %s listed twice: %w", id, ErrDuplicateAccount)
		}
		seen[id] = true
		accounts = append(accounts, &models.Account{ID: id, Balance: amount})
	}
	return accounts, nil
}
