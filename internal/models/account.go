package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the balance for a single bank account.
// Balance is an exact decimal and never goes negative; Version increments on
// every committed save and backs the compare-and-update check in the stores.
type Account struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Version       int64           `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
