package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPosted is emitted after a credit or debit has committed.
type TransactionPosted struct {
	TransactionID string          `json:"transaction_id"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	InitiatedBy   string          `json:"initiated_by,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
