package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tells whether a journal entry increased or decreased the balance.
type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// JournalEntry is one immutable audit record of a balance-affecting
// operation. Amount is always positive; the direction is carried by Type.
// ID is assigned by the journal store on append and is monotonic per store.
type JournalEntry struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"transaction_id"`
	AccountNumber string          `json:"account_number"`
	Type          EntryType       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}
