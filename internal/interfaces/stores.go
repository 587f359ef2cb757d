package interfaces

import (
	"context"

	"github.com/afric-remit/bankapp/internal/models"
)

// AccountStore persists accounts keyed by account number.
//
// Save performs a compare-and-update: it only succeeds if the stored Version
// still matches the one carried by the account, and returns the processor's
// ErrConflict sentinel otherwise. On success the stored version is bumped.
type AccountStore interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	Create(ctx context.Context, account *models.Account) error
}

// JournalStore is the append-only audit trail. Entries are never updated or
// deleted; ListByAccount returns entries in descending timestamp order.
type JournalStore interface {
	Append(ctx context.Context, entry *models.JournalEntry) error
	ListByAccount(ctx context.Context, accountNumber string) ([]models.JournalEntry, error)
}

// BankStore is the commit unit the transaction processor works against.
// SaveWithEntry persists the balance update and the journal append as a
// single all-or-nothing operation, with the same compare-and-update
// semantics as AccountStore.Save.
type BankStore interface {
	AccountStore
	JournalStore
	SaveWithEntry(ctx context.Context, account *models.Account, entry *models.JournalEntry) error
}

// UserStore persists registered users.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}
