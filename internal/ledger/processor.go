package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/models"
)

const (
	defaultLockTimeout = 5 * time.Second

	// conflictRetries bounds how often a read-modify-write is re-run after
	// the store reports a version conflict before ErrConflict surfaces.
	conflictRetries = 3
)

// Processor applies credits and debits to accounts. Each operation is a
// read-modify-write serialized per account: the balance update and the
// journal append commit as one atomic unit through the store's
// SaveWithEntry, so either both are observable or neither is.
type Processor struct {
	store       interfaces.BankStore
	clock       interfaces.Clock
	locks       *accountLocks
	lockTimeout time.Duration
}

// Option adjusts processor tuning.
type Option func(*Processor)

// WithLockTimeout overrides how long an operation may wait for the
// per-account lock before failing with ErrBusy.
func WithLockTimeout(d time.Duration) Option {
	return func(p *Processor) { p.lockTimeout = d }
}

// NewProcessor wires the processor to its store and clock. Collaborators are
// passed in explicitly; the processor owns no persistence of its own.
func NewProcessor(store interfaces.BankStore, clock interfaces.Clock, opts ...Option) *Processor {
	p := &Processor{
		store:       store,
		clock:       clock,
		locks:       newAccountLocks(),
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is what a committed credit or debit hands back: the account
// snapshot after the commit and the journal entry that recorded it.
type Result struct {
	Account models.Account
	Entry   models.JournalEntry
}

// Credit adds amount to the account's balance and appends a CREDIT journal
// entry.
func (p *Processor) Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (Result, error) {
	return p.post(ctx, accountNumber, amount, models.EntryTypeCredit)
}

// Debit subtracts amount from the account's balance and appends a DEBIT
// journal entry. Fails with ErrInsufficientFunds when the balance would go
// negative; a debit down to exactly zero is allowed.
func (p *Processor) Debit(ctx context.Context, accountNumber string, amount decimal.Decimal) (Result, error) {
	return p.post(ctx, accountNumber, amount, models.EntryTypeDebit)
}

// Balance returns the account's committed balance.
func (p *Processor) Balance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	account, err := p.store.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Journal lists the account's journal entries, most recent first.
func (p *Processor) Journal(ctx context.Context, accountNumber string) ([]models.JournalEntry, error) {
	if _, err := p.store.FindByAccountNumber(ctx, accountNumber); err != nil {
		return nil, err
	}
	return p.store.ListByAccount(ctx, accountNumber)
}

func (p *Processor) post(ctx context.Context, accountNumber string, amount decimal.Decimal, kind models.EntryType) (Result, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return Result{}, ErrInvalidAmount
	}

	release, err := p.locks.acquire(ctx, accountNumber, p.lockTimeout)
	if err != nil {
		return Result{}, err
	}
	defer release()

	// With the per-account lock held, conflicts only come from writers
	// outside this process. Retry the whole read-modify-write a bounded
	// number of times before surfacing the conflict.
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		res, err := p.apply(ctx, accountNumber, amount, kind)
		if errors.Is(err, ErrConflict) {
			lastErr = err
			continue
		}
		return res, err
	}
	return Result{}, lastErr
}

func (p *Processor) apply(ctx context.Context, accountNumber string, amount decimal.Decimal, kind models.EntryType) (Result, error) {
	account, err := p.store.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return Result{}, err
	}

	switch kind {
	case models.EntryTypeCredit:
		account.Balance = account.Balance.Add(amount)
	case models.EntryTypeDebit:
		if account.Balance.Cmp(amount) < 0 {
			return Result{}, ErrInsufficientFunds
		}
		account.Balance = account.Balance.Sub(amount)
	}

	entry := &models.JournalEntry{
		TransactionID: uuid.New().String(),
		AccountNumber: accountNumber,
		Type:          kind,
		Amount:        amount,
		Timestamp:     p.clock.Now(),
	}

	if err := p.store.SaveWithEntry(ctx, account, entry); err != nil {
		return Result{}, err
	}
	return Result{Account: *account, Entry: *entry}, nil
}
