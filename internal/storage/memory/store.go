package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/ledger"
	"github.com/afric-remit/bankapp/internal/models"
)

// Store is the in-memory implementation of interfaces.BankStore. One mutex
// guards both the account table and the journal so SaveWithEntry commits in
// a single critical section: a caller either sees the new balance together
// with its journal entry, or neither.
type Store struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	entries  []models.JournalEntry
	nextID   int64
}

func NewStore() *Store {
	return &Store{accounts: make(map[string]models.Account)}
}

func (s *Store) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := a
	return &cp, nil
}

func (s *Store) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountNumber]; exists {
		return fmt.Errorf("account %s already exists", account.AccountNumber)
	}
	account.Version = 1
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *Store) Save(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(account)
}

// save is the compare-and-update; the caller must hold s.mu.
func (s *Store) save(account *models.Account) error {
	stored, ok := s.accounts[account.AccountNumber]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return ledger.ErrConflict
	}
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *Store) Append(ctx context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(entry)
	return nil
}

func (s *Store) append(entry *models.JournalEntry) {
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
}

// SaveWithEntry commits the balance update and the journal append together.
// A context cancelled before the critical section leaves nothing applied.
func (s *Store) SaveWithEntry(ctx context.Context, account *models.Account, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.save(account); err != nil {
		return err
	}
	s.append(entry)
	return nil
}

// ListByAccount returns the account's entries, descending by timestamp.
// Entries sharing a timestamp fall back to descending ID so the order is
// stable and restartable.
func (s *Store) ListByAccount(ctx context.Context, accountNumber string) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.AccountNumber == accountNumber {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

var _ interfaces.BankStore = (*Store)(nil)
