package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/ledger"
	"github.com/afric-remit/bankapp/internal/models"
)

// Store is the PostgreSQL implementation of interfaces.BankStore. Optimistic
// concurrency: every UPDATE carries a version predicate, and SaveWithEntry
// wraps the balance update and the journal insert in one SQL transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	const query = `
		SELECT account_number, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_number = $1`

	var a models.Account
	err := s.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&a.AccountNumber, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w: %v", ledger.ErrStorageFailure, err)
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, account *models.Account) error {
	const query = `
		INSERT INTO accounts (account_number, balance, version, created_at, updated_at)
		VALUES ($1, $2, 1, now(), now())
		RETURNING version, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, account.AccountNumber, account.Balance).
		Scan(&account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w: %v", ledger.ErrStorageFailure, err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, account *models.Account) error {
	return s.saveTx(ctx, s.db, account)
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) saveTx(ctx context.Context, e execer, account *models.Account) error {
	const query = `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = now()
		WHERE account_number = $2 AND version = $3`

	res, err := e.ExecContext(ctx, query, account.Balance, account.AccountNumber, account.Version)
	if err != nil {
		return fmt.Errorf("save account: %w: %v", ledger.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account: %w: %v", ledger.ErrStorageFailure, err)
	}
	if n == 0 {
		// Either the row is gone or another writer bumped the version.
		var one int
		err := e.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE account_number = $1`, account.AccountNumber).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("save account: %w: %v", ledger.ErrStorageFailure, err)
		}
		return ledger.ErrConflict
	}
	account.Version++
	return nil
}

func (s *Store) Append(ctx context.Context, entry *models.JournalEntry) error {
	return s.appendTx(ctx, s.db, entry)
}

func (s *Store) appendTx(ctx context.Context, e execer, entry *models.JournalEntry) error {
	const query = `
		INSERT INTO journal_entries (transaction_id, account_number, type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := e.QueryRowContext(ctx, query,
		entry.TransactionID, entry.AccountNumber, string(entry.Type), entry.Amount, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append journal entry: %w: %v", ledger.ErrStorageFailure, err)
	}
	return nil
}

// SaveWithEntry commits the balance update and the journal append as one SQL
// transaction; any failure rolls both back.
func (s *Store) SaveWithEntry(ctx context.Context, account *models.Account, entry *models.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w: %v", ledger.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	if err := s.saveTx(ctx, tx, account); err != nil {
		return err
	}
	if err := s.appendTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w: %v", ledger.ErrStorageFailure, err)
	}
	return nil
}

func (s *Store) ListByAccount(ctx context.Context, accountNumber string) ([]models.JournalEntry, error) {
	const query = `
		SELECT id, transaction_id, account_number, type, amount, created_at
		FROM journal_entries
		WHERE account_number = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w: %v", ledger.ErrStorageFailure, err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountNumber, &kind, &e.Amount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w: %v", ledger.ErrStorageFailure, err)
		}
		e.Type = models.EntryType(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journal entries: %w: %v", ledger.ErrStorageFailure, err)
	}
	return entries, nil
}

var _ interfaces.BankStore = (*Store)(nil)
