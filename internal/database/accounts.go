package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// GetCheckingAccount fetches a CheckingAccount by id, outside any
// caller-managed transaction.
func (s *Store) GetCheckingAccount(ctx context.Context, id string) (models.CheckingAccount, error) {
	return s.getCheckingAccount(ctx, s.DB(), id)
}

// GetCheckingAccountTx re-reads a CheckingAccount inside tx, the
// authoritative read every balance-mutating engine operation must perform
// before computing a new amount (spec.md §4.1: never trust a copy captured
// outside the transaction).
func (s *Store) GetCheckingAccountTx(ctx context.Context, tx *sql.Tx, id string) (models.CheckingAccount, error) {
	return s.getCheckingAccount(ctx, tx, id)
}

func (s *Store) getCheckingAccount(ctx context.Context, q querier, id string) (models.CheckingAccount, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, holder_id, unit_symbol, amount, created_at, updated_at
		FROM checking_accounts WHERE id = ?`, id)

	var a models.CheckingAccount
	var amount string
	err := row.Scan(&a.Id, &a.HolderId, &a.Unit, &amount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CheckingAccount{}, store.ErrNotFound
	}
	if err != nil {
		return models.CheckingAccount{}, err
	}
	a.Amount, err = decimal.NewFromString(amount)
	return a, err
}

// CreateCheckingAccount inserts a new CheckingAccount row with a.Amount as
// its opening balance.
func (s *Store) CreateCheckingAccount(ctx context.Context, a models.CheckingAccount) error {
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO checking_accounts (id, holder_id, unit_symbol, amount)
		VALUES (?, ?, ?, ?)`,
		a.Id, a.HolderId, a.Unit, a.Amount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// SetCheckingAccountAmountTx writes a new amount inside tx. Callers must
// have read the current row inside the same tx first (GetCheckingAccountTx)
// so the write reflects the authoritative, re-validated balance.
func (s *Store) SetCheckingAccountAmountTx(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE checking_accounts SET amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount.String(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
