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

func scanExchange(row interface {
	Scan(dest ...any) error
}) (models.ExchangeTransaction, error) {
	var t models.ExchangeTransaction
	var fromAmount, toAmount string
	err := row.Scan(&t.Uuid, &t.Service, &t.Description, &t.StatusDescription, &t.Status,
		&t.AutoRejectAfter, &t.CreatedAt, &t.ClosedAt, &t.ExchangeRule,
		&t.FromCheckingAccountId, &t.ToCheckingAccountId, &fromAmount, &toAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExchangeTransaction{}, store.ErrNotFound
	}
	if err != nil {
		return models.ExchangeTransaction{}, err
	}
	if t.FromAmount, err = decimal.NewFromString(fromAmount); err != nil {
		return models.ExchangeTransaction{}, err
	}
	t.ToAmount, err = decimal.NewFromString(toAmount)
	return t, err
}

const exchangeColumns = `uuid, service_name, description, status_description, status,
	auto_reject_after, created_at, closed_at, exchange_rule_id,
	from_checking_account_id, to_checking_account_id, from_amount, to_amount`

// GetExchangeTx reads an ExchangeTransaction inside tx.
func (s *Store) GetExchangeTx(ctx context.Context, tx *sql.Tx, uuid string) (models.ExchangeTransaction, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+exchangeColumns+` FROM exchange_transactions WHERE uuid = ?`, uuid)
	return scanExchange(row)
}

// GetExchange reads an ExchangeTransaction outside any transaction.
func (s *Store) GetExchange(ctx context.Context, uuid string) (models.ExchangeTransaction, error) {
	row := s.DB().QueryRowContext(ctx, `SELECT `+exchangeColumns+` FROM exchange_transactions WHERE uuid = ?`, uuid)
	return scanExchange(row)
}

// CreateExchangeTx inserts a new PENDING ExchangeTransaction inside tx.
func (s *Store) CreateExchangeTx(ctx context.Context, tx *sql.Tx, t models.ExchangeTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO exchange_transactions
			(uuid, service_name, description, status_description, status,
			 auto_reject_after, exchange_rule_id,
			 from_checking_account_id, to_checking_account_id, from_amount, to_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Uuid, t.Service, t.Description, t.StatusDescription, t.Status,
		t.AutoRejectAfter, t.ExchangeRule,
		t.FromCheckingAccountId, t.ToCheckingAccountId, t.FromAmount.String(), t.ToAmount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// CloseExchangeTx transitions an ExchangeTransaction to a terminal status.
func (s *Store) CloseExchangeTx(ctx context.Context, tx *sql.Tx, uuid string, status models.TransactionStatus, statusDescription string, closedAt any) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE exchange_transactions
		SET status = ?, status_description = ?, closed_at = ?
		WHERE uuid = ? AND status = 'PENDING'`,
		status, statusDescription, closedAt, uuid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledgererr.Conflict(errors.New("exchange is not pending"))
	}
	return nil
}

// ListOutdatedPendingExchangesTx returns PENDING exchanges past deadline.
func (s *Store) ListOutdatedPendingExchangesTx(ctx context.Context, tx *sql.Tx, now any, limit int) ([]models.ExchangeTransaction, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+exchangeColumns+` FROM exchange_transactions
		WHERE status = 'PENDING' AND auto_reject_after <= ?
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExchangeTransaction
	for rows.Next() {
		t, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumConfirmedExchangesByAccountTx sums confirmed exchange legs older than
// cutoff for service into sums, for the collapse procedure.
func (s *Store) SumConfirmedExchangesByAccountTx(ctx context.Context, tx *sql.Tx, service string, cutoff any, sums map[string]decimal.Decimal) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT from_checking_account_id, to_checking_account_id, from_amount, to_amount
		FROM exchange_transactions
		WHERE service_name = ? AND status = 'CONFIRMED' AND created_at < ?`, service, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var from, to, fromAmount, toAmount string
		if err := rows.Scan(&from, &to, &fromAmount, &toAmount); err != nil {
			return err
		}
		fa, err := decimal.NewFromString(fromAmount)
		if err != nil {
			return err
		}
		ta, err := decimal.NewFromString(toAmount)
		if err != nil {
			return err
		}
		sums[from] = sums[from].Sub(fa)
		sums[to] = sums[to].Add(ta)
	}
	return rows.Err()
}

// DeleteOldConfirmedExchangesTx deletes non-pending exchanges older than
// cutoff for service.
func (s *Store) DeleteOldConfirmedExchangesTx(ctx context.Context, tx *sql.Tx, service string, cutoff any) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM exchange_transactions
		WHERE service_name = ? AND status != 'PENDING' AND created_at < ?`, service, cutoff)
	return err
}
