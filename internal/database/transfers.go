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

func scanTransfer(row interface {
	Scan(dest ...any) error
}) (models.TransferTransaction, error) {
	var t models.TransferTransaction
	var fromAmount, toAmount string
	err := row.Scan(&t.Uuid, &t.Service, &t.Description, &t.StatusDescription, &t.Status,
		&t.AutoRejectAfter, &t.CreatedAt, &t.ClosedAt, &t.TransferRule,
		&t.FromCheckingAccountId, &t.ToCheckingAccountId, &fromAmount, &toAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TransferTransaction{}, store.ErrNotFound
	}
	if err != nil {
		return models.TransferTransaction{}, err
	}
	if t.FromAmount, err = decimal.NewFromString(fromAmount); err != nil {
		return models.TransferTransaction{}, err
	}
	t.ToAmount, err = decimal.NewFromString(toAmount)
	return t, err
}

const transferColumns = `uuid, service_name, description, status_description, status,
	auto_reject_after, created_at, closed_at, transfer_rule_id,
	from_checking_account_id, to_checking_account_id, from_amount, to_amount`

// GetTransferTx reads a TransferTransaction inside tx.
func (s *Store) GetTransferTx(ctx context.Context, tx *sql.Tx, uuid string) (models.TransferTransaction, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfer_transactions WHERE uuid = ?`, uuid)
	return scanTransfer(row)
}

// GetTransfer reads a TransferTransaction outside any transaction.
func (s *Store) GetTransfer(ctx context.Context, uuid string) (models.TransferTransaction, error) {
	row := s.DB().QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfer_transactions WHERE uuid = ?`, uuid)
	return scanTransfer(row)
}

// CreateTransferTx inserts a new PENDING TransferTransaction inside tx.
func (s *Store) CreateTransferTx(ctx context.Context, tx *sql.Tx, t models.TransferTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transfer_transactions
			(uuid, service_name, description, status_description, status,
			 auto_reject_after, transfer_rule_id,
			 from_checking_account_id, to_checking_account_id, from_amount, to_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Uuid, t.Service, t.Description, t.StatusDescription, t.Status,
		t.AutoRejectAfter, t.TransferRule,
		t.FromCheckingAccountId, t.ToCheckingAccountId, t.FromAmount.String(), t.ToAmount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// CloseTransferTx transitions a TransferTransaction to a terminal status.
func (s *Store) CloseTransferTx(ctx context.Context, tx *sql.Tx, uuid string, status models.TransactionStatus, statusDescription string, closedAt any) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE transfer_transactions
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
		return ledgererr.Conflict(errors.New("transfer is not pending"))
	}
	return nil
}

// ListOutdatedPendingTransfersTx returns PENDING transfers past deadline.
func (s *Store) ListOutdatedPendingTransfersTx(ctx context.Context, tx *sql.Tx, now any, limit int) ([]models.TransferTransaction, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+transferColumns+` FROM transfer_transactions
		WHERE status = 'PENDING' AND auto_reject_after <= ?
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TransferTransaction
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumConfirmedTransfersByAccountTx sums confirmed transfer legs older than
// cutoff for service, crediting the to-account and debiting the
// from-account, for the collapse procedure.
func (s *Store) SumConfirmedTransfersByAccountTx(ctx context.Context, tx *sql.Tx, service string, cutoff any, sums map[string]decimal.Decimal) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT from_checking_account_id, to_checking_account_id, from_amount, to_amount
		FROM transfer_transactions
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

// DeleteOldConfirmedTransfersTx deletes non-pending transfers older than
// cutoff for service.
func (s *Store) DeleteOldConfirmedTransfersTx(ctx context.Context, tx *sql.Tx, service string, cutoff any) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM transfer_transactions
		WHERE service_name = ? AND status != 'PENDING' AND created_at < ?`, service, cutoff)
	return err
}
