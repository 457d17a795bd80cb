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

func scanAdjustment(row interface {
	Scan(dest ...any) error
}) (models.AdjustmentTransaction, error) {
	var t models.AdjustmentTransaction
	var amount string
	err := row.Scan(&t.Uuid, &t.Service, &t.Description, &t.StatusDescription, &t.Status,
		&t.AutoRejectAfter, &t.CreatedAt, &t.ClosedAt, &t.CheckingAccountId, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdjustmentTransaction{}, store.ErrNotFound
	}
	if err != nil {
		return models.AdjustmentTransaction{}, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	return t, err
}

const adjustmentColumns = `uuid, service_name, description, status_description, status,
	auto_reject_after, created_at, closed_at, checking_account_id, amount`

// GetAdjustmentTx reads an AdjustmentTransaction inside tx.
func (s *Store) GetAdjustmentTx(ctx context.Context, tx *sql.Tx, uuid string) (models.AdjustmentTransaction, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+adjustmentColumns+` FROM adjustment_transactions WHERE uuid = ?`, uuid)
	return scanAdjustment(row)
}

// GetAdjustment reads an AdjustmentTransaction outside any transaction.
func (s *Store) GetAdjustment(ctx context.Context, uuid string) (models.AdjustmentTransaction, error) {
	row := s.DB().QueryRowContext(ctx, `SELECT `+adjustmentColumns+` FROM adjustment_transactions WHERE uuid = ?`, uuid)
	return scanAdjustment(row)
}

// CreateAdjustmentTx inserts a new PENDING AdjustmentTransaction inside tx.
func (s *Store) CreateAdjustmentTx(ctx context.Context, tx *sql.Tx, t models.AdjustmentTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO adjustment_transactions
			(uuid, service_name, description, status_description, status,
			 auto_reject_after, checking_account_id, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Uuid, t.Service, t.Description, t.StatusDescription, t.Status,
		t.AutoRejectAfter, t.CheckingAccountId, t.Amount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// CloseAdjustmentTx transitions an AdjustmentTransaction to a terminal
// status inside tx, stamping closed_at and the status description.
func (s *Store) CloseAdjustmentTx(ctx context.Context, tx *sql.Tx, uuid string, status models.TransactionStatus, statusDescription string, closedAt any) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE adjustment_transactions
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
		return ledgererr.Conflict(errors.New("adjustment is not pending"))
	}
	return nil
}

// ListOutdatedPendingAdjustmentsTx returns PENDING adjustments whose
// auto_reject_after has passed, for the sweeper (spec.md §5).
func (s *Store) ListOutdatedPendingAdjustmentsTx(ctx context.Context, tx *sql.Tx, now any, limit int) ([]models.AdjustmentTransaction, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+adjustmentColumns+` FROM adjustment_transactions
		WHERE status = 'PENDING' AND auto_reject_after <= ?
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AdjustmentTransaction
	for rows.Next() {
		t, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumConfirmedAdjustmentsByAccountTx sums amounts of CONFIRMED adjustments
// older than cutoff for service, grouped by checking account, for the
// collapse procedure (spec.md §4.6).
func (s *Store) SumConfirmedAdjustmentsByAccountTx(ctx context.Context, tx *sql.Tx, service string, cutoff any) (map[string]decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT checking_account_id, amount FROM adjustment_transactions
		WHERE service_name = ? AND status = 'CONFIRMED' AND created_at < ?`, service, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := map[string]decimal.Decimal{}
	for rows.Next() {
		var account, amount string
		if err := rows.Scan(&account, &amount); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		sums[account] = sums[account].Add(d)
	}
	return sums, rows.Err()
}

// DeleteOldConfirmedAdjustmentsTx deletes CONFIRMED/REJECTED adjustments
// older than cutoff for service, inside tx, as part of the collapse
// procedure.
func (s *Store) DeleteOldConfirmedAdjustmentsTx(ctx context.Context, tx *sql.Tx, service string, cutoff any) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM adjustment_transactions
		WHERE service_name = ? AND status != 'PENDING' AND created_at < ?`, service, cutoff)
	return err
}

// CreateCollapsedAdjustmentTx inserts the single net AdjustmentTransaction
// the collapse procedure produces per (service, checking account), with
// created_at explicitly pinned to cutoff rather than the insert wall-clock
// (original_source/.../transactions.py re-sets created_at after save()).
func (s *Store) CreateCollapsedAdjustmentTx(ctx context.Context, tx *sql.Tx, t models.AdjustmentTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO adjustment_transactions
			(uuid, service_name, description, status_description, status,
			 auto_reject_after, created_at, closed_at, checking_account_id, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Uuid, t.Service, t.Description, t.StatusDescription, t.Status,
		t.AutoRejectAfter, t.CreatedAt, t.ClosedAt, t.CheckingAccountId, t.Amount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}
