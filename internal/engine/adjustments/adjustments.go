// Package adjustments implements the single-account Adjustment transaction
// (spec.md §4.2), grounded on
// original_source/gaming_billing_service/currencies/services/adjustments.py:
// a debit reserves funds immediately at create time, a credit is only
// applied to the balance at confirm time, and reject on a debit returns the
// reserved amount to the balance.
package adjustments

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/decimalx"
	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

const maxRetries = 3

// CreateParams describes a new adjustment request.
type CreateParams struct {
	Service           string
	CheckingAccountId string
	Amount            decimal.Decimal
	Description       string
	AutoRejectAfter   time.Time
}

// Create validates and inserts a PENDING AdjustmentTransaction. A negative
// Amount (a debit) is reserved against the account balance immediately; a
// positive Amount (a credit) only lands on the balance at Confirm.
func Create(ctx context.Context, db *database.Store, p CreateParams) (models.AdjustmentTransaction, error) {
	if p.Amount.IsZero() {
		return models.AdjustmentTransaction{}, ledgererr.Validation("amount must not be zero")
	}

	var out models.AdjustmentTransaction
	err := store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			account, err := db.GetCheckingAccountTx(ctx, tx, p.CheckingAccountId)
			if err != nil {
				return err
			}

			unit, err := db.GetCurrencyUnit(ctx, account.Unit)
			if err != nil {
				return err
			}

			if decimalx.ExceedsPrecision(p.Amount, unit.Precision) {
				return ledgererr.Validation("amount exceeds %s precision of %d fractional digits", unit.Symbol, unit.Precision)
			}
			if !decimalx.WithinGlobalBounds(p.Amount) {
				return ledgererr.Validation("amount exceeds the global precision bounds")
			}

			newBalance := account.Amount
			if p.Amount.IsNegative() {
				newBalance = account.Amount.Add(p.Amount)
				if newBalance.IsNegative() && !unit.IsNegativeAllowed {
					return ledgererr.Validation("insufficient funds in account %s", account.Id)
				}
				if err := db.SetCheckingAccountAmountTx(ctx, tx, account.Id, newBalance); err != nil {
					return err
				}
			}

			t := models.AdjustmentTransaction{
				TransactionBase: models.TransactionBase{
					Uuid:            uuid.NewString(),
					Service:         p.Service,
					Description:     p.Description,
					Status:          models.StatusPending,
					AutoRejectAfter: p.AutoRejectAfter,
				},
				CheckingAccountId: p.CheckingAccountId,
				Amount:            p.Amount,
			}
			if err := db.CreateAdjustmentTx(ctx, tx, t); err != nil {
				return err
			}
			out = t
			return nil
		})
	})
	if err != nil {
		return models.AdjustmentTransaction{}, err
	}
	zap.L().Info("adjustment created", zap.String("uuid", out.Uuid), zap.String("account", out.CheckingAccountId))
	return out, nil
}

// Confirm transitions a PENDING adjustment to CONFIRMED. A credit's amount
// is added to the balance now; a debit's balance effect was already applied
// at Create, so confirming it does not touch the balance again.
func Confirm(ctx context.Context, db *database.Store, transactionUuid string, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			t, err := db.GetAdjustmentTx(ctx, tx, transactionUuid)
			if err != nil {
				return err
			}
			if t.Status != models.StatusPending {
				return ledgererr.Validation("adjustment %s is not pending", transactionUuid)
			}

			if t.Amount.IsPositive() {
				account, err := db.GetCheckingAccountTx(ctx, tx, t.CheckingAccountId)
				if err != nil {
					return err
				}
				newBalance := account.Amount.Add(t.Amount)
				if err := db.SetCheckingAccountAmountTx(ctx, tx, account.Id, newBalance); err != nil {
					return err
				}
			}

			now := time.Now().UTC()
			return db.CloseAdjustmentTx(ctx, tx, transactionUuid, models.StatusConfirmed, statusDescription, now)
		})
	})
}

// Reject transitions a PENDING adjustment to REJECTED, returning any
// reserved debit amount to the account balance. Credits never touched the
// balance, so rejecting one is a pure status change.
func Reject(ctx context.Context, db *database.Store, transactionUuid string, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			return rejectTx(ctx, db, tx, transactionUuid, statusDescription, time.Now().UTC())
		})
	})
}

func rejectTx(ctx context.Context, db *database.Store, tx *sql.Tx, transactionUuid, statusDescription string, now time.Time) error {
	t, err := db.GetAdjustmentTx(ctx, tx, transactionUuid)
	if err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return ledgererr.Validation("adjustment %s is not pending", transactionUuid)
	}

	if t.Amount.IsNegative() {
		account, err := db.GetCheckingAccountTx(ctx, tx, t.CheckingAccountId)
		if err != nil {
			return err
		}
		newBalance := account.Amount.Sub(t.Amount)
		if err := db.SetCheckingAccountAmountTx(ctx, tx, account.Id, newBalance); err != nil {
			return err
		}
	}

	return db.CloseAdjustmentTx(ctx, tx, transactionUuid, models.StatusRejected, statusDescription, now)
}

// RejectAllOutdated rejects every PENDING adjustment whose AutoRejectAfter
// has passed, one serializable transaction per row so a single bad row
// cannot block the rest (original_source's reject_all_outdated swallows
// per-item ValidationError and continues).
func RejectAllOutdated(ctx context.Context, db *database.Store, statusDescription string, batchSize int) (int, error) {
	now := time.Now().UTC()

	var outdated []models.AdjustmentTransaction
	err := db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
		var err error
		outdated, err = db.ListOutdatedPendingAdjustmentsTx(ctx, tx, now, batchSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, t := range outdated {
		err := store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
			return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
				return rejectTx(ctx, db, tx, t.Uuid, statusDescription, now)
			})
		})
		if err != nil {
			zap.L().Warn("failed to reject outdated adjustment", zap.String("uuid", t.Uuid), zap.Error(err))
			continue
		}
		rejected++
	}
	return rejected, nil
}
