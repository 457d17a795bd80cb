// Package transfers implements the same-unit Transfer transaction (spec.md
// §4.3), grounded on
// original_source/gaming_billing_service/currencies/services/transfers.py:
// a fee is taken off the sender's amount at create time via a TransferRule,
// the sender's balance is reserved immediately, and the receiver's balance
// only gets the (post-fee) to_amount at confirm time.
package transfers

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

// CreateParams describes a new transfer request.
type CreateParams struct {
	Service             string
	RuleName            string
	FromCheckingAccount string
	ToCheckingAccount   string
	FromAmount          decimal.Decimal
	Description         string
	AutoRejectAfter     time.Time
}

// Create validates rule/account/amount invariants, computes ToAmount by
// applying the rule's fee, reserves FromAmount against the sender's
// balance, and inserts a PENDING TransferTransaction.
func Create(ctx context.Context, db *database.Store, p CreateParams) (models.TransferTransaction, error) {
	if !p.FromAmount.IsPositive() {
		return models.TransferTransaction{}, ledgererr.Validation("from_amount must be positive")
	}
	if p.FromCheckingAccount == p.ToCheckingAccount {
		return models.TransferTransaction{}, ledgererr.Validation("cannot transfer to the same account")
	}

	var out models.TransferTransaction
	err := store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			rule, err := db.GetTransferRuleByName(ctx, p.RuleName)
			if err != nil {
				return err
			}
			if !rule.Enabled {
				return ledgererr.Validation("transfer rule %s is disabled", rule.Name)
			}
			if p.FromAmount.LessThan(rule.MinFromAmount) {
				return ledgererr.Validation("from_amount is below the rule's minimum of %s", decimalx.Format(rule.MinFromAmount))
			}

			from, err := db.GetCheckingAccountTx(ctx, tx, p.FromCheckingAccount)
			if err != nil {
				return err
			}
			to, err := db.GetCheckingAccountTx(ctx, tx, p.ToCheckingAccount)
			if err != nil {
				return err
			}
			if from.Unit != rule.Unit || to.Unit != rule.Unit {
				return ledgererr.Validation("both accounts must hold unit %s", rule.Unit)
			}

			unit, err := db.GetCurrencyUnit(ctx, rule.Unit)
			if err != nil {
				return err
			}
			if decimalx.ExceedsPrecision(p.FromAmount, unit.Precision) {
				return ledgererr.Validation("from_amount exceeds %s precision", unit.Symbol)
			}

			fee := p.FromAmount.Mul(rule.FeePercent).Div(decimal.NewFromInt(100))
			toAmount := decimalx.FloorAt(p.FromAmount.Sub(fee), unit.Precision)
			if !toAmount.IsPositive() {
				return ledgererr.Validation("fee leaves a non-positive to_amount")
			}

			newFromBalance := from.Amount.Sub(p.FromAmount)
			if newFromBalance.IsNegative() && !unit.IsNegativeAllowed {
				return ledgererr.Validation("insufficient funds in account %s", from.Id)
			}
			if err := db.SetCheckingAccountAmountTx(ctx, tx, from.Id, newFromBalance); err != nil {
				return err
			}

			ruleID := rule.Id
			t := models.TransferTransaction{
				TransactionBase: models.TransactionBase{
					Uuid:            uuid.NewString(),
					Service:         p.Service,
					Description:     p.Description,
					Status:          models.StatusPending,
					AutoRejectAfter: p.AutoRejectAfter,
				},
				TransferRule:          &ruleID,
				FromCheckingAccountId: p.FromCheckingAccount,
				ToCheckingAccountId:   p.ToCheckingAccount,
				FromAmount:            p.FromAmount,
				ToAmount:              toAmount,
			}
			if err := db.CreateTransferTx(ctx, tx, t); err != nil {
				return err
			}
			out = t
			return nil
		})
	})
	if err != nil {
		return models.TransferTransaction{}, err
	}
	zap.L().Info("transfer created", zap.String("uuid", out.Uuid))
	return out, nil
}

// Confirm transitions a PENDING transfer to CONFIRMED, crediting ToAmount
// to the receiving account. The sender's balance was already reserved at
// Create.
func Confirm(ctx context.Context, db *database.Store, transactionUuid, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			t, err := db.GetTransferTx(ctx, tx, transactionUuid)
			if err != nil {
				return err
			}
			if t.Status != models.StatusPending {
				return ledgererr.Validation("transfer %s is not pending", transactionUuid)
			}

			to, err := db.GetCheckingAccountTx(ctx, tx, t.ToCheckingAccountId)
			if err != nil {
				return err
			}
			if err := db.SetCheckingAccountAmountTx(ctx, tx, to.Id, to.Amount.Add(t.ToAmount)); err != nil {
				return err
			}

			return db.CloseTransferTx(ctx, tx, transactionUuid, models.StatusConfirmed, statusDescription, time.Now().UTC())
		})
	})
}

// Reject transitions a PENDING transfer to REJECTED, returning the
// reserved FromAmount to the sender's balance.
func Reject(ctx context.Context, db *database.Store, transactionUuid, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			return rejectTx(ctx, db, tx, transactionUuid, statusDescription, time.Now().UTC())
		})
	})
}

func rejectTx(ctx context.Context, db *database.Store, tx *sql.Tx, transactionUuid, statusDescription string, now time.Time) error {
	t, err := db.GetTransferTx(ctx, tx, transactionUuid)
	if err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return ledgererr.Validation("transfer %s is not pending", transactionUuid)
	}

	from, err := db.GetCheckingAccountTx(ctx, tx, t.FromCheckingAccountId)
	if err != nil {
		return err
	}
	if err := db.SetCheckingAccountAmountTx(ctx, tx, from.Id, from.Amount.Add(t.FromAmount)); err != nil {
		return err
	}

	return db.CloseTransferTx(ctx, tx, transactionUuid, models.StatusRejected, statusDescription, now)
}

// RejectAllOutdated rejects every PENDING transfer past its deadline.
func RejectAllOutdated(ctx context.Context, db *database.Store, statusDescription string, batchSize int) (int, error) {
	now := time.Now().UTC()

	var outdated []models.TransferTransaction
	err := db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
		var err error
		outdated, err = db.ListOutdatedPendingTransfersTx(ctx, tx, now, batchSize)
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
			zap.L().Warn("failed to reject outdated transfer", zap.String("uuid", t.Uuid), zap.Error(err))
			continue
		}
		rejected++
	}
	return rejected, nil
}
