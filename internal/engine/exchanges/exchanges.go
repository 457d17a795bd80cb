// Package exchanges implements the cross-unit Exchange transaction (spec.md
// §4.4), grounded on
// original_source/gaming_billing_service/currencies/services/exchanges.py:
// an ExchangeRule binds exactly two units; trading FirstUnit->SecondUnit is
// "forward" (to_amount = from_amount / forward_rate), trading
// SecondUnit->FirstUnit is "reverse" (to_amount = from_amount *
// reverse_rate). Both directions fail rather than round when the computed
// to_amount overflows the receiving unit's precision.
package exchanges

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

// CreateParams describes a new exchange request. FromCheckingAccount's unit
// must match either RuleName's FirstUnit (forward direction) or SecondUnit
// (reverse direction).
type CreateParams struct {
	Service             string
	RuleName            string
	FromCheckingAccount string
	ToCheckingAccount   string
	FromAmount          decimal.Decimal
	Description         string
	AutoRejectAfter     time.Time
}

// Create validates the rule/direction/amount invariants, computes ToAmount
// exactly, reserves FromAmount against the sender's balance, and inserts a
// PENDING ExchangeTransaction.
func Create(ctx context.Context, db *database.Store, p CreateParams) (models.ExchangeTransaction, error) {
	if !p.FromAmount.IsPositive() {
		return models.ExchangeTransaction{}, ledgererr.Validation("from_amount must be positive")
	}
	if p.FromCheckingAccount == p.ToCheckingAccount {
		return models.ExchangeTransaction{}, ledgererr.Validation("cannot exchange to the same account")
	}

	var out models.ExchangeTransaction
	err := store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			rule, err := db.GetExchangeRuleByName(ctx, p.RuleName)
			if err != nil {
				return err
			}

			from, err := db.GetCheckingAccountTx(ctx, tx, p.FromCheckingAccount)
			if err != nil {
				return err
			}
			to, err := db.GetCheckingAccountTx(ctx, tx, p.ToCheckingAccount)
			if err != nil {
				return err
			}

			var forward bool
			switch {
			case from.Unit == rule.FirstUnit && to.Unit == rule.SecondUnit:
				forward = true
			case from.Unit == rule.SecondUnit && to.Unit == rule.FirstUnit:
				forward = false
			default:
				return ledgererr.Validation("accounts do not match rule %s's unit pair", rule.Name)
			}

			if forward && !rule.EnabledForward {
				return ledgererr.Validation("forward direction of rule %s is disabled", rule.Name)
			}
			if !forward && !rule.EnabledReverse {
				return ledgererr.Validation("reverse direction of rule %s is disabled", rule.Name)
			}

			minFrom := rule.MinFirstAmount
			if !forward {
				minFrom = rule.MinSecondAmount
			}
			if p.FromAmount.LessThan(minFrom) {
				return ledgererr.Validation("from_amount is below the rule's minimum of %s", decimalx.Format(minFrom))
			}

			fromUnit, err := db.GetCurrencyUnit(ctx, from.Unit)
			if err != nil {
				return err
			}
			toUnit, err := db.GetCurrencyUnit(ctx, to.Unit)
			if err != nil {
				return err
			}
			if decimalx.ExceedsPrecision(p.FromAmount, fromUnit.Precision) {
				return ledgererr.Validation("from_amount exceeds %s precision", fromUnit.Symbol)
			}

			var toAmount decimal.Decimal
			if forward {
				toAmount = p.FromAmount.Div(rule.ForwardRate)
			} else {
				toAmount = p.FromAmount.Mul(rule.ReverseRate)
			}
			if decimalx.ExceedsPrecision(toAmount, toUnit.Precision) || !decimalx.WithinGlobalBounds(toAmount) {
				return ledgererr.Validation("computed to_amount exceeds %s precision", toUnit.Symbol)
			}
			if !toAmount.IsPositive() {
				return ledgererr.Validation("computed to_amount is not positive")
			}

			newFromBalance := from.Amount.Sub(p.FromAmount)
			if newFromBalance.IsNegative() && !fromUnit.IsNegativeAllowed {
				return ledgererr.Validation("insufficient funds in account %s", from.Id)
			}
			if err := db.SetCheckingAccountAmountTx(ctx, tx, from.Id, newFromBalance); err != nil {
				return err
			}

			ruleID := rule.Id
			t := models.ExchangeTransaction{
				TransactionBase: models.TransactionBase{
					Uuid:            uuid.NewString(),
					Service:         p.Service,
					Description:     p.Description,
					Status:          models.StatusPending,
					AutoRejectAfter: p.AutoRejectAfter,
				},
				ExchangeRule:          &ruleID,
				FromCheckingAccountId: p.FromCheckingAccount,
				ToCheckingAccountId:   p.ToCheckingAccount,
				FromAmount:            p.FromAmount,
				ToAmount:              toAmount,
			}
			if err := db.CreateExchangeTx(ctx, tx, t); err != nil {
				return err
			}
			out = t
			return nil
		})
	})
	if err != nil {
		return models.ExchangeTransaction{}, err
	}
	zap.L().Info("exchange created", zap.String("uuid", out.Uuid))
	return out, nil
}

// Confirm transitions a PENDING exchange to CONFIRMED, crediting ToAmount
// to the receiving account.
func Confirm(ctx context.Context, db *database.Store, transactionUuid, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			t, err := db.GetExchangeTx(ctx, tx, transactionUuid)
			if err != nil {
				return err
			}
			if t.Status != models.StatusPending {
				return ledgererr.Validation("exchange %s is not pending", transactionUuid)
			}

			to, err := db.GetCheckingAccountTx(ctx, tx, t.ToCheckingAccountId)
			if err != nil {
				return err
			}
			if err := db.SetCheckingAccountAmountTx(ctx, tx, to.Id, to.Amount.Add(t.ToAmount)); err != nil {
				return err
			}

			return db.CloseExchangeTx(ctx, tx, transactionUuid, models.StatusConfirmed, statusDescription, time.Now().UTC())
		})
	})
}

// Reject transitions a PENDING exchange to REJECTED, returning the
// reserved FromAmount to the sender's balance.
func Reject(ctx context.Context, db *database.Store, transactionUuid, statusDescription string) error {
	return store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			return rejectTx(ctx, db, tx, transactionUuid, statusDescription, time.Now().UTC())
		})
	})
}

func rejectTx(ctx context.Context, db *database.Store, tx *sql.Tx, transactionUuid, statusDescription string, now time.Time) error {
	t, err := db.GetExchangeTx(ctx, tx, transactionUuid)
	if err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return ledgererr.Validation("exchange %s is not pending", transactionUuid)
	}

	from, err := db.GetCheckingAccountTx(ctx, tx, t.FromCheckingAccountId)
	if err != nil {
		return err
	}
	if err := db.SetCheckingAccountAmountTx(ctx, tx, from.Id, from.Amount.Add(t.FromAmount)); err != nil {
		return err
	}

	return db.CloseExchangeTx(ctx, tx, transactionUuid, models.StatusRejected, statusDescription, now)
}

// RejectAllOutdated rejects every PENDING exchange past its deadline.
func RejectAllOutdated(ctx context.Context, db *database.Store, statusDescription string, batchSize int) (int, error) {
	now := time.Now().UTC()

	var outdated []models.ExchangeTransaction
	err := db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
		var err error
		outdated, err = db.ListOutdatedPendingExchangesTx(ctx, tx, now, batchSize)
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
			zap.L().Warn("failed to reject outdated exchange", zap.String("uuid", t.Uuid), zap.Error(err))
			continue
		}
		rejected++
	}
	return rejected, nil
}
