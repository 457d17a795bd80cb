// Package collapse implements the Collapse Procedure (spec.md §4.6),
// grounded on
// original_source/services/gaming_billing/currencies/services/transactions.py's
// collapse_old_transactions: for each service, every non-PENDING
// adjustment/transfer/exchange row older than a cutoff is replaced by a
// single CONFIRMED AdjustmentTransaction per checking account, holding the
// net balance effect of everything it replaces. Balances themselves never
// change; only the transaction history is compacted.
package collapse

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// maxRetries matches the original's
// @retry_on_serialization_error(max_retries=5) on
// _create_fake_transaction_and_remove_old.
const maxRetries = 5

// Description is stamped on every collapsed AdjustmentTransaction.
const Description = "The amount of old collapsed transactions"

// Result reports how many net adjustments were created per service.
type Result struct {
	ServiceName       string
	AccountsCollapsed int
}

// Run collapses transactions older than olderThan for each of the given
// service names. A single serializable transaction per service deletes its
// old rows and inserts the replacement net adjustments, so a failure
// collapsing one service never touches another's history.
func Run(ctx context.Context, db *database.Store, olderThan time.Duration, serviceNames []string) ([]Result, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	closedAt := time.Now().UTC()

	results := make([]Result, 0, len(serviceNames))
	for _, service := range serviceNames {
		n, err := collapseService(ctx, db, service, cutoff, closedAt)
		if err != nil {
			return results, err
		}
		results = append(results, Result{ServiceName: service, AccountsCollapsed: n})
		zap.L().Info("collapsed old transactions", zap.String("service", service), zap.Int("accounts", n))
	}
	return results, nil
}

func collapseService(ctx context.Context, db *database.Store, service string, cutoff, closedAt time.Time) (int, error) {
	accounts := 0
	err := store.RetryOnSerializationConflict(ctx, maxRetries, func() error {
		accounts = 0
		return db.WithSerializableTx(ctx, func(tx *sql.Tx) error {
			sums, err := db.SumConfirmedAdjustmentsByAccountTx(ctx, tx, service, cutoff)
			if err != nil {
				return err
			}
			if err := db.SumConfirmedTransfersByAccountTx(ctx, tx, service, cutoff, sums); err != nil {
				return err
			}
			if err := db.SumConfirmedExchangesByAccountTx(ctx, tx, service, cutoff, sums); err != nil {
				return err
			}

			if err := db.DeleteOldConfirmedAdjustmentsTx(ctx, tx, service, cutoff); err != nil {
				return err
			}
			if err := db.DeleteOldConfirmedTransfersTx(ctx, tx, service, cutoff); err != nil {
				return err
			}
			if err := db.DeleteOldConfirmedExchangesTx(ctx, tx, service, cutoff); err != nil {
				return err
			}

			for accountID, net := range sums {
				if net.IsZero() {
					continue
				}
				t := models.AdjustmentTransaction{
					TransactionBase: models.TransactionBase{
						Uuid:            uuid.NewString(),
						Service:         service,
						Description:     Description,
						Status:          models.StatusConfirmed,
						AutoRejectAfter: closedAt,
						CreatedAt:       cutoff,
						ClosedAt:        &closedAt,
					},
					CheckingAccountId: accountID,
					Amount:            net,
				}
				if err := db.CreateCollapsedAdjustmentTx(ctx, tx, t); err != nil {
					return err
				}
				accounts++
			}
			return nil
		})
	})
	return accounts, err
}
