package collapse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/engine/adjustments"
	"github.com/ar1ocker/currencyledger/internal/models"
)

func openTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(context.Background(), models.DatabaseConfig{
		Path:         "file::memory:?cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedAccount(t *testing.T, db *database.Store, balance decimal.Decimal) models.CheckingAccount {
	t.Helper()
	ctx := context.Background()
	ht, err := db.EnsureHolderType(ctx, uuid.NewString(), "player")
	require.NoError(t, err)
	holder := models.Holder{Id: uuid.NewString(), HolderId: uuid.NewString(), Enabled: true}
	require.NoError(t, db.CreateHolder(ctx, holder, ht.Id))
	acc := models.CheckingAccount{Id: uuid.NewString(), HolderId: holder.Id, Unit: "GOLD", Amount: balance}
	require.NoError(t, db.CreateCheckingAccount(ctx, acc))
	return acc
}

func confirmAdjustment(t *testing.T, db *database.Store, service, accountID string, amount decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	tr, err := adjustments.Create(ctx, db, adjustments.CreateParams{
		Service:           service,
		CheckingAccountId: accountID,
		Amount:            amount,
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, adjustments.Confirm(ctx, db, tr.Uuid, "ok"))
}

func TestRun_NetsOldConfirmedTransactionsIntoOneAdjustment(t *testing.T) {
	db := openTestStore(t)
	require.NoError(t, db.CreateCurrencyUnit(context.Background(), models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	acc := seedAccount(t, db, decimal.NewFromInt(100))

	confirmAdjustment(t, db, "svc-a", acc.Id, decimal.NewFromInt(10))
	confirmAdjustment(t, db, "svc-a", acc.Id, decimal.NewFromInt(-5))

	results, err := Run(context.Background(), db, time.Duration(0), []string{"svc-a"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "svc-a", results[0].ServiceName)
	require.Equal(t, 1, results[0].AccountsCollapsed)

	balance, err := db.GetCheckingAccount(context.Background(), acc.Id)
	require.NoError(t, err)
	require.True(t, balance.Amount.Equal(decimal.NewFromInt(105)), "collapsing must never change the balance itself")
}

func TestRun_SkipsAccountsWithZeroNet(t *testing.T) {
	db := openTestStore(t)
	require.NoError(t, db.CreateCurrencyUnit(context.Background(), models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	acc := seedAccount(t, db, decimal.NewFromInt(100))

	confirmAdjustment(t, db, "svc-a", acc.Id, decimal.NewFromInt(10))
	confirmAdjustment(t, db, "svc-a", acc.Id, decimal.NewFromInt(-10))

	results, err := Run(context.Background(), db, time.Duration(0), []string{"svc-a"})
	require.NoError(t, err)
	require.Equal(t, 0, results[0].AccountsCollapsed, "a net-zero account should not produce a replacement row")
}

func TestRun_DoesNotTouchOtherServices(t *testing.T) {
	db := openTestStore(t)
	require.NoError(t, db.CreateCurrencyUnit(context.Background(), models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	acc := seedAccount(t, db, decimal.NewFromInt(100))

	confirmAdjustment(t, db, "svc-a", acc.Id, decimal.NewFromInt(10))
	confirmAdjustment(t, db, "svc-b", acc.Id, decimal.NewFromInt(20))

	results, err := Run(context.Background(), db, time.Duration(0), []string{"svc-a"})
	require.NoError(t, err)
	require.Equal(t, 1, results[0].AccountsCollapsed)

	got, err := db.GetCheckingAccount(context.Background(), acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(130)))

	var otherRows int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*) FROM adjustment_transactions WHERE service_name = 'svc-b'`).Scan(&otherRows))
	require.Equal(t, 1, otherRows, "collapsing svc-a must leave svc-b's history in place")
}
