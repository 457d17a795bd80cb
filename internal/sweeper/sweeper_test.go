package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/engine/adjustments"
	"github.com/ar1ocker/currencyledger/internal/engine/exchanges"
	"github.com/ar1ocker/currencyledger/internal/engine/transfers"
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

func mkAccount(t *testing.T, db *database.Store, unit string, balance decimal.Decimal) models.CheckingAccount {
	t.Helper()
	ctx := context.Background()
	ht, err := db.EnsureHolderType(ctx, uuid.NewString(), "player")
	require.NoError(t, err)
	holder := models.Holder{Id: uuid.NewString(), HolderId: uuid.NewString(), Enabled: true}
	require.NoError(t, db.CreateHolder(ctx, holder, ht.Id))
	acc := models.CheckingAccount{Id: uuid.NewString(), HolderId: holder.Id, Unit: unit, Amount: balance}
	require.NoError(t, db.CreateCheckingAccount(ctx, acc))
	return acc
}

func TestRun_RejectsOutdatedAcrossAllThreeKinds(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCurrencyUnit(ctx, models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	require.NoError(t, db.CreateCurrencyUnit(ctx, models.CurrencyUnit{Symbol: "GEM", Measurement: "gems", Precision: 2}))

	adjAcc := mkAccount(t, db, "GOLD", decimal.NewFromInt(100))
	_, err := adjustments.Create(ctx, db, adjustments.CreateParams{
		CheckingAccountId: adjAcc.Id,
		Amount:            decimal.NewFromInt(-10),
		AutoRejectAfter:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	fromAcc := mkAccount(t, db, "GOLD", decimal.NewFromInt(100))
	toAcc := mkAccount(t, db, "GOLD", decimal.NewFromInt(0))
	require.NoError(t, db.CreateTransferRule(ctx, models.TransferRule{
		Id: uuid.NewString(), Name: "standard", Unit: "GOLD", Enabled: true,
		FeePercent: decimal.Zero, MinFromAmount: decimal.Zero,
	}))
	_, err = transfers.Create(ctx, db, transfers.CreateParams{
		RuleName: "standard", FromCheckingAccount: fromAcc.Id, ToCheckingAccount: toAcc.Id,
		FromAmount: decimal.NewFromInt(10), AutoRejectAfter: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	exFrom := mkAccount(t, db, "GOLD", decimal.NewFromInt(100))
	exTo := mkAccount(t, db, "GEM", decimal.NewFromInt(0))
	require.NoError(t, db.CreateExchangeRule(ctx, models.ExchangeRule{
		Id: uuid.NewString(), Name: "gold-gem", FirstUnit: "GOLD", SecondUnit: "GEM",
		ForwardRate: decimal.NewFromInt(10), ReverseRate: decimal.NewFromFloat(0.1),
		EnabledForward: true, EnabledReverse: true,
	}))
	_, err = exchanges.Create(ctx, db, exchanges.CreateParams{
		RuleName: "gold-gem", FromCheckingAccount: exFrom.Id, ToCheckingAccount: exTo.Id,
		FromAmount: decimal.NewFromInt(10), AutoRejectAfter: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	res, err := Run(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 1, res.AdjustmentsRejected)
	require.Equal(t, 1, res.TransfersRejected)
	require.Equal(t, 1, res.ExchangesRejected)
}

func TestRun_NoOutdatedIsANoop(t *testing.T) {
	db := openTestStore(t)
	res, err := Run(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, Result{}, res)
}
