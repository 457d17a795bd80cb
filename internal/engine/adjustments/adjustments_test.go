package adjustments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
)

// openTestStore mirrors internal/database's own in-memory fixture, since
// _test.go helpers are not exported across packages.
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

func seedAccount(t *testing.T, db *database.Store, unitSymbol string, precision int32, negativeAllowed bool, openingBalance decimal.Decimal) models.CheckingAccount {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, db.CreateCurrencyUnit(ctx, models.CurrencyUnit{
		Symbol: unitSymbol, Measurement: "coins", Precision: precision, IsNegativeAllowed: negativeAllowed,
	}))

	ht, err := db.EnsureHolderType(ctx, uuid.NewString(), "player")
	require.NoError(t, err)
	holder := models.Holder{Id: uuid.NewString(), HolderId: uuid.NewString(), Enabled: true}
	require.NoError(t, db.CreateHolder(ctx, holder, ht.Id))

	acc := models.CheckingAccount{Id: uuid.NewString(), HolderId: holder.Id, Unit: unitSymbol, Amount: openingBalance}
	require.NoError(t, db.CreateCheckingAccount(ctx, acc))
	return acc
}

func TestCreate_RejectsZeroAmount(t *testing.T) {
	db := openTestStore(t)
	_, err := Create(context.Background(), db, CreateParams{Amount: decimal.Zero})
	require.Error(t, err)
	var ledgerErr *ledgererr.Error
	require.ErrorAs(t, err, &ledgerErr)
	require.Equal(t, ledgererr.KindValidation, ledgerErr.Kind)
}

func TestCreate_DebitReservesFundsImmediately(t *testing.T) {
	db := openTestStore(t)
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	t_, err := Create(context.Background(), db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, t_.Status)

	got, err := db.GetCheckingAccount(context.Background(), acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(70)), "expected balance reserved at create, got %s", got.Amount)
}

func TestCreate_CreditDoesNotTouchBalanceUntilConfirm(t *testing.T) {
	db := openTestStore(t)
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	_, err := Create(context.Background(), db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := db.GetCheckingAccount(context.Background(), acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(100)), "credit must not touch balance before confirm")
}

func TestCreate_InsufficientFundsRejected(t *testing.T) {
	db := openTestStore(t)
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(10))

	_, err := Create(context.Background(), db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	var ledgerErr *ledgererr.Error
	require.ErrorAs(t, err, &ledgerErr)
	require.Equal(t, ledgererr.KindValidation, ledgerErr.Kind)
}

func TestCreate_NegativeAllowedUnitPermitsOverdraft(t *testing.T) {
	db := openTestStore(t)
	acc := seedAccount(t, db, "DEBT", 2, true, decimal.NewFromInt(10))

	_, err := Create(context.Background(), db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := db.GetCheckingAccount(context.Background(), acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(-20)))
}

func TestConfirm_CreditLandsOnBalance(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	tr, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, Confirm(ctx, db, tr.Uuid, "ok"))

	got, err := db.GetCheckingAccount(ctx, acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(130)))
}

func TestReject_DebitReturnsReservedFunds(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	tr, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, Reject(ctx, db, tr.Uuid, "cancelled"))

	got, err := db.GetCheckingAccount(ctx, acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(100)), "rejecting a debit must return the reserved amount")
}

func TestReject_CreditIsAPureStatusChange(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	tr, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, Reject(ctx, db, tr.Uuid, "cancelled"))

	got, err := db.GetCheckingAccount(ctx, acc.Id)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(100)))
}

func TestConfirm_AlreadyTerminalIsRejected(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	tr, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(30),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, Confirm(ctx, db, tr.Uuid, "ok"))

	err = Confirm(ctx, db, tr.Uuid, "ok again")
	require.Error(t, err)
}

func TestRejectAllOutdated_RejectsPastDeadlineOnly(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, db, "GOLD", 2, false, decimal.NewFromInt(100))

	outdated, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-10),
		AutoRejectAfter:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	stillPending, err := Create(ctx, db, CreateParams{
		CheckingAccountId: acc.Id,
		Amount:            decimal.NewFromInt(-10),
		AutoRejectAfter:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	n, err := RejectAllOutdated(ctx, db, "swept", 500)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := db.GetAdjustment(ctx, outdated.Uuid)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, got.Status)

	got, err = db.GetAdjustment(ctx, stillPending.Uuid)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got.Status)
}
