package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crashgame/backend/domain/wallet"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func TestWalletCreditCreatesRow(t *testing.T) {
	repo := NewWalletRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()

	_, err := repo.Balance(ctx, user, "USD")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(500), "DEPOSIT"))
	b, err := repo.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(500)))
}

func TestWalletDebit(t *testing.T) {
	repo := NewWalletRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(500), "DEPOSIT"))

	require.NoError(t, repo.Debit(ctx, user, "USD", decimal.NewFromInt(120), "BET_PLACED"))
	b, err := repo.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(380)))
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	repo := NewWalletRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(50), "DEPOSIT"))

	err := repo.Debit(ctx, user, "USD", decimal.NewFromInt(100), "BET_PLACED")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	// the failed debit must not move the balance or leave a ledger entry
	b, err := repo.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(50)))
}

func TestWalletDebitMissingWallet(t *testing.T) {
	repo := NewWalletRepository(testDB(t))
	err := repo.Debit(context.Background(), uuid.New(), "USD", decimal.NewFromInt(10), "BET_PLACED")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestWalletUnavailableOnInfrastructureFailure(t *testing.T) {
	db := testDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(500), "DEPOSIT"))

	// cut the connection so the next mutation fails below the funds checks
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = repo.Debit(ctx, user, "USD", decimal.NewFromInt(100), "BET_PLACED")
	assert.ErrorIs(t, err, wallet.ErrUnavailable)
	assert.NotErrorIs(t, err, wallet.ErrInsufficientFunds)
}

func TestWalletCurrenciesIsolated(t *testing.T) {
	repo := NewWalletRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(100), "DEPOSIT"))
	require.NoError(t, repo.Credit(ctx, user, "EUR", decimal.NewFromInt(200), "DEPOSIT"))

	require.NoError(t, repo.Debit(ctx, user, "USD", decimal.NewFromInt(40), "BET_PLACED"))

	usd, err := repo.Balance(ctx, user, "USD")
	require.NoError(t, err)
	eur, err := repo.Balance(ctx, user, "EUR")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(60)))
	assert.True(t, eur.Equal(decimal.NewFromInt(200)))
}

func TestWalletLedgerTrail(t *testing.T) {
	db := testDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(500), "DEPOSIT"))
	require.NoError(t, repo.Debit(ctx, user, "USD", decimal.NewFromInt(100), "BET_PLACED"))
	require.NoError(t, repo.Credit(ctx, user, "USD", decimal.NewFromInt(134), "CASHOUT"))

	var entries []LedgerModel
	require.NoError(t, db.Where("user_id = ?", user).Order("created_at").Find(&entries).Error)
	require.Len(t, entries, 3)

	assert.Equal(t, "BET_PLACED", entries[1].Reason)
	assert.True(t, entries[1].Delta.Equal(decimal.NewFromInt(-100)))
	assert.True(t, entries[1].BeforeBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, entries[1].AfterBalance.Equal(decimal.NewFromInt(400)))
	assert.True(t, entries[2].AfterBalance.Equal(decimal.NewFromInt(534)))
}
