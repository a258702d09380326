package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/wallet"
)

func TestMemoryWallet(t *testing.T) {
	w := NewMemoryWallet()
	ctx := context.Background()
	user := uuid.New()

	_, err := w.Balance(ctx, user, "USD")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	assert.ErrorIs(t, w.Debit(ctx, user, "USD", decimal.NewFromInt(10), "BET_PLACED"), wallet.ErrWalletNotFound)

	w.Seed(user, "USD", decimal.NewFromInt(100))
	require.NoError(t, w.Debit(ctx, user, "USD", decimal.NewFromInt(40), "BET_PLACED"))
	assert.ErrorIs(t, w.Debit(ctx, user, "USD", decimal.NewFromInt(100), "BET_PLACED"), wallet.ErrInsufficientFunds)
	require.NoError(t, w.Credit(ctx, user, "USD", decimal.NewFromInt(80), "CASHOUT"))

	b, err := w.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(140)))

	ledger := w.Ledger()
	require.Len(t, ledger, 2, "failed debit leaves no ledger entry")
	assert.True(t, ledger[0].Delta.Equal(decimal.NewFromInt(-40)))
	assert.True(t, ledger[0].BeforeBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, ledger[1].AfterBalance.Equal(decimal.NewFromInt(140)))
}

func TestMemoryWalletCreditCreates(t *testing.T) {
	w := NewMemoryWallet()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, w.Credit(ctx, user, "USD", decimal.NewFromInt(25), "DEPOSIT"))
	b, err := w.Balance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(25)))
}
