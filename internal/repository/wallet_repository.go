package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crashgame/backend/domain/wallet"
)

// WalletRepository is the gorm-backed Wallet Port. Every mutation runs in a
// transaction that takes a row-level exclusive lock on the (user, currency)
// row, giving atomic read-modify-write semantics against all other callers.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

var (
	_ wallet.Port         = (*WalletRepository)(nil)
	_ wallet.LedgerWriter = (*WalletRepository)(nil)
)

// Debit removes amount from the user's balance and writes a ledger entry.
func (r *WalletRepository) Debit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error {
	return r.mutate(ctx, userID, currency, amount.Neg(), reason, false)
}

// Credit adds amount to the user's balance, creating the wallet row when
// missing, and writes a ledger entry.
func (r *WalletRepository) Credit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error {
	return r.mutate(ctx, userID, currency, amount, reason, true)
}

func (r *WalletRepository) mutate(ctx context.Context, userID uuid.UUID, currency string, delta decimal.Decimal, reason string, createMissing bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row WalletModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND currency = ?", userID, currency).
			First(&row).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if !createMissing {
				return wallet.ErrWalletNotFound
			}
			row = WalletModel{UserID: userID, Currency: currency, Balance: decimal.Zero}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		before := row.Balance
		after := before.Add(delta)
		if after.IsNegative() {
			return wallet.ErrInsufficientFunds
		}

		if err := tx.Model(&WalletModel{}).
			Where("user_id = ? AND currency = ?", userID, currency).
			Updates(map[string]any{"balance": after, "updated_at": time.Now()}).Error; err != nil {
			return err
		}

		return tx.Create(&LedgerModel{
			ID:            uuid.New(),
			UserID:        userID,
			Currency:      currency,
			Delta:         delta,
			Reason:        reason,
			BeforeBalance: before,
			AfterBalance:  after,
			CreatedAt:     time.Now(),
		}).Error
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) || errors.Is(err, wallet.ErrWalletNotFound) {
			return err
		}
		// anything else is an infrastructure failure, not a funds decision
		return fmt.Errorf("%w: %w", wallet.ErrUnavailable, err)
	}
	return nil
}

// Balance reads the current balance for (userID, currency).
func (r *WalletRepository) Balance(ctx context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error) {
	var row WalletModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, wallet.ErrWalletNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to read wallet: %w", err)
	}
	return row.Balance, nil
}

// WriteLedger persists a pre-built transition entry (used by admin tooling;
// the game path writes its entries inside mutate).
func (r *WalletRepository) WriteLedger(ctx context.Context, entry *wallet.LedgerEntry) error {
	err := r.db.WithContext(ctx).Create(&LedgerModel{
		ID:            uuid.New(),
		UserID:        entry.UserID,
		Currency:      entry.Currency,
		Delta:         entry.Delta,
		Reason:        entry.Reason,
		BeforeBalance: entry.BeforeBalance,
		AfterBalance:  entry.AfterBalance,
		CreatedAt:     entry.Timestamp,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return nil
}
