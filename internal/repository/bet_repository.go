package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crashgame/backend/domain/crash"
)

// BetRepository implements the persistence adapter contract for settled bets.
type BetRepository struct {
	db *gorm.DB
}

func NewBetRepository(db *gorm.DB) *BetRepository {
	return &BetRepository{db: db}
}

var _ crash.SettledBetWriter = (*BetRepository)(nil)

// CreateSettledBet writes the settled bet record.
func (r *BetRepository) CreateSettledBet(ctx context.Context, bet *crash.SettledBet) error {
	model := &SettledBetModel{
		ID:                bet.BetID,
		UserID:            bet.UserID,
		Variant:           bet.Variant,
		Currency:          bet.Currency,
		Slot:              bet.Slot,
		Amount:            bet.Amount,
		Multiplier:        bet.Multiplier,
		Payout:            bet.Payout,
		Profit:            bet.Profit,
		ServerSeed:        bet.ServerSeed,
		Commitment:        bet.Commitment,
		ClientSeed:        bet.ClientSeed,
		Nonce:             bet.Nonce,
		SequenceNumber:    bet.SequenceNumber,
		CrashPoint:        bet.CrashPoint,
		AutoCashoutTarget: bet.AutoCashoutTarget,
		CashedOutAt:       bet.CashedOutAt,
		IsWin:             bet.IsWin,
		WalletFlagged:     bet.WalletFlagged,
		SettledAt:         bet.SettledAt,
		CreatedAt:         time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create settled bet: %w", err)
	}
	return nil
}

// UpdatePendingBet patches fields of an already-written bet record.
func (r *BetRepository) UpdatePendingBet(ctx context.Context, betID uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&SettledBetModel{}).Where("id = ?", betID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update bet %s: %w", betID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bet %s not found", betID)
	}
	return nil
}
