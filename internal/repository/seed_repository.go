package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crashgame/backend/domain/provablyfair"
)

// SeedRepository stores per-user provably-fair seed sessions.
type SeedRepository struct {
	db *gorm.DB
}

func NewSeedRepository(db *gorm.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

var _ provablyfair.Repository = (*SeedRepository)(nil)

func (r *SeedRepository) CreateSession(ctx context.Context, s *provablyfair.Session) error {
	// a new active session retires any previous one for the user
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&SeedSessionModel{}).
			Where("user_id = ? AND active = ?", s.UserID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(&SeedSessionModel{
			ID:                  s.ID,
			UserID:              s.UserID,
			EncryptedServerSeed: s.EncryptedServerSeed,
			Commitment:          s.Commitment,
			ClientSeed:          s.ClientSeed,
			Nonce:               s.Nonce,
			Rotation:            s.Rotation,
			Active:              true,
			CreatedAt:           s.CreatedAt,
			UpdatedAt:           time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create seed session: %w", err)
	}
	return nil
}

func (r *SeedRepository) GetActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*provablyfair.Session, error) {
	var model SeedSessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, provablyfair.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load seed session: %w", err)
	}
	return &provablyfair.Session{
		ID:                  model.ID,
		UserID:              model.UserID,
		EncryptedServerSeed: model.EncryptedServerSeed,
		Commitment:          model.Commitment,
		ClientSeed:          model.ClientSeed,
		Nonce:               model.Nonce,
		Rotation:            model.Rotation,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}, nil
}

func (r *SeedRepository) UpdateSession(ctx context.Context, s *provablyfair.Session) error {
	err := r.db.WithContext(ctx).Model(&SeedSessionModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"encrypted_server_seed": s.EncryptedServerSeed,
			"commitment":            s.Commitment,
			"client_seed":           s.ClientSeed,
			"nonce":                 s.Nonce,
			"rotation":              s.Rotation,
			"updated_at":            time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update seed session: %w", err)
	}
	return nil
}
