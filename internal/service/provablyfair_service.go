package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/game/rng"
	"github.com/crashgame/backend/internal/pkg/crypto"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// ProvablyFairService implements the per-user seed lifecycle and the
// stateless verification oracle.
type ProvablyFairService struct {
	repo      provablyfair.Repository
	cache     provablyfair.CacheRepository
	seeds     *rng.SeedSource
	encryptor *crypto.AESEncryptor
	params    rng.CrashPointParams
	verifyLRU *ristretto.Cache[string, []float64]
	logger    *logger.Logger
}

// NewProvablyFairService wires the service. The verify memoization cache is
// best-effort; a construction failure there is fatal since it signals bad
// limits, not a runtime condition.
func NewProvablyFairService(
	repo provablyfair.Repository,
	cache provablyfair.CacheRepository,
	seeds *rng.SeedSource,
	cfg *config.Config,
	log *logger.Logger,
) (provablyfair.Service, error) {
	encryptor, err := crypto.NewAESEncryptor(cfg.ProvablyFair.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES encryptor: %w", err)
	}
	lru, err := ristretto.NewCache(&ristretto.Config[string, []float64]{
		NumCounters: 1e5,
		MaxCost:     1 << 22,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create verify cache: %w", err)
	}
	return &ProvablyFairService{
		repo:      repo,
		cache:     cache,
		seeds:     seeds,
		encryptor: encryptor,
		params: rng.CrashPointParams{
			HouseEdge:     cfg.Game.HouseEdge,
			MaxCrashPoint: cfg.Game.MaxCrashPoint,
		},
		verifyLRU: lru,
		logger:    log,
	}, nil
}

var _ provablyfair.Service = (*ProvablyFairService)(nil)

// SeedInfo returns the user's active commitment and nonce, creating a fresh
// session when none exists.
func (s *ProvablyFairService) SeedInfo(ctx context.Context, userID uuid.UUID) (*provablyfair.SeedInfo, error) {
	state, err := s.sessionState(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &provablyfair.SeedInfo{
		UserID:     userID,
		ServerSeed: state.ServerSeed,
		Commitment: state.Commitment,
		ClientSeed: state.ClientSeed,
		Nonce:      state.Nonce,
	}, nil
}

// SetClientSeed overrides the user's client seed. Rejects seeds outside the
// 1-64 character range.
func (s *ProvablyFairService) SetClientSeed(ctx context.Context, userID uuid.UUID, clientSeed string) error {
	if len(clientSeed) < 1 || len(clientSeed) > 64 {
		return crash.ErrInvalidSeedLength
	}
	state, err := s.sessionState(ctx, userID)
	if err != nil {
		return err
	}
	state.ClientSeed = clientSeed
	if err := s.persistState(ctx, state); err != nil {
		return err
	}
	s.logger.WithTraceContext(ctx).Info().
		Str("user_id", userID.String()).
		Msg("Client seed updated")
	return nil
}

// RotateSeed reveals the user's current server seed, derives a fresh one via
// HKDF with a bumped rotation counter, and resets the nonce to zero.
func (s *ProvablyFairService) RotateSeed(ctx context.Context, userID uuid.UUID) (*provablyfair.RotateResult, error) {
	log := s.logger.WithTraceContext(ctx)

	state, err := s.sessionState(ctx, userID)
	if err != nil {
		return nil, err
	}

	previousSeed := state.ServerSeed
	previousCommitment := state.Commitment
	previousNonce := state.Nonce

	newRotation := state.Rotation + 1
	newSeed, err := s.seeds.UserSeed(userID, newRotation)
	if err != nil {
		return nil, fmt.Errorf("failed to derive rotated seed: %w", err)
	}

	state.ServerSeed = newSeed
	state.Commitment = rng.Commitment(newSeed)
	state.Nonce = 0
	state.Rotation = newRotation
	if err := s.persistState(ctx, state); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("rotation", newRotation).
		Int64("previous_nonce", previousNonce).
		Msg("Server seed rotated and revealed")

	return &provablyfair.RotateResult{
		PreviousSeed:       previousSeed,
		PreviousCommitment: previousCommitment,
		PreviousNonce:      previousNonce,
		NewCommitment:      state.Commitment,
	}, nil
}

// BumpNonce advances the user's nonce after a wager and returns the bound
// seed material.
func (s *ProvablyFairService) BumpNonce(ctx context.Context, userID uuid.UUID) (*provablyfair.SeedInfo, error) {
	state, err := s.sessionState(ctx, userID)
	if err != nil {
		return nil, err
	}
	state.Nonce++
	if err := s.persistState(ctx, state); err != nil {
		return nil, err
	}
	return &provablyfair.SeedInfo{
		UserID:     userID,
		ServerSeed: state.ServerSeed,
		Commitment: state.Commitment,
		ClientSeed: state.ClientSeed,
		Nonce:      state.Nonce,
	}, nil
}

// Verify recomputes crash points from caller-supplied seed material. No
// per-user state is touched. When in.Commitment is set, the seed is asserted
// against it before the output is trusted.
func (s *ProvablyFairService) Verify(_ context.Context, in provablyfair.VerifyInput) (*provablyfair.VerifyResult, error) {
	var tags []string
	switch in.Variant {
	case provablyfair.VariantSingle:
		tags = []string{""}
	case provablyfair.VariantDual:
		tags = []string{"", rng.Dragon2Tag}
	default:
		return nil, crash.ErrInvalidVariant
	}

	commitment := rng.Commitment(in.ServerSeed)
	if in.Commitment != "" && in.Commitment != commitment {
		return nil, crash.ErrCommitmentMismatch
	}

	cacheKey := fmt.Sprintf("%s|%s|%d|%s", in.ServerSeed, in.ClientSeed, in.Nonce, in.Variant)
	if points, ok := s.verifyLRU.Get(cacheKey); ok {
		return &provablyfair.VerifyResult{CrashPoints: points, Commitment: commitment}, nil
	}

	points := make([]float64, len(tags))
	for i, tag := range tags {
		points[i] = rng.CrashPoint(in.ServerSeed, in.ClientSeed, in.Nonce, tag, s.params)
	}
	s.verifyLRU.Set(cacheKey, points, int64(len(cacheKey)))

	return &provablyfair.VerifyResult{CrashPoints: points, Commitment: commitment}, nil
}

// sessionState loads the user's session from cache, recovering from the
// encrypted DB copy when the cache misses, and creating a fresh session when
// none exists at all.
func (s *ProvablyFairService) sessionState(ctx context.Context, userID uuid.UUID) (*provablyfair.SessionState, error) {
	log := s.logger.WithTraceContext(ctx)

	if s.cache != nil {
		state, err := s.cache.GetSessionState(ctx, userID)
		if err == nil && state != nil {
			return state, nil
		}
	}

	session, err := s.repo.GetActiveSessionByUser(ctx, userID)
	if err == nil {
		serverSeed, derr := s.encryptor.Decrypt(session.EncryptedServerSeed)
		if derr != nil {
			log.Error().Err(derr).Str("user_id", userID.String()).Msg("Failed to decrypt server seed from DB")
			return nil, fmt.Errorf("failed to recover server seed: %w", derr)
		}
		state := &provablyfair.SessionState{
			SessionID:  session.ID,
			UserID:     session.UserID,
			ServerSeed: serverSeed,
			Commitment: session.Commitment,
			ClientSeed: session.ClientSeed,
			Nonce:      session.Nonce,
			Rotation:   session.Rotation,
		}
		s.recache(ctx, state)
		return state, nil
	}
	if err != provablyfair.ErrSessionNotFound {
		return nil, err
	}

	return s.createSession(ctx, userID)
}

func (s *ProvablyFairService) createSession(ctx context.Context, userID uuid.UUID) (*provablyfair.SessionState, error) {
	log := s.logger.WithTraceContext(ctx)

	serverSeed, err := s.seeds.UserSeed(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user seed: %w", err)
	}
	clientSeed, err := s.seeds.RandomClientSeed()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client seed: %w", err)
	}
	encrypted, err := s.encryptor.Encrypt(serverSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt server seed: %w", err)
	}

	session := &provablyfair.Session{
		ID:                  uuid.New(),
		UserID:              userID,
		EncryptedServerSeed: encrypted,
		Commitment:          rng.Commitment(serverSeed),
		ClientSeed:          clientSeed,
		Nonce:               0,
		Rotation:            0,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create seed session: %w", err)
	}

	state := &provablyfair.SessionState{
		SessionID:  session.ID,
		UserID:     userID,
		ServerSeed: serverSeed,
		Commitment: session.Commitment,
		ClientSeed: clientSeed,
		Nonce:      0,
		Rotation:   0,
	}
	s.recache(ctx, state)

	log.Info().
		Str("user_id", userID.String()).
		Str("commitment", session.Commitment).
		Msg("Seed session created")
	return state, nil
}

// persistState writes through to both the encrypted DB copy and the cache.
func (s *ProvablyFairService) persistState(ctx context.Context, state *provablyfair.SessionState) error {
	encrypted, err := s.encryptor.Encrypt(state.ServerSeed)
	if err != nil {
		return fmt.Errorf("failed to encrypt server seed: %w", err)
	}
	session, err := s.repo.GetActiveSessionByUser(ctx, state.UserID)
	if err != nil {
		return err
	}
	session.EncryptedServerSeed = encrypted
	session.Commitment = state.Commitment
	session.ClientSeed = state.ClientSeed
	session.Nonce = state.Nonce
	session.Rotation = state.Rotation
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return err
	}
	s.recache(ctx, state)
	return nil
}

func (s *ProvablyFairService) recache(ctx context.Context, state *provablyfair.SessionState) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSessionState(ctx, state); err != nil {
		s.logger.WithTraceContext(ctx).Warn().Err(err).Msg("Failed to cache seed session state")
	}
}
