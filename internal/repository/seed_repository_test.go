package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/provablyfair"
)

func mkSession(userID uuid.UUID) *provablyfair.Session {
	return &provablyfair.Session{
		ID:                  uuid.New(),
		UserID:              userID,
		EncryptedServerSeed: "ciphertext",
		Commitment:          "commitment-hash",
		ClientSeed:          "client-seed",
		Nonce:               0,
		Rotation:            0,
		CreatedAt:           time.Now().UTC(),
	}
}

func TestSeedSessionRoundTrip(t *testing.T) {
	repo := NewSeedRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()

	_, err := repo.GetActiveSessionByUser(ctx, user)
	assert.ErrorIs(t, err, provablyfair.ErrSessionNotFound)

	s := mkSession(user)
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "ciphertext", got.EncryptedServerSeed)
	assert.Equal(t, "client-seed", got.ClientSeed)
}

func TestCreateSessionRetiresPrevious(t *testing.T) {
	repo := NewSeedRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()

	first := mkSession(user)
	require.NoError(t, repo.CreateSession(ctx, first))
	second := mkSession(user)
	second.Commitment = "second-commitment"
	require.NoError(t, repo.CreateSession(ctx, second))

	got, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID, "only the latest session stays active")
	assert.Equal(t, "second-commitment", got.Commitment)
}

func TestUpdateSession(t *testing.T) {
	repo := NewSeedRepository(testDB(t))
	ctx := context.Background()
	user := uuid.New()

	s := mkSession(user)
	require.NoError(t, repo.CreateSession(ctx, s))

	s.Nonce = 9
	s.Rotation = 2
	s.ClientSeed = "new-client-seed"
	require.NoError(t, repo.UpdateSession(ctx, s))

	got, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Nonce)
	assert.Equal(t, int64(2), got.Rotation)
	assert.Equal(t, "new-client-seed", got.ClientSeed)
}
