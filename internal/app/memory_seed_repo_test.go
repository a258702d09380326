package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/provablyfair"
)

func TestMemorySeedRepositoryRoundTrip(t *testing.T) {
	repo := newMemorySeedRepository()
	ctx := context.Background()
	user := uuid.New()

	_, err := repo.GetActiveSessionByUser(ctx, user)
	assert.ErrorIs(t, err, provablyfair.ErrSessionNotFound)

	session := &provablyfair.Session{
		ID:         uuid.New(),
		UserID:     user,
		Commitment: "commitment-a",
		ClientSeed: "client-a",
	}
	require.NoError(t, repo.CreateSession(ctx, session))

	got, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "commitment-a", got.Commitment)

	// the repository hands out copies, not aliases of its own state
	got.Nonce = 99
	again, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Nonce)
}

func TestMemorySeedRepositoryUpdateSession(t *testing.T) {
	repo := newMemorySeedRepository()
	ctx := context.Background()
	user := uuid.New()

	session := &provablyfair.Session{ID: uuid.New(), UserID: user, ClientSeed: "client-a"}
	require.NoError(t, repo.CreateSession(ctx, session))

	session.Nonce = 3
	session.ClientSeed = "client-b"
	require.NoError(t, repo.UpdateSession(ctx, session))

	got, err := repo.GetActiveSessionByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Nonce)
	assert.Equal(t, "client-b", got.ClientSeed)
}
