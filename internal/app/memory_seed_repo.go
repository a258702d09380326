package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/crashgame/backend/domain/provablyfair"
)

// memorySeedRepository keeps seed sessions in process memory. Used only in
// dev mode, when no database is configured.
type memorySeedRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*provablyfair.Session
}

func newMemorySeedRepository() *memorySeedRepository {
	return &memorySeedRepository{sessions: make(map[uuid.UUID]*provablyfair.Session)}
}

var _ provablyfair.Repository = (*memorySeedRepository)(nil)

func (r *memorySeedRepository) CreateSession(_ context.Context, s *provablyfair.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.UserID] = &cp
	return nil
}

func (r *memorySeedRepository) GetActiveSessionByUser(_ context.Context, userID uuid.UUID) (*provablyfair.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, provablyfair.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memorySeedRepository) UpdateSession(ctx context.Context, s *provablyfair.Session) error {
	return r.CreateSession(ctx, s)
}
