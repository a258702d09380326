package provablyfair

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Variant identifies which derivation the verifier should replay.
type Variant string

const (
	VariantSingle Variant = "crash"
	VariantDual   Variant = "dragon"
)

// Sentinel errors.
var (
	ErrSessionNotFound = errors.New("seed session not found")
)

// Service exposes the per-user seed lifecycle and the stateless verification
// oracle.
type Service interface {
	// SeedInfo returns the user's active commitment and nonce, creating a
	// fresh session when none exists.
	SeedInfo(ctx context.Context, userID uuid.UUID) (*SeedInfo, error)

	// SetClientSeed overrides the user's client seed. The seed must be
	// 1-64 characters.
	SetClientSeed(ctx context.Context, userID uuid.UUID, clientSeed string) error

	// RotateSeed reveals the user's current server seed, derives a fresh one
	// and resets the nonce to zero.
	RotateSeed(ctx context.Context, userID uuid.UUID) (*RotateResult, error)

	// BumpNonce advances the user's nonce after a wager and returns the seed
	// material the wager was bound to.
	BumpNonce(ctx context.Context, userID uuid.UUID) (*SeedInfo, error)

	// Verify recomputes a crash point from caller-supplied seed material.
	// Stateless: no per-user state is read or written. When in.Commitment is
	// non-empty the seed is asserted against it before the output is trusted.
	Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error)
}

// SeedInfo is the public slice of a user's seed session.
type SeedInfo struct {
	UserID     uuid.UUID `json:"userId"`
	ServerSeed string    `json:"-"` // never serialized while active
	Commitment string    `json:"commitment"`
	ClientSeed string    `json:"clientSeed"`
	Nonce      int64     `json:"nonce"`
}

// RotateResult reveals the retired seed and commits to the next one.
type RotateResult struct {
	PreviousSeed       string `json:"previousSeed"`
	PreviousCommitment string `json:"previousCommitment"`
	PreviousNonce      int64  `json:"previousNonce"`
	NewCommitment      string `json:"newCommitment"`
}

// VerifyInput is the stateless verification request.
type VerifyInput struct {
	ServerSeed string  `json:"serverSeed"`
	ClientSeed string  `json:"clientSeed"`
	Nonce      int64   `json:"nonce"`
	Variant    Variant `json:"variant"`
	Commitment string  `json:"commitment,omitempty"`
}

// VerifyResult is the recomputed outcome.
type VerifyResult struct {
	CrashPoints []float64 `json:"crashPoints"`
	Commitment  string    `json:"commitment"`
}

// Session is the stored per-user seed state. The server seed is AES-encrypted
// at rest; plaintext lives only in the cache and in memory.
type Session struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	EncryptedServerSeed string
	Commitment          string
	ClientSeed          string
	Nonce               int64
	Rotation            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SessionState is the cached (plaintext) counterpart of Session.
type SessionState struct {
	SessionID  uuid.UUID `json:"sessionId"`
	UserID     uuid.UUID `json:"userId"`
	ServerSeed string    `json:"serverSeed"`
	Commitment string    `json:"commitment"`
	ClientSeed string    `json:"clientSeed"`
	Nonce      int64     `json:"nonce"`
	Rotation   int64     `json:"rotation"`
}

// Repository is the durable store for seed sessions.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
}

// CacheRepository is the fast-path store for seed session state.
type CacheRepository interface {
	GetSessionState(ctx context.Context, userID uuid.UUID) (*SessionState, error)
	SetSessionState(ctx context.Context, state *SessionState) error
	DeleteSessionState(ctx context.Context, userID uuid.UUID) error
}
