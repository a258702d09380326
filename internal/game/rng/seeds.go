package rng

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// SeedSource owns the process master seed and derives every other seed in
// the system from it. It is mutated only at construction.
type SeedSource struct {
	masterSeed string
	cryptoRNG  *CryptoRNG
}

// NewSeedSource generates a fresh high-entropy master seed.
func NewSeedSource() (*SeedSource, error) {
	rng := NewCryptoRNG()
	buf := make([]byte, 32)
	if err := rng.Bytes(buf); err != nil {
		return nil, fmt.Errorf("failed to generate master seed: %w", err)
	}
	return &SeedSource{
		masterSeed: hex.EncodeToString(buf),
		cryptoRNG:  rng,
	}, nil
}

// NewSeedSourceFrom builds a SeedSource from a known master seed. Used by
// tests and replay tooling.
func NewSeedSourceFrom(masterSeed string) *SeedSource {
	return &SeedSource{masterSeed: masterSeed, cryptoRNG: NewCryptoRNG()}
}

// MasterSeed exposes the process master seed for replay tooling.
func (s *SeedSource) MasterSeed() string { return s.masterSeed }

// RoundSeed derives the server seed for the given round sequence number.
func (s *SeedSource) RoundSeed(sequenceNumber int64) string {
	return RoundSeed(s.masterSeed, sequenceNumber)
}

// UserSeed derives a per-user server seed via HKDF-SHA256 keyed on the
// master seed, with the user id and rotation counter as the info string.
// Each rotation yields an independent seed without storing extra entropy.
func (s *SeedSource) UserSeed(userID uuid.UUID, rotation int64) (string, error) {
	info := []byte("user:" + userID.String() + ":" + strconv.FormatInt(rotation, 10))
	kr := hkdf.New(sha256.New, []byte(s.masterSeed), nil, info)
	buf := make([]byte, 32)
	if _, err := io.ReadFull(kr, buf); err != nil {
		return "", fmt.Errorf("failed to derive user seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RandomClientSeed generates a fallback client seed when the user has not
// set one.
func (s *SeedSource) RandomClientSeed() (string, error) {
	buf := make([]byte, 16)
	if err := s.cryptoRNG.Bytes(buf); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
