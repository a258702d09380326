package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// ObjectWriter is the minimal surface the archiver needs from a storage
// backend.
type ObjectWriter interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Archiver serializes revealed round records and uploads them for audit.
type Archiver struct {
	writer ObjectWriter
	log    *logger.Logger
}

// NewArchiver selects the backend from configuration. Returns (nil, nil)
// when archiving is disabled.
func NewArchiver(cfg *config.Config, log *logger.Logger) (*Archiver, error) {
	var writer ObjectWriter
	var err error
	switch cfg.Archive.Backend {
	case "":
		return nil, nil
	case "gcs":
		writer, err = newGCSWriter(cfg.Archive)
	case "minio":
		writer, err = newMinioWriter(cfg.Archive)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &Archiver{writer: writer, log: log}, nil
}

var _ crash.RoundArchive = (*Archiver)(nil)

type archivedBet struct {
	BetID             string          `json:"betId"`
	UserID            string          `json:"userId"`
	Slot              int             `json:"slot"`
	Amount            decimal.Decimal `json:"amount"`
	Multiplier        float64         `json:"multiplier,omitempty"`
	Payout            decimal.Decimal `json:"payout"`
	Profit            decimal.Decimal `json:"profit"`
	AutoCashoutTarget float64         `json:"autoCashoutTarget,omitempty"`
	IsWin             bool            `json:"isWin"`
	WalletFlagged     bool            `json:"walletFlagged,omitempty"`
}

type archivedRound struct {
	SequenceNumber int64         `json:"sequenceNumber"`
	CrashPoints    []float64     `json:"crashPoints"`
	Commitment     string        `json:"commitment"`
	ServerSeed     string        `json:"serverSeed"`
	CrashedAt      time.Time     `json:"crashedAt"`
	Bets           []archivedBet `json:"bets"`
}

// ArchiveRound uploads the full revealed round record.
func (a *Archiver) ArchiveRound(ctx context.Context, entry crash.HistoryEntry, bets []crash.SettledBet) error {
	rec := archivedRound{
		SequenceNumber: entry.SequenceNumber,
		CrashPoints:    entry.CrashPoints,
		Commitment:     entry.Commitment,
		ServerSeed:     entry.ServerSeed,
		CrashedAt:      entry.CrashedAt,
	}
	for _, b := range bets {
		rec.Bets = append(rec.Bets, archivedBet{
			BetID:             b.BetID.String(),
			UserID:            b.UserID.String(),
			Slot:              b.Slot,
			Amount:            b.Amount,
			Multiplier:        b.Multiplier,
			Payout:            b.Payout,
			Profit:            b.Profit,
			AutoCashoutTarget: b.AutoCashoutTarget,
			IsWin:             b.IsWin,
			WalletFlagged:     b.WalletFlagged,
		})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode round archive: %w", err)
	}
	key := fmt.Sprintf("rounds/%s/%d.json", entry.CrashedAt.UTC().Format("2006-01-02"), entry.SequenceNumber)
	if err := a.writer.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to upload round archive: %w", err)
	}
	return nil
}
