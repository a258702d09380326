package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettledBetModel is the durable record of a settled wager.
type SettledBetModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID       `gorm:"type:uuid;index"`
	Variant           string          `gorm:"size:16"`
	Currency          string          `gorm:"size:8"`
	Slot              int             ``
	Amount            decimal.Decimal `gorm:"type:numeric(20,8)"`
	Multiplier        float64         ``
	Payout            decimal.Decimal `gorm:"type:numeric(20,8)"`
	Profit            decimal.Decimal `gorm:"type:numeric(20,8)"`
	ServerSeed        string          `gorm:"size:128"`
	Commitment        string          `gorm:"size:128"`
	ClientSeed        string          `gorm:"size:128"`
	Nonce             int64           ``
	SequenceNumber    int64           `gorm:"index"`
	CrashPoint        float64         ``
	AutoCashoutTarget float64         ``
	CashedOutAt       float64         ``
	IsWin             bool            ``
	WalletFlagged     bool            `gorm:"index"`
	SettledAt         time.Time       ``
	CreatedAt         time.Time       ``
}

func (SettledBetModel) TableName() string { return "settled_bets" }

// WalletModel holds one (user, currency) balance row. Mutations take a
// row-level exclusive lock.
type WalletModel struct {
	UserID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Currency  string          `gorm:"size:8;primaryKey"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,8)"`
	UpdatedAt time.Time       ``
}

func (WalletModel) TableName() string { return "wallets" }

// LedgerModel records one wallet transition.
type LedgerModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;index"`
	Currency      string          `gorm:"size:8"`
	Delta         decimal.Decimal `gorm:"type:numeric(20,8)"`
	Reason        string          `gorm:"size:32"`
	BeforeBalance decimal.Decimal `gorm:"type:numeric(20,8)"`
	AfterBalance  decimal.Decimal `gorm:"type:numeric(20,8)"`
	CreatedAt     time.Time       ``
}

func (LedgerModel) TableName() string { return "wallet_ledger" }

// SeedSessionModel is a per-user provably-fair seed session. The server seed
// is AES-256-GCM encrypted; plaintext lives only in the cache.
type SeedSessionModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID `gorm:"type:uuid;index"`
	EncryptedServerSeed string    `gorm:"size:256"`
	Commitment          string    `gorm:"size:128"`
	ClientSeed          string    `gorm:"size:64"`
	Nonce               int64     ``
	Rotation            int64     ``
	Active              bool      `gorm:"index"`
	CreatedAt           time.Time ``
	UpdatedAt           time.Time ``
}

func (SeedSessionModel) TableName() string { return "seed_sessions" }

// AllModels is the migration set.
func AllModels() []any {
	return []any{
		&SettledBetModel{},
		&WalletModel{},
		&LedgerModel{},
		&SeedSessionModel{},
	}
}
