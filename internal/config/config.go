package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Game         GameConfig
	ProvablyFair ProvablyFairConfig
	Archive      ArchiveConfig
	Log          LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// GameConfig carries the recognised round-loop options and their defaults.
type GameConfig struct {
	HouseEdge     float64
	WaitingMs     time.Duration
	CrashedMs     time.Duration
	TickMs        time.Duration
	MinBet        float64
	MaxBet        float64
	MaxCrashPoint float64
	BetCooldownMs time.Duration
	MaxHistory    int
	CurveCount    int
	Currency      string
	ClientSeed    string
}

type ProvablyFairConfig struct {
	EncryptionKey     string
	DefaultClientSeed string
}

// ArchiveConfig selects the round-audit object-storage backend.
// Backend is "gcs", "minio" or "" (archiving disabled).
type ArchiveConfig struct {
	Backend         string
	Bucket          string
	GCSCredentials  string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from the environment, applying defaults for
// everything optional.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: envStr("SERVER_HOST", "0.0.0.0"),
			Port: envInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			DSN: envStr("DATABASE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     envStr("REDIS_ADDR", "localhost:6379"),
			Password: envStr("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: envStr("JWT_SECRET", ""),
			Issuer: envStr("JWT_ISSUER", "crashgame"),
		},
		Game: GameConfig{
			HouseEdge:     envFloat("GAME_HOUSE_EDGE", 0.04),
			WaitingMs:     time.Duration(envInt("GAME_WAITING_MS", 10000)) * time.Millisecond,
			CrashedMs:     time.Duration(envInt("GAME_CRASHED_MS", 3000)) * time.Millisecond,
			TickMs:        time.Duration(envInt("GAME_TICK_MS", 100)) * time.Millisecond,
			MinBet:        envFloat("GAME_MIN_BET", 0.10),
			MaxBet:        envFloat("GAME_MAX_BET", 10000),
			MaxCrashPoint: envFloat("GAME_MAX_CRASH_POINT", 5000.00),
			BetCooldownMs: time.Duration(envInt("GAME_BET_COOLDOWN_MS", 500)) * time.Millisecond,
			MaxHistory:    envInt("GAME_MAX_HISTORY", 20),
			CurveCount:    envInt("GAME_CURVE_COUNT", 1),
			Currency:      envStr("GAME_CURRENCY", "USD"),
			ClientSeed:    envStr("GAME_CLIENT_SEED", "crashgame-default"),
		},
		ProvablyFair: ProvablyFairConfig{
			EncryptionKey:     envStr("PF_ENCRYPTION_KEY", ""),
			DefaultClientSeed: envStr("PF_DEFAULT_CLIENT_SEED", "crashgame-default"),
		},
		Archive: ArchiveConfig{
			Backend:        envStr("ARCHIVE_BACKEND", ""),
			Bucket:         envStr("ARCHIVE_BUCKET", "round-audits"),
			GCSCredentials: envStr("ARCHIVE_GCS_CREDENTIALS", ""),
			MinioEndpoint:  envStr("ARCHIVE_MINIO_ENDPOINT", ""),
			MinioAccessKey: envStr("ARCHIVE_MINIO_ACCESS_KEY", ""),
			MinioSecretKey: envStr("ARCHIVE_MINIO_SECRET_KEY", ""),
			MinioUseSSL:    envBool("ARCHIVE_MINIO_USE_SSL", true),
		},
		Log: LogConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Pretty: envBool("LOG_PRETTY", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Game.HouseEdge < 0 || c.Game.HouseEdge > 0.5 {
		return fmt.Errorf("GAME_HOUSE_EDGE must be in [0.0, 0.5], got %v", c.Game.HouseEdge)
	}
	if c.Game.CurveCount != 1 && c.Game.CurveCount != 2 {
		return fmt.Errorf("GAME_CURVE_COUNT must be 1 or 2, got %d", c.Game.CurveCount)
	}
	if c.Game.TickMs <= 0 {
		return fmt.Errorf("GAME_TICK_MS must be positive")
	}
	if c.Game.MinBet <= 0 || c.Game.MaxBet < c.Game.MinBet {
		return fmt.Errorf("invalid bet bounds: min=%v max=%v", c.Game.MinBet, c.Game.MaxBet)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
