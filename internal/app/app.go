package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
	"github.com/crashgame/backend/domain/wallet"
	"github.com/crashgame/backend/internal/cache"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/game/bus"
	"github.com/crashgame/backend/internal/game/engine"
	"github.com/crashgame/backend/internal/game/rng"
	"github.com/crashgame/backend/internal/gateway"
	"github.com/crashgame/backend/internal/pkg/logger"
	"github.com/crashgame/backend/internal/repository"
	"github.com/crashgame/backend/internal/server"
	"github.com/crashgame/backend/internal/service"
	"github.com/crashgame/backend/internal/storage"
)

// App aggregates the wired process components.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Engine  *engine.Engine
	Gateway *gateway.Gateway
	Server  *server.Server
}

// ProvideLogger builds the process logger.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(cfg.Log.Level, cfg.Log.Pretty)
}

// ProvideDB opens the relational store and migrates the schema. A missing
// DSN disables durable persistence (dev mode) and yields a nil DB.
func ProvideDB(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn().Msg("DATABASE_DSN not set, running without durable persistence")
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(repository.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// ProvideRedis connects the cache client. A failed ping is logged, not
// fatal: every Redis consumer tolerates cache loss.
func ProvideRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable at startup")
	}
	return client
}

// ProvideSeedSource generates the process master seed.
func ProvideSeedSource() (*rng.SeedSource, error) {
	return rng.NewSeedSource()
}

// ProvideBus builds the in-process event bus.
func ProvideBus() crash.Bus {
	return bus.New()
}

// ProvideWalletPort selects the database-backed wallet, falling back to the
// in-memory wallet in dev mode.
func ProvideWalletPort(db *gorm.DB, log *logger.Logger) wallet.Port {
	if db == nil {
		log.Warn().Msg("Using in-memory wallet")
		return service.NewMemoryWallet()
	}
	return repository.NewWalletRepository(db)
}

// ProvideBetWriter builds the settled-bet persistence adapter, nil in dev
// mode.
func ProvideBetWriter(db *gorm.DB) crash.SettledBetWriter {
	if db == nil {
		return nil
	}
	return repository.NewBetRepository(db)
}

// ProvideSeedRepository builds the seed-session store. Dev mode keeps
// sessions only in Redis.
func ProvideSeedRepository(db *gorm.DB) provablyfair.Repository {
	if db == nil {
		return newMemorySeedRepository()
	}
	return repository.NewSeedRepository(db)
}

// ProvideSeedCache builds the Redis seed-state cache.
func ProvideSeedCache(client *redis.Client) provablyfair.CacheRepository {
	return cache.NewSeedCache(client)
}

// ProvideHistoryStore builds the Redis crash-history mirror.
func ProvideHistoryStore(client *redis.Client) crash.HistoryStore {
	return cache.NewHistoryCache(client)
}

// ProvidePF builds the provably-fair service.
func ProvidePF(
	repo provablyfair.Repository,
	cacheRepo provablyfair.CacheRepository,
	seeds *rng.SeedSource,
	cfg *config.Config,
	log *logger.Logger,
) (provablyfair.Service, error) {
	return service.NewProvablyFairService(repo, cacheRepo, seeds, cfg, log)
}

// ProvideArchive builds the round-audit archiver; nil when disabled.
func ProvideArchive(cfg *config.Config, log *logger.Logger) (crash.RoundArchive, error) {
	archiver, err := storage.NewArchiver(cfg, log)
	if err != nil {
		return nil, err
	}
	if archiver == nil {
		return nil, nil
	}
	return archiver, nil
}

// ProvideEngine wires the round actor.
func ProvideEngine(
	cfg *config.Config,
	seeds *rng.SeedSource,
	walletPort wallet.Port,
	eventBus crash.Bus,
	pf provablyfair.Service,
	writer crash.SettledBetWriter,
	archive crash.RoundArchive,
	historyStore crash.HistoryStore,
	log *logger.Logger,
) *engine.Engine {
	return engine.New(cfg.Game, seeds, walletPort, eventBus, pf, writer, archive, historyStore, log)
}

// ProvideHub builds the socket registry.
func ProvideHub() *gateway.Hub {
	return gateway.NewHub()
}

// ProvideGateway wires the socket gateway.
func ProvideGateway(cfg *config.Config, eng *engine.Engine, pf provablyfair.Service, eventBus crash.Bus, hub *gateway.Hub, log *logger.Logger) *gateway.Gateway {
	return gateway.New(cfg, eng, pf, eventBus, hub, log)
}

// ProvideServer wires the fiber app.
func ProvideServer(cfg *config.Config, gw *gateway.Gateway, pf provablyfair.Service, eng *engine.Engine, log *logger.Logger) *server.Server {
	return server.New(cfg, gw, pf, eng, log)
}
