//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/crashgame/backend/internal/config"
)

// InitializeApp assembles the full application graph from configuration.
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(
		ProvideLogger,
		ProvideDB,
		ProvideRedis,
		ProvideSeedSource,
		ProvideBus,
		ProvideWalletPort,
		ProvideBetWriter,
		ProvideSeedRepository,
		ProvideSeedCache,
		ProvideHistoryStore,
		ProvidePF,
		ProvideArchive,
		ProvideEngine,
		ProvideHub,
		ProvideGateway,
		ProvideServer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
