package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/crashgame/backend/internal/app"
	"github.com/crashgame/backend/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	application, err := app.InitializeApp(cfg)
	if err != nil {
		os.Stderr.WriteString("init: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := application.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Engine.Run(gctx)
	})
	g.Go(func() error {
		return application.Gateway.Run(gctx)
	})
	g.Go(func() error {
		return application.Server.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		return application.Server.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}
