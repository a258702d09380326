package server

import (
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/gateway"
	"github.com/crashgame/backend/internal/handler"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// Server is the fiber app hosting the websocket endpoint and the stateless
// verification REST surface.
type Server struct {
	cfg *config.Config
	app *fiber.App
	log *logger.Logger
}

func New(cfg *config.Config, gw *gateway.Gateway, pf provablyfair.Service, eng crash.Engine, log *logger.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "crashgame",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	verifyHandler := handler.NewVerifyHandler(pf, eng)
	api := app.Group("/api/v1")
	api.Post("/verify", verifyHandler.Verify)
	api.Get("/history", verifyHandler.History)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(gw.HandleConn))

	return &Server{cfg: cfg, app: app, log: log}
}

// Listen blocks serving until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the app.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
