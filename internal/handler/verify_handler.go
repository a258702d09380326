package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
)

// VerifyHandler exposes the stateless verification oracle and the crash
// history over plain HTTP, for players checking fairness outside a socket.
type VerifyHandler struct {
	pf     provablyfair.Service
	engine crash.Engine
}

func NewVerifyHandler(pf provablyfair.Service, eng crash.Engine) *VerifyHandler {
	return &VerifyHandler{pf: pf, engine: eng}
}

// Verify recomputes a crash point from caller-supplied seed material.
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	var in provablyfair.VerifyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "BAD_REQUEST",
		})
	}
	res, err := h.pf.Verify(c.Context(), in)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   crash.CodeOf(err),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}

// History returns the crash-history ring, most recent first.
func (h *VerifyHandler) History(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.engine.History()})
}
