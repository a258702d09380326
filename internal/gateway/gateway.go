package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/game/engine"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// maxChatBytes caps chat_send payloads.
const maxChatBytes = 200

// Gateway is the socket endpoint: it authenticates handshakes, maps sockets
// to users, translates bus events to wire messages, and dispatches inbound
// operations to the engine and the provably-fair service.
type Gateway struct {
	cfg    *config.Config
	engine crash.Engine
	pf     provablyfair.Service
	bus    crash.Bus
	hub    *Hub
	log    *logger.Logger
}

func New(cfg *config.Config, eng crash.Engine, pf provablyfair.Service, eventBus crash.Bus, hub *Hub, log *logger.Logger) *Gateway {
	return &Gateway{cfg: cfg, engine: eng, pf: pf, bus: eventBus, hub: hub, log: log}
}

// Run pumps bus events to the connected sockets until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	events, unsub := g.bus.Subscribe(1024)
	defer unsub()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.fanOut(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Gateway) fanOut(ev crash.Event) {
	switch ev.Type {
	case crash.EventStateChange:
		g.hub.Broadcast(stateChangeWire(ev.StateChange))
	case crash.EventTick:
		g.hub.Broadcast(tickWire(ev.Tick))
	case crash.EventBetPlaced:
		g.hub.Broadcast(betPlacedWire(ev.BetPlaced))
	case crash.EventCashout:
		g.hub.Broadcast(cashoutWire(ev.Cashout))
	case crash.EventCurveCrashed:
		g.hub.Broadcast(curveCrashedWire(ev.CurveCrashed))
	case crash.EventCrashed:
		g.hub.Broadcast(crashedWire(ev.Crashed))
	case crash.EventBalanceUpdate:
		// private: only the owning user's primary socket
		g.hub.SendToUser(ev.BalanceUpdate.UserID, balanceUpdateWire(ev.BalanceUpdate))
	}
}

// HandleConn owns one socket for its lifetime. A bearer token in the
// handshake query attaches identity; a bad token downgrades to GUEST with a
// notice but never drops the connection.
func (g *Gateway) HandleConn(conn *websocket.Conn) {
	c := newClient(conn)
	g.hub.add(c)
	go c.writePump()
	defer g.hub.remove(c)

	if token := conn.Query("token"); token != "" {
		g.authenticate(c, token)
	}

	// on-connect snapshot: current round view plus the crash history ring
	view := g.engine.CurrentView()
	c.enqueue(stateChangeWire(&crash.StateChangeEvent{State: view.State, View: view}))
	c.enqueue(eventMsg("history", g.engine.History()))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(errorMsg("message", &crash.Error{Code: "BAD_MESSAGE"}))
			continue
		}
		g.dispatch(c, msg)
	}
}

func (g *Gateway) authenticate(c *Client, token string) {
	userID, role, err := validateToken(g.cfg.JWT, token)
	if err != nil {
		g.log.Warn().Err(err).Msg("Handshake auth failed, continuing as guest")
		c.enqueue(eventMsg("auth_failure", map[string]string{"reason": "invalid token"}))
		return
	}
	c.setIdentity(userID, role)
	g.hub.bindUser(userID, c)
	c.enqueue(resultMsg("authenticate", map[string]string{
		"userId": userID.String(),
		"role":   string(role),
	}))
}

func (g *Gateway) dispatch(c *Client, msg inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Type {
	case "authenticate":
		g.authenticate(c, msg.Token)

	case "place_bet":
		g.handlePlaceBet(ctx, c, msg)

	case "cashout":
		g.handleCashout(ctx, c, msg)

	case "set_client_seed":
		userID, ok := g.requireAuth(c, msg.Type)
		if !ok {
			return
		}
		if err := g.pf.SetClientSeed(ctx, userID, msg.ClientSeed); err != nil {
			c.enqueue(errorMsg(msg.Type, err))
			return
		}
		c.enqueue(resultMsg(msg.Type, map[string]string{"clientSeed": msg.ClientSeed}))

	case "rotate_seed":
		userID, ok := g.requireAuth(c, msg.Type)
		if !ok {
			return
		}
		res, err := g.pf.RotateSeed(ctx, userID)
		if err != nil {
			c.enqueue(errorMsg(msg.Type, err))
			return
		}
		c.enqueue(resultMsg(msg.Type, res))

	case "get_seed_info":
		userID, ok := g.requireAuth(c, msg.Type)
		if !ok {
			return
		}
		info, err := g.pf.SeedInfo(ctx, userID)
		if err != nil {
			c.enqueue(errorMsg(msg.Type, err))
			return
		}
		c.enqueue(resultMsg(msg.Type, info))

	case "verify":
		// stateless; open to guests
		res, err := g.pf.Verify(ctx, provablyfair.VerifyInput{
			ServerSeed: msg.ServerSeed,
			ClientSeed: msg.ClientSeed,
			Nonce:      msg.Nonce,
			Variant:    provablyfair.Variant(msg.Variant),
			Commitment: msg.Commitment,
		})
		if err != nil {
			c.enqueue(errorMsg(msg.Type, err))
			return
		}
		c.enqueue(resultMsg(msg.Type, res))

	case "chat_join":
		if msg.Room != "" {
			g.hub.joinRoom(msg.Room, c)
			c.enqueue(resultMsg(msg.Type, map[string]string{"room": msg.Room}))
		}

	case "chat_send":
		g.handleChat(c, msg)

	default:
		c.enqueue(errorMsg(msg.Type, &crash.Error{Code: "UNKNOWN_OP"}))
	}
}

func (g *Gateway) handlePlaceBet(ctx context.Context, c *Client, msg inbound) {
	userID, ok := g.requireAuth(c, msg.Type)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(msg.Amount.String())
	if err != nil {
		c.enqueue(errorMsg(msg.Type, crash.ErrBelowMin))
		return
	}
	res, err := g.engine.PlaceBet(ctx, crash.PlaceBetInput{
		UserID:            userID,
		Amount:            amount,
		AutoCashoutTarget: msg.AutoCashout,
		Slot:              msg.Slot,
	})
	if err != nil {
		c.enqueue(errorMsg(msg.Type, err))
		return
	}
	c.enqueue(resultMsg(msg.Type, map[string]any{
		"betId":          res.BetID.String(),
		"slot":           res.Slot,
		"amount":         res.Amount.String(),
		"sequenceNumber": res.SequenceNumber,
	}))
}

func (g *Gateway) handleCashout(ctx context.Context, c *Client, msg inbound) {
	userID, ok := g.requireAuth(c, msg.Type)
	if !ok {
		return
	}
	res, err := g.engine.Cashout(ctx, crash.CashoutInput{
		UserID:            userID,
		Slot:              msg.Slot,
		ClaimedMultiplier: msg.AtMultiplier,
	})
	if err != nil {
		c.enqueue(errorMsg(msg.Type, err))
		return
	}
	c.enqueue(resultMsg(msg.Type, map[string]any{
		"betId":      res.BetID.String(),
		"slot":       res.Slot,
		"multiplier": engine.FormatMultiplier(res.Multiplier),
		"payout":     res.Payout.String(),
		"profit":     res.Profit.String(),
	}))
}

func (g *Gateway) handleChat(c *Client, msg inbound) {
	userID, ok := g.requireAuth(c, msg.Type)
	if !ok {
		return
	}
	if msg.Room == "" || len(msg.Message) == 0 || len(msg.Message) > maxChatBytes {
		c.enqueue(errorMsg(msg.Type, &crash.Error{Code: "BAD_MESSAGE"}))
		return
	}
	g.hub.BroadcastRoom(msg.Room, eventMsg("chat", chatPayload{
		Room:    msg.Room,
		UserID:  userID.String(),
		Message: msg.Message,
	}))
}

// requireAuth rejects guest connections with AUTH_REQUIRED.
func (g *Gateway) requireAuth(c *Client, op string) (uuid.UUID, bool) {
	id, role := c.Identity()
	if role == RoleGuest {
		c.enqueue(errorMsg(op, crash.ErrAuthRequired))
		return uuid.Nil, false
	}
	return id, true
}
