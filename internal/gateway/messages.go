package gateway

import (
	"encoding/json"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/internal/game/engine"
)

// inbound is the client->server envelope. Body fields are a union across
// operations; each handler reads what it needs.
type inbound struct {
	Type         string      `json:"type"`
	Token        string      `json:"token,omitempty"`
	Amount       json.Number `json:"amount,omitempty"`
	AutoCashout  float64     `json:"autoCashoutAt,omitempty"`
	Slot         int         `json:"slot,omitempty"`
	AtMultiplier float64     `json:"atMultiplier,omitempty"`
	ClientSeed   string      `json:"clientSeed,omitempty"`
	ServerSeed   string      `json:"serverSeed,omitempty"`
	Nonce        int64       `json:"nonce,omitempty"`
	Variant      string      `json:"variant,omitempty"`
	Commitment   string      `json:"commitment,omitempty"`
	Room         string      `json:"room,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// outbound is the server->client envelope.
type outbound struct {
	Type    string `json:"type"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func encode(msg outbound) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		return []byte(`{"type":"error","error":"ENCODE_FAILED"}`)
	}
	return raw
}

func eventMsg(typ string, data any) []byte {
	return encode(outbound{Type: typ, Data: data})
}

func resultMsg(op string, data any) []byte {
	ok := true
	return encode(outbound{Type: op + "_result", Success: &ok, Data: data})
}

func errorMsg(op string, err error) []byte {
	ok := false
	return encode(outbound{Type: op + "_result", Success: &ok, Error: crash.CodeOf(err)})
}

// Multipliers ride the wire as two-decimal strings, amounts as
// full-precision decimal strings, per the numeric boundary rules.

type tickPayload struct {
	Multipliers  []string `json:"multipliers"`
	ElapsedMs    int64    `json:"elapsedMs"`
	CrashedFlags []bool   `json:"crashedFlags"`
}

type betPlacedPayload struct {
	UserID   string `json:"userId"`
	BetID    string `json:"betId"`
	Slot     int    `json:"slot"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cashoutPayload struct {
	UserID     string `json:"userId"`
	Slot       int    `json:"slot"`
	Multiplier string `json:"multiplier"`
	Profit     string `json:"profit"`
	Manual     bool   `json:"manual"`
}

type curveCrashedPayload struct {
	Slot           int    `json:"slot"`
	CrashPoint     string `json:"crashPoint"`
	SequenceNumber int64  `json:"sequenceNumber"`
}

type crashedPayload struct {
	CrashPoints    []string `json:"crashPoints"`
	SequenceNumber int64    `json:"sequenceNumber"`
}

type balanceUpdatePayload struct {
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
	Delta    string `json:"delta"`
	Reason   string `json:"reason"`
}

type stateChangePayload struct {
	State string           `json:"state"`
	Round crash.PublicView `json:"round"`
}

type chatPayload struct {
	Room    string `json:"room"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func tickWire(ev *crash.TickEvent) []byte {
	mults := make([]string, len(ev.Multipliers))
	for i, m := range ev.Multipliers {
		mults[i] = engine.FormatMultiplier(m)
	}
	return eventMsg("tick", tickPayload{
		Multipliers:  mults,
		ElapsedMs:    ev.ElapsedMs,
		CrashedFlags: ev.CrashedFlags,
	})
}

func betPlacedWire(ev *crash.BetPlacedEvent) []byte {
	return eventMsg("bet_placed", betPlacedPayload{
		UserID:   ev.UserID.String(),
		BetID:    ev.BetID.String(),
		Slot:     ev.Slot,
		Amount:   ev.Amount.String(),
		Currency: ev.Currency,
	})
}

func cashoutWire(ev *crash.CashoutEvent) []byte {
	return eventMsg("cashout", cashoutPayload{
		UserID:     ev.UserID.String(),
		Slot:       ev.Slot,
		Multiplier: engine.FormatMultiplier(ev.Multiplier),
		Profit:     ev.Profit.String(),
		Manual:     ev.Manual,
	})
}

func curveCrashedWire(ev *crash.CurveCrashedEvent) []byte {
	return eventMsg("curve_crashed", curveCrashedPayload{
		Slot:           ev.Slot,
		CrashPoint:     engine.FormatMultiplier(ev.CrashPoint),
		SequenceNumber: ev.SequenceNumber,
	})
}

func crashedWire(ev *crash.CrashedEvent) []byte {
	points := make([]string, len(ev.CrashPoints))
	for i, p := range ev.CrashPoints {
		points[i] = engine.FormatMultiplier(p)
	}
	return eventMsg("crashed", crashedPayload{
		CrashPoints:    points,
		SequenceNumber: ev.SequenceNumber,
	})
}

func balanceUpdateWire(ev *crash.BalanceUpdateEvent) []byte {
	return eventMsg("balance_update", balanceUpdatePayload{
		UserID:   ev.UserID.String(),
		Currency: ev.Currency,
		Delta:    ev.Delta.String(),
		Reason:   string(ev.Reason),
	})
}

func stateChangeWire(ev *crash.StateChangeEvent) []byte {
	return eventMsg("state_change", stateChangePayload{
		State: string(ev.State),
		Round: ev.View,
	})
}
