package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/crash"
)

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestTickWireFormatsMultipliers(t *testing.T) {
	raw := tickWire(&crash.TickEvent{
		Multipliers:  []float64{1.5, 2.0},
		ElapsedMs:    700,
		CrashedFlags: []bool{false, true},
	})
	msg := decode(t, raw)
	assert.Equal(t, "tick", msg["type"])

	data := msg["data"].(map[string]any)
	assert.Equal(t, []any{"1.50", "2.00"}, data["multipliers"], "multipliers ride the wire as two-decimal strings")
	assert.Equal(t, float64(700), data["elapsedMs"])
	assert.Equal(t, []any{false, true}, data["crashedFlags"])
}

func TestBetPlacedWireFullPrecisionAmount(t *testing.T) {
	amount := decimal.RequireFromString("12.345678")
	raw := betPlacedWire(&crash.BetPlacedEvent{
		UserID:   uuid.New(),
		BetID:    uuid.New(),
		Slot:     2,
		Amount:   amount,
		Currency: "USD",
	})
	data := decode(t, raw)["data"].(map[string]any)
	assert.Equal(t, "12.345678", data["amount"], "amounts keep full precision")
	assert.Equal(t, float64(2), data["slot"])
}

func TestCashoutWire(t *testing.T) {
	raw := cashoutWire(&crash.CashoutEvent{
		UserID:     uuid.New(),
		Slot:       1,
		Multiplier: 1.34,
		Profit:     decimal.RequireFromString("34.00"),
		Manual:     true,
	})
	msg := decode(t, raw)
	assert.Equal(t, "cashout", msg["type"])
	data := msg["data"].(map[string]any)
	assert.Equal(t, "1.34", data["multiplier"])
	assert.Equal(t, "34.00", data["profit"])
	assert.Equal(t, true, data["manual"])
}

func TestCrashedWire(t *testing.T) {
	raw := crashedWire(&crash.CrashedEvent{CrashPoints: []float64{2.37, 1.0}, SequenceNumber: 9})
	data := decode(t, raw)["data"].(map[string]any)
	assert.Equal(t, []any{"2.37", "1.00"}, data["crashPoints"])
	assert.Equal(t, float64(9), data["sequenceNumber"])
}

func TestResultAndErrorEnvelopes(t *testing.T) {
	msg := decode(t, resultMsg("place_bet", map[string]string{"betId": "abc"}))
	assert.Equal(t, "place_bet_result", msg["type"])
	assert.Equal(t, true, msg["success"])

	msg = decode(t, errorMsg("place_bet", crash.ErrBettingClosed))
	assert.Equal(t, "place_bet_result", msg["type"])
	assert.Equal(t, false, msg["success"])
	assert.Equal(t, "BETTING_CLOSED", msg["error"])

	// non-domain errors fall back to their message
	msg = decode(t, errorMsg("cashout", errors.New("boom")))
	assert.Equal(t, "boom", msg["error"])
}

func TestInboundUnionParsing(t *testing.T) {
	var msg inbound
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "place_bet",
		"amount": "12.50",
		"autoCashoutAt": 2.5,
		"slot": 2
	}`), &msg))
	assert.Equal(t, "place_bet", msg.Type)
	assert.Equal(t, "12.50", msg.Amount.String())
	assert.Equal(t, 2.5, msg.AutoCashout)
	assert.Equal(t, 2, msg.Slot)

	// numeric amounts are accepted too, json.Number keeps the raw text
	require.NoError(t, json.Unmarshal([]byte(`{"type":"place_bet","amount":3.07}`), &msg))
	assert.Equal(t, "3.07", msg.Amount.String())
}
