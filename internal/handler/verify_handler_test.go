package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
)

type stubPF struct {
	provablyfair.Service
	verify func(provablyfair.VerifyInput) (*provablyfair.VerifyResult, error)
}

func (s *stubPF) Verify(_ context.Context, in provablyfair.VerifyInput) (*provablyfair.VerifyResult, error) {
	return s.verify(in)
}

type stubEngine struct {
	crash.Engine
	history []crash.HistoryEntry
}

func (s *stubEngine) History() []crash.HistoryEntry { return s.history }

func testApp(pf provablyfair.Service, eng crash.Engine) *fiber.App {
	app := fiber.New()
	h := NewVerifyHandler(pf, eng)
	app.Post("/verify", h.Verify)
	app.Get("/history", h.History)
	return app
}

func TestVerifyEndpoint(t *testing.T) {
	pf := &stubPF{verify: func(in provablyfair.VerifyInput) (*provablyfair.VerifyResult, error) {
		assert.Equal(t, "revealed-seed", in.ServerSeed)
		assert.Equal(t, int64(7), in.Nonce)
		return &provablyfair.VerifyResult{CrashPoints: []float64{2.37}, Commitment: "commit"}, nil
	}}
	app := testApp(pf, &stubEngine{})

	body, _ := json.Marshal(map[string]any{
		"serverSeed": "revealed-seed",
		"clientSeed": "client",
		"nonce":      7,
		"variant":    "crash",
	})
	req := httptest.NewRequest("POST", "/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			CrashPoints []float64 `json:"crashPoints"`
			Commitment  string    `json:"commitment"`
		} `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Success)
	assert.Equal(t, []float64{2.37}, out.Data.CrashPoints)
	assert.Equal(t, "commit", out.Data.Commitment)
}

func TestVerifyEndpointDomainError(t *testing.T) {
	pf := &stubPF{verify: func(provablyfair.VerifyInput) (*provablyfair.VerifyResult, error) {
		return nil, crash.ErrInvalidVariant
	}}
	app := testApp(pf, &stubEngine{})

	req := httptest.NewRequest("POST", "/verify", bytes.NewReader([]byte(`{"variant":"bad"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.Success)
	assert.Equal(t, "INVALID_VARIANT", out.Error)
}

func TestVerifyEndpointBadBody(t *testing.T) {
	app := testApp(&stubPF{}, &stubEngine{})
	req := httptest.NewRequest("POST", "/verify", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	eng := &stubEngine{history: []crash.HistoryEntry{
		{SequenceNumber: 9, CrashPoints: []float64{1.52}, ServerSeed: "seed-9"},
		{SequenceNumber: 8, CrashPoints: []float64{3.10}, ServerSeed: "seed-8"},
	}}
	app := testApp(&stubPF{}, eng)

	resp, err := app.Test(httptest.NewRequest("GET", "/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Success bool                 `json:"success"`
		Data    []crash.HistoryEntry `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Data, 2)
	assert.Equal(t, int64(9), out.Data[0].SequenceNumber, "most recent first")
}
