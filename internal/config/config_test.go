package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.04, cfg.Game.HouseEdge)
	assert.Equal(t, 10*time.Second, cfg.Game.WaitingMs)
	assert.Equal(t, 3*time.Second, cfg.Game.CrashedMs)
	assert.Equal(t, 100*time.Millisecond, cfg.Game.TickMs)
	assert.Equal(t, 0.10, cfg.Game.MinBet)
	assert.Equal(t, 10000.0, cfg.Game.MaxBet)
	assert.Equal(t, 5000.0, cfg.Game.MaxCrashPoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.BetCooldownMs)
	assert.Equal(t, 20, cfg.Game.MaxHistory)
	assert.Equal(t, 1, cfg.Game.CurveCount)
	assert.Equal(t, "", cfg.Archive.Backend, "archiving disabled by default")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GAME_CURVE_COUNT", "2")
	t.Setenv("GAME_HOUSE_EDGE", "0.02")
	t.Setenv("GAME_TICK_MS", "50")
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Game.CurveCount)
	assert.Equal(t, 0.02, cfg.Game.HouseEdge)
	assert.Equal(t, 50*time.Millisecond, cfg.Game.TickMs)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"house edge above bound", "GAME_HOUSE_EDGE", "0.9"},
		{"negative house edge", "GAME_HOUSE_EDGE", "-0.1"},
		{"three curves", "GAME_CURVE_COUNT", "3"},
		{"zero tick", "GAME_TICK_MS", "0"},
		{"max below min", "GAME_MAX_BET", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnvParsingFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("GAME_HOUSE_EDGE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.04, cfg.Game.HouseEdge)
}
