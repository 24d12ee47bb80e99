package swapengine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
)

func TestDecisionSlippageBps(t *testing.T) {
	de := NewDecisionEngine(DefaultRiskConfig())

	tests := []struct {
		pct     float64
		want    uint64
		wantErr bool
	}{
		{-1, 500, false}, // default
		{0, 0, false},
		{0.5, 50, false},
		{1.25, 125, false},
		{50, 5000, false},
		{50.01, 0, true},
		{math.NaN(), 0, true},
	}
	for _, tt := range tests {
		got, err := de.SlippageBps(tt.pct)
		if tt.wantErr {
			require.ErrorIs(t, err, pumpswap.ErrValidation, "pct %v", tt.pct)
			continue
		}
		require.NoError(t, err, "pct %v", tt.pct)
		assert.Equal(t, tt.want, got, "pct %v", tt.pct)
	}
}

func TestDecisionValidateBuy(t *testing.T) {
	de := NewDecisionEngine(RiskConfig{MaxBuyLamports: 5_000_000_000, DefaultSlippagePct: 1, MaxSlippagePct: 10})

	bps, err := de.ValidateBuy(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), bps)

	_, err = de.ValidateBuy(0, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	_, err = de.ValidateBuy(5_000_000_001, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	_, err = de.ValidateBuy(1_000, 11)
	require.ErrorIs(t, err, pumpswap.ErrValidation)
}

func TestDecisionValidateSell(t *testing.T) {
	de := NewDecisionEngine(DefaultRiskConfig())
	for _, pct := range []uint8{1, 100} {
		_, err := de.ValidateSell(pct, 1)
		require.NoError(t, err, "pct %d", pct)
	}
	for _, pct := range []uint8{0, 101, 255} {
		_, err := de.ValidateSell(pct, 1)
		require.ErrorIs(t, err, pumpswap.ErrValidation, "pct %d", pct)
	}
}

func TestSOLToLamports(t *testing.T) {
	got, err := SOLToLamports(0.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), got)

	got, err = SOLToLamports(0.000000001)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := SOLToLamports(bad)
		require.ErrorIs(t, err, pumpswap.ErrValidation, "%v", bad)
	}

	assert.InDelta(t, 1.5, FromRawAmount(1_500_000, 6), 1e-12)
}
