package pumpswap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testReserves = Reserves{Base: testBaseReserve, Quote: testQuoteReserve}

func TestQuoteBuy(t *testing.T) {
	q, err := QuoteBuy(1_000_000_000, 500, testReserves)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), q.QuoteIn)
	assert.Equal(t, uint64(1_050_000_000), q.MaxQuoteIn)
	assert.Equal(t, uint64(1_996_007_985), q.BaseOut)
	assert.Equal(t, testReserves, q.Reserves)

	_, err = QuoteBuy(0, 500, testReserves)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = QuoteBuy(1, 10_001, testReserves)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuoteSellPercentBoundaries(t *testing.T) {
	const holding = 200_000_000

	tests := []struct {
		pct      uint8
		wantErr  bool
		wantIn   uint64
		fullExit bool
	}{
		{pct: 0, wantErr: true},
		{pct: 1, wantIn: 2_000_000},
		{pct: 100, wantIn: holding, fullExit: true},
		{pct: 101, wantErr: true},
	}

	for _, tt := range tests {
		q, err := QuoteSell(holding, tt.pct, 100, testReserves)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrValidation, "pct=%d", tt.pct)
			continue
		}
		require.NoError(t, err, "pct=%d", tt.pct)
		assert.Equal(t, tt.wantIn, q.BaseIn)
		assert.Equal(t, tt.fullExit, q.FullExit())
	}
}

func TestQuoteSellBreakdown(t *testing.T) {
	q, err := QuoteSell(200_000_000, 1, 100, testReserves)
	require.NoError(t, err)

	assert.Equal(t, uint64(2_000_000), q.BaseIn)
	assert.Equal(t, uint64(999_999), q.RawQuoteOut)
	assert.Equal(t, uint64(997_501), q.QuoteOut)
	assert.Equal(t, uint64(987_525), q.MinQuoteOut)
}

func TestQuoteSellRejects(t *testing.T) {
	_, err := QuoteSell(0, 50, 100, testReserves)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = QuoteSell(1, 50, 100, testReserves)
	assert.ErrorIs(t, err, ErrValidation, "rounds to zero")

	_, err = QuoteSell(1000, 50, 10_001, testReserves)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = QuoteSell(1000, 50, 100, Reserves{})
	assert.ErrorIs(t, err, ErrReserveUnavailable)
}

func TestSlippageBpsFromPercent(t *testing.T) {
	for in, want := range map[float64]uint64{0: 0, 0.5: 50, 1.5: 150, 5: 500, 100: 10_000} {
		got, err := SlippageBpsFromPercent(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "pct=%v", in)
	}

	for _, bad := range []float64{-0.1, 100.01, math.NaN()} {
		_, err := SlippageBpsFromPercent(bad)
		assert.ErrorIs(t, err, ErrValidation)
	}
}
