package swapengine

import (
	"fmt"
	"math"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
)

// RiskConfig bounds what a single invocation may request.
type RiskConfig struct {
	// MaxBuyLamports caps the quote amount of one buy; zero means no cap.
	MaxBuyLamports uint64

	// Slippage constraints, in percent
	DefaultSlippagePct float64
	MaxSlippagePct     float64
}

// DefaultRiskConfig returns conservative risk settings
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxBuyLamports:     0,
		DefaultSlippagePct: 5,
		MaxSlippagePct:     50,
	}
}

type DecisionEngine struct {
	risk RiskConfig
}

func NewDecisionEngine(risk RiskConfig) *DecisionEngine {
	return &DecisionEngine{risk: risk}
}

// SlippageBps validates a slippage percentage and converts it to basis points.
// A negative value selects the default.
func (de *DecisionEngine) SlippageBps(pct float64) (uint64, error) {
	if pct < 0 {
		pct = de.risk.DefaultSlippagePct
	}
	if de.risk.MaxSlippagePct > 0 && pct > de.risk.MaxSlippagePct {
		return 0, fmt.Errorf("%w: slippage %.2f%% exceeds max %.2f%%", pumpswap.ErrValidation, pct, de.risk.MaxSlippagePct)
	}
	return pumpswap.SlippageBpsFromPercent(pct)
}

// ValidateBuy checks a buy request and returns its slippage in basis points.
func (de *DecisionEngine) ValidateBuy(lamportsIn uint64, slippagePct float64) (uint64, error) {
	if lamportsIn == 0 {
		return 0, fmt.Errorf("%w: amount must be > 0", pumpswap.ErrValidation)
	}
	if de.risk.MaxBuyLamports > 0 && lamportsIn > de.risk.MaxBuyLamports {
		return 0, fmt.Errorf("%w: amount %d exceeds max %d lamports", pumpswap.ErrValidation, lamportsIn, de.risk.MaxBuyLamports)
	}
	return de.SlippageBps(slippagePct)
}

// ValidateSell checks a sell request and returns its slippage in basis points.
func (de *DecisionEngine) ValidateSell(pct uint8, slippagePct float64) (uint64, error) {
	if pct < 1 || pct > 100 {
		return 0, fmt.Errorf("%w: percentage %d outside [1,100]", pumpswap.ErrValidation, pct)
	}
	return de.SlippageBps(slippagePct)
}

// SOLToLamports converts a human SOL amount to lamports.
func SOLToLamports(sol float64) (uint64, error) {
	return toRawAmount(sol, constants.WSOLDecimals)
}

func toRawAmount(amount float64, decimals uint8) (uint64, error) {
	if math.IsNaN(amount) || amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be > 0", pumpswap.ErrValidation)
	}
	raw := math.Round(amount * math.Pow10(int(decimals)))
	if raw >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: amount %v overflows", pumpswap.ErrValidation, amount)
	}
	return uint64(raw), nil
}

// FromRawAmount renders a smallest-unit amount in human units.
func FromRawAmount(raw uint64, decimals uint8) float64 {
	return float64(raw) / math.Pow10(int(decimals))
}
