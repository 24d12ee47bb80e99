package swapengine

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
)

// Side is the direction of a swap relative to the base token.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TokenInfo describes the base mint of a pool.
type TokenInfo struct {
	Mint     solana.PublicKey `json:"mint"`
	Program  solana.PublicKey `json:"program"` // owning token program
	Decimals uint8            `json:"decimals"`
}

// Market is everything read from chain before pricing: pool, creator vault,
// base token metadata and fresh reserves.
type Market struct {
	Pool     *pumpswap.PoolState   `json:"pool"`
	Vault    pumpswap.CreatorVault `json:"creator_vault"`
	Base     TokenInfo             `json:"base"`
	Reserves pumpswap.Reserves     `json:"reserves"`
}

// QuoteResult contains detailed quote information
type QuoteResult struct {
	Side     Side                `json:"side"`
	Pool     solana.PublicKey    `json:"pool"`
	BaseMint solana.PublicKey    `json:"base_mint"`
	Decimals uint8               `json:"base_decimals"`
	Buy      *pumpswap.BuyQuote  `json:"buy,omitempty"`
	Sell     *pumpswap.SellQuote `json:"sell,omitempty"`
	QuotedAt time.Time           `json:"quoted_at"`
}

// AmountIn is the exact input of the swap in smallest units.
func (q *QuoteResult) AmountIn() uint64 {
	if q.Buy != nil {
		return q.Buy.QuoteIn
	}
	if q.Sell != nil {
		return q.Sell.BaseIn
	}
	return 0
}

// ExpectedOut is the priced output of the swap.
func (q *QuoteResult) ExpectedOut() uint64 {
	if q.Buy != nil {
		return q.Buy.BaseOut
	}
	if q.Sell != nil {
		return q.Sell.QuoteOut
	}
	return 0
}

// Bound is the slippage bound sent on chain: max input for buys, min output
// for sells.
func (q *QuoteResult) Bound() uint64 {
	if q.Buy != nil {
		return q.Buy.MaxQuoteIn
	}
	if q.Sell != nil {
		return q.Sell.MinQuoteOut
	}
	return 0
}

// SwapResult is the final result returned to the caller
type SwapResult struct {
	ExecutionID string        `json:"execution_id"`
	Side        Side          `json:"side"`
	Signature   string        `json:"signature,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	ExpectedOut uint64        `json:"expected_out"`
	Duration    time.Duration `json:"duration"`

	// Details
	Quote           *QuoteResult `json:"quote,omitempty"`
	TempAccount     string       `json:"temp_account,omitempty"`
	CreatedATA      bool         `json:"created_ata"`
	ClosedBase      bool         `json:"closed_base"`
	SimulationUnits uint64       `json:"simulation_units,omitempty"`
}
