package pumpswap

import (
	"fmt"
	"math"
)

// Reserves are the vault balances of a pool in smallest units.
type Reserves struct {
	Base  uint64 `json:"base"`
	Quote uint64 `json:"quote"`
}

// BuyQuote is the priced plan for spending quote to receive base.
type BuyQuote struct {
	QuoteIn     uint64   `json:"quote_in"`
	MaxQuoteIn  uint64   `json:"max_quote_in"`
	BaseOut     uint64   `json:"base_out"`
	SlippageBps uint64   `json:"slippage_bps"`
	Reserves    Reserves `json:"reserves"`
}

// SellQuote is the priced plan for selling base to receive quote.
type SellQuote struct {
	Holding     uint64   `json:"holding"`
	Percentage  uint8    `json:"percentage"`
	BaseIn      uint64   `json:"base_in"`
	RawQuoteOut uint64   `json:"raw_quote_out"`
	LPFee       uint64   `json:"lp_fee"`
	ProtocolFee uint64   `json:"protocol_fee"`
	QuoteOut    uint64   `json:"quote_out"`
	MinQuoteOut uint64   `json:"min_quote_out"`
	SlippageBps uint64   `json:"slippage_bps"`
	Reserves    Reserves `json:"reserves"`
}

// FullExit reports whether the sell closes out the whole position.
func (q *SellQuote) FullExit() bool { return q.Percentage == 100 }

// QuoteBuy prices a buy of quoteIn against r.
func QuoteBuy(quoteIn, slippageBps uint64, r Reserves) (*BuyQuote, error) {
	baseOut, err := QuoteToBase(quoteIn, r.Base, r.Quote)
	if err != nil {
		return nil, err
	}

	maxIn, err := ApplyMaxSlippage(quoteIn, slippageBps)
	if err != nil {
		return nil, err
	}

	return &BuyQuote{
		QuoteIn:     quoteIn,
		MaxQuoteIn:  maxIn,
		BaseOut:     baseOut,
		SlippageBps: slippageBps,
		Reserves:    r,
	}, nil
}

// QuoteSell prices selling pct percent of holding against r.
func QuoteSell(holding uint64, pct uint8, slippageBps uint64, r Reserves) (*SellQuote, error) {
	if slippageBps > FeeDenominatorBps {
		return nil, fmt.Errorf("%w: slippage %d bps exceeds %d", ErrValidation, slippageBps, FeeDenominatorBps)
	}
	if holding == 0 {
		return nil, fmt.Errorf("%w: no base balance to sell", ErrValidation)
	}

	baseIn, err := PortionOf(holding, pct)
	if err != nil {
		return nil, err
	}
	if baseIn == 0 {
		return nil, fmt.Errorf("%w: %d%% of %d rounds to zero", ErrValidation, pct, holding)
	}

	b, err := BaseToQuoteBreakdown(baseIn, r.Base, r.Quote)
	if err != nil {
		return nil, err
	}

	return &SellQuote{
		Holding:     holding,
		Percentage:  pct,
		BaseIn:      baseIn,
		RawQuoteOut: b.RawQuoteOut,
		LPFee:       b.LPFee,
		ProtocolFee: b.ProtocolFee,
		QuoteOut:    b.QuoteOut,
		MinQuoteOut: ApplyMinSlippage(b.QuoteOut, slippageBps),
		SlippageBps: slippageBps,
		Reserves:    r,
	}, nil
}

// SlippageBpsFromPercent converts a percentage such as 1.5 into basis points.
func SlippageBpsFromPercent(pct float64) (uint64, error) {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return 0, fmt.Errorf("%w: slippage %.4f%% outside [0,100]", ErrValidation, pct)
	}
	return uint64(math.Round(pct * 100)), nil
}
