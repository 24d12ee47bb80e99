package pumpswap

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Fee schedule applied to the quote side of base->quote swaps.
const (
	LPFeeBps          = 20
	ProtocolFeeBps    = 5
	FeeDenominatorBps = 10_000
)

// SellBreakdown is the full result of a base->quote computation.
type SellBreakdown struct {
	RawQuoteOut uint64 `json:"raw_quote_out"`
	LPFee       uint64 `json:"lp_fee"`
	ProtocolFee uint64 `json:"protocol_fee"`
	QuoteOut    uint64 `json:"quote_out"`
}

// QuoteToBase returns the base amount received for quoteIn, with no fee:
// baseReserve - floor(baseReserve*quoteReserve / (quoteReserve+quoteIn)).
func QuoteToBase(quoteIn, baseReserve, quoteReserve uint64) (uint64, error) {
	if err := checkSwapInputs(quoteIn, baseReserve, quoteReserve); err != nil {
		return 0, err
	}

	out := constantProductOut(quoteIn, quoteReserve, baseReserve)
	return out.Uint64(), nil
}

// BaseToQuote returns the quote amount received for baseIn after LP and
// protocol fees.
func BaseToQuote(baseIn, baseReserve, quoteReserve uint64) (uint64, error) {
	b, err := BaseToQuoteBreakdown(baseIn, baseReserve, quoteReserve)
	if err != nil {
		return 0, err
	}
	return b.QuoteOut, nil
}

// BaseToQuoteBreakdown is BaseToQuote with the fee components exposed.
func BaseToQuoteBreakdown(baseIn, baseReserve, quoteReserve uint64) (SellBreakdown, error) {
	if err := checkSwapInputs(baseIn, baseReserve, quoteReserve); err != nil {
		return SellBreakdown{}, err
	}

	raw := constantProductOut(baseIn, baseReserve, quoteReserve)
	lpFee := feeOf(raw, LPFeeBps)
	protocolFee := feeOf(raw, ProtocolFeeBps)

	net := new(uint256.Int).Sub(raw, lpFee)
	net.Sub(net, protocolFee)

	return SellBreakdown{
		RawQuoteOut: raw.Uint64(),
		LPFee:       lpFee.Uint64(),
		ProtocolFee: protocolFee.Uint64(),
		QuoteOut:    net.Uint64(),
	}, nil
}

// ApplyMaxSlippage bounds the input of a buy: amount + floor(amount*bps/10000).
func ApplyMaxSlippage(amount, slippageBps uint64) (uint64, error) {
	if slippageBps > FeeDenominatorBps {
		return 0, fmt.Errorf("%w: slippage %d bps exceeds %d", ErrValidation, slippageBps, FeeDenominatorBps)
	}

	extra := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(slippageBps))
	extra.Div(extra, uint256.NewInt(FeeDenominatorBps))

	bound := new(uint256.Int).Add(uint256.NewInt(amount), extra)
	if !bound.IsUint64() {
		return 0, fmt.Errorf("%w: max input overflows u64", ErrValidation)
	}
	return bound.Uint64(), nil
}

// ApplyMinSlippage bounds the output of a sell: floor(amount*(10000-bps)/10000).
func ApplyMinSlippage(amount, slippageBps uint64) uint64 {
	if slippageBps >= FeeDenominatorBps {
		return 0
	}

	minOut := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(FeeDenominatorBps-slippageBps))
	minOut.Div(minOut, uint256.NewInt(FeeDenominatorBps))
	return minOut.Uint64()
}

// PortionOf returns floor(holding*pct/100) for pct in [1,100].
func PortionOf(holding uint64, pct uint8) (uint64, error) {
	if pct < 1 || pct > 100 {
		return 0, fmt.Errorf("%w: percentage %d outside [1,100]", ErrValidation, pct)
	}

	v := new(uint256.Int).Mul(uint256.NewInt(holding), uint256.NewInt(uint64(pct)))
	v.Div(v, uint256.NewInt(100))
	return v.Uint64(), nil
}

// constantProductOut computes reserveOut - floor(reserveIn*reserveOut/(reserveIn+amountIn)).
// The result never exceeds reserveOut so it always fits in a u64.
func constantProductOut(amountIn, reserveIn, reserveOut uint64) *uint256.Int {
	k := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(reserveOut))
	denom := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(amountIn))
	remaining := new(uint256.Int).Div(k, denom)
	return new(uint256.Int).Sub(uint256.NewInt(reserveOut), remaining)
}

func feeOf(amount *uint256.Int, bps uint64) *uint256.Int {
	fee := new(uint256.Int).Mul(amount, uint256.NewInt(bps))
	return fee.Div(fee, uint256.NewInt(FeeDenominatorBps))
}

func checkSwapInputs(amountIn, reserveIn, reserveOut uint64) error {
	if amountIn == 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return fmt.Errorf("%w: reserves must be > 0", ErrReserveUnavailable)
	}
	return nil
}
