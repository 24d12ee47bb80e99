package pumpswap

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/layout"
)

// Layout selects which pool account schema to decode with.
type Layout string

const (
	LayoutAuto    Layout = "auto"
	LayoutLegacy  Layout = "legacy"
	LayoutCurrent Layout = "current"
)

// ParseLayout maps a config string onto a Layout.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "", LayoutAuto:
		return LayoutAuto, nil
	case LayoutLegacy, LayoutCurrent:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown pool layout %q", ErrValidation, s)
	}
}

// Pool account field names.
const (
	fieldBump        = "pool_bump"
	fieldIndex       = "index"
	fieldCreator     = "creator"
	fieldBaseMint    = "base_mint"
	fieldQuoteMint   = "quote_mint"
	fieldLPMint      = "lp_mint"
	fieldBaseVault   = "pool_base_token_account"
	fieldQuoteVault  = "pool_quote_token_account"
	fieldLPSupply    = "lp_supply"
	fieldCoinCreator = "coin_creator"
)

// LegacyPoolSchema is the pool account before the coin-creator field was added.
var LegacyPoolSchema = layout.NewSchema("pool_legacy",
	layout.Padding(8), // account discriminator
	layout.U8(fieldBump),
	layout.U16LE(fieldIndex),
	layout.PublicKey(fieldCreator),
	layout.PublicKey(fieldBaseMint),
	layout.PublicKey(fieldQuoteMint),
	layout.PublicKey(fieldLPMint),
	layout.PublicKey(fieldBaseVault),
	layout.PublicKey(fieldQuoteVault),
	layout.U64LE(fieldLPSupply),
)

// CurrentPoolSchema appends the coin creator used for creator-fee routing.
var CurrentPoolSchema = LegacyPoolSchema.Extend("pool_current",
	layout.PublicKey(fieldCoinCreator),
)

// Memcmp offsets for program-account searches.
var (
	BaseMintOffset  = uint64(LegacyPoolSchema.MustOffset(fieldBaseMint))
	QuoteMintOffset = uint64(LegacyPoolSchema.MustOffset(fieldQuoteMint))
)

// PoolState is the decoded pool account.
type PoolState struct {
	Address     solana.PublicKey `json:"address"`
	Bump        uint8            `json:"bump"`
	Index       uint16           `json:"index"`
	PoolCreator solana.PublicKey `json:"pool_creator"`
	BaseMint    solana.PublicKey `json:"base_mint"`
	QuoteMint   solana.PublicKey `json:"quote_mint"`
	LPMint      solana.PublicKey `json:"lp_mint"`
	BaseVault   solana.PublicKey `json:"pool_base_token_account"`
	QuoteVault  solana.PublicKey `json:"pool_quote_token_account"`
	LPSupply    uint64           `json:"lp_supply"`
	CoinCreator solana.PublicKey `json:"coin_creator,omitempty"`
	Layout      Layout           `json:"layout"`
}

// Creator returns the identifier the creator vault is derived from: the coin
// creator on current pools, the pool creator on legacy ones.
func (p *PoolState) Creator() solana.PublicKey {
	if p.Layout == LayoutCurrent {
		return p.CoinCreator
	}
	return p.PoolCreator
}

// HasMint reports whether mint is either side of the pool.
func (p *PoolState) HasMint(mint solana.PublicKey) bool {
	return p.BaseMint.Equals(mint) || p.QuoteMint.Equals(mint)
}

// DecodePool decodes a pool account buffer. LayoutAuto picks the current schema
// when the buffer is long enough for it and falls back to legacy otherwise.
func DecodePool(address solana.PublicKey, data []byte, which Layout) (*PoolState, error) {
	schema, resolved, err := schemaFor(which, len(data))
	if err != nil {
		return nil, err
	}

	rec, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pool %s: %w", ErrDecode, address, err)
	}

	pool := &PoolState{
		Address:     address,
		Bump:        uint8(rec.Uint(fieldBump)),
		Index:       uint16(rec.Uint(fieldIndex)),
		PoolCreator: rec.PublicKey(fieldCreator),
		BaseMint:    rec.PublicKey(fieldBaseMint),
		QuoteMint:   rec.PublicKey(fieldQuoteMint),
		LPMint:      rec.PublicKey(fieldLPMint),
		BaseVault:   rec.PublicKey(fieldBaseVault),
		QuoteVault:  rec.PublicKey(fieldQuoteVault),
		LPSupply:    rec.Uint(fieldLPSupply),
		Layout:      resolved,
	}
	if rec.Has(fieldCoinCreator) {
		pool.CoinCreator = rec.PublicKey(fieldCoinCreator)
	}

	return pool, nil
}

func schemaFor(which Layout, size int) (*layout.Schema, Layout, error) {
	switch which {
	case LayoutLegacy:
		return LegacyPoolSchema, LayoutLegacy, nil
	case LayoutCurrent:
		return CurrentPoolSchema, LayoutCurrent, nil
	case LayoutAuto, "":
		if size >= CurrentPoolSchema.Size() {
			return CurrentPoolSchema, LayoutCurrent, nil
		}
		return LegacyPoolSchema, LayoutLegacy, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown pool layout %q", ErrValidation, which)
	}
}
