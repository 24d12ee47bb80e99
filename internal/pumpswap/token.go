package pumpswap

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/layout"
)

// SPL token account prefix shared by the Token and Token-2022 programs.
var TokenAccountSchema = layout.NewSchema("spl_token_account",
	layout.PublicKey("mint"),
	layout.PublicKey("owner"),
	layout.U64LE("amount"),
)

// SPL mint prefix up to the decimals byte.
var MintSchema = layout.NewSchema("spl_mint",
	layout.U32LE("mint_authority_option"),
	layout.PublicKey("mint_authority"),
	layout.U64LE("supply"),
	layout.U8("decimals"),
)

// TokenAccount is the part of an SPL token account the executor reads.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	rec, err := TokenAccountSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &TokenAccount{
		Mint:   rec.PublicKey("mint"),
		Owner:  rec.PublicKey("owner"),
		Amount: rec.Uint("amount"),
	}, nil
}

func DecodeMintDecimals(data []byte) (uint8, error) {
	rec, err := MintSchema.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return uint8(rec.Uint("decimals")), nil
}
