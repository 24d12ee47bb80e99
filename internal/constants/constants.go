package constants

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Pump AMM program and its fixed accounts
var (
	PumpAMMProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")
	GlobalConfig     = solana.MustPublicKeyFromBase58("ADyA8hdefvWN2dbGGWFotbzWxrAvLW83WG6QCVXvJKqw")
	EventAuthority   = solana.MustPublicKeyFromBase58("GS4CU59F31iL7aR2Q8zVS8DRrcRnXX1yjQ66TqNVQnaR")

	ProtocolFeeRecipient             = solana.MustPublicKeyFromBase58("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	ProtocolFeeRecipientTokenAccount = solana.MustPublicKeyFromBase58("94qWNrtmfn42h3ZjUZwWvK1MEo9uVmmrBPd2hpNjYDjb")
)

// Solana system programs and mints
var (
	SystemProgramID          = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	ComputeBudgetProgramID   = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	WrappedSOLMint           = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// PDA seeds
const (
	SeedCreatorVault = "creator_vault"
)

// Sizes
const (
	TokenAccountSize = 165
	LamportsPerSOL   = 1_000_000_000
	WSOLDecimals     = 9
)

// Transaction defaults
const (
	DefaultComputeUnitLimit = 200_000
	DefaultComputeUnitPrice = 100_000 // micro-lamports per CU
	DefaultConfirmTimeout   = 60 * time.Second
)

// Redis keys
const (
	RedisKeyPairPrefix = "pumpswap:pair:"
	RedisKeyFlags      = "pumpswap:flags"
)

// FlagTradingEnabled is the kill switch consulted before every swap.
const FlagTradingEnabled = "trading.enabled"

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps = "pumpswap:swaps"
)

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
}

// SymbolFor returns a display symbol for a mint, falling back to a shortened address.
func SymbolFor(mint solana.PublicKey) string {
	s := mint.String()
	if sym, ok := TokenSymbols[s]; ok {
		return sym
	}
	if len(s) > 8 {
		return s[:4] + ".." + s[len(s)-4:]
	}
	return s
}
