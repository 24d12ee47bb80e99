package pumpswap

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
)

// Anchor instruction discriminators.
var (
	BuyDiscriminator  = [8]byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}
	SellDiscriminator = [8]byte{0x33, 0xe6, 0x85, 0xa4, 0x01, 0x7f, 0x83, 0xad}
)

// SwapAccountCount is the number of accounts the buy and sell instructions take.
const SwapAccountCount = 19

// SwapAccounts holds the per-swap accounts. Program-wide accounts are filled
// in from constants.
type SwapAccounts struct {
	Pool                  solana.PublicKey
	User                  solana.PublicKey
	BaseMint              solana.PublicKey
	QuoteMint             solana.PublicKey
	UserBaseTokenAccount  solana.PublicKey
	UserQuoteTokenAccount solana.PublicKey
	PoolBaseTokenAccount  solana.PublicKey
	PoolQuoteTokenAccount solana.PublicKey
	BaseTokenProgram      solana.PublicKey
	CreatorVault          CreatorVault
}

// NewSwapAccounts fills SwapAccounts from a decoded pool.
func NewSwapAccounts(pool *PoolState, user, userBase, userQuote, baseTokenProgram solana.PublicKey, vault CreatorVault) SwapAccounts {
	return SwapAccounts{
		Pool:                  pool.Address,
		User:                  user,
		BaseMint:              pool.BaseMint,
		QuoteMint:             pool.QuoteMint,
		UserBaseTokenAccount:  userBase,
		UserQuoteTokenAccount: userQuote,
		PoolBaseTokenAccount:  pool.BaseVault,
		PoolQuoteTokenAccount: pool.QuoteVault,
		BaseTokenProgram:      baseTokenProgram,
		CreatorVault:          vault,
	}
}

func (a SwapAccounts) validate() error {
	required := []struct {
		pk   solana.PublicKey
		name string
	}{
		{a.Pool, "pool"},
		{a.User, "user"},
		{a.BaseMint, "base mint"},
		{a.QuoteMint, "quote mint"},
		{a.UserBaseTokenAccount, "user base token account"},
		{a.UserQuoteTokenAccount, "user quote token account"},
		{a.PoolBaseTokenAccount, "pool base token account"},
		{a.PoolQuoteTokenAccount, "pool quote token account"},
		{a.BaseTokenProgram, "base token program"},
		{a.CreatorVault.TokenAccount, "creator vault token account"},
		{a.CreatorVault.Authority, "creator vault authority"},
	}
	for _, r := range required {
		if r.pk.IsZero() {
			return fmt.Errorf("%w: %s is zero", ErrValidation, r.name)
		}
	}
	return nil
}

// Metas returns the swap account list in program ABI order.
func (a SwapAccounts) Metas() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: a.Pool, IsWritable: true, IsSigner: false},
		{PublicKey: a.User, IsWritable: true, IsSigner: true},
		{PublicKey: constants.GlobalConfig, IsWritable: false, IsSigner: false},
		{PublicKey: a.BaseMint, IsWritable: false, IsSigner: false},
		{PublicKey: a.QuoteMint, IsWritable: false, IsSigner: false},
		{PublicKey: a.UserBaseTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: a.UserQuoteTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: a.PoolBaseTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: a.PoolQuoteTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: constants.ProtocolFeeRecipient, IsWritable: false, IsSigner: false},
		{PublicKey: constants.ProtocolFeeRecipientTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: a.BaseTokenProgram, IsWritable: false, IsSigner: false},
		{PublicKey: constants.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: constants.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: constants.AssociatedTokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: constants.EventAuthority, IsWritable: false, IsSigner: false},
		{PublicKey: constants.PumpAMMProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: a.CreatorVault.TokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: a.CreatorVault.Authority, IsWritable: false, IsSigner: false},
	}
}

// EncodeSwapData lays out discriminator || first u64 LE || second u64 LE.
func EncodeSwapData(discriminator [8]byte, first, second uint64) []byte {
	data := make([]byte, 24)
	copy(data[0:8], discriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], first)
	binary.LittleEndian.PutUint64(data[16:24], second)
	return data
}

// BuildBuyInstruction buys exactly baseAmountOut, spending at most maxQuoteAmountIn.
func BuildBuyInstruction(a SwapAccounts, baseAmountOut, maxQuoteAmountIn uint64) (solana.Instruction, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		constants.PumpAMMProgramID,
		a.Metas(),
		EncodeSwapData(BuyDiscriminator, baseAmountOut, maxQuoteAmountIn),
	), nil
}

// BuildSellInstruction sells exactly baseAmountIn, receiving at least minQuoteAmountOut.
func BuildSellInstruction(a SwapAccounts, baseAmountIn, minQuoteAmountOut uint64) (solana.Instruction, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		constants.PumpAMMProgramID,
		a.Metas(),
		EncodeSwapData(SellDiscriminator, baseAmountIn, minQuoteAmountOut),
	), nil
}
