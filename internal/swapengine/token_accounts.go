package swapengine

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// ResolvedTokenAccount describes a token account to use for a swap plus any
// instructions needed to make it usable (e.g. create ATA).
type ResolvedTokenAccount struct {
	Account solana.PublicKey
	Created bool // true if PreIxs creates the account
	PreIxs  []solana.Instruction
}

// TokenAccountResolver resolves the owner's ATA for a mint under its token program.
type TokenAccountResolver struct {
	client ChainClient
}

func NewTokenAccountResolver(client ChainClient) *TokenAccountResolver {
	return &TokenAccountResolver{client: client}
}

// Resolve returns the ATA and, when it does not exist yet, the instruction
// creating it with owner as payer.
func (r *TokenAccountResolver) Resolve(ctx context.Context, owner solana.PublicKey, base TokenInfo) (*ResolvedTokenAccount, error) {
	ata, _, err := pumpswap.FindAssociatedTokenAddress(owner, base.Mint, base.Program)
	if err != nil {
		return nil, err
	}

	_, err = r.client.GetAccount(ctx, ata)
	switch {
	case err == nil:
		return &ResolvedTokenAccount{Account: ata, Created: false}, nil
	case rpc.IsNotFound(err):
		createATA := NewCreateAssociatedTokenAccountIx(owner, ata, owner, base.Mint, base.Program)
		return &ResolvedTokenAccount{
			Account: ata,
			Created: true,
			PreIxs:  []solana.Instruction{createATA},
		}, nil
	default:
		return nil, fmt.Errorf("check token account %s: %w", ata, err)
	}
}

// TempAccount is a single-use wrapped-SOL account created from a seed.
type TempAccount struct {
	Address  solana.PublicKey
	Seed     string
	Lamports uint64
	SetupIxs []solana.Instruction
	CloseIx  solana.Instruction
}

// SeedFunc produces the seed of a temporary account.
type SeedFunc func() (string, error)

// RandomSeed returns a 32-character URL-safe seed from 24 random bytes.
func RandomSeed() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// NewTempWSOLAccount plans a wrapped-SOL account funded with lamports, owned
// and closed back to owner.
func NewTempWSOLAccount(owner solana.PublicKey, seed string, lamports uint64) (*TempAccount, error) {
	addr, err := pumpswap.TempAccountAddress(owner, seed, constants.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive temp account: %w", err)
	}

	create, err := NewCreateAccountWithSeedIx(owner, seed, lamports, addr)
	if err != nil {
		return nil, err
	}
	initIx, err := NewInitializeAccountIx(addr, constants.WrappedSOLMint, owner)
	if err != nil {
		return nil, err
	}

	return &TempAccount{
		Address:  addr,
		Seed:     seed,
		Lamports: lamports,
		SetupIxs: []solana.Instruction{create, initIx},
		CloseIx:  NewTokenCloseAccountIx(constants.TokenProgramID, addr, owner, owner),
	}, nil
}
