package swapengine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
)

// ResolveCreatorVault derives the creator vault authority and looks up its
// wrapped-SOL token account.
func ResolveCreatorVault(ctx context.Context, client ChainClient, creator solana.PublicKey) (pumpswap.CreatorVault, error) {
	if creator.IsZero() {
		return pumpswap.CreatorVault{}, fmt.Errorf("%w: pool has no creator", pumpswap.ErrVaultNotFound)
	}

	authority, _, err := pumpswap.CreatorVaultAuthority(creator)
	if err != nil {
		return pumpswap.CreatorVault{}, fmt.Errorf("%w: derive authority for %s: %w", pumpswap.ErrVaultNotFound, creator, err)
	}

	accounts, err := client.FindTokenAccountsByOwner(ctx, authority, constants.WrappedSOLMint, constants.TokenProgramID)
	if err != nil {
		return pumpswap.CreatorVault{}, fmt.Errorf("%w: authority %s: %w", pumpswap.ErrVaultNotFound, authority, err)
	}
	if len(accounts) == 0 {
		return pumpswap.CreatorVault{}, fmt.Errorf("%w: authority %s has no wrapped SOL account", pumpswap.ErrVaultNotFound, authority)
	}

	return pumpswap.CreatorVault{Authority: authority, TokenAccount: accounts[0]}, nil
}
