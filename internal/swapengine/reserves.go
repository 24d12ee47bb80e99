package swapengine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// ReadReserves fetches both pool vaults in one batched call and returns their
// raw token balances.
func ReadReserves(ctx context.Context, client ChainClient, pool *pumpswap.PoolState) (pumpswap.Reserves, error) {
	accs, err := client.GetAccounts(ctx, []solana.PublicKey{pool.BaseVault, pool.QuoteVault})
	if err != nil {
		return pumpswap.Reserves{}, fmt.Errorf("%w: pool %s: %w", pumpswap.ErrReserveUnavailable, pool.Address, err)
	}
	if len(accs) != 2 {
		return pumpswap.Reserves{}, fmt.Errorf("%w: pool %s: expected 2 vault accounts, got %d", pumpswap.ErrReserveUnavailable, pool.Address, len(accs))
	}

	base, err := vaultAmount(accs[0], pool.BaseVault, pool.BaseMint)
	if err != nil {
		return pumpswap.Reserves{}, err
	}
	quote, err := vaultAmount(accs[1], pool.QuoteVault, pool.QuoteMint)
	if err != nil {
		return pumpswap.Reserves{}, err
	}

	return pumpswap.Reserves{Base: base, Quote: quote}, nil
}

func vaultAmount(acc *rpc.AccountInfo, vault, mint solana.PublicKey) (uint64, error) {
	if acc == nil {
		return 0, fmt.Errorf("%w: vault %s missing", pumpswap.ErrReserveUnavailable, vault)
	}

	ta, err := pumpswap.DecodeTokenAccount(acc.Data)
	if err != nil {
		return 0, fmt.Errorf("%w: vault %s: %w", pumpswap.ErrReserveUnavailable, vault, err)
	}
	if !ta.Mint.Equals(mint) {
		return 0, fmt.Errorf("%w: vault %s holds mint %s, want %s", pumpswap.ErrReserveUnavailable, vault, ta.Mint, mint)
	}
	return ta.Amount, nil
}
