package swapengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// PairCandidate is one pool found for a mint, with the reserves it was scored on.
type PairCandidate struct {
	Pool     *pumpswap.PoolState `json:"pool"`
	Reserves pumpswap.Reserves   `json:"reserves"`
}

// PairLookup is the outcome of FindPoolByMint.
type PairLookup struct {
	Mint       solana.PublicKey `json:"mint"`
	Pool       solana.PublicKey `json:"pool"`
	Cached     bool             `json:"cached"`
	Candidates []PairCandidate  `json:"candidates,omitempty"`
}

// FindPoolByMint locates the mint/WSOL pool with the deepest liquidity. Both
// orientations of the pair are searched; pools whose reserves cannot be read
// are skipped.
func (e *Engine) FindPoolByMint(ctx context.Context, mint solana.PublicKey) (*PairLookup, error) {
	if mint.IsZero() {
		return nil, fmt.Errorf("%w: mint is zero", pumpswap.ErrValidation)
	}

	if hit, ok := e.cachedPair(ctx, mint); ok {
		return hit, nil
	}

	candidates, err := e.searchPools(ctx, mint)
	if err != nil {
		return nil, err
	}
	e.metrics.ObservePairSearch(len(candidates))

	scored := e.scorePools(ctx, candidates)
	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: no readable pool pairs %s with WSOL", pumpswap.ErrPoolNotFound, mint)
	}

	best := 0
	bestDepth := depth(scored[0].Reserves)
	for i := 1; i < len(scored); i++ {
		if d := depth(scored[i].Reserves); d.Gt(bestDepth) {
			best, bestDepth = i, d
		}
	}

	lookup := &PairLookup{Mint: mint, Pool: scored[best].Pool.Address, Candidates: scored}

	if e.pairs != nil {
		if err := e.pairs.SetPool(ctx, mint, lookup.Pool); err != nil {
			e.logger.WithError(err).WithField("mint", mint.String()).Warn("pair cache write failed")
		}
	}
	return lookup, nil
}

// cachedPair returns a cached pool only if it still decodes and holds mint.
func (e *Engine) cachedPair(ctx context.Context, mint solana.PublicKey) (*PairLookup, bool) {
	if e.pairs == nil {
		return nil, false
	}

	pool, ok, err := e.pairs.GetPool(ctx, mint)
	if err != nil {
		e.logger.WithError(err).WithField("mint", mint.String()).Debug("pair cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	state, err := e.LoadPool(ctx, pool)
	if err != nil || !state.HasMint(mint) {
		return nil, false
	}
	return &PairLookup{Mint: mint, Pool: pool, Cached: true}, true
}

func (e *Engine) searchPools(ctx context.Context, mint solana.PublicKey) ([]*pumpswap.PoolState, error) {
	orientations := [][]rpc.MemcmpFilter{
		{
			{Offset: pumpswap.BaseMintOffset, Bytes: mint.Bytes()},
			{Offset: pumpswap.QuoteMintOffset, Bytes: constants.WrappedSOLMint.Bytes()},
		},
		{
			{Offset: pumpswap.BaseMintOffset, Bytes: constants.WrappedSOLMint.Bytes()},
			{Offset: pumpswap.QuoteMintOffset, Bytes: mint.Bytes()},
		},
	}

	results := make([][]*rpc.AccountInfo, len(orientations))
	g, gctx := errgroup.WithContext(ctx)
	for i, filters := range orientations {
		i, filters := i, filters // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			accs, err := e.client.SearchProgramAccounts(gctx, constants.PumpAMMProgramID, filters)
			if err != nil {
				return fmt.Errorf("search pools for %s: %w", mint, err)
			}
			results[i] = accs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pools []*pumpswap.PoolState
	seen := make(map[solana.PublicKey]bool)
	for _, accs := range results {
		for _, acc := range accs {
			if acc == nil || seen[acc.Address] {
				continue
			}
			seen[acc.Address] = true

			pool, err := pumpswap.DecodePool(acc.Address, acc.Data, e.cfg.Layout)
			if err != nil {
				e.logger.WithError(err).Debug("skipping undecodable pool")
				continue
			}
			pools = append(pools, pool)
		}
	}
	return pools, nil
}

// scorePools reads reserves of every candidate concurrently, keeping the
// search order.
func (e *Engine) scorePools(ctx context.Context, pools []*pumpswap.PoolState) []PairCandidate {
	slots := make([]*PairCandidate, len(pools))

	var wg sync.WaitGroup
	for i, pool := range pools {
		i, pool := i, pool // per-iteration copies (go directive < 1.22)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := ReadReserves(ctx, e.client, pool)
			if err != nil {
				e.logger.WithError(err).WithField("pool", pool.Address.String()).Debug("skipping pool")
				return
			}
			slots[i] = &PairCandidate{Pool: pool, Reserves: r}
		}()
	}
	wg.Wait()

	out := make([]PairCandidate, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// depth is the constant product base*quote of a reserve pair.
func depth(r pumpswap.Reserves) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(r.Base), uint256.NewInt(r.Quote))
}
