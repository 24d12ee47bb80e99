package swapengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/models"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// Engine is the main orchestrator for swap operations
type Engine struct {
	client        ChainClient
	signer        Signer
	submitter     *Submitter
	tokenAccounts *TokenAccountResolver
	decision      *DecisionEngine
	cfg           EngineConfig

	pairs   PairCache
	events  EventPublisher
	flags   FlagReader
	metrics Recorder
	seedFn  SeedFunc
	logger  *logrus.Logger
}

// EngineConfig holds configuration for the swap engine
type EngineConfig struct {
	Layout pumpswap.Layout

	// Compute budget
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64 // micro-lamports per unit

	// Confirmation
	Commitment        string
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	RequireSimulation bool

	Risk   RiskConfig
	Logger *logrus.Logger
}

// DefaultEngineConfig returns sensible defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Layout:           pumpswap.LayoutAuto,
		ComputeUnitLimit: constants.DefaultComputeUnitLimit,
		ComputeUnitPrice: constants.DefaultComputeUnitPrice,
		Commitment:       "confirmed",
		ConfirmTimeout:   constants.DefaultConfirmTimeout,
		PollInterval:     500 * time.Millisecond,
		Risk:             DefaultRiskConfig(),
	}
}

// Option customises an Engine.
type Option func(*Engine)

func WithPairCache(c PairCache) Option          { return func(e *Engine) { e.pairs = c } }
func WithEventPublisher(p EventPublisher) Option { return func(e *Engine) { e.events = p } }
func WithFlags(f FlagReader) Option              { return func(e *Engine) { e.flags = f } }
func WithRecorder(r Recorder) Option             { return func(e *Engine) { e.metrics = r } }

// WithSeedFunc replaces the random temp-account seed source.
func WithSeedFunc(fn SeedFunc) Option { return func(e *Engine) { e.seedFn = fn } }

// NewEngine wires an engine around a chain client and the fee-payer signer.
func NewEngine(client ChainClient, signer Signer, cfg EngineConfig, opts ...Option) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Layout == "" {
		cfg.Layout = pumpswap.LayoutAuto
	}
	if cfg.ComputeUnitLimit == 0 {
		cfg.ComputeUnitLimit = constants.DefaultComputeUnitLimit
	}

	e := &Engine{
		client: client,
		signer: signer,
		submitter: NewSubmitter(client, signer, SubmitterConfig{
			Commitment:        cfg.Commitment,
			ConfirmTimeout:    cfg.ConfirmTimeout,
			PollInterval:      cfg.PollInterval,
			RequireSimulation: cfg.RequireSimulation,
			Logger:            cfg.Logger,
		}),
		tokenAccounts: NewTokenAccountResolver(client),
		decision:      NewDecisionEngine(cfg.Risk),
		cfg:           cfg,
		metrics:       nopRecorder{},
		seedFn:        RandomSeed,
		logger:        cfg.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wallet returns the fee payer address.
func (e *Engine) Wallet() solana.PublicKey { return e.signer.PublicKey() }

// LoadPool fetches and decodes a pool account owned by the AMM program.
func (e *Engine) LoadPool(ctx context.Context, address solana.PublicKey) (*pumpswap.PoolState, error) {
	acc, err := e.client.GetAccount(ctx, address)
	if err != nil {
		if rpc.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", pumpswap.ErrPoolNotFound, address)
		}
		return nil, fmt.Errorf("fetch pool %s: %w", address, err)
	}
	if !acc.Owner.Equals(constants.PumpAMMProgramID) {
		return nil, fmt.Errorf("%w: %s is owned by %s", pumpswap.ErrPoolNotFound, address, acc.Owner)
	}

	pool, err := pumpswap.DecodePool(address, acc.Data, e.cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pumpswap.ErrPoolNotFound, err)
	}
	return pool, nil
}

// LoadMarket resolves pool, creator vault, base token metadata and reserves.
func (e *Engine) LoadMarket(ctx context.Context, address solana.PublicKey) (*Market, error) {
	pool, err := e.LoadPool(ctx, address)
	if err != nil {
		return nil, err
	}

	if !pool.QuoteMint.Equals(constants.WrappedSOLMint) {
		return nil, fmt.Errorf("%w: pool %s is not quoted in wrapped SOL", pumpswap.ErrValidation, address)
	}

	vault, err := ResolveCreatorVault(ctx, e.client, pool.Creator())
	if err != nil {
		return nil, err
	}

	m := &Market{Pool: pool, Vault: vault}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := e.tokenInfo(gctx, pool.BaseMint)
		if err != nil {
			return err
		}
		m.Base = info
		return nil
	})
	g.Go(func() error {
		r, err := ReadReserves(gctx, e.client, pool)
		if err != nil {
			return err
		}
		m.Reserves = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m, nil
}

// tokenInfo reads the owning program and decimals of a mint.
func (e *Engine) tokenInfo(ctx context.Context, mint solana.PublicKey) (TokenInfo, error) {
	acc, err := e.client.GetAccount(ctx, mint)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("fetch mint %s: %w", mint, err)
	}
	if !acc.Owner.Equals(constants.TokenProgramID) && !acc.Owner.Equals(constants.Token2022ProgramID) {
		return TokenInfo{}, fmt.Errorf("%w: mint %s owned by %s", pumpswap.ErrValidation, mint, acc.Owner)
	}

	decimals, err := pumpswap.DecodeMintDecimals(acc.Data)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("mint %s: %w", mint, err)
	}
	return TokenInfo{Mint: mint, Program: acc.Owner, Decimals: decimals}, nil
}

// QuoteBuy prices spending lamportsIn on pool without submitting anything.
func (e *Engine) QuoteBuy(ctx context.Context, pool solana.PublicKey, lamportsIn uint64, slippagePct float64) (*QuoteResult, error) {
	q, _, err := e.quoteBuy(ctx, pool, lamportsIn, slippagePct)
	e.metrics.ObserveQuote(string(SideBuy), outcomeOf(err))
	return q, err
}

// QuoteSell prices selling pct percent of the wallet's base balance.
func (e *Engine) QuoteSell(ctx context.Context, pool solana.PublicKey, pct uint8, slippagePct float64) (*QuoteResult, error) {
	q, _, err := e.quoteSell(ctx, pool, pct, slippagePct)
	e.metrics.ObserveQuote(string(SideSell), outcomeOf(err))
	return q, err
}

func (e *Engine) quoteBuy(ctx context.Context, pool solana.PublicKey, lamportsIn uint64, slippagePct float64) (*QuoteResult, *Market, error) {
	bps, err := e.decision.ValidateBuy(lamportsIn, slippagePct)
	if err != nil {
		return nil, nil, err
	}

	m, err := e.LoadMarket(ctx, pool)
	if err != nil {
		return nil, nil, err
	}

	bq, err := pumpswap.QuoteBuy(lamportsIn, bps, m.Reserves)
	if err != nil {
		return nil, nil, err
	}

	return &QuoteResult{
		Side:     SideBuy,
		Pool:     m.Pool.Address,
		BaseMint: m.Pool.BaseMint,
		Decimals: m.Base.Decimals,
		Buy:      bq,
		QuotedAt: time.Now().UTC(),
	}, m, nil
}

func (e *Engine) quoteSell(ctx context.Context, pool solana.PublicKey, pct uint8, slippagePct float64) (*QuoteResult, *Market, error) {
	bps, err := e.decision.ValidateSell(pct, slippagePct)
	if err != nil {
		return nil, nil, err
	}

	m, err := e.LoadMarket(ctx, pool)
	if err != nil {
		return nil, nil, err
	}

	userBase, _, err := pumpswap.FindAssociatedTokenAddress(e.signer.PublicKey(), m.Base.Mint, m.Base.Program)
	if err != nil {
		return nil, nil, fmt.Errorf("derive base token account: %w", err)
	}
	holding, err := e.client.GetTokenAccountBalance(ctx, userBase)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read balance of %s: %w", pumpswap.ErrValidation, userBase, err)
	}

	sq, err := pumpswap.QuoteSell(holding, pct, bps, m.Reserves)
	if err != nil {
		return nil, nil, err
	}

	return &QuoteResult{
		Side:     SideSell,
		Pool:     m.Pool.Address,
		BaseMint: m.Pool.BaseMint,
		Decimals: m.Base.Decimals,
		Sell:     sq,
		QuotedAt: time.Now().UTC(),
	}, m, nil
}

// Buy spends lamportsIn of wrapped SOL for the pool's base token.
func (e *Engine) Buy(ctx context.Context, pool solana.PublicKey, lamportsIn uint64, slippagePct float64) (*SwapResult, error) {
	return e.execute(ctx, SideBuy, func(ctx context.Context) (*QuoteResult, *Market, error) {
		return e.quoteBuy(ctx, pool, lamportsIn, slippagePct)
	})
}

// Sell sells pct percent of the wallet's base token balance for SOL.
func (e *Engine) Sell(ctx context.Context, pool solana.PublicKey, pct uint8, slippagePct float64) (*SwapResult, error) {
	return e.execute(ctx, SideSell, func(ctx context.Context) (*QuoteResult, *Market, error) {
		return e.quoteSell(ctx, pool, pct, slippagePct)
	})
}

type quoteFunc func(ctx context.Context) (*QuoteResult, *Market, error)

func (e *Engine) execute(ctx context.Context, side Side, quote quoteFunc) (*SwapResult, error) {
	start := time.Now()
	result := &SwapResult{
		ExecutionID: fmt.Sprintf("%s-%d", side, start.UnixNano()),
		Side:        side,
	}
	log := e.logger.WithFields(logrus.Fields{
		"execution_id": result.ExecutionID,
		"side":         side,
	})

	fail := func(err error) (*SwapResult, error) {
		result.Success = false
		result.Error = err.Error()
		result.Duration = time.Since(start)
		e.metrics.ObserveSwap(string(side), outcomeOf(err), result.Duration)
		log.WithError(err).Warn("swap aborted")
		return result, err
	}

	if err := e.checkTradingEnabled(ctx); err != nil {
		return fail(err)
	}

	q, m, err := quote(ctx)
	if err != nil {
		return fail(err)
	}
	result.Quote = q
	result.ExpectedOut = q.ExpectedOut()

	log = log.WithFields(logrus.Fields{
		"pool":         q.Pool.String(),
		"amount_in":    q.AmountIn(),
		"expected_out": q.ExpectedOut(),
		"bound":        q.Bound(),
	})
	log.Info("quote computed")

	plan, err := e.plan(ctx, q, m)
	if err != nil {
		return fail(err)
	}
	result.TempAccount = plan.temp.Address.String()
	result.CreatedATA = plan.destination != nil && plan.destination.Created
	result.ClosedBase = plan.closeBase != nil

	ixs, err := plan.instructions()
	if err != nil {
		return fail(err)
	}

	sub, err := e.submitter.Submit(ctx, ixs)
	if sub != nil {
		result.Signature = sub.Signature.String()
		result.SimulationUnits = sub.SimulationUnits
	}
	if err != nil {
		return fail(err)
	}

	result.Success = true
	result.Duration = time.Since(start)
	e.metrics.ObserveSwap(string(side), "success", result.Duration)
	log.WithFields(logrus.Fields{
		"signature": result.Signature,
		"slot":      sub.Slot,
		"duration":  result.Duration,
	}).Info("swap confirmed")

	e.publish(ctx, q, result)
	return result, nil
}

// plan resolves accounts and builds every instruction of the swap.
func (e *Engine) plan(ctx context.Context, q *QuoteResult, m *Market) (*txPlan, error) {
	owner := e.signer.PublicKey()

	rent, err := e.client.GetMinimumBalanceForRentExemption(ctx, constants.TokenAccountSize)
	if err != nil {
		return nil, fmt.Errorf("rent exemption: %w", err)
	}

	seed, err := e.seedFn()
	if err != nil {
		return nil, fmt.Errorf("temp account seed: %w", err)
	}

	p := &txPlan{
		computeUnitLimit: e.cfg.ComputeUnitLimit,
		computeUnitPrice: e.cfg.ComputeUnitPrice,
	}

	switch q.Side {
	case SideBuy:
		dest, err := e.tokenAccounts.Resolve(ctx, owner, m.Base)
		if err != nil {
			return nil, err
		}
		p.destination = dest

		temp, err := NewTempWSOLAccount(owner, seed, q.Buy.MaxQuoteIn+rent)
		if err != nil {
			return nil, err
		}
		p.temp = temp

		accounts := pumpswap.NewSwapAccounts(m.Pool, owner, dest.Account, temp.Address, m.Base.Program, m.Vault)
		p.swap, err = pumpswap.BuildBuyInstruction(accounts, q.Buy.BaseOut, q.Buy.MaxQuoteIn)
		if err != nil {
			return nil, err
		}

	case SideSell:
		userBase, _, err := pumpswap.FindAssociatedTokenAddress(owner, m.Base.Mint, m.Base.Program)
		if err != nil {
			return nil, fmt.Errorf("derive base token account: %w", err)
		}

		temp, err := NewTempWSOLAccount(owner, seed, rent)
		if err != nil {
			return nil, err
		}
		p.temp = temp

		accounts := pumpswap.NewSwapAccounts(m.Pool, owner, userBase, temp.Address, m.Base.Program, m.Vault)
		p.swap, err = pumpswap.BuildSellInstruction(accounts, q.Sell.BaseIn, q.Sell.MinQuoteOut)
		if err != nil {
			return nil, err
		}
		if q.Sell.FullExit() {
			p.closeBase = NewTokenCloseAccountIx(m.Base.Program, userBase, owner, owner)
		}

	default:
		return nil, fmt.Errorf("%w: unknown side %q", pumpswap.ErrValidation, q.Side)
	}

	return p, nil
}

// checkTradingEnabled fails closed: an unreadable flag blocks trading.
func (e *Engine) checkTradingEnabled(ctx context.Context) error {
	if e.flags == nil {
		return nil
	}
	enabled, err := e.flags.IsEnabled(ctx, constants.FlagTradingEnabled, true)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", pumpswap.ErrValidation, constants.FlagTradingEnabled, err)
	}
	if !enabled {
		return fmt.Errorf("%w: trading disabled by %s", pumpswap.ErrValidation, constants.FlagTradingEnabled)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, q *QuoteResult, res *SwapResult) {
	if e.events == nil {
		return
	}

	ev := &models.SwapEvent{
		Signature:   res.Signature,
		Timestamp:   time.Now().UTC(),
		Side:        string(q.Side),
		Pool:        q.Pool.String(),
		BaseMint:    q.BaseMint.String(),
		QuoteMint:   constants.WrappedSOLMint.String(),
		Pair:        constants.SymbolFor(q.BaseMint) + "/" + constants.SymbolFor(constants.WrappedSOLMint),
		AmountIn:    q.AmountIn(),
		ExpectedOut: q.ExpectedOut(),
		Bound:       q.Bound(),
		Wallet:      e.signer.PublicKey().String(),
		Dex:         "pumpswap",
	}
	if err := e.events.PublishSwap(ctx, ev); err != nil {
		e.logger.WithError(err).WithField("signature", res.Signature).Warn("publish swap event failed")
	}
}

// outcomeOf maps an error onto a metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, pumpswap.ErrValidation):
		return "validation"
	case errors.Is(err, pumpswap.ErrPoolNotFound):
		return "pool_not_found"
	case errors.Is(err, pumpswap.ErrVaultNotFound):
		return "vault_not_found"
	case errors.Is(err, pumpswap.ErrReserveUnavailable):
		return "reserve_unavailable"
	case errors.Is(err, pumpswap.ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, pumpswap.ErrSubmission):
		return "submission"
	default:
		return "error"
	}
}
