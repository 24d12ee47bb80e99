package swapengine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/models"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// ChainClient is the blockchain access the engine needs. *rpc.Client
// implements it; tests use an in-memory fake.
type ChainClient interface {
	GetAccount(ctx context.Context, address solana.PublicKey) (*rpc.AccountInfo, error)
	GetAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*rpc.AccountInfo, error)
	SearchProgramAccounts(ctx context.Context, program solana.PublicKey, filters []rpc.MemcmpFilter) ([]*rpc.AccountInfo, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	FindTokenAccountsByOwner(ctx context.Context, owner, mint, tokenProgram solana.PublicKey) ([]solana.PublicKey, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulationResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatus, error)
}

// Signer holds the fee-payer key.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTx(tx *solana.Transaction) error
}

// PairCache remembers which pool was chosen for a mint.
type PairCache interface {
	GetPool(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, bool, error)
	SetPool(ctx context.Context, mint, pool solana.PublicKey) error
}

// EventPublisher receives confirmed swaps. Publishing is best-effort.
type EventPublisher interface {
	PublishSwap(ctx context.Context, ev *models.SwapEvent) error
}

// FlagReader reads boolean feature flags.
type FlagReader interface {
	IsEnabled(ctx context.Context, key string, def bool) (bool, error)
}

// Recorder observes engine activity for metrics.
type Recorder interface {
	ObserveSwap(side, outcome string, d time.Duration)
	ObserveQuote(side, outcome string)
	ObservePairSearch(candidates int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSwap(string, string, time.Duration) {}
func (nopRecorder) ObserveQuote(string, string)               {}
func (nopRecorder) ObservePairSearch(int)                     {}
