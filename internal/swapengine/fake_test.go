package swapengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/models"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/wallet"
)

// fakeChain is an in-memory ChainClient.
type fakeChain struct {
	mu sync.Mutex

	accounts      map[solana.PublicKey]*rpc.AccountInfo
	ownedAccounts map[solana.PublicKey][]solana.PublicKey // vault authority -> WSOL accounts
	rent          uint64
	blockhash     solana.Hash

	statuses  []*rpc.SignatureStatus // consumed in order, last one repeats
	sendErr   error
	simResult *rpc.SimulationResult

	sent      []*solana.Transaction
	simulated int
	reads     int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts:      make(map[solana.PublicKey]*rpc.AccountInfo),
		ownedAccounts: make(map[solana.PublicKey][]solana.PublicKey),
		rent:          2_039_280,
		blockhash:     solana.Hash{1, 2, 3},
		statuses:      []*rpc.SignatureStatus{{Slot: 42, ConfirmationStatus: "confirmed"}},
	}
}

func (f *fakeChain) put(address, owner solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[address] = &rpc.AccountInfo{Address: address, Owner: owner, Lamports: 1, Data: data}
}

func (f *fakeChain) remove(address solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, address)
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeChain) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeChain) GetAccount(_ context.Context, address solana.PublicKey) (*rpc.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	acc, ok := f.accounts[address]
	if !ok {
		return nil, rpc.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeChain) GetAccounts(_ context.Context, addresses []solana.PublicKey) ([]*rpc.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	out := make([]*rpc.AccountInfo, len(addresses))
	for i, a := range addresses {
		out[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeChain) SearchProgramAccounts(_ context.Context, program solana.PublicKey, filters []rpc.MemcmpFilter) ([]*rpc.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	var out []*rpc.AccountInfo
	for _, acc := range f.accounts {
		if !acc.Owner.Equals(program) || !matches(acc.Data, filters) {
			continue
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.String() < out[j].Address.String() })
	return out, nil
}

func matches(data []byte, filters []rpc.MemcmpFilter) bool {
	for _, flt := range filters {
		end := flt.Offset + uint64(len(flt.Bytes))
		if end > uint64(len(data)) || !bytes.Equal(data[flt.Offset:end], flt.Bytes) {
			return false
		}
	}
	return true
}

func (f *fakeChain) GetTokenAccountBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	acc, ok := f.accounts[account]
	if !ok {
		return 0, rpc.ErrAccountNotFound
	}
	ta, err := pumpswap.DecodeTokenAccount(acc.Data)
	if err != nil {
		return 0, err
	}
	return ta.Amount, nil
}

func (f *fakeChain) FindTokenAccountsByOwner(_ context.Context, owner, _, _ solana.PublicKey) ([]solana.PublicKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.ownedAccounts[owner], nil
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	return f.rent, nil
}

func (f *fakeChain) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, nil
}

func (f *fakeChain) SimulateTransaction(_ context.Context, _ *solana.Transaction) (*rpc.SimulationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulated++
	if f.simResult == nil {
		return &rpc.SimulationResult{UnitsConsumed: 12_345}, nil
	}
	return f.simResult, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeChain) GetSignatureStatus(context.Context, solana.Signature) (*rpc.SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return nil, nil
	}
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

type fakeFlags struct {
	enabled bool
	err     error
}

func (f fakeFlags) IsEnabled(context.Context, string, bool) (bool, error) {
	return f.enabled, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.SwapEvent
	err    error
}

func (p *fakePublisher) PublishSwap(_ context.Context, ev *models.SwapEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fakePairCache struct {
	pools map[solana.PublicKey]solana.PublicKey
	err   error
}

func (c *fakePairCache) GetPool(_ context.Context, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	if c.err != nil {
		return solana.PublicKey{}, false, c.err
	}
	p, ok := c.pools[mint]
	return p, ok, nil
}

func (c *fakePairCache) SetPool(_ context.Context, mint, pool solana.PublicKey) error {
	if c.err != nil {
		return c.err
	}
	c.pools[mint] = pool
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	swaps  []string
	quotes []string
	pairs  []int
}

func (r *fakeRecorder) ObserveSwap(side, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swaps = append(r.swaps, side+":"+outcome)
}

func (r *fakeRecorder) ObserveQuote(side, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes = append(r.quotes, side+":"+outcome)
}

func (r *fakeRecorder) ObservePairSearch(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, n)
}

var errBoom = errors.New("boom")

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

func encodeTokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, constants.TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1 // initialized
	return data
}

func encodeMint(decimals uint8) []byte {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000_000_000)
	data[44] = decimals
	data[45] = 1
	return data
}

type poolFixture struct {
	address    solana.PublicKey
	creator    solana.PublicKey
	baseMint   solana.PublicKey
	quoteMint  solana.PublicKey
	baseVault  solana.PublicKey
	quoteVault solana.PublicKey
}

// encode lays out a current-layout pool account.
func (p poolFixture) encode() []byte {
	data := make([]byte, pumpswap.CurrentPoolSchema.Size())
	copy(data[0:8], []byte{0xf1, 0x9a, 0x6d, 0x04, 0x11, 0xb1, 0x6d, 0xbc})
	data[8] = 255
	binary.LittleEndian.PutUint16(data[9:11], 0)
	copy(data[11:43], p.creator[:])
	copy(data[43:75], p.baseMint[:])
	copy(data[75:107], p.quoteMint[:])
	copy(data[139:171], p.baseVault[:])
	copy(data[171:203], p.quoteVault[:])
	binary.LittleEndian.PutUint64(data[203:211], 1_000_000)
	copy(data[211:243], p.creator[:])
	return data
}

// world is a funded wallet plus one SOL-quoted pool on a fake chain.
type world struct {
	chain    *fakeChain
	signer   *wallet.Wallet
	pool     poolFixture
	vault    pumpswap.CreatorVault
	userBase solana.PublicKey
}

const (
	fixtureBaseReserve  = 1_000_000_000_000
	fixtureQuoteReserve = 500_000_000_000
)

func newWorld(t *testing.T) *world {
	t.Helper()

	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w := &world{chain: newFakeChain(), signer: wallet.FromPrivateKey(priv)}
	w.pool = poolFixture{
		address:    newKey(t),
		creator:    newKey(t),
		baseMint:   newKey(t),
		quoteMint:  constants.WrappedSOLMint,
		baseVault:  newKey(t),
		quoteVault: newKey(t),
	}
	w.addPool(w.pool, fixtureBaseReserve, fixtureQuoteReserve)
	w.chain.put(w.pool.baseMint, constants.TokenProgramID, encodeMint(6))

	authority, _, err := pumpswap.CreatorVaultAuthority(w.pool.creator)
	require.NoError(t, err)
	w.vault = pumpswap.CreatorVault{Authority: authority, TokenAccount: newKey(t)}
	w.chain.ownedAccounts[authority] = []solana.PublicKey{w.vault.TokenAccount}

	w.userBase, _, err = pumpswap.FindAssociatedTokenAddress(w.signer.PublicKey(), w.pool.baseMint, constants.TokenProgramID)
	require.NoError(t, err)
	return w
}

func (w *world) addPool(p poolFixture, base, quote uint64) {
	w.chain.put(p.address, constants.PumpAMMProgramID, p.encode())
	w.chain.put(p.baseVault, constants.TokenProgramID, encodeTokenAccount(p.baseMint, p.address, base))
	w.chain.put(p.quoteVault, constants.TokenProgramID, encodeTokenAccount(p.quoteMint, p.address, quote))
}

func (w *world) fundBase(amount uint64) {
	w.chain.put(w.userBase, constants.TokenProgramID, encodeTokenAccount(w.pool.baseMint, w.signer.PublicKey(), amount))
}

const fixedSeed = "seedseedseedseedseedseedseedseed"

func (w *world) engine(cfg EngineConfig, opts ...Option) *Engine {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	opts = append([]Option{WithSeedFunc(func() (string, error) { return fixedSeed, nil })}, opts...)
	return NewEngine(w.chain, w.signer, cfg, opts...)
}

// programOrder resolves the program id of every compiled instruction.
func programOrder(t *testing.T, tx *solana.Transaction) []solana.PublicKey {
	t.Helper()
	out := make([]solana.PublicKey, 0, len(tx.Message.Instructions))
	for _, ci := range tx.Message.Instructions {
		require.Less(t, int(ci.ProgramIDIndex), len(tx.Message.AccountKeys))
		out = append(out, tx.Message.AccountKeys[ci.ProgramIDIndex])
	}
	return out
}
