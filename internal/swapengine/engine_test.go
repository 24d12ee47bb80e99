package swapengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func TestEngineLoadMarket(t *testing.T) {
	w := newWorld(t)
	e := w.engine(DefaultEngineConfig())

	m, err := e.LoadMarket(context.Background(), w.pool.address)
	require.NoError(t, err)

	assert.Equal(t, w.pool.baseMint, m.Pool.BaseMint)
	assert.Equal(t, pumpswap.LayoutCurrent, m.Pool.Layout)
	assert.Equal(t, w.vault, m.Vault)
	assert.Equal(t, TokenInfo{Mint: w.pool.baseMint, Program: constants.TokenProgramID, Decimals: 6}, m.Base)
	assert.Equal(t, pumpswap.Reserves{Base: fixtureBaseReserve, Quote: fixtureQuoteReserve}, m.Reserves)
}

func TestEngineQuoteBuy(t *testing.T) {
	w := newWorld(t)
	rec := &fakeRecorder{}
	e := w.engine(DefaultEngineConfig(), WithRecorder(rec))

	q, err := e.QuoteBuy(context.Background(), w.pool.address, 1_000_000_000, 5)
	require.NoError(t, err)

	require.NotNil(t, q.Buy)
	assert.Equal(t, SideBuy, q.Side)
	assert.Equal(t, uint64(1_996_007_985), q.ExpectedOut())
	assert.Equal(t, uint64(1_050_000_000), q.Bound())
	assert.Equal(t, uint64(500), q.Buy.SlippageBps)
	assert.Equal(t, uint8(6), q.Decimals)
	assert.Equal(t, []string{"buy:success"}, rec.quotes)
	assert.Zero(t, w.chain.sentCount())
}

func TestEngineBuy(t *testing.T) {
	w := newWorld(t)
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	e := w.engine(DefaultEngineConfig(), WithEventPublisher(pub), WithRecorder(rec))

	res, err := e.Buy(context.Background(), w.pool.address, 1_000_000_000, 5)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.True(t, res.CreatedATA)
	assert.False(t, res.ClosedBase)
	assert.Equal(t, uint64(1_996_007_985), res.ExpectedOut)

	temp, err := solana.CreateWithSeed(w.signer.PublicKey(), fixedSeed, constants.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, temp.String(), res.TempAccount)

	require.Equal(t, 1, w.chain.sentCount())
	tx := w.chain.sent[0]
	assert.Equal(t, res.Signature, tx.Signatures[0].String())
	assert.Equal(t, w.chain.blockhash, tx.Message.RecentBlockhash)
	assert.Equal(t, w.signer.PublicKey(), tx.Message.AccountKeys[0])
	require.NoError(t, tx.VerifySignatures())

	assert.Equal(t, []solana.PublicKey{
		constants.ComputeBudgetProgramID,
		constants.ComputeBudgetProgramID,
		constants.SystemProgramID,
		constants.TokenProgramID,
		constants.AssociatedTokenProgramID,
		constants.PumpAMMProgramID,
		constants.TokenProgramID,
	}, programOrder(t, tx))

	ixs := tx.Message.Instructions
	// temp account funded with the max spend plus rent
	assert.True(t, bytes.Contains(ixs[2].Data, u64le(1_050_000_000+w.chain.rent)))
	assert.Equal(t, "66063d1201daebea31aaf8760000000080ba953e00000000", hex.EncodeToString(ixs[5].Data))
	assert.Len(t, ixs[5].Accounts, pumpswap.SwapAccountCount)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "buy", ev.Side)
	assert.Equal(t, res.Signature, ev.Signature)
	assert.Equal(t, w.pool.address.String(), ev.Pool)
	assert.Equal(t, uint64(1_000_000_000), ev.AmountIn)
	assert.Equal(t, uint64(1_050_000_000), ev.Bound)
	assert.Equal(t, "pumpswap", ev.Dex)

	assert.Equal(t, []string{"buy:success"}, rec.swaps)
}

func TestEngineBuyExistingTokenAccount(t *testing.T) {
	w := newWorld(t)
	w.fundBase(0)
	e := w.engine(DefaultEngineConfig())

	res, err := e.Buy(context.Background(), w.pool.address, 10_000_000, 1)
	require.NoError(t, err)
	assert.False(t, res.CreatedATA)

	tx := w.chain.sent[0]
	assert.Equal(t, []solana.PublicKey{
		constants.ComputeBudgetProgramID,
		constants.ComputeBudgetProgramID,
		constants.SystemProgramID,
		constants.TokenProgramID,
		constants.PumpAMMProgramID,
		constants.TokenProgramID,
	}, programOrder(t, tx))
}

func TestEngineSellFullExit(t *testing.T) {
	w := newWorld(t)
	w.fundBase(2_000_000)
	e := w.engine(DefaultEngineConfig())

	res, err := e.Sell(context.Background(), w.pool.address, 100, 1)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.ClosedBase)
	assert.False(t, res.CreatedATA)

	require.NotNil(t, res.Quote.Sell)
	assert.Equal(t, uint64(2_000_000), res.Quote.Sell.BaseIn)
	assert.Equal(t, uint64(997_501), res.Quote.Sell.QuoteOut)
	assert.Equal(t, uint64(987_525), res.Quote.Sell.MinQuoteOut)

	tx := w.chain.sent[0]
	assert.Equal(t, []solana.PublicKey{
		constants.ComputeBudgetProgramID,
		constants.ComputeBudgetProgramID,
		constants.SystemProgramID,
		constants.TokenProgramID,
		constants.PumpAMMProgramID,
		constants.TokenProgramID,
		constants.TokenProgramID,
	}, programOrder(t, tx))

	ixs := tx.Message.Instructions
	// sells only fund rent
	assert.True(t, bytes.Contains(ixs[2].Data, u64le(w.chain.rent)))
	assert.Equal(t, append(pumpswap.SellDiscriminator[:], append(u64le(2_000_000), u64le(987_525)...)...), []byte(ixs[4].Data))

	closeBase := ixs[6]
	require.Len(t, closeBase.Accounts, 3)
	assert.Equal(t, w.userBase, tx.Message.AccountKeys[closeBase.Accounts[0]])
}

func TestEngineSellPercentageBoundaries(t *testing.T) {
	tests := []struct {
		pct     uint8
		wantErr bool
	}{
		{0, true},
		{1, false},
		{50, false},
		{100, false},
		{101, true},
	}

	for _, tt := range tests {
		w := newWorld(t)
		w.fundBase(1_000_000)
		e := w.engine(DefaultEngineConfig())

		res, err := e.Sell(context.Background(), w.pool.address, tt.pct, 1)
		if tt.wantErr {
			require.ErrorIs(t, err, pumpswap.ErrValidation, "pct %d", tt.pct)
			assert.False(t, res.Success)
			assert.Zero(t, w.chain.sentCount())
			continue
		}
		require.NoError(t, err, "pct %d", tt.pct)
		assert.Equal(t, uint64(1_000_000)*uint64(tt.pct)/100, res.Quote.Sell.BaseIn)
		assert.Equal(t, tt.pct == 100, res.ClosedBase)
	}
}

func TestEngineSellWithoutHolding(t *testing.T) {
	w := newWorld(t)
	e := w.engine(DefaultEngineConfig())

	_, err := e.Sell(context.Background(), w.pool.address, 50, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	w.fundBase(0)
	_, err = e.Sell(context.Background(), w.pool.address, 50, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)
	assert.Zero(t, w.chain.sentCount())
}

func TestEngineAborts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *world)
		want  error
	}{
		{
			name:  "pool missing",
			setup: func(w *world) { w.chain.remove(w.pool.address) },
			want:  pumpswap.ErrPoolNotFound,
		},
		{
			name: "pool owned by another program",
			setup: func(w *world) {
				w.chain.put(w.pool.address, constants.TokenProgramID, w.pool.encode())
			},
			want: pumpswap.ErrPoolNotFound,
		},
		{
			name: "pool too short",
			setup: func(w *world) {
				w.chain.put(w.pool.address, constants.PumpAMMProgramID, w.pool.encode()[:100])
			},
			want: pumpswap.ErrDecode,
		},
		{
			name: "pool not quoted in wrapped SOL",
			setup: func(w *world) {
				p := w.pool
				p.quoteMint = p.baseMint
				w.chain.put(p.address, constants.PumpAMMProgramID, p.encode())
			},
			want: pumpswap.ErrValidation,
		},
		{
			name: "no creator vault account",
			setup: func(w *world) {
				w.chain.ownedAccounts = map[solana.PublicKey][]solana.PublicKey{}
			},
			want: pumpswap.ErrVaultNotFound,
		},
		{
			name:  "base vault missing",
			setup: func(w *world) { w.chain.remove(w.pool.baseVault) },
			want:  pumpswap.ErrReserveUnavailable,
		},
		{
			name: "empty quote vault",
			setup: func(w *world) {
				w.chain.put(w.pool.quoteVault, constants.TokenProgramID, encodeTokenAccount(w.pool.quoteMint, w.pool.address, 0))
			},
			want: pumpswap.ErrReserveUnavailable,
		},
		{
			name: "vault holds wrong mint",
			setup: func(w *world) {
				w.chain.put(w.pool.quoteVault, constants.TokenProgramID, encodeTokenAccount(w.pool.baseMint, w.pool.address, 10))
			},
			want: pumpswap.ErrReserveUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			tt.setup(w)
			rec := &fakeRecorder{}
			e := w.engine(DefaultEngineConfig(), WithRecorder(rec))

			res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
			require.ErrorIs(t, err, tt.want)
			require.NotNil(t, res)
			assert.False(t, res.Success)
			assert.Equal(t, err.Error(), res.Error)
			assert.Zero(t, w.chain.sentCount())
			require.Len(t, rec.swaps, 1)
			assert.NotEqual(t, "buy:success", rec.swaps[0])
		})
	}
}

func TestEngineBuyValidation(t *testing.T) {
	w := newWorld(t)
	cfg := DefaultEngineConfig()
	cfg.Risk.MaxBuyLamports = 1_000_000
	e := w.engine(cfg)

	_, err := e.Buy(context.Background(), w.pool.address, 0, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	_, err = e.Buy(context.Background(), w.pool.address, 1_000_001, 1)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	_, err = e.Buy(context.Background(), w.pool.address, 1_000, 51)
	require.ErrorIs(t, err, pumpswap.ErrValidation)

	assert.Zero(t, w.chain.readCount())
}

func TestEngineKillSwitch(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := newWorld(t)
		e := w.engine(DefaultEngineConfig(), WithFlags(fakeFlags{enabled: false}))

		res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.ErrorIs(t, err, pumpswap.ErrValidation)
		assert.False(t, res.Success)
		assert.Zero(t, w.chain.readCount())
	})

	t.Run("flag store unavailable", func(t *testing.T) {
		w := newWorld(t)
		w.fundBase(100)
		e := w.engine(DefaultEngineConfig(), WithFlags(fakeFlags{err: errBoom}))

		_, err := e.Sell(context.Background(), w.pool.address, 100, 1)
		require.ErrorIs(t, err, pumpswap.ErrValidation)
		require.ErrorIs(t, err, errBoom)
		assert.Zero(t, w.chain.readCount())
	})

	t.Run("enabled", func(t *testing.T) {
		w := newWorld(t)
		e := w.engine(DefaultEngineConfig(), WithFlags(fakeFlags{enabled: true}))

		res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.NoError(t, err)
		assert.True(t, res.Success)
	})
}

func TestEngineSubmissionFailures(t *testing.T) {
	t.Run("send rejected", func(t *testing.T) {
		w := newWorld(t)
		w.chain.sendErr = &rpc.RPCError{Code: -32002, Message: "blockhash not found"}
		e := w.engine(DefaultEngineConfig())

		res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.ErrorIs(t, err, pumpswap.ErrSubmission)
		assert.False(t, res.Success)
		assert.Empty(t, res.Signature)
	})

	t.Run("failed on chain", func(t *testing.T) {
		w := newWorld(t)
		w.chain.statuses = []*rpc.SignatureStatus{{Slot: 9, Err: map[string]interface{}{"InstructionError": []interface{}{5, "Custom"}}}}
		e := w.engine(DefaultEngineConfig())

		res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.ErrorIs(t, err, pumpswap.ErrSubmission)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Signature)
	})

	t.Run("confirmation timeout", func(t *testing.T) {
		w := newWorld(t)
		w.chain.statuses = nil
		cfg := DefaultEngineConfig()
		cfg.ConfirmTimeout = 30 * time.Millisecond
		e := w.engine(cfg)

		res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.ErrorIs(t, err, pumpswap.ErrConfirmationTimeout)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Signature)
		assert.Equal(t, 1, w.chain.sentCount())
	})

	t.Run("simulation rejects", func(t *testing.T) {
		w := newWorld(t)
		w.chain.simResult = &rpc.SimulationResult{Err: "InsufficientFunds", Logs: []string{"Program log: insufficient"}}
		cfg := DefaultEngineConfig()
		cfg.RequireSimulation = true
		e := w.engine(cfg)

		_, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
		require.ErrorIs(t, err, pumpswap.ErrSubmission)
		assert.Equal(t, 1, w.chain.simulated)
		assert.Zero(t, w.chain.sentCount())
	})
}

func TestEngineSimulationUnits(t *testing.T) {
	w := newWorld(t)
	cfg := DefaultEngineConfig()
	cfg.RequireSimulation = true
	e := w.engine(cfg)

	res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345), res.SimulationUnits)
}

func TestEnginePublishFailureIsNotFatal(t *testing.T) {
	w := newWorld(t)
	pub := &fakePublisher{err: errBoom}
	e := w.engine(DefaultEngineConfig(), WithEventPublisher(pub))

	res, err := e.Buy(context.Background(), w.pool.address, 1_000_000, 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, pub.events, 1)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "success", outcomeOf(nil))
	assert.Equal(t, "pool_not_found", outcomeOf(pumpswap.ErrPoolNotFound))
	assert.Equal(t, "confirmation_timeout", outcomeOf(pumpswap.ErrConfirmationTimeout))
	assert.Equal(t, "error", outcomeOf(errBoom))
}
