package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/swapengine"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("%w: amount must be > 0", pumpswap.ErrValidation), exitValidation},
		{fmt.Errorf("%w: context canceled", pumpswap.ErrConfirmationTimeout), exitTimeout},
		{fmt.Errorf("%w: rejected", pumpswap.ErrSubmission), exitError},
		{context.DeadlineExceeded, exitError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestCommandsRejectBadFlags(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()

	tests := []struct {
		name string
		args []string
	}{
		{"buy without pool", []string{"buy", "--sol", "1"}},
		{"buy with bad pool", []string{"buy", "--pool", "nope", "--sol", "1"}},
		{"buy without amount", []string{"buy", "--pool", pool}},
		{"quote bad side", []string{"quote", "--pool", pool, "--side", "hold"}},
		{"sell without pool", []string{"sell", "--pct", "50"}},
		{"pair bad mint", []string{"pair", "xyz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs(append(tt.args, "--env-file", ""))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.ErrorIs(t, err, pumpswap.ErrValidation)
			assert.Equal(t, exitValidation, exitCode(err))
		})
	}
}

func TestPairRequiresOneArg(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"pair"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, (*swapengine.QuoteResult)(nil)))
	assert.Empty(t, buf.String(), "typed nil prints nothing")

	require.NoError(t, printJSON(&buf, &swapengine.SwapResult{ExecutionID: "buy-1", Side: swapengine.SideBuy}))
	assert.Contains(t, buf.String(), `"execution_id": "buy-1"`)
	assert.Contains(t, buf.String(), `"success": false`)
}
