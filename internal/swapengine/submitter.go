package swapengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
)

// SubmitterConfig controls signing, simulation and confirmation.
type SubmitterConfig struct {
	Commitment        string
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration // first backoff step
	MaxPollInterval   time.Duration
	RequireSimulation bool
	Logger            *logrus.Logger
}

// Submission is the outcome of a confirmed transaction.
type Submission struct {
	Signature       solana.Signature
	Slot            uint64
	SimulationUnits uint64
}

// Submitter turns instruction lists into confirmed transactions.
type Submitter struct {
	client ChainClient
	signer Signer
	cfg    SubmitterConfig
	logger *logrus.Logger
}

func NewSubmitter(client ChainClient, signer Signer, cfg SubmitterConfig) *Submitter {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = 4 * time.Second
		if cfg.MaxPollInterval < cfg.PollInterval {
			cfg.MaxPollInterval = cfg.PollInterval
		}
	}
	return &Submitter{client: client, signer: signer, cfg: cfg, logger: cfg.Logger}
}

// BuildTransaction creates a new transaction with recent blockhash
func (s *Submitter) BuildTransaction(ctx context.Context, ixs []solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := s.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get blockhash: %w", pumpswap.ErrSubmission, err)
	}

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(s.signer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("%w: create transaction: %w", pumpswap.ErrSubmission, err)
	}
	return tx, nil
}

// Submit builds, signs, optionally simulates, sends once and waits for the
// configured commitment.
func (s *Submitter) Submit(ctx context.Context, ixs []solana.Instruction) (*Submission, error) {
	tx, err := s.BuildTransaction(ctx, ixs)
	if err != nil {
		return nil, err
	}

	if err := s.signer.SignTx(tx); err != nil {
		return nil, fmt.Errorf("%w: %w", pumpswap.ErrSubmission, err)
	}

	out := &Submission{}
	if s.cfg.RequireSimulation {
		sim, err := s.client.SimulateTransaction(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("%w: simulate: %w", pumpswap.ErrSubmission, err)
		}
		if sim.Failed() {
			s.logger.WithFields(logrus.Fields{
				"err":  sim.Err,
				"logs": strings.Join(sim.Logs, "\n"),
			}).Warn("simulation failed")
			return nil, fmt.Errorf("%w: simulation failed: %v", pumpswap.ErrSubmission, sim.Err)
		}
		out.SimulationUnits = sim.UnitsConsumed
	}

	sig, err := s.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: send: %w", pumpswap.ErrSubmission, err)
	}
	out.Signature = sig

	s.logger.WithField("signature", sig.String()).Info("transaction sent")

	slot, err := s.Confirm(ctx, sig)
	out.Slot = slot
	if err != nil {
		return out, err
	}
	return out, nil
}

// Confirm polls for the signature until it reaches the configured commitment,
// fails on chain, or the confirmation window closes.
func (s *Submitter) Confirm(ctx context.Context, sig solana.Signature) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	backoff := s.cfg.PollInterval

	for {
		status, err := s.client.GetSignatureStatus(ctx, sig)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return 0, s.timeoutErr(ctx, sig)
			}
			s.logger.WithError(err).WithField("signature", sig.String()).Debug("signature status unavailable")
		case status != nil:
			if status.Err != nil {
				return status.Slot, fmt.Errorf("%w: transaction %s failed: %v", pumpswap.ErrSubmission, sig, status.Err)
			}
			if commitmentReached(s.cfg.Commitment, status) {
				return status.Slot, nil
			}
		}

		// Exponential backoff
		select {
		case <-ctx.Done():
			return 0, s.timeoutErr(ctx, sig)
		case <-time.After(backoff):
			backoff *= 2
			if backoff > s.cfg.MaxPollInterval {
				backoff = s.cfg.MaxPollInterval
			}
		}
	}
}

func (s *Submitter) timeoutErr(ctx context.Context, sig solana.Signature) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s not %s within %v", pumpswap.ErrConfirmationTimeout, sig, s.cfg.Commitment, s.cfg.ConfirmTimeout)
	}
	return fmt.Errorf("%w: %s: %w", pumpswap.ErrConfirmationTimeout, sig, ctx.Err())
}

// commitmentReached checks if commitment level is met
func commitmentReached(commitment string, status *rpc.SignatureStatus) bool {
	switch commitment {
	case "processed":
		return status.ConfirmationStatus != ""
	case "confirmed":
		return status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized"
	case "finalized":
		return status.ConfirmationStatus == "finalized"
	default:
		return status.ConfirmationStatus != ""
	}
}
