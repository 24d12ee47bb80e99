package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is an HTTP client with retry and timeout support for Solana RPC
type Client struct {
	httpClient    *http.Client
	baseURL       string
	maxRetries    int
	retryBackoff  time.Duration
	limiter       *rate.Limiter
	commitment    string
	skipPreflight bool
	logger        *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RequestsPerSecond caps outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	Commitment        string
	SkipPreflight     bool
	Logger            *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:       cfg.BaseURL,
		maxRetries:    cfg.MaxRetries,
		retryBackoff:  cfg.RetryBackoff,
		limiter:       limiter,
		commitment:    cfg.Commitment,
		skipPreflight: cfg.SkipPreflight,
		logger:        cfg.Logger,
	}
}

// Commitment returns the commitment level used for reads.
func (c *Client) Commitment() string { return c.commitment }

// Call makes a JSON-RPC call with retry logic. JSON-RPC error objects are
// returned as *RPCError and are not retried.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	return c.call(ctx, method, params, result, c.maxRetries)
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}, maxRetries int) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
				"error":   lastErr,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// invoke runs a call and unwraps the JSON-RPC envelope.
func invoke[T any](ctx context.Context, c *Client, method string, params []interface{}, maxRetries int) (T, error) {
	var env envelope[T]
	if err := c.call(ctx, method, params, &env, maxRetries); err != nil {
		var zero T
		return zero, err
	}
	if env.Error != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", method, env.Error)
	}
	return env.Result, nil
}

func (c *Client) readOpts() map[string]interface{} {
	return map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.commitment,
	}
}

// GetAccount fetches one account. A missing account yields ErrAccountNotFound.
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	res, err := invoke[withContext[*accountJSON]](ctx, c, "getAccountInfo",
		[]interface{}{address.String(), c.readOpts()}, c.maxRetries)
	if err != nil {
		return nil, err
	}
	if res.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return res.Value.decode(address)
}

// GetAccounts fetches several accounts in one request. The result is aligned
// with addresses; missing accounts are nil entries.
func (c *Client) GetAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*AccountInfo, error) {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.String()
	}

	res, err := invoke[withContext[[]*accountJSON]](ctx, c, "getMultipleAccounts",
		[]interface{}{keys, c.readOpts()}, c.maxRetries)
	if err != nil {
		return nil, err
	}
	if len(res.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts: asked for %d accounts, got %d", len(addresses), len(res.Value))
	}

	out := make([]*AccountInfo, len(addresses))
	for i, raw := range res.Value {
		if raw == nil {
			continue
		}
		acc, err := raw.decode(addresses[i])
		if err != nil {
			return nil, err
		}
		out[i] = acc
	}
	return out, nil
}

// SearchProgramAccounts lists accounts owned by program that match every filter.
func (c *Client) SearchProgramAccounts(ctx context.Context, program solana.PublicKey, filters []MemcmpFilter) ([]*AccountInfo, error) {
	opts := c.readOpts()
	if len(filters) > 0 {
		fs := make([]map[string]interface{}, len(filters))
		for i, f := range filters {
			fs[i] = map[string]interface{}{
				"memcmp": map[string]interface{}{
					"offset": f.Offset,
					"bytes":  base58.Encode(f.Bytes),
				},
			}
		}
		opts["filters"] = fs
	}

	res, err := invoke[[]keyedAccountJSON](ctx, c, "getProgramAccounts",
		[]interface{}{program.String(), opts}, c.maxRetries)
	if err != nil {
		return nil, err
	}

	out := make([]*AccountInfo, 0, len(res))
	for i := range res {
		acc, err := res[i].decode()
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// GetTokenAccountBalance returns the raw amount held by a token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := invoke[withContext[*tokenAmountJSON]](ctx, c, "getTokenAccountBalance",
		[]interface{}{account.String(), map[string]interface{}{"commitment": c.commitment}}, c.maxRetries)
	if err != nil {
		return 0, err
	}
	if res.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}

	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", res.Value.Amount, err)
	}
	return amount, nil
}

// FindTokenAccountsByOwner lists token accounts of owner for mint that are
// owned by tokenProgram.
func (c *Client) FindTokenAccountsByOwner(ctx context.Context, owner, mint, tokenProgram solana.PublicKey) ([]solana.PublicKey, error) {
	res, err := invoke[withContext[[]keyedAccountJSON]](ctx, c, "getTokenAccountsByOwner",
		[]interface{}{
			owner.String(),
			map[string]interface{}{"mint": mint.String()},
			c.readOpts(),
		}, c.maxRetries)
	if err != nil {
		return nil, err
	}

	var out []solana.PublicKey
	for i := range res.Value {
		acc, err := res.Value[i].decode()
		if err != nil {
			return nil, err
		}
		if !tokenProgram.IsZero() && !acc.Owner.Equals(tokenProgram) {
			continue
		}
		out = append(out, acc.Address)
	}
	return out, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for size bytes.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return invoke[uint64](ctx, c, "getMinimumBalanceForRentExemption",
		[]interface{}{size, map[string]interface{}{"commitment": c.commitment}}, c.maxRetries)
}

// GetLatestBlockhash fetches the most recent blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := invoke[withContext[blockhashJSON]](ctx, c, "getLatestBlockhash",
		[]interface{}{map[string]interface{}{"commitment": c.commitment}}, c.maxRetries)
	if err != nil {
		return solana.Hash{}, err
	}

	hash, err := solana.HashFromBase58(res.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SendTransaction submits a signed transaction once. It is never retried here.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	encoded, err := encodeTx(tx)
	if err != nil {
		return solana.Signature{}, err
	}

	res, err := invoke[string](ctx, c, "sendTransaction", []interface{}{
		encoded,
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       c.skipPreflight,
			"preflightCommitment": c.commitment,
		},
	}, 0)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(res)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid signature %q: %w", res, err)
	}
	return sig, nil
}

// SimulateTransaction simulates a transaction before sending
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	encoded, err := encodeTx(tx)
	if err != nil {
		return nil, err
	}

	res, err := invoke[withContext[SimulationResult]](ctx, c, "simulateTransaction", []interface{}{
		encoded,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "processed",
		},
	}, c.maxRetries)
	if err != nil {
		return nil, err
	}
	return &res.Value, nil
}

// GetSignatureStatus returns the status of sig, or nil if the node has not
// seen it yet.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	res, err := invoke[withContext[[]*SignatureStatus]](ctx, c, "getSignatureStatuses", []interface{}{
		[]string{sig.String()},
		map[string]interface{}{"searchTransactionHistory": true},
	}, c.maxRetries)
	if err != nil {
		return nil, err
	}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return nil, nil
	}
	return res.Value[0], nil
}

func encodeTx(tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(txBytes), nil
}

// IsNotFound reports whether err means the account does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
