package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/flags"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/swapengine"
)

// SwapService is the read-only part of the swap engine the API exposes.
// Execution stays on the CLI.
type SwapService interface {
	Wallet() solana.PublicKey
	LoadPool(ctx context.Context, address solana.PublicKey) (*pumpswap.PoolState, error)
	QuoteBuy(ctx context.Context, pool solana.PublicKey, lamportsIn uint64, slippagePct float64) (*swapengine.QuoteResult, error)
	QuoteSell(ctx context.Context, pool solana.PublicKey, pct uint8, slippagePct float64) (*swapengine.QuoteResult, error)
	FindPoolByMint(ctx context.Context, mint solana.PublicKey) (*swapengine.PairLookup, error)
}

// FlagStore is implemented by *flags.Store.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Swaps   SwapService
	Flags   FlagStore    // nil when Redis is not configured
	Metrics http.Handler // nil disables /metrics
	DevMode bool         // Enable detailed error responses in development
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// swapErr maps an engine failure onto an HTTP status.
func (h *Handlers) swapErr(c echo.Context, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.Path()).Warn("request failed")
	}
	return h.err(c, code, msg, map[string]any{"err": err.Error()})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, pumpswap.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, pumpswap.ErrPoolNotFound):
		return http.StatusNotFound, "pool not found"
	case errors.Is(err, pumpswap.ErrVaultNotFound):
		return http.StatusNotFound, "creator vault not found"
	case errors.Is(err, pumpswap.ErrReserveUnavailable):
		return http.StatusServiceUnavailable, "reserves unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	default:
		return http.StatusBadGateway, "upstream error"
	}
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func paramKey(c echo.Context, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return solana.PublicKey{}, false
	}
	return key, true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Swaps != nil {
		resp.Wallet = h.Swaps.Wallet().String()
	}
	return c.JSON(http.StatusOK, resp)
}

// Pool decodes the pool account at :address.
func (h *Handlers) Pool(c echo.Context) error {
	addr, ok := paramKey(c, "address")
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"address": "must be base58 public key"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pool, err := h.Swaps.LoadPool(ctx, addr)
	if err != nil {
		return h.swapErr(c, err)
	}
	return c.JSON(http.StatusOK, pool)
}

// Quote prices a buy or sell without submitting anything.
// Buys take amount_sol, sells take pct; slippage is an optional percent.
func (h *Handlers) Quote(c echo.Context) error {
	pool, err := solana.PublicKeyFromBase58(strings.TrimSpace(c.QueryParam("pool")))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "must be base58 public key"})
	}

	slippage := -1.0
	if v := strings.TrimSpace(c.QueryParam("slippage")); v != "" {
		slippage, err = strconv.ParseFloat(v, 64)
		if err != nil || slippage < 0 {
			return h.err(c, http.StatusBadRequest, "invalid slippage", map[string]any{"slippage": "must be a non-negative percent"})
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var q *swapengine.QuoteResult
	switch swapengine.Side(strings.ToLower(c.QueryParam("side"))) {
	case swapengine.SideBuy:
		sol, perr := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("amount_sol")), 64)
		if perr != nil {
			return h.err(c, http.StatusBadRequest, "invalid amount_sol", map[string]any{"amount_sol": "required number"})
		}
		lamports, perr := swapengine.SOLToLamports(sol)
		if perr != nil {
			return h.swapErr(c, perr)
		}
		q, err = h.Swaps.QuoteBuy(ctx, pool, lamports, slippage)
	case swapengine.SideSell:
		pct, perr := strconv.ParseUint(strings.TrimSpace(c.QueryParam("pct")), 10, 8)
		if perr != nil {
			return h.err(c, http.StatusBadRequest, "invalid pct", map[string]any{"pct": "integer in [1,100]"})
		}
		q, err = h.Swaps.QuoteSell(ctx, pool, uint8(pct), slippage)
	default:
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "buy or sell"})
	}
	if err != nil {
		return h.swapErr(c, err)
	}
	return c.JSON(http.StatusOK, newQuoteResponse(q))
}

func newQuoteResponse(q *swapengine.QuoteResult) QuoteResponse {
	inDec, outDec := uint8(constants.WSOLDecimals), q.Decimals
	if q.Side == swapengine.SideSell {
		inDec, outDec = q.Decimals, uint8(constants.WSOLDecimals)
	}
	return QuoteResponse{
		QuoteResult:   q,
		AmountInUI:    swapengine.FromRawAmount(q.AmountIn(), inDec),
		ExpectedOutUI: swapengine.FromRawAmount(q.ExpectedOut(), outDec),
		BoundUI:       swapengine.FromRawAmount(q.Bound(), constants.WSOLDecimals),
	}
}

// Pair finds the deepest pool trading :mint.
func (h *Handlers) Pair(c echo.Context) error {
	mint, ok := paramKey(c, "mint")
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be base58 public key"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Swaps.FindPoolByMint(ctx, mint)
	if err != nil {
		return h.swapErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpsert creates or updates a feature flag with the given key and value
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
