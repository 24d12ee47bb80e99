package server

import "github.com/aman-zulfiqar/pumpswap-executor/internal/swapengine"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK     bool   `json:"ok"`
	Wallet string `json:"wallet,omitempty"`
}

// QuoteResponse carries a priced swap plus human-unit renderings of it.
type QuoteResponse struct {
	*swapengine.QuoteResult
	AmountInUI    float64 `json:"amount_in_ui"`
	ExpectedOutUI float64 `json:"expected_out_ui"`
	BoundUI       float64 `json:"bound_ui"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"`
}
