package rpc

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned when the node reports no account at an address.
var ErrAccountNotFound = errors.New("account not found")

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPStatusError is a non-200 reply from the RPC endpoint.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e.StatusCode == 429 {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

type envelope[T any] struct {
	Result T         `json:"result"`
	Error  *RPCError `json:"error"`
}

type withContext[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// accountJSON is an account as returned with base64 encoding.
type accountJSON struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
}

type keyedAccountJSON struct {
	Pubkey  string      `json:"pubkey"`
	Account accountJSON `json:"account"`
}

// AccountInfo is a decoded account.
type AccountInfo struct {
	Address    solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

func (a *accountJSON) decode(address solana.PublicKey) (*AccountInfo, error) {
	owner, err := solana.PublicKeyFromBase58(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner %q: %w", a.Owner, err)
	}

	var data []byte
	if len(a.Data) > 0 {
		if len(a.Data) > 1 && a.Data[1] != "base64" {
			return nil, fmt.Errorf("unexpected account encoding %q", a.Data[1])
		}
		data, err = base64.StdEncoding.DecodeString(a.Data[0])
		if err != nil {
			return nil, fmt.Errorf("invalid account data: %w", err)
		}
	}

	return &AccountInfo{
		Address:    address,
		Owner:      owner,
		Lamports:   a.Lamports,
		Data:       data,
		Executable: a.Executable,
	}, nil
}

func (k *keyedAccountJSON) decode() (*AccountInfo, error) {
	pk, err := solana.PublicKeyFromBase58(k.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid pubkey %q: %w", k.Pubkey, err)
	}
	return k.Account.decode(pk)
}

// MemcmpFilter matches accounts whose data contains Bytes at Offset.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// SignatureStatus mirrors one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Err           interface{} `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed"`
}

// Failed reports whether the simulated transaction returned an error.
func (s *SimulationResult) Failed() bool { return s.Err != nil }

type tokenAmountJSON struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

type blockhashJSON struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
