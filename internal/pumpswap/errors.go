package pumpswap

import "errors"

// Failure kinds surfaced by decoding, pricing and swap execution. Wrap with
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrDecode              = errors.New("decode error")
	ErrPoolNotFound        = errors.New("pool not found")
	ErrReserveUnavailable  = errors.New("reserve unavailable")
	ErrVaultNotFound       = errors.New("creator vault not found")
	ErrValidation          = errors.New("validation error")
	ErrSubmission          = errors.New("submission error")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)
