package models

import "time"

// SwapEvent is the notification published after a swap confirms.
type SwapEvent struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
	Side        string    `json:"side"` // "buy" or "sell"
	Pool        string    `json:"pool"`
	BaseMint    string    `json:"base_mint"`
	QuoteMint   string    `json:"quote_mint"`
	Pair        string    `json:"pair"`
	AmountIn    uint64    `json:"amount_in"`
	ExpectedOut uint64    `json:"expected_out"`
	Bound       uint64    `json:"bound"` // max input on buys, min output on sells
	Wallet      string    `json:"wallet"`
	Dex         string    `json:"dex"`
}
