package models

import "time"

// QuoteEvent is one served quote as written to the quote journal
type QuoteEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Vault       string    `json:"vault"`
	Direction   string    `json:"direction"` // "mint" or "redeem"
	InputMint   string    `json:"input_mint"`
	OutputMint  string    `json:"output_mint"`
	AmountIn    uint64    `json:"amount_in"`
	AmountOut   uint64    `json:"amount_out"`
	FeeAmount   uint64    `json:"fee_amount"`
	FeeMint     string    `json:"fee_mint"`
	PriceImpact string    `json:"price_impact"` // decimal fraction
	Slot        uint64    `json:"slot"`
}

// MarketEvent is published after every successful refresh
type MarketEvent struct {
	Vault           string    `json:"vault"`
	Slot            uint64    `json:"slot"`
	Active          bool      `json:"active"`
	FeeBps          uint16    `json:"fee_bps"`
	Rate            uint64    `json:"rate"`
	RateSource      string    `json:"rate_source"`
	StableReserve   uint64    `json:"stable_reserve"`
	YieldingReserve uint64    `json:"yielding_reserve"`
	UpdatedAt       time.Time `json:"updated_at"`
}
