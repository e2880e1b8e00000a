package server

import "github.com/shopspring/decimal"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool   `json:"ok"`    // Process is serving
	Ready bool   `json:"ready"` // A snapshot has been loaded
	Slot  uint64 `json:"slot"`
}

// MarketState is the decoded vault state
type MarketState struct {
	FeeBps            uint16 `json:"feeBps"`
	Rate              string `json:"rate"` // stable per yielding
	RateSource        string `json:"rateSource"`
	OraclePublishTime int64  `json:"oraclePublishTime,omitempty"`
	Paused            bool   `json:"paused"`
	StableReserve     string `json:"stableReserve"`
	YieldingReserve   string `json:"yieldingReserve"`
}

// MarketResponse describes the tracked vault
type MarketResponse struct {
	Label        string       `json:"label"`
	ProgramID    string       `json:"programId"`
	Key          string       `json:"key"`
	ReserveMints []string     `json:"reserveMints"`
	AccountsLen  int          `json:"accountsLen"`
	Active       bool         `json:"active"`
	Ready        bool         `json:"ready"`
	Slot         uint64       `json:"slot"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
	LastError    string       `json:"lastError,omitempty"`
	State        *MarketState `json:"state,omitempty"`
}

// QuoteResponse is a priced exact-in trade. Amounts are raw units as
// decimal strings.
type QuoteResponse struct {
	Label                string          `json:"label"`
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	FeeAmount            string          `json:"feeAmount"`
	FeeMint              string          `json:"feeMint"`
	FeePct               decimal.Decimal `json:"feePct"`
	PriceImpactPct       decimal.Decimal `json:"priceImpactPct"`
	Slot                 uint64          `json:"slot"`
}

// SwapAccountsRequest asks for the account list of one swap
type SwapAccountsRequest struct {
	SourceMint              string `json:"sourceMint"`
	DestinationMint         string `json:"destinationMint"`
	UserTransferAuthority   string `json:"userTransferAuthority"`
	SourceTokenAccount      string `json:"sourceTokenAccount,omitempty"`
	DestinationTokenAccount string `json:"destinationTokenAccount,omitempty"`
	InAmount                string `json:"inAmount,omitempty"`
	OutAmount               string `json:"outAmount,omitempty"`
}

// AccountMeta is one entry of a swap account list
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// SwapAccountsResponse is the ordered account list for the swap instruction
type SwapAccountsResponse struct {
	Swap     string        `json:"swap"`
	Accounts []AccountMeta `json:"accounts"`
}
