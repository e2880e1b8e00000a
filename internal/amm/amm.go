// Package amm defines the market contract a routing host uses to discover,
// quote and route through individual liquidity venues.
package amm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Amm is implemented once per venue. Update is the only mutator; the host
// must not call it concurrently with any other method on the same instance.
type Amm interface {
	Label() string
	ProgramID() solana.PublicKey
	Key() solana.PublicKey
	GetReserveMints() []solana.PublicKey

	// GetAccountsToUpdate lists the accounts needed to produce a quote
	GetAccountsToUpdate() []solana.PublicKey
	// Update replaces the cached state from a host supplied snapshot
	Update(accounts AccountMap) error

	Quote(params QuoteParams) (*Quote, error)
	GetSwapAndAccountMetas(params SwapParams) (*SwapAndAccountMetas, error)

	HasDynamicAccounts() bool
	RequiresUpdateForReserveMints() bool
	SupportsExactOut() bool
	Unidirectional() bool
	ProgramDependencies() []ProgramDependency
	GetAccountsLen() int
	IsActive() bool

	Clone() Amm
}

// Account is the raw on-chain state of a single address
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// AccountMap is the snapshot the host pushes into Update
type AccountMap map[solana.PublicKey]*Account

// Clone returns a copy whose account data shares no memory with m
func (m AccountMap) Clone() AccountMap {
	out := make(AccountMap, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		data := make([]byte, len(v.Data))
		copy(data, v.Data)
		out[k] = &Account{Lamports: v.Lamports, Owner: v.Owner, Data: data}
	}
	return out
}

// KeyedAccount is the discriminating account a market is built from
type KeyedAccount struct {
	Key     solana.PublicKey
	Account Account
}

// AmmContext carries host wide settings passed to constructors
type AmmContext struct {
	Slot uint64
}

// SwapMode selects which side of the trade is fixed
type SwapMode int

const (
	ExactIn SwapMode = iota
	ExactOut
)

func (m SwapMode) String() string {
	switch m {
	case ExactIn:
		return "ExactIn"
	case ExactOut:
		return "ExactOut"
	default:
		return "Unknown"
	}
}

// ParseSwapMode accepts the host's string form, defaulting to ExactIn
func ParseSwapMode(s string) (SwapMode, bool) {
	switch s {
	case "", "ExactIn":
		return ExactIn, true
	case "ExactOut":
		return ExactOut, true
	default:
		return ExactIn, false
	}
}

// QuoteParams is the trade intent for a single quote
type QuoteParams struct {
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	Amount     uint64 // raw units of InputMint
	SwapMode   SwapMode
}

// Quote is the priced result of a QuoteParams
type Quote struct {
	InAmount       uint64
	OutAmount      uint64
	FeeAmount      uint64
	FeeMint        solana.PublicKey
	FeePct         decimal.Decimal
	PriceImpactPct decimal.Decimal
}

// SwapParams carries what is needed to derive the swap accounts
type SwapParams struct {
	SourceMint              solana.PublicKey
	DestinationMint         solana.PublicKey
	SourceTokenAccount      solana.PublicKey
	DestinationTokenAccount solana.PublicKey
	TokenTransferAuthority  solana.PublicKey
	InAmount                uint64
	OutAmount               uint64
}

// Swap names the instruction variant the host must emit
type Swap int

const (
	SwapTokenSwap Swap = iota
)

func (s Swap) String() string {
	if s == SwapTokenSwap {
		return "TokenSwap"
	}
	return "Unknown"
}

// SwapAndAccountMetas is the ordered account list for one swap instruction
type SwapAndAccountMetas struct {
	Swap         Swap
	AccountMetas []*solana.AccountMeta
}

// ProgramDependency names a program a venue needs loaded in tests
type ProgramDependency struct {
	ProgramID solana.PublicKey
	Name      string
}
