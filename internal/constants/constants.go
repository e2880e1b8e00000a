package constants

import (
	"github.com/gagliardetto/solana-go"
)

// Vault program and mint addresses
var (
	ProgramID     = solana.MustPublicKeyFromBase58("save8RQVPMWNTzU18t3GBvBkN9hT7jsGjiCQ28FpD9H")
	USDStarMint   = solana.MustPublicKeyFromBase58("star9agSpjiFe3M49B3RniVU4CMBBEK3Qnaqn3RGiFM")
	USDCMint      = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDStarBank   = solana.MustPublicKeyFromBase58("save8RQVPMWNTzU18t3GBvBkN9hT7jsGjiCQ28FpD9H")
	MainUSDCVault = solana.MustPublicKeyFromBase58("3bZ1qY6wfzyDH7QMPiRKLr6k8p1asdtyjvJyJsJBdv23")
)

// Stable is the USD-pegged side of the venue, Yielding the wrapped side.
var (
	StableMint   = USDCMint
	YieldingMint = USDStarMint
)

// Runtime programs referenced by the swap instruction
var (
	SystemProgramID          = solana.SystemProgramID
	TokenProgramID           = solana.TokenProgramID
	Token2022ProgramID       = solana.Token2022ProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
)

// Venue label reported to the routing host
const (
	VenueLabel = "PerenaBankinecoAmm"
)

// Fixed-point scales
const (
	RateScale   = 1_000_000_000 // oracle and administered rates carry 9 decimals
	BpsDenom    = 10_000
	MintDecimal = 6 // USDC and USD* both use 6 decimals
)

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"star9agSpjiFe3M49B3RniVU4CMBBEK3Qnaqn3RGiFM":  "USD*",
}

// Symbol returns the display symbol of a mint, falling back to its address.
func Symbol(mint solana.PublicKey) string {
	if s, ok := TokenSymbols[mint.String()]; ok {
		return s
	}
	return mint.String()
}

// Redis keys
const (
	RedisKeySnapshotPrefix = "bankineco:snapshot:"
)
