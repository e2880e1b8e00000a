// Package bankineco adapts the Perena Bankineco vault (USDC <-> USD*) to the
// routing host's amm.Amm contract.
//
// The adapter keeps a decoded snapshot of the vault, its oracle and its two
// token accounts. Quotes and swap account lists are computed from that
// snapshot without network access. Methods are not synchronised: Update
// must not run concurrently with any other call on the same instance.
package bankineco

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
	"github.com/cheliosooo/bankineco-amm-interface/internal/tokenaccount"
)

// Identity is the fixed set of addresses a vault adapter works with
type Identity struct {
	ProgramID           solana.PublicKey
	Vault               solana.PublicKey
	Bank                solana.PublicKey
	Team                solana.PublicKey
	Oracle              solana.PublicKey
	YieldingMintProgram solana.PublicKey
}

// Options carries the addresses that cannot be derived from the vault key
type Options struct {
	Oracle solana.PublicKey
	Team   solana.PublicKey
	// YieldingMintProgram defaults to the classic token program
	YieldingMintProgram solana.PublicKey
}

// Amm is the Bankineco vault market
type Amm struct {
	identity        Identity
	vaultStableTA   solana.PublicKey
	vaultYieldingTA solana.PublicKey

	state *snapshot
}

var _ amm.Amm = (*Amm)(nil)

// New builds an adapter for the vault at key vault
func New(vault solana.PublicKey, opts Options) (*Amm, error) {
	if vault.IsZero() {
		return nil, fmt.Errorf("vault key is zero")
	}

	yieldingProgram := opts.YieldingMintProgram
	if yieldingProgram.IsZero() {
		yieldingProgram = constants.TokenProgramID
	}

	id := Identity{
		ProgramID:           constants.ProgramID,
		Vault:               vault,
		Bank:                constants.USDStarBank,
		Team:                opts.Team,
		Oracle:              opts.Oracle,
		YieldingMintProgram: yieldingProgram,
	}

	stableTA, err := tokenaccount.Derive(vault, constants.StableMint, constants.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("vault stable account: %w", err)
	}
	yieldingTA, err := tokenaccount.Derive(vault, constants.YieldingMint, yieldingProgram)
	if err != nil {
		return nil, fmt.Errorf("vault yielding account: %w", err)
	}

	return &Amm{
		identity:        id,
		vaultStableTA:   stableTA,
		vaultYieldingTA: yieldingTA,
	}, nil
}

// FromKeyedAccount builds an adapter from the host's discovery record
func FromKeyedAccount(keyed amm.KeyedAccount, _ amm.AmmContext, opts Options) (*Amm, error) {
	return New(keyed.Key, opts)
}

func (a *Amm) Label() string { return constants.VenueLabel }

func (a *Amm) ProgramID() solana.PublicKey { return a.identity.ProgramID }

// Key is the vault address
func (a *Amm) Key() solana.PublicKey { return a.identity.Vault }

// Identity returns the adapter's fixed addresses
func (a *Amm) Identity() Identity { return a.identity }

// GetReserveMints returns [stable, yielding]
func (a *Amm) GetReserveMints() []solana.PublicKey {
	return []solana.PublicKey{constants.StableMint, constants.YieldingMint}
}

// VaultTokenAccounts returns the vault's stable and yielding token accounts
func (a *Amm) VaultTokenAccounts() (stable, yielding solana.PublicKey) {
	return a.vaultStableTA, a.vaultYieldingTA
}

func (a *Amm) HasDynamicAccounts() bool { return false }

func (a *Amm) RequiresUpdateForReserveMints() bool { return false }

func (a *Amm) SupportsExactOut() bool { return false }

func (a *Amm) Unidirectional() bool { return false }

func (a *Amm) ProgramDependencies() []amm.ProgramDependency { return nil }

func (a *Amm) GetAccountsLen() int { return SwapAccountsLen }

// IsActive is false once a snapshot reports the vault paused
func (a *Amm) IsActive() bool {
	return a.state == nil || !a.state.Vault.Paused
}

// HasSnapshot reports whether Update has succeeded at least once
func (a *Amm) HasSnapshot() bool { return a.state != nil }

// Clone returns an adapter that shares no mutable state with a
func (a *Amm) Clone() amm.Amm {
	c := *a
	if a.state != nil {
		s := *a.state
		c.state = &s
	}
	return &c
}
