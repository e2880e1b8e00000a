package bankineco

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

// TokenAccountSize is the length of an SPL token account without extensions
const TokenAccountSize = 165

var (
	VaultDiscriminator  = accountDiscriminator("Vault")
	OracleDiscriminator = accountDiscriminator("Oracle")
)

// accountDiscriminator follows the Anchor convention sha256("account:<Name>")[:8]
func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// VaultAccount is the vault program's Vault account.
// AdministeredRate is stable units per yielding unit scaled by constants.RateScale.
type VaultAccount struct {
	Discriminator    [8]byte
	Bank             solana.PublicKey
	StableMint       solana.PublicKey
	YieldingMint     solana.PublicKey
	FeeBps           uint16
	AdministeredRate uint64
	Paused           bool
	Bump             uint8
}

// OracleAccount publishes the yield-accrual price of the wrapped token,
// stable units per yielding unit scaled by constants.RateScale.
type OracleAccount struct {
	Discriminator [8]byte
	Price         uint64
	PublishTime   int64
	Bump          uint8
}

// snapshot is the decoded state a quote is computed from. It holds no
// pointers or slices so a plain value copy is a deep copy.
type snapshot struct {
	Vault           VaultAccount
	Oracle          OracleAccount
	HasOracle       bool
	StableReserve   uint64 // vault balance of the stable mint
	YieldingReserve uint64 // vault balance of the yielding mint
}

// rate returns the conversion rate the vault applies
func (s *snapshot) rate() uint64 {
	if s.HasOracle {
		return s.Oracle.Price
	}
	return s.Vault.AdministeredRate
}

// reserveOf returns the vault balance that pays out the given mint
func (s *snapshot) reserveOf(mint solana.PublicKey) uint64 {
	if mint.Equals(constants.StableMint) {
		return s.StableReserve
	}
	return s.YieldingReserve
}

func decodeAnchor(data []byte, discriminator [8]byte, v interface{}) error {
	if len(data) < len(discriminator) {
		return fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(discriminator)], discriminator[:]) {
		return fmt.Errorf("unexpected discriminator %x", data[:len(discriminator)])
	}
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return fmt.Errorf("borsh decode: %w", err)
	}
	return nil
}

// DecodeVault parses and validates a Vault account
func DecodeVault(data []byte) (*VaultAccount, error) {
	var v VaultAccount
	if err := decodeAnchor(data, VaultDiscriminator, &v); err != nil {
		return nil, err
	}
	if !v.StableMint.Equals(constants.StableMint) || !v.YieldingMint.Equals(constants.YieldingMint) {
		return nil, fmt.Errorf("vault mints %s/%s do not match venue", v.StableMint, v.YieldingMint)
	}
	if v.FeeBps > constants.BpsDenom {
		return nil, fmt.Errorf("fee %d bps exceeds %d", v.FeeBps, constants.BpsDenom)
	}
	return &v, nil
}

// DecodeOracle parses and validates an Oracle account
func DecodeOracle(data []byte) (*OracleAccount, error) {
	var o OracleAccount
	if err := decodeAnchor(data, OracleDiscriminator, &o); err != nil {
		return nil, err
	}
	if o.Price == 0 {
		return nil, fmt.Errorf("oracle price is zero")
	}
	return &o, nil
}

// DecodeTokenAccount parses an SPL token account and checks it holds mint
func DecodeTokenAccount(data []byte, mint solana.PublicKey) (*token.Account, error) {
	if len(data) < TokenAccountSize {
		return nil, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	var acc token.Account
	if err := bin.NewBinDecoder(data[:TokenAccountSize]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("token account decode: %w", err)
	}
	if !acc.Mint.Equals(mint) {
		return nil, fmt.Errorf("token account mint %s, want %s", acc.Mint, mint)
	}
	return &acc, nil
}

// GetAccountsToUpdate returns the accounts a quote depends on. The list is
// fixed for the lifetime of the adapter.
func (a *Amm) GetAccountsToUpdate() []solana.PublicKey {
	keys := []solana.PublicKey{
		a.identity.Vault,
		a.vaultStableTA,
		a.vaultYieldingTA,
	}
	if !a.identity.Oracle.IsZero() {
		keys = append(keys, a.identity.Oracle)
	}
	return keys
}

// Update decodes the tracked accounts and replaces the snapshot. The
// previous snapshot is kept when any account is missing or malformed.
func (a *Amm) Update(accounts amm.AccountMap) error {
	next, err := a.decodeSnapshot(accounts)
	if err != nil {
		return err
	}
	a.state = next
	return nil
}

func (a *Amm) decodeSnapshot(accounts amm.AccountMap) (*snapshot, error) {
	next := &snapshot{}

	data, err := lookup(accounts, a.identity.Vault)
	if err != nil {
		return nil, err
	}
	vault, err := DecodeVault(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vault %s: %v", amm.ErrDecode, a.identity.Vault, err)
	}
	next.Vault = *vault

	if !a.identity.Oracle.IsZero() {
		data, err := lookup(accounts, a.identity.Oracle)
		if err != nil {
			return nil, err
		}
		oracle, err := DecodeOracle(data)
		if err != nil {
			return nil, fmt.Errorf("%w: oracle %s: %v", amm.ErrDecode, a.identity.Oracle, err)
		}
		next.Oracle = *oracle
		next.HasOracle = true
	} else if vault.AdministeredRate == 0 {
		return nil, fmt.Errorf("%w: vault %s: administered rate is zero and no oracle is configured",
			amm.ErrDecode, a.identity.Vault)
	}

	data, err = lookup(accounts, a.vaultStableTA)
	if err != nil {
		return nil, err
	}
	stable, err := DecodeTokenAccount(data, constants.StableMint)
	if err != nil {
		return nil, fmt.Errorf("%w: vault stable account %s: %v", amm.ErrDecode, a.vaultStableTA, err)
	}
	next.StableReserve = stable.Amount

	data, err = lookup(accounts, a.vaultYieldingTA)
	if err != nil {
		return nil, err
	}
	yielding, err := DecodeTokenAccount(data, constants.YieldingMint)
	if err != nil {
		return nil, fmt.Errorf("%w: vault yielding account %s: %v", amm.ErrDecode, a.vaultYieldingTA, err)
	}
	next.YieldingReserve = yielding.Amount

	return next, nil
}

func lookup(accounts amm.AccountMap, key solana.PublicKey) ([]byte, error) {
	acc, ok := accounts[key]
	if !ok || acc == nil {
		return nil, fmt.Errorf("%w: %s", amm.ErrMissingAccount, key)
	}
	return acc.Data, nil
}

// RateSource names where the conversion rate of a snapshot comes from
type RateSource string

const (
	RateSourceOracle       RateSource = "oracle"
	RateSourceAdministered RateSource = "administered"
)

// Market is a read-only view of the current snapshot
type Market struct {
	FeeBps            uint16
	Rate              uint64
	RateSource        RateSource
	OraclePublishTime int64
	Paused            bool
	StableReserve     uint64
	YieldingReserve   uint64
}

// Market reports the decoded venue state, or false before the first
// successful Update
func (a *Amm) Market() (Market, bool) {
	s := a.state
	if s == nil {
		return Market{}, false
	}
	m := Market{
		FeeBps:          s.Vault.FeeBps,
		Rate:            s.rate(),
		RateSource:      RateSourceAdministered,
		Paused:          s.Vault.Paused,
		StableReserve:   s.StableReserve,
		YieldingReserve: s.YieldingReserve,
	}
	if s.HasOracle {
		m.RateSource = RateSourceOracle
		m.OraclePublishTime = s.Oracle.PublishTime
	}
	return m, true
}
