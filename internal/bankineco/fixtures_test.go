package bankineco

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

var (
	testOracle = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	testTeam   = solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")
	testUser   = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
)

type vaultState struct {
	feeBps           uint16
	administeredRate uint64
	paused           bool
}

type venueState struct {
	vault           vaultState
	oraclePrice     uint64
	stableReserve   uint64
	yieldingReserve uint64
}

// flatVenue is a 1:1 venue with a 10 bps fee and 1,000,000 units on each side
func flatVenue() venueState {
	return venueState{
		vault:           vaultState{feeBps: 10, administeredRate: constants.RateScale},
		oraclePrice:     constants.RateScale,
		stableReserve:   1_000_000,
		yieldingReserve: 1_000_000,
	}
}

func encodeBorsh(t *testing.T, v interface{}) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(v))
	return buf.Bytes()
}

func vaultData(t *testing.T, v vaultState) []byte {
	return encodeBorsh(t, &VaultAccount{
		Discriminator:    VaultDiscriminator,
		Bank:             constants.USDStarBank,
		StableMint:       constants.StableMint,
		YieldingMint:     constants.YieldingMint,
		FeeBps:           v.feeBps,
		AdministeredRate: v.administeredRate,
		Paused:           v.paused,
		Bump:             255,
	})
}

func oracleData(t *testing.T, price uint64) []byte {
	return encodeBorsh(t, &OracleAccount{
		Discriminator: OracleDiscriminator,
		Price:         price,
		PublishTime:   1_760_000_000,
		Bump:          254,
	})
}

// tokenAccountData lays out an initialised SPL token account with no
// delegate, native flag or close authority.
func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1
	return data
}

func newTestAmm(t *testing.T, opts Options) *Amm {
	t.Helper()
	a, err := New(constants.MainUSDCVault, opts)
	require.NoError(t, err)
	return a
}

func defaultOptions() Options {
	return Options{Oracle: testOracle, Team: testTeam}
}

func accountsFor(t *testing.T, a *Amm, s venueState) amm.AccountMap {
	t.Helper()
	stableTA, yieldingTA := a.VaultTokenAccounts()
	vault := a.Key()

	accounts := amm.AccountMap{
		vault:      {Data: vaultData(t, s.vault)},
		stableTA:   {Data: tokenAccountData(constants.StableMint, vault, s.stableReserve)},
		yieldingTA: {Data: tokenAccountData(constants.YieldingMint, vault, s.yieldingReserve)},
	}
	if oracle := a.Identity().Oracle; !oracle.IsZero() {
		accounts[oracle] = &amm.Account{Data: oracleData(t, s.oraclePrice)}
	}
	return accounts
}

func updatedAmm(t *testing.T, s venueState) *Amm {
	t.Helper()
	a := newTestAmm(t, defaultOptions())
	require.NoError(t, a.Update(accountsFor(t, a, s)))
	return a
}

func stableIn(amount uint64) amm.QuoteParams {
	return amm.QuoteParams{
		InputMint:  constants.StableMint,
		OutputMint: constants.YieldingMint,
		Amount:     amount,
		SwapMode:   amm.ExactIn,
	}
}

func yieldingIn(amount uint64) amm.QuoteParams {
	return amm.QuoteParams{
		InputMint:  constants.YieldingMint,
		OutputMint: constants.StableMint,
		Amount:     amount,
		SwapMode:   amm.ExactIn,
	}
}
