// Package bankinecotest builds raw vault accounts for tests of code that
// hosts a bankineco market.
package bankinecotest

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

var (
	Oracle = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	Team   = solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")
	User   = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
)

// State is the venue state encoded into accounts
type State struct {
	FeeBps           uint16
	AdministeredRate uint64
	Paused           bool
	OraclePrice      uint64
	StableReserve    uint64
	YieldingReserve  uint64
}

// Flat is a 1:1 venue with a 10 bps fee and 1,000,000 units on each side
func Flat() State {
	return State{
		FeeBps:           10,
		AdministeredRate: constants.RateScale,
		OraclePrice:      constants.RateScale,
		StableReserve:    1_000_000,
		YieldingReserve:  1_000_000,
	}
}

// NewMarket builds a market for the main vault with the test oracle and team
func NewMarket() *bankineco.Amm {
	m, err := bankineco.New(constants.MainUSDCVault, bankineco.Options{Oracle: Oracle, Team: Team})
	if err != nil {
		panic(err)
	}
	return m
}

// Accounts encodes s into the accounts market tracks
func Accounts(market *bankineco.Amm, s State) amm.AccountMap {
	stableTA, yieldingTA := market.VaultTokenAccounts()
	vault := market.Key()

	accounts := amm.AccountMap{
		vault: {Owner: constants.ProgramID, Data: encode(&bankineco.VaultAccount{
			Discriminator:    bankineco.VaultDiscriminator,
			Bank:             constants.USDStarBank,
			StableMint:       constants.StableMint,
			YieldingMint:     constants.YieldingMint,
			FeeBps:           s.FeeBps,
			AdministeredRate: s.AdministeredRate,
			Paused:           s.Paused,
		})},
		stableTA:   {Owner: constants.TokenProgramID, Data: TokenAccountData(constants.StableMint, vault, s.StableReserve)},
		yieldingTA: {Owner: constants.TokenProgramID, Data: TokenAccountData(constants.YieldingMint, vault, s.YieldingReserve)},
	}
	if oracle := market.Identity().Oracle; !oracle.IsZero() {
		accounts[oracle] = &amm.Account{Owner: constants.ProgramID, Data: encode(&bankineco.OracleAccount{
			Discriminator: bankineco.OracleDiscriminator,
			Price:         s.OraclePrice,
			PublishTime:   1_760_000_000,
		})}
	}
	return accounts
}

// TokenAccountData lays out an initialised SPL token account
func TokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, bankineco.TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1
	return data
}

func encode(v interface{}) []byte {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
