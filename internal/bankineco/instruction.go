package bankineco

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
	"github.com/cheliosooo/bankineco-amm-interface/internal/tokenaccount"
)

// SwapAccountsLen is the number of accounts the vault swap instruction takes
const SwapAccountsLen = 15

// swapAction holds the addresses of one swap before ATA derivation
type swapAction struct {
	user                solana.PublicKey
	bank                solana.PublicKey
	vault               solana.PublicKey
	oracle              solana.PublicKey
	yieldingMint        solana.PublicKey
	bankMint            solana.PublicKey
	team                solana.PublicKey
	yieldingMintProgram solana.PublicKey
}

// tokenProgramFor returns the token program owning mint
func (s swapAction) tokenProgramFor(mint solana.PublicKey) solana.PublicKey {
	if mint.Equals(constants.YieldingMint) {
		return s.yieldingMintProgram
	}
	return constants.TokenProgramID
}

// accountMetas derives the ATAs and lays the accounts out in the order the
// vault program's swap handler reads them.
func (s swapAction) accountMetas() ([]*solana.AccountMeta, error) {
	yieldingUserTA, err := tokenaccount.Derive(s.user, s.yieldingMint, s.tokenProgramFor(s.yieldingMint))
	if err != nil {
		return nil, fmt.Errorf("user yielding ata: %w", err)
	}
	bankMintUserTA, err := tokenaccount.Derive(s.user, s.bankMint, s.tokenProgramFor(s.bankMint))
	if err != nil {
		return nil, fmt.Errorf("user bank mint ata: %w", err)
	}
	yieldingVaultTA, err := tokenaccount.Derive(s.vault, s.yieldingMint, s.tokenProgramFor(s.yieldingMint))
	if err != nil {
		return nil, fmt.Errorf("vault yielding ata: %w", err)
	}
	feeTeamTA, err := tokenaccount.Derive(s.team, s.yieldingMint, s.tokenProgramFor(s.yieldingMint))
	if err != nil {
		return nil, fmt.Errorf("team fee ata: %w", err)
	}

	// Vault program swap account order:
	// 0.  user (signer)
	// 1.  bank
	// 2.  vault
	// 3.  oracle (read-only)
	// 4.  yielding mint
	// 5.  bank mint
	// 6.  user yielding token account
	// 7.  user bank mint token account
	// 8.  vault yielding token account
	// 9.  team
	// 10. team fee token account
	// 11. system program
	// 12. token program
	// 13. yielding mint token program
	// 14. associated token program
	return []*solana.AccountMeta{
		{PublicKey: s.user, IsWritable: true, IsSigner: true},
		{PublicKey: s.bank, IsWritable: true, IsSigner: false},
		{PublicKey: s.vault, IsWritable: true, IsSigner: false},
		{PublicKey: s.oracle, IsWritable: false, IsSigner: false},
		{PublicKey: s.yieldingMint, IsWritable: true, IsSigner: false},
		{PublicKey: s.bankMint, IsWritable: true, IsSigner: false},
		{PublicKey: yieldingUserTA, IsWritable: true, IsSigner: false},
		{PublicKey: bankMintUserTA, IsWritable: true, IsSigner: false},
		{PublicKey: yieldingVaultTA, IsWritable: true, IsSigner: false},
		{PublicKey: s.team, IsWritable: true, IsSigner: false},
		{PublicKey: feeTeamTA, IsWritable: true, IsSigner: false},
		{PublicKey: constants.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: constants.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: s.yieldingMintProgram, IsWritable: false, IsSigner: false},
		{PublicKey: constants.AssociatedTokenProgramID, IsWritable: false, IsSigner: false},
	}, nil
}

// GetSwapAndAccountMetas returns the full account list for a swap or an
// error; it never returns a partial list.
func (a *Amm) GetSwapAndAccountMetas(params amm.SwapParams) (*amm.SwapAndAccountMetas, error) {
	user := params.TokenTransferAuthority
	if user.IsZero() {
		return nil, fmt.Errorf("%w: token transfer authority is zero", amm.ErrBuild)
	}
	if a.identity.Oracle.IsZero() {
		return nil, fmt.Errorf("%w: oracle is not configured for vault %s", amm.ErrBuild, a.identity.Vault)
	}
	if a.identity.Team.IsZero() {
		return nil, fmt.Errorf("%w: team is not configured for vault %s", amm.ErrBuild, a.identity.Vault)
	}

	dir, err := DetermineDirection(params.SourceMint, params.DestinationMint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", amm.ErrBuild, err)
	}

	// The source mint fills the yielding slot and the destination the bank
	// slot, so reversing the trade swaps exactly those two slots.
	var yieldingMint, bankMint solana.PublicKey
	switch dir {
	case DirectionMint:
		yieldingMint, bankMint = constants.StableMint, constants.YieldingMint
	case DirectionRedeem:
		yieldingMint, bankMint = constants.YieldingMint, constants.StableMint
	}

	metas, err := swapAction{
		user:                user,
		bank:                a.identity.Bank,
		vault:               a.identity.Vault,
		oracle:              a.identity.Oracle,
		yieldingMint:        yieldingMint,
		bankMint:            bankMint,
		team:                a.identity.Team,
		yieldingMintProgram: a.identity.YieldingMintProgram,
	}.accountMetas()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", amm.ErrBuild, err)
	}

	return &amm.SwapAndAccountMetas{
		Swap:         amm.SwapTokenSwap,
		AccountMetas: metas,
	}, nil
}
