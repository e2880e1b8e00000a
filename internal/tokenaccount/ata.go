// Package tokenaccount derives associated token account addresses.
package tokenaccount

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

// Derive returns the ATA PDA for (owner, mint) under the given token program.
// Seeds: [owner, token_program, mint]
func Derive(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if owner.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("ata owner is zero")
	}
	if mint.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("ata mint is zero")
	}
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		constants.AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive ata for %s/%s: %w", owner, mint, err)
	}
	return ata, nil
}

// DeriveLegacy derives the ATA under the classic SPL token program.
func DeriveLegacy(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return Derive(owner, mint, constants.TokenProgramID)
}
