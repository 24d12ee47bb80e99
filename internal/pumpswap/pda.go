package pumpswap

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
)

// CreatorVault identifies where creator fees of a pool are routed.
type CreatorVault struct {
	Authority    solana.PublicKey `json:"authority"`
	TokenAccount solana.PublicKey `json:"token_account"`
}

// CreatorVaultAuthority derives the vault authority PDA for a creator.
func CreatorVaultAuthority(creator solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte(constants.SeedCreatorVault),
			creator.Bytes(),
		},
		constants.PumpAMMProgramID,
	)
}

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint) under the
// given token program.
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	// Seeds: [owner, token_program, mint]
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		constants.AssociatedTokenProgramID,
	)
}

// TempAccountAddress computes the address of an account created with seed
// under owner program, funded and controlled by base.
func TempAccountAddress(base solana.PublicKey, seed string, owner solana.PublicKey) (solana.PublicKey, error) {
	return solana.CreateWithSeed(base, seed, owner)
}
