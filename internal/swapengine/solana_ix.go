package swapengine

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
)

// NewSetComputeUnitLimitIx builds a ComputeBudget SetComputeUnitLimit instruction.
func NewSetComputeUnitLimitIx(units uint32) solana.Instruction {
	// ComputeBudget instruction layout:
	// u8: instruction index (2 = SetComputeUnitLimit)
	// u32: units
	data := make([]byte, 1+4)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:5], units)
	return solana.NewInstruction(constants.ComputeBudgetProgramID, []*solana.AccountMeta{}, data)
}

// NewSetComputeUnitPriceIx builds a ComputeBudget SetComputeUnitPrice instruction.
func NewSetComputeUnitPriceIx(microLamports uint64) solana.Instruction {
	// u8: instruction index (3 = SetComputeUnitPrice)
	// u64: micro-lamports per compute unit
	data := make([]byte, 1+8)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return solana.NewInstruction(constants.ComputeBudgetProgramID, []*solana.AccountMeta{}, data)
}

// NewCreateAccountWithSeedIx creates a token-program-owned account at the
// address derived from (base, seed), funded by base.
func NewCreateAccountWithSeedIx(base solana.PublicKey, seed string, lamports uint64, created solana.PublicKey) (solana.Instruction, error) {
	ix, err := system.NewCreateAccountWithSeedInstruction(
		base,
		seed,
		lamports,
		constants.TokenAccountSize,
		constants.TokenProgramID,
		base,
		created,
		base,
	).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("create account with seed: %w", err)
	}
	return ix, nil
}

// NewInitializeAccountIx initializes a token account for mint owned by owner.
func NewInitializeAccountIx(account, mint, owner solana.PublicKey) (solana.Instruction, error) {
	ix, err := token.NewInitializeAccountInstruction(
		account,
		mint,
		owner,
		solana.SysVarRentPubkey,
	).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("initialize account: %w", err)
	}
	return ix, nil
}

// NewCreateAssociatedTokenAccountIx builds an instruction to create an ATA.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner (read-only)
// 3. mint (read-only)
// 4. system_program
// 5. token_program
// 6. rent_sysvar
func NewCreateAssociatedTokenAccountIx(
	payer solana.PublicKey,
	ata solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	tokenProgram solana.PublicKey,
) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: constants.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: tokenProgram, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
	}

	// ATA create instruction data is empty.
	return solana.NewInstruction(constants.AssociatedTokenProgramID, accounts, []byte{})
}

// NewTokenCloseAccountIx builds a CloseAccount instruction under tokenProgram.
func NewTokenCloseAccountIx(tokenProgram, account, destination, owner solana.PublicKey) solana.Instruction {
	// TokenProgram instruction index 9 = CloseAccount
	data := []byte{9}
	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(tokenProgram, accounts, data)
}
