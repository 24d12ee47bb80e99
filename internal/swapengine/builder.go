package swapengine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// txPlan is the fully resolved content of one swap transaction.
type txPlan struct {
	computeUnitLimit uint32
	computeUnitPrice uint64

	temp        *TempAccount
	destination *ResolvedTokenAccount // buys only
	swap        solana.Instruction
	closeBase   solana.Instruction // full-exit sells only
}

// instructions lays the plan out in execution order: compute budget, temp
// account setup, optional ATA creation, swap, temp close, optional base close.
func (p *txPlan) instructions() ([]solana.Instruction, error) {
	if p.temp == nil || p.temp.CloseIx == nil || len(p.temp.SetupIxs) == 0 {
		return nil, fmt.Errorf("temp account not planned")
	}
	if p.swap == nil {
		return nil, fmt.Errorf("swap instruction not planned")
	}

	ixs := make([]solana.Instruction, 0, 8)
	ixs = append(ixs,
		NewSetComputeUnitLimitIx(p.computeUnitLimit),
		NewSetComputeUnitPriceIx(p.computeUnitPrice),
	)
	ixs = append(ixs, p.temp.SetupIxs...)
	if p.destination != nil {
		ixs = append(ixs, p.destination.PreIxs...)
	}
	ixs = append(ixs, p.swap, p.temp.CloseIx)
	if p.closeBase != nil {
		ixs = append(ixs, p.closeBase)
	}
	return ixs, nil
}
