// Package optimizer - IR-level optimizations
// Design: Simple, effective passes for fast compilation
package optimizer

import (
	"github.com/GriffinCanCode/veld-compiler/pkg/ir"
	"github.com/GriffinCanCode/veld-compiler/pkg/logger"
)

// ReorderBlocks lays out each function's basic blocks by profile hotness:
// entry block first, then hot blocks, cold blocks at the end. Block heat
// comes from the branch-weight metadata attached during lowering, so the
// pass is a no-op for functions compiled without profile data.
func ReorderBlocks(prog *ir.Program) *ir.Program {
	logger.Debug("Running profile-guided block layout")

	changed := 0
	for _, fn := range prog.Functions {
		if reorderFunctionBlocks(fn) {
			changed++
		}
	}

	logger.LogOptimization("block-layout", changed)
	return prog
}

func reorderFunctionBlocks(fn *ir.Function) bool {
	if len(fn.Blocks) <= 2 {
		return false
	}

	heat := blockHeat(fn)
	if len(heat) == 0 {
		return false
	}

	// Entry block stays first; the rest are picked hottest-first.
	ordered := make([]*ir.Block, 0, len(fn.Blocks))
	ordered = append(ordered, fn.Blocks[0])

	remaining := append([]*ir.Block(nil), fn.Blocks[1:]...)
	for len(remaining) > 0 {
		hottest := 0
		for i, b := range remaining {
			if heat[b.Label] > heat[remaining[hottest].Label] {
				hottest = i
			}
		}
		ordered = append(ordered, remaining[hottest])
		remaining = append(remaining[:hottest], remaining[hottest+1:]...)
	}

	moved := false
	for i := range ordered {
		if ordered[i] != fn.Blocks[i] {
			moved = true
			break
		}
	}
	fn.Blocks = ordered
	if moved {
		logger.Debug("Reordered blocks by hotness", "function", fn.Name, "blocks", len(ordered))
	}
	return moved
}

// blockHeat sums the weighted incoming edges of every block, read off the
// branch-weight metadata of each terminator.
func blockHeat(fn *ir.Function) map[string]uint64 {
	heat := make(map[string]uint64)
	any := false

	for _, b := range fn.Blocks {
		switch t := b.Term.(type) {
		case ir.CondBranch:
			if t.Weights == nil || len(t.Weights.Weights) != 2 {
				continue
			}
			heat[t.TrueBlock] += uint64(t.Weights.Weights[0])
			heat[t.FalseBlock] += uint64(t.Weights.Weights[1])
			any = true
		case ir.Switch:
			if t.Weights == nil || len(t.Weights.Weights) != len(t.Targets)+1 {
				continue
			}
			heat[t.Default] += uint64(t.Weights.Weights[0])
			for i, target := range t.Targets {
				heat[target] += uint64(t.Weights.Weights[i+1])
			}
			any = true
		}
	}

	if !any {
		return nil
	}
	return heat
}
