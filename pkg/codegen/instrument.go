// Package codegen is the boundary where lowering consumes PGO output:
// counter-increment instrumentation and branch-weight metadata.
//
// Design: backends call through an Instrumenter while lowering each
// control-flow construct; without a profiler, or without matching profile
// data, every call degrades to a no-op.
package codegen

import (
	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
	"github.com/GriffinCanCode/veld-compiler/pkg/ir"
	"github.com/GriffinCanCode/veld-compiler/pkg/logger"
	"github.com/GriffinCanCode/veld-compiler/pkg/pgo"
)

// Instrumenter applies one function's PGO state while that function is
// lowered. The zero Instrumenter (nil PGO) is valid and inert.
type Instrumenter struct {
	PGO *pgo.Profiler
}

// CounterIncrement emits the increment for n's region counter into b.
func (in Instrumenter) CounterIncrement(b *ir.Block, n frontend.Node) {
	in.PGO.EmitCounterIncrement(b, n)
}

// SecondaryCounterIncrement emits the increment for n's secondary counter
// (goto-case target, synthetic loop condition) into b.
func (in Instrumenter) SecondaryCounterIncrement(b *ir.Block, n frontend.Node) {
	in.PGO.EmitCounterIncrementAt(b, pgo.SecondaryKey(n))
}

// CondWeights attaches two-way branch weights to br, derived from the
// taken and not-taken counts of the lowered branch point.
func (in Instrumenter) CondWeights(br *ir.CondBranch, trueCount, falseCount uint64) {
	if !in.PGO.HaveRegionCounts() {
		return
	}
	br.Weights = pgo.BranchWeights(trueCount, falseCount)
}

// IfWeights attaches weights to the branch lowered from s, deriving the
// else count from the parent count by conservation.
func (in Instrumenter) IfWeights(br *ir.CondBranch, s *frontend.IfStmt, parentCount uint64) {
	if !in.PGO.HaveRegionCounts() {
		return
	}
	thenCount := in.PGO.RegionCount(s)
	br.Weights = pgo.BranchWeights(thenCount, parentCount-thenCount)
}

// SwitchWeights attaches N-way weights to sw from the per-case counts, in
// (default, case...) arm order.
func (in Instrumenter) SwitchWeights(sw *ir.Switch, counts []uint64) {
	if !in.PGO.HaveRegionCounts() {
		return
	}
	sw.Weights = pgo.BranchWeightsN(counts)
}

// LoopWeights attaches back-edge weights for any loop statement to br.
func (in Instrumenter) LoopWeights(br *ir.CondBranch, loop frontend.Stmt) {
	if !in.PGO.HaveRegionCounts() {
		return
	}

	var weights *ir.BranchWeights
	switch s := loop.(type) {
	case *frontend.WhileStmt:
		weights = in.PGO.WhileLoopWeights(s.Cond, in.PGO.RegionCount(s))
	case *frontend.DoStmt:
		weights = in.PGO.WhileLoopWeights(s.Cond, in.PGO.RegionCount(s))
	case *frontend.ForStmt:
		weights = in.PGO.ForLoopWeights(s)
	case *frontend.ForeachStmt:
		weights = in.PGO.ForeachLoopWeights(s)
	case *frontend.ForeachRangeStmt:
		weights = in.PGO.ForeachRangeLoopWeights(s)
	default:
		logger.Warn("Branch weights requested for a non-loop statement")
		return
	}
	br.Weights = weights
}
