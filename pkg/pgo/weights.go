// Branch weight derivation: raw 64-bit execution counts scaled into the
// 32-bit weights the backend attaches to conditional branches.
package pgo

import (
	"math"

	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
	"github.com/GriffinCanCode/veld-compiler/pkg/ir"
)

// calculateWeightScale returns the divisor that brings every weight no
// larger than maxWeight strictly under 32 bits.
func calculateWeightScale(maxWeight uint64) uint64 {
	if maxWeight < math.MaxUint32 {
		return 1
	}
	return maxWeight/math.MaxUint32 + 1
}

// scaleBranchWeight scales one 64-bit weight down with scale and adds 1,
// per Laplace's rule of succession: no branch arm ever gets weight zero,
// which would read as an impossible path downstream.
func scaleBranchWeight(weight, scale uint64) uint32 {
	if scale == 0 {
		panic("pgo: branch weight scale is zero")
	}
	scaled := weight/scale + 1
	if scaled > math.MaxUint32 {
		panic("pgo: scaled branch weight overflows 32 bits")
	}
	return uint32(scaled)
}

// BranchWeights builds two-way weight metadata from the taken and
// not-taken counts of one branch. Both counts zero means no useful
// profile: nil is returned and the backend attaches nothing.
func BranchWeights(trueCount, falseCount uint64) *ir.BranchWeights {
	if trueCount == 0 && falseCount == 0 {
		return nil
	}

	scale := calculateWeightScale(max(trueCount, falseCount))
	return &ir.BranchWeights{Weights: []uint32{
		scaleBranchWeight(trueCount, scale),
		scaleBranchWeight(falseCount, scale),
	}}
}

// BranchWeightsN builds N-way weight metadata, one weight per arm. Fewer
// than two counts, or all-zero counts, yield nil.
func BranchWeightsN(counts []uint64) *ir.BranchWeights {
	if len(counts) < 2 {
		return nil
	}

	var maxWeight uint64
	for _, c := range counts {
		maxWeight = max(maxWeight, c)
	}
	if maxWeight == 0 {
		return nil
	}

	scale := calculateWeightScale(maxWeight)
	weights := make([]uint32, 0, len(counts))
	for _, c := range counts {
		weights = append(weights, scaleBranchWeight(c, scale))
	}
	return &ir.BranchWeights{Weights: weights}
}

// loopWeights forms the back-edge weights of any loop from its condition
// and body counts. Estimation noise can leave the condition count below
// the body count; the not-taken count saturates at zero instead of
// wrapping.
func loopWeights(condCount, loopCount uint64) *ir.BranchWeights {
	if condCount == 0 {
		return nil
	}
	return BranchWeights(loopCount, max(condCount, loopCount)-loopCount)
}

// WhileLoopWeights derives back-edge weights for a while or do loop from
// its condition node and recorded body count.
func (p *Profiler) WhileLoopWeights(cond frontend.Expr, loopCount uint64) *ir.BranchWeights {
	if !p.HaveRegionCounts() {
		return nil
	}
	condCount, ok := p.StmtCount(cond)
	if !ok {
		panic("pgo: missing while loop condition count")
	}
	return loopWeights(condCount, loopCount)
}

// ForLoopWeights derives back-edge weights for a for loop, falling back to
// the loop's secondary slot when it has no condition node.
func (p *Profiler) ForLoopWeights(s *frontend.ForStmt) *ir.BranchWeights {
	if !p.HaveRegionCounts() {
		return nil
	}
	key := SecondaryKey(s)
	if s.Cond != nil {
		key = Key(s.Cond)
	}
	condCount, ok := p.StmtCountAt(key)
	if !ok {
		panic("pgo: missing for loop condition count")
	}
	return loopWeights(condCount, p.RegionCount(s))
}

// ForeachLoopWeights derives back-edge weights for a foreach loop from its
// secondary (synthetic condition) slot.
func (p *Profiler) ForeachLoopWeights(s *frontend.ForeachStmt) *ir.BranchWeights {
	if !p.HaveRegionCounts() {
		return nil
	}
	condCount, ok := p.StmtCountAt(SecondaryKey(s))
	if !ok {
		panic("pgo: missing foreach loop condition count")
	}
	return loopWeights(condCount, p.RegionCount(s))
}

// ForeachRangeLoopWeights is ForeachLoopWeights for range loops.
func (p *Profiler) ForeachRangeLoopWeights(s *frontend.ForeachRangeStmt) *ir.BranchWeights {
	if !p.HaveRegionCounts() {
		return nil
	}
	condCount, ok := p.StmtCountAt(SecondaryKey(s))
	if !ok {
		panic("pgo: missing foreach range loop condition count")
	}
	return loopWeights(condCount, p.RegionCount(s))
}
