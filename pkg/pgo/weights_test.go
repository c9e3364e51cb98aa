package pgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
)

func TestCalculateWeightScale(t *testing.T) {
	tests := []struct {
		name      string
		maxWeight uint64
		want      uint64
	}{
		{"zero", 0, 1},
		{"small", 12345, 1},
		{"just under 32 bits", math.MaxUint32 - 1, 1},
		{"at 32 bits", math.MaxUint32, 2},
		{"just over 32 bits", math.MaxUint32 + 5, 2},
		{"huge", math.MaxUint64, 1<<32 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateWeightScale(tt.maxWeight))
		})
	}
}

func TestScaleBranchWeightNeverZero(t *testing.T) {
	// Laplace: every arm gets at least weight 1.
	assert.Equal(t, uint32(1), scaleBranchWeight(0, 1))
	assert.Equal(t, uint32(1), scaleBranchWeight(0, 1000))
	assert.Equal(t, uint32(43), scaleBranchWeight(42, 1))
}

func TestBranchWeightsTwoWay(t *testing.T) {
	w := BranchWeights(70, 30)
	require.NotNil(t, w)
	assert.Equal(t, []uint32{71, 31}, w.Weights)

	// Both counts zero: no usable profile.
	assert.Nil(t, BranchWeights(0, 0))

	// Large counts scale down under 32 bits, preserving order.
	big := BranchWeights(math.MaxUint64, math.MaxUint64/3)
	require.NotNil(t, big)
	assert.Greater(t, big.Weights[0], big.Weights[1])
	assert.NotZero(t, big.Weights[1])
}

func TestBranchWeightsNWay(t *testing.T) {
	w := BranchWeightsN([]uint64{5, 0, 95})
	require.NotNil(t, w)
	assert.Equal(t, []uint32{6, 1, 96}, w.Weights)

	assert.Nil(t, BranchWeightsN(nil), "no counts")
	assert.Nil(t, BranchWeightsN([]uint64{7}), "fewer than two arms")
	assert.Nil(t, BranchWeightsN([]uint64{0, 0, 0}), "all-zero counts")
}

func TestLoopWeightsSaturateNotTaken(t *testing.T) {
	// Estimation noise can put the condition count below the body count;
	// the not-taken arm clamps to zero instead of wrapping.
	w := loopWeights(30, 40)
	require.NotNil(t, w)
	assert.Equal(t, []uint32{41, 1}, w.Weights)

	assert.Nil(t, loopWeights(0, 0), "unexecuted condition")
}

func TestWhileLoopWeightsFromProfile(t *testing.T) {
	body := &frontend.CompoundStmt{Stmts: []frontend.Stmt{call("g")}}
	cond := &frontend.Ident{Name: "c"}
	loop := &frontend.WhileStmt{Cond: cond, Body: body}
	fd := testFunc("f", loop, call("after"))

	p := withCounts(t, fd, []uint64{10, 40})

	w := p.WhileLoopWeights(cond, p.RegionCount(loop))
	require.NotNil(t, w)
	// Condition 50, body 40: backedge taken 40, not taken 10.
	assert.Equal(t, []uint32{41, 11}, w.Weights)
}

func TestForLoopWeightsUsesSecondarySlot(t *testing.T) {
	brk := &frontend.BreakStmt{}
	guard := &frontend.IfStmt{Cond: &frontend.Ident{Name: "done"}, Then: brk}
	loop := &frontend.ForStmt{
		Body: &frontend.CompoundStmt{Stmts: []frontend.Stmt{guard, call("work")}},
	}
	fd := testFunc("f", loop, call("after"))

	p := withCounts(t, fd, []uint64{10, 50, 10})

	w := p.ForLoopWeights(loop)
	require.NotNil(t, w)
	assert.Equal(t, []uint32{51, 1}, w.Weights)
}

func TestLoopWeightsWithoutProfileAreNil(t *testing.T) {
	cond := &frontend.Ident{Name: "c"}
	loop := &frontend.WhileStmt{Cond: cond, Body: call("g")}
	fd := testFunc("f", loop)

	p := AssignRegionCounters(fd, nil, Options{GenInstr: true})
	assert.Nil(t, p.WhileLoopWeights(cond, 0))
}
