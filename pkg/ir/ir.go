// Package ir implements the intermediate representation.
//
// Design: Three-address code, explicit control flow, strongly typed.
// Simple enough to reason about, powerful enough to optimize. Profile
// metadata (entry counts, branch weights, counter increments) rides on the
// same structures so the backend needs no side tables.
package ir

// Program is the top-level IR container
type Program struct {
	Functions []*Function
}

// Function represents a compiled function
type Function struct {
	Name       string
	Params     []*Param
	ReturnType Type
	Blocks     []*Block

	// entryCount is the profiled number of entries into the function,
	// set only when matching profile data was found.
	entryCount    uint64
	hasEntryCount bool
}

// SetEntryCount attaches the profiled entry count annotation.
func (f *Function) SetEntryCount(count uint64) {
	f.entryCount = count
	f.hasEntryCount = true
}

// EntryCount reports the profiled entry count, if one was attached.
func (f *Function) EntryCount() (uint64, bool) {
	return f.entryCount, f.hasEntryCount
}

// Block is a basic block - straight-line code ending in a terminator
type Block struct {
	Label string
	Insts []Inst
	Term  Terminator
}

// Inst is a three-address code instruction
type Inst interface {
	inst()
}

// Terminator ends a basic block (branch, return, etc.)
type Terminator interface {
	term()
}

// Instructions
type Alloc struct {
	Dest Value
	Type Type
}

func (Alloc) inst() {}

type Load struct {
	Dest Value
	Src  Value
}

func (Load) inst() {}

type Store struct {
	Dest Value
	Src  Value
}

func (Store) inst() {}

type BinOp struct {
	Dest Value
	Op   Op
	L    Value
	R    Value
}

func (BinOp) inst() {}

type Call struct {
	Dest     Value
	Function string
	Args     []Value
}

func (Call) inst() {}

// ProfIncrement bumps one execution counter of the instrumented binary's
// profile runtime. The operands identify the counter the same way the
// profile record does: function name, control-flow hash, total counter
// count, and this counter's slot.
type ProfIncrement struct {
	FuncName    string
	FuncHash    uint64
	NumCounters uint32
	Counter     uint32
}

func (ProfIncrement) inst() {}

// BranchWeights is profile metadata for a multi-way branch point: one
// strictly positive 32-bit weight per arm, in arm order.
type BranchWeights struct {
	Weights []uint32
}

// Terminators
type Return struct {
	Value Value
}

func (Return) term() {}

type Branch struct {
	Target string
}

func (Branch) term() {}

type CondBranch struct {
	Cond       Value
	TrueBlock  string
	FalseBlock string

	// Weights orders (taken, not taken); nil without profile data.
	Weights *BranchWeights
}

func (CondBranch) term() {}

// Switch dispatches to one of Targets by case index, or Default.
type Switch struct {
	Value   Value
	Targets []string
	Default string

	// Weights orders (default, case...); nil without profile data.
	Weights *BranchWeights
}

func (Switch) term() {}

// Values and types
type Value interface {
	value()
}

type Temp struct {
	ID   int
	Type Type
}

func (Temp) value() {}

type Const struct {
	Val  int64
	Type Type
}

func (Const) value() {}

type Param struct {
	Name string
	Type Type
}

func (Param) value() {}

type Type interface {
	typ()
}

type IntType struct{}

func (IntType) typ() {}

type FloatType struct{}

func (FloatType) typ() {}

type PtrType struct {
	Elem Type
}

func (PtrType) typ() {}

// Operations
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpLt
	OpGt
)
