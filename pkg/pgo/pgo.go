// Per-function PGO orchestration: counter mapping, profile lookup, count
// propagation, and the query surface code generation consumes.
package pgo

import (
	"errors"
	"strings"

	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
	"github.com/GriffinCanCode/veld-compiler/pkg/ir"
	"github.com/GriffinCanCode/veld-compiler/pkg/logger"
	"github.com/GriffinCanCode/veld-compiler/pkg/profile"
)

// Options selects what PGO work runs for a compilation.
type Options struct {
	// GenInstr requests counter-increment instrumentation in the output.
	GenInstr bool
	// Source supplies previously recorded counts; nil when not consuming
	// a profile.
	Source profile.Source
}

// Active reports whether any PGO work is requested at all.
func (o Options) Active() bool {
	return o.GenInstr || o.Source != nil
}

// Profiler holds one function's PGO state: the counter map and
// control-flow hash, and, when matching profile data was found, the
// recorded region counts and the propagated per-node counts.
//
// A nil *Profiler is valid and inert, covering functions compiled with
// PGO disabled.
type Profiler struct {
	funcName  string
	genInstr  bool
	emitInstr bool

	funcHash     uint64
	numCounters  uint32
	counterMap   map[CounterKey]uint32
	regionCounts []uint64
	stmtCounts   map[CounterKey]uint64
}

// AssignRegionCounters runs the PGO front half for one function: maps
// counters unconditionally, then, if a profile source is configured and
// has matching data, propagates counts and annotates fn with the
// function's entry count. Returns nil when opts request no PGO work.
func AssignRegionCounters(fd *frontend.FuncDecl, fn *ir.Function, opts Options) *Profiler {
	if !opts.Active() {
		return nil
	}

	p := &Profiler{
		funcName:  canonicalFuncName(fd),
		genInstr:  opts.GenInstr,
		emitInstr: fd.Instrument,
	}

	p.mapRegionCounters(fd)

	if opts.Source != nil {
		p.loadRegionCounts(opts.Source)
		if p.HaveRegionCounts() {
			p.computeRegionCounts(fd)
			if fn != nil {
				fn.SetEntryCount(p.EntryCount())
			}
		}
	}
	return p
}

// canonicalFuncName derives the profile lookup name: the backend symbol
// name with any private linkage-disambiguation prefix stripped.
func canonicalFuncName(fd *frontend.FuncDecl) string {
	name := fd.LinkName
	if name == "" {
		name = fd.Name
	}
	// A leading '\x01' tells the backend to leave the symbol unmangled;
	// it is not part of the function's identity.
	return strings.TrimPrefix(name, "\x01")
}

func (p *Profiler) mapRegionCounters(fd *frontend.FuncDecl) {
	m := newRegionMapper()
	m.mapFunc(fd)

	if m.next == 0 {
		panic("pgo: no entry counter mapped for function " + p.funcName)
	}
	if int(m.next) != len(m.counters) {
		panic("pgo: counter slots and counter map disagree for function " + p.funcName)
	}

	p.counterMap = m.counters
	p.numCounters = m.next
	p.funcHash = m.hash.finalize()

	logger.LogCounterMapping(p.funcName, int(p.numCounters), p.funcHash)
}

func (p *Profiler) loadRegionCounts(src profile.Source) {
	counts, err := src.FunctionCounts(p.funcName, p.funcHash)
	switch {
	case err == nil:
		if len(counts) != int(p.numCounters) {
			logger.Warn("Ignoring profile data: counter array length mismatch",
				"function", p.funcName,
				"want", p.numCounters,
				"got", len(counts))
			return
		}
		p.regionCounts = counts
		logger.Debug("Loaded profile counts", "function", p.funcName)
	case errors.Is(err, profile.ErrUnknownFunction):
		// Often intentional (code not exercised by the training run);
		// not worth a warning.
		logger.Debug("No profile data for function", "function", p.funcName)
	case errors.Is(err, profile.ErrHashMismatch):
		logger.Warn("Ignoring profile data: control flow changed since profile was recorded",
			"function", p.funcName)
	case errors.Is(err, profile.ErrMalformed):
		logger.Warn("Ignoring profile data: malformed record",
			"function", p.funcName)
	default:
		logger.Warn("Error loading profile data",
			"function", p.funcName, "error", err)
	}
}

func (p *Profiler) computeRegionCounts(fd *frontend.FuncDecl) {
	w := newCountPropagator(p)
	w.run(fd)
	p.stmtCounts = w.counts
}

// HaveRegionCounts reports whether matching recorded counts were loaded.
func (p *Profiler) HaveRegionCounts() bool {
	return p != nil && len(p.regionCounts) > 0
}

// FuncName returns the canonical profile name of the function.
func (p *Profiler) FuncName() string {
	return p.funcName
}

// FuncHash returns the control-flow fingerprint.
func (p *Profiler) FuncHash() uint64 {
	return p.funcHash
}

// NumCounters returns the number of assigned counter slots.
func (p *Profiler) NumCounters() uint32 {
	return p.numCounters
}

// EntryCount returns the recorded entry count of the function body.
func (p *Profiler) EntryCount() uint64 {
	return p.regionCounts[0]
}

// CounterIndex returns n's primary counter slot.
func (p *Profiler) CounterIndex(n frontend.Node) (uint32, bool) {
	return p.CounterIndexAt(Key(n))
}

// CounterIndexAt returns the counter slot for an explicit key.
func (p *Profiler) CounterIndexAt(key CounterKey) (uint32, bool) {
	if p == nil {
		return 0, false
	}
	idx, ok := p.counterMap[key]
	return idx, ok
}

// RegionCount returns the recorded raw count at n's primary slot. The
// node must have been mapped; anything else is a bug in the traversals.
func (p *Profiler) RegionCount(n frontend.Node) uint64 {
	return p.RegionCountAt(Key(n))
}

// RegionCountAt is RegionCount for an explicit key.
func (p *Profiler) RegionCountAt(key CounterKey) uint64 {
	idx, ok := p.counterMap[key]
	if !ok {
		panic("pgo: node missing from counter map")
	}
	if !p.HaveRegionCounts() {
		return 0
	}
	return p.regionCounts[idx]
}

// StmtCount returns the propagated execution count of n, if one was
// computed.
func (p *Profiler) StmtCount(n frontend.Node) (uint64, bool) {
	return p.StmtCountAt(Key(n))
}

// StmtCountAt is StmtCount for an explicit key.
func (p *Profiler) StmtCountAt(key CounterKey) (uint64, bool) {
	if p == nil {
		return 0, false
	}
	c, ok := p.stmtCounts[key]
	return c, ok
}

// EmitCounterIncrement appends the counter-increment instruction for n to
// block b when building an instrumented binary. A no-op otherwise, and on
// functions whose instrumentation was disabled by pragma.
func (p *Profiler) EmitCounterIncrement(b *ir.Block, n frontend.Node) {
	p.EmitCounterIncrementAt(b, Key(n))
}

// EmitCounterIncrementAt is EmitCounterIncrement for an explicit key.
func (p *Profiler) EmitCounterIncrementAt(b *ir.Block, key CounterKey) {
	if p == nil || !p.genInstr || !p.emitInstr {
		return
	}
	idx, ok := p.counterMap[key]
	if !ok {
		panic("pgo: statement not found in counter map")
	}
	b.Insts = append(b.Insts, ir.ProfIncrement{
		FuncName:    p.funcName,
		FuncHash:    p.funcHash,
		NumCounters: p.numCounters,
		Counter:     idx,
	})
}
