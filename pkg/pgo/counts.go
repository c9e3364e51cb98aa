// Count propagation: a second walk that pushes the recorded region counts
// through the AST using per-construct conservation arithmetic, recording a
// count at every point where the flowing value changes.
package pgo

import (
	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
)

// breakContinue accumulates the counts leaving one enclosing loop or
// switch through break and continue statements.
type breakContinue struct {
	breakCount    uint64
	continueCount uint64
}

// loopLabel remembers the break/continue stack depth at the point a label
// was bound, so `break lbl` and `continue lbl` can credit the right loop.
type loopLabel struct {
	label *frontend.LabelStmt
	depth int
}

// countPropagator is the propagation state threaded through one
// function's walk.
type countPropagator struct {
	prof *Profiler

	// current is the execution count flowing into the next node.
	current uint64
	// recordNext marks that current should be recorded on the next
	// visited statement, set where control merges unconditionally (after
	// returns, jumps, loop exits, branch merges).
	recordNext bool

	counts  map[CounterKey]uint64
	bcStack []breakContinue
	labels  []loopLabel
}

func newCountPropagator(p *Profiler) *countPropagator {
	return &countPropagator{
		prof:   p,
		counts: make(map[CounterKey]uint64),
	}
}

func (w *countPropagator) run(fd *frontend.FuncDecl) {
	body := w.setCount(w.prof.RegionCount(fd.Body))
	w.counts[Key(fd.Body)] = body
	w.walkStmt(fd.Body)
}

// recordNode writes the pending current count onto n, if one is pending.
func (w *countPropagator) recordNode(n frontend.Node) {
	if w.recordNext {
		w.counts[Key(n)] = w.current
		w.recordNext = false
	}
}

func (w *countPropagator) setCount(c uint64) uint64 {
	w.current = c
	return c
}

// region is shorthand for the recorded raw count at n's primary slot.
func (w *countPropagator) region(n frontend.Node) uint64 {
	return w.prof.RegionCount(n)
}

func (w *countPropagator) pushLoop() {
	w.bcStack = append(w.bcStack, breakContinue{})
}

func (w *countPropagator) popLoop() breakContinue {
	bc := w.bcStack[len(w.bcStack)-1]
	w.bcStack = w.bcStack[:len(w.bcStack)-1]
	return bc
}

// loopAt resolves the accumulator a break/continue feeds: the innermost
// one, or the one bound at target's label depth.
func (w *countPropagator) loopAt(target *frontend.LabelStmt, kind string) *breakContinue {
	if len(w.bcStack) == 0 {
		panic("pgo: " + kind + " outside of loop or switch")
	}
	if target == nil {
		return &w.bcStack[len(w.bcStack)-1]
	}
	for _, ll := range w.labels {
		if ll.label == target {
			if ll.depth >= len(w.bcStack) {
				panic("pgo: labeled " + kind + " target bound outside the live loop stack")
			}
			return &w.bcStack[ll.depth]
		}
	}
	panic("pgo: labeled " + kind + " targets an unvisited label")
}

func (w *countPropagator) walkStmt(n frontend.Stmt) {
	switch s := n.(type) {
	case nil:
		return

	case *frontend.CompoundStmt:
		w.recordNode(s)
		for _, st := range s.Stmts {
			w.walkStmt(st)
		}

	case *frontend.ExprStmt:
		w.recordNode(s)
		w.walkExpr(s.X)

	case *frontend.DeclStmt:
		w.recordNode(s)
		w.walkExpr(s.Init)

	case *frontend.NestedFuncStmt:
		// Propagated when the nested function is compiled itself.
		w.recordNode(s)

	case *frontend.ReturnStmt:
		w.recordNode(s)
		w.walkExpr(s.X)
		w.current = 0
		w.recordNext = true

	case *frontend.ThrowStmt:
		w.recordNode(s)
		w.walkExpr(s.X)
		w.current = 0
		w.recordNext = true

	case *frontend.GotoStmt:
		w.recordNode(s)
		w.current = 0
		w.recordNext = true
	case *frontend.GotoCaseStmt:
		w.recordNode(s)
		w.current = 0
		w.recordNext = true
	case *frontend.GotoDefaultStmt:
		w.recordNode(s)
		w.current = 0
		w.recordNext = true

	case *frontend.LabelStmt:
		w.recordNext = false
		// Counter tracks the block following the label.
		block := w.setCount(w.region(s))
		w.counts[Key(s)] = block
		// Remember the stack depth for labeled break/continue. Every
		// label is remembered; only those naming loops are ever resolved.
		w.labels = append(w.labels, loopLabel{label: s, depth: len(w.bcStack)})
		w.walkStmt(s.Stmt)

	case *frontend.BreakStmt:
		w.recordNode(s)
		w.loopAt(s.Target, "break").breakCount += w.current
		w.current = 0
		w.recordNext = true

	case *frontend.ContinueStmt:
		w.recordNode(s)
		w.loopAt(s.Target, "continue").continueCount += w.current
		w.current = 0
		w.recordNext = true

	case *frontend.WhileStmt:
		w.recordNode(s)
		parent := w.current

		w.pushLoop()
		// Visit the body region first so break/continue adjustments are
		// known when the condition count is formed.
		body := w.setCount(w.region(s))
		w.counts[Key(s.Body)] = w.current
		w.walkStmt(s.Body)
		backedge := w.current

		// The condition count sums the incoming edges, the backedge from
		// the bottom of the body, and the continue edges.
		bc := w.popLoop()
		cond := w.setCount(parent + backedge + bc.continueCount)
		w.counts[Key(s.Cond)] = cond
		w.walkExpr(s.Cond)
		w.setCount(bc.breakCount + cond - body)
		w.recordNext = true

	case *frontend.DoStmt:
		w.recordNode(s)
		// The body count includes the unconditional fallthrough from the
		// enclosing scope.
		fallThrough := w.current
		w.pushLoop()
		body := w.setCount(w.region(s))
		w.counts[Key(s.Body)] = body
		w.walkStmt(s.Body)
		backedge := w.current

		bc := w.popLoop()
		cond := w.setCount(backedge + bc.continueCount)
		w.counts[Key(s.Cond)] = cond
		w.walkExpr(s.Cond)
		loop := body - fallThrough
		w.setCount(bc.breakCount + cond - loop)
		w.recordNext = true

	case *frontend.ForStmt:
		w.recordNode(s)
		w.walkStmt(s.Init)
		parent := w.current

		w.pushLoop()
		body := w.setCount(w.region(s))
		w.counts[Key(s.Body)] = body
		w.walkStmt(s.Body)
		backedge := w.current
		bc := w.popLoop()

		// The increment is part of the body but also absorbs the
		// continue edges.
		if s.Inc != nil {
			inc := w.setCount(backedge + bc.continueCount)
			w.counts[Key(s.Inc)] = inc
			w.walkExpr(s.Inc)
		}

		cond := w.setCount(parent + backedge + bc.continueCount)
		if s.Cond != nil {
			w.counts[Key(s.Cond)] = cond
			w.walkExpr(s.Cond)
		} else {
			// No condition node to key by; the loop's secondary slot
			// stands in for it.
			w.counts[SecondaryKey(s)] = cond
		}
		w.setCount(bc.breakCount + cond - body)
		w.recordNext = true

	case *frontend.ForeachStmt:
		w.recordNode(s)
		w.walkExpr(s.Aggr)
		parent := w.current

		w.pushLoop()
		body := w.setCount(w.region(s))
		w.counts[Key(s.Body)] = body
		w.walkStmt(s.Body)
		backedge := w.current
		bc := w.popLoop()

		// There is no explicit condition node; the count lives on the
		// loop's secondary slot.
		cond := parent + backedge + bc.continueCount
		w.counts[SecondaryKey(s)] = cond
		w.setCount(bc.breakCount + cond - body)
		w.recordNext = true

	case *frontend.ForeachRangeStmt:
		w.recordNode(s)
		w.walkExpr(s.Lwr)
		w.walkExpr(s.Upr)
		parent := w.current

		w.pushLoop()
		body := w.setCount(w.region(s))
		w.counts[Key(s.Body)] = body
		w.walkStmt(s.Body)
		backedge := w.current
		bc := w.popLoop()

		cond := parent + backedge + bc.continueCount
		w.counts[SecondaryKey(s)] = cond
		w.setCount(bc.breakCount + cond - body)
		w.recordNext = true

	case *frontend.SwitchStmt:
		w.recordNode(s)
		w.walkExpr(s.Cond)
		w.current = 0
		w.pushLoop()
		w.walkStmt(s.Body)
		bc := w.popLoop()
		// A continue inside a switch targets the enclosing loop.
		if len(w.bcStack) > 0 {
			w.bcStack[len(w.bcStack)-1].continueCount += bc.continueCount
		}
		// Counter tracks the exit block of the switch.
		w.setCount(w.region(s))
		w.recordNext = true

	case *frontend.CaseStmt:
		// The case's own counter counts only direct jumps from the switch
		// header, excluding fallthrough from the preceding case; that is
		// the useful number for branch probabilities.
		caseCount := w.region(s)
		w.counts[Key(s)] = caseCount
		if s.GotoTarget {
			// The extra counter makes the case behave like a label.
			key := SecondaryKey(s)
			w.counts[key] = w.setCount(w.prof.RegionCountAt(key))
		} else {
			w.setCount(w.current + caseCount)
		}
		w.recordNext = true
		w.walkStmt(s.Body)

	case *frontend.DefaultStmt:
		caseCount := w.region(s)
		w.counts[Key(s)] = caseCount
		if s.GotoTarget {
			key := SecondaryKey(s)
			w.counts[key] = w.setCount(w.prof.RegionCountAt(key))
		} else {
			w.setCount(w.current + caseCount)
		}
		w.recordNext = true
		w.walkStmt(s.Body)

	case *frontend.CaseRangeStmt:
		panic("pgo: case range statement must be lowered to plain cases before count propagation")

	case *frontend.IfStmt:
		w.recordNode(s)
		parent := w.current
		w.walkExpr(s.Cond)

		// Counter tracks the then arm; the else count is derived from it.
		then := w.setCount(w.region(s))
		w.counts[Key(s.Then)] = then
		w.walkStmt(s.Then)
		out := w.current

		elseCount := parent - then
		if s.Else != nil {
			w.setCount(elseCount)
			w.counts[Key(s.Else)] = elseCount
			w.walkStmt(s.Else)
			out += w.current
		} else {
			out += elseCount
		}
		w.setCount(out)
		w.recordNext = true

	case *frontend.TryCatchStmt:
		w.recordNode(s)
		// The body is lowered after the handlers, so its entry count must
		// be captured eagerly rather than left in flowing state.
		w.recordNext = true
		w.walkStmt(s.Body)
		for _, c := range s.Catches {
			// The catch counter tracks the entry block of the handler.
			w.setCount(w.region(c))
			w.recordNext = true
			w.walkStmt(c.Handler)
		}
		// The try counter tracks the continuation block.
		w.setCount(w.region(s))
		w.recordNext = true

	case *frontend.TryFinallyStmt:
		if s.Body == nil || s.Final == nil {
			// Transparent construct; no counter was mapped for it.
			w.recordNode(s)
			w.walkStmt(s.Body)
			w.walkStmt(s.Final)
			return
		}
		w.recordNode(s)
		parent := w.current
		w.recordNext = true
		w.walkStmt(s.Body)

		// The finally block always runs: same incoming count as the try.
		w.setCount(parent)
		w.recordNext = true
		w.walkStmt(s.Final)

		// Counter tracks the continuation block.
		w.setCount(w.region(s))
		w.recordNext = true

	default:
		w.recordNode(s)
	}
}

func (w *countPropagator) walkExpr(e frontend.Expr) {
	switch x := e.(type) {
	case nil:
		return

	case *frontend.CondExpr:
		w.recordNode(x)
		parent := w.current
		w.walkExpr(x.Cond)

		// Counter tracks the true arm; the false count is derived.
		trueCount := w.setCount(w.region(x))
		w.counts[Key(x.Then)] = trueCount
		w.walkExpr(x.Then)
		out := w.current

		falseCount := w.setCount(parent - trueCount)
		w.counts[Key(x.Else)] = falseCount
		w.walkExpr(x.Else)
		out += w.current

		w.setCount(out)
		w.recordNext = true

	case *frontend.AndAndExpr:
		w.recordNode(x)
		parent := w.current
		w.walkExpr(x.L)
		// Counter tracks the right-hand side, entered only when the left
		// side did not short-circuit.
		rhs := w.setCount(w.region(x))
		w.counts[Key(x.R)] = rhs
		w.walkExpr(x.R)
		w.setCount(parent + rhs - w.current)
		w.recordNext = true

	case *frontend.OrOrExpr:
		w.recordNode(x)
		parent := w.current
		w.walkExpr(x.L)
		rhs := w.setCount(w.region(x))
		w.counts[Key(x.R)] = rhs
		w.walkExpr(x.R)
		w.setCount(parent + rhs - w.current)
		w.recordNext = true

	case *frontend.BinExpr:
		w.walkExpr(x.L)
		w.walkExpr(x.R)

	case *frontend.CallExpr:
		w.walkExpr(x.Fn)
		for _, a := range x.Args {
			w.walkExpr(a)
		}
	}
}
