// Region counter assignment: one pre-order walk that gives every
// control-flow-significant node a dense counter slot and feeds the node's
// kind to the shape hash.
package pgo

import (
	"github.com/GriffinCanCode/veld-compiler/pkg/frontend"
)

// CounterKey addresses one execution counter. Slot 0 is a node's own
// counter. Slot 1 is the secondary counter some constructs carry: the
// synthetic condition of a for/foreach/foreach-range loop, or the extra
// label-like counter of a case that is a `goto case` target. Using an
// explicit composite key keeps secondary counters from ever colliding with
// a real node's primary slot.
type CounterKey struct {
	Node frontend.Node
	Slot uint8
}

// Key returns the primary counter key for n.
func Key(n frontend.Node) CounterKey {
	return CounterKey{Node: n}
}

// SecondaryKey returns the secondary counter key for n.
func SecondaryKey(n frontend.Node) CounterKey {
	return CounterKey{Node: n, Slot: 1}
}

// regionMapper walks one function body assigning counter slots in strict
// traversal order and hashing the control-flow shape as it goes.
type regionMapper struct {
	next     uint32
	hash     *shapeHash
	counters map[CounterKey]uint32
}

func newRegionMapper() *regionMapper {
	return &regionMapper{
		hash:     newShapeHash(),
		counters: make(map[CounterKey]uint32),
	}
}

func (m *regionMapper) mapFunc(fd *frontend.FuncDecl) {
	// Slot 0 tracks entry to the function body. The body itself does not
	// contribute to the hash; every function has one.
	m.counters[Key(fd.Body)] = m.next
	m.next++
	m.walk(fd.Body)
}

// assign gives n the next slot and hashes its kind. Revisiting an already
// mapped node (aliased or reused subtrees) is a no-op, reported as false.
func (m *regionMapper) assign(n frontend.Node, k hashKind) bool {
	key := Key(n)
	if _, ok := m.counters[key]; ok {
		return false
	}
	m.counters[key] = m.next
	m.next++
	m.hash.combine(k)
	return true
}

// assignSecondary gives n's secondary key the next slot.
func (m *regionMapper) assignSecondary(n frontend.Node, k hashKind) {
	m.counters[SecondaryKey(n)] = m.next
	m.next++
	m.hash.combine(k)
}

func (m *regionMapper) walk(n frontend.Node) {
	switch s := n.(type) {
	case nil:
		return

	case *frontend.NestedFuncStmt:
		// Nested functions are mapped when they are compiled themselves.
		return

	case *frontend.IfStmt:
		m.assign(s, hashIf)
	case *frontend.WhileStmt:
		m.assign(s, hashWhile)
	case *frontend.DoStmt:
		m.assign(s, hashDo)
	case *frontend.ForStmt:
		m.assign(s, hashFor)
	case *frontend.ForeachStmt:
		m.assign(s, hashForeach)
	case *frontend.ForeachRangeStmt:
		m.assign(s, hashForeachRange)
	case *frontend.LabelStmt:
		m.assign(s, hashLabel)
	case *frontend.SwitchStmt:
		m.assign(s, hashSwitch)

	case *frontend.CaseStmt:
		// A case that is the target of `goto case` gets an extra counter,
		// as if it were also a label.
		if m.assign(s, hashCase) && s.GotoTarget {
			m.assignSecondary(s, hashCaseGoto)
		}
	case *frontend.DefaultStmt:
		if m.assign(s, hashDefault) && s.GotoTarget {
			m.assignSecondary(s, hashCaseGoto)
		}
	case *frontend.CaseRangeStmt:
		panic("pgo: case range statement must be lowered to plain cases before counter mapping")

	case *frontend.TryCatchStmt:
		// The catch clauses get their slots before any handler body is
		// walked, in source order.
		if m.assign(s, hashTryCatch) {
			for _, c := range s.Catches {
				m.counters[Key(c)] = m.next
				m.next++
				m.hash.combine(hashCatch)
			}
		}
	case *frontend.TryFinallyStmt:
		// Nothing to try, or no cleanup: the construct is transparent.
		if s.Body != nil && s.Final != nil {
			m.assign(s, hashTryFinally)
		}

	case *frontend.CondExpr:
		m.assign(s, hashCondExpr)
	case *frontend.AndAndExpr:
		m.assign(s, hashAndAnd)
	case *frontend.OrOrExpr:
		m.assign(s, hashOrOr)
	}

	for _, c := range frontend.Children(n) {
		m.walk(c)
	}
}
