package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspectPreOrder(t *testing.T) {
	cond := &Ident{Name: "c"}
	then := &ExprStmt{X: &CallExpr{Fn: &Ident{Name: "g"}}}
	ifStmt := &IfStmt{Cond: cond, Then: then}
	body := &CompoundStmt{Stmts: []Stmt{ifStmt}}
	fd := &FuncDecl{Name: "f", Body: body}

	var order []Node
	Inspect(fd, func(n Node) bool {
		order = append(order, n)
		return true
	})

	// Parent before children, source order among siblings.
	assert.Equal(t, Node(fd), order[0])
	assert.Equal(t, Node(body), order[1])
	assert.Equal(t, Node(ifStmt), order[2])
	assert.Equal(t, Node(cond), order[3])
	assert.Equal(t, Node(then), order[4])
}

func TestInspectSkipsWhenCallbackDeclines(t *testing.T) {
	loop := &WhileStmt{Cond: &Ident{Name: "c"}, Body: &ExprStmt{X: &Ident{Name: "x"}}}
	fd := &FuncDecl{Name: "f", Body: &CompoundStmt{Stmts: []Stmt{loop}}}

	var seen int
	Inspect(fd, func(n Node) bool {
		seen++
		_, isLoop := n.(*WhileStmt)
		return !isLoop
	})

	// fd, body, loop; nothing below the loop.
	assert.Equal(t, 3, seen)
}

func TestChildrenCrossNoFunctionBoundary(t *testing.T) {
	inner := &FuncDecl{Name: "inner", Body: &CompoundStmt{}}
	nested := &NestedFuncStmt{Func: inner}

	assert.Empty(t, Children(nested))
}

func TestChildrenOmitNil(t *testing.T) {
	ifStmt := &IfStmt{Cond: &Ident{Name: "c"}, Then: &ExprStmt{X: &Ident{Name: "x"}}}
	assert.Len(t, Children(ifStmt), 2, "absent else must not appear")

	loop := &ForStmt{Body: &CompoundStmt{}}
	assert.Len(t, Children(loop), 1, "init, cond and inc are all optional")
}

func TestChildrenOmitTypedNil(t *testing.T) {
	// A nil concrete pointer stored in an interface field compares unequal
	// to nil; the walk must still filter it out.
	ifStmt := &IfStmt{
		Cond: &Ident{Name: "c"},
		Then: (*CompoundStmt)(nil),
		Else: (*ExprStmt)(nil),
	}
	assert.Len(t, Children(ifStmt), 1)

	var seen int
	Inspect(&FuncDecl{Name: "f", Body: &CompoundStmt{Stmts: []Stmt{ifStmt}}}, func(n Node) bool {
		seen++
		return true
	})
	// fd, body, if, cond; the typed-nil branches never surface.
	assert.Equal(t, 4, seen)
}
