// AST traversal support.
package frontend

import "reflect"

// Children returns the direct child nodes of n in source order. Nil
// children are omitted, including typed nils stored in interface fields.
// A NestedFuncStmt yields no children: the nested function is compiled on
// its own and body-level passes must not cross into it.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if isNilNode(c) {
			return
		}
		out = append(out, c)
	}

	switch n := n.(type) {
	case *FuncDecl:
		add(n.Body)
	case *CompoundStmt:
		for _, s := range n.Stmts {
			add(s)
		}
	case *ExprStmt:
		add(n.X)
	case *DeclStmt:
		add(n.Init)
	case *NestedFuncStmt:
		// Opaque boundary.
	case *ReturnStmt:
		add(n.X)
	case *ThrowStmt:
		add(n.X)
	case *IfStmt:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *WhileStmt:
		add(n.Cond)
		add(n.Body)
	case *DoStmt:
		add(n.Body)
		add(n.Cond)
	case *ForStmt:
		add(n.Init)
		add(n.Cond)
		add(n.Inc)
		add(n.Body)
	case *ForeachStmt:
		add(n.Aggr)
		add(n.Body)
	case *ForeachRangeStmt:
		add(n.Lwr)
		add(n.Upr)
		add(n.Body)
	case *SwitchStmt:
		add(n.Cond)
		add(n.Body)
	case *CaseStmt:
		add(n.Value)
		add(n.Body)
	case *CaseRangeStmt:
		add(n.First)
		add(n.Last)
		add(n.Body)
	case *DefaultStmt:
		add(n.Body)
	case *LabelStmt:
		add(n.Stmt)
	case *GotoStmt, *GotoCaseStmt, *GotoDefaultStmt, *BreakStmt, *ContinueStmt:
		// Jump targets are references, not children.
	case *TryCatchStmt:
		add(n.Body)
		for _, c := range n.Catches {
			add(c.Handler)
		}
	case *TryFinallyStmt:
		add(n.Body)
		add(n.Final)
	case *Ident, *IntLit:
	case *BinExpr:
		add(n.L)
		add(n.R)
	case *CallExpr:
		add(n.Fn)
		for _, a := range n.Args {
			add(a)
		}
	case *CondExpr:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *AndAndExpr:
		add(n.L)
		add(n.R)
	case *OrOrExpr:
		add(n.L)
		add(n.R)
	}
	return out
}

// Inspect walks the tree rooted at n in depth-first pre-order, calling f
// for each node. If f returns false, children of the node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNilNode(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// isNilNode reports whether n is nil, either directly or as a nil pointer
// wrapped in the interface. Every Node implementation is a pointer type, so
// a nil-valued field compares unequal to the untyped nil interface.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
