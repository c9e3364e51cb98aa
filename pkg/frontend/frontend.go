// Package frontend defines the Veld abstract syntax tree.
//
// Design: closed tagged-variant node set, marker-method interfaces, explicit
// type-switch dispatch in the passes that walk it. Parsing and type checking
// live upstream; this package only describes shape.
package frontend

// Node is implemented by every AST construct. Nodes are compared by
// identity: passes key their maps by the *pointer*, never by value.
type Node interface {
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// FuncDecl is a function declaration. Only the body matters to the
// middle-end passes; params and types are carried for diagnostics.
type FuncDecl struct {
	Name string
	// LinkName is the backend symbol name. It may carry a leading '\x01'
	// byte telling the backend to suppress platform name mangling.
	LinkName string
	Params   []Param
	Body     Stmt
	// Instrument is false when a pragma disabled instrumentation for
	// this function.
	Instrument bool
}

func (*FuncDecl) node() {}

// Param is a formal parameter.
type Param struct {
	Name string
	Type string
}

// Statements

// CompoundStmt is a brace-delimited statement list.
type CompoundStmt struct {
	Stmts []Stmt
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	X Expr
}

// DeclStmt declares a local variable with an optional initializer.
type DeclStmt struct {
	Name string
	Init Expr
}

// NestedFuncStmt is a function declaration appearing inside another
// function body. It is compiled as its own function; body-level passes
// must not descend into it.
type NestedFuncStmt struct {
	Func *FuncDecl
}

// ReturnStmt returns from the enclosing function.
type ReturnStmt struct {
	X Expr // nil for a bare return
}

// ThrowStmt raises an exception.
type ThrowStmt struct {
	X Expr
}

// IfStmt is a conditional statement. Else is nil when absent.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// WhileStmt is a top-tested loop.
type WhileStmt struct {
	Cond Expr
	Body Stmt
}

// DoStmt is a bottom-tested loop.
type DoStmt struct {
	Body Stmt
	Cond Expr
}

// ForStmt is a C-style loop. Init, Cond and Inc may each be nil.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Inc  Expr
	Body Stmt
}

// ForeachStmt iterates over an aggregate value.
type ForeachStmt struct {
	Var  string
	Aggr Expr
	Body Stmt
}

// ForeachRangeStmt iterates over the half-open interval [Lwr, Upr).
type ForeachRangeStmt struct {
	Var  string
	Lwr  Expr
	Upr  Expr
	Body Stmt
}

// SwitchStmt dispatches over a value. Body contains the case and default
// statements along with any interleaved code.
type SwitchStmt struct {
	Cond Expr
	Body Stmt
}

// CaseStmt is a single switch case. GotoTarget is true when the case is
// named by a `goto case` elsewhere in the switch.
type CaseStmt struct {
	Value      Expr
	GotoTarget bool
	Body       Stmt
}

// CaseRangeStmt is a case covering an inclusive value range. The front end
// lowers these to individual CaseStmts before the middle end runs; no pass
// past lowering may observe one.
type CaseRangeStmt struct {
	First Expr
	Last  Expr
	Body  Stmt
}

// DefaultStmt is the switch default. GotoTarget mirrors CaseStmt.
type DefaultStmt struct {
	GotoTarget bool
	Body       Stmt
}

// LabelStmt binds a name to a statement so that goto and labeled
// break/continue can target it.
type LabelStmt struct {
	Name string
	Stmt Stmt
}

// GotoStmt jumps to a label.
type GotoStmt struct {
	Target *LabelStmt
}

// GotoCaseStmt jumps to a case of the enclosing switch.
type GotoCaseStmt struct {
	Target *CaseStmt
}

// GotoDefaultStmt jumps to the default of the enclosing switch.
type GotoDefaultStmt struct {
	Target *DefaultStmt
}

// BreakStmt exits the innermost loop or switch, or the loop bound to
// Target when a label is given.
type BreakStmt struct {
	Target *LabelStmt // nil for an unlabeled break
}

// ContinueStmt re-tests the innermost loop, or the loop bound to Target
// when a label is given.
type ContinueStmt struct {
	Target *LabelStmt // nil for an unlabeled continue
}

// Catch is one handler of a TryCatchStmt. It is a Node (though not a
// statement) so that per-handler analysis can key maps by it.
type Catch struct {
	Var     string
	Type    string
	Handler Stmt
}

func (*Catch) node() {}

// TryCatchStmt protects Body with one or more catch handlers.
type TryCatchStmt struct {
	Body    Stmt
	Catches []*Catch
}

// TryFinallyStmt runs Final on every exit from Body.
type TryFinallyStmt struct {
	Body  Stmt
	Final Stmt
}

func (*CompoundStmt) node()    {}
func (*ExprStmt) node()        {}
func (*DeclStmt) node()        {}
func (*NestedFuncStmt) node()  {}
func (*ReturnStmt) node()      {}
func (*ThrowStmt) node()       {}
func (*IfStmt) node()          {}
func (*WhileStmt) node()       {}
func (*DoStmt) node()          {}
func (*ForStmt) node()         {}
func (*ForeachStmt) node()     {}
func (*ForeachRangeStmt) node() {}
func (*SwitchStmt) node()      {}
func (*CaseStmt) node()        {}
func (*CaseRangeStmt) node()   {}
func (*DefaultStmt) node()     {}
func (*LabelStmt) node()       {}
func (*GotoStmt) node()        {}
func (*GotoCaseStmt) node()    {}
func (*GotoDefaultStmt) node() {}
func (*BreakStmt) node()       {}
func (*ContinueStmt) node()    {}
func (*TryCatchStmt) node()    {}
func (*TryFinallyStmt) node()  {}

func (*CompoundStmt) stmt()    {}
func (*ExprStmt) stmt()        {}
func (*DeclStmt) stmt()        {}
func (*NestedFuncStmt) stmt()  {}
func (*ReturnStmt) stmt()      {}
func (*ThrowStmt) stmt()       {}
func (*IfStmt) stmt()          {}
func (*WhileStmt) stmt()       {}
func (*DoStmt) stmt()          {}
func (*ForStmt) stmt()         {}
func (*ForeachStmt) stmt()     {}
func (*ForeachRangeStmt) stmt() {}
func (*SwitchStmt) stmt()      {}
func (*CaseStmt) stmt()        {}
func (*CaseRangeStmt) stmt()   {}
func (*DefaultStmt) stmt()     {}
func (*LabelStmt) stmt()       {}
func (*GotoStmt) stmt()        {}
func (*GotoCaseStmt) stmt()    {}
func (*GotoDefaultStmt) stmt() {}
func (*BreakStmt) stmt()       {}
func (*ContinueStmt) stmt()    {}
func (*TryCatchStmt) stmt()    {}
func (*TryFinallyStmt) stmt()  {}

// Expressions

// Ident is a name reference.
type Ident struct {
	Name string
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

// BinExpr is a non-short-circuit binary operation.
type BinExpr struct {
	Op string
	L  Expr
	R  Expr
}

// CallExpr is a function call.
type CallExpr struct {
	Fn   Expr
	Args []Expr
}

// CondExpr is the ternary `cond ? then : else` operator.
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

// AndAndExpr is short-circuit `&&`.
type AndAndExpr struct {
	L Expr
	R Expr
}

// OrOrExpr is short-circuit `||`.
type OrOrExpr struct {
	L Expr
	R Expr
}

func (*Ident) node()      {}
func (*IntLit) node()     {}
func (*BinExpr) node()    {}
func (*CallExpr) node()   {}
func (*CondExpr) node()   {}
func (*AndAndExpr) node() {}
func (*OrOrExpr) node()   {}

func (*Ident) expr()      {}
func (*IntLit) expr()     {}
func (*BinExpr) expr()    {}
func (*CallExpr) expr()   {}
func (*CondExpr) expr()   {}
func (*AndAndExpr) expr() {}
func (*OrOrExpr) expr()   {}
