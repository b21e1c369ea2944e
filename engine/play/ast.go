// Package play implements the Rule Compiler & Evaluator and the Play
// Engine bar loop (spec.md §4.5, §4.6). AST nodes are immutable value
// types produced once at compile time and never re-parsed on the hot
// path (spec.md §9 "expression trees as value types").
package play

import "github.com/cryptorun/engine/bar"

// Op is the closed operator registry (spec.md §4.5's operator table).
type Op string

const (
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpGE  Op = ">="
	OpLE  Op = "<="
	OpEQ  Op = "=="
	OpNE  Op = "!="
	OpNearAbs Op = "near_abs"
	OpNearPct Op = "near_pct"
	OpBetween Op = "between"
	OpIn      Op = "in"
	OpCrossAbove Op = "cross_above"
	OpCrossBelow Op = "cross_below"
)

// ValidOps is the closed set a compiler accepts; anything outside it is
// rejected at compile time (spec.md §4.5).
var ValidOps = map[Op]bool{
	OpGT: true, OpLT: true, OpGE: true, OpLE: true,
	OpEQ: true, OpNE: true,
	OpNearAbs: true, OpNearPct: true,
	OpBetween: true, OpIn: true,
	OpCrossAbove: true, OpCrossBelow: true,
}

// RefPath is a pre-parsed path → namespace + tokens reference
// (CompiledRef's Go shape). Namespace is one of "price", "indicator",
// "structure"; FeatureID/Field/Role/Offset are populated according to
// namespace.
type RefPath struct {
	Namespace string
	FeatureID string
	Field     string
	Role      bar.Role
	Offset    int
	Raw       string // original path text, for error messages and EvalResult.lhs_path
}

// Expr is the sealed AST node interface. All concrete node types below
// implement it; no external package may add new variants (closed
// expression grammar, spec.md §9).
type Expr interface{ exprNode() }

// RefExpr resolves a RefPath at evaluation time.
type RefExpr struct{ Path RefPath }

func (RefExpr) exprNode() {}

// LiteralExpr is a compile-time constant: number, bool, or string/enum
// token. Float literals are only legal as the RHS of near_abs/near_pct or
// inside between/in -- compile() rejects a bare float literal on either
// side of ==/!=.
type LiteralExpr struct {
	Num     float64
	IsNum   bool
	Bool    bool
	IsBool  bool
	Str     string
	IsStr   bool
}

func (LiteralExpr) exprNode() {}

// ArithExpr is an arithmetic sub-tree (+ - * /) whose leaves are Refs or
// Literals (spec.md §4.5 compile step 1).
type ArithExpr struct {
	Op          string // "+", "-", "*", "/"
	LHS, RHS    Expr
}

func (ArithExpr) exprNode() {}

// CompareExpr is a two-operand comparison (>,<,>=,<=,==,!=) or a
// tolerance comparison (near_abs/near_pct, which carries Tolerance).
type CompareExpr struct {
	Op              Op
	LHS, RHS        Expr
	Tolerance       float64
	HasTolerance    bool
}

func (CompareExpr) exprNode() {}

// BetweenExpr is an inclusive range check.
type BetweenExpr struct {
	Target   Expr
	Low, High float64
}

func (BetweenExpr) exprNode() {}

// InExpr checks scalar membership in a literal list.
type InExpr struct {
	Target Expr
	List   []LiteralExpr
}

func (InExpr) exprNode() {}

// CrossExpr is cross_above/cross_below. Both sides must be resolvable at
// offset=0 and offset=1 (spec.md: "requires offset=1 history on both
// sides").
type CrossExpr struct {
	Op       Op // OpCrossAbove or OpCrossBelow
	LHS, RHS Expr
}

func (CrossExpr) exprNode() {}

// AllExpr is AND: short-circuits on the first false child.
type AllExpr struct{ Children []Expr }

func (AllExpr) exprNode() {}

// AnyExpr is OR: short-circuits on the first true child.
type AnyExpr struct{ Children []Expr }

func (AnyExpr) exprNode() {}

// NotExpr negates its child.
type NotExpr struct{ Child Expr }

func (NotExpr) exprNode() {}

// HoldsForExpr requires Child true at every offset 0..N-1.
type HoldsForExpr struct {
	N        int
	Child    Expr
	AnchorTF bar.Timeframe // "" when no anchor_tf scaling applies
}

func (HoldsForExpr) exprNode() {}

// OccurredWithinExpr requires Child true at some offset 0..N-1.
type OccurredWithinExpr struct {
	N        int
	Child    Expr
	AnchorTF bar.Timeframe
}

func (OccurredWithinExpr) exprNode() {}

// CountTrueExpr requires Child true at >= K of offsets 0..N-1,
// short-circuiting once K is reached.
type CountTrueExpr struct {
	N, K     int
	Child    Expr
	AnchorTF bar.Timeframe
}

func (CountTrueExpr) exprNode() {}

// SetupRefExpr lazily resolves a named Setup's compiled condition via the
// SetupStore at evaluation time (spec.md §4.5 "Setup references").
type SetupRefExpr struct{ ID string }

func (SetupRefExpr) exprNode() {}
