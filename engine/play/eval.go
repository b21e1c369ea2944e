package play

import (
	"fmt"
	"math"

	"github.com/cryptorun/engine/snapshot"
)

// ValueType is RefValue's runtime type tag.
type ValueType int

const (
	ValFloat ValueType = iota
	ValInt
	ValBool
	ValString
)

// ReasonCode is the closed enumeration of why a single evaluation
// produced its boolean result (spec.md §4.5).
type ReasonCode string

const (
	ReasonOK                ReasonCode = "OK"
	ReasonMissingLHS        ReasonCode = "MISSING_LHS"
	ReasonMissingRHS        ReasonCode = "MISSING_RHS"
	ReasonMissingPrevValue  ReasonCode = "MISSING_PREV_VALUE"
	ReasonTypeMismatch      ReasonCode = "TYPE_MISMATCH"
	ReasonFloatEquality     ReasonCode = "FLOAT_EQUALITY"
	ReasonInvalidTolerance  ReasonCode = "INVALID_TOLERANCE"
	ReasonUnknownOperator   ReasonCode = "UNKNOWN_OPERATOR"
	ReasonInternalError     ReasonCode = "INTERNAL_ERROR"
)

// RefValue is what a single Get resolves to: value, runtime type, and
// resolution path (spec.md §4.5 "Value resolution"). A distinguished
// Missing variant replaces the feed-array NaN sentinel once data crosses
// into the evaluator (spec.md §9).
type RefValue struct {
	Num     float64
	Str     string
	Bool    bool
	Type    ValueType
	Missing bool
	Path    string
}

func missingValue(path string) RefValue { return RefValue{Missing: true, Path: path} }

// EvalResult is the outcome of evaluating one condition node.
type EvalResult struct {
	OK       bool
	Reason   ReasonCode
	LHSPath  string
	RHSRepr  string
	Operator Op
}

func okResult(op Op, lhsPath, rhsRepr string) EvalResult {
	return EvalResult{OK: true, Reason: ReasonOK, LHSPath: lhsPath, RHSRepr: rhsRepr, Operator: op}
}

func failResult(op Op, reason ReasonCode, lhsPath, rhsRepr string) EvalResult {
	return EvalResult{OK: false, Reason: reason, LHSPath: lhsPath, RHSRepr: rhsRepr, Operator: op}
}

// resolveValue resolves a Ref/Literal/Arith leaf-or-tree against a
// snapshot at the given offset delta (used by window operators to shift
// the whole subtree by k bars without re-walking paths).
func resolveValue(e Expr, snap *snapshot.Snapshot, offsetDelta int) RefValue {
	switch n := e.(type) {
	case LiteralExpr:
		switch {
		case n.IsNum:
			return RefValue{Num: n.Num, Type: ValFloat}
		case n.IsBool:
			return RefValue{Bool: n.Bool, Type: ValBool}
		case n.IsStr:
			return RefValue{Str: n.Str, Type: ValString}
		}
		return RefValue{Missing: true}

	case RefExpr:
		return resolveRef(n.Path, snap, offsetDelta)

	case ArithExpr:
		return resolveArith(n, snap, offsetDelta)

	default:
		return RefValue{Missing: true, Path: fmt.Sprintf("%T", e)}
	}
}

func resolveRef(path RefPath, snap *snapshot.Snapshot, offsetDelta int) RefValue {
	role := path.Role
	if role == "" {
		role = "exec"
	}
	v, ok := snap.Get(path.snapshotKey(), role, path.Offset+offsetDelta)
	if !ok {
		return missingValue(path.Raw)
	}
	declType := snap.GetDeclaredType(path.FeatureID, path.Field)
	switch declType {
	case snapshot.TypeInt:
		return RefValue{Num: v, Type: ValInt, Path: path.Raw}
	case snapshot.TypeBool:
		return RefValue{Bool: v != 0, Type: ValBool, Path: path.Raw}
	default:
		return RefValue{Num: v, Type: ValFloat, Path: path.Raw}
	}
}

func resolveArith(n ArithExpr, snap *snapshot.Snapshot, offsetDelta int) RefValue {
	l := resolveValue(n.LHS, snap, offsetDelta)
	r := resolveValue(n.RHS, snap, offsetDelta)
	if l.Missing || r.Missing {
		return RefValue{Missing: true}
	}
	switch n.Op {
	case "+":
		return RefValue{Num: l.Num + r.Num, Type: ValFloat}
	case "-":
		return RefValue{Num: l.Num - r.Num, Type: ValFloat}
	case "*":
		return RefValue{Num: l.Num * r.Num, Type: ValFloat}
	case "/":
		if r.Num == 0 {
			return RefValue{Missing: true}
		}
		return RefValue{Num: l.Num / r.Num, Type: ValFloat}
	}
	return RefValue{Missing: true}
}

func exprRepr(e Expr) string {
	switch n := e.(type) {
	case LiteralExpr:
		switch {
		case n.IsNum:
			return fmt.Sprintf("%g", n.Num)
		case n.IsBool:
			return fmt.Sprintf("%v", n.Bool)
		case n.IsStr:
			return n.Str
		}
		return "null"
	case RefExpr:
		return n.Path.Raw
	default:
		return fmt.Sprintf("%T", e)
	}
}

// evalCompare applies a two-operand comparison op (spec.md §4.5 operator
// table).
func evalCompare(n CompareExpr, snap *snapshot.Snapshot) EvalResult {
	l := resolveValue(n.LHS, snap, 0)
	if l.Missing {
		return failResult(n.Op, ReasonMissingLHS, exprRepr(n.LHS), exprRepr(n.RHS))
	}
	r := resolveValue(n.RHS, snap, 0)
	if r.Missing {
		return failResult(n.Op, ReasonMissingRHS, exprRepr(n.LHS), exprRepr(n.RHS))
	}

	switch n.Op {
	case OpGT, OpLT, OpGE, OpLE:
		if l.Type == ValString || r.Type == ValString {
			return failResult(n.Op, ReasonTypeMismatch, l.Path, exprRepr(n.RHS))
		}
		var ok bool
		switch n.Op {
		case OpGT:
			ok = l.Num > r.Num
		case OpLT:
			ok = l.Num < r.Num
		case OpGE:
			ok = l.Num >= r.Num
		case OpLE:
			ok = l.Num <= r.Num
		}
		return boolToResult(ok, n.Op, l.Path, exprRepr(n.RHS))

	case OpEQ, OpNE:
		if l.Type != r.Type {
			return failResult(n.Op, ReasonTypeMismatch, l.Path, exprRepr(n.RHS))
		}
		var eq bool
		switch l.Type {
		case ValBool:
			eq = l.Bool == r.Bool
		case ValString:
			eq = l.Str == r.Str
		case ValInt:
			eq = l.Num == r.Num
		default:
			return failResult(n.Op, ReasonFloatEquality, l.Path, exprRepr(n.RHS))
		}
		if n.Op == OpNE {
			eq = !eq
		}
		return boolToResult(eq, n.Op, l.Path, exprRepr(n.RHS))

	case OpNearAbs:
		if !n.HasTolerance || n.Tolerance < 0 {
			return failResult(n.Op, ReasonInvalidTolerance, l.Path, exprRepr(n.RHS))
		}
		ok := math.Abs(l.Num-r.Num) <= n.Tolerance
		return boolToResult(ok, n.Op, l.Path, exprRepr(n.RHS))

	case OpNearPct:
		if !n.HasTolerance || n.Tolerance < 0 {
			return failResult(n.Op, ReasonInvalidTolerance, l.Path, exprRepr(n.RHS))
		}
		base := math.Max(math.Abs(l.Num), math.Abs(r.Num))
		ok := math.Abs(l.Num-r.Num) <= n.Tolerance*base
		return boolToResult(ok, n.Op, l.Path, exprRepr(n.RHS))
	}

	return failResult(n.Op, ReasonUnknownOperator, l.Path, exprRepr(n.RHS))
}

func boolToResult(ok bool, op Op, lhsPath, rhsRepr string) EvalResult {
	if ok {
		return okResult(op, lhsPath, rhsRepr)
	}
	return EvalResult{OK: false, Reason: ReasonOK, LHSPath: lhsPath, RHSRepr: rhsRepr, Operator: op}
}

func evalBetween(n BetweenExpr, snap *snapshot.Snapshot) EvalResult {
	v := resolveValue(n.Target, snap, 0)
	if v.Missing {
		return failResult(OpBetween, ReasonMissingLHS, exprRepr(n.Target), "")
	}
	ok := v.Num >= n.Low && v.Num <= n.High
	return boolToResult(ok, OpBetween, v.Path, fmt.Sprintf("[%g,%g]", n.Low, n.High))
}

func evalIn(n InExpr, snap *snapshot.Snapshot) EvalResult {
	v := resolveValue(n.Target, snap, 0)
	if v.Missing {
		return failResult(OpIn, ReasonMissingLHS, exprRepr(n.Target), "")
	}
	for _, lit := range n.List {
		switch {
		case lit.IsNum && v.Type != ValString && v.Num == lit.Num:
			return okResult(OpIn, v.Path, exprRepr(n.Target))
		case lit.IsStr && v.Type == ValString && v.Str == lit.Str:
			return okResult(OpIn, v.Path, exprRepr(n.Target))
		case lit.IsBool && v.Type == ValBool && v.Bool == lit.Bool:
			return okResult(OpIn, v.Path, exprRepr(n.Target))
		}
	}
	return EvalResult{OK: false, Reason: ReasonOK, LHSPath: v.Path, Operator: OpIn}
}

// evalCross applies cross_above/cross_below, requiring history at
// offset=1 on both sides; a missing prior value fails with
// MISSING_PREV_VALUE rather than being folded into a warmup precondition
// (SPEC_FULL.md Open Question decision #2).
func evalCross(n CrossExpr, snap *snapshot.Snapshot) EvalResult {
	lhsNow := resolveValue(n.LHS, snap, 0)
	rhsNow := resolveValue(n.RHS, snap, 0)
	if lhsNow.Missing {
		return failResult(n.Op, ReasonMissingLHS, exprRepr(n.LHS), exprRepr(n.RHS))
	}
	if rhsNow.Missing {
		return failResult(n.Op, ReasonMissingRHS, exprRepr(n.LHS), exprRepr(n.RHS))
	}
	lhsPrev := resolveValue(n.LHS, snap, 1)
	rhsPrev := resolveValue(n.RHS, snap, 1)
	if lhsPrev.Missing || rhsPrev.Missing {
		return failResult(n.Op, ReasonMissingPrevValue, exprRepr(n.LHS), exprRepr(n.RHS))
	}

	var ok bool
	switch n.Op {
	case OpCrossAbove:
		ok = lhsPrev.Num <= rhsPrev.Num && lhsNow.Num > rhsNow.Num
	case OpCrossBelow:
		ok = lhsPrev.Num >= rhsPrev.Num && lhsNow.Num < rhsNow.Num
	}
	return boolToResult(ok, n.Op, exprRepr(n.LHS), exprRepr(n.RHS))
}
