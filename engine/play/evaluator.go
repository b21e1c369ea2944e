package play

import (
	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/snapshot"
)

// Evaluator walks a compiled Expr tree against one Snapshot, resolving
// setup_ref nodes through a SetupStore and scaling window-operator
// offsets from an anchor timeframe down to the exec timeframe's bar
// count (spec.md §4.6 "window operators ... anchor_tf").
type Evaluator struct {
	Snap   *snapshot.Snapshot
	Setups *SetupStore
	ExecTF bar.Timeframe
}

func NewEvaluator(snap *snapshot.Snapshot, setups *SetupStore, execTF bar.Timeframe) *Evaluator {
	return &Evaluator{Snap: snap, Setups: setups, ExecTF: execTF}
}

// Eval resolves e to a single boolean EvalResult, short-circuiting
// all/any and stopping at the first reason a window operator fails.
func (ev *Evaluator) Eval(e Expr) EvalResult {
	switch n := e.(type) {
	case CompareExpr:
		return evalCompare(n, ev.Snap)
	case BetweenExpr:
		return evalBetween(n, ev.Snap)
	case InExpr:
		return evalIn(n, ev.Snap)
	case CrossExpr:
		return evalCross(n, ev.Snap)
	case RefExpr:
		return ev.evalRefAsBool(n)
	case AllExpr:
		return ev.evalAll(n)
	case AnyExpr:
		return ev.evalAny(n)
	case NotExpr:
		return ev.evalNot(n)
	case HoldsForExpr:
		return ev.evalHoldsFor(n)
	case OccurredWithinExpr:
		return ev.evalOccurredWithin(n)
	case CountTrueExpr:
		return ev.evalCountTrue(n)
	case SetupRefExpr:
		return ev.evalSetupRef(n)
	default:
		return EvalResult{OK: false, Reason: ReasonInternalError}
	}
}

// evalRefAsBool lets a bare boolean-typed ref stand in for a full
// condition (e.g. a structure field already holding a bool).
func (ev *Evaluator) evalRefAsBool(n RefExpr) EvalResult {
	v := resolveValue(n, ev.Snap, 0)
	if v.Missing {
		return failResult("", ReasonMissingLHS, n.Path.Raw, "")
	}
	ok := v.Bool
	if v.Type != ValBool {
		ok = v.Num != 0
	}
	return boolToResult(ok, "", n.Path.Raw, "")
}

func (ev *Evaluator) evalAll(n AllExpr) EvalResult {
	var last EvalResult
	for _, c := range n.Children {
		last = ev.Eval(c)
		if !last.OK {
			return last
		}
	}
	if len(n.Children) == 0 {
		return EvalResult{OK: true, Reason: ReasonOK}
	}
	return last
}

func (ev *Evaluator) evalAny(n AnyExpr) EvalResult {
	var last EvalResult
	for _, c := range n.Children {
		last = ev.Eval(c)
		if last.OK {
			return last
		}
	}
	if len(n.Children) == 0 {
		return EvalResult{OK: false, Reason: ReasonOK}
	}
	return last
}

func (ev *Evaluator) evalNot(n NotExpr) EvalResult {
	inner := ev.Eval(n.Child)
	return EvalResult{OK: !inner.OK, Reason: inner.Reason, LHSPath: inner.LHSPath, RHSRepr: inner.RHSRepr}
}

// offsetScale converts one anchor-timeframe bar into execTF bar counts;
// 1 when no anchor_tf is set or the ratio isn't a whole number of bars.
func (ev *Evaluator) offsetScale(anchor bar.Timeframe) int {
	if anchor == "" || ev.ExecTF == "" {
		return 1
	}
	execMin := ev.ExecTF.Minutes()
	anchorMin := anchor.Minutes()
	if execMin <= 0 || anchorMin <= 0 || anchorMin%execMin != 0 {
		return 1
	}
	return anchorMin / execMin
}

// evalAtOffset evaluates e as if the whole snapshot were offset by delta
// exec bars, by temporarily evaluating a shifted copy of every Ref leaf.
// Since Snapshot.Get already takes an offset, shifting is done by
// wrapping the Evaluator's Snap access through a delta -- simplest
// correct approach is to re-resolve leaves via resolveValue with the
// extra delta baked into CompareExpr/RefExpr paths at eval time.
func (ev *Evaluator) evalAtOffset(e Expr, delta int) EvalResult {
	if delta == 0 {
		return ev.Eval(e)
	}
	shifted := shiftExpr(e, delta)
	return ev.Eval(shifted)
}

// shiftExpr returns a copy of e with every RefPath's Offset increased by
// delta, used to evaluate a window operator's Nth-back bar without a
// second Snapshot.
func shiftExpr(e Expr, delta int) Expr {
	switch n := e.(type) {
	case RefExpr:
		p := n.Path
		p.Offset += delta
		return RefExpr{Path: p}
	case LiteralExpr:
		return n
	case ArithExpr:
		return ArithExpr{Op: n.Op, LHS: shiftExpr(n.LHS, delta), RHS: shiftExpr(n.RHS, delta)}
	case CompareExpr:
		return CompareExpr{Op: n.Op, LHS: shiftExpr(n.LHS, delta), RHS: shiftExpr(n.RHS, delta),
			Tolerance: n.Tolerance, HasTolerance: n.HasTolerance}
	case BetweenExpr:
		return BetweenExpr{Target: shiftExpr(n.Target, delta), Low: n.Low, High: n.High}
	case InExpr:
		return InExpr{Target: shiftExpr(n.Target, delta), List: n.List}
	case CrossExpr:
		return CrossExpr{Op: n.Op, LHS: shiftExpr(n.LHS, delta), RHS: shiftExpr(n.RHS, delta)}
	case AllExpr:
		out := make([]Expr, len(n.Children))
		for i, c := range n.Children {
			out[i] = shiftExpr(c, delta)
		}
		return AllExpr{Children: out}
	case AnyExpr:
		out := make([]Expr, len(n.Children))
		for i, c := range n.Children {
			out[i] = shiftExpr(c, delta)
		}
		return AnyExpr{Children: out}
	case NotExpr:
		return NotExpr{Child: shiftExpr(n.Child, delta)}
	default:
		return e
	}
}

func (ev *Evaluator) evalHoldsFor(n HoldsForExpr) EvalResult {
	scale := ev.offsetScale(n.AnchorTF)
	var last EvalResult
	for k := 0; k < n.N; k++ {
		last = ev.evalAtOffset(n.Child, k*scale)
		if !last.OK {
			return last
		}
	}
	return EvalResult{OK: true, Reason: ReasonOK}
}

func (ev *Evaluator) evalOccurredWithin(n OccurredWithinExpr) EvalResult {
	scale := ev.offsetScale(n.AnchorTF)
	var last EvalResult
	for k := 0; k < n.N; k++ {
		last = ev.evalAtOffset(n.Child, k*scale)
		if last.OK {
			return last
		}
	}
	return EvalResult{OK: false, Reason: ReasonOK}
}

func (ev *Evaluator) evalCountTrue(n CountTrueExpr) EvalResult {
	scale := ev.offsetScale(n.AnchorTF)
	count := 0
	var last EvalResult
	for k := 0; k < n.N; k++ {
		last = ev.evalAtOffset(n.Child, k*scale)
		if last.OK {
			count++
			if count >= n.K {
				return EvalResult{OK: true, Reason: ReasonOK}
			}
		}
	}
	return EvalResult{OK: false, Reason: ReasonOK}
}

func (ev *Evaluator) evalSetupRef(n SetupRefExpr) EvalResult {
	expr, err := ev.Setups.Resolve(n.ID)
	if err != nil {
		return EvalResult{OK: false, Reason: ReasonInternalError, LHSPath: n.ID}
	}
	return ev.Eval(expr)
}
