package play

import (
	"fmt"
	"sort"

	"github.com/cryptorun/engine/bar"
)

// FeatureDecl is one entry of a Play's declared feature/structure
// registry, validated against at compile time (spec.md §4.5 step 2).
type FeatureDecl struct {
	ID            string
	TF            bar.Role
	IndicatorType string // "" for structure declarations
	OutputNames   []string
}

// Registry is the Play's declared namespace: every feature_id and
// structure_id a condition is allowed to reference.
type Registry struct {
	Features   map[string]FeatureDecl
	Structures map[string]FeatureDecl
}

func NewRegistry() *Registry {
	return &Registry{Features: map[string]FeatureDecl{}, Structures: map[string]FeatureDecl{}}
}

// CompileError carries an actionable message listing the legal set on a
// validation miss (spec.md §4.5 step 2).
type CompileError struct {
	Path    string
	Message string
}

func (e *CompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("compile error at %q: %s", e.Path, e.Message)
	}
	return "compile error: " + e.Message
}

func unknownFeatureError(path string, reg *Registry) *CompileError {
	names := make([]string, 0, len(reg.Features)+len(reg.Structures))
	for id := range reg.Features {
		names = append(names, "indicator."+id)
	}
	for id := range reg.Structures {
		names = append(names, "structure."+id)
	}
	sort.Strings(names)
	return &CompileError{Path: path, Message: fmt.Sprintf("unknown reference; declared set: %v", names)}
}

// RawCond is the decoded-YAML shape of one condition node: either
//   {"op": "...", "lhs": <RawCond|ref string|literal>, "rhs": ..., "tolerance": f64}
// or a boolean composition {"all": [...]}, {"any": [...]}, {"not": ...},
// a window operator {"holds_for": {"n": N, "expr": ...}}, or a bare ref
// path / literal scalar.
type RawCond = map[string]interface{}

// Compile turns one condition's raw decoded form into an Expr, validating
// every reference against reg and rejecting anything outside the closed
// operator grammar (spec.md §4.5).
func Compile(raw interface{}, reg *Registry) (Expr, error) {
	switch v := raw.(type) {
	case string:
		return compileLeaf(v, reg)
	case float64:
		return LiteralExpr{Num: v, IsNum: true}, nil
	case int:
		return LiteralExpr{Num: float64(v), IsNum: true}, nil
	case bool:
		return LiteralExpr{Bool: v, IsBool: true}, nil
	case map[string]interface{}:
		return compileNode(v, reg)
	case RawCond:
		return compileNode(v, reg)
	default:
		return nil, &CompileError{Message: fmt.Sprintf("unsupported condition literal of type %T", raw)}
	}
}

func compileLeaf(s string, reg *Registry) (Expr, error) {
	ref, err := parseRefPath(s, reg)
	if err != nil {
		return nil, err
	}
	return RefExpr{Path: ref}, nil
}

func compileNode(m map[string]interface{}, reg *Registry) (Expr, error) {
	if children, ok := m["all"]; ok {
		return compileBoolList(children, reg, true)
	}
	if children, ok := m["any"]; ok {
		return compileBoolList(children, reg, false)
	}
	if child, ok := m["not"]; ok {
		inner, err := Compile(child, reg)
		if err != nil {
			return nil, err
		}
		return NotExpr{Child: inner}, nil
	}
	if w, ok := m["holds_for"]; ok {
		return compileWindow(w, reg, "holds_for")
	}
	if w, ok := m["occurred_within"]; ok {
		return compileWindow(w, reg, "occurred_within")
	}
	if w, ok := m["count_true"]; ok {
		return compileWindow(w, reg, "count_true")
	}
	if setupID, ok := m["setup_ref"]; ok {
		id, _ := setupID.(string)
		return SetupRefExpr{ID: id}, nil
	}
	if ref, ok := m["ref"]; ok {
		refStr, _ := ref.(string)
		return compileLeaf(refStr, reg)
	}

	opRaw, ok := m["op"]
	if !ok {
		return nil, &CompileError{Message: "condition node missing 'op'"}
	}
	opStr, _ := opRaw.(string)
	op := Op(opStr)
	if !ValidOps[op] {
		return nil, &CompileError{Message: fmt.Sprintf("unknown operator %q", opStr)}
	}

	lhsExpr, err := Compile(m["lhs"], reg)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpBetween:
		low, high, err := compileRange(m)
		if err != nil {
			return nil, err
		}
		return BetweenExpr{Target: lhsExpr, Low: low, High: high}, nil
	case OpIn:
		list, err := compileLiteralList(m["list"])
		if err != nil {
			return nil, err
		}
		return InExpr{Target: lhsExpr, List: list}, nil
	case OpCrossAbove, OpCrossBelow:
		rhsExpr, err := Compile(m["rhs"], reg)
		if err != nil {
			return nil, err
		}
		return CrossExpr{Op: op, LHS: lhsExpr, RHS: rhsExpr}, nil
	case OpNearAbs, OpNearPct:
		tol, hasTol := toFloat(m["tolerance"])
		if !hasTol {
			return nil, &CompileError{Message: fmt.Sprintf("%s requires a tolerance", op)}
		}
		rhsExpr, err := Compile(m["rhs"], reg)
		if err != nil {
			return nil, err
		}
		return CompareExpr{Op: op, LHS: lhsExpr, RHS: rhsExpr, Tolerance: tol, HasTolerance: true}, nil
	case OpEQ, OpNE:
		rhsExpr, err := Compile(m["rhs"], reg)
		if err != nil {
			return nil, err
		}
		if lit, ok := rhsExpr.(LiteralExpr); ok && lit.IsNum {
			return nil, &CompileError{Message: fmt.Sprintf(
				"%s against a float literal is rejected; use near_abs/near_pct instead", op)}
		}
		if lit, ok := lhsExpr.(LiteralExpr); ok && lit.IsNum {
			return nil, &CompileError{Message: fmt.Sprintf(
				"%s against a float literal is rejected; use near_abs/near_pct instead", op)}
		}
		return CompareExpr{Op: op, LHS: lhsExpr, RHS: rhsExpr}, nil
	default: // >, <, >=, <=
		rhsExpr, err := Compile(m["rhs"], reg)
		if err != nil {
			return nil, err
		}
		return CompareExpr{Op: op, LHS: lhsExpr, RHS: rhsExpr}, nil
	}
}

func compileBoolList(raw interface{}, reg *Registry, isAll bool) (Expr, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &CompileError{Message: "all/any expects a list"}
	}
	children := make([]Expr, 0, len(items))
	for _, it := range items {
		c, err := Compile(it, reg)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	if isAll {
		return AllExpr{Children: children}, nil
	}
	return AnyExpr{Children: children}, nil
}

func compileWindow(raw interface{}, reg *Registry, kind string) (Expr, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &CompileError{Message: kind + " expects an object with n/expr"}
	}
	n, _ := toFloat(m["n"])
	child, err := Compile(m["expr"], reg)
	if err != nil {
		return nil, err
	}
	var anchor bar.Timeframe
	if tf, ok := m["anchor_tf"].(string); ok {
		anchor = bar.Timeframe(tf)
	}
	switch kind {
	case "holds_for":
		return HoldsForExpr{N: int(n), Child: child, AnchorTF: anchor}, nil
	case "occurred_within":
		return OccurredWithinExpr{N: int(n), Child: child, AnchorTF: anchor}, nil
	default:
		k, _ := toFloat(m["k"])
		return CountTrueExpr{N: int(n), K: int(k), Child: child, AnchorTF: anchor}, nil
	}
}

func compileRange(m map[string]interface{}) (low, high float64, err error) {
	lo, ok1 := toFloat(m["low"])
	hi, ok2 := toFloat(m["high"])
	if !ok1 || !ok2 {
		return 0, 0, &CompileError{Message: "between requires numeric low/high"}
	}
	return lo, hi, nil
}

func compileLiteralList(raw interface{}) ([]LiteralExpr, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &CompileError{Message: "in requires a list"}
	}
	out := make([]LiteralExpr, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case float64:
			out = append(out, LiteralExpr{Num: v, IsNum: true})
		case int:
			out = append(out, LiteralExpr{Num: float64(v), IsNum: true})
		case string:
			out = append(out, LiteralExpr{Str: v, IsStr: true})
		case bool:
			out = append(out, LiteralExpr{Bool: v, IsBool: true})
		default:
			return nil, &CompileError{Message: fmt.Sprintf("unsupported 'in' list element of type %T", it)}
		}
	}
	return out, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
