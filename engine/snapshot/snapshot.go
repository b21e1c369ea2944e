// Package snapshot implements the Snapshot View (spec.md §4.4): an
// immutable, short-lived per-bar projection across timeframe roles that
// the rule evaluator reads from. It never mutates a Feed; it only borrows
// already-resolved forward-fill indices (spec.md §9 "ownership of
// feeds").
package snapshot

import "github.com/cryptorun/engine/bar"

// DeclaredType is the semantic type of a stored-as-float feature/structure
// field, consulted by the evaluator to coerce values that are
// conceptually integers, bools, or enums (e.g. supertrend direction,
// swing pair_version) rather than floats.
type DeclaredType int

const (
	TypeFloat DeclaredType = iota
	TypeInt
	TypeBool
	TypeString
)

// FieldTypes maps "feature_id.field" (or bare "feature_id" for
// single-output indicators) to its declared type. Populated at Play
// compile time from the indicator/structure registries.
type FieldTypes map[string]DeclaredType

// Snapshot is constructed once per exec-bar close. offset semantics:
// get(key, role, k) reads the value at ctxIdx-k in the feed selected by
// role, where ctxIdx is that role's forward-filled index (spec.md §4.4).
type Snapshot struct {
	feeds      *bar.MultiFeed
	ctxIdx     map[bar.Role]int
	tsClose    int64
	fieldTypes FieldTypes
}

// New builds a Snapshot for the exec bar at execIdx. A med/high role with
// no companion feed, or no bar closed at or before the exec bar, gets no
// index, and Get on that role reports not ok.
func New(feeds *bar.MultiFeed, execIdx int, fieldTypes FieldTypes) *Snapshot {
	execFeed := feeds.Feeds[bar.RoleExec]
	view, _ := execFeed.At(execIdx)

	ctx := map[bar.Role]int{bar.RoleExec: execIdx}
	if medIdx, ok := feeds.ForwardFillIndex(bar.RoleMed, view.TsClose); ok {
		ctx[bar.RoleMed] = medIdx
	}
	if highIdx, ok := feeds.ForwardFillIndex(bar.RoleHigh, view.TsClose); ok {
		ctx[bar.RoleHigh] = highIdx
	}

	return &Snapshot{feeds: feeds, ctxIdx: ctx, tsClose: view.TsClose, fieldTypes: fieldTypes}
}

// Get resolves key at the given tf role and offset. Returns (0, false) if
// the role has no feed, the offset underflows the feed, or the value is
// the feed's missing sentinel.
func (s *Snapshot) Get(key string, role bar.Role, offset int) (float64, bool) {
	idx, ok := s.ctxIdx[role]
	if !ok {
		return 0, false
	}
	f, ok := s.feeds.Feeds[role]
	if !ok || f == nil {
		return 0, false
	}
	return f.Get(key, idx-offset)
}

// GetDeclaredType returns the declared semantic type of feature_id.field
// (or feature_id alone for single-output indicators), defaulting to
// TypeFloat when no entry is registered.
func (s *Snapshot) GetDeclaredType(featureID, field string) DeclaredType {
	key := featureID
	if field != "" {
		key = featureID + "." + field
	}
	if t, ok := s.fieldTypes[key]; ok {
		return t
	}
	return TypeFloat
}

// TsClose always equals the exec feed's close timestamp at the bar this
// snapshot was built for.
func (s *Snapshot) TsClose() int64 { return s.tsClose }

// CtxIdx exposes the forward-filled index for a role, used by the
// plumbing audit test to cross-check Get against a direct array read.
func (s *Snapshot) CtxIdx(role bar.Role) (int, bool) {
	idx, ok := s.ctxIdx[role]
	return idx, ok
}
