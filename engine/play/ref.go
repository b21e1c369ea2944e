package play

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cryptorun/engine/bar"
)

// parseRefPath parses one of:
//   price.mark.close
//   indicator.<feature_id>[.<field>][@<tf_role>][#<offset>]
//   structure.<structure_id>.<field>[@<tf_role>][#<offset>]
// and validates namespace/feature existence against reg (spec.md §4.5
// compile step 2: "validates namespaces ... produces actionable error
// messages listing the legal set on any miss").
func parseRefPath(raw string, reg *Registry) (RefPath, error) {
	s := raw
	role := bar.RoleExec
	offset := 0

	if i := strings.IndexByte(s, '#'); i >= 0 {
		off, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return RefPath{}, &CompileError{Path: raw, Message: "invalid offset suffix"}
		}
		offset = off
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		role = bar.Role(s[i+1:])
		s = s[:i]
	}

	tokens := strings.Split(s, ".")
	if len(tokens) < 2 {
		return RefPath{}, &CompileError{Path: raw, Message: "path must be namespace.id[.field]"}
	}

	switch tokens[0] {
	case "price":
		if len(tokens) < 3 || tokens[1] != "mark" || tokens[2] != "close" {
			return RefPath{}, &CompileError{Path: raw, Message: "only price.mark.close is a legal price reference"}
		}
		return RefPath{Namespace: "price", FeatureID: "mark", Field: "close", Role: role, Offset: offset, Raw: raw}, nil

	case "indicator":
		featureID := tokens[1]
		field := ""
		if len(tokens) > 2 {
			field = strings.Join(tokens[2:], ".")
		}
		decl, ok := reg.Features[featureID]
		if !ok {
			return RefPath{}, unknownFeatureError(raw, reg)
		}
		if field != "" && !containsStr(decl.OutputNames, field) {
			return RefPath{}, &CompileError{Path: raw, Message: fmt.Sprintf(
				"indicator %q has no output %q; declared outputs: %v", featureID, field, decl.OutputNames)}
		}
		return RefPath{Namespace: "indicator", FeatureID: featureID, Field: field, Role: role, Offset: offset, Raw: raw}, nil

	case "structure":
		structureID := tokens[1]
		field := ""
		if len(tokens) > 2 {
			field = strings.Join(tokens[2:], ".")
		}
		decl, ok := reg.Structures[structureID]
		if !ok {
			return RefPath{}, unknownFeatureError(raw, reg)
		}
		if field != "" && !containsStr(decl.OutputNames, field) {
			return RefPath{}, &CompileError{Path: raw, Message: fmt.Sprintf(
				"structure %q has no field %q; declared fields: %v", structureID, field, decl.OutputNames)}
		}
		return RefPath{Namespace: "structure", FeatureID: structureID, Field: field, Role: role, Offset: offset, Raw: raw}, nil

	default:
		return RefPath{}, unknownFeatureError(raw, reg)
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// snapshotKey is the Feed/Snapshot key a RefPath resolves to: for
// indicator refs with no field it's just the feature id; with a field
// it's "<feature_id>.<field>" (matching the Feed Store's registered
// output-key convention, see engine/bar.NewFeed's indicatorKeys).
func (r RefPath) snapshotKey() string {
	switch r.Namespace {
	case "price":
		return "close"
	case "indicator", "structure":
		if r.Field == "" {
			return r.FeatureID
		}
		return r.FeatureID + "." + r.Field
	}
	return r.Raw
}
