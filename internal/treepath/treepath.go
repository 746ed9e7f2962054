// Package treepath implements spec.md §4.2: turning a Value's nested
// record tree into a flat list of dotted-path leaves for encoding, and
// rebuilding a tree from those paths on read. It generalizes the
// teacher's Group/Object child-iteration walk (group.go) from "collect
// HDF5 objects under a group" to "collect GBF leaves under a struct".
package treepath

import (
	"sort"
	"strings"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
)

// PathValue pairs a dotted path with the leaf Value found there.
type PathValue struct {
	Path  string
	Value *gbf.Value
}

// singleLeafName is the field name used when the record root is itself
// a non-struct value (spec.md §4.1 tie-break: root = "single").
const singleLeafName = "data"

// Flatten walks v depth-first and returns its leaves as dotted paths.
// Non-struct roots are emitted as a single entry named "data". Struct
// children are visited in sorted-key order so repeated flattening of
// the same tree is deterministic.
func Flatten(v *gbf.Value) ([]PathValue, error) {
	if v == nil {
		return nil, gbferrs.FormatError("cannot flatten a nil value", nil)
	}
	if !v.IsStruct() || v.IsEmptyStruct() {
		return []PathValue{{Path: singleLeafName, Value: v}}, nil
	}

	var out []PathValue
	if err := flattenStruct(v, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenStruct(v *gbf.Value, prefix string, out *[]PathValue) error {
	names := make([]string, 0, len(v.Fields()))
	for name := range v.Fields() {
		if strings.Contains(name, ".") {
			return gbferrs.UnsupportedError("struct field name " + name + " must not contain '.'")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := v.Fields()[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if child.IsStruct() && !child.IsEmptyStruct() {
			if err := flattenStruct(child, path, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, PathValue{Path: path, Value: child})
	}
	return nil
}

// Assemble rebuilds a tree from flattened leaves. When rootKind is
// "single" the sole "data" entry is unwrapped and returned directly;
// otherwise intermediate Struct nodes are created on demand and name
// collisions between a leaf and an intermediate struct fail.
func Assemble(leaves []PathValue, rootKind string) (*gbf.Value, error) {
	if rootKind == "single" {
		if len(leaves) != 1 || leaves[0].Path != singleLeafName {
			return nil, gbferrs.FormatError("root=single requires exactly one field named \"data\"", nil)
		}
		return leaves[0].Value, nil
	}

	root := map[string]*gbf.Value{}
	for _, leaf := range leaves {
		segments := strings.Split(leaf.Path, ".")
		if err := insert(root, segments, leaf.Value, leaf.Path); err != nil {
			return nil, err
		}
	}
	return buildStruct(root)
}

// insert walks segments, creating intermediate struct maps as needed,
// and places value at the final segment.
func insert(cur map[string]*gbf.Value, segments []string, value *gbf.Value, fullPath string) error {
	head := segments[0]
	if len(segments) == 1 {
		if _, exists := cur[head]; exists {
			return gbferrs.FormatError("duplicate field path "+fullPath, nil)
		}
		cur[head] = value
		return nil
	}

	existing, ok := cur[head]
	if !ok {
		child := map[string]*gbf.Value{}
		v, err := buildStruct(child)
		if err != nil {
			return err
		}
		cur[head] = v
	} else if !existing.IsStruct() || existing.IsEmptyStruct() {
		return gbferrs.FormatError("field path "+fullPath+" collides with leaf at "+head, nil)
	}

	next, err := mutableFields(cur[head])
	if err != nil {
		return err
	}
	if err := insert(next, segments[1:], value, fullPath); err != nil {
		return err
	}
	rebuilt, err := buildStruct(next)
	if err != nil {
		return err
	}
	cur[head] = rebuilt
	return nil
}

// mutableFields returns a fresh copy of v's fields map so callers can
// grow it without mutating the (nominally immutable) Value in place.
func mutableFields(v *gbf.Value) (map[string]*gbf.Value, error) {
	if !v.IsStruct() {
		return nil, gbferrs.FormatError("expected struct, found leaf", nil)
	}
	out := make(map[string]*gbf.Value, len(v.Fields()))
	for k, c := range v.Fields() {
		out[k] = c
	}
	return out, nil
}

func buildStruct(fields map[string]*gbf.Value) (*gbf.Value, error) {
	return gbf.NewStruct(fields)
}
