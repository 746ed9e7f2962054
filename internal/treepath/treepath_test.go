package treepath

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/gbf"
)

func mustLogical(t *testing.T, n uint64, b byte) *gbf.Value {
	t.Helper()
	data := make([]byte, n)
	for i := range data {
		data[i] = b
	}
	v, err := gbf.NewLogical([]uint64{n}, data)
	require.NoError(t, err)
	return v
}

func TestFlattenAssemble_Nested(t *testing.T) {
	a := mustLogical(t, 2, 1)
	b := mustLogical(t, 3, 0)
	inner, err := gbf.NewStruct(map[string]*gbf.Value{"b": b})
	require.NoError(t, err)
	root, err := gbf.NewStruct(map[string]*gbf.Value{"a": a, "nested": inner})
	require.NoError(t, err)

	leaves, err := Flatten(root)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	require.Equal(t, "a", leaves[0].Path)
	require.Equal(t, "nested.b", leaves[1].Path)

	reassembled, err := Assemble(leaves, "struct")
	require.NoError(t, err)
	require.True(t, reassembled.IsStruct())
	require.Equal(t, a.Shape(), reassembled.Fields()["a"].Shape())

	nestedOut := reassembled.Fields()["nested"]
	require.True(t, nestedOut.IsStruct())
	require.Equal(t, b.Shape(), nestedOut.Fields()["b"].Shape())
}

func TestFlatten_SortedOrder(t *testing.T) {
	root, err := gbf.NewStruct(map[string]*gbf.Value{
		"zeta":  mustLogical(t, 1, 1),
		"alpha": mustLogical(t, 1, 1),
		"mid":   mustLogical(t, 1, 1),
	})
	require.NoError(t, err)

	leaves, err := Flatten(root)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "mid", "zeta"}, []string{leaves[0].Path, leaves[1].Path, leaves[2].Path})
}

func TestFlatten_EmptyStructLeaf(t *testing.T) {
	root, err := gbf.NewStruct(map[string]*gbf.Value{"e": gbf.NewEmptyStruct()})
	require.NoError(t, err)

	leaves, err := Flatten(root)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, "e", leaves[0].Path)
	require.True(t, leaves[0].Value.IsEmptyStruct())
}

func TestFlatten_SingleRoot(t *testing.T) {
	v := mustLogical(t, 4, 1)
	leaves, err := Flatten(v)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, "data", leaves[0].Path)

	reassembled, err := Assemble(leaves, "single")
	require.NoError(t, err)
	require.Equal(t, v.Shape(), reassembled.Shape())
}

func TestAssemble_CollisionFails(t *testing.T) {
	leaves := []PathValue{
		{Path: "a", Value: mustLogical(t, 1, 1)},
		{Path: "a.b", Value: mustLogical(t, 1, 1)},
	}
	_, err := Assemble(leaves, "struct")
	require.Error(t, err)
}

func TestAssemble_DuplicatePathFails(t *testing.T) {
	leaves := []PathValue{
		{Path: "a", Value: mustLogical(t, 1, 1)},
		{Path: "a", Value: mustLogical(t, 2, 0)},
	}
	_, err := Assemble(leaves, "struct")
	require.Error(t, err)
}

func TestAssemble_SingleRootWrongShapeFails(t *testing.T) {
	leaves := []PathValue{
		{Path: "data", Value: mustLogical(t, 1, 1)},
		{Path: "extra", Value: mustLogical(t, 1, 1)},
	}
	_, err := Assemble(leaves, "single")
	require.Error(t, err)
}

func TestFlatten_DottedKeyRejected(t *testing.T) {
	// NewStruct itself rejects dotted names; a dotted key added to the
	// map returned by Fields() afterwards is rejected by Flatten.
	_, err := gbf.NewStruct(map[string]*gbf.Value{"a.b": mustLogical(t, 1, 1)})
	require.Error(t, err)

	root, err := gbf.NewStruct(map[string]*gbf.Value{"a": mustLogical(t, 1, 1)})
	require.NoError(t, err)
	root.Fields()["a.b"] = mustLogical(t, 1, 1)
	_, err = Flatten(root)
	require.Error(t, err)
}
