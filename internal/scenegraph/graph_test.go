package scenegraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomstudio/internal/scenegraph"
)

// fakeGeom counts releases into a shared counter so tests can assert
// exactly-once disposal.
type fakeGeom struct {
	bounds   scenegraph.Box
	releases *int
}

func (f *fakeGeom) Bounds() scenegraph.Box { return f.bounds }
func (f *fakeGeom) Release()               { *f.releases++ }

type fakeMat struct {
	id       string
	releases *int
}

func (f *fakeMat) Release() { *f.releases++ }

// modelNode builds a tagged single-part node with one slot, wiring release
// counters for leak assertions.
func modelNode(tag string, geomReleases, matReleases *int) *scenegraph.Node {
	n := scenegraph.NewNode(tag)
	n.Tag = tag
	n.Slots = []scenegraph.Slot{
		{Name: "body", DefaultID: "paint-white", MaterialID: "paint-white", Material: &fakeMat{id: "paint-white", releases: matReleases}},
	}
	n.Parts = []scenegraph.Part{
		{Geometry: &fakeGeom{bounds: scenegraph.NewBox(1, 1, 1), releases: geomReleases}, Slot: 0},
	}
	return n
}

func TestAttachRegistersTagsRecursively(t *testing.T) {
	g := scenegraph.New()
	var gr, mr int

	parent := modelNode("parent", &gr, &mr)
	child := modelNode("child", &gr, &mr)
	scenegraph.New() // unrelated graph must not see these tags

	g.Attach(parent, child)
	g.Attach(g.Root(), parent)

	assert.Same(t, parent, g.FindByTag("parent"))
	assert.Same(t, child, g.FindByTag("child"))
	assert.Same(t, parent, child.Parent())

	g.Detach(parent)
	assert.Nil(t, g.FindByTag("parent"))
	assert.Nil(t, g.FindByTag("child"), "detach must unregister the whole subtree")
}

func TestReplaceKeepsSiblingOrder(t *testing.T) {
	g := scenegraph.New()
	var gr, mr int

	a := modelNode("a", &gr, &mr)
	b := modelNode("b", &gr, &mr)
	c := modelNode("c", &gr, &mr)
	g.Attach(g.Root(), a)
	g.Attach(g.Root(), b)
	g.Attach(g.Root(), c)

	repl := modelNode("b", &gr, &mr)
	g.Replace(b, repl)

	require.Len(t, g.Root().Children, 3)
	assert.Same(t, a, g.Root().Children[0])
	assert.Same(t, repl, g.Root().Children[1], "replacement must take the old node's index")
	assert.Same(t, c, g.Root().Children[2])
	assert.Same(t, repl, g.FindByTag("b"))
	assert.Nil(t, b.Parent())
}

func TestDisposeReleasesExactlyOnce(t *testing.T) {
	g := scenegraph.New()
	var gr, mr int

	parent := modelNode("parent", &gr, &mr)
	child := modelNode("child", &gr, &mr)
	g.Attach(parent, child)
	g.Attach(g.Root(), parent)

	g.Dispose(parent)
	g.Dispose(parent) // second call is a no-op
	g.Dispose(child)

	assert.Equal(t, 2, gr, "one release per geometry")
	assert.Equal(t, 2, mr, "one release per slot material")
	assert.Nil(t, g.FindByTag("parent"))
	assert.Nil(t, g.FindByTag("child"))

	st := g.Stats()
	assert.Equal(t, 2, st.ReleasedGeoms)
	assert.Equal(t, 2, st.ReleasedMats)
	assert.Equal(t, 1, st.Nodes, "only the root remains")
}

func TestHighlightSavesAndRestoresSameHandle(t *testing.T) {
	g := scenegraph.New()
	var gr, mr, hr int
	g.SetHighlight(&fakeMat{id: "highlight", releases: &hr})

	n := modelNode("desk", &gr, &mr)
	g.Attach(g.Root(), n)
	original := n.Slots[0].Material

	g.HighlightNode(n)
	require.True(t, n.Slots[0].Highlighted())
	assert.NotSame(t, original, n.Slots[0].Material)

	// Highlighting again must not overwrite the saved handle.
	g.HighlightNode(n)

	g.ClearHighlights()
	assert.False(t, n.Slots[0].Highlighted())
	assert.Same(t, original, n.Slots[0].Material, "restore must reuse the saved handle, not recreate")
	assert.Zero(t, mr)
	assert.Zero(t, hr)
}

func TestDisposeWhileHighlightedReleasesRealMaterialOnly(t *testing.T) {
	g := scenegraph.New()
	var gr, mr, hr int
	g.SetHighlight(&fakeMat{id: "highlight", releases: &hr})

	n := modelNode("desk", &gr, &mr)
	g.Attach(g.Root(), n)
	g.HighlightSlot(n, 0)

	g.Dispose(n)

	assert.Equal(t, 1, mr, "the saved real material is released")
	assert.Zero(t, hr, "the shared highlight handle must survive disposal")
	assert.Equal(t, 1, gr)
}

func TestReleaseSlotMaterialUnderHighlight(t *testing.T) {
	g := scenegraph.New()
	var gr, mr, hr int
	g.SetHighlight(&fakeMat{id: "highlight", releases: &hr})

	n := modelNode("desk", &gr, &mr)
	g.Attach(g.Root(), n)
	g.HighlightSlot(n, 0)

	// Swapping the surface while highlighted frees the saved handle; the visible
	// highlight stays in place and the restore then leaves the slot empty.
	g.ReleaseSlotMaterial(n, 0)
	assert.Equal(t, 1, mr)
	assert.True(t, n.Slots[0].Highlighted())

	g.ClearHighlights()
	assert.False(t, n.Slots[0].Highlighted())
	assert.Nil(t, n.Slots[0].Material)
	assert.Zero(t, hr)
}

func TestWorldMatrixComposesThroughParents(t *testing.T) {
	g := scenegraph.New()
	parent := scenegraph.NewNode("parent")
	parent.Position = [3]float32{1, 0, 0}
	parent.Rotation = [3]float32{0, 90, 0}
	child := scenegraph.NewNode("child")
	child.Position = [3]float32{2, 0, 0}
	g.Attach(parent, child)
	g.Attach(g.Root(), parent)

	// Yaw +90 about Y maps +X onto -Z, so the child sits 2 behind the parent.
	p := child.WorldPosition()
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, -2, p[2], 1e-5)
}
