package reconcile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/reconcile"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

type countingGeom struct {
	box      scenegraph.Box
	released *int
}

func (g *countingGeom) Bounds() scenegraph.Box { return g.box }
func (g *countingGeom) Release()               { *g.released++ }

type countingShaper struct {
	built    int
	released int
}

func (f *countingShaper) Box(w, h, d float32) scenegraph.Geometry {
	f.built++
	return &countingGeom{box: scenegraph.NewBox(w, h, d), released: &f.released}
}

func (f *countingShaper) Cylinder(r, h float32, slices int) scenegraph.Geometry {
	f.built++
	return &countingGeom{box: scenegraph.NewBox(2*r, h, 2*r), released: &f.released}
}

type countingMat struct {
	id       string
	released *int
}

func (m *countingMat) Release() { *m.released++ }

type countingFactory struct {
	created  int
	released int
}

func (f *countingFactory) Create(def material.Definition) (scenegraph.Material, error) {
	f.created++
	return &countingMat{id: def.ID, released: &f.released}, nil
}

type fixture struct {
	store   *store.Store
	graph   *scenegraph.Graph
	protos  *prototype.Registry
	mats    *material.Registry
	giz     *gizmo.Gizmo
	shapes  *countingShaper
	factory *countingFactory
	rec     *reconcile.Reconciler

	highlight         *countingMat
	highlightReleases int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		protos:  prototype.NewRegistry(nil),
		shapes:  &countingShaper{},
		factory: &countingFactory{},
		graph:   scenegraph.New(),
		giz:     gizmo.New(),
	}
	mats, err := material.NewRegistry(f.factory, nil)
	require.NoError(t, err)
	f.mats = mats
	f.store = store.New(f.protos, nil)
	f.highlight = &countingMat{id: "highlight", released: &f.highlightReleases}
	f.graph.SetHighlight(f.highlight)
	f.rec = reconcile.New(f.store, f.graph, f.protos, f.mats, f.giz, f.shapes, nil)
	return f
}

func taggedChildren(n *scenegraph.Node) []*scenegraph.Node {
	var out []*scenegraph.Node
	for _, c := range n.Children {
		if c.Tag != "" {
			out = append(out, c)
		}
	}
	return out
}

func TestFirstPassBuildsNode(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{Position: &[3]float32{1, 0, 2}})
	require.NoError(t, err)

	f.rec.Sync()

	node := f.rec.NodeFor(id)
	require.NotNil(t, node)
	require.Equal(t, id, node.Tag)
	require.Same(t, node, f.graph.FindByTag(id))
	require.Equal(t, [3]float32{1, 0, 2}, node.Position)
	require.Len(t, node.Parts, 5) // top plus four post legs
	for i := range node.Slots {
		require.NotNil(t, node.Slots[i].Material, "slot %d not realized", i)
	}
	require.Equal(t, "wood-oak", node.Slots[0].MaterialID)
	require.Equal(t, "metal-black", node.Slots[1].MaterialID)
}

func TestQuietFramesDoNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AddModel("bookshelf", store.AddOptions{})
	require.NoError(t, err)

	f.rec.Sync()
	passes := f.rec.Passes()
	created := f.factory.created
	built := f.shapes.built

	f.rec.Sync()
	f.rec.Sync()
	require.Equal(t, passes, f.rec.Passes())
	require.Equal(t, created, f.factory.created)
	require.Equal(t, built, f.shapes.built)
	require.Zero(t, f.shapes.released)
	require.Zero(t, f.factory.released)
}

func TestParamChangeRebuildsInPlace(t *testing.T) {
	f := newFixture(t)
	deskID, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	shelfID, err := f.store.AddModel("bookshelf", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()

	old := f.rec.NodeFor(deskID)
	oldParts := len(old.Parts)
	shelf := f.rec.NodeFor(shelfID)

	require.NoError(t, f.store.UpdateParams(deskID, map[string]any{"legStyle": "panel"}))
	f.rec.Sync()

	fresh := f.rec.NodeFor(deskID)
	require.NotSame(t, old, fresh)
	require.Len(t, fresh.Parts, 3) // top plus two side panels
	require.Same(t, fresh, f.graph.FindByTag(deskID))

	// The replacement takes the old node's place, so scene order is stable.
	parent := fresh.Parent()
	require.Same(t, fresh, parent.Children[0])
	require.Same(t, shelf, parent.Children[1])

	// Old geometry and materials were freed exactly once.
	require.Equal(t, oldParts, f.shapes.released)
	require.Equal(t, len(old.Slots), f.factory.released)
	for i := range fresh.Slots {
		require.NotNil(t, fresh.Slots[i].Material, "slot %d not realized", i)
	}

	// The untouched sibling kept its node.
	require.Same(t, shelf, f.rec.NodeFor(shelfID))
}

func TestUnchangedParamsSkipRebuild(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	node := f.rec.NodeFor(id)

	// Same values back: the store keeps the shape revision, so no rebuild.
	require.NoError(t, f.store.UpdateParams(id, map[string]any{"width": 1.4}))
	f.rec.Sync()
	require.Same(t, node, f.rec.NodeFor(id))
	require.Zero(t, f.shapes.released)
}

func TestRemoveSweepsNode(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("cabinet", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()

	node := f.rec.NodeFor(id)
	parts := len(node.Parts)
	slots := len(node.Slots)

	require.NoError(t, f.store.Remove(id))
	f.rec.Sync()

	require.Nil(t, f.rec.NodeFor(id))
	require.Nil(t, f.graph.FindByTag(id))
	require.Equal(t, parts, f.shapes.released)
	require.Equal(t, slots, f.factory.released)
}

func TestCompositeBuildsNestedFamily(t *testing.T) {
	f := newFixture(t)
	parentID, err := f.store.AddComposite("office-set", store.AddOptions{Position: &[3]float32{2, 0, 0}})
	require.NoError(t, err)
	f.rec.Sync()

	pn := f.rec.NodeFor(parentID)
	require.NotNil(t, pn)
	kids := taggedChildren(pn)
	require.Len(t, kids, 2)

	// Submodel nodes ride the parent transform; the left drawer unit sits at
	// the parent position plus its member offset.
	wp := kids[0].WorldPosition()
	require.InDelta(t, 2-0.55, wp[0], 1e-4)
	require.InDelta(t, 0.05, wp[2], 1e-4)

	require.NoError(t, f.store.Remove(parentID))
	f.rec.Sync()

	require.Nil(t, f.graph.FindByTag(parentID))
	for _, k := range kids {
		require.Nil(t, f.graph.FindByTag(k.Tag))
	}
	// Everything ever built was freed; nothing leaked, nothing double-freed.
	require.Equal(t, f.shapes.built, f.shapes.released)
	require.Equal(t, f.factory.created, f.factory.released)
	require.Zero(t, f.highlightReleases)
}

func TestParentRebuildCarriesChildren(t *testing.T) {
	f := newFixture(t)
	parentID, err := f.store.AddComposite("office-set", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()

	old := f.rec.NodeFor(parentID)
	before := taggedChildren(old)
	require.Len(t, before, 2)

	require.NoError(t, f.store.UpdateParams(parentID, map[string]any{"width": 2.0}))
	f.rec.Sync()

	fresh := f.rec.NodeFor(parentID)
	require.NotSame(t, old, fresh)
	after := taggedChildren(fresh)
	require.Len(t, after, 2)
	require.Same(t, before[0], after[0])
	require.Same(t, before[1], after[1])
	require.Same(t, fresh, after[0].Parent())
	require.Same(t, after[0], f.graph.FindByTag(after[0].Tag))

	// Only the parent's own resources cycled; the children were untouched.
	require.Equal(t, len(old.Parts), f.shapes.released)
	require.Equal(t, len(old.Slots), f.factory.released)
}

func TestFaceOverrideRealizesOnlyThatSlot(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	node := f.rec.NodeFor(id)
	base := f.factory.created

	require.NoError(t, f.store.SetFaceMaterial(id, 0, "metal-brass"))
	f.rec.Sync()

	require.Same(t, node, f.rec.NodeFor(id)) // overrides never rebuild geometry
	require.Equal(t, base+1, f.factory.created)
	require.Equal(t, 1, f.factory.released)
	require.Equal(t, "metal-brass", node.Slots[0].MaterialID)

	// Clearing the override re-realizes the prototype default.
	require.NoError(t, f.store.SetFaceMaterial(id, 0, ""))
	f.rec.Sync()
	require.Equal(t, "wood-oak", node.Slots[0].MaterialID)
	require.Equal(t, base+2, f.factory.created)
}

func TestUnknownMaterialFallsBackWithNotice(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("cabinet", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	f.store.TakeNotices()

	require.NoError(t, f.store.SetFaceMaterial(id, 1, "velvet-crimson"))
	f.rec.Sync()

	node := f.rec.NodeFor(id)
	require.NotNil(t, node.Slots[1].Material)
	// The requested id is kept so a later catalog that gains it wins, and so
	// repeat passes do not churn the fallback.
	require.Equal(t, "velvet-crimson", node.Slots[1].MaterialID)

	var warned bool
	for _, n := range f.store.TakeNotices() {
		if n.Level == store.NoticeWarn && strings.Contains(n.Text, "velvet-crimson") {
			warned = true
		}
	}
	require.True(t, warned)

	created := f.factory.created
	require.NoError(t, f.store.UpdateTransform(id, &[3]float32{1, 0, 0}, nil, nil))
	f.rec.Sync()
	require.Equal(t, created, f.factory.created)
}

func TestCatalogReloadReappliesMaterials(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	node := f.rec.NodeFor(id)
	created := f.factory.created

	catalog := []byte(`
materials:
  - {id: paint-white, name: White Paint, color: "#f4f4f0"}
  - {id: wood-oak, name: Oak, color: "#a87848"}
  - {id: metal-black, name: Black Metal, color: "#202022"}
  - {id: laminate-white, name: White Laminate, color: "#ece9e4"}
`)
	require.NoError(t, f.mats.LoadBytes(catalog))

	// The store did not move, but the catalog revision did.
	f.rec.Sync()
	require.Equal(t, created+len(node.Slots), f.factory.created)
	require.Equal(t, len(node.Slots), f.factory.released)
}

func TestSelectionHighlightExactRestore(t *testing.T) {
	f := newFixture(t)
	id1, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	id2, err := f.store.AddModel("cabinet", store.AddOptions{})
	require.NoError(t, err)
	f.store.ClearSelection()
	f.rec.Sync()

	n1 := f.rec.NodeFor(id1)
	realTop := n1.Slots[0].Material
	require.NotNil(t, realTop)

	require.NoError(t, f.store.Select(id1))
	f.rec.Sync()
	require.True(t, n1.Slots[0].Highlighted())
	require.Same(t, f.highlight, n1.Slots[0].Material)

	// Moving the selection restores the exact handle that was saved.
	require.NoError(t, f.store.Select(id2))
	f.rec.Sync()
	require.False(t, n1.Slots[0].Highlighted())
	require.Same(t, realTop, n1.Slots[0].Material)

	n2 := f.rec.NodeFor(id2)
	require.True(t, n2.Slots[0].Highlighted())

	// A face selection narrows the highlight to one surface.
	require.NoError(t, f.store.SelectFace(2))
	f.rec.Sync()
	require.True(t, n2.Slots[2].Highlighted())
	require.False(t, n2.Slots[0].Highlighted())
	require.Zero(t, f.highlightReleases)
}

func TestFaceOverrideWhileHighlighted(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync() // adding selects, so slot 0 is highlighted now

	node := f.rec.NodeFor(id)
	require.True(t, node.Slots[0].Highlighted())

	// Swapping the material of a highlighted surface must free the old real
	// handle, show the new one under the highlight, and restore it on deselect.
	require.NoError(t, f.store.SetFaceMaterial(id, 0, "metal-brass"))
	f.rec.Sync()
	require.True(t, node.Slots[0].Highlighted())
	require.Equal(t, 1, f.factory.released)

	f.store.ClearSelection()
	f.rec.Sync()
	require.False(t, node.Slots[0].Highlighted())
	brass, ok := node.Slots[0].Material.(*countingMat)
	require.True(t, ok)
	require.Equal(t, "metal-brass", brass.id)
	require.Zero(t, f.highlightReleases)
}

func TestGizmoFollowsSelection(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)

	f.rec.Sync() // adding selects
	require.True(t, f.giz.Attached())

	f.store.ClearSelection()
	f.rec.Sync()
	require.False(t, f.giz.Attached())

	require.NoError(t, f.store.Select(id))
	f.rec.Sync()
	require.True(t, f.giz.Attached())

	require.NoError(t, f.store.Remove(id))
	f.rec.Sync()
	require.False(t, f.giz.Attached())
}

func TestVisibilityCascadesToNodes(t *testing.T) {
	f := newFixture(t)
	parentID, err := f.store.AddComposite("office-set", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()

	pn := f.rec.NodeFor(parentID)
	require.True(t, pn.Visible)

	require.NoError(t, f.store.SetVisible(parentID, false))
	f.rec.Sync()

	require.False(t, pn.Visible)
	for _, k := range taggedChildren(pn) {
		require.False(t, k.Visible)
	}
}

func TestOverrideOnMissingSurfaceWarns(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	f.store.TakeNotices()

	// The store cannot know the slot count; the reconciler does.
	require.NoError(t, f.store.SetFaceMaterial(id, 9, "wood-oak"))
	f.rec.Sync()

	var warned bool
	for _, n := range f.store.TakeNotices() {
		if strings.Contains(n.Text, "no surface 9") {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestBuildFailureKeepsStoreUsable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.protos.Register(prototype.Definition{
		ID:   "flaky",
		Name: "Flaky",
		Build: func(ctx prototype.BuildContext, params map[string]any) (*scenegraph.Node, error) {
			return nil, errors.New("boom")
		},
	}))

	id, err := f.store.AddModel("flaky", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()

	require.Nil(t, f.rec.NodeFor(id))
	require.False(t, f.giz.Attached()) // selected but unbuilt: gizmo waits

	// The rest of the scene is unaffected.
	otherID, err := f.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	f.rec.Sync()
	require.NotNil(t, f.rec.NodeFor(otherID))
}
