package interact_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/interact"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/reconcile"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

type stubGeom struct{ box scenegraph.Box }

func (g stubGeom) Bounds() scenegraph.Box { return g.box }
func (g stubGeom) Release()               {}

type stubShaper struct{}

func (stubShaper) Box(w, h, d float32) scenegraph.Geometry {
	return stubGeom{scenegraph.NewBox(w, h, d)}
}

func (stubShaper) Cylinder(r, h float32, slices int) scenegraph.Geometry {
	return stubGeom{scenegraph.NewBox(2*r, h, 2*r)}
}

type stubMat struct{ id string }

func (stubMat) Release() {}

type stubFactory struct{}

func (stubFactory) Create(def material.Definition) (scenegraph.Material, error) {
	return stubMat{id: def.ID}, nil
}

// world is a full input loop: store, graph, reconciler, gizmo, controller.
type world struct {
	store *store.Store
	graph *scenegraph.Graph
	giz   *gizmo.Gizmo
	rec   *reconcile.Reconciler
	ctl   *interact.Controller
}

func newWorld(t *testing.T) *world {
	t.Helper()
	protos := prototype.NewRegistry(nil)
	mats, err := material.NewRegistry(stubFactory{}, nil)
	require.NoError(t, err)
	st := store.New(protos, nil)
	g := scenegraph.New()
	g.SetHighlight(stubMat{id: "highlight"})
	giz := gizmo.New()
	rec := reconcile.New(st, g, protos, mats, giz, stubShaper{}, nil)
	return &world{store: st, graph: g, giz: giz, rec: rec, ctl: interact.New(st, g, giz, nil)}
}

func rayDown(x, y, z float32) scenegraph.Ray {
	return scenegraph.Ray{Origin: mgl32.Vec3{x, y, z}, Direction: mgl32.Vec3{0, -1, 0}}
}

func rayToward(ox, oy, oz, dx, dy, dz float32) scenegraph.Ray {
	return scenegraph.Ray{Origin: mgl32.Vec3{ox, oy, oz}, Direction: mgl32.Vec3{dx, dy, dz}}
}

func TestClickSelectsModelAndSurface(t *testing.T) {
	w := newWorld(t)
	id, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	w.store.ClearSelection()
	w.rec.Sync()

	// Straight down onto the desk top.
	consumed := w.ctl.PointerDown(rayDown(0.2, 3, 0))

	require.True(t, consumed)
	require.Equal(t, id, w.store.SelectedID())
	require.Equal(t, 0, w.store.SelectedFace())
}

func TestClickMovesSelectionBetweenModels(t *testing.T) {
	w := newWorld(t)
	idA, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	idB, err := w.store.AddModel("desk-basic", store.AddOptions{Position: &[3]float32{3, 0, 0}})
	require.NoError(t, err)
	w.store.ClearSelection()
	w.rec.Sync()

	require.True(t, w.ctl.PointerDown(rayDown(3.2, 3, 0)))
	require.Equal(t, idB, w.store.SelectedID())
	require.Equal(t, 0, w.store.SelectedFace())

	// Head-on at a front leg of desk A, below the overhanging top; the model
	// switch clears the old face first.
	require.True(t, w.ctl.PointerDown(rayToward(0.64, 0.3, 3, 0, 0, -1)))
	require.Equal(t, idA, w.store.SelectedID())
	require.Equal(t, 1, w.store.SelectedFace())
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	w := newWorld(t)
	_, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	w.rec.Sync()
	require.NotEmpty(t, w.store.SelectedID())

	consumed := w.ctl.PointerDown(rayToward(0, 3, 0, 0, 1, 0))

	require.False(t, consumed)
	require.Empty(t, w.store.SelectedID())
}

func TestSceneryNeverBlocksPicks(t *testing.T) {
	w := newWorld(t)
	id, err := w.store.AddModel("cabinet", store.AddOptions{})
	require.NoError(t, err)
	w.store.ClearSelection()
	w.rec.Sync()

	// An untagged wall between camera and cabinet.
	wall := scenegraph.NewNode("wall")
	wall.Parts = append(wall.Parts, scenegraph.Part{
		Geometry: stubShaper{}.Box(4, 3, 0.1),
		Offset:   [3]float32{0, 1.5, 1},
	})
	w.graph.Attach(w.graph.Root(), wall)

	require.True(t, w.ctl.PointerDown(rayToward(0.1, 0.5, 3, 0, 0, -1)))
	require.Equal(t, id, w.store.SelectedID())
	require.Equal(t, 1, w.store.SelectedFace()) // the left door
}

func TestHandleGrabBeatsScenePick(t *testing.T) {
	w := newWorld(t)
	id, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	w.rec.Sync() // adding selects; the gizmo sits at the origin

	// This ray passes through both the X arm and the desk top below it. The
	// handle must win, so no face gets selected.
	require.True(t, w.ctl.PointerDown(rayDown(0.3, 3, 0)))
	require.True(t, w.giz.Dragging())
	require.Equal(t, id, w.store.SelectedID())
	require.Equal(t, -1, w.store.SelectedFace())

	require.True(t, w.ctl.PointerMove(rayDown(0.45, 3, 0)))
	m, ok := w.store.Model(id)
	require.True(t, ok)
	require.InDelta(t, 0.15, m.Position[0], 1e-3)

	w.ctl.PointerUp()
	require.False(t, w.giz.Dragging())

	// After the pass, node and store agree.
	w.rec.Sync()
	require.Equal(t, m.Position, w.rec.NodeFor(id).Position)
}

func TestPressesDuringDragAreIgnored(t *testing.T) {
	w := newWorld(t)
	idA, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	_, err = w.store.AddModel("desk-basic", store.AddOptions{Position: &[3]float32{3, 0, 0}})
	require.NoError(t, err)
	require.NoError(t, w.store.Select(idA))
	w.rec.Sync()

	require.True(t, w.ctl.PointerDown(rayDown(0.3, 3, 0)))
	require.True(t, w.giz.Dragging())

	// A press over the other desk while dragging changes nothing.
	require.True(t, w.ctl.PointerDown(rayDown(3.2, 3, 0)))
	require.Equal(t, idA, w.store.SelectedID())
	require.True(t, w.giz.Dragging())
}

func TestIdleMoveHoversHandles(t *testing.T) {
	w := newWorld(t)
	_, err := w.store.AddModel("desk-basic", store.AddOptions{})
	require.NoError(t, err)
	w.rec.Sync()

	require.False(t, w.ctl.PointerMove(rayDown(0.3, 3, 0)))
	require.Equal(t, gizmo.AxisX, w.giz.ActiveAxis())
	require.False(t, w.giz.Dragging())
}

func TestSubmodelClickAndDragEditsChildOnly(t *testing.T) {
	w := newWorld(t)
	parentID, err := w.store.AddComposite("office-set", store.AddOptions{})
	require.NoError(t, err)
	parent, ok := w.store.Model(parentID)
	require.True(t, ok)
	require.Len(t, parent.ChildIDs, 2)
	childID := parent.ChildIDs[0]
	w.store.ClearSelection()
	w.rec.Sync()

	// Head-on at the left drawer unit's door, under the desk top and between
	// the side panels.
	require.True(t, w.ctl.PointerDown(rayToward(-0.55, 0.3, 3, 0, 0, -1)))
	require.Equal(t, childID, w.store.SelectedID())
	require.Equal(t, 1, w.store.SelectedFace())

	// The gizmo now sits on the child. Grab its X arm and pull right.
	w.rec.Sync()
	require.Same(t, w.rec.NodeFor(childID), w.giz.Target())
	require.True(t, w.ctl.PointerDown(rayDown(-0.25, 3, 0.05)))
	require.True(t, w.ctl.PointerMove(rayDown(-0.05, 3, 0.05)))
	w.ctl.PointerUp()

	child, ok := w.store.Model(childID)
	require.True(t, ok)
	require.InDelta(t, -0.35, child.Position[0], 1e-3)

	parent, ok = w.store.Model(parentID)
	require.True(t, ok)
	require.Equal(t, [3]float32{0, 0, 0}, parent.Position)
}

func TestStaleTagFallsThrough(t *testing.T) {
	w := newWorld(t)

	// A tagged node whose instance never existed, as during the one-frame
	// window between a removal and the sweep.
	ghost := scenegraph.NewNode("ghost")
	ghost.Tag = "gone"
	ghost.Parts = append(ghost.Parts, scenegraph.Part{
		Geometry: stubShaper{}.Box(1, 1, 1),
		Offset:   [3]float32{0, 0.5, 0},
	})
	w.graph.Attach(w.graph.Root(), ghost)

	require.False(t, w.ctl.PointerDown(rayDown(0, 3, 0)))
	require.Empty(t, w.store.SelectedID())
}
