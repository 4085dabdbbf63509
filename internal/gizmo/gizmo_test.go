package gizmo_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/scenegraph"
)

// rayAt aims a ray from the camera position through a world point.
func rayAt(from, through mgl32.Vec3) scenegraph.Ray {
	return scenegraph.Ray{Origin: from, Direction: through.Sub(from)}
}

var camera = mgl32.Vec3{0, 0, 5}

func target() *scenegraph.Node {
	return scenegraph.NewNode("target")
}

func TestTranslateDragAlongWorldX(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)

	assert.Equal(t, gizmo.AxisX, g.Hover(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))
	require.True(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))
	assert.True(t, g.Dragging())
	assert.Equal(t, gizmo.AxisX, g.ActiveAxis())

	changed := g.Drag(rayAt(camera, mgl32.Vec3{0.5, 0, 0}))
	assert.True(t, changed)
	assert.InDelta(t, 0.2, n.Position[0], 1e-3)
	assert.InDelta(t, 0, n.Position[1], 1e-4, "constrained drag never leaks into other axes")
	assert.InDelta(t, 0, n.Position[2], 1e-4)

	// Dragging back to the grab point restores the start position.
	g.Drag(rayAt(camera, mgl32.Vec3{0.3, 0, 0}))
	assert.InDelta(t, 0, n.Position[0], 1e-3)

	g.EndDrag()
	assert.False(t, g.Dragging())
	assert.False(t, g.Drag(rayAt(camera, mgl32.Vec3{0.9, 0, 0})), "drag after end is inert")
}

func TestTranslateGrabOffsetDoesNotJump(t *testing.T) {
	g := gizmo.New()
	n := target()
	n.Position = [3]float32{1, 0, 0}
	g.Attach(n)

	// Grab mid-arm; the first drag to the same point must not move the target.
	grab := rayAt(camera, mgl32.Vec3{1.4, 0, 0})
	require.True(t, g.BeginDrag(grab))
	assert.False(t, g.Drag(grab))
	assert.Equal(t, [3]float32{1, 0, 0}, n.Position)
}

func TestTranslateLocalSpaceFollowsRotation(t *testing.T) {
	g := gizmo.New()
	g.SetSpace(gizmo.SpaceLocal)
	n := target()
	n.Rotation = [3]float32{0, 90, 0}
	g.Attach(n)

	// Yawed 90 degrees, the local X arm points down world -Z; grab it from above.
	top := mgl32.Vec3{0, 5, -0.3}
	require.True(t, g.BeginDrag(scenegraph.Ray{Origin: top, Direction: mgl32.Vec3{0, -1, 0}}))
	assert.Equal(t, gizmo.AxisX, g.ActiveAxis())

	g.Drag(scenegraph.Ray{Origin: mgl32.Vec3{0, 5, -0.5}, Direction: mgl32.Vec3{0, -1, 0}})
	assert.InDelta(t, -0.2, n.Position[2], 1e-3)
	assert.InDelta(t, 0, n.Position[0], 1e-3)
}

func TestRotateDragAroundY(t *testing.T) {
	g := gizmo.New()
	g.SetMode(gizmo.ModeRotate)
	n := target()
	g.Attach(n)

	// Grab the Y ring where it crosses +X, looking straight down.
	grab := scenegraph.Ray{Origin: mgl32.Vec3{0.5, 5, 0}, Direction: mgl32.Vec3{0, -1, 0}}
	assert.Equal(t, gizmo.AxisY, g.Hover(grab))
	require.True(t, g.BeginDrag(grab))

	// Swing the pointer a quarter turn to +Z: that is -90 degrees about +Y.
	g.Drag(scenegraph.Ray{Origin: mgl32.Vec3{0, 5, 0.5}, Direction: mgl32.Vec3{0, -1, 0}})
	assert.InDelta(t, -90, n.Rotation[1], 0.5)
	assert.InDelta(t, 0, n.Rotation[0], 1e-4)
	assert.InDelta(t, 0, n.Rotation[2], 1e-4)
}

func TestScaleDragIsRatioBased(t *testing.T) {
	g := gizmo.New()
	g.SetMode(gizmo.ModeScale)
	n := target()
	g.Attach(n)

	require.True(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))
	g.Drag(rayAt(camera, mgl32.Vec3{0.6, 0, 0}))
	assert.InDelta(t, 2, n.Scale[0], 1e-3)
	assert.InDelta(t, 1, n.Scale[1], 1e-4)
	assert.InDelta(t, 1, n.Scale[2], 1e-4)

	// Collapsing through the origin clamps instead of mirroring.
	g.Drag(rayAt(camera, mgl32.Vec3{-0.4, 0, 0}))
	assert.Greater(t, n.Scale[0], float32(0))
}

func TestAxisLockRestrictsPicking(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)
	g.SetLock(gizmo.AxisY)

	assert.Equal(t, gizmo.AxisNone, g.Hover(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))
	assert.False(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))

	require.True(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0, 0.3, 0})))
	assert.Equal(t, gizmo.AxisY, g.ActiveAxis())

	g.EndDrag()
	g.SetLock(gizmo.AxisNone)
	assert.Equal(t, gizmo.AxisX, g.Hover(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))
}

func TestDegenerateRayIsRejected(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)

	// A ray running straight down the X arm cannot span a drag plane.
	ray := scenegraph.Ray{Origin: mgl32.Vec3{-5, 0, 0}, Direction: mgl32.Vec3{1, 0, 0}}
	assert.False(t, g.BeginDrag(ray))
	assert.False(t, g.Dragging())
}

func TestDetachCancelsDrag(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)
	require.True(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))

	g.Detach()
	assert.False(t, g.Dragging())
	assert.Nil(t, g.Target())
	assert.False(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})), "detached gizmo grabs nothing")
}

func TestModeSwitchCancelsDrag(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)
	require.True(t, g.BeginDrag(rayAt(camera, mgl32.Vec3{0.3, 0, 0})))

	g.SetMode(gizmo.ModeRotate)
	assert.False(t, g.Dragging())

	// Re-attaching the same node keeps state; attaching another resets hover.
	g.Attach(n)
	assert.Equal(t, gizmo.ModeRotate, g.Mode())
}

func TestHandleGrabToleratesSlop(t *testing.T) {
	g := gizmo.New()
	n := target()
	g.Attach(n)

	// Slightly off-axis still grabs within GrabRadius.
	assert.Equal(t, gizmo.AxisX, g.Hover(rayAt(camera, mgl32.Vec3{0.3, 0.05, 0})))
	assert.Equal(t, gizmo.AxisNone, g.Hover(rayAt(camera, mgl32.Vec3{0.3, 0.3, 0})))
}
