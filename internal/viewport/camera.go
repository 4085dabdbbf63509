package viewport

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"roomstudio/internal/scenegraph"
)

// Camera tuning. Pan speed scales with distance so a drag covers the same
// screen fraction at any zoom.
const (
	orbitDegPerPx = 0.35
	panPerPx      = 0.0016
	zoomPerNotch  = 0.1
	pitchMin      = -85
	pitchMax      = 85
	distMin       = 1.5
	distMax       = 60
)

// OrbitCamera orbits a target point. The cursor stays free for picking, so
// input is explicit drags rather than a captured raylib camera mode: right
// drag orbits, middle drag pans, the wheel zooms.
type OrbitCamera struct {
	Target mgl32.Vec3
	Yaw    float32 // degrees around +Y, 0 puts the camera on +Z
	Pitch  float32 // degrees above the horizon
	Dist   float32
	Fovy   float32

	dragging bool
}

// NewOrbitCamera starts above the front-right corner, framing a default room.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Target: mgl32.Vec3{0, 0.8, 0},
		Yaw:    40,
		Pitch:  32,
		Dist:   11,
		Fovy:   45,
	}
}

// Orbit applies a drag delta in pixels. Pitch is clamped short of the poles
// so the up vector never degenerates.
func (c *OrbitCamera) Orbit(dx, dy float32) {
	c.Yaw += dx * orbitDegPerPx
	for c.Yaw >= 360 {
		c.Yaw -= 360
	}
	for c.Yaw < 0 {
		c.Yaw += 360
	}
	c.Pitch = clampf(c.Pitch+dy*orbitDegPerPx, pitchMin, pitchMax)
}

// Pan slides the target along the view plane. Dragging right moves the scene
// right under the cursor, so the target moves the opposite way.
func (c *OrbitCamera) Pan(dx, dy float32) {
	right, up := c.basis()
	s := c.Dist * panPerPx
	c.Target = c.Target.Sub(right.Mul(dx * s)).Add(up.Mul(dy * s))
}

// Zoom moves the camera along the view ray; notches is wheel movement,
// positive toward the target.
func (c *OrbitCamera) Zoom(notches float32) {
	c.Dist = clampf(c.Dist*(1-notches*zoomPerNotch), distMin, distMax)
}

// Position returns the camera's world position for the current orbit state.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	yaw := mgl32.DegToRad(c.Yaw)
	pitch := mgl32.DegToRad(c.Pitch)
	dir := mgl32.Vec3{
		math32.Cos(pitch) * math32.Sin(yaw),
		math32.Sin(pitch),
		math32.Cos(pitch) * math32.Cos(yaw),
	}
	return c.Target.Add(dir.Mul(c.Dist))
}

// basis returns the camera's right and up vectors in world space.
func (c *OrbitCamera) basis() (right, up mgl32.Vec3) {
	forward := c.Target.Sub(c.Position()).Normalize()
	right = forward.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() < 1e-5 {
		right = mgl32.Vec3{1, 0, 0}
	} else {
		right = right.Normalize()
	}
	up = right.Cross(forward)
	return right, up
}

// Camera packs the orbit state into a raylib camera for BeginMode3D.
func (c *OrbitCamera) Camera() rl.Camera3D {
	pos := c.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(pos[0], pos[1], pos[2]),
		Target:     rl.NewVector3(c.Target[0], c.Target[1], c.Target[2]),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}

// PointerRay unprojects a screen position into a world-space picking ray.
func (c *OrbitCamera) PointerRay(mouse rl.Vector2) scenegraph.Ray {
	r := rl.GetScreenToWorldRay(mouse, c.Camera())
	return scenegraph.Ray{
		Origin:    mgl32.Vec3{r.Position.X, r.Position.Y, r.Position.Z},
		Direction: mgl32.Vec3{r.Direction.X, r.Direction.Y, r.Direction.Z},
	}
}

// HandleInput reads this frame's mouse state. blocked suppresses new input
// while the pointer is over a panel or the console owns the keyboard; a drag
// that is already running keeps tracking so the camera never sticks.
func (c *OrbitCamera) HandleInput(blocked bool) {
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) && (!blocked || c.dragging) {
		c.Orbit(delta.X, delta.Y)
		c.dragging = true
	} else if rl.IsMouseButtonDown(rl.MouseButtonMiddle) && (!blocked || c.dragging) {
		c.Pan(delta.X, delta.Y)
		c.dragging = true
	} else {
		c.dragging = false
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !blocked {
		c.Zoom(wheel)
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
