package gizmo

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"roomstudio/internal/scenegraph"
)

// Mode is the transform a drag edits.
type Mode int

const (
	ModeTranslate Mode = iota
	ModeRotate
	ModeScale
)

// String returns the toolbar label for the mode.
func (m Mode) String() string {
	switch m {
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	}
	return "translate"
}

// Space selects whether translate handles align to the world axes or to the
// target's own orientation. Scale always works on the target's local axes; a
// world-aligned scale of a rotated body has no single-axis answer.
type Space int

const (
	SpaceWorld Space = iota
	SpaceLocal
)

// String returns the toolbar label for the space.
func (s Space) String() string {
	if s == SpaceLocal {
		return "local"
	}
	return "world"
}

// Axis identifies a handle. AxisNone means no handle.
type Axis int

const (
	AxisNone Axis = iota - 1
	AxisX
	AxisY
	AxisZ
)

// String returns the log spelling of the axis.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "none"
}

// Handle geometry shared by hit testing and drawing. World-sized: the tool
// works at room scale where the camera sits a few meters out.
const (
	HandleLength = 0.6  // translate/scale arm length
	GrabRadius   = 0.07 // pick distance around an arm
	RingRadius   = 0.5  // rotate ring radius
	RingBand     = 0.09 // pick distance around a ring
)

// minScale keeps a scale drag from collapsing or mirroring the target.
const minScale = 0.01

// Gizmo is the transform-handle state machine. It owns no rendering: the
// viewport draws from its state and feeds it pointer rays. While a drag is
// live the gizmo writes the target node's transform directly so the edit is
// visible the same frame; the controller reads the node back into the store.
type Gizmo struct {
	mode   Mode
	space  Space
	lock   Axis
	target *scenegraph.Node
	hover  Axis

	dragging   bool
	axis       Axis
	axisDir    mgl32.Vec3
	planePoint mgl32.Vec3
	planeNorm  mgl32.Vec3
	grabParam  float32
	grabVec    mgl32.Vec3
	startPos   [3]float32
	startRot   [3]float32
	startScale [3]float32
}

// New returns a detached gizmo in translate/world mode with no axis lock.
func New() *Gizmo {
	return &Gizmo{lock: AxisNone, hover: AxisNone, axis: AxisNone}
}

// Attach points the gizmo at a node, ending any drag in progress.
func (g *Gizmo) Attach(n *scenegraph.Node) {
	if g.target == n {
		return
	}
	g.target = n
	g.EndDrag()
	g.hover = AxisNone
}

// Detach clears the target, ending any drag in progress.
func (g *Gizmo) Detach() {
	g.target = nil
	g.EndDrag()
	g.hover = AxisNone
}

// Target returns the attached node, nil when detached.
func (g *Gizmo) Target() *scenegraph.Node { return g.target }

// Attached reports whether a target is set.
func (g *Gizmo) Attached() bool { return g.target != nil }

// Mode returns the active transform mode.
func (g *Gizmo) Mode() Mode { return g.mode }

// SetMode switches the transform mode; a live drag is cancelled.
func (g *Gizmo) SetMode(m Mode) {
	if g.mode == m {
		return
	}
	g.mode = m
	g.EndDrag()
}

// Space returns the handle alignment.
func (g *Gizmo) Space() Space { return g.space }

// SetSpace switches handle alignment; a live drag is cancelled.
func (g *Gizmo) SetSpace(s Space) {
	if g.space == s {
		return
	}
	g.space = s
	g.EndDrag()
}

// Lock returns the axis constraint, AxisNone for free handle picking.
func (g *Gizmo) Lock() Axis { return g.lock }

// SetLock constrains handle picking to one axis; AxisNone releases it.
func (g *Gizmo) SetLock(a Axis) { g.lock = a }

// Dragging reports whether a drag is live.
func (g *Gizmo) Dragging() bool { return g.dragging }

// ActiveAxis returns the axis to emphasize when drawing: the drag axis while
// dragging, otherwise the hovered handle.
func (g *Gizmo) ActiveAxis() Axis {
	if g.dragging {
		return g.axis
	}
	return g.hover
}

// Hover hit-tests the handles and remembers the result for drawing. Returns
// AxisNone while detached or when the ray misses every handle.
func (g *Gizmo) Hover(ray scenegraph.Ray) Axis {
	g.hover = g.pickHandle(ray)
	return g.hover
}

// BeginDrag grabs the handle under the ray and records the drag baseline.
// Returns false when no handle is hit, so the caller can fall through to
// scene picking.
func (g *Gizmo) BeginDrag(ray scenegraph.Ray) bool {
	if g.target == nil {
		return false
	}
	axis := g.pickHandle(ray)
	if axis == AxisNone {
		return false
	}

	origin := g.origin()
	dir := g.AxisDirection(axis)
	rd := ray.Direction.Normalize()

	var normal mgl32.Vec3
	if g.mode == ModeRotate {
		normal = dir
	} else {
		// Plane through the axis, facing the ray as squarely as possible.
		side := rd.Cross(dir)
		if side.Len() < 1e-5 {
			return false
		}
		normal = dir.Cross(side).Normalize()
	}

	p, ok := rayPlane(ray, origin, normal)
	if !ok {
		return false
	}

	g.axis = axis
	g.axisDir = dir
	g.planePoint = origin
	g.planeNorm = normal
	g.startPos = g.target.Position
	g.startRot = g.target.Rotation
	g.startScale = g.target.Scale

	if g.mode == ModeRotate {
		v := p.Sub(origin)
		if v.Len() < 1e-5 {
			return false
		}
		g.grabVec = v.Normalize()
	} else {
		g.grabParam = p.Sub(origin).Dot(dir)
		if g.mode == ModeScale && math32.Abs(g.grabParam) < 1e-4 {
			return false
		}
	}
	g.dragging = true
	return true
}

// Drag advances a live drag with the current pointer ray and writes the
// resulting transform onto the target node. Returns true when the transform
// changed this call.
func (g *Gizmo) Drag(ray scenegraph.Ray) bool {
	if !g.dragging || g.target == nil {
		return false
	}
	p, ok := rayPlane(ray, g.planePoint, g.planeNorm)
	if !ok {
		return false
	}

	switch g.mode {
	case ModeTranslate:
		delta := p.Sub(g.planePoint).Dot(g.axisDir) - g.grabParam
		step := g.parentFrame(g.axisDir.Mul(delta))
		next := g.startPos
		next[0] += step[0]
		next[1] += step[1]
		next[2] += step[2]
		if next == g.target.Position {
			return false
		}
		g.target.Position = next
		return true

	case ModeRotate:
		v := p.Sub(g.planePoint)
		if v.Len() < 1e-5 {
			return false
		}
		v = v.Normalize()
		sin := g.grabVec.Cross(v).Dot(g.axisDir)
		cos := g.grabVec.Dot(v)
		deg := math32.Atan2(sin, cos) * 180 / math32.Pi
		next := g.startRot
		next[g.axis] = g.startRot[g.axis] + deg
		if next == g.target.Rotation {
			return false
		}
		g.target.Rotation = next
		return true

	case ModeScale:
		param := p.Sub(g.planePoint).Dot(g.axisDir)
		factor := param / g.grabParam
		if factor < minScale {
			factor = minScale
		}
		next := g.startScale
		next[g.axis] = g.startScale[g.axis] * factor
		if next[g.axis] < minScale {
			next[g.axis] = minScale
		}
		if next == g.target.Scale {
			return false
		}
		g.target.Scale = next
		return true
	}
	return false
}

// EndDrag finishes or cancels a drag, keeping the transform where it is.
func (g *Gizmo) EndDrag() {
	g.dragging = false
	g.axis = AxisNone
}

// origin returns the target's world origin, the anchor for every handle.
func (g *Gizmo) origin() mgl32.Vec3 {
	p := g.target.WorldPosition()
	return mgl32.Vec3{p[0], p[1], p[2]}
}

// parentFrame maps a world-space displacement into the frame the target's
// Position lives in. Submodel nodes sit under their composite parent, so a
// world drag must be expressed in that parent's coordinates.
func (g *Gizmo) parentFrame(v mgl32.Vec3) mgl32.Vec3 {
	parent := g.target.Parent()
	if parent == nil {
		return v
	}
	inv := parent.WorldMatrix().Inv()
	out := inv.Mul4x1(v.Vec4(0))
	return mgl32.Vec3{out[0], out[1], out[2]}
}

// AxisDirection returns the world-space direction of a handle axis. Local
// space (and scale mode always) follows the target's orientation; world space
// uses the fixed frame. The viewport draws arms and rings along these
// directions.
func (g *Gizmo) AxisDirection(axis Axis) mgl32.Vec3 {
	local := g.space == SpaceLocal || g.mode == ModeScale
	if !local {
		switch axis {
		case AxisY:
			return mgl32.Vec3{0, 1, 0}
		case AxisZ:
			return mgl32.Vec3{0, 0, 1}
		}
		return mgl32.Vec3{1, 0, 0}
	}
	w := g.target.WorldMatrix()
	col := w.Col(int(axis))
	v := mgl32.Vec3{col[0], col[1], col[2]}
	if v.Len() < 1e-6 {
		return mgl32.Vec3{1, 0, 0}
	}
	return v.Normalize()
}

// pickHandle returns the handle under the ray, honoring the axis lock.
func (g *Gizmo) pickHandle(ray scenegraph.Ray) Axis {
	if g.target == nil {
		return AxisNone
	}
	origin := g.origin()
	best := AxisNone
	bestScore := float32(math32.MaxFloat32)
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		if g.lock != AxisNone && axis != g.lock {
			continue
		}
		dir := g.AxisDirection(axis)
		var score float32
		var hit bool
		if g.mode == ModeRotate {
			score, hit = ringDistance(ray, origin, dir)
		} else {
			score, hit = armDistance(ray, origin, dir)
		}
		if hit && score < bestScore {
			bestScore = score
			best = axis
		}
	}
	return best
}

// armDistance measures how close the ray passes to the arm segment
// [origin, origin+dir*HandleLength].
func armDistance(ray scenegraph.Ray, origin, dir mgl32.Vec3) (float32, bool) {
	d := rayToSegment(ray.Origin, ray.Direction.Normalize(), origin, origin.Add(dir.Mul(HandleLength)))
	if d > GrabRadius {
		return 0, false
	}
	return d, true
}

// ringDistance measures how far the ray's intersection with the ring plane
// lands from the ring circle.
func ringDistance(ray scenegraph.Ray, origin, normal mgl32.Vec3) (float32, bool) {
	p, ok := rayPlane(ray, origin, normal)
	if !ok {
		return 0, false
	}
	d := math32.Abs(p.Sub(origin).Len() - RingRadius)
	if d > RingBand {
		return 0, false
	}
	return d, true
}

// rayPlane intersects a ray with the plane through point with the given
// normal. Fails when the ray runs parallel to the plane or the hit lies
// behind the origin.
func rayPlane(ray scenegraph.Ray, point, normal mgl32.Vec3) (mgl32.Vec3, bool) {
	rd := ray.Direction.Normalize()
	denom := rd.Dot(normal)
	if math32.Abs(denom) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := point.Sub(ray.Origin).Dot(normal) / denom
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return ray.Origin.Add(rd.Mul(t)), true
}

// rayToSegment returns the smallest distance between a ray (unit direction)
// and a segment.
func rayToSegment(ro, rd, s0, s1 mgl32.Vec3) float32 {
	v := s1.Sub(s0)
	w0 := ro.Sub(s0)
	a := rd.Dot(rd)
	b := rd.Dot(v)
	c := v.Dot(v)
	d := rd.Dot(w0)
	e := v.Dot(w0)

	den := a*c - b*b
	var sc, tc float32
	if den < 1e-8 {
		// Parallel: measure against the segment start.
		tc = 0
	} else {
		tc = (a*e - b*d) / den
	}
	if tc < 0 {
		tc = 0
	}
	if tc > 1 {
		tc = 1
	}
	sc = (tc*b - d) / a
	if sc < 0 {
		sc = 0
	}
	closestRay := ro.Add(rd.Mul(sc))
	closestSeg := s0.Add(v.Mul(tc))
	return closestRay.Sub(closestSeg).Len()
}
