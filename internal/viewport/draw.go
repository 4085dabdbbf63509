package viewport

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/scenegraph"
)

// rlMatrix repacks an mgl32 matrix for raylib. Both are column-major
// OpenGL-style, so fields map by index.
func rlMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func rlVec(v mgl32.Vec3) rl.Vector3 {
	return rl.NewVector3(v[0], v[1], v[2])
}

// fallbackSwatch shades parts whose slot has no realized material yet, so a
// catalog gap shows up as flat grey rather than nothing.
var fallbackSwatch = &matHandle{color: rl.NewColor(186, 186, 186, 255), roughness: 0.8}

// drawScene renders the whole graph with the shared lit materials. Call
// between BeginMode3D and EndMode3D, after Materials.SetView.
func drawScene(g *scenegraph.Graph, mats *Materials) {
	root := g.Root()
	world := root.LocalMatrix()
	for _, c := range root.Children {
		drawNode(c, world, root.Slots, mats)
	}
}

// drawNode draws one node's parts and recurses. slots is the slot table of the
// nearest ancestor that declares one, mirroring how parts resolve their slot
// index.
func drawNode(n *scenegraph.Node, parentWorld mgl32.Mat4, slots []scenegraph.Slot, mats *Materials) {
	if !n.Visible {
		return
	}
	world := parentWorld.Mul4(n.LocalMatrix())
	if len(n.Slots) > 0 {
		slots = n.Slots
	}
	for i := range n.Parts {
		p := &n.Parts[i]
		geom, ok := p.Geometry.(*meshGeom)
		if !ok {
			continue
		}
		handle := fallbackSwatch
		if p.Slot >= 0 && p.Slot < len(slots) {
			if h, ok := slots[p.Slot].Material.(*matHandle); ok && h != nil {
				handle = h
			}
		}
		tint := rl.White
		if p.Tinted() {
			tint = rl.NewColor(p.Tint[0], p.Tint[1], p.Tint[2], p.Tint[3])
		}
		mtl := mats.bind(handle, tint)
		xf := world.
			Mul4(mgl32.Translate3D(p.Offset[0], p.Offset[1], p.Offset[2])).
			Mul4(mgl32.Translate3D(geom.centerOffset[0], geom.centerOffset[1], geom.centerOffset[2]))
		rl.DrawMesh(geom.mesh, *mtl, rlMatrix(xf))
	}
	for _, c := range n.Children {
		drawNode(c, world, slots, mats)
	}
}

// Grid styling. Lines sit a hair above the floor top so they do not z-fight
// with it. Major lines land every two meters at the half-meter spacing the
// room grid uses.
const (
	gridLift       = 0.002
	gridMajorEvery = 4
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220
)

// drawGrid draws the floor grid: slices cells of spacing on each axis,
// centered on the origin, with colored world axes through the center.
func drawGrid(slices int32, spacing float32) {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	half := float32(slices) * spacing / 2
	var start, end rl.Vector3
	start.Y, end.Y = gridLift, gridLift
	for i := int32(0); i <= slices; i++ {
		c := minor
		if rel := i - slices/2; rel%gridMajorEvery == 0 {
			c = major
		}
		at := -half + float32(i)*spacing

		start.X, start.Z = at, -half
		end.X, end.Z = at, half
		rl.DrawLine3D(start, end, c)

		start.X, start.Z = -half, at
		end.X, end.Z = half, at
		rl.DrawLine3D(start, end, c)
	}

	start.X, start.Z = -half, 0
	end.X, end.Z = half, 0
	rl.DrawLine3D(start, end, axisX)
	start.X, start.Z = 0, -half
	end.X, end.Z = 0, half
	rl.DrawLine3D(start, end, axisZ)
}

// Gizmo handle styling. The active axis (hovered or dragging) flips to the
// hot color so the grab target is unmistakable.
var (
	axisColors = [3]rl.Color{
		rl.NewColor(228, 74, 74, 255),
		rl.NewColor(96, 211, 96, 255),
		rl.NewColor(84, 126, 235, 255),
	}
	axisHotColor = rl.NewColor(255, 219, 64, 255)
)

const (
	armRadius    = 0.012
	armTipLen    = 0.14
	armTipRadius = 0.045
	scaleTipSize = 0.08
	ringSegments = 48
)

// drawGizmo renders the transform handles over the scene. Call inside
// BeginMode3D after the scene so depth can be disabled just for the handles;
// they stay visible through walls and furniture.
func drawGizmo(giz *gizmo.Gizmo) {
	if !giz.Attached() {
		return
	}
	wp := giz.Target().WorldPosition()
	origin := mgl32.Vec3{wp[0], wp[1], wp[2]}
	active := giz.ActiveAxis()

	rl.DrawRenderBatchActive()
	rl.DisableDepthTest()
	for _, axis := range []gizmo.Axis{gizmo.AxisX, gizmo.AxisY, gizmo.AxisZ} {
		if lock := giz.Lock(); lock != gizmo.AxisNone && axis != lock {
			continue
		}
		color := axisColors[axis]
		if axis == active {
			color = axisHotColor
		}
		dir := giz.AxisDirection(axis)
		if giz.Mode() == gizmo.ModeRotate {
			drawRing(origin, dir, gizmo.RingRadius, color)
			continue
		}
		tip := origin.Add(dir.Mul(gizmo.HandleLength))
		shaft := origin.Add(dir.Mul(gizmo.HandleLength - armTipLen))
		rl.DrawCylinderEx(rlVec(origin), rlVec(shaft), armRadius, armRadius, 8, color)
		if giz.Mode() == gizmo.ModeScale {
			rl.DrawCube(rlVec(tip), scaleTipSize, scaleTipSize, scaleTipSize, color)
		} else {
			rl.DrawCylinderEx(rlVec(shaft), rlVec(tip), armTipRadius, 0, 12, color)
		}
	}
	rl.DrawRenderBatchActive()
	rl.EnableDepthTest()
}

// drawRing draws a circle of line segments around center in the plane normal
// to the given axis. Built from an explicit basis so local-space rings follow
// a rotated target exactly.
func drawRing(center, normal mgl32.Vec3, radius float32, color rl.Color) {
	u := normal.Cross(mgl32.Vec3{0, 1, 0})
	if u.Len() < 1e-4 {
		u = normal.Cross(mgl32.Vec3{1, 0, 0})
	}
	u = u.Normalize()
	v := normal.Cross(u).Normalize()

	prev := center.Add(u.Mul(radius))
	for i := 1; i <= ringSegments; i++ {
		a := float32(i) / ringSegments * 2 * math32.Pi
		p := center.
			Add(u.Mul(radius * math32.Cos(a))).
			Add(v.Mul(radius * math32.Sin(a)))
		rl.DrawLine3D(rlVec(prev), rlVec(p), color)
		prev = p
	}
}
