package scenegraph

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space picking ray. Direction need not be normalized; hit
// distances are reported in units of its length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Hit describes the nearest picked model part. Node is the instance-carrying
// ancestor (the selection target), Leaf the node that owns the hit part. Slot
// is the surface slot index on Node, -1 when the part's slots are owned
// elsewhere. Distance is the ray parameter at entry.
type Hit struct {
	Node     *Node
	Leaf     *Node
	Slot     int
	Distance float32
}

// Pick casts the ray through every visible part of the tree and returns the
// nearest hit that resolves to a tagged instance node. Untagged scenery (floor,
// walls, grid helpers) never blocks a pick: the ray passes through it so models
// behind a wall stay selectable. Invisible subtrees are skipped entirely.
func (g *Graph) Pick(ray Ray) (Hit, bool) {
	best := Hit{Slot: -1, Distance: math32.MaxFloat32}
	found := false
	g.root.walk(func(n *Node) bool {
		if !n.Visible {
			return false
		}
		if len(n.Parts) == 0 {
			return true
		}
		tagged := n.taggedAncestor()
		if tagged == nil {
			return true
		}
		world := n.WorldMatrix()
		for pi := range n.Parts {
			p := &n.Parts[pi]
			if p.Geometry == nil {
				continue
			}
			t, ok := rayPart(ray, world, p)
			if !ok || t >= best.Distance {
				continue
			}
			slot := -1
			if owner := n.slotOwner(); owner == tagged && p.Slot >= 0 && p.Slot < len(tagged.Slots) {
				slot = p.Slot
			}
			best = Hit{Node: tagged, Leaf: n, Slot: slot, Distance: t}
			found = true
		}
		return true
	})
	if !found {
		return Hit{Slot: -1}, false
	}
	return best, true
}

// rayPart intersects the ray with one part's bounds. The ray is pulled into
// part-local space through the inverse world transform with the direction left
// unnormalized, so the returned parameter is directly comparable across parts
// regardless of node scale.
func rayPart(ray Ray, nodeWorld mgl32.Mat4, p *Part) (float32, bool) {
	world := nodeWorld.Mul4(mgl32.Translate3D(p.Offset[0], p.Offset[1], p.Offset[2]))
	inv := world.Inv()
	o4 := inv.Mul4x1(ray.Origin.Vec4(1))
	d4 := inv.Mul4x1(ray.Direction.Vec4(0))
	return rayBox(mgl32.Vec3{o4[0], o4[1], o4[2]}, mgl32.Vec3{d4[0], d4[1], d4[2]}, p.Geometry.Bounds())
}

// rayBox is the slab test. Returns the entry parameter, clamped to 0 when the
// origin starts inside the box.
func rayBox(o, d mgl32.Vec3, b Box) (float32, bool) {
	tmin := float32(0)
	tmax := math32.MaxFloat32
	for i := 0; i < 3; i++ {
		if math32.Abs(d[i]) < 1e-8 {
			if o[i] < b.Min[i] || o[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (b.Min[i] - o[i]) * inv
		t2 := (b.Max[i] - o[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
