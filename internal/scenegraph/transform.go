package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LocalMatrix returns translate * rotate * scale for the node's own transform.
// Rotation is Euler degrees applied X, then Y, then Z, so the combined rotation
// is Rz * Ry * Rx.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := rotationMatrix(n.Rotation)
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix returns the node's transform composed with every ancestor up to
// the root. Recomputed on demand; scenes here are small enough that caching
// buys nothing.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.parent == nil {
		return n.LocalMatrix()
	}
	return n.parent.WorldMatrix().Mul4(n.LocalMatrix())
}

// WorldPosition returns the node's origin in world space.
func (n *Node) WorldPosition() [3]float32 {
	w := n.WorldMatrix()
	return [3]float32{w[12], w[13], w[14]}
}

// rotationMatrix builds Rz * Ry * Rx from Euler degrees.
func rotationMatrix(deg [3]float32) mgl32.Mat4 {
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(deg[0]))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(deg[1]))
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(deg[2]))
	return rz.Mul4(ry).Mul4(rx)
}
