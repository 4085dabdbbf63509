package viewport

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"roomstudio/internal/scenegraph"
)

const cylinderSlicesDefault = 16

// meshGeom is a GPU mesh behind the scenegraph Geometry interface.
// centerOffset shifts the mesh in model space so the part origin is the
// shape's center; raylib cylinders grow from Y=0, so they carry -height/2.
type meshGeom struct {
	mesh         rl.Mesh
	bounds       scenegraph.Box
	centerOffset [3]float32
	released     bool
}

func (g *meshGeom) Bounds() scenegraph.Box { return g.bounds }

func (g *meshGeom) Release() {
	if g.released {
		return
	}
	g.released = true
	rl.UnloadMesh(&g.mesh)
}

// Shapes generates raylib meshes for the prototype builders. Meshes are
// uploaded on creation, so builders must only run once the window and GL
// context exist.
type Shapes struct{}

// NewShapes returns the GPU-backed shape source.
func NewShapes() *Shapes { return &Shapes{} }

// Box returns a cuboid centered at the origin.
func (s *Shapes) Box(width, height, depth float32) scenegraph.Geometry {
	return &meshGeom{
		mesh:   rl.GenMeshCube(width, height, depth),
		bounds: scenegraph.NewBox(width, height, depth),
	}
}

// Cylinder returns a Y-axis cylinder centered at the origin.
func (s *Shapes) Cylinder(radius, height float32, slices int) scenegraph.Geometry {
	if slices <= 0 {
		slices = cylinderSlicesDefault
	}
	return &meshGeom{
		mesh:         rl.GenMeshCylinder(radius, height, int32(slices)),
		bounds:       scenegraph.NewBox(2*radius, height, 2*radius),
		centerOffset: [3]float32{0, -height / 2, 0},
	}
}
