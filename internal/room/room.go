package room

import (
	"fmt"
	"math"

	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/scenegraph"
)

// Options shape the room shell. Width and Depth are the inner floor extents
// in meters; the floor slab extends under the walls. OpenSide leaves one wall
// out ("north" is -Z, "south" +Z, "west" -X, "east" +X) so the camera can
// look in from that side.
type Options struct {
	Width          float32
	Depth          float32
	WallHeight     float32
	WallThickness  float32
	FloorThickness float32
	FloorMaterial  string
	WallMaterial   string
	OpenSide       string
}

// DefaultOptions returns the shell every session starts with.
func DefaultOptions() Options {
	return Options{
		Width:          8,
		Depth:          6,
		WallHeight:     2.6,
		WallThickness:  0.15,
		FloorThickness: 0.1,
		FloorMaterial:  "wood-birch",
		WallMaterial:   "paint-white",
	}
}

func (o *Options) clamp() {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Depth <= 0 {
		o.Depth = def.Depth
	}
	if o.WallHeight <= 0 {
		o.WallHeight = def.WallHeight
	}
	if o.WallThickness <= 0 {
		o.WallThickness = def.WallThickness
	}
	if o.FloorThickness <= 0 {
		o.FloorThickness = def.FloorThickness
	}
	if o.FloorMaterial == "" {
		o.FloorMaterial = def.FloorMaterial
	}
	if o.WallMaterial == "" {
		o.WallMaterial = def.WallMaterial
	}
}

// Build assembles the untagged room shell: a floor slab with its top face at
// Y=0 and perimeter walls standing on it, centered on the origin. The node
// carries two surface slots, floor and walls; it is scenery, so picking skips
// it and the reconciler never touches it.
func Build(shapes prototype.Shaper, opts Options) *scenegraph.Node {
	opts.clamp()

	w, d := opts.Width, opts.Depth
	t := opts.WallThickness
	h := opts.WallHeight
	outerW := w + 2*t
	outerD := d + 2*t

	node := scenegraph.NewNode("room")
	node.Slots = []scenegraph.Slot{
		{Name: "floor", DefaultID: opts.FloorMaterial},
		{Name: "walls", DefaultID: opts.WallMaterial},
	}
	node.Parts = append(node.Parts, scenegraph.Part{
		Geometry: shapes.Box(outerW, opts.FloorThickness, outerD),
		Slot:     0,
		Offset:   [3]float32{0, -opts.FloorThickness / 2, 0},
	})

	walls := []struct {
		side   string
		geom   [3]float32
		offset [3]float32
	}{
		{"north", [3]float32{outerW, h, t}, [3]float32{0, h / 2, -(d + t) / 2}},
		{"south", [3]float32{outerW, h, t}, [3]float32{0, h / 2, (d + t) / 2}},
		{"west", [3]float32{t, h, d}, [3]float32{-(w + t) / 2, h / 2, 0}},
		{"east", [3]float32{t, h, d}, [3]float32{(w + t) / 2, h / 2, 0}},
	}
	for _, wall := range walls {
		if wall.side == opts.OpenSide {
			continue
		}
		node.Parts = append(node.Parts, scenegraph.Part{
			Geometry: shapes.Box(wall.geom[0], wall.geom[1], wall.geom[2]),
			Slot:     1,
			Offset:   wall.offset,
		})
	}
	return node
}

// Realize fills the shell's surface slots from the catalog, falling back the
// same way instance materials do when an id is missing.
func Realize(n *scenegraph.Node, mats *material.Registry) error {
	for i := range n.Slots {
		s := &n.Slots[i]
		def, _ := mats.Resolve(s.DefaultID)
		handle, err := mats.Realize(def)
		if err != nil {
			return fmt.Errorf("room slot %q: %w", s.Name, err)
		}
		s.MaterialID = def.ID
		s.Material = handle
	}
	return nil
}

// GridSpec returns the slice count and spacing for the floor grid so it
// covers the room with a margin on every side.
func GridSpec(opts Options) (int32, float32) {
	opts.clamp()
	const spacing = float32(0.5)
	max := opts.Width
	if opts.Depth > max {
		max = opts.Depth
	}
	slices := int32(math.Ceil(float64((max + 2) / spacing)))
	return slices, spacing
}
