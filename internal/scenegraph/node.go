package scenegraph

// Geometry is an engine-side shape handle for one drawable part. Implementations
// wrap GPU meshes in the app and plain structs in tests. Release frees the
// underlying resources; the graph guarantees it is called at most once per handle.
type Geometry interface {
	// Bounds returns the part-local axis-aligned bounding box of the shape,
	// centered the way the shape was generated (before the part offset is applied).
	Bounds() Box
	// Release frees the engine resources behind the handle.
	Release()
}

// Material is an engine-side surface appearance handle. Created by a material
// factory, owned by the slot that carries it, released exactly once on dispose.
type Material interface {
	Release()
}

// Box is an axis-aligned bounding box. Min must be <= Max per component.
type Box struct {
	Min [3]float32
	Max [3]float32
}

// NewBox returns a box centered at the origin with the given full extents.
func NewBox(width, height, depth float32) Box {
	return Box{
		Min: [3]float32{-width / 2, -height / 2, -depth / 2},
		Max: [3]float32{width / 2, height / 2, depth / 2},
	}
}

// Part is one drawable piece of a node: a geometry placed at a local offset and
// shaded by a surface slot. Slot indexes the slot table of the nearest ancestor
// node (including the part's own node) that declares slots, so group children of
// a model share the model's surfaces. Tint, when set, multiplies the slot
// material's color for this part only (the zero value means untinted).
type Part struct {
	Geometry Geometry
	Slot     int
	Offset   [3]float32
	Tint     [4]uint8
}

// Tinted reports whether the part carries a color multiplier.
func (p *Part) Tinted() bool {
	return p.Tint != [4]uint8{}
}

// Slot is one named surface of a model (a face group such as "top" or "legs").
// DefaultID is the material the prototype ships with; MaterialID is the material
// currently realized into Material. While a highlight is applied, Material holds
// the shared highlight handle and saved keeps the real one for exact restore.
type Slot struct {
	Name       string
	DefaultID  string
	MaterialID string
	Material   Material

	saved       Material
	highlighted bool
}

// Highlighted reports whether the slot currently shows the highlight material.
func (s *Slot) Highlighted() bool { return s.highlighted }

// Node is one element of the retained scene graph. Tag carries the id of the
// model instance the node was built for; scenery and grouping nodes leave it
// empty and are skipped by picking. Rotation is Euler degrees applied X, then Y,
// then Z. Children inherit the full local transform.
type Node struct {
	Tag      string
	Name     string
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
	Visible  bool
	Parts    []Part
	Slots    []Slot
	Children []*Node

	parent   *Node
	disposed bool
}

// NewNode returns a detached node with identity transform and visibility on.
func NewNode(name string) *Node {
	return &Node{
		Name:    name,
		Scale:   [3]float32{1, 1, 1},
		Visible: true,
	}
}

// Parent returns the node's current parent, nil for detached nodes and the root.
func (n *Node) Parent() *Node { return n.parent }

// AddChild parents c under n directly, without touching any graph index.
// Builders use it to assemble detached subtrees; once the subtree is attached
// to a graph the tag index picks up every node in it.
func (n *Node) AddChild(c *Node) {
	if c == nil || c == n {
		return
	}
	c.parent = n
	n.Children = append(n.Children, c)
}

// slotOwner returns the nearest ancestor (including n itself) that declares
// surface slots. Parts resolve their slot index against this node.
func (n *Node) slotOwner() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if len(cur.Slots) > 0 {
			return cur
		}
	}
	return nil
}

// taggedAncestor returns the nearest ancestor (including n itself) carrying an
// instance tag, nil when the node belongs to untagged scenery.
func (n *Node) taggedAncestor() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Tag != "" {
			return cur
		}
	}
	return nil
}

// walk visits n and all descendants depth-first. The visitor returning false
// prunes the subtree below the current node.
func (n *Node) walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(visit)
	}
}
