package scenegraph

// Graph owns the retained node tree: one root container, a tag index for
// instance lookup, the shared highlight material, and release accounting.
// All methods are main-thread only; the graph is mutated between frames by the
// reconciler and read by the draw walk.
type Graph struct {
	root      *Node
	byTag     map[string]*Node
	highlight Material

	releasedGeoms int
	releasedMats  int
}

// New returns a graph with an empty root node.
func New() *Graph {
	return &Graph{
		root:  NewNode("root"),
		byTag: make(map[string]*Node),
	}
}

// Root returns the root container node. Callers attach under it but never
// detach or dispose it.
func (g *Graph) Root() *Node { return g.root }

// SetHighlight installs the shared selection material. The graph does not
// release it; the owner frees it at shutdown after ClearHighlights.
func (g *Graph) SetHighlight(m Material) { g.highlight = m }

// FindByTag returns the live node built for an instance id, or nil.
func (g *Graph) FindByTag(tag string) *Node {
	return g.byTag[tag]
}

// Attach parents child under parent and registers every tagged node in the
// subtree. Attaching an already-parented node is a bug; it is detached first to
// keep the index consistent.
func (g *Graph) Attach(parent, child *Node) {
	if child == nil || parent == nil {
		return
	}
	if child.parent != nil {
		g.Detach(child)
	}
	child.parent = parent
	parent.Children = append(parent.Children, child)
	child.walk(func(n *Node) bool {
		if n.Tag != "" {
			g.byTag[n.Tag] = n
		}
		return true
	})
}

// Detach removes child from its parent and unregisters the subtree's tags.
// Resources stay alive; use Dispose to free them.
func (g *Graph) Detach(child *Node) {
	if child == nil || child.parent == nil {
		return
	}
	siblings := child.parent.Children
	for i, c := range siblings {
		if c == child {
			child.parent.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	child.parent = nil
	child.walk(func(n *Node) bool {
		if n.Tag != "" && g.byTag[n.Tag] == n {
			delete(g.byTag, n.Tag)
		}
		return true
	})
}

// Replace splices repl into old's position in the tree: same parent, same child
// index, so sibling order survives rebuilds. Children of old that are not part
// of the replacement stay with old; callers move them explicitly first. old is
// left detached and undisposed.
func (g *Graph) Replace(old, repl *Node) {
	if old == nil || repl == nil || old.parent == nil {
		return
	}
	parent := old.parent
	at := -1
	for i, c := range parent.Children {
		if c == old {
			at = i
			break
		}
	}
	g.Detach(old)
	if at < 0 || at >= len(parent.Children) {
		g.Attach(parent, repl)
		return
	}
	// Attach appends, then the splice moves the new node back to old's index.
	g.Attach(parent, repl)
	last := len(parent.Children) - 1
	moved := parent.Children[last]
	copy(parent.Children[at+1:], parent.Children[at:last])
	parent.Children[at] = moved
}

// Dispose detaches the subtree and releases every geometry and slot material in
// it exactly once. Slots showing the shared highlight release the saved real
// material instead of the highlight handle. Safe to call twice; the second call
// is a no-op.
func (g *Graph) Dispose(n *Node) {
	if n == nil || n.disposed {
		return
	}
	g.Detach(n)
	n.walk(func(cur *Node) bool {
		if cur.disposed {
			return false
		}
		cur.disposed = true
		for i := range cur.Parts {
			if cur.Parts[i].Geometry != nil {
				cur.Parts[i].Geometry.Release()
				cur.Parts[i].Geometry = nil
				g.releasedGeoms++
			}
		}
		for i := range cur.Slots {
			s := &cur.Slots[i]
			if s.highlighted {
				// The live handle is the shared highlight; the real one is in saved.
				s.Material = s.saved
				s.saved = nil
				s.highlighted = false
			}
			if s.Material != nil {
				s.Material.Release()
				s.Material = nil
				g.releasedMats++
			}
		}
		return true
	})
}

// ReleaseSlotMaterial frees the current material of one slot and clears it,
// used when the reconciler swaps a surface to a different material. Highlighted
// slots swap the saved handle so the highlight stays untouched.
func (g *Graph) ReleaseSlotMaterial(n *Node, slot int) {
	if n == nil || slot < 0 || slot >= len(n.Slots) {
		return
	}
	s := &n.Slots[slot]
	if s.highlighted {
		if s.saved != nil {
			s.saved.Release()
			s.saved = nil
			g.releasedMats++
		}
		return
	}
	if s.Material != nil {
		s.Material.Release()
		s.Material = nil
		g.releasedMats++
	}
}

// Stats reports live and released resource counts for the debug overlay and
// leak tests.
type Stats struct {
	Nodes         int
	Parts         int
	Slots         int
	ReleasedGeoms int
	ReleasedMats  int
}

// Stats walks the tree and returns current counts.
func (g *Graph) Stats() Stats {
	st := Stats{ReleasedGeoms: g.releasedGeoms, ReleasedMats: g.releasedMats}
	g.root.walk(func(n *Node) bool {
		st.Nodes++
		st.Parts += len(n.Parts)
		st.Slots += len(n.Slots)
		return true
	})
	return st
}
