package scenegraph

// HighlightNode swaps every slot of n to the shared highlight material, saving
// the current handles for exact restore. Slots already highlighted keep their
// original saved handle, so repeated calls never lose the real material.
func (g *Graph) HighlightNode(n *Node) {
	if n == nil || g.highlight == nil {
		return
	}
	for i := range n.Slots {
		g.highlightSlot(&n.Slots[i])
	}
}

// HighlightSlot swaps a single surface slot of n to the highlight material.
// Out-of-range indices are ignored; the store cannot know a prototype's slot
// count, so bad face indices die here quietly.
func (g *Graph) HighlightSlot(n *Node, slot int) {
	if n == nil || g.highlight == nil || slot < 0 || slot >= len(n.Slots) {
		return
	}
	g.highlightSlot(&n.Slots[slot])
}

func (g *Graph) highlightSlot(s *Slot) {
	if s.highlighted {
		return
	}
	s.saved = s.Material
	s.Material = g.highlight
	s.highlighted = true
}

// ClearHighlights restores the saved material on every highlighted slot in the
// whole tree. The saved handle is put back untouched; nothing is re-created.
func (g *Graph) ClearHighlights() {
	g.root.walk(func(n *Node) bool {
		for i := range n.Slots {
			s := &n.Slots[i]
			if s.highlighted {
				s.Material = s.saved
				s.saved = nil
				s.highlighted = false
			}
		}
		return true
	})
}
