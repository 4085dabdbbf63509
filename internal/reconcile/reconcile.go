package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

// Reconciler drives the live scene graph toward the store's description, one
// pass per frame. It owns the id -> node side table; nothing else maps
// instances to engine objects. A pass is skipped outright while neither the
// store revision nor the material catalog revision has moved, so quiet frames
// cost two integer compares.
//
// Pass order matters: highlights are restored first so the material stage
// always sees real handles, geometry is settled before transforms, and
// selection visuals plus the gizmo run last against the final node set.
type Reconciler struct {
	store  *store.Store
	graph  *scenegraph.Graph
	protos *prototype.Registry
	mats   *material.Registry
	giz    *gizmo.Gizmo
	shapes prototype.Shaper
	log    *zap.Logger

	modelRoot  *scenegraph.Node
	nodes      map[string]*scenegraph.Node
	builtShape map[string]uint64
	builtFace  map[string]uint64
	warned     map[string]bool

	lastStoreRev   uint64
	lastCatalogRev uint64
	passes         uint64
}

// New wires a reconciler and mounts its model container under the graph root.
// Scenery attached directly to the root is never touched by the sweep.
func New(st *store.Store, g *scenegraph.Graph, protos *prototype.Registry, mats *material.Registry, giz *gizmo.Gizmo, shapes prototype.Shaper, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	modelRoot := scenegraph.NewNode("models")
	g.Attach(g.Root(), modelRoot)
	return &Reconciler{
		store:      st,
		graph:      g,
		protos:     protos,
		mats:       mats,
		giz:        giz,
		shapes:     shapes,
		log:        log,
		modelRoot:  modelRoot,
		nodes:      make(map[string]*scenegraph.Node),
		builtShape: make(map[string]uint64),
		builtFace:  make(map[string]uint64),
		warned:     make(map[string]bool),
	}
}

// NodeFor returns the live node for an instance id, nil while unbuilt.
func (r *Reconciler) NodeFor(id string) *scenegraph.Node { return r.nodes[id] }

// Passes returns how many passes actually ran, for the debug overlay and
// idempotence tests.
func (r *Reconciler) Passes() uint64 { return r.passes }

// Sync performs one reconciliation pass if anything changed since the last
// one. Call once per frame after input handling.
func (r *Reconciler) Sync() {
	catalogMoved := r.mats.Revision() != r.lastCatalogRev
	if r.store.Revision() == r.lastStoreRev && !catalogMoved {
		return
	}
	r.passes++

	models := r.store.Models()
	index := make(map[string]store.ModelInstance, len(models))
	for _, m := range models {
		index[m.ID] = m
	}

	// Restore real handles everywhere before touching materials; highlights are
	// re-applied from scratch at the end of the pass.
	r.graph.ClearHighlights()

	for _, m := range models {
		r.ensureNode(m)
	}
	r.sweepOrphans(index)
	r.pushTransforms(models)
	r.applyMaterials(models, catalogMoved)
	r.applySelection()
	r.syncGizmo()

	r.lastStoreRev = r.store.Revision()
	r.lastCatalogRev = r.mats.Revision()
}

// ensureNode builds or rebuilds the node for one instance. Instances whose
// shape revision already matches what was realized are left alone. Build
// failures keep any stale node in place (better stale than gone) and are
// retried on the next changed pass.
func (r *Reconciler) ensureNode(m store.ModelInstance) {
	node := r.nodes[m.ID]
	if node != nil && r.builtShape[m.ID] == m.ShapeRev {
		return
	}

	def, ok := r.protos.Get(m.PrototypeID)
	if !ok || def.Build == nil {
		if r.warnOnce("proto:" + m.ID) {
			r.log.Warn("instance references unbuildable prototype",
				zap.String("id", m.ID),
				zap.String("prototype", m.PrototypeID))
		}
		return
	}

	fresh, err := def.Build(prototype.BuildContext{Shapes: r.shapes}, m.Params)
	if err != nil || fresh == nil {
		if r.warnOnce(fmt.Sprintf("build:%s:%d", m.ID, m.ShapeRev)) {
			r.log.Warn("prototype build failed",
				zap.String("id", m.ID),
				zap.String("prototype", m.PrototypeID),
				zap.Error(err))
			r.store.Notify(store.NoticeError, "Could not build %s", m.Name)
		}
		return
	}
	fresh.Tag = m.ID
	fresh.Name = m.Name

	if node != nil {
		// Rebuild in place: splice the fresh node at the old position, carry
		// the submodel children across, then free exactly the old resources.
		r.graph.Replace(node, fresh)
		for _, c := range instanceChildren(node) {
			r.graph.Attach(fresh, c)
		}
		r.graph.Dispose(node)
	} else {
		parent := r.mountPoint(m)
		if parent == nil {
			// Parent instance not built yet; the child waits for a later pass.
			return
		}
		r.graph.Attach(parent, fresh)
	}

	r.nodes[m.ID] = fresh
	r.builtShape[m.ID] = m.ShapeRev
	// Force the material stage to realize every slot of the fresh node.
	delete(r.builtFace, m.ID)
	r.log.Debug("node built",
		zap.String("id", m.ID),
		zap.String("prototype", m.PrototypeID),
		zap.Uint64("shapeRev", m.ShapeRev))
}

// instanceChildren returns the tagged (instance) children of a node; untagged
// groups belong to the node's own geometry and die with it.
func instanceChildren(n *scenegraph.Node) []*scenegraph.Node {
	var out []*scenegraph.Node
	for _, c := range n.Children {
		if c.Tag != "" {
			out = append(out, c)
		}
	}
	return out
}

// mountPoint returns where an instance's node belongs: under its composite
// parent's node, or under the model container for top-level instances.
func (r *Reconciler) mountPoint(m store.ModelInstance) *scenegraph.Node {
	if m.IsSubmodel && m.ParentID != "" {
		return r.nodes[m.ParentID]
	}
	return r.modelRoot
}

// sweepOrphans disposes nodes whose instances left the store. Disposing a
// composite parent takes the whole subtree; the per-child loop entries then
// hit the already-disposed guard.
func (r *Reconciler) sweepOrphans(index map[string]store.ModelInstance) {
	for id, node := range r.nodes {
		if _, live := index[id]; live {
			continue
		}
		r.graph.Dispose(node)
		delete(r.nodes, id)
		delete(r.builtShape, id)
		delete(r.builtFace, id)
		r.log.Debug("node swept", zap.String("id", id))
	}
}

// pushTransforms copies transform, visibility and display name onto every live
// node, unconditionally. Values that match are plain overwrites; comparing
// first would cost more than the copy.
func (r *Reconciler) pushTransforms(models []store.ModelInstance) {
	for _, m := range models {
		node := r.nodes[m.ID]
		if node == nil {
			continue
		}
		node.Position = m.Position
		node.Rotation = m.Rotation
		node.Scale = m.Scale
		node.Visible = m.Visible
		node.Name = m.Name
	}
}

// applyMaterials realizes slot materials: prototype defaults overlaid with the
// instance's face overrides. Work happens only for instances whose face
// revision moved, for freshly built nodes, and for everything when the
// material catalog revision moved.
func (r *Reconciler) applyMaterials(models []store.ModelInstance, catalogMoved bool) {
	for _, m := range models {
		node := r.nodes[m.ID]
		if node == nil {
			continue
		}
		if applied, ok := r.builtFace[m.ID]; ok && applied == m.FaceRev && !catalogMoved {
			continue
		}
		r.realizeSlots(node, m, catalogMoved)
		r.builtFace[m.ID] = m.FaceRev

		for slot := range m.FaceMaterials {
			if slot >= len(node.Slots) {
				if r.warnOnce(fmt.Sprintf("slot:%s:%d", m.ID, slot)) {
					r.store.Notify(store.NoticeWarn, "%s has no surface %d", m.Name, slot)
				}
			}
		}
	}
}

func (r *Reconciler) realizeSlots(node *scenegraph.Node, m store.ModelInstance, catalogMoved bool) {
	for i := range node.Slots {
		s := &node.Slots[i]
		want := s.DefaultID
		if override, ok := m.FaceMaterials[i]; ok {
			want = override
		}
		if s.Material != nil && s.MaterialID == want && !catalogMoved {
			continue
		}

		def, exact := r.mats.Resolve(want)
		if !exact && r.warnOnce("mat:"+m.ID+":"+want) {
			r.log.Warn("unknown material; using fallback",
				zap.String("model", m.Name),
				zap.String("material", want))
			r.store.Notify(store.NoticeWarn, "%s: no material %q", m.Name, want)
		}
		handle, err := r.mats.Realize(def)
		if err != nil {
			r.log.Error("material realize failed",
				zap.String("model", m.Name),
				zap.String("material", want),
				zap.Error(err))
			continue
		}
		r.graph.ReleaseSlotMaterial(node, i)
		s.Material = handle
		s.MaterialID = want
	}
}

// applySelection rebuilds selection visuals from scratch; the pass cleared all
// highlights up front. A face selection narrows the highlight to one surface.
func (r *Reconciler) applySelection() {
	sel := r.store.SelectedID()
	if sel == "" {
		return
	}
	node := r.nodes[sel]
	if node == nil {
		return
	}
	if face := r.store.SelectedFace(); face >= 0 {
		r.graph.HighlightSlot(node, face)
	} else {
		r.graph.HighlightNode(node)
	}
}

// syncGizmo keeps the gizmo pointed at the selected node. A selection whose
// node is not built yet detaches the gizmo; a later pass re-attaches it.
func (r *Reconciler) syncGizmo() {
	if r.giz == nil {
		return
	}
	sel := r.store.SelectedID()
	if sel == "" {
		r.giz.Detach()
		return
	}
	if node := r.nodes[sel]; node != nil {
		r.giz.Attach(node)
	} else {
		r.giz.Detach()
	}
}

func (r *Reconciler) warnOnce(key string) bool {
	if r.warned[key] {
		return false
	}
	r.warned[key] = true
	return true
}
