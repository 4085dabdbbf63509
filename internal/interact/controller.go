package interact

import (
	"go.uber.org/zap"

	"roomstudio/internal/gizmo"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

// Controller turns pointer input into store mutations. It reads the scene
// graph for picking but never writes it; every edit goes through the store so
// the next reconciliation pass stays the graph's only writer.
//
// The host loop feeds it one world-space ray per event: PointerDown on press,
// PointerMove every frame while the pointer is over the viewport, PointerUp on
// release.
type Controller struct {
	store *store.Store
	graph *scenegraph.Graph
	giz   *gizmo.Gizmo
	log   *zap.Logger
}

// New wires a controller over the store, graph and gizmo.
func New(st *store.Store, g *scenegraph.Graph, giz *gizmo.Gizmo, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: st, graph: g, giz: giz, log: log}
}

// PointerDown handles a primary-button press. Gizmo handles float over the
// model, so a handle grab wins over a scene pick. Otherwise the nearest tagged
// hit becomes the selection (and its surface the face selection when the pick
// resolved one); a miss clears the selection. Presses that arrive while a drag
// is already running belong to that drag and change nothing.
//
// Reports whether the press was consumed by a handle or a model; a background
// press returns false so the host can route it to camera control.
func (c *Controller) PointerDown(ray scenegraph.Ray) bool {
	if c.giz.Dragging() {
		return true
	}
	if c.giz.BeginDrag(ray) {
		c.log.Debug("gizmo grab",
			zap.String("axis", c.giz.ActiveAxis().String()),
			zap.String("mode", c.giz.Mode().String()))
		return true
	}

	hit, ok := c.graph.Pick(ray)
	if !ok {
		c.store.ClearSelection()
		return false
	}
	if err := c.store.Select(hit.Node.Tag); err != nil {
		// The node outlived its instance by a frame at most.
		c.log.Debug("pick resolved a stale node", zap.String("tag", hit.Node.Tag))
		return false
	}
	if hit.Slot >= 0 {
		if err := c.store.SelectFace(hit.Slot); err != nil {
			c.log.Debug("face selection rejected", zap.Int("slot", hit.Slot))
		}
	}
	return true
}

// PointerMove advances an active drag, or refreshes handle hover when idle.
// During a drag the gizmo writes the target node's transform; the controller
// reads it back and pushes it through the store, which is the sole path by
// which dragging mutates state. Reports whether a drag consumed the move.
func (c *Controller) PointerMove(ray scenegraph.Ray) bool {
	if !c.giz.Dragging() {
		c.giz.Hover(ray)
		return false
	}
	if !c.giz.Drag(ray) {
		return true
	}
	target := c.giz.Target()
	if target == nil || target.Tag == "" {
		return true
	}
	pos, rot, scale := target.Position, target.Rotation, target.Scale
	if err := c.store.UpdateTransform(target.Tag, &pos, &rot, &scale); err != nil {
		c.log.Warn("drag transform rejected",
			zap.String("tag", target.Tag),
			zap.Error(err))
	}
	return true
}

// PointerUp finishes an active drag. The final transform already reached the
// store on the last move.
func (c *Controller) PointerUp() {
	if c.giz.Dragging() {
		c.giz.EndDrag()
	}
}
