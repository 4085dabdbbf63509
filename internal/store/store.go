package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"roomstudio/internal/prototype"
)

// Store is the declarative description of the scene: an ordered list of model
// instances plus the selection. Everything the viewport shows is derived from
// it by the reconciler, so every mutation funnels through the methods here and
// bumps the revision counter the reconciler polls.
//
// The store is main-thread only, like the scene graph it describes. Mutations
// that do not change anything do not bump the revision, which keeps the
// per-frame sync pass a cheap no-op on quiet frames.
type Store struct {
	protos *prototype.Registry
	log    *zap.Logger

	mode         Mode
	models       []*ModelInstance
	byID         map[string]*ModelInstance
	selectedID   string
	selectedFace int
	rev          uint64
	notices      []Notice
	nameSeq      map[string]int
}

// New returns an empty store in admin mode. A nil log is replaced with a
// no-op logger.
func New(protos *prototype.Registry, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		protos:       protos,
		log:          log,
		byID:         make(map[string]*ModelInstance),
		selectedFace: -1,
		nameSeq:      make(map[string]int),
	}
}

// AddOptions tune a new instance. Nil transform fields keep the defaults
// (origin, no rotation, unit scale); Params overlay the prototype defaults
// after schema validation.
type AddOptions struct {
	Name     string
	Position *[3]float32
	Rotation *[3]float32
	Scale    *[3]float32
	Params   map[string]any
}

// AddModel creates an instance of a prototype, selects it, and returns its id.
// Composite prototype ids are routed through AddComposite, so callers can add
// anything from the palette by id.
func (s *Store) AddModel(prototypeID string, opts AddOptions) (string, error) {
	def, ok := s.protos.Get(prototypeID)
	if !ok {
		s.Notify(NoticeWarn, "No prototype %q", prototypeID)
		return "", fmt.Errorf("add model: %w %q", prototype.ErrUnknownPrototype, prototypeID)
	}
	if def.IsComposite() {
		return s.AddComposite(prototypeID, opts)
	}

	inst := s.newInstance(def, prototypeID, opts)
	s.insert(inst)
	s.selectedID = inst.ID
	s.selectedFace = -1
	s.Notify(NoticeInfo, "Added %s", inst.Name)
	s.log.Debug("model added",
		zap.String("id", inst.ID),
		zap.String("prototype", prototypeID),
		zap.String("name", inst.Name))
	s.bump()
	return inst.ID, nil
}

// AddComposite expands a composite prototype into a parent instance plus its
// submodels, all in one mutation. The add is atomic: every referenced
// prototype is validated before anything is created, so a broken definition
// leaves the store untouched. The parent becomes the selection.
func (s *Store) AddComposite(compositeID string, opts AddOptions) (string, error) {
	def, ok := s.protos.Get(compositeID)
	if !ok {
		s.Notify(NoticeWarn, "No prototype %q", compositeID)
		return "", fmt.Errorf("add composite: %w %q", prototype.ErrUnknownPrototype, compositeID)
	}
	if !def.IsComposite() {
		return "", fmt.Errorf("add composite %q: %w", compositeID, ErrNotComposite)
	}

	parentDef, ok := s.protos.Get(def.ParentPrototype)
	if !ok {
		s.Notify(NoticeError, "Set %q is broken: no prototype %q", compositeID, def.ParentPrototype)
		return "", fmt.Errorf("add composite %q: parent: %w %q", compositeID, prototype.ErrUnknownPrototype, def.ParentPrototype)
	}
	memberDefs := make([]prototype.Definition, len(def.Members))
	for i, m := range def.Members {
		md, ok := s.protos.Get(m.PrototypeID)
		if !ok {
			s.Notify(NoticeError, "Set %q is broken: no prototype %q", compositeID, m.PrototypeID)
			return "", fmt.Errorf("add composite %q: member %d: %w %q", compositeID, i, prototype.ErrUnknownPrototype, m.PrototypeID)
		}
		if md.IsComposite() {
			s.Notify(NoticeError, "Set %q is broken: nested set %q", compositeID, m.PrototypeID)
			return "", fmt.Errorf("add composite %q: member %q: %w", compositeID, m.PrototypeID, ErrNotComposite)
		}
		memberDefs[i] = md
	}

	// Everything resolves; commit. The parent instance is built from the parent
	// prototype with the set's parameter overlay, then the caller overlay.
	parentOpts := AddOptions{
		Name:     opts.Name,
		Position: opts.Position,
		Rotation: opts.Rotation,
		Scale:    opts.Scale,
		Params:   mergeParams(def.ParentParams, opts.Params),
	}
	if parentOpts.Name == "" {
		parentOpts.Name = s.nextName(def)
	}
	parent := s.newInstance(parentDef, def.ParentPrototype, parentOpts)
	parent.IsComposite = true
	s.insert(parent)

	for i, m := range def.Members {
		memberName := m.Name
		if memberName == "" {
			memberName = memberDefs[i].Name
		}
		offset := m.Offset
		child := s.newInstance(memberDefs[i], m.PrototypeID, AddOptions{
			Name:     fmt.Sprintf("%s / %s", parent.Name, memberName),
			Position: &offset,
			Params:   m.Params,
		})
		child.IsSubmodel = true
		child.ParentID = parent.ID
		parent.ChildIDs = append(parent.ChildIDs, child.ID)
		s.insert(child)
	}

	s.selectedID = parent.ID
	s.selectedFace = -1
	s.Notify(NoticeInfo, "Added %s (%d submodels)", parent.Name, len(parent.ChildIDs))
	s.log.Debug("composite added",
		zap.String("id", parent.ID),
		zap.String("set", compositeID),
		zap.Int("submodels", len(parent.ChildIDs)))
	s.bump()
	return parent.ID, nil
}

// Remove deletes an instance. Composite parents take all their submodels
// along; removing the last submodel of a composite removes the now-empty
// parent as well. A removed selection is cleared.
func (s *Store) Remove(id string) error {
	inst, ok := s.byID[id]
	if !ok {
		s.Notify(NoticeWarn, "No model to remove")
		return fmt.Errorf("remove: %w %q", ErrUnknownModel, id)
	}

	doomed := make(map[string]bool)
	s.collectRemoval(inst, doomed)

	if inst.IsSubmodel && !doomed[inst.ParentID] {
		if parent, ok := s.byID[inst.ParentID]; ok {
			parent.ChildIDs = withoutString(parent.ChildIDs, inst.ID)
			if len(parent.ChildIDs) == 0 {
				s.collectRemoval(parent, doomed)
			}
		}
	}

	if doomed[s.selectedID] {
		s.selectedID = ""
		s.selectedFace = -1
	}

	kept := s.models[:0]
	for _, m := range s.models {
		if doomed[m.ID] {
			delete(s.byID, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	s.models = kept

	if n := len(doomed); n > 1 {
		s.Notify(NoticeInfo, "Removed %s and %d more", inst.Name, n-1)
	} else {
		s.Notify(NoticeInfo, "Removed %s", inst.Name)
	}
	s.log.Debug("model removed", zap.String("id", id), zap.Int("total", len(doomed)))
	s.bump()
	return nil
}

// collectRemoval marks inst and every composite descendant for removal.
func (s *Store) collectRemoval(inst *ModelInstance, doomed map[string]bool) {
	if doomed[inst.ID] {
		return
	}
	doomed[inst.ID] = true
	for _, cid := range inst.ChildIDs {
		if child, ok := s.byID[cid]; ok {
			s.collectRemoval(child, doomed)
		}
	}
}

// UpdateParams applies a parameter patch after schema validation. Values that
// fail validation are dropped with a notice; values equal to the current ones
// change nothing. Any real change bumps the instance's shape revision so the
// reconciler rebuilds its geometry.
func (s *Store) UpdateParams(id string, patch map[string]any) error {
	inst, ok := s.byID[id]
	if !ok {
		s.Notify(NoticeWarn, "No such model")
		return fmt.Errorf("update params: %w %q", ErrUnknownModel, id)
	}
	def, ok := s.protos.Get(inst.PrototypeID)
	if !ok {
		s.Notify(NoticeError, "%s: prototype %q is gone", inst.Name, inst.PrototypeID)
		return fmt.Errorf("update params: %w %q", prototype.ErrUnknownPrototype, inst.PrototypeID)
	}

	applied, dropped := def.Normalize(patch)
	for _, reason := range dropped {
		s.Notify(NoticeWarn, "%s: %s", inst.Name, reason)
	}

	changed := false
	for k, v := range applied {
		if inst.Params[k] != v {
			inst.Params[k] = v
			changed = true
		}
	}
	if !changed {
		return nil
	}
	inst.ShapeRev++
	s.log.Debug("params updated",
		zap.String("id", id),
		zap.Uint64("shapeRev", inst.ShapeRev))
	s.bump()
	return nil
}

// UpdateTransform sets the provided transform fields; nil fields keep their
// current values. This is the single path gizmo drags feed back through.
func (s *Store) UpdateTransform(id string, pos, rot, scale *[3]float32) error {
	inst, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update transform: %w %q", ErrUnknownModel, id)
	}
	changed := false
	if pos != nil && *pos != inst.Position {
		inst.Position = *pos
		changed = true
	}
	if rot != nil && *rot != inst.Rotation {
		inst.Rotation = *rot
		changed = true
	}
	if scale != nil && *scale != inst.Scale {
		inst.Scale = *scale
		changed = true
	}
	if changed {
		s.bump()
	}
	return nil
}

// SetVisible sets visibility on an instance and every composite descendant, so
// hiding a set hides the whole set even if submodels are later detached from
// their parent node.
func (s *Store) SetVisible(id string, visible bool) error {
	inst, ok := s.byID[id]
	if !ok {
		s.Notify(NoticeWarn, "No such model")
		return fmt.Errorf("set visible: %w %q", ErrUnknownModel, id)
	}
	changed := s.setVisibleTree(inst, visible)
	if changed {
		s.bump()
	}
	return nil
}

func (s *Store) setVisibleTree(inst *ModelInstance, visible bool) bool {
	changed := inst.Visible != visible
	inst.Visible = visible
	for _, cid := range inst.ChildIDs {
		if child, ok := s.byID[cid]; ok {
			if s.setVisibleTree(child, visible) {
				changed = true
			}
		}
	}
	return changed
}

// SetFaceMaterial overrides the material of one surface slot, or resets the
// slot to the prototype default when materialID is empty. Slot indices are
// validated for shape only; whether the slot exists on the built model is the
// reconciler's to know.
func (s *Store) SetFaceMaterial(id string, slot int, materialID string) error {
	inst, ok := s.byID[id]
	if !ok {
		s.Notify(NoticeWarn, "No such model")
		return fmt.Errorf("set face material: %w %q", ErrUnknownModel, id)
	}
	if slot < 0 {
		return fmt.Errorf("set face material: %w: %d", ErrBadFaceIndex, slot)
	}
	if materialID == "" {
		if _, had := inst.FaceMaterials[slot]; !had {
			return nil
		}
		delete(inst.FaceMaterials, slot)
	} else {
		if inst.FaceMaterials[slot] == materialID {
			return nil
		}
		inst.FaceMaterials[slot] = materialID
	}
	inst.FaceRev++
	s.log.Debug("face material set",
		zap.String("id", id),
		zap.Int("slot", slot),
		zap.String("material", materialID))
	s.bump()
	return nil
}

// Select makes an instance the current selection and clears any face
// selection. An empty id clears the selection entirely. Selecting a submodel
// selects the submodel itself, not its parent.
func (s *Store) Select(id string) error {
	if id == "" {
		s.ClearSelection()
		return nil
	}
	if _, ok := s.byID[id]; !ok {
		s.Notify(NoticeWarn, "No such model")
		return fmt.Errorf("select: %w %q", ErrUnknownModel, id)
	}
	if s.selectedID == id && s.selectedFace == -1 {
		return nil
	}
	s.selectedID = id
	s.selectedFace = -1
	s.bump()
	return nil
}

// SelectFace picks a surface slot on the selected model; -1 drops back to
// whole-model selection.
func (s *Store) SelectFace(slot int) error {
	if s.selectedID == "" {
		s.Notify(NoticeWarn, "Select a model first")
		return fmt.Errorf("select face: %w", ErrNoSelection)
	}
	if slot < -1 {
		return fmt.Errorf("select face: %w: %d", ErrBadFaceIndex, slot)
	}
	if s.selectedFace == slot {
		return nil
	}
	s.selectedFace = slot
	s.bump()
	return nil
}

// ClearSelection drops both the model and face selection.
func (s *Store) ClearSelection() {
	if s.selectedID == "" && s.selectedFace == -1 {
		return
	}
	s.selectedID = ""
	s.selectedFace = -1
	s.bump()
}

// Mode returns the current editing mode.
func (s *Store) Mode() Mode { return s.mode }

// SetMode switches between admin and user surfaces.
func (s *Store) SetMode(m Mode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.Notify(NoticeInfo, "Switched to %s mode", m)
	s.bump()
}

// Revision returns the mutation counter the reconciler polls.
func (s *Store) Revision() uint64 { return s.rev }

// SelectedID returns the selected instance id, empty for none.
func (s *Store) SelectedID() string { return s.selectedID }

// SelectedFace returns the selected surface slot, -1 for none.
func (s *Store) SelectedFace() int { return s.selectedFace }

// Models returns deep-copied snapshots in scene order, with Selected derived
// from the current selection. Callers can hold them across frames without
// aliasing live state.
func (s *Store) Models() []ModelInstance {
	out := make([]ModelInstance, 0, len(s.models))
	for _, inst := range s.models {
		out = append(out, s.snapshot(inst))
	}
	return out
}

// Model returns a snapshot of one instance.
func (s *Store) Model(id string) (ModelInstance, bool) {
	inst, ok := s.byID[id]
	if !ok {
		return ModelInstance{}, false
	}
	return s.snapshot(inst), true
}

// Selected returns a snapshot of the selected instance, if any.
func (s *Store) Selected() (ModelInstance, bool) {
	if s.selectedID == "" {
		return ModelInstance{}, false
	}
	return s.Model(s.selectedID)
}

// Notify pushes a user-facing notice onto the bounded queue.
func (s *Store) Notify(level NoticeLevel, format string, args ...any) {
	n := Notice{Level: level, Text: fmt.Sprintf(format, args...)}
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
	s.log.Debug("notice", zap.Int("level", int(n.Level)), zap.String("text", n.Text))
}

// TakeNotices drains the notice queue; the HUD calls it once per frame.
func (s *Store) TakeNotices() []Notice {
	out := s.notices
	s.notices = nil
	return out
}

func (s *Store) snapshot(inst *ModelInstance) ModelInstance {
	var out ModelInstance
	if err := copier.CopyWithOption(&out, inst, copier.Option{DeepCopy: true}); err != nil {
		// Same concrete type on both sides; this cannot fail in practice.
		s.log.Warn("snapshot copy", zap.Error(err))
		out = *inst
	}
	out.Selected = inst.ID == s.selectedID
	return out
}

func (s *Store) newInstance(def prototype.Definition, prototypeID string, opts AddOptions) *ModelInstance {
	name := opts.Name
	if name == "" {
		name = s.nextName(def)
	}
	inst := &ModelInstance{
		ID:            uuid.NewString(),
		PrototypeID:   prototypeID,
		Name:          name,
		Visible:       true,
		Scale:         [3]float32{1, 1, 1},
		Params:        def.DefaultParams(),
		FaceMaterials: make(map[int]string),
		ShapeRev:      1,
	}
	if opts.Position != nil {
		inst.Position = *opts.Position
	}
	if opts.Rotation != nil {
		inst.Rotation = *opts.Rotation
	}
	if opts.Scale != nil {
		inst.Scale = *opts.Scale
	}
	if len(opts.Params) > 0 {
		applied, dropped := def.Normalize(opts.Params)
		for k, v := range applied {
			inst.Params[k] = v
		}
		for _, reason := range dropped {
			s.Notify(NoticeWarn, "%s: %s", name, reason)
		}
	}
	return inst
}

func (s *Store) insert(inst *ModelInstance) {
	s.models = append(s.models, inst)
	s.byID[inst.ID] = inst
}

// nextName numbers instances per prototype: "Desk 1", "Desk 2", ...
func (s *Store) nextName(def prototype.Definition) string {
	s.nameSeq[def.ID]++
	return fmt.Sprintf("%s %d", def.Name, s.nameSeq[def.ID])
}

func mergeParams(base, overlay map[string]any) map[string]any {
	if len(base) == 0 {
		return overlay
	}
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func withoutString(list []string, drop string) []string {
	out := list[:0]
	for _, s := range list {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}

func (s *Store) bump() { s.rev++ }
