package prototype

import (
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"roomstudio/internal/scenegraph"
)

// ErrUnknownPrototype is returned when a prototype id is not registered.
var ErrUnknownPrototype = errors.New("unknown prototype")

// Field types a parameter schema can declare. Numbers clamp to [Min, Max],
// selects must pick one of Options, colors are "#rrggbb" strings.
const (
	TypeNumber  = "number"
	TypeSelect  = "select"
	TypeBoolean = "boolean"
	TypeColor   = "color"
)

// ParamField describes one editable parameter of a prototype. Step is a UI
// hint for sliders, not a snap grid.
type ParamField struct {
	ID      string
	Name    string
	Type    string
	Default any
	Min     float64
	Max     float64
	Step    float64
	Options []string
}

// Shaper creates engine geometry for builder parts. All shapes are centered at
// the origin; the engine side hides any mesh-origin quirks behind this
// contract so builders never see them.
type Shaper interface {
	Box(width, height, depth float32) scenegraph.Geometry
	Cylinder(radius, height float32, slices int) scenegraph.Geometry
}

// BuildContext carries the services a builder needs to realize parts.
type BuildContext struct {
	Shapes Shaper
}

// BuildFunc realizes a prototype into a detached, untagged scene node from a
// full parameter map (defaults merged with instance values). The caller tags
// and attaches the node.
type BuildFunc func(ctx BuildContext, params map[string]any) (*scenegraph.Node, error)

// Member is one submodel of a composite prototype, placed relative to the
// parent. Params overlay the member prototype's defaults.
type Member struct {
	PrototypeID string
	Name        string
	Offset      [3]float32
	Params      map[string]any
}

// Definition is one registered prototype. Composite prototypes leave Build nil
// and instead name a ParentPrototype that forms the parent instance, plus the
// Members added as its submodels.
type Definition struct {
	ID          string
	Name        string
	Category    string
	Description string
	Params      []ParamField
	Build       BuildFunc

	ParentPrototype string
	ParentParams    map[string]any
	Members         []Member
}

// IsComposite reports whether the definition expands into a parent plus
// submodels rather than a single model.
func (d Definition) IsComposite() bool { return d.ParentPrototype != "" }

// Field returns the schema field with the given id.
func (d Definition) Field(id string) (ParamField, bool) {
	for _, f := range d.Params {
		if f.ID == id {
			return f, true
		}
	}
	return ParamField{}, false
}

// DefaultParams returns a fresh map of every field's default value.
func (d Definition) DefaultParams() map[string]any {
	out := make(map[string]any, len(d.Params))
	for _, f := range d.Params {
		out[f.ID] = f.Default
	}
	return out
}

// Registry maps prototype ids to definitions, keeping registration order for
// palette panels.
type Registry struct {
	defs  map[string]Definition
	order []string
	log   *zap.Logger
}

//go:embed catalog.yaml
var displayCatalog []byte

// NewRegistry returns a registry with the built-in furniture prototypes
// registered and display metadata from the embedded catalog applied.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		defs: make(map[string]Definition),
		log:  log,
	}
	registerBuiltins(r)
	if err := r.applyCatalog(displayCatalog); err != nil {
		// The embedded catalog is authored alongside the builtins; a mismatch is
		// a packaging bug, not a runtime condition worth dying for.
		log.Warn("prototype display catalog", zap.Error(err))
	}
	return r
}

// Register adds a definition. Ids must be unique and non-empty; composite
// definitions must not nest other composites.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("register prototype: empty id")
	}
	if _, dup := r.defs[def.ID]; dup {
		return fmt.Errorf("register prototype %q: duplicate id", def.ID)
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// Get returns the definition for an id.
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// IDs returns prototype ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Defs returns all definitions in registration order.
func (r *Registry) Defs() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

// catalogFile is the embedded display-metadata overlay: names, categories and
// descriptions live in data so copy edits never touch builder code.
type catalogFile struct {
	Prototypes []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
	} `yaml:"prototypes"`
}

func (r *Registry) applyCatalog(data []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse prototype catalog: %w", err)
	}
	for _, e := range f.Prototypes {
		def, ok := r.defs[e.ID]
		if !ok {
			r.log.Warn("prototype catalog names unknown id", zap.String("id", e.ID))
			continue
		}
		if e.Name != "" {
			def.Name = e.Name
		}
		if e.Category != "" {
			def.Category = e.Category
		}
		if e.Description != "" {
			def.Description = e.Description
		}
		r.defs[e.ID] = def
	}
	return nil
}
