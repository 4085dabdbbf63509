package material

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"roomstudio/internal/scenegraph"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// catalogFile is the on-disk shape of a swatch catalog.
type catalogFile struct {
	Materials []Definition `yaml:"materials"`
}

// Registry holds the swatch catalog and realizes materials through the
// injected factory. Revision moves on every successful (re)load so the
// reconciler knows to reapply surface overrides. Catalog swaps are atomic: a
// file that fails to parse or validate leaves the current catalog in place.
type Registry struct {
	factory Factory
	log     *zap.Logger

	defs  map[string]Definition
	order []string
	rev   uint64

	watcher   *fsnotify.Watcher
	watchPath string
	events    chan string
}

// NewRegistry loads the embedded catalog. factory realizes definitions into
// engine handles; a nil log is replaced with a no-op logger.
func NewRegistry(factory Factory, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		factory: factory,
		log:     log,
		events:  make(chan string, 8),
	}
	if err := r.LoadBytes(builtinCatalog); err != nil {
		return nil, fmt.Errorf("builtin material catalog: %w", err)
	}
	return r, nil
}

// LoadBytes parses and validates a catalog and swaps it in, bumping the
// revision. On any error the previous catalog stays active.
func (r *Registry) LoadBytes(data []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Materials) == 0 {
		return fmt.Errorf("catalog has no materials")
	}
	defs := make(map[string]Definition, len(f.Materials))
	order := make([]string, 0, len(f.Materials))
	for i, def := range f.Materials {
		if def.ID == "" {
			return fmt.Errorf("material %d: missing id", i)
		}
		if _, dup := defs[def.ID]; dup {
			return fmt.Errorf("material %q: duplicate id", def.ID)
		}
		if _, err := ParseHexColor(def.Color); err != nil {
			return fmt.Errorf("material %q: %w", def.ID, err)
		}
		if def.Name == "" {
			def.Name = def.ID
		}
		defs[def.ID] = def
		order = append(order, def.ID)
	}
	if _, ok := defs[FallbackID]; !ok {
		return fmt.Errorf("catalog is missing the %q fallback", FallbackID)
	}
	r.defs = defs
	r.order = order
	r.rev++
	r.log.Info("material catalog loaded",
		zap.Int("materials", len(order)),
		zap.Uint64("revision", r.rev))
	return nil
}

// LoadFile reads and swaps in an external catalog file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog %q: %w", path, err)
	}
	if err := r.LoadBytes(data); err != nil {
		return fmt.Errorf("catalog %q: %w", path, err)
	}
	return nil
}

// Revision returns the catalog generation, starting at 1 for the embedded load.
func (r *Registry) Revision() uint64 { return r.rev }

// IDs returns catalog ids in file order, for palette panels and dropdowns.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the definition for an id.
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Resolve returns the definition for an id, or the fallback swatch when the id
// left the catalog. The second result reports an exact match.
func (r *Registry) Resolve(id string) (Definition, bool) {
	if def, ok := r.defs[id]; ok {
		return def, true
	}
	return r.defs[FallbackID], false
}

// Realize creates an engine material for a definition through the factory.
func (r *Registry) Realize(def Definition) (scenegraph.Material, error) {
	m, err := r.factory.Create(def)
	if err != nil {
		return nil, fmt.Errorf("realize material %q: %w", def.ID, err)
	}
	return m, nil
}

// Watch starts watching the directory of path for catalog edits. Events are
// funneled into a small channel drained by PollReload on the main thread, so
// reloads never race the frame. Editors that replace files via rename are
// covered because the whole directory is watched.
func (r *Registry) Watch(path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("material watcher: %w", err)
	}
	r.watcher = w
	r.watchPath = path
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					select {
					case r.events <- ev.Name:
					default:
						// A reload is already pending; one is enough.
					}
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn("material watcher", zap.Error(werr))
			}
		}
	}()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(path), err)
	}
	r.log.Info("watching material catalog", zap.String("path", path))
	return nil
}

// PollReload drains pending watcher events and reloads the watched file when
// one of them touched it. Returns true when the catalog revision moved. Call
// once per frame from the main loop.
func (r *Registry) PollReload() bool {
	if r.watcher == nil {
		return false
	}
	touched := false
	for {
		select {
		case p := <-r.events:
			if filepath.Base(p) == filepath.Base(r.watchPath) {
				touched = true
			}
		default:
			if !touched {
				return false
			}
			if err := r.LoadFile(r.watchPath); err != nil {
				r.log.Warn("material catalog reload failed; keeping previous", zap.Error(err))
				return false
			}
			return true
		}
	}
}

// Close stops the watcher if one is running.
func (r *Registry) Close() error {
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	r.watcher = nil
	return err
}
