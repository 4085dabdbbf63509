package console

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"roomstudio/internal/config"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/store"
)

// Deps are the services the built-in commands operate on. Prefs is mutated in
// place and saved after toggles so settings survive a restart.
type Deps struct {
	Store     *store.Store
	Protos    *prototype.Registry
	Materials *material.Registry
	Prefs     *config.Prefs
	Log       *zap.Logger
}

// RegisterStudio installs the studio command set into reg. Structure edits
// (add, remove, param, material) are admin commands; arranging and inspection
// work in both modes.
func RegisterStudio(reg *Registry, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	helpFS := newFlagSet("help")
	reg.Register("help", "list commands", false, helpFS, func() error {
		for _, c := range reg.Commands() {
			marker := " "
			if c.Admin {
				marker = "*"
			}
			d.Log.Info(fmt.Sprintf("%s %-9s %s", marker, c.Name, c.Help))
		}
		d.Log.Info("  * = admin mode only")
		return nil
	})

	addFS := newFlagSet("add")
	addName := addFS.String("n", "", "display name")
	addX := addFS.Float64("x", 0, "spawn x")
	addY := addFS.Float64("y", 0, "spawn y")
	addZ := addFS.Float64("z", 0, "spawn z")
	reg.Register("add", "[-n name] [-x -y -z] <prototype>: place a model", true, addFS, func() error {
		if addFS.NArg() != 1 {
			return errors.New("usage: add [-n name] [-x -y -z] <prototype>")
		}
		opts := store.AddOptions{
			Name:     *addName,
			Position: &[3]float32{float32(*addX), float32(*addY), float32(*addZ)},
		}
		id, err := d.Store.AddModel(addFS.Arg(0), opts)
		if err != nil {
			return err
		}
		d.Log.Info("added " + shortID(id))
		return nil
	})

	setFS := newFlagSet("add-set")
	setName := setFS.String("n", "", "display name")
	reg.Register("add-set", "[-n name] <set>: place a furniture set", true, setFS, func() error {
		if setFS.NArg() != 1 {
			return errors.New("usage: add-set [-n name] <set>")
		}
		id, err := d.Store.AddComposite(setFS.Arg(0), store.AddOptions{Name: *setName})
		if err != nil {
			return err
		}
		d.Log.Info("added set " + shortID(id))
		return nil
	})

	removeFS := newFlagSet("remove")
	reg.Register("remove", "[id]: remove a model (default: selected)", true, removeFS, func() error {
		id, err := d.resolve(removeFS.Arg(0))
		if err != nil {
			return err
		}
		return d.Store.Remove(id)
	})

	selectFS := newFlagSet("select")
	reg.Register("select", "<id|none>: change the selection", false, selectFS, func() error {
		if selectFS.NArg() != 1 {
			return errors.New("usage: select <id|none>")
		}
		if selectFS.Arg(0) == "none" {
			d.Store.ClearSelection()
			return nil
		}
		id, err := d.resolve(selectFS.Arg(0))
		if err != nil {
			return err
		}
		return d.Store.Select(id)
	})

	faceFS := newFlagSet("face")
	reg.Register("face", "<slot|none>: select a surface of the selected model", false, faceFS, func() error {
		if faceFS.NArg() != 1 {
			return errors.New("usage: face <slot|none>")
		}
		if faceFS.Arg(0) == "none" {
			return d.Store.SelectFace(-1)
		}
		slot, err := strconv.Atoi(faceFS.Arg(0))
		if err != nil {
			return fmt.Errorf("face: %q is not a slot number", faceFS.Arg(0))
		}
		return d.Store.SelectFace(slot)
	})

	paramFS := newFlagSet("param")
	reg.Register("param", "<key> <value> ...: edit parameters of the selected model", true, paramFS, func() error {
		args := paramFS.Args()
		if len(args) == 0 || len(args)%2 != 0 {
			return errors.New("usage: param <key> <value> [key value ...]")
		}
		id, err := d.resolve("")
		if err != nil {
			return err
		}
		patch := make(map[string]any, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			patch[args[i]] = parseValue(args[i+1])
		}
		return d.Store.UpdateParams(id, patch)
	})

	matFS := newFlagSet("material")
	reg.Register("material", "<slot> <id|->: override a surface material", true, matFS, func() error {
		if matFS.NArg() != 2 {
			return errors.New("usage: material <slot> <id|->")
		}
		slot, err := strconv.Atoi(matFS.Arg(0))
		if err != nil {
			return fmt.Errorf("material: %q is not a slot number", matFS.Arg(0))
		}
		id, err := d.resolve("")
		if err != nil {
			return err
		}
		want := matFS.Arg(1)
		if want == "-" {
			want = ""
		} else if _, ok := d.Materials.Get(want); !ok {
			return fmt.Errorf("material: %w %q", material.ErrUnknownMaterial, want)
		}
		return d.Store.SetFaceMaterial(id, slot, want)
	})

	visibleFS := newFlagSet("visible")
	reg.Register("visible", "<on|off> [id]: show or hide a model", false, visibleFS, func() error {
		if visibleFS.NArg() < 1 {
			return errors.New("usage: visible <on|off> [id]")
		}
		on, err := parseSwitch(visibleFS.Arg(0))
		if err != nil {
			return err
		}
		id, err := d.resolve(visibleFS.Arg(1))
		if err != nil {
			return err
		}
		return d.Store.SetVisible(id, on)
	})

	modeFS := newFlagSet("mode")
	reg.Register("mode", "<admin|user>: switch the editing surface", false, modeFS, func() error {
		if modeFS.NArg() != 1 {
			return errors.New("usage: mode <admin|user>")
		}
		m, err := store.ParseMode(modeFS.Arg(0))
		if err != nil {
			return err
		}
		d.Store.SetMode(m)
		d.Prefs.Mode = m.String()
		d.savePrefs()
		return nil
	})

	gridFS := newFlagSet("grid")
	reg.Register("grid", "<on|off>: toggle the floor grid", false, gridFS, d.prefToggle(gridFS, func(p *config.Prefs, on bool) {
		p.GridVisible = on
	}))
	fpsFS := newFlagSet("fps")
	reg.Register("fps", "<on|off>: toggle the FPS readout", false, fpsFS, d.prefToggle(fpsFS, func(p *config.Prefs, on bool) {
		p.ShowFPS = on
	}))
	statsFS := newFlagSet("stats")
	reg.Register("stats", "<on|off>: toggle the scene stats overlay", false, statsFS, d.prefToggle(statsFS, func(p *config.Prefs, on bool) {
		p.ShowStats = on
	}))

	listFS := newFlagSet("list")
	reg.Register("list", "[models|protos|materials]: print a catalog", false, listFS, func() error {
		what := listFS.Arg(0)
		if what == "" {
			what = "models"
		}
		switch what {
		case "models":
			models := d.Store.Models()
			if len(models) == 0 {
				d.Log.Info("no models")
				return nil
			}
			for _, m := range models {
				marker := " "
				if m.ID == d.Store.SelectedID() {
					marker = "*"
				}
				line := fmt.Sprintf("%s %s  %-24q %s", marker, shortID(m.ID), m.Name, m.PrototypeID)
				if !m.Visible {
					line += "  (hidden)"
				}
				d.Log.Info(line)
			}
		case "protos":
			for _, def := range d.Protos.Defs() {
				kind := "model"
				if def.IsComposite() {
					kind = "set"
				}
				d.Log.Info(fmt.Sprintf("%-16s %-5s %s", def.ID, kind, def.Name))
			}
		case "materials":
			for _, id := range d.Materials.IDs() {
				def, _ := d.Materials.Get(id)
				d.Log.Info(fmt.Sprintf("%-16s %-8s %s", def.ID, def.Category, def.Color))
			}
		default:
			return fmt.Errorf("list: unknown catalog %q", what)
		}
		return nil
	})
}

// prefToggle builds an on/off command body that flips one preference and
// persists it. fs must be the FlagSet the command was registered with.
func (d Deps) prefToggle(fs *flag.FlagSet, apply func(*config.Prefs, bool)) func() error {
	return func() error {
		on, err := parseSwitch(fs.Arg(0))
		if err != nil {
			return err
		}
		apply(d.Prefs, on)
		d.savePrefs()
		return nil
	}
}

// resolve maps a console token to a model id. An empty token means the current
// selection; otherwise exact ids win, then a unique id prefix.
func (d Deps) resolve(token string) (string, error) {
	if token == "" {
		if id := d.Store.SelectedID(); id != "" {
			return id, nil
		}
		return "", errors.New("nothing selected")
	}
	var match string
	for _, m := range d.Store.Models() {
		if m.ID == token {
			return m.ID, nil
		}
		if strings.HasPrefix(m.ID, token) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", token)
			}
			match = m.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no model %q", token)
	}
	return match, nil
}

func (d Deps) savePrefs() {
	if err := config.Save(*d.Prefs); err != nil {
		d.Log.Warn("preferences not saved", zap.Error(err))
	}
}

// parseValue coerces a console token into a parameter value. Numbers are tried
// before booleans so "1" stays numeric; everything else passes through as a
// string for select and color fields.
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// parseSwitch reads the console spelling of a boolean toggle.
func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q: want on or off", s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
