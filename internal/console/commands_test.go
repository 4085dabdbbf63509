package console_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"roomstudio/internal/config"
	"roomstudio/internal/console"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/store"
)

type world struct {
	store *store.Store
	prefs *config.Prefs
	reg   *console.Registry
	logs  *observer.ObservedLogs
}

func newWorld(t *testing.T) *world {
	t.Helper()
	protos := prototype.NewRegistry(nil)
	mats, err := material.NewRegistry(nil, nil)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	prefs := config.Default()
	s := store.New(protos, nil)
	reg := console.NewRegistry(s.Mode)
	console.RegisterStudio(reg, console.Deps{
		Store:     s,
		Protos:    protos,
		Materials: mats,
		Prefs:     &prefs,
		Log:       zap.New(core),
	})
	return &world{store: s, prefs: &prefs, reg: reg, logs: logs}
}

func (w *world) run(t *testing.T, line string) error {
	t.Helper()
	return w.reg.Execute(console.SplitArgs(line))
}

func (w *world) mustRun(t *testing.T, line string) {
	t.Helper()
	require.NoError(t, w.run(t, line), line)
}

func TestSplitArgs(t *testing.T) {
	cases := map[string][]string{
		"add desk-basic":                  {"add", "desk-basic"},
		`add -n "Corner Desk" desk-basic`: {"add", "-n", "Corner Desk", "desk-basic"},
		"  select   none  ":               {"select", "none"},
		`say "half open`:                  {"say", "half open"},
		`""`:                              nil,
		"":                                nil,
	}
	for line, want := range cases {
		assert.Equal(t, want, console.SplitArgs(line), "line %q", line)
	}
}

func TestExecuteRejectsUnknownAndEmpty(t *testing.T) {
	w := newWorld(t)
	err := w.run(t, "teleport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Error(t, w.reg.Execute(nil))
}

func TestAdminGatingFollowsStoreMode(t *testing.T) {
	w := newWorld(t)
	w.store.SetMode(store.ModeUser)

	err := w.run(t, "add desk-basic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin mode required")
	assert.Empty(t, w.store.Models())

	// Arranging commands stay available to users.
	w.mustRun(t, "select none")

	w.store.SetMode(store.ModeAdmin)
	w.mustRun(t, "add desk-basic")
	assert.Len(t, w.store.Models(), 1)
}

func TestAddNamesAndPlacesModel(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, `add -n "Corner Desk" -x 1.5 -z -2 desk-basic`)

	models := w.store.Models()
	require.Len(t, models, 1)
	assert.Equal(t, "Corner Desk", models[0].Name)
	assert.Equal(t, [3]float32{1.5, 0, -2}, models[0].Position)
	assert.Equal(t, models[0].ID, w.store.SelectedID())

	// Flags must not leak into the next invocation.
	w.mustRun(t, "add desk-basic")
	models = w.store.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "Desk 1", models[1].Name)
	assert.Equal(t, [3]float32{0, 0, 0}, models[1].Position)

	err := w.run(t, "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestAddSetExpandsComposites(t *testing.T) {
	w := newWorld(t)
	err := w.run(t, "add-set desk-basic")
	require.Error(t, err)

	w.mustRun(t, "add-set office-set")
	models := w.store.Models()
	require.Len(t, models, 3)
	assert.True(t, models[0].IsComposite)
	assert.Equal(t, models[0].ID, models[1].ParentID)
}

func TestSelectByPrefix(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add desk-basic")
	w.mustRun(t, "add cabinet")
	first := w.store.Models()[0].ID

	w.mustRun(t, "select "+first[:8])
	assert.Equal(t, first, w.store.SelectedID())

	w.mustRun(t, "select none")
	assert.Empty(t, w.store.SelectedID())

	err := w.run(t, "select zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model")
}

func TestRemoveDefaultsToSelection(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add desk-basic")
	w.mustRun(t, "remove")
	assert.Empty(t, w.store.Models())

	err := w.run(t, "remove")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing selected")
}

func TestFaceCommand(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add cabinet")

	w.mustRun(t, "face 2")
	assert.Equal(t, 2, w.store.SelectedFace())

	w.mustRun(t, "face none")
	assert.Equal(t, -1, w.store.SelectedFace())

	err := w.run(t, "face lid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a slot number")
}

func TestParamEditsSelectedModel(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add desk-basic")
	w.mustRun(t, "param legStyle panel width 1.8 modestyPanel true")

	m, ok := w.store.Model(w.store.SelectedID())
	require.True(t, ok)
	assert.Equal(t, "panel", m.Params["legStyle"])
	assert.Equal(t, float64(1.8), m.Params["width"])
	assert.Equal(t, true, m.Params["modestyPanel"])

	err := w.run(t, "param width")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestMaterialOverrideAndClear(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add cabinet")
	id := w.store.SelectedID()

	w.mustRun(t, "material 1 wood-oak")
	m, _ := w.store.Model(id)
	assert.Equal(t, "wood-oak", m.FaceMaterials[1])

	w.mustRun(t, "material 1 -")
	m, _ = w.store.Model(id)
	assert.NotContains(t, m.FaceMaterials, 1)

	err := w.run(t, "material 1 velvet-crimson")
	require.Error(t, err)
	assert.ErrorIs(t, err, material.ErrUnknownMaterial)
}

func TestVisibleToggle(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, "add desk-basic")
	id := w.store.SelectedID()

	w.mustRun(t, "visible off")
	m, _ := w.store.Model(id)
	assert.False(t, m.Visible)

	w.mustRun(t, "visible on "+id[:8])
	m, _ = w.store.Model(id)
	assert.True(t, m.Visible)

	err := w.run(t, "visible sideways")
	require.Error(t, err)
}

func TestModeAndTogglesPersistPrefs(t *testing.T) {
	t.Chdir(t.TempDir())
	w := newWorld(t)

	w.mustRun(t, "mode user")
	assert.Equal(t, store.ModeUser, w.store.Mode())
	assert.Equal(t, "user", w.prefs.Mode)

	w.mustRun(t, "grid off")
	assert.False(t, w.prefs.GridVisible)
	w.mustRun(t, "fps on")
	assert.True(t, w.prefs.ShowFPS)
	w.mustRun(t, "stats on")
	assert.True(t, w.prefs.ShowStats)

	_, err := os.Stat(filepath.Join("config", "studio.json"))
	require.NoError(t, err, "toggles write the prefs file")
	saved, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "user", saved.Mode)
	assert.False(t, saved.GridVisible)

	assert.Error(t, w.run(t, "mode"))
}

func TestListAndHelpReport(t *testing.T) {
	w := newWorld(t)
	w.mustRun(t, `add -n "Reading Shelf" bookshelf`)

	w.logs.TakeAll()
	w.mustRun(t, "list")
	lines := w.logs.TakeAll()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0].Message, "Reading Shelf")
	assert.Contains(t, lines[0].Message, "bookshelf")

	w.mustRun(t, "list protos")
	found := false
	for _, e := range w.logs.TakeAll() {
		if strings.Contains(e.Message, "office-set") && strings.Contains(e.Message, "set") {
			found = true
		}
	}
	assert.True(t, found, "prototype listing names the office set")

	w.mustRun(t, "list materials")
	assert.NotEmpty(t, w.logs.TakeAll())

	err := w.run(t, "list furniture")
	require.Error(t, err)

	w.mustRun(t, "help")
	help := w.logs.TakeAll()
	assert.GreaterOrEqual(t, len(help), 13)
}
