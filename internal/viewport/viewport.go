package viewport

import (
	"os"
	"path/filepath"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"roomstudio/internal/config"
	"roomstudio/internal/console"
	"roomstudio/internal/debug"
	"roomstudio/internal/fonts"
	"roomstudio/internal/gizmo"
	"roomstudio/internal/hud"
	"roomstudio/internal/interact"
	"roomstudio/internal/material"
	"roomstudio/internal/reconcile"
	"roomstudio/internal/room"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

// backgroundColor is the void behind the room shell.
var backgroundColor = rl.NewColor(28, 30, 34, 255)

// Config sizes the window. Zero fields take the defaults.
type Config struct {
	Title     string
	Width     int32
	Height    int32
	TargetFPS int32
	FontPath  string
}

// Deps collects the pieces the frame loop drives. Everything is constructed
// window-free by the caller; GPU-touching setup (room meshes, highlight
// material, fonts) runs inside Run once the GL context exists.
type Deps struct {
	Store     *store.Store
	Materials *material.Registry
	Graph     *scenegraph.Graph
	Recon     *reconcile.Reconciler
	Gizmo     *gizmo.Gizmo
	Control   *interact.Controller
	Console   *console.Console
	HUD       *hud.HUD
	Debug     *debug.Overlay
	Panels    *Panels
	Factory   *Materials
	Shapes    *Shapes
	Prefs     *config.Prefs
	SavePrefs func()
	Room      room.Options
	Log       *zap.Logger
}

// Run opens the window and drives the frame loop until the window closes.
// ESC toggles the console rather than quitting; close via the window button.
func Run(cfg Config, d Deps) {
	if cfg.Title == "" {
		cfg.Title = "Room Studio"
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1600, 900
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.SavePrefs == nil {
		d.SavePrefs = func() {}
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(cfg.Width, cfg.Height, cfg.Title)
	defer rl.CloseWindow()

	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(cfg.TargetFPS)

	v := newView(cfg, d)
	for !rl.WindowShouldClose() {
		v.update()

		rl.BeginDrawing()
		rl.ClearBackground(backgroundColor)
		v.draw()
		rl.EndDrawing()
	}

	d.Prefs.WindowWidth = int32(rl.GetScreenWidth())
	d.Prefs.WindowHeight = int32(rl.GetScreenHeight())
	d.SavePrefs()
}

// uiFontPath resolves the UI font: the configured file if it exists, else any
// installed font next to it. Empty means stick with raylib's built-in font.
func uiFontPath(configured string) string {
	if configured == "" {
		return ""
	}
	if _, err := os.Stat(configured); err == nil {
		return configured
	}
	if found, ok := fonts.Find(filepath.Dir(configured)); ok {
		return found
	}
	return ""
}

// view is the per-window state: the camera, the realized room shell, and the
// grid dimensions derived from it.
type view struct {
	d   Deps
	cam *OrbitCamera

	gridSlices  int32
	gridSpacing float32
}

// newView does the GPU-dependent setup: raygui style, optional UI font, the
// selection highlight, and the room shell meshes.
func newView(cfg Config, d Deps) *view {
	ApplyStyle()
	if path := uiFontPath(cfg.FontPath); path != "" {
		font := rl.LoadFontEx(path, 20, nil)
		gui.SetFont(font)
		d.Console.SetFont(font)
		d.HUD.SetFont(font)
		d.Debug.SetFont(font)
	}

	d.Graph.SetHighlight(d.Factory.Highlight())

	shell := room.Build(d.Shapes, d.Room)
	d.Graph.Attach(d.Graph.Root(), shell)
	if err := room.Realize(shell, d.Materials); err != nil {
		d.Log.Warn("room shell materials", zap.Error(err))
	}

	v := &view{d: d, cam: NewOrbitCamera()}
	v.gridSlices, v.gridSpacing = room.GridSpec(d.Room)
	return v
}

func (v *view) update() {
	v.d.Console.Update()
	consoleOpen := v.d.Console.IsOpen()

	mouse := rl.GetMousePosition()
	overUI := consoleOpen || v.d.Panels.Over(mouse)
	v.cam.HandleInput(overUI)

	if !consoleOpen {
		v.pointer(mouse, v.d.Panels.Over(mouse))
		v.shortcuts()
	}

	v.d.Materials.PollReload()
	v.d.Recon.Sync()
	v.d.HUD.Update(time.Now())

	v.d.Debug.SetShowFPS(v.d.Prefs.ShowFPS)
	v.d.Debug.SetShowStats(v.d.Prefs.ShowStats)
}

// pointer routes primary-button input: panels keep their own clicks, a live
// gizmo drag keeps tracking even across panels, everything else goes through
// the interaction controller as world-space rays.
func (v *view) pointer(mouse rl.Vector2, overPanel bool) {
	dragging := v.d.Gizmo.Dragging()
	if !overPanel || dragging {
		ray := v.cam.PointerRay(mouse)
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !dragging {
			v.d.Control.PointerDown(ray)
		} else {
			v.d.Control.PointerMove(ray)
		}
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		v.d.Control.PointerUp()
	}
}

func (v *view) shortcuts() {
	giz := v.d.Gizmo
	switch {
	case rl.IsKeyPressed(rl.KeyW):
		giz.SetMode(gizmo.ModeTranslate)
	case rl.IsKeyPressed(rl.KeyE):
		giz.SetMode(gizmo.ModeRotate)
	case rl.IsKeyPressed(rl.KeyR):
		giz.SetMode(gizmo.ModeScale)
	}
	if rl.IsKeyPressed(rl.KeyL) {
		if giz.Space() == gizmo.SpaceLocal {
			giz.SetSpace(gizmo.SpaceWorld)
		} else {
			giz.SetSpace(gizmo.SpaceLocal)
		}
	}
	for key, axis := range map[int32]gizmo.Axis{
		rl.KeyX: gizmo.AxisX,
		rl.KeyY: gizmo.AxisY,
		rl.KeyZ: gizmo.AxisZ,
	} {
		if rl.IsKeyPressed(key) {
			if giz.Lock() == axis {
				giz.SetLock(gizmo.AxisNone)
			} else {
				giz.SetLock(axis)
			}
		}
	}

	if rl.IsKeyPressed(rl.KeyDelete) && v.d.Store.Mode() == store.ModeAdmin {
		if id := v.d.Store.SelectedID(); id != "" {
			if err := v.d.Store.Remove(id); err != nil {
				v.d.Log.Warn("delete shortcut", zap.Error(err))
			}
		}
	}
}

func (v *view) draw() {
	pos := v.cam.Position()
	v.d.Factory.SetView([3]float32{pos[0], pos[1], pos[2]}, [3]float32{0.45, 1, 0.3})

	rl.BeginMode3D(v.cam.Camera())
	drawScene(v.d.Graph, v.d.Factory)
	if v.d.Prefs.GridVisible {
		drawGrid(v.gridSlices, v.gridSpacing)
	}
	drawGizmo(v.d.Gizmo)
	rl.EndMode3D()

	v.d.Panels.Draw(v.d.Console.IsOpen())
	v.d.HUD.Draw()
	v.d.Debug.Draw()
	v.d.Console.Draw()
}
