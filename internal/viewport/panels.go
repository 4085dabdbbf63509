package viewport

import (
	"fmt"
	"math"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"roomstudio/internal/config"
	"roomstudio/internal/gizmo"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

// Panel layout. The status bar above and the console bar below are drawn by
// other packages; the margins here keep the panels clear of both.
const (
	statusBarHeight = 30
	toolbarHeight   = 36
	sidePanelWidth  = 230
	inspectorWidth  = 300
	bottomReserve   = 44
	rowHeight       = 24
	panelPad        = 8
)

var (
	panelBg   = rl.NewColor(25, 25, 30, 230)
	panelLine = rl.NewColor(60, 60, 60, 255)
	rowHover  = rl.NewColor(50, 50, 50, 150)
	rowSel    = rl.NewColor(80, 80, 20, 180)
)

// PanelDeps wires the panels to everything they read and edit.
type PanelDeps struct {
	Store     *store.Store
	Protos    *prototype.Registry
	Materials *material.Registry
	Graph     *scenegraph.Graph
	Gizmo     *gizmo.Gizmo
	Prefs     *config.Prefs
	SavePrefs func()
	Log       *zap.Logger
}

// Panels draws the studio side panels: toolbar, model library, scene list, and
// the inspector for the selection. Widgets write straight into the store;
// whatever they change reconciles into the scene graph on the next frame's
// sync. Panel rectangles are recorded each frame and queried through Over on
// the following one, so 3D picking skips clicks that land on UI.
type Panels struct {
	deps PanelDeps

	libraryScroll int32
	sceneScroll   int32
	inspScroll    int32

	rects     []rl.Rectangle
	prevRects []rl.Rectangle
}

// NewPanels returns the panel layer. SavePrefs may be nil when preference
// persistence is not wanted.
func NewPanels(deps PanelDeps) *Panels {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.SavePrefs == nil {
		deps.SavePrefs = func() {}
	}
	return &Panels{deps: deps}
}

// ApplyStyle installs the dark raygui theme. Call once after the window
// exists.
func ApplyStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(rl.NewColor(30, 30, 35, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(45, 45, 50, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.NewColor(60, 60, 70, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(rl.NewColor(70, 80, 90, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(200, 200, 200, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.White))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(rl.Yellow))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(80, 80, 90, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.NewColor(100, 100, 120, 255)))
	gui.SetStyle(gui.DEFAULT, gui.LINE_COLOR, gui.NewColorPropertyValue(rl.NewColor(60, 60, 60, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 16)
}

// Over reports whether the position lies on any panel drawn last frame.
func (p *Panels) Over(pos rl.Vector2) bool {
	for _, r := range p.prevRects {
		if rl.CheckCollisionPointRec(pos, r) {
			return true
		}
	}
	return false
}

// Draw renders every panel for this frame. locked suppresses widget input
// (console open) while still drawing, so the layout never flickers.
func (p *Panels) Draw(locked bool) {
	if locked {
		gui.Lock()
		defer gui.Unlock()
	}
	p.prevRects = append(p.prevRects[:0], p.rects...)
	p.rects = p.rects[:0]

	sw := int32(rl.GetScreenWidth())
	sh := int32(rl.GetScreenHeight())
	admin := p.deps.Store.Mode() == store.ModeAdmin

	p.drawToolbar(sw, admin)

	top := int32(statusBarHeight + toolbarHeight)
	usable := sh - top - bottomReserve
	if usable < 4*rowHeight {
		return
	}
	if admin {
		libH := usable * 2 / 5
		p.drawLibrary(0, top, sidePanelWidth, libH)
		p.drawSceneList(0, top+libH, sidePanelWidth, usable-libH)
	} else {
		p.drawSceneList(0, top, sidePanelWidth, usable)
	}
	if sel, ok := p.deps.Store.Selected(); ok {
		p.drawInspector(sel, sw-inspectorWidth, top, inspectorWidth, usable, admin)
	}
}

// track records a panel rectangle for next frame's pointer masking and fills
// its background.
func (p *Panels) track(x, y, w, h int32) rl.Rectangle {
	r := rl.NewRectangle(float32(x), float32(y), float32(w), float32(h))
	p.rects = append(p.rects, r)
	rl.DrawRectangle(x, y, w, h, panelBg)
	return r
}

func (p *Panels) drawToolbar(sw int32, admin bool) {
	y := int32(statusBarHeight)
	p.track(0, y, sw, toolbarHeight)
	rl.DrawLine(0, y+toolbarHeight, sw, y+toolbarHeight, panelLine)

	giz := p.deps.Gizmo
	mode := int32(giz.Mode())
	next := gui.ToggleGroup(rl.NewRectangle(float32(panelPad), float32(y+6), 72, 24), "move;rotate;scale", mode)
	if next != mode {
		giz.SetMode(gizmo.Mode(next))
	}

	x := float32(panelPad + 3*74 + 16)
	local := giz.Space() == gizmo.SpaceLocal
	if got := gui.CheckBox(rl.NewRectangle(x, float32(y+10), 16, 16), "local axes", local); got != local {
		if got {
			giz.SetSpace(gizmo.SpaceLocal)
		} else {
			giz.SetSpace(gizmo.SpaceWorld)
		}
	}
	x += 110

	prefs := p.deps.Prefs
	if got := gui.CheckBox(rl.NewRectangle(x, float32(y+10), 16, 16), "grid", prefs.GridVisible); got != prefs.GridVisible {
		prefs.GridVisible = got
		p.deps.SavePrefs()
	}
	x += 70
	if got := gui.CheckBox(rl.NewRectangle(x, float32(y+10), 16, 16), "fps", prefs.ShowFPS); got != prefs.ShowFPS {
		prefs.ShowFPS = got
		p.deps.SavePrefs()
	}
	x += 66
	if got := gui.CheckBox(rl.NewRectangle(x, float32(y+10), 16, 16), "stats", prefs.ShowStats); got != prefs.ShowStats {
		prefs.ShowStats = got
		p.deps.SavePrefs()
	}

	label := "view: admin"
	target := store.ModeUser
	if !admin {
		label = "view: user"
		target = store.ModeAdmin
	}
	if gui.Button(rl.NewRectangle(float32(sw-118), float32(y+6), 110, 24), label) {
		p.deps.Store.SetMode(target)
		prefs.Mode = target.String()
		p.deps.SavePrefs()
	}
}

// drawLibrary lists the prototype palette. Clicking a row adds an instance at
// the room center and selects it.
func (p *Panels) drawLibrary(x, y, w, h int32) {
	p.track(x, y, w, h)
	rl.DrawLine(x+w, y, x+w, y+h, panelLine)
	rl.DrawText("Library", x+panelPad, y+6, 16, rl.Gray)

	defs := p.deps.Protos.Defs()
	listTop := y + 26
	p.libraryScroll = scrollList(p.libraryScroll, int32(len(defs)), h-26, rl.NewRectangle(float32(x), float32(y), float32(w), float32(h)))

	mouse := rl.GetMousePosition()
	rl.BeginScissorMode(x, listTop, w, h-26)
	for i, def := range defs {
		rowY := listTop + int32(i)*rowHeight - p.libraryScroll
		if rowY+rowHeight < listTop || rowY > y+h {
			continue
		}
		hovered := pointIn(mouse, x, rowY, w, rowHeight) && mouse.Y >= float32(listTop)
		if hovered {
			rl.DrawRectangle(x, rowY, w, rowHeight, rowHover)
		}
		rl.DrawText(def.Name, x+panelPad+4, rowY+5, 14, rl.LightGray)
		tag := def.Category
		if def.IsComposite() {
			tag = "set"
		}
		if tag != "" {
			tw := rl.MeasureText(tag, 11)
			rl.DrawText(tag, x+w-tw-panelPad, rowY+7, 11, rl.Gray)
		}
		if hovered && rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !gui.IsLocked() {
			if _, err := p.deps.Store.AddModel(def.ID, store.AddOptions{}); err != nil {
				p.deps.Log.Warn("library add failed", zap.String("prototype", def.ID), zap.Error(err))
			}
		}
	}
	rl.EndScissorMode()
}

// drawSceneList lists placed instances in scene order with a visibility
// toggle per row. Submodels indent under their set parent.
func (p *Panels) drawSceneList(x, y, w, h int32) {
	p.track(x, y, w, h)
	rl.DrawLine(x+w, y, x+w, y+h, panelLine)
	rl.DrawLine(x, y, x+w, y, panelLine)
	rl.DrawText("Scene", x+panelPad, y+6, 16, rl.Gray)

	models := p.deps.Store.Models()
	listTop := y + 26
	p.sceneScroll = scrollList(p.sceneScroll, int32(len(models)), h-26, rl.NewRectangle(float32(x), float32(y), float32(w), float32(h)))

	mouse := rl.GetMousePosition()
	rl.BeginScissorMode(x, listTop, w, h-26)
	for i := range models {
		m := &models[i]
		rowY := listTop + int32(i)*rowHeight - p.sceneScroll
		if rowY+rowHeight < listTop || rowY > y+h {
			continue
		}
		hovered := pointIn(mouse, x, rowY, w, rowHeight) && mouse.Y >= float32(listTop)
		if m.Selected {
			rl.DrawRectangle(x, rowY, w, rowHeight, rowSel)
		} else if hovered {
			rl.DrawRectangle(x, rowY, w, rowHeight, rowHover)
		}

		indent := int32(panelPad + 4)
		if m.IsSubmodel {
			indent += 14
		}
		nameCol := rl.LightGray
		if !m.Visible {
			nameCol = rl.Gray
		}
		rl.DrawText(m.Name, x+indent, rowY+5, 14, nameCol)

		eye := rl.NewRectangle(float32(x+w-26), float32(rowY+4), 16, 16)
		if got := gui.CheckBox(eye, "", m.Visible); got != m.Visible {
			if err := p.deps.Store.SetVisible(m.ID, got); err != nil {
				p.deps.Log.Warn("visibility toggle failed", zap.String("id", m.ID), zap.Error(err))
			}
		}

		if hovered && mouse.X < float32(x+w-30) && rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !gui.IsLocked() {
			if err := p.deps.Store.Select(m.ID); err != nil {
				p.deps.Log.Warn("select failed", zap.String("id", m.ID), zap.Error(err))
			}
		}
	}
	rl.EndScissorMode()
}

// drawInspector shows the selection: identity, transform readout, parameter
// widgets, and surface slots. Structure edits only appear in admin mode.
func (p *Panels) drawInspector(sel store.ModelInstance, x, y, w, h int32, admin bool) {
	p.track(x, y, w, h)
	rl.DrawLine(x, y, x, y+h, panelLine)

	mouse := rl.GetMousePosition()
	inPanel := pointIn(mouse, x, y, w, h)
	if inPanel && !gui.IsLocked() {
		p.inspScroll -= int32(rl.GetMouseWheelMove() * 20)
		if p.inspScroll < 0 {
			p.inspScroll = 0
		}
	}

	rl.BeginScissorMode(x, y, w, h)
	cy := y + panelPad - p.inspScroll

	rl.DrawText(sel.Name, x+panelPad, cy, 16, rl.Yellow)
	cy += 20
	kind := sel.PrototypeID
	if def, ok := p.deps.Protos.Get(sel.PrototypeID); ok && def.Category != "" {
		kind += "  ·  " + def.Category
	}
	rl.DrawText(kind, x+panelPad, cy, 12, rl.Gray)
	cy += 18

	if sel.IsSubmodel {
		if gui.Button(rl.NewRectangle(float32(x+panelPad), float32(cy), 120, 20), "select set") {
			if err := p.deps.Store.Select(sel.ParentID); err != nil {
				p.deps.Log.Warn("select parent failed", zap.Error(err))
			}
		}
		cy += 26
	} else if sel.IsComposite {
		rl.DrawText(fmt.Sprintf("set of %d submodels", len(sel.ChildIDs)), x+panelPad, cy, 12, rl.Gray)
		cy += 18
	}

	cy = p.sectionLine(x, cy, w)
	rl.DrawText(fmt.Sprintf("pos   %.2f  %.2f  %.2f", sel.Position[0], sel.Position[1], sel.Position[2]), x+panelPad, cy, 13, rl.LightGray)
	cy += 17
	rl.DrawText(fmt.Sprintf("rot   %.1f  %.1f  %.1f", sel.Rotation[0], sel.Rotation[1], sel.Rotation[2]), x+panelPad, cy, 13, rl.LightGray)
	cy += 17
	rl.DrawText(fmt.Sprintf("scale %.2f  %.2f  %.2f", sel.Scale[0], sel.Scale[1], sel.Scale[2]), x+panelPad, cy, 13, rl.LightGray)
	cy += 21

	if got := gui.CheckBox(rl.NewRectangle(float32(x+panelPad), float32(cy), 16, 16), "visible", sel.Visible); got != sel.Visible {
		if err := p.deps.Store.SetVisible(sel.ID, got); err != nil {
			p.deps.Log.Warn("visibility toggle failed", zap.Error(err))
		}
	}
	cy += 24

	if admin {
		cy = p.drawParams(sel, x, cy, w)
		cy = p.drawSurfaces(sel, x, cy, w)

		cy += 6
		if gui.Button(rl.NewRectangle(float32(x+panelPad), float32(cy), 120, 22), "delete model") {
			if err := p.deps.Store.Remove(sel.ID); err != nil {
				p.deps.Log.Warn("remove failed", zap.String("id", sel.ID), zap.Error(err))
			}
		}
		cy += 30
	}
	rl.EndScissorMode()

	content := cy + p.inspScroll - y
	if max := content - h; max > 0 {
		if p.inspScroll > max {
			p.inspScroll = max
		}
	} else {
		p.inspScroll = 0
	}
}

// drawParams renders one widget per schema field and pushes edits through the
// store's validation.
func (p *Panels) drawParams(sel store.ModelInstance, x, cy, w int32) int32 {
	def, ok := p.deps.Protos.Get(sel.PrototypeID)
	if !ok || len(def.Params) == 0 {
		return cy
	}
	cy = p.sectionLine(x, cy, w)
	rl.DrawText("Parameters", x+panelPad, cy, 14, rl.Gray)
	cy += 20

	labelW := int32(104)
	fieldX := float32(x + panelPad + labelW)
	fieldW := float32(w - panelPad - labelW - 52)

	for _, f := range def.Params {
		rl.DrawText(f.Name, x+panelPad, cy+3, 12, rl.LightGray)
		switch f.Type {
		case prototype.TypeNumber:
			cur := prototype.Number(sel.Params, f.ID, float32(f.Min))
			got := gui.Slider(rl.NewRectangle(fieldX, float32(cy), fieldW, 18), "", fmt.Sprintf("%.2f", cur), cur, float32(f.Min), float32(f.Max))
			if f.Step > 0 {
				got = snapStep(got, float32(f.Step))
			}
			if got != cur {
				p.applyParam(sel.ID, f.ID, float64(got))
			}
		case prototype.TypeBoolean:
			cur := prototype.Boolean(sel.Params, f.ID, false)
			if got := gui.CheckBox(rl.NewRectangle(fieldX, float32(cy), 16, 16), "", cur); got != cur {
				p.applyParam(sel.ID, f.ID, got)
			}
		case prototype.TypeSelect:
			cur := prototype.String(sel.Params, f.ID, "")
			active := int32(indexOf(f.Options, cur))
			if active < 0 {
				active = 0
			}
			next := gui.ComboBox(rl.NewRectangle(fieldX, float32(cy), fieldW+44, 20), strings.Join(f.Options, ";"), active)
			if next != active && int(next) < len(f.Options) {
				p.applyParam(sel.ID, f.ID, f.Options[next])
			}
		case prototype.TypeColor:
			cur := prototype.String(sel.Params, f.ID, "#ffffff")
			if rgba, err := material.ParseHexColor(cur); err == nil {
				rl.DrawRectangle(int32(fieldX), cy, 18, 18, rl.NewColor(rgba[0], rgba[1], rgba[2], rgba[3]))
				rl.DrawRectangleLines(int32(fieldX), cy, 18, 18, panelLine)
			}
			rl.DrawText(cur, int32(fieldX)+24, cy+3, 12, rl.LightGray)
		}
		cy += rowHeight
	}
	return cy
}

// drawSurfaces renders one row per surface slot: the slot name (click to pick
// the face) and a material combo. Entry zero resets to the prototype default.
func (p *Panels) drawSurfaces(sel store.ModelInstance, x, cy, w int32) int32 {
	node := p.deps.Graph.FindByTag(sel.ID)
	if node == nil || len(node.Slots) == 0 {
		return cy
	}
	cy = p.sectionLine(x, cy, w)
	rl.DrawText("Surfaces", x+panelPad, cy, 14, rl.Gray)
	cy += 20

	ids := p.deps.Materials.IDs()
	combo := "(default);" + strings.Join(ids, ";")
	labelW := int32(104)
	fieldX := float32(x + panelPad + labelW)
	fieldW := float32(w - panelPad - labelW - 8)
	mouse := rl.GetMousePosition()
	face := p.deps.Store.SelectedFace()

	for si := range node.Slots {
		slot := &node.Slots[si]
		nameCol := rl.LightGray
		if si == face {
			nameCol = rl.Yellow
		}
		rl.DrawText(slot.Name, x+panelPad, cy+4, 12, nameCol)
		if pointIn(mouse, x+panelPad, cy, labelW-8, 20) && rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !gui.IsLocked() {
			if err := p.deps.Store.SelectFace(si); err != nil {
				p.deps.Log.Warn("face select failed", zap.Error(err))
			}
		}

		active := int32(0)
		if override, has := sel.FaceMaterials[si]; has {
			if at := indexOf(ids, override); at >= 0 {
				active = int32(at + 1)
			}
		}
		next := gui.ComboBox(rl.NewRectangle(fieldX, float32(cy), fieldW, 20), combo, active)
		if next != active {
			matID := ""
			if next > 0 && int(next) <= len(ids) {
				matID = ids[next-1]
			}
			if err := p.deps.Store.SetFaceMaterial(sel.ID, si, matID); err != nil {
				p.deps.Log.Warn("surface override failed", zap.Error(err))
			}
		}
		cy += rowHeight
	}
	return cy
}

func (p *Panels) applyParam(id, field string, value any) {
	if err := p.deps.Store.UpdateParams(id, map[string]any{field: value}); err != nil {
		p.deps.Log.Warn("param edit failed", zap.String("id", id), zap.String("field", field), zap.Error(err))
	}
}

func (p *Panels) sectionLine(x, cy, w int32) int32 {
	rl.DrawLine(x+panelPad, cy+2, x+w-panelPad, cy+2, panelLine)
	return cy + 10
}

// scrollList handles wheel scrolling for one list panel and clamps the offset
// to the content height.
func scrollList(scroll, count, viewH int32, panel rl.Rectangle) int32 {
	if rl.CheckCollisionPointRec(rl.GetMousePosition(), panel) && !gui.IsLocked() {
		scroll -= int32(rl.GetMouseWheelMove() * 20)
	}
	max := count*rowHeight - viewH
	if max < 0 {
		max = 0
	}
	if scroll < 0 {
		scroll = 0
	}
	if scroll > max {
		scroll = max
	}
	return scroll
}

func pointIn(p rl.Vector2, x, y, w, h int32) bool {
	return p.X >= float32(x) && p.X <= float32(x+w) &&
		p.Y >= float32(y) && p.Y <= float32(y+h)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// snapStep rounds a slider value onto the field's step grid.
func snapStep(v, step float32) float32 {
	return float32(math.Round(float64(v/step))) * step
}
