package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"roomstudio/internal/reconcile"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// Overlay text is recomputed every N frames to limit allocations.
	updateInterval = 30
)

// Overlay draws the FPS counter and the scene statistics block at the
// top-right. Both are off by default and toggled from preferences or the
// console.
type Overlay struct {
	ShowFPS   bool
	ShowStats bool

	store *store.Store
	graph *scenegraph.Graph
	rec   *reconcile.Reconciler

	font       rl.Font
	frameCount uint32
	lastFPS    string
	lastStats  []string
	memStats   runtime.MemStats
}

// New returns an overlay with everything hidden. rec may be nil; the passes
// line is skipped then.
func New(s *store.Store, graph *scenegraph.Graph, rec *reconcile.Reconciler) *Overlay {
	return &Overlay{store: s, graph: graph, rec: rec}
}

// SetShowFPS toggles the FPS counter.
func (o *Overlay) SetShowFPS(show bool) { o.ShowFPS = show }

// SetShowStats toggles the scene statistics block.
func (o *Overlay) SetShowStats(show bool) { o.ShowStats = show }

// SetFont sets the overlay font. Zero texture ID keeps the raylib default.
func (o *Overlay) SetFont(font rl.Font) { o.font = font }

// StatsLines composes the statistics block: store revision and model count,
// live node/part/slot totals, release counters, reconcile passes, and heap
// use.
func (o *Overlay) StatsLines() []string {
	st := o.graph.Stats()
	runtime.ReadMemStats(&o.memStats)
	lines := []string{
		fmt.Sprintf("rev %d  models %d", o.store.Revision(), len(o.store.Models())),
		fmt.Sprintf("nodes %d  parts %d  slots %d", st.Nodes, st.Parts, st.Slots),
		fmt.Sprintf("freed geo %d  mat %d", st.ReleasedGeoms, st.ReleasedMats),
	}
	if o.rec != nil {
		lines = append(lines, fmt.Sprintf("passes %d", o.rec.Passes()))
	}
	lines = append(lines, fmt.Sprintf("mem %.1f MiB", float64(o.memStats.Alloc)/(1024*1024)))
	return lines
}

// Draw renders the enabled overlays. Call after the scene and the HUD so the
// text stays on top.
func (o *Overlay) Draw() {
	o.frameCount++
	update := o.frameCount%updateInterval == 0
	if o.ShowFPS && o.lastFPS == "" {
		update = true
	}
	if o.ShowStats && o.lastStats == nil {
		update = true
	}

	y := int32(padding)
	if o.ShowFPS {
		if update {
			o.lastFPS = fmt.Sprintf("FPS: %d", rl.GetFPS())
		}
		o.drawRight(o.lastFPS, y, rl.Green)
		y += lineHeight
	}
	if o.ShowStats {
		if update {
			o.lastStats = o.StatsLines()
		}
		for _, line := range o.lastStats {
			o.drawRight(line, y, rl.LightGray)
			y += lineHeight
		}
	}
}

// drawRight draws one line right-aligned against the screen edge.
func (o *Overlay) drawRight(text string, y int32, tint rl.Color) {
	if text == "" {
		return
	}
	screenW := int32(rl.GetScreenWidth())
	if o.font.Texture.ID != 0 {
		w := rl.MeasureTextEx(o.font, text, fontSize, 1).X
		rl.DrawTextEx(o.font, text, rl.NewVector2(float32(screenW)-w-padding, float32(y)), fontSize, 1, tint)
		return
	}
	w := rl.MeasureText(text, fontSize)
	rl.DrawText(text, screenW-w-padding, y, fontSize, tint)
}
