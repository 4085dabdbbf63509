package hud

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"roomstudio/internal/store"
)

//go:embed theme.css
var themeCSS string

const (
	fontSize   = 18
	noticeGap  = 4
	edgeMargin = 10
	// Notices stacked on screen at once; older ones drop off first.
	maxVisible = 6
)

// HUD draws the always-on status line and the transient notice stack. Notices
// are drained from the store every frame and fade out on their own after a
// per-level lifetime.
type HUD struct {
	store   *store.Store
	theme   *Theme
	log     *zap.Logger
	font    rl.Font
	notices []timedNotice
}

type timedNotice struct {
	store.Notice
	expires time.Time
}

// New builds a HUD over the store. The embedded theme is parsed once; if it
// fails to parse the HUD falls back to default styling and keeps going.
func New(s *store.Store, log *zap.Logger) *HUD {
	if log == nil {
		log = zap.NewNop()
	}
	theme, err := ParseTheme(themeCSS)
	if err != nil {
		log.Warn("hud theme unusable, using defaults", zap.Error(err))
		theme = &Theme{}
	}
	return &HUD{store: s, theme: theme, log: log}
}

// SetFont sets the overlay font. Zero texture ID keeps the raylib default.
func (h *HUD) SetFont(font rl.Font) {
	h.font = font
}

// Update drains new notices from the store and expires old ones. Call once
// per frame with the frame time.
func (h *HUD) Update(now time.Time) {
	for _, n := range h.store.TakeNotices() {
		h.notices = append(h.notices, timedNotice{Notice: n, expires: now.Add(lifetimeFor(n.Level))})
	}
	live := h.notices[:0]
	for _, n := range h.notices {
		if now.Before(n.expires) {
			live = append(live, n)
		}
	}
	h.notices = live
	if len(h.notices) > maxVisible {
		h.notices = h.notices[len(h.notices)-maxVisible:]
	}
}

// ActiveNotices returns the notices currently on screen, oldest first.
func (h *HUD) ActiveNotices() []store.Notice {
	out := make([]store.Notice, len(h.notices))
	for i, n := range h.notices {
		out[i] = n.Notice
	}
	return out
}

// StatusLine composes the left status text: mode, model count, and the
// current selection with its face slot when one is picked.
func (h *HUD) StatusLine() string {
	parts := []string{h.store.Mode().String()}
	n := len(h.store.Models())
	noun := "models"
	if n == 1 {
		noun = "model"
	}
	parts = append(parts, fmt.Sprintf("%d %s", n, noun))
	if sel, ok := h.store.Selected(); ok {
		s := sel.Name
		if f := h.store.SelectedFace(); f >= 0 {
			s += fmt.Sprintf(" / face %d", f)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "  |  ")
}

// Draw renders the status bar across the top and the notice stack under the
// right edge.
func (h *HUD) Draw() {
	screenW := int32(rl.GetScreenWidth())

	status := h.theme.Style("status")
	rl.DrawRectangle(0, 0, screenW, status.Height, status.Background)
	h.drawText(h.StatusLine(), status.Padding, status.Padding, status.Color)

	y := status.Height + noticeGap
	for _, n := range h.notices {
		st := h.theme.Style(noticeClasses(n.Level)...)
		x := screenW - st.Width - edgeMargin
		rl.DrawRectangle(x, y, st.Width, st.Height, st.Background)
		if st.HasBorder {
			rl.DrawRectangleLines(x, y, st.Width, st.Height, st.Border)
		}
		text := n.Text
		if len(text) > 64 {
			text = text[:61] + "..."
		}
		h.drawText(text, x+st.Padding, y+st.Padding, st.Color)
		y += st.Height + noticeGap
	}
}

func (h *HUD) drawText(text string, x, y int32, tint rl.Color) {
	if h.font.Texture.ID != 0 {
		rl.DrawTextEx(h.font, text, rl.NewVector2(float32(x), float32(y)), fontSize, 1, tint)
		return
	}
	rl.DrawText(text, x, y, fontSize, tint)
}

func noticeClasses(level store.NoticeLevel) []string {
	switch level {
	case store.NoticeWarn:
		return []string{"notice", "notice-warn"}
	case store.NoticeError:
		return []string{"notice", "notice-error"}
	}
	return []string{"notice"}
}

func lifetimeFor(level store.NoticeLevel) time.Duration {
	switch level {
	case store.NoticeError:
		return 8 * time.Second
	case store.NoticeWarn:
		return 6 * time.Second
	}
	return 4 * time.Second
}
