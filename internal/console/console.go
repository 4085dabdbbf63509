package console

import (
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"

	"roomstudio/internal/logger"
)

const (
	// BarHeight is the input bar height in pixels; the viewport uses it to
	// keep pointer picks off the console area.
	BarHeight = 40
	prompt    = "> "
	fontSize  = 20
	padding   = 8
	// Log lines drawn above the input bar while the console is open.
	maxLinesOnScreen = 14
	lineHeight       = fontSize + 4
)

var (
	// Reused every frame to avoid per-frame color allocations.
	barColor  = rl.NewColor(30, 30, 34, 255)
	lineColor = rl.NewColor(80, 80, 80, 255)
	tailColor = rl.NewColor(18, 18, 22, 240)
)

// Console is the command bar at the bottom of the screen, toggled with ESC.
// While open it captures keyboard input and draws the recent log tail above
// the bar; every submitted line is parsed and run through the registry.
type Console struct {
	log   *logger.Log
	reg   *Registry
	input string
	open  bool
	font  rl.Font
}

// New returns a closed console that echoes into log and executes through reg.
func New(log *logger.Log, reg *Registry) *Console {
	return &Console{log: log, reg: reg}
}

// IsOpen reports whether the console is visible and capturing the keyboard.
// The viewport suppresses camera and pick input while this is true.
func (c *Console) IsOpen() bool {
	return c.open
}

// SetFont sets the font used for the bar and the log tail. Zero texture ID
// falls back to the raylib default font.
func (c *Console) SetFont(font rl.Font) {
	c.font = font
}

// Update handles ESC (toggle) and, while open, typing, paste, backspace, and
// enter. Call once per frame before the viewport reads input.
func (c *Console) Update() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		c.open = !c.open
	}
	if !c.open {
		return
	}
	// Paste: Ctrl+V, or Cmd+V on macOS.
	if rl.IsKeyPressed(rl.KeyV) && (rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) || rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)) {
		if pasted := rl.GetClipboardText(); pasted != "" {
			c.input += pasted
		}
	} else {
		for {
			ch := rl.GetCharPressed()
			if ch == 0 {
				break
			}
			c.input += string(rune(ch))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(c.input) > 0 {
		_, size := utf8.DecodeLastRuneInString(c.input)
		c.input = c.input[:len(c.input)-size]
	}
	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter)) && c.input != "" {
		line := c.input
		c.input = ""
		c.log.Info(prompt + line)
		if args := SplitArgs(line); len(args) > 0 {
			if err := c.reg.Execute(args); err != nil {
				c.log.Warn(err.Error())
			}
		}
	}
}

// Draw draws the input bar at the bottom and the log tail above it when open.
// Uses GetScreenWidth/GetScreenHeight so the bar matches the 2D overlay
// coordinate system.
func (c *Console) Draw() {
	if !c.open {
		return
	}
	screenW := int(rl.GetScreenWidth())
	screenH := int(rl.GetScreenHeight())
	barY := screenH - BarHeight

	tailHeight := maxLinesOnScreen * lineHeight
	tailY := barY - tailHeight
	if tailY < 0 {
		tailHeight = barY
		tailY = 0
	}
	if tailHeight > 0 {
		rl.DrawRectangle(0, int32(tailY), int32(screenW), int32(tailHeight), tailColor)
	}
	lines := c.log.Lines()
	start := 0
	if len(lines) > maxLinesOnScreen {
		start = len(lines) - maxLinesOnScreen
	}
	for i := start; i < len(lines); i++ {
		y := tailY + (i-start)*lineHeight + padding
		line := lines[i]
		if len(line) > 200 {
			line = line[:197] + "..."
		}
		c.drawText(line, padding, y, rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), int32(BarHeight), barColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, lineColor)
	c.drawText(prompt+c.input+"|", padding, barY+padding, rl.White)
}

func (c *Console) drawText(text string, x, y int, tint rl.Color) {
	if c.font.Texture.ID != 0 {
		rl.DrawTextEx(c.font, text, rl.NewVector2(float32(x), float32(y)), float32(fontSize), 1, tint)
		return
	}
	rl.DrawText(text, int32(x), int32(y), int32(fontSize), tint)
}
