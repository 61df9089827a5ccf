package env

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// Characters of the text frame.
const (
	Banner = "Text Flappy Bird!"

	PlayerChar     = '@'
	DeadPlayerChar = '*'
	PipeChar       = '|'
	SkyChar        = '-'
	FloorChar      = '^'
	LeftWallChar   = '['
	RightWallChar  = ']'
)

// headerRows is the banner and score line above the sky border.
const headerRows = 2

// footerWidth leaves room for the longest footer line.
const footerWidth = 40

// FrameSize returns the screen size needed to draw a field of the given
// dimensions with footerLines lines of text underneath.
func FrameSize(fieldW, fieldH, footerLines int) (width, height int) {
	width = core.Max(fieldW+2, footerWidth)
	height = headerRows + fieldH + 2 + footerLines
	return width, height
}

// DrawFrame draws the banner, score, bordered field and footer lines.
//
//	Text Flappy Bird!
//	Score: 0
//	----------
//	[    |   ]
//	[ @      ]
//	[    |   ]
//	^^^^^^^^^^
//	(Idle)
func DrawFrame(dst *core.Screen, sim *flappy.Simulator, footer ...string) {
	cfg := sim.Config()
	w, h := cfg.ScreenWidth, cfg.ScreenHeight

	dst.Clear()
	dst.DrawText(0, 0, Banner)
	dst.DrawText(0, 1, fmt.Sprintf("Score: %d", sim.Score()))

	// Field cell (x, y) lands at screen (field.X+x, field.Y+y).
	field := core.NewRect(1, headerRows+1, w, h)
	dst.DrawHLine(0, field.Y-1, field.Right()+1, SkyChar)
	for y := field.Y; y < field.Bottom(); y++ {
		dst.Set(0, y, LeftWallChar)
		dst.Set(field.Right(), y, RightWallChar)
	}
	dst.DrawHLine(0, field.Bottom(), field.Right()+1, FloorChar)
	ox, oy := field.X, field.Y

	px, py := sim.PlayerPosition()
	if sim.IsAlive() {
		dst.SetColor(ox+px, oy+py, PlayerChar, core.ColorYellow)
	} else if px > 0 {
		// Death in column 0 draws nothing, matching EncodeGrid.
		dst.SetColor(ox+px-1, oy+core.Clamp(py, 0, h-1), DeadPlayerChar, core.ColorRed)
	}

	for _, p := range sim.Obstacles() {
		dst.DrawVLine(ox+p.X, oy, p.GapTop, PipeChar, core.ColorGreen)
		lower := p.GapTop + p.GapHeight
		dst.DrawVLine(ox+p.X, oy+lower, h-lower, PipeChar, core.ColorGreen)
	}

	for i, line := range footer {
		dst.DrawText(0, field.Bottom()+1+i, line)
	}
}

// footerLines reports how many footer lines an environment draws.
func footerLines(e registry.Env) int {
	if e.ID() == "simple" {
		return 2
	}
	return 1
}

// NewFrameScreen allocates a screen large enough for the environment's frame.
// The environment must have been reset.
func NewFrameScreen(e registry.Env) *core.Screen {
	cfg := e.Simulator().Config()
	w, h := FrameSize(cfg.ScreenWidth, cfg.ScreenHeight, footerLines(e))
	return core.NewScreen(w, h)
}

// Text renders the environment's current frame as plain text, one line per
// row with trailing spaces removed. It returns "" before the first Reset.
func Text(e registry.Env) string {
	if e.Simulator() == nil {
		return ""
	}
	screen := NewFrameScreen(e)
	e.Render(screen)

	lines := strings.Split(screen.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n") + "\n"
}
