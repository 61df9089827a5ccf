package core

// Color represents a foreground color for a screen cell.
// Values map to ANSI codes in the platform renderer; games only pick names.
type Color uint8

// Colors used by the renderers.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorCyan
	ColorWhite
	ColorGray
)
