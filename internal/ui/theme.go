package ui

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Palette colors, exported for use across packages. InitColorPalette fills them.
var (
	ColorRed    = color.New(color.FgHiRed)
	ColorGreen  = color.New(color.FgHiGreen)
	ColorYellow = color.New(color.FgHiYellow)
	ColorBlue   = color.New(color.FgHiBlue)
	ColorPurple = color.New(color.FgHiMagenta)
	ColorCyan   = color.New(color.FgHiCyan)
	ColorBold   = color.New(color.Bold)
	ActiveTheme = "nordonedark"
)

// Unicode symbols
var (
	SymbolCheck    = "✓"
	SymbolCross    = "✗"
	SymbolMusic    = "♪"
	SymbolUpload   = "⬆"
	SymbolDownload = "⬇"
	SymbolInfo     = "ℹ"
	SymbolWarning  = "⚠"
	SymbolRetry    = "↻"
	SymbolSkip     = "↷"
)

func init() {
	InitColorPalette()
}

// InitColorPalette selects the color theme from TUNEFETCH_THEME and turns color
// off for NO_COLOR or a stdout that is not a terminal.
func InitColorPalette() {
	color.NoColor = !ColorEnabled(os.Stdout.Fd())

	theme := strings.ToLower(strings.TrimSpace(os.Getenv("TUNEFETCH_THEME")))
	if theme != "" {
		ActiveTheme = theme
	}

	if ActiveTheme == "vivid" {
		initVividPalette()
		return
	}
	initNordOneDarkPalette()
}

// ColorEnabled reports whether output to fd should carry ANSI color.
func ColorEnabled(fd uintptr) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func initVividPalette() {
	if SupportsTruecolor() {
		ColorRed = color.RGB(255, 76, 102).Add(color.Bold)
		ColorGreen = color.RGB(80, 250, 123).Add(color.Bold)
		ColorYellow = color.RGB(255, 221, 87).Add(color.Bold)
		ColorBlue = color.RGB(110, 196, 255).Add(color.Bold)
		ColorPurple = color.RGB(215, 130, 255).Add(color.Bold)
		ColorCyan = color.RGB(0, 245, 255).Add(color.Bold)
		return
	}
	ColorRed = color.New(color.FgHiRed, color.Bold)
	ColorGreen = color.New(color.FgHiGreen, color.Bold)
	ColorYellow = color.New(color.FgHiYellow, color.Bold)
	ColorBlue = color.New(color.FgHiBlue, color.Bold)
	ColorPurple = color.New(color.FgHiMagenta, color.Bold)
	ColorCyan = color.New(color.FgHiCyan, color.Bold)
}

func initNordOneDarkPalette() {
	if SupportsTruecolor() {
		ColorRed = color.RGB(224, 108, 117).Add(color.Bold)
		ColorGreen = color.RGB(152, 195, 121).Add(color.Bold)
		ColorYellow = color.RGB(229, 192, 123).Add(color.Bold)
		ColorBlue = color.RGB(143, 188, 255).Add(color.Bold)
		ColorPurple = color.RGB(180, 142, 255).Add(color.Bold)
		ColorCyan = color.RGB(136, 220, 255).Add(color.Bold)
		return
	}
	ColorRed = color.New(color.FgHiRed)
	ColorGreen = color.New(color.FgHiGreen)
	ColorYellow = color.New(color.FgHiYellow)
	ColorBlue = color.New(color.FgHiBlue)
	ColorPurple = color.New(color.FgHiMagenta)
	ColorCyan = color.New(color.FgHiCyan)
}

// SupportsTruecolor checks if the terminal supports 24-bit color.
func SupportsTruecolor() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
	return strings.Contains(colorTerm, "truecolor") ||
		strings.Contains(colorTerm, "24bit") ||
		strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit")
}

// IsInteractive reports whether both stdin and stdout are terminals, so prompts
// and progress bars make sense.
func IsInteractive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}
