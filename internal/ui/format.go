package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

// Box drawing characters
const (
	BoxHorizontal        = "─"
	BoxVertical          = "│"
	BoxDoubleHorizontal  = "═"
	BoxDoubleTopLeft     = "╔"
	BoxDoubleTopRight    = "╗"
	BoxDoubleBottomLeft  = "╚"
	BoxDoubleBottomRight = "╝"

	BulletCircle  = "•"
	BulletDiamond = "◆"
)

// AnsiRegex is compiled once for performance.
var AnsiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const termWidthCacheTTL = 500 * time.Millisecond

var (
	termWidthMu         sync.Mutex
	cachedTermWidth     = 80
	cachedTermWidthTime time.Time
)

// GetTermWidth returns the terminal width, defaulting to 80.
func GetTermWidth() int {
	termWidthMu.Lock()
	if time.Since(cachedTermWidthTime) <= termWidthCacheTTL && cachedTermWidth > 0 {
		width := cachedTermWidth
		termWidthMu.Unlock()
		return width
	}
	termWidthMu.Unlock()

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		width = 80
	}

	termWidthMu.Lock()
	cachedTermWidth = width
	cachedTermWidthTime = time.Now()
	termWidthMu.Unlock()

	return width
}

// StripAnsiCodes removes ANSI escape sequences from a string.
func StripAnsiCodes(s string) string {
	return AnsiRegex.ReplaceAllString(s, "")
}

// VisibleLength returns the visible length of a string (excluding ANSI codes).
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis truncates a string to maxLen visible runes, dropping any
// color codes when it has to cut.
func TruncateWithEllipsis(s string, maxLen int) string {
	if VisibleLength(s) <= maxLen {
		return s
	}
	runes := []rune(StripAnsiCodes(s))
	if maxLen <= 3 {
		if maxLen < 0 {
			maxLen = 0
		}
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PadCenter centers a string in the specified width using visible length.
func PadCenter(s string, width int) string {
	visLen := VisibleLength(s)
	if visLen >= width {
		return s
	}
	padding := width - visLen
	leftPad := padding / 2
	rightPad := padding - leftPad
	return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", rightPad)
}

// PrintHeader prints a styled header with box drawing.
func PrintHeader(title string) {
	width := GetTermWidth()
	if VisibleLength(title)+4 > width-4 {
		title = TruncateWithEllipsis(title, width-10)
	}
	lineLen := width - 2

	fmt.Fprintf(Out, "\n%s\n", ColorCyan.Sprint(BoxDoubleTopLeft+strings.Repeat(BoxDoubleHorizontal, lineLen)+BoxDoubleTopRight))
	fmt.Fprintf(Out, "%s %s %s\n",
		ColorCyan.Sprint(BoxVertical),
		ColorBold.Sprint(PadCenter(title, lineLen-2)),
		ColorCyan.Sprint(BoxVertical))
	fmt.Fprintf(Out, "%s\n\n", ColorCyan.Sprint(BoxDoubleBottomLeft+strings.Repeat(BoxDoubleHorizontal, lineLen)+BoxDoubleBottomRight))
}

// PrintSection prints a section title with underline.
func PrintSection(title string) {
	fmt.Fprintf(Out, "\n%s\n", ColorBold.Sprintf("%s %s", BulletDiamond, title))
	fmt.Fprintf(Out, "%s\n\n", ColorCyan.Sprint(strings.Repeat(BoxHorizontal, utf8.RuneCountInString(title)+2)))
}

// PrintList prints a styled bullet list.
func PrintList(items []string, c *color.Color) {
	for _, item := range items {
		fmt.Fprintf(Out, "  %s %s\n", c.Sprint(BulletCircle), item)
	}
}

// PrintKeyValue prints a key-value pair with styling.
func PrintKeyValue(key, value string, valueColor *color.Color) {
	maxValueWidth := GetTermWidth() - len(key) - 10
	if VisibleLength(value) > maxValueWidth {
		value = TruncateWithEllipsis(value, maxValueWidth)
	}
	fmt.Fprintf(Out, "  %s %s\n", ColorCyan.Sprintf("%-20s", key+":"), valueColor.Sprint(value))
}

// Table collects rows and renders them with tablewriter.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a new table.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow adds a row, padding or cutting it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Print renders the table to Out.
func (t *Table) Print() {
	t.Render(Out)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	if len(t.Headers) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetRowLine(false)
	table.AppendBulk(t.Rows)
	table.Render()
}
