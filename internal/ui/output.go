package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/jmagar/tunefetch/internal/model"
)

// Out receives all status output. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var RunErrorCount int
var RunWarningCount int

func printSymbol(c *color.Color, symbol, msg string) {
	fmt.Fprintf(Out, "%s %s\n", c.Sprint(symbol), msg)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	printSymbol(ColorGreen, SymbolCheck, msg)
}

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount++
	printSymbol(ColorRed, SymbolCross, msg)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	printSymbol(ColorBlue, SymbolInfo, msg)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount++
	printSymbol(ColorYellow, SymbolWarning, msg)
}

// PrintDownload prints a download message.
func PrintDownload(msg string) {
	printSymbol(ColorCyan, SymbolDownload, msg)
}

// PrintUpload prints an upload message.
func PrintUpload(msg string) {
	printSymbol(ColorPurple, SymbolUpload, msg)
}

// PrintMusic prints a music message.
func PrintMusic(msg string) {
	printSymbol(ColorGreen, SymbolMusic, msg)
}

// PrintRetry prints a retry notice.
func PrintRetry(msg string) {
	printSymbol(ColorYellow, SymbolRetry, msg)
}

// PrintSkip prints a skipped-item notice.
func PrintSkip(msg string) {
	printSymbol(ColorBlue, SymbolSkip, msg)
}

// PrintOutcome prints the one-line status for a terminal outcome.
func PrintOutcome(out model.AttemptOutcome) {
	msg := DescribeOutcome(out)
	if out.OK() {
		PrintSuccess(msg)
		return
	}
	PrintError(msg)
}

// DescribeOutcome renders a terminal outcome as one line.
func DescribeOutcome(out model.AttemptOutcome) string {
	attempts := "attempt"
	if out.Attempt != 1 {
		attempts = "attempts"
	}
	if out.OK() {
		return fmt.Sprintf("Downloaded %s (%d %s, %s)", out.Target, out.Attempt, attempts, DescribeDuration(out.Duration))
	}
	return fmt.Sprintf("Failed %s after %d %s [%s]: %s",
		out.Target, out.Attempt, attempts, out.Classification, oneLine(out.Reason))
}

// DescribeDuration renders d rounded for status lines.
func DescribeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// DescribeSize renders a byte count the way the progress line does.
func DescribeSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// DescribeAuthStatus returns a human-readable authentication status.
func DescribeAuthStatus(cfg *model.Config) string {
	if !cfg.UseCookies {
		return "Disabled"
	}
	var parts []string
	if strings.TrimSpace(cfg.CookieFile) != "" {
		if _, err := os.Stat(cfg.CookieFile); err == nil {
			parts = append(parts, "cookie file")
		} else {
			parts = append(parts, "cookie file missing")
		}
	}
	if strings.TrimSpace(cfg.AuthToken) != "" {
		parts = append(parts, "token")
	}
	if len(parts) == 0 {
		return "Enabled (nothing configured)"
	}
	return "Enabled (" + strings.Join(parts, ", ") + ")"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
