package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/jmagar/tunefetch/internal/model"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevOut, prevNoColor := Out, color.NoColor
	buf := &bytes.Buffer{}
	Out = buf
	color.NoColor = true
	t.Cleanup(func() {
		Out = prevOut
		color.NoColor = prevNoColor
	})
	return buf
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOut(t)
	errorsBefore, warningsBefore := RunErrorCount, RunWarningCount

	PrintSuccess("done")
	PrintError("broken")
	PrintWarning("careful")

	want := "✓ done\n✗ broken\n⚠ careful\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
	if RunErrorCount != errorsBefore+1 || RunWarningCount != warningsBefore+1 {
		t.Fatalf("counters = %d/%d", RunErrorCount, RunWarningCount)
	}
}

func TestDescribeOutcome(t *testing.T) {
	ok := model.AttemptOutcome{Target: "urlA", Attempt: 1, Duration: 1500 * time.Millisecond}.Classified(model.Success, "downloaded")
	if got := DescribeOutcome(ok); got != "Downloaded urlA (1 attempt, 1.5s)" {
		t.Fatalf("DescribeOutcome(success) = %q", got)
	}

	failed := model.AttemptOutcome{Target: "urlB", Attempt: 3}.Classified(model.RetryableFailure, "exit code 1:\nboom")
	got := DescribeOutcome(failed)
	if got != "Failed urlB after 3 attempts [retryable]: exit code 1: boom" {
		t.Fatalf("DescribeOutcome(failure) = %q", got)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"\x1b[31mabcdefghij\x1b[0m", 6, "abc..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTableRender(t *testing.T) {
	table := NewTable("Target", "Status")
	table.AddRow("urlA", "downloaded")
	table.AddRow("urlB")

	var buf bytes.Buffer
	table.Render(&buf)
	out := buf.String()
	for _, want := range []string{"Target", "Status", "urlA", "downloaded", "urlB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if len(table.Rows[1]) != 2 {
		t.Fatalf("short row not padded: %v", table.Rows[1])
	}
}

func TestDescribeAuthStatus(t *testing.T) {
	if got := DescribeAuthStatus(&model.Config{}); got != "Disabled" {
		t.Fatalf("DescribeAuthStatus(off) = %q", got)
	}
	cfg := &model.Config{UseCookies: true, AuthToken: "tok", CookieFile: "/nonexistent/cookies.txt"}
	if got := DescribeAuthStatus(cfg); got != "Enabled (cookie file missing, token)" {
		t.Fatalf("DescribeAuthStatus() = %q", got)
	}
}

func TestNilProgressBar(t *testing.T) {
	var bar *ProgressBar
	bar.Update(model.Progress{Percent: 50})
	bar.Reset()
	bar.Finish()
}
