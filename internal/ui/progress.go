package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jmagar/tunefetch/internal/model"
)

// ProgressBar shows downloader progress on a terminal. A nil *ProgressBar is
// valid and does nothing, which is what NewProgressBar returns off a TTY.
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewProgressBar returns a percent bar on stderr, or nil when stderr is not a
// terminal.
func NewProgressBar(label string) *ProgressBar {
	if !ColorEnabled(os.Stderr.Fd()) {
		return nil
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressBar{bar: bar, label: label}
}

// Update moves the bar to the parsed progress.
func (p *ProgressBar) Update(pr model.Progress) {
	if p == nil {
		return
	}
	desc := p.label
	if pr.TotalBytes > 0 {
		desc += " " + DescribeSize(int64(pr.TotalBytes))
	}
	if pr.Speed != "" {
		desc += " @ " + pr.Speed
	}
	if pr.ETA != "" {
		desc += fmt.Sprintf(" ETA %s", pr.ETA)
	}
	p.bar.Describe(desc)
	_ = p.bar.Set(int(pr.Percent))
}

// Reset starts the bar over for a retry.
func (p *ProgressBar) Reset() {
	if p == nil {
		return
	}
	p.bar.Reset()
}

// Finish clears the bar.
func (p *ProgressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
