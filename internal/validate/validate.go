// Package validate checks that a target exists before a download is attempted.
// Validation is advisory: every failure becomes an "unavailable" result.
package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmagar/tunefetch/internal/classify"
	"github.com/jmagar/tunefetch/internal/invoke"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/ratelimit"
)

// DefaultTimeout bounds one metadata-only run.
const DefaultTimeout = 30 * time.Second

// Result is the verdict for one target.
type Result struct {
	Target    string
	Available bool
	Message   string
	// Metadata is nil when the tool produced nothing parsable.
	Metadata *Metadata
}

// stderrRules map tool error text to a validation message. First match wins.
var stderrRules = []classify.Rule{
	{Reason: "resource not found", Any: []string{"not found", "404"}},
	{Reason: "private resource, requires authentication", Any: []string{"private", "access", "sign in"}},
	{Reason: "resource unavailable or region restricted", Any: []string{"unavailable", "region", "country"}},
	{Reason: "rate limit exceeded, try later", Any: []string{"quota", "rate limit", "too many requests", "429"}},
}

// Validator runs the downloader in metadata-only mode.
type Validator struct {
	Invoker *invoke.Invoker
	// Limiter is shared with downloads. Optional.
	Limiter *ratelimit.Limiter
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

// New returns a validator sharing inv and limiter with the download path.
func New(inv *invoke.Invoker, limiter *ratelimit.Limiter, timeout time.Duration) *Validator {
	return &Validator{Invoker: inv, Limiter: limiter, Timeout: timeout}
}

// Validate checks target. It never returns an error.
func (v *Validator) Validate(ctx context.Context, target string, cfg *model.Config) Result {
	res := Result{Target: target}
	if v.Limiter != nil {
		if _, err := v.Limiter.Acquire(ctx); err != nil {
			res.Message = fmt.Sprintf("validation cancelled: %v", err)
			return res
		}
	}

	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	stdout, stderr, out := v.Invoker.Capture(ctx, v.Invoker.ValidateArgs(target, cfg), timeout)

	switch {
	case out.TimedOut:
		res.Message = fmt.Sprintf("validation timed out after %s", timeout)
		return res
	case !out.Exited:
		res.Message = "validation error: " + out.StartErr
		return res
	}

	meta, ok := ParseMetadata(stdout)
	if out.ExitCode != 0 || !ok {
		res.Message = stderrMessage(stderr, out.ExitCode == 0)
		return res
	}
	res.Metadata = &meta
	res.Available, res.Message = judge(meta)
	return res
}

// ValidateAll checks targets in order, reporting each result as it completes.
func (v *Validator) ValidateAll(ctx context.Context, targets []string, cfg *model.Config, onResult func(i int, r Result)) []Result {
	results := make([]Result, 0, len(targets))
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		r := v.Validate(ctx, target, cfg)
		results = append(results, r)
		if onResult != nil {
			onResult(i, r)
		}
	}
	return results
}

func judge(meta Metadata) (bool, string) {
	if meta.Title == "" {
		return false, "missing title metadata"
	}
	if meta.Unavailable {
		return false, "resource unavailable"
	}
	if meta.Collection {
		if meta.TrackCount == 0 {
			return false, fmt.Sprintf("no tracks in this %s", meta.Type)
		}
		if meta.AvailableCount == 0 {
			return false, fmt.Sprintf("no available tracks in this %s", meta.Type)
		}
		return true, meta.Summary()
	}
	if meta.Duration <= 0 {
		return false, "invalid duration"
	}
	return true, meta.Summary()
}

func stderrMessage(stderr string, exitedClean bool) string {
	if r, ok := classify.First(stderrRules, stderr); ok {
		return r.Reason
	}
	detail := model.Truncate(strings.TrimSpace(strings.ToLower(stderr)), 100)
	if detail == "" {
		if exitedClean {
			return "validation failed: unparsable metadata"
		}
		return "validation failed: no error output"
	}
	return "validation failed: " + detail
}
