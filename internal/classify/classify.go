// Package classify maps raw downloader results to outcome classifications.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmagar/tunefetch/internal/model"
)

// DetailLimit bounds the output excerpt carried in generic failure reasons.
const DetailLimit = 200

// Rule is one entry of an ordered pattern table. A rule matches when every
// All substring and at least one Any substring (if any are listed) occur in
// the lowercased text.
type Rule struct {
	Reason string
	Class  model.Classification
	All    []string
	Any    []string
	// Fatal rules also override a zero exit code.
	Fatal bool
}

// Match reports whether the rule matches lowered, which must already be lowercase.
func (r Rule) Match(lowered string) bool {
	if len(r.All) == 0 && len(r.Any) == 0 {
		return false
	}
	for _, s := range r.All {
		if !strings.Contains(lowered, s) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return true
	}
	for _, s := range r.Any {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}

// NonRetryableRules lists conditions that cannot change within a retry window.
// Order matters: the generic "not found" stays last.
var NonRetryableRules = []Rule{
	{Reason: "video unavailable", Any: []string{"video unavailable", "this video is unavailable"}, Fatal: true},
	{Reason: "private video", Any: []string{"private video"}, Fatal: true},
	{Reason: "age-restricted", Any: []string{"age restrict", "age-restrict", "sign in to confirm your age"}, Fatal: true},
	{Reason: "no results found", Any: []string{"no results found"}, Fatal: true},
	{Reason: "metadata error", All: []string{"metadata"}, Any: []string{"typeerror", "nonetype"}, Fatal: true},
	{Reason: "blocked on copyright grounds", Any: []string{"copyright grounds", "copyright claim"}, Fatal: true},
	{Reason: "not found", Any: []string{"not found"}},
}

// RetryableRules lists transient conditions worth another attempt.
var RetryableRules = []Rule{
	{Reason: "rate limited", Any: []string{"rate limit", "rate-limit", "too many requests", "http error 429"}},
	{Reason: "quota exceeded", Any: []string{"quota"}},
	{Reason: "audio provider error", Any: []string{"audioprovidererror", "audio provider", "lookuperror"}},
	{Reason: "network error", Any: []string{
		"connection reset", "connection refused", "connectionerror", "network is unreachable",
		"temporary failure in name resolution", "read timed out", "remote end closed connection",
		"http error 500", "http error 502", "http error 503", "http error 504",
	}},
}

func init() {
	for i := range NonRetryableRules {
		NonRetryableRules[i].Class = model.NonRetryableFailure
	}
	for i := range RetryableRules {
		RetryableRules[i].Class = model.RetryableFailure
	}
}

// First returns the first rule in rules matching text, lowercasing it first.
func First(rules []Rule, text string) (Rule, bool) {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		if r.Match(lowered) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classifier applies the outcome policy. The zero value uses the package rule
// tables.
type Classifier struct {
	NonRetryable []Rule
	Retryable    []Rule
}

// Default is the classifier used by Classify.
var Default = Classifier{}

// Classify is Default.Classify.
func Classify(o model.AttemptOutcome) model.AttemptOutcome {
	return Default.Classify(o)
}

// Classify returns a copy of o with its classification and reason set. First
// match wins:
//  1. the process never started: ProcessError
//  2. exit 0 and no fatal pattern: Success
//  3. a non-retryable pattern: NonRetryableFailure
//  4. a retryable pattern: RetryableFailure
//  5. the process hit its deadline: Timeout
//  6. any other result: RetryableFailure with the exit code and an output excerpt
func (c Classifier) Classify(o model.AttemptOutcome) model.AttemptOutcome {
	if !o.Exited && !o.TimedOut {
		reason := o.StartErr
		if reason == "" {
			reason = "process did not report an exit status"
		}
		return o.Classified(model.ProcessError, reason)
	}

	lowered := strings.ToLower(o.Output)
	nonRetryable := c.nonRetryable()

	if o.Exited && o.ExitCode == 0 && !o.TimedOut {
		for _, r := range nonRetryable {
			if r.Fatal && r.Match(lowered) {
				return o.Classified(model.NonRetryableFailure, r.Reason)
			}
		}
		return o.Classified(model.Success, "downloaded")
	}

	for _, r := range nonRetryable {
		if r.Match(lowered) {
			return o.Classified(model.NonRetryableFailure, r.Reason)
		}
	}
	for _, r := range c.retryable() {
		if r.Match(lowered) {
			return o.Classified(model.RetryableFailure, r.Reason)
		}
	}
	if o.TimedOut {
		return o.Classified(model.Timeout, fmt.Sprintf("timed out after %s", o.Duration.Round(time.Second)))
	}
	reason := fmt.Sprintf("exit code %s", o.ExitStatus())
	if tail := o.Tail(DetailLimit); tail != "" {
		reason += ": " + tail
	}
	return o.Classified(model.RetryableFailure, reason)
}

func (c Classifier) nonRetryable() []Rule {
	if c.NonRetryable != nil {
		return c.NonRetryable
	}
	return NonRetryableRules
}

func (c Classifier) retryable() []Rule {
	if c.Retryable != nil {
		return c.Retryable
	}
	return RetryableRules
}
