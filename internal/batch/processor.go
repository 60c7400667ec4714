package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/runlog"
	"github.com/jmagar/tunefetch/internal/validate"
)

// ValidationMode selects how a batch treats targets the validator rejects.
type ValidationMode int

const (
	ValidateAsk ValidationMode = iota
	ValidateAvailable
	ValidateAll
	ValidateSkip
)

// ParseValidationMode maps the --validate flag value.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ask":
		return ValidateAsk, nil
	case "available":
		return ValidateAvailable, nil
	case "all":
		return ValidateAll, nil
	case "skip", "none", "off":
		return ValidateSkip, nil
	default:
		return ValidateAsk, fmt.Errorf("invalid validation mode %q: use ask, available, all or skip", s)
	}
}

// Choice is the caller's answer after validation.
type Choice int

const (
	ChoiceAvailable Choice = iota
	ChoiceAll
	ChoiceAbort
)

// Downloader runs one request to a terminal outcome. *retry.Controller satisfies it.
type Downloader interface {
	Attempt(ctx context.Context, req model.DownloadRequest, cfg *model.Config) (bool, model.AttemptOutcome)
}

// Validator checks one target. *validate.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, target string, cfg *model.Config) validate.Result
}

// RequestBuilder turns a manifest target into a request.
type RequestBuilder func(target string) (model.DownloadRequest, error)

// ValidationSummary is handed to the chooser when some targets failed validation.
type ValidationSummary struct {
	Results     []validate.Result
	Available   int
	Unavailable int
}

// Rejected returns the results judged unavailable.
func (s ValidationSummary) Rejected() []validate.Result {
	return lo.Filter(s.Results, func(r validate.Result, _ int) bool { return !r.Available })
}

// Failure names one item that did not download.
type Failure struct {
	Target string
	Reason string
}

// Result aggregates a batch run. Failed includes ValidationFailed.
type Result struct {
	Total            int
	Success          int
	Failed           int
	Skipped          int
	ValidationFailed int
	// Remaining counts items left untouched by an interrupt or abort.
	Remaining   int
	Interrupted bool
	Aborted     bool
	Failures    []Failure
	Duration    time.Duration
}

// Processor drives a manifest through validation and the retry controller.
type Processor struct {
	Downloader Downloader
	// Validator is optional. Nil disables validation.
	Validator Validator
	Build     RequestBuilder
	Mode      ValidationMode
	// Choose answers ValidateAsk. Nil keeps only available targets.
	Choose func(ValidationSummary) Choice
	Log    runlog.Logger

	OnValidated func(n, total int, r validate.Result)
	OnStart     func(n, total int, target string)
	OnDone      func(n, total int, item model.BatchItem, out model.AttemptOutcome)

	// LockRetries is how often to retry a busy manifest lock.
	LockRetries int
}

// Process runs every pending line of the manifest at path. Markers are
// flushed after each item. Per-item failures never end the run; only manifest
// I/O and lock errors are returned, together with the counts reached so far.
func (p *Processor) Process(ctx context.Context, path string, cfg *model.Config) (res Result, err error) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	lock, err := AcquireLock(path+".lock", p.LockRetries)
	if err != nil {
		return res, err
	}
	defer lock.Release()

	m, err := ReadManifest(path)
	if err != nil {
		return res, err
	}

	work := m.Pending()
	res.Skipped = m.Done()
	res.Total = len(work)
	if len(work) == 0 {
		return res, nil
	}

	if p.Validator != nil && p.Mode != ValidateSkip {
		var stop bool
		work, stop, err = p.validate(ctx, m, work, cfg, &res)
		if err != nil || stop {
			return res, err
		}
	}

	for n, i := range work {
		if ctx.Err() != nil {
			res.Interrupted = true
			res.Remaining = len(work) - n
			break
		}
		target := m.Items[i].CleanTarget
		if p.OnStart != nil {
			p.OnStart(n+1, len(work), target)
		}

		var out model.AttemptOutcome
		ok := false
		req, buildErr := p.Build(target)
		if buildErr != nil {
			out = model.AttemptOutcome{Target: target}.Classified(model.NonRetryableFailure, buildErr.Error())
			p.log(runlog.Failure, "invalid target", target, buildErr.Error())
		} else {
			ok, out = p.Downloader.Attempt(ctx, req, cfg)
		}

		if ctx.Err() != nil && !ok {
			// The line keeps its previous marker so the next run retries it.
			res.Interrupted = true
			res.Remaining = len(work) - n
			break
		}

		if ok {
			m.Mark(i, model.StatusDownloaded, "")
			res.Success++
		} else {
			m.Mark(i, model.StatusFailed, "")
			res.Failed++
			res.Failures = append(res.Failures, Failure{Target: target, Reason: out.Reason})
		}
		if err := m.Save(); err != nil {
			return res, err
		}
		if p.OnDone != nil {
			p.OnDone(n+1, len(work), m.Items[i], out)
		}
	}
	return res, nil
}

// validate checks every pending target and applies the chosen policy. It
// returns the work list to download and whether the run should stop.
func (p *Processor) validate(ctx context.Context, m *Manifest, work []int, cfg *model.Config, res *Result) ([]int, bool, error) {
	summary := ValidationSummary{Results: make([]validate.Result, 0, len(work))}
	for n, i := range work {
		if ctx.Err() != nil {
			res.Interrupted = true
			res.Remaining = len(work)
			return nil, true, nil
		}
		r := p.Validator.Validate(ctx, m.Items[i].CleanTarget, cfg)
		summary.Results = append(summary.Results, r)
		if p.OnValidated != nil {
			p.OnValidated(n+1, len(work), r)
		}
	}
	if ctx.Err() != nil {
		res.Interrupted = true
		res.Remaining = len(work)
		return nil, true, nil
	}

	summary.Available = lo.CountBy(summary.Results, func(r validate.Result) bool { return r.Available })
	summary.Unavailable = len(summary.Results) - summary.Available
	if summary.Unavailable == 0 {
		return work, false, nil
	}

	choice := p.choose(summary)
	switch choice {
	case ChoiceAbort:
		res.Aborted = true
		res.Remaining = len(work)
		return nil, true, nil
	case ChoiceAll:
		return work, false, nil
	}

	kept := make([]int, 0, summary.Available)
	for n, i := range work {
		r := summary.Results[n]
		if r.Available {
			kept = append(kept, i)
			continue
		}
		m.Mark(i, model.StatusValidationFailed, r.Message)
		res.ValidationFailed++
		res.Failed++
		res.Failures = append(res.Failures, Failure{Target: r.Target, Reason: r.Message})
		p.log(runlog.Failure, "validation failed", r.Target, r.Message)
	}
	if err := m.Save(); err != nil {
		return nil, true, err
	}
	res.Total = len(kept) + res.ValidationFailed
	return kept, false, nil
}

func (p *Processor) choose(s ValidationSummary) Choice {
	switch p.Mode {
	case ValidateAvailable:
		return ChoiceAvailable
	case ValidateAll:
		return ChoiceAll
	}
	if p.Choose == nil {
		return ChoiceAvailable
	}
	return p.Choose(s)
}

func (p *Processor) log(sink runlog.Sink, msg, target, reason string) {
	if p.Log == nil {
		return
	}
	p.Log.Log(sink, msg, "target", target, "reason", reason)
}

// Summary renders the one-line aggregate shown at the end of every run.
func (r Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", r.Success, r.Failed)
	if r.ValidationFailed > 0 {
		fmt.Fprintf(&b, " (%d failed validation)", r.ValidationFailed)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, ", %d already downloaded", r.Skipped)
	}
	switch {
	case r.Aborted:
		fmt.Fprintf(&b, ", aborted with %d not started", r.Remaining)
	case r.Interrupted:
		fmt.Fprintf(&b, ", interrupted with %d not started", r.Remaining)
	}
	return b.String()
}

// Err reports an interrupt or abort as an error for exit-code handling.
func (r Result) Err() error {
	switch {
	case r.Aborted:
		return model.ErrBatchAborted
	case r.Interrupted:
		return context.Canceled
	}
	return nil
}

// IsStop reports whether err ended a batch early rather than failing it.
func IsStop(err error) bool {
	return errors.Is(err, model.ErrBatchAborted) || errors.Is(err, context.Canceled)
}
