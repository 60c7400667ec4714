// Package retry drives the invoke and classify cycle for a single request.
package retry

import (
	"context"
	"time"

	"github.com/jmagar/tunefetch/internal/classify"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/runlog"
)

// Invoker runs one attempt. *invoke.Invoker satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req model.DownloadRequest, cfg *model.Config) model.AttemptOutcome
}

// Limiter gates each attempt. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Acquire(ctx context.Context) (time.Duration, error)
}

// Controller retries retryable outcomes up to the configured budget.
type Controller struct {
	Invoker  Invoker
	Limiter  Limiter
	Log      runlog.Logger
	Classify func(model.AttemptOutcome) model.AttemptOutcome
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnAttempt is called after every classified attempt, including the last.
	OnAttempt func(outcome model.AttemptOutcome, willRetry bool)
}

// New returns a controller with the default classifier.
func New(inv Invoker, limiter Limiter, log runlog.Logger) *Controller {
	return &Controller{Invoker: inv, Limiter: limiter, Log: log}
}

// Attempt runs req until it succeeds, hits a non-retryable outcome, or spends
// cfg.MaxRetries attempts. The retry delay is only slept between attempts.
// Exactly one record goes to the logger per call.
func (c *Controller) Attempt(ctx context.Context, req model.DownloadRequest, cfg *model.Config) (bool, model.AttemptOutcome) {
	budget := cfg.Attempts()
	var last model.AttemptOutcome
	for n := 1; n <= budget; n++ {
		if n > 1 {
			if err := c.sleep(ctx, cfg.RetryDelayDuration()); err != nil {
				return c.interrupted(req, last, n-1, err)
			}
		}
		if c.Limiter != nil {
			if _, err := c.Limiter.Acquire(ctx); err != nil {
				return c.interrupted(req, last, n-1, err)
			}
		}

		out := c.classify(c.Invoker.Invoke(ctx, req, cfg))
		out.Attempt = n
		if out.Target == "" {
			out.Target = req.Target
		}
		last = out

		if ctx.Err() != nil {
			return c.interrupted(req, last, n, ctx.Err())
		}
		switch {
		case out.Classification == model.Success:
			c.notify(out, false)
			c.log(runlog.Success, "downloaded", req, out)
			return true, out
		case out.Classification == model.NonRetryableFailure:
			c.notify(out, false)
			c.log(runlog.Failure, "non-retryable failure", req, out)
			return false, out
		}
		c.notify(out, n < budget)
	}

	sink := runlog.Failure
	if last.Classification == model.ProcessError {
		sink = runlog.Error
	}
	c.log(sink, "attempts exhausted", req, last)
	return false, last
}

// interrupted ends the loop on context cancellation. The outcome keeps the last
// attempt's text so callers can still report it.
func (c *Controller) interrupted(req model.DownloadRequest, last model.AttemptOutcome, attempts int, err error) (bool, model.AttemptOutcome) {
	out := last.Classified(model.ProcessError, "interrupted: "+err.Error())
	out.Target = req.Target
	out.Attempt = attempts
	c.log(runlog.Error, "interrupted", req, out)
	return false, out
}

func (c *Controller) classify(o model.AttemptOutcome) model.AttemptOutcome {
	if c.Classify != nil {
		return c.Classify(o)
	}
	return classify.Classify(o)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Controller) notify(out model.AttemptOutcome, willRetry bool) {
	if c.OnAttempt != nil {
		c.OnAttempt(out, willRetry)
	}
}

func (c *Controller) log(sink runlog.Sink, msg string, req model.DownloadRequest, out model.AttemptOutcome) {
	if c.Log == nil {
		return
	}
	c.Log.Log(sink, msg,
		"target", req.Target,
		"kind", req.Kind.String(),
		"attempts", out.Attempt,
		"class", out.Classification.String(),
		"reason", out.Reason,
		"exit", out.ExitStatus(),
		"duration", out.Duration.Round(time.Millisecond).String(),
	)
}
