package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmagar/tunefetch/internal/config"
	"github.com/jmagar/tunefetch/internal/helpers"
	"github.com/jmagar/tunefetch/internal/invoke"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/notify"
	"github.com/jmagar/tunefetch/internal/profile"
	"github.com/jmagar/tunefetch/internal/ratelimit"
	"github.com/jmagar/tunefetch/internal/rclone"
	"github.com/jmagar/tunefetch/internal/retry"
	"github.com/jmagar/tunefetch/internal/runlog"
	"github.com/jmagar/tunefetch/internal/ui"
	"github.com/jmagar/tunefetch/internal/validate"
)

// app wires one run's components. The limiter is shared by validation and
// downloads so both count against the same budget.
type app struct {
	args      *model.Args
	sess      *config.Session
	cfg       *model.Config
	profile   *profile.Profile
	log       *runlog.FileLogger
	limiter   *ratelimit.Limiter
	invoker   *invoke.Invoker
	validator *validate.Validator
	retry     *retry.Controller
	uploader  *rclone.Uploader
	notifier  notify.Notifier
	bar       *ui.ProgressBar
}

func newApp(sess *config.Session, args *model.Args) (*app, error) {
	cfg := sess.Config
	var opts []runlog.Option
	if args.Verbose {
		opts = append(opts, runlog.WithMirror(runlog.NewConsole(os.Stderr)))
	}
	logger, err := runlog.Open(cfg.LogDirectory, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open logs in %s: %w", cfg.LogDirectory, err)
	}

	a := &app{
		args:     args,
		sess:     sess,
		cfg:      cfg,
		profile:  sess.Profile,
		log:      logger,
		limiter:  ratelimit.New(cfg.CallsPerMinute),
		invoker:  invoke.New(sess.Profile),
		uploader: rclone.NewUploader(),
		notifier: notify.BuildNotifier(cfg.GotifyURL, cfg.GotifyToken),
	}
	a.invoker.OnProgress = a.progress
	a.validator = validate.New(a.invoker, a.limiter, cfg.ValidateTimeoutDuration())
	a.retry = retry.New(a.invoker, a.limiter, logger)
	a.retry.OnAttempt = a.onAttempt
	return a, nil
}

// Close flushes the outcome logs.
func (a *app) Close() {
	if err := a.log.Close(); err != nil {
		ui.PrintWarning(fmt.Sprintf("Failed to close logs: %v", err))
	}
}

func (a *app) onAttempt(out model.AttemptOutcome, willRetry bool) {
	if !willRetry {
		return
	}
	a.bar.Reset()
	ui.PrintRetry(fmt.Sprintf("Attempt %d/%d for %s failed [%s]: %s; retrying in %s",
		out.Attempt, a.cfg.Attempts(), out.Target, out.Classification,
		model.Truncate(out.Reason, 120), a.cfg.RetryDelayDuration()))
}

// request builds req for target and creates the fixed part of its output path.
func (a *app) request(kind model.Kind, target string) (model.DownloadRequest, error) {
	req, err := a.profile.Build(kind, target, a.cfg.OutputDirectory)
	if err != nil {
		return req, err
	}
	return req, a.prepareOutput(req)
}

func (a *app) batchRequest(target string) (model.DownloadRequest, error) {
	req, err := a.profile.ForBatchLine(target, a.cfg.OutputDirectory)
	if err != nil {
		return req, err
	}
	return req, a.prepareOutput(req)
}

func (a *app) prepareOutput(req model.DownloadRequest) error {
	dir := helpers.TemplateDir(req.OutputTemplate)
	if err := helpers.ValidatePath(dir); err != nil {
		return fmt.Errorf("invalid output path %q: %w", dir, err)
	}
	if dir == "." {
		return nil
	}
	if err := helpers.MakeDirs(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// download runs req through the retry controller with a progress bar and prints
// the one-line outcome.
func (a *app) download(ctx context.Context, req model.DownloadRequest) (bool, model.AttemptOutcome) {
	ui.PrintDownload(fmt.Sprintf("Downloading %s with %s", req, a.profile.Name))
	ok, out := a.retry.Attempt(ctx, req, a.cfg)
	a.endProgress()
	ui.PrintOutcome(out)
	return ok, out
}

// progress draws the download bar, creating it on the first parsed update.
func (a *app) progress(p model.Progress) {
	if a.bar == nil {
		a.bar = ui.NewProgressBar("download")
	}
	a.bar.Update(p)
}

func (a *app) endProgress() {
	a.bar.Finish()
	a.bar = nil
}

// upload copies the output directory when rclone is enabled. Failures are
// reported, never fatal.
func (a *app) upload(ctx context.Context) {
	if !a.cfg.RcloneEnabled || ctx.Err() != nil {
		return
	}
	start := time.Now()
	var bar *ui.ProgressBar
	err := a.uploader.Upload(ctx, a.cfg, a.cfg.OutputDirectory, rclone.Hooks{
		OnStart: func(remote string, total int64) {
			ui.PrintUpload(fmt.Sprintf("Uploading %s (%s) to %s", a.cfg.OutputDirectory, ui.DescribeSize(total), remote))
			bar = ui.NewProgressBar("upload")
		},
		OnProgress: func(p rclone.Progress) {
			bar.Update(model.Progress{Percent: float64(p.Percent), Speed: p.Speed})
		},
		OnComplete: func() { bar.Finish() },
		OnDelete: func(dir string) {
			ui.PrintInfo(fmt.Sprintf("Upload verified; deleting local files in %s", dir))
		},
	})
	if err != nil {
		bar.Finish()
		ui.PrintError(fmt.Sprintf("Upload failed: %v", err))
		a.log.Log(runlog.Error, "upload failed", "dir", a.cfg.OutputDirectory, "reason", err.Error())
		return
	}
	ui.PrintSuccess(fmt.Sprintf("Upload complete in %s", ui.DescribeDuration(time.Since(start))))
}
