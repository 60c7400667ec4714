package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmagar/tunefetch/internal/batch"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/notify"
	"github.com/jmagar/tunefetch/internal/ui"
	"github.com/jmagar/tunefetch/internal/validate"
)

const maxListedFailures = 20

func (a *app) batch(ctx context.Context, cmd *model.BatchCmd) int {
	mode, err := batch.ParseValidationMode(cmd.Validate)
	if err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	if a.args.NoValidate {
		mode = batch.ValidateSkip
	}
	if mode == batch.ValidateAsk && a.args.Yes {
		mode = batch.ValidateAll
	}
	path := cmd.File
	if path == "" {
		path = a.cfg.ManifestPath
	}
	if !a.requireTool() {
		return exitFailure
	}

	p := &batch.Processor{
		Downloader:  a.retry,
		Validator:   a.validator,
		Build:       a.batchRequest,
		Mode:        mode,
		Choose:      a.chooseAfterValidation,
		Log:         a.log,
		OnValidated: a.onValidated,
		OnStart: func(n, total int, target string) {
			ui.PrintSection(fmt.Sprintf("[%d/%d] %s", n, total, target))
		},
		OnDone: func(n, total int, item model.BatchItem, out model.AttemptOutcome) {
			a.endProgress()
			ui.PrintOutcome(out)
		},
		LockRetries: 10,
	}

	ui.PrintHeader("Batch " + path)
	ui.PrintKeyValue("Profile", a.profile.Name, ui.ColorCyan)
	ui.PrintKeyValue("Output", a.cfg.OutputDirectory, ui.ColorCyan)
	ui.PrintKeyValue("Auth", ui.DescribeAuthStatus(a.cfg), ui.ColorCyan)
	ui.PrintKeyValue("Run ID", a.log.RunID(), ui.ColorBold)

	res, err := p.Process(ctx, path, a.cfg)
	a.endProgress()
	if errors.Is(err, model.ErrManifestLocked) {
		ui.PrintError("Another tunefetch run is using " + path)
		return exitFailure
	}
	a.printBatchResult(res)

	if nerr := notify.NotifyBatch(context.WithoutCancel(ctx), a.notifier, path, res); nerr != nil {
		ui.PrintWarning(fmt.Sprintf("Notification failed: %v", nerr))
	}
	if err != nil {
		ui.PrintError(fmt.Sprintf("Batch failed: %v", err))
		return exitFailure
	}

	switch stop := res.Err(); {
	case errors.Is(stop, model.ErrBatchAborted):
		ui.PrintWarning("Batch aborted; the manifest is unchanged")
		return exitFailure
	case batch.IsStop(stop):
		ui.PrintWarning(fmt.Sprintf("Interrupted; %d item(s) not started. Run the batch again to resume.", res.Remaining))
		return exitInterrupted
	}

	if res.Success > 0 {
		a.upload(ctx)
	}
	if res.Failed > 0 {
		return exitFailure
	}
	return exitOK
}

func (a *app) onValidated(n, total int, r validate.Result) {
	prefix := fmt.Sprintf("[%d/%d] ", n, total)
	if r.Available {
		msg := prefix + r.Target
		if r.Metadata != nil {
			msg += ": " + r.Metadata.Summary()
		}
		ui.PrintSuccess(msg)
		return
	}
	ui.PrintError(prefix + r.Target + ": " + r.Message)
}

// chooseAfterValidation asks what to do with rejected targets. Off a terminal
// only the available ones are downloaded.
func (a *app) chooseAfterValidation(s batch.ValidationSummary) batch.Choice {
	ui.PrintWarning(fmt.Sprintf("%d of %d target(s) failed validation", s.Unavailable, s.Available+s.Unavailable))
	t := ui.NewTable("Target", "Reason")
	for _, r := range s.Rejected() {
		t.AddRow(ui.TruncateWithEllipsis(r.Target, 60), r.Message)
	}
	t.Print()

	options := []string{
		fmt.Sprintf("Download the %d available target(s)", s.Available),
		"Download everything anyway",
		"Abort",
	}
	idx, err := ui.Choose("How do you want to continue?", options, 0)
	switch {
	case errors.Is(err, ui.ErrNotInteractive):
		ui.PrintInfo("No terminal; downloading available targets only")
		return batch.ChoiceAvailable
	case err != nil:
		return batch.ChoiceAbort
	}
	switch idx {
	case 1:
		return batch.ChoiceAll
	case 2:
		return batch.ChoiceAbort
	default:
		return batch.ChoiceAvailable
	}
}

func (a *app) printBatchResult(res batch.Result) {
	ui.PrintSection("Summary")
	t := ui.NewTable("Total", "Downloaded", "Failed", "Validation", "Skipped", "Remaining", "Time")
	t.AddRow(
		strconv.Itoa(res.Total),
		strconv.Itoa(res.Success),
		strconv.Itoa(res.Failed),
		strconv.Itoa(res.ValidationFailed),
		strconv.Itoa(res.Skipped),
		strconv.Itoa(res.Remaining),
		ui.DescribeDuration(res.Duration),
	)
	t.Print()

	if len(res.Failures) > 0 {
		ui.PrintSection("Failures")
		lines := make([]string, 0, len(res.Failures))
		for i, f := range res.Failures {
			if i == maxListedFailures {
				lines = append(lines, fmt.Sprintf("... and %d more, see %s", len(res.Failures)-i, a.cfg.LogDirectory))
				break
			}
			lines = append(lines, f.Target+": "+ui.TruncateWithEllipsis(f.Reason, 100))
		}
		ui.PrintList(lines, ui.ColorRed)
	}

	switch {
	case res.Failed > 0 || res.Interrupted || res.Aborted:
		ui.PrintWarning(res.Summary())
	default:
		ui.PrintSuccess(res.Summary())
	}
}
