package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jmagar/tunefetch/internal/batch"
	"github.com/jmagar/tunefetch/internal/completion"
	"github.com/jmagar/tunefetch/internal/config"
	"github.com/jmagar/tunefetch/internal/helpers"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/rclone"
	"github.com/jmagar/tunefetch/internal/ui"
	"github.com/jmagar/tunefetch/internal/validate"
)

// validateTargets checks each target and prints a table. Arguments ending in
// .txt are read as lists of targets. The exit code is non-zero when any target
// is unavailable.
func (a *app) validateTargets(ctx context.Context, args []string) int {
	if !a.requireTool() {
		return exitFailure
	}
	targets, err := helpers.ProcessUrls(args)
	if err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	results := a.validator.ValidateAll(ctx, targets, a.cfg, func(i int, r validate.Result) {
		a.onValidated(i+1, len(targets), r)
	})
	if ctx.Err() != nil {
		return exitInterrupted
	}

	t := ui.NewTable("Target", "Status", "Details")
	unavailable := 0
	for _, r := range results {
		status, details := "available", r.Message
		if r.Metadata != nil && r.Available {
			details = r.Metadata.Summary()
		}
		if !r.Available {
			status = "unavailable"
			unavailable++
		}
		t.AddRow(ui.TruncateWithEllipsis(r.Target, 60), status, details)
	}
	ui.PrintSection("Validation")
	t.Print()
	if unavailable > 0 {
		ui.PrintWarning(fmt.Sprintf("%d of %d target(s) unavailable", unavailable, len(results)))
		return exitFailure
	}
	ui.PrintSuccess(fmt.Sprintf("All %d target(s) available", len(results)))
	return exitOK
}

func (a *app) importPlaylist(cmd *model.ImportCmd) int {
	manifest := cmd.Manifest
	if manifest == "" {
		manifest = a.cfg.ManifestPath
	}
	res, err := batch.Import(cmd.Playlist, manifest)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Import failed: %v", err))
		return exitFailure
	}
	ui.PrintSuccess(fmt.Sprintf("Added %d target(s) to %s", res.Added, manifest))
	if res.Duplicates > 0 {
		ui.PrintSkip(fmt.Sprintf("%d already listed", res.Duplicates))
	}
	if res.Local > 0 {
		ui.PrintWarning(fmt.Sprintf("%d local file entr(ies) ignored", res.Local))
	}
	return exitOK
}

func (a *app) configCmd(action string) int {
	switch strings.ToLower(action) {
	case "", "show":
		return a.showConfig()
	case "save":
		if err := a.sess.Save(); err != nil {
			ui.PrintError(err.Error())
			return exitFailure
		}
		ui.PrintSuccess("Saved " + a.sess.Path)
		return exitOK
	case "reset":
		if !a.confirm(fmt.Sprintf("Overwrite %s with defaults?", a.sess.Path), false) {
			ui.PrintSkip("Config unchanged")
			return exitOK
		}
		if err := config.Save(a.sess.Path, config.Defaults(a.profile.Name, a.profile)); err != nil {
			ui.PrintError(err.Error())
			return exitFailure
		}
		ui.PrintSuccess("Reset " + a.sess.Path)
		return exitOK
	default:
		ui.PrintError(fmt.Sprintf("Unknown config action %q: use show, save or reset", action))
		return exitUsage
	}
}

func (a *app) showConfig() int {
	ui.PrintHeader("Configuration")
	ui.PrintKeyValue("File", a.sess.Path, ui.ColorBold)
	ui.PrintKeyValue("Profile", a.profile.Name, ui.ColorCyan)
	ui.PrintKeyValue("Profiles", strings.Join(a.sess.Registry.Names(), ", "), ui.ColorCyan)
	ui.PrintKeyValue("Auth", ui.DescribeAuthStatus(a.cfg), ui.ColorCyan)
	ui.PrintKeyValue("Upload", rclone.RemoteStatus(context.Background(), a.cfg), ui.ColorCyan)

	// Secrets are masked in the dump.
	shown := *a.cfg
	if shown.AuthToken != "" {
		shown.AuthToken = "********"
	}
	if shown.GotifyToken != "" {
		shown.GotifyToken = "********"
	}
	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		ui.PrintError(err.Error())
		return exitFailure
	}
	ui.PrintSection("Settings")
	fmt.Fprintln(ui.Out, string(data))
	return exitOK
}

// check reports the downloader, ffmpeg and rclone installations.
func (a *app) check(ctx context.Context) int {
	ui.PrintHeader("Tools")
	code := exitOK

	if path, err := a.invoker.Resolve(); err != nil {
		ui.PrintError(err.Error())
		code = exitFailure
	} else {
		version, verr := a.invoker.Version(ctx)
		if verr != nil {
			ui.PrintWarning(fmt.Sprintf("%s at %s: %v", a.profile.Binary, path, verr))
		} else {
			ui.PrintSuccess(fmt.Sprintf("%s %s (%s)", a.profile.Binary, version, path))
		}
	}

	if path, err := exec.LookPath("ffmpeg"); err != nil {
		ui.PrintWarning("ffmpeg not found on PATH; audio conversion will fail")
	} else {
		ui.PrintSuccess("ffmpeg (" + path + ")")
	}

	if a.cfg.RcloneEnabled {
		version, err := rclone.Version(ctx)
		if err != nil {
			ui.PrintError(fmt.Sprintf("rclone: %v", err))
			code = exitFailure
		} else {
			ui.PrintSuccess(version)
		}
	}

	t := ui.NewTable("Setting", "Value")
	t.AddRow("Calls per minute", strconv.Itoa(a.cfg.CallsPerMinute))
	t.AddRow("Attempts", strconv.Itoa(a.cfg.Attempts()))
	t.AddRow("Retry delay", ui.DescribeDuration(a.cfg.RetryDelayDuration()))
	t.AddRow("Download timeout", ui.DescribeDuration(a.cfg.DownloadTimeoutDuration()))
	t.AddRow("Validate timeout", ui.DescribeDuration(a.cfg.ValidateTimeoutDuration()))
	t.AddRow("Collections", strings.Join(a.profile.CollectionNames(), ", "))
	t.Print()
	return code
}

// cleanup removes empty directories left behind under the output directory.
func (a *app) cleanup(dryRun bool) int {
	root := a.cfg.OutputDirectory
	exists, err := helpers.DirExists(root)
	if err != nil {
		ui.PrintError(err.Error())
		return exitFailure
	}
	if !exists {
		ui.PrintInfo(root + " does not exist; nothing to clean")
		return exitOK
	}
	dirs, err := helpers.RemoveEmptyDirs(root, dryRun)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Cleanup failed: %v", err))
		return exitFailure
	}
	if len(dirs) == 0 {
		ui.PrintSuccess("No empty directories under " + root)
		return exitOK
	}
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	ui.PrintInfo(fmt.Sprintf("%s %d empty director(ies):", verb, len(dirs)))
	ui.PrintList(dirs, ui.ColorYellow)
	return exitOK
}

func completionCmd(shell string) int {
	if shell == "" {
		completion.Usage(ui.Out)
		return exitOK
	}
	if err := completion.Write(ui.Out, shell); err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	return exitOK
}
