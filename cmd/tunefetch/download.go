package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/profile"
	"github.com/jmagar/tunefetch/internal/ui"
)

// requireTool fails fast when the profile binary is missing.
func (a *app) requireTool() bool {
	if _, err := a.invoker.Resolve(); err != nil {
		ui.PrintError(err.Error())
		if errors.Is(err, model.ErrToolNotInstalled) {
			ui.PrintInfo(fmt.Sprintf("Install %s or pick another profile with --profile", a.profile.Binary))
		}
		return false
	}
	return true
}

func (a *app) downloadOne(ctx context.Context, kind model.Kind, target string) int {
	if !a.requireTool() {
		return exitFailure
	}
	if detected, ok := profile.DetectKind(target); ok && detected != kind {
		ui.PrintWarning(fmt.Sprintf("%s looks like a %s, downloading it as a %s", target, detected, kind))
	}

	if !a.args.NoValidate {
		r := a.validator.Validate(ctx, target, a.cfg)
		if ctx.Err() != nil {
			return exitInterrupted
		}
		if r.Available {
			msg := "Validated " + target
			if r.Metadata != nil {
				msg += ": " + r.Metadata.Summary()
			}
			ui.PrintSuccess(msg)
		} else {
			ui.PrintWarning(fmt.Sprintf("%s failed validation: %s", target, r.Message))
			if !a.confirm("Download anyway?", false) {
				ui.PrintSkip("Skipped " + target)
				return exitFailure
			}
		}
	}

	req, err := a.request(kind, target)
	if err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	return a.finish(ctx, req)
}

// search downloads the best match for a free-text query. Queries are not
// validated.
func (a *app) search(ctx context.Context, query []string) int {
	if !a.requireTool() {
		return exitFailure
	}
	q := strings.Join(query, " ")
	ui.PrintMusic(fmt.Sprintf("Searching for %q", q))
	req, err := a.request(model.KindSearchQuery, q)
	if err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	return a.finish(ctx, req)
}

// saved downloads one of the profile's user collections.
func (a *app) saved(ctx context.Context, collection string) int {
	if !a.requireTool() {
		return exitFailure
	}
	if len(a.profile.Collections) == 0 {
		ui.PrintError(fmt.Sprintf("Profile %s has no saved collections", a.profile.Name))
		return exitUsage
	}
	if !a.cfg.UseCookies {
		ui.PrintWarning("Saved collections usually need authentication; enable use_cookies or pass --cookies")
	}
	req, err := a.request(model.KindUserCollection, collection)
	if err != nil {
		ui.PrintError(err.Error())
		return exitUsage
	}
	return a.finish(ctx, req)
}

func (a *app) finish(ctx context.Context, req model.DownloadRequest) int {
	ok, _ := a.download(ctx, req)
	if ctx.Err() != nil {
		return exitInterrupted
	}
	if !ok {
		return exitFailure
	}
	a.upload(ctx)
	return exitOK
}

// confirm asks a yes/no question unless --yes was given. Off a terminal it answers def.
func (a *app) confirm(message string, def bool) bool {
	if a.args.Yes {
		return true
	}
	answer, err := ui.Confirm(message, def)
	if err != nil && !errors.Is(err, ui.ErrNotInteractive) {
		ui.PrintWarning(fmt.Sprintf("Prompt failed: %v", err))
		return def
	}
	return answer
}
