// Command tunefetch downloads music through spotdl or yt-dlp with validation,
// retries, rate limiting and resumable batch manifests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmagar/tunefetch/internal/config"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/ui"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	model.ArgsDescriptionFunc = description
	if len(os.Args) > 1 && os.Args[1] == "help" {
		os.Args[1] = "--help"
	}
	args := config.ParseArgs()

	sess, err := config.Resolve(args)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to load config: %v", err))
		return exitFailure
	}
	if sess.Created {
		ui.PrintInfo(fmt.Sprintf("Created %s with default settings", sess.Path))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(sess, args)
	if err != nil {
		ui.PrintError(err.Error())
		return exitFailure
	}
	defer a.Close()

	code := a.dispatch(ctx)
	if ctx.Err() != nil && code != exitOK {
		return exitInterrupted
	}
	return code
}

// dispatch runs the selected subcommand.
func (a *app) dispatch(ctx context.Context) int {
	args := a.args
	switch {
	case args.Track != nil:
		return a.downloadOne(ctx, model.KindTrack, args.Track.URL)
	case args.Album != nil:
		return a.downloadOne(ctx, model.KindAlbum, args.Album.URL)
	case args.Playlist != nil:
		return a.downloadOne(ctx, model.KindPlaylist, args.Playlist.URL)
	case args.Artist != nil:
		return a.downloadOne(ctx, model.KindArtist, args.Artist.URL)
	case args.Search != nil:
		return a.search(ctx, args.Search.Query)
	case args.Saved != nil:
		return a.saved(ctx, args.Saved.Collection)
	case args.Batch != nil:
		return a.batch(ctx, args.Batch)
	case args.Validate != nil:
		return a.validateTargets(ctx, args.Validate.Targets)
	case args.Import != nil:
		return a.importPlaylist(args.Import)
	case args.Config != nil:
		return a.configCmd(args.Config.Action)
	case args.Check != nil:
		return a.check(ctx)
	case args.Cleanup != nil:
		return a.cleanup(args.Cleanup.DryRun)
	case args.Completion != nil:
		return completionCmd(args.Completion.Shell)
	}
	ui.PrintError("No command given. Run tunefetch --help for usage.")
	return exitUsage
}

func description() string {
	return "tunefetch downloads tracks, albums, playlists and artists with spotdl or yt-dlp.\n" +
		"Failed downloads are retried, calls are rate limited and batch manifests can be re-run safely."
}
