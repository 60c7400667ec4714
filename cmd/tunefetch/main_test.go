package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/jmagar/tunefetch/internal/config"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/profile"
	"github.com/jmagar/tunefetch/internal/testutil"
	"github.com/jmagar/tunefetch/internal/ui"
)

// fakeYtdlp answers metadata runs with JSON for targets containing "good" and
// succeeds every download unless the target contains "broken".
const fakeYtdlp = `
case "$*" in
*--skip-download*)
	case "$*" in
	*good*) echo '{"title":"Song","duration":200}' ;;
	*) echo "ERROR: Video unavailable" >&2; exit 1 ;;
	esac ;;
*broken*) echo "ERROR: [youtube] broken: Video unavailable" >&2; exit 1 ;;
*--version*) echo "2024.08.06" ;;
*) echo "[download] 100% of 3.00MiB" ;;
esac`

func newTestApp(t *testing.T, args *model.Args) (*app, string, *bytes.Buffer) {
	t.Helper()
	script, calls := testutil.FakeTool(t, "yt-dlp", fakeYtdlp)

	p := profile.Ytdlp()
	p.Binary = script
	reg := profile.NewRegistry()
	reg.Add(p)

	dir := t.TempDir()
	cfg := config.Defaults(p.Name, p)
	cfg.OutputDirectory = filepath.Join(dir, "music")
	cfg.LogDirectory = filepath.Join(dir, "log")
	cfg.ManifestPath = filepath.Join(dir, "links.txt")
	cfg.RetryDelay = 0
	cfg.MaxRetries = 2
	cfg.CallsPerMinute = 60000

	var out bytes.Buffer
	origOut, origNoColor := ui.Out, color.NoColor
	ui.Out, color.NoColor = &out, true
	t.Cleanup(func() { ui.Out, color.NoColor = origOut, origNoColor })

	if args == nil {
		args = &model.Args{}
	}
	sess := &config.Session{Config: cfg, Path: filepath.Join(dir, "config.json"), Profile: p, Registry: reg}
	a, err := newApp(sess, args)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a, calls, &out
}

func TestDispatch_NoCommand(t *testing.T) {
	a, _, out := newTestApp(t, nil)
	if code := a.dispatch(context.Background()); code != exitUsage {
		t.Fatalf("dispatch() = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(out.String(), "No command given") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestDownloadOne_ValidatesThenDownloads(t *testing.T) {
	a, calls, out := newTestApp(t, &model.Args{Track: &model.TargetCmd{URL: "https://youtu.be/good"}})

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d, output:\n%s", code, out.String())
	}
	got := testutil.Calls(t, calls)
	if len(got) != 2 {
		t.Fatalf("calls = %v, want validation then download", got)
	}
	if !strings.Contains(got[0], "--skip-download") || strings.Contains(got[1], "--skip-download") {
		t.Fatalf("calls = %v", got)
	}
	if _, err := os.Stat(a.cfg.OutputDirectory); err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
}

func TestDownloadOne_RejectedWithoutTerminalIsSkipped(t *testing.T) {
	a, calls, out := newTestApp(t, &model.Args{Track: &model.TargetCmd{URL: "https://youtu.be/gone"}})

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	if got := testutil.Calls(t, calls); len(got) != 1 {
		t.Fatalf("calls = %v, want validation only", got)
	}
	if !strings.Contains(out.String(), "failed validation") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestDownloadOne_YesDownloadsAnyway(t *testing.T) {
	a, calls, _ := newTestApp(t, &model.Args{Yes: true, Track: &model.TargetCmd{URL: "https://youtu.be/gone"}})

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d, want %d", code, exitOK)
	}
	if got := testutil.Calls(t, calls); len(got) != 2 {
		t.Fatalf("calls = %v", got)
	}
}

func TestDownloadOne_NonRetryableFailure(t *testing.T) {
	a, calls, out := newTestApp(t, &model.Args{NoValidate: true, Track: &model.TargetCmd{URL: "broken"}})

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	if got := testutil.Calls(t, calls); len(got) != 1 {
		t.Fatalf("calls = %v, want a single attempt", got)
	}
	if !strings.Contains(out.String(), "Failed") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestSearch_UsesPrefix(t *testing.T) {
	a, calls, _ := newTestApp(t, &model.Args{Search: &model.SearchCmd{Query: []string{"daft", "punk"}}})

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d", code)
	}
	got := testutil.Calls(t, calls)
	if len(got) != 1 || !strings.Contains(got[0], "ytsearch1:daft punk") {
		t.Fatalf("calls = %v", got)
	}
}

func TestSaved_ProfileWithoutCollections(t *testing.T) {
	a, calls, _ := newTestApp(t, &model.Args{Saved: &model.SavedCmd{Collection: "liked"}})

	if code := a.dispatch(context.Background()); code != exitUsage {
		t.Fatalf("dispatch() = %d, want %d", code, exitUsage)
	}
	if got := testutil.Calls(t, calls); len(got) != 0 {
		t.Fatalf("calls = %v", got)
	}
}

func TestBatch_MarksManifest(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{NoValidate: true, Batch: &model.BatchCmd{Validate: "ask"}})
	manifest := "https://youtu.be/good1\nbroken # FAILED\nhttps://youtu.be/good2 # DOWNLOADED\n"
	if err := os.WriteFile(a.cfg.ManifestPath, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	data, err := os.ReadFile(a.cfg.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://youtu.be/good1 # DOWNLOADED\nbroken # FAILED\nhttps://youtu.be/good2 # DOWNLOADED\n"
	if string(data) != want {
		t.Fatalf("manifest =\n%s\nwant\n%s", data, want)
	}
	if !strings.Contains(out.String(), "1 succeeded, 1 failed") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestBatch_ValidationWithoutTerminalKeepsAvailable(t *testing.T) {
	a, calls, _ := newTestApp(t, &model.Args{Batch: &model.BatchCmd{Validate: "ask"}})
	if err := os.WriteFile(a.cfg.ManifestPath, []byte("https://youtu.be/good\nhttps://youtu.be/gone\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	downloads := 0
	for _, c := range testutil.Calls(t, calls) {
		if !strings.Contains(c, "--skip-download") {
			downloads++
		}
	}
	if downloads != 1 {
		t.Fatalf("downloads = %d, want 1", downloads)
	}
	data, _ := os.ReadFile(a.cfg.ManifestPath)
	if !strings.Contains(string(data), "https://youtu.be/gone # VALIDATION_FAILED: ") {
		t.Fatalf("manifest =\n%s", data)
	}
}

func TestBatch_InvalidMode(t *testing.T) {
	a, _, _ := newTestApp(t, &model.Args{Batch: &model.BatchCmd{Validate: "sometimes"}})
	if code := a.dispatch(context.Background()); code != exitUsage {
		t.Fatalf("dispatch() = %d, want %d", code, exitUsage)
	}
}

func TestValidateTargets_Table(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Validate: &model.ValidateCmd{Targets: []string{"https://youtu.be/good", "https://youtu.be/gone"}}})

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	text := out.String()
	for _, want := range []string{"available", "unavailable", "1 of 2 target(s) unavailable"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestImportPlaylist(t *testing.T) {
	a, _, out := newTestApp(t, nil)
	playlist := filepath.Join(t.TempDir(), "mix.m3u")
	body := "https://youtu.be/a\n/home/me/song.mp3\nhttps://youtu.be/a\n"
	if err := os.WriteFile(playlist, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	a.args.Import = &model.ImportCmd{Playlist: playlist}

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d, output:\n%s", code, out.String())
	}
	data, err := os.ReadFile(a.cfg.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "https://youtu.be/a\n" {
		t.Fatalf("manifest = %q", data)
	}
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Config: &model.ConfigCmd{Action: "show"}})
	a.cfg.AuthToken = "secret-token"
	a.cfg.GotifyToken = "gotify-token"

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d", code)
	}
	text := out.String()
	if strings.Contains(text, "secret-token") || strings.Contains(text, "gotify-token") {
		t.Fatalf("secrets leaked:\n%s", text)
	}
	if a.cfg.AuthToken != "secret-token" {
		t.Fatal("showing the config modified it")
	}
}

func TestConfigSave(t *testing.T) {
	a, _, _ := newTestApp(t, &model.Args{Config: &model.ConfigCmd{Action: "save"}})
	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d", code)
	}
	cfg, created, err := config.Load(a.sess.Path, config.Defaults("yt-dlp", a.profile))
	if err != nil || created {
		t.Fatalf("Load() = %v, created=%v", err, created)
	}
	if cfg.OutputDirectory != a.cfg.OutputDirectory {
		t.Fatalf("saved output = %q, want %q", cfg.OutputDirectory, a.cfg.OutputDirectory)
	}
}

func TestCheck_ReportsTool(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Check: &model.CheckCmd{}})
	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d, output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "2024.08.06") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestMissingTool(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Track: &model.TargetCmd{URL: "https://youtu.be/good"}})
	a.profile.Binary = filepath.Join(t.TempDir(), "missing-yt-dlp")

	if code := a.dispatch(context.Background()); code != exitFailure {
		t.Fatalf("dispatch() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out.String(), "not found on PATH") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCleanup_DryRun(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Cleanup: &model.CleanupCmd{DryRun: true}})
	empty := filepath.Join(a.cfg.OutputDirectory, "Artist", "Album")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d", code)
	}
	if _, err := os.Stat(empty); err != nil {
		t.Fatalf("dry run removed %s", empty)
	}
	if !strings.Contains(out.String(), "Would remove 2") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCompletion(t *testing.T) {
	a, _, out := newTestApp(t, &model.Args{Completion: &model.CompletionCmd{Shell: "bash"}})
	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d", code)
	}
	if !strings.Contains(out.String(), "complete -F _tunefetch_completion tunefetch") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestValidateTargets_ExpandsListFile(t *testing.T) {
	list := filepath.Join(t.TempDir(), "targets.txt")
	body := "https://youtu.be/good1\n# comment\nhttps://youtu.be/good2/\nhttps://youtu.be/good1\n"
	if err := os.WriteFile(list, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	a, calls, out := newTestApp(t, &model.Args{Validate: &model.ValidateCmd{Targets: []string{list}}})

	if code := a.dispatch(context.Background()); code != exitOK {
		t.Fatalf("dispatch() = %d, output:\n%s", code, out.String())
	}
	if got := testutil.Calls(t, calls); len(got) != 2 {
		t.Fatalf("calls = %v, want one per unique target", got)
	}
}
