// Package invoke runs the external downloader tool and captures its result.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmagar/tunefetch/internal/helpers"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/profile"
)

const defaultWaitDelay = 5 * time.Second

// Invoker builds argument vectors for a downloader profile and runs them.
type Invoker struct {
	Profile *profile.Profile
	// LookPath resolves the profile binary. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// OnLine receives every output line as it arrives.
	OnLine func(line string)
	// OnProgress receives parsed progress snapshots. Parsing is best effort.
	OnProgress func(model.Progress)
	// WaitDelay bounds how long output pipes may stay open after the process exits.
	WaitDelay time.Duration
}

// New returns an invoker for p.
func New(p *profile.Profile) *Invoker {
	return &Invoker{Profile: p}
}

// Args returns the full argument vector (without the binary) for req.
func (inv *Invoker) Args(req model.DownloadRequest, cfg *model.Config) []string {
	p := inv.Profile
	args := append([]string(nil), p.DownloadArgs...)
	// A dash-led target would parse as a flag in leading position, so it
	// moves to the end behind "--".
	first := p.TargetFirst && !strings.HasPrefix(req.Target, "-")
	if first {
		args = append(args, req.Target)
	}
	if p.FormatFlag != "" && cfg.AudioFormat != "" {
		args = append(args, p.FormatFlag, cfg.AudioFormat)
	}
	if p.QualityFlag != "" && cfg.AudioQuality != "" {
		args = append(args, p.QualityFlag, cfg.AudioQuality)
	}
	if p.OutputFlag != "" && req.OutputTemplate != "" {
		args = append(args, p.OutputFlag, req.OutputTemplate)
	}
	args = append(args, p.CommonArgs...)
	args = append(args, AuthArgs(p, cfg)...)
	args = append(args, req.ExtraArgs...)
	if !first {
		args = appendTarget(args, req.Target)
	}
	return args
}

// ValidateArgs returns the metadata-only argument vector for target.
func (inv *Invoker) ValidateArgs(target string, cfg *model.Config) []string {
	p := inv.Profile
	args := append([]string(nil), p.ValidateArgs...)
	args = append(args, AuthArgs(p, cfg)...)
	return appendTarget(args, target)
}

// AuthArgs returns the cookie and token flags when cookies are enabled. The
// cookie flag is only passed when the cookie file exists.
func AuthArgs(p *profile.Profile, cfg *model.Config) []string {
	if !cfg.UseCookies {
		return nil
	}
	var args []string
	if p.CookieFlag != "" && cfg.CookieFile != "" {
		if ok, _ := helpers.FileExists(cfg.CookieFile); ok {
			args = append(args, p.CookieFlag, cfg.CookieFile)
		}
	}
	if p.TokenFlag != "" && cfg.AuthToken != "" {
		args = append(args, p.TokenFlag, cfg.AuthToken)
	}
	return args
}

func appendTarget(args []string, target string) []string {
	if strings.HasPrefix(target, "-") {
		args = append(args, "--")
	}
	return append(args, target)
}

// Invoke runs one download attempt for req with cfg's timeout. Stdout and
// stderr are merged into one stream that is scanned line by line for progress
// and kept in full. The returned outcome is unclassified.
func (inv *Invoker) Invoke(ctx context.Context, req model.DownloadRequest, cfg *model.Config) model.AttemptOutcome {
	var buf bytes.Buffer
	pr, pw := io.Pipe()

	var g errgroup.Group
	g.Go(func() error {
		return inv.scan(pr, &buf)
	})

	out := inv.run(ctx, inv.Args(req, cfg), cfg.DownloadTimeoutDuration(), pw, pw)
	_ = pw.Close()
	_ = g.Wait()

	out.Target = req.Target
	out.Output = buf.String()
	return out
}

// Capture runs args with stdout and stderr kept apart and no progress
// reporting. The validator uses it for metadata-only runs.
func (inv *Invoker) Capture(ctx context.Context, args []string, timeout time.Duration) (stdout, stderr string, out model.AttemptOutcome) {
	var so, se bytes.Buffer
	out = inv.run(ctx, args, timeout, &so, &se)
	out.Output = so.String() + se.String()
	return so.String(), se.String(), out
}

// Version runs the profile's version command and returns its first line.
func (inv *Invoker) Version(ctx context.Context) (string, error) {
	if len(inv.Profile.VersionArgs) == 0 {
		return "", nil
	}
	stdout, stderr, out := inv.Capture(ctx, inv.Profile.VersionArgs, 15*time.Second)
	if !out.Exited || out.ExitCode != 0 {
		if out.StartErr != "" {
			return "", errors.New(out.StartErr)
		}
		return "", fmt.Errorf("%s %s: exit code %s: %s", inv.Profile.Binary,
			strings.Join(inv.Profile.VersionArgs, " "), out.ExitStatus(), model.Truncate(strings.TrimSpace(stderr), 200))
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	return line, nil
}

// Resolve locates the profile binary, wrapping model.ErrToolNotInstalled.
func (inv *Invoker) Resolve() (string, error) {
	lookPath := inv.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(inv.Profile.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found on PATH", model.ErrToolNotInstalled, inv.Profile.Binary)
	}
	return path, nil
}

func (inv *Invoker) run(ctx context.Context, args []string, timeout time.Duration, stdout, stderr io.Writer) model.AttemptOutcome {
	var out model.AttemptOutcome

	exe, err := inv.Resolve()
	if err != nil {
		out.StartErr = fmt.Sprintf("%s not installed", inv.Profile.Binary)
		return out
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, exe, args...)
	cmd.Env = append(os.Environ(), inv.Profile.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = inv.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}
	configureProcess(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		out.StartErr = fmt.Sprintf("failed to start %s: %v", inv.Profile.Binary, err)
		return out
	}
	waitErr := cmd.Wait()
	out.Duration = time.Since(start)

	deadline := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	state := cmd.ProcessState
	switch {
	case ctx.Err() != nil:
		out.StartErr = fmt.Sprintf("interrupted: %v", ctx.Err())
	case state != nil && state.Exited() && (!deadline || state.Success()):
		out.Exited = true
		out.ExitCode = state.ExitCode()
	case deadline:
		out.TimedOut = true
	case state != nil:
		out.Exited = true
		out.ExitCode = cmd.ProcessState.ExitCode()
	default:
		out.StartErr = fmt.Sprintf("%s: %v", inv.Profile.Binary, waitErr)
	}
	return out
}

// scan copies r into buf line by line, reporting lines and progress. It always
// drains r so the writer never blocks.
func (inv *Invoker) scan(r io.Reader, buf *bytes.Buffer) error {
	err := readLines(r, func(line string) {
		buf.WriteString(line)
		buf.WriteByte('\n')
		if line == "" {
			return
		}
		if inv.OnLine != nil {
			inv.OnLine(line)
		}
		if inv.OnProgress != nil {
			if p, ok := ParseProgress(line); ok {
				inv.OnProgress(p)
			}
		}
	})
	if err != nil {
		_, _ = io.Copy(buf, r)
	}
	return err
}
