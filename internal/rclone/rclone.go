// Package rclone copies finished downloads to a remote with the rclone CLI.
package rclone

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/ui"
)

var (
	transferredSegmentPattern = regexp.MustCompile(`(?i)\btransferred:\s*(.+)$`)
	transferredPairPattern    = regexp.MustCompile(`^\s*([^,]+?)\s*/\s*([^,]+?)(?:\s*,|$)`)
	percentPattern            = regexp.MustCompile(`(\d{1,3})\s*%`)
	speedPattern              = regexp.MustCompile(`(?:^|,)\s*@?\s*([^,]*?/s)\s*(?:,|$)`)
)

// Binary is the rclone executable looked up on PATH.
var Binary = "rclone"

// Progress is one parsed --stats-one-line update.
type Progress struct {
	Percent  int
	Speed    string
	Uploaded string
	Total    string
}

// Version returns the first line of `rclone version`.
func Version(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, Binary, "version").Output()
	if err != nil {
		return "", fmt.Errorf("rclone is not installed or not available in PATH: %w\n"+
			"Please install rclone from https://rclone.org/downloads/ or set rclone_enabled to false", err)
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line), nil
}

// RemoteDest is the rclone destination for cfg, e.g. "remote:/music".
func RemoteDest(cfg *model.Config) string {
	return cfg.RcloneRemote + ":" + strings.TrimRight(cfg.RclonePath, "/")
}

// RemoteStatus checks whether the configured remote answers.
func RemoteStatus(ctx context.Context, cfg *model.Config) string {
	if !cfg.RcloneEnabled {
		return "Disabled"
	}
	if strings.TrimSpace(cfg.RcloneRemote) == "" {
		return "Offline (remote not configured)"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := exec.CommandContext(ctx, Binary, "lsf", RemoteDest(cfg)).Run()
	if err == nil {
		return "Online"
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Offline (timeout)"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 3 {
		return "Online (path missing)"
	}
	return "Offline"
}

// BuildUploadCommand constructs the rclone copy command for the contents of localDir.
func BuildUploadCommand(ctx context.Context, localDir string, cfg *model.Config) (*exec.Cmd, string, error) {
	info, err := os.Stat(localDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat local path: %w", err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%s is not a directory", localDir)
	}
	transfers := cfg.RcloneTransfers
	if transfers <= 0 {
		transfers = 4
	}
	remote := RemoteDest(cfg)
	args := []string{"copy", localDir, remote,
		fmt.Sprintf("--transfers=%d", transfers),
		"--progress", "--stats=1s", "--stats-one-line"}
	return exec.CommandContext(ctx, Binary, args...), remote, nil
}

// BuildVerifyCommand constructs the one-way check run before local files are deleted.
func BuildVerifyCommand(ctx context.Context, localDir, remote string) *exec.Cmd {
	return exec.CommandContext(ctx, Binary, "check", "--one-way", localDir, remote)
}

// ParseProgressLine parses a line of rclone --stats-one-line output.
func ParseProgressLine(line string) (Progress, bool) {
	line = strings.TrimSpace(ui.StripAnsiCodes(line))
	if line == "" {
		return Progress{}, false
	}

	segmentMatch := transferredSegmentPattern.FindStringSubmatch(line)
	if len(segmentMatch) < 2 {
		return Progress{}, false
	}
	segment := strings.TrimSpace(segmentMatch[1])
	pairMatch := transferredPairPattern.FindStringSubmatch(segment)
	if len(pairMatch) < 3 {
		return Progress{}, false
	}

	p := Progress{
		Uploaded: strings.Join(strings.Fields(pairMatch[1]), " "),
		Total:    strings.Join(strings.Fields(pairMatch[2]), " "),
		Percent:  -1,
	}
	if p.Uploaded == "" || p.Total == "" {
		return Progress{}, false
	}

	if m := percentPattern.FindStringSubmatch(segment); len(m) > 1 {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			p.Percent = parsed
		}
	}
	if p.Percent < 0 {
		if computed, ok := ComputeProgressPercent(p.Uploaded, p.Total); ok {
			p.Percent = computed
		} else if strings.EqualFold(p.Uploaded, p.Total) {
			p.Percent = 100
		} else {
			p.Percent = 0
		}
	}

	p.Speed = "0 B"
	if m := speedPattern.FindStringSubmatch(segment); len(m) > 1 {
		if speed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[1]), "@")); speed != "" {
			p.Speed = speed
		}
	}
	return p, true
}

// ComputeProgressPercent computes percent from uploaded/total human-readable strings.
func ComputeProgressPercent(uploaded, total string) (int, bool) {
	upBytes, errUp := humanize.ParseBytes(strings.ReplaceAll(uploaded, " ", ""))
	totalBytes, errTotal := humanize.ParseBytes(strings.ReplaceAll(total, " ", ""))
	if errUp != nil || errTotal != nil || totalBytes == 0 {
		return 0, false
	}
	pct := int((float64(upBytes) / float64(totalBytes)) * 100)
	return max(0, min(pct, 100)), true
}

// RunWithProgress runs cmd, reporting parsed progress lines and collecting the
// rest as diagnostics for the error.
func RunWithProgress(cmd *exec.Cmd, onProgress func(Progress)) error {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	var (
		mu          sync.Mutex
		diagnostics bytes.Buffer
	)
	consume := func(r io.Reader, wg *sync.WaitGroup) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Split(splitOnCRorLF)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			mu.Lock()
			if p, ok := ParseProgressLine(line); ok {
				if onProgress != nil {
					onProgress(p)
				}
			} else if line != "" {
				diagnostics.WriteString(line)
				diagnostics.WriteString("\n")
			}
			mu.Unlock()
		}
		if scanErr := scanner.Err(); scanErr != nil {
			mu.Lock()
			diagnostics.WriteString(scanErr.Error() + "\n")
			mu.Unlock()
			_, _ = io.Copy(io.Discard, r)
		}
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go consume(stdoutPipe, &wg)
	go consume(stderrPipe, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	if waitErr != nil && diagnostics.Len() > 0 {
		return fmt.Errorf("%w\n%s", waitErr, strings.TrimSpace(diagnostics.String()))
	}
	return waitErr
}

func splitOnCRorLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
