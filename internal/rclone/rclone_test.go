package rclone

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/testutil"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Progress
		wantOK bool
	}{
		{
			name:   "standard one-line stats",
			line:   "Transferred:    52.403 MiB / 958.826 MiB, 5%, 10.284 MiB/s, ETA 1m31s",
			want:   Progress{Percent: 5, Speed: "10.284 MiB/s", Uploaded: "52.403 MiB", Total: "958.826 MiB"},
			wantOK: true,
		},
		{
			name:   "prefixed notice line",
			line:   "2026/02/08 10:00:00 NOTICE: Transferred: 959 MB / 959 MB, 100%, 167 MB/s, ETA 0s",
			want:   Progress{Percent: 100, Speed: "167 MB/s", Uploaded: "959 MB", Total: "959 MB"},
			wantOK: true,
		},
		{
			name:   "compact formatting without spaces",
			line:   "Transferred: 52.403MiB/958.826MiB,5%,10.284MiB/s,ETA 1m31s",
			want:   Progress{Percent: 5, Speed: "10.284MiB/s", Uploaded: "52.403MiB", Total: "958.826MiB"},
			wantOK: true,
		},
		{
			name:   "percent computed from sizes",
			line:   "Transferred: 50 MiB / 100 MiB",
			want:   Progress{Percent: 50, Speed: "0 B", Uploaded: "50 MiB", Total: "100 MiB"},
			wantOK: true,
		},
		{
			name:   "non-progress line",
			line:   "Checks: 0 / 0, -, Listed 1",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseProgressLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRemoteDest(t *testing.T) {
	cfg := &model.Config{RcloneRemote: "nas", RclonePath: "/music/"}
	if got := RemoteDest(cfg); got != "nas:/music" {
		t.Fatalf("RemoteDest() = %q", got)
	}
}

func TestBuildUploadCommand(t *testing.T) {
	dir := t.TempDir()
	cmd, remote, err := BuildUploadCommand(context.Background(), dir, &model.Config{RcloneRemote: "nas", RclonePath: "/music"})
	if err != nil {
		t.Fatalf("BuildUploadCommand() error = %v", err)
	}
	if remote != "nas:/music" {
		t.Fatalf("remote = %q", remote)
	}
	args := strings.Join(cmd.Args[1:], " ")
	if args != "copy "+dir+" nas:/music --transfers=4 --progress --stats=1s --stats-one-line" {
		t.Fatalf("args = %q", args)
	}

	file := filepath.Join(dir, "f.mp3")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := BuildUploadCommand(context.Background(), file, &model.Config{}); err == nil {
		t.Fatal("BuildUploadCommand() accepted a file")
	}
}

func TestUploadDisabledIsNoop(t *testing.T) {
	u := NewUploader()
	u.buildUpload = func(context.Context, string, *model.Config) (*exec.Cmd, string, error) {
		t.Fatal("disabled upload built a command")
		return nil, "", nil
	}
	if err := u.Upload(context.Background(), &model.Config{}, "/tmp", Hooks{}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestUploadWithHooksAndDelete(t *testing.T) {
	u := NewUploader()
	u.calculateLocal = func(string) int64 { return 4096 }
	u.buildUpload = func(_ context.Context, localDir string, _ *model.Config) (*exec.Cmd, string, error) {
		if localDir != "/tmp/local" {
			t.Fatalf("local dir = %q", localDir)
		}
		return exec.Command("true"), "nas:/music", nil
	}
	u.runWithProgress = func(_ *exec.Cmd, onProgress func(Progress)) error {
		onProgress(Progress{Percent: 55, Speed: "8 MiB/s", Uploaded: "440 MiB", Total: "800 MiB"})
		return nil
	}
	var verifiedRemote string
	u.buildVerify = func(_ context.Context, _, remote string) *exec.Cmd {
		verifiedRemote = remote
		return exec.Command("true")
	}
	u.runCommand = func(*exec.Cmd) ([]byte, error) { return nil, nil }
	var removed string
	u.removeContents = func(dir string) error {
		removed = dir
		return nil
	}

	var startBytes int64
	var seen Progress
	completed := false
	err := u.Upload(context.Background(), &model.Config{RcloneEnabled: true, DeleteAfterUpload: true}, "/tmp/local", Hooks{
		OnStart:    func(_ string, total int64) { startBytes = total },
		OnProgress: func(p Progress) { seen = p },
		OnComplete: func() { completed = true },
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if startBytes != 4096 || seen.Percent != 55 || !completed {
		t.Fatalf("hooks: start=%d seen=%+v completed=%v", startBytes, seen, completed)
	}
	if verifiedRemote != "nas:/music" || removed != "/tmp/local" {
		t.Fatalf("verify=%q removed=%q", verifiedRemote, removed)
	}
}

func TestUploadVerifyFailureKeepsFiles(t *testing.T) {
	u := NewUploader()
	u.buildUpload = func(context.Context, string, *model.Config) (*exec.Cmd, string, error) {
		return exec.Command("true"), "nas:/music", nil
	}
	u.runWithProgress = func(*exec.Cmd, func(Progress)) error { return nil }
	u.runCommand = func(*exec.Cmd) ([]byte, error) { return []byte("1 differences found"), errors.New("exit status 1") }
	u.removeContents = func(string) error {
		t.Fatal("files removed after failed verification")
		return nil
	}
	err := u.Upload(context.Background(), &model.Config{RcloneEnabled: true, DeleteAfterUpload: true}, t.TempDir(), Hooks{})
	if err == nil || !strings.Contains(err.Error(), "NOT deleting") {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestRunWithProgress_FakeRclone(t *testing.T) {
	testutil.RequireShell(t)
	script, _ := testutil.FakeTool(t, "rclone", `printf 'Transferred: 1 MiB / 2 MiB, 50%%, 1 MiB/s, ETA 1s\r'
printf 'Transferred: 2 MiB / 2 MiB, 100%%, 1 MiB/s, ETA 0s\n'
echo "NOTICE: something odd" >&2
exit 0`)
	var updates []Progress
	if err := RunWithProgress(exec.Command(script), func(p Progress) { updates = append(updates, p) }); err != nil {
		t.Fatalf("RunWithProgress() error = %v", err)
	}
	if len(updates) != 2 || updates[1].Percent != 100 {
		t.Fatalf("updates = %+v", updates)
	}

	failing, _ := testutil.FakeTool(t, "rclone-fail", `echo "Failed to copy: permission denied" >&2
exit 1`)
	err := RunWithProgress(exec.Command(failing), nil)
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("RunWithProgress() error = %v", err)
	}
}

func TestRemoveContents(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := removeContents(dir); err != nil {
		t.Fatalf("removeContents() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("entries = %v, err = %v", entries, err)
	}
}
