package rclone

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jmagar/tunefetch/internal/helpers"
	"github.com/jmagar/tunefetch/internal/model"
)

// Hooks receive upload events. All fields are optional.
type Hooks struct {
	OnStart    func(remote string, totalBytes int64)
	OnProgress func(Progress)
	OnComplete func()
	OnDelete   func(localDir string)
}

// Uploader copies the output directory to the configured remote.
// Function fields are injected to keep it unit-testable.
type Uploader struct {
	validatePath    func(path string) error
	calculateLocal  func(path string) int64
	removeContents  func(dir string) error
	buildUpload     func(ctx context.Context, localDir string, cfg *model.Config) (*exec.Cmd, string, error)
	buildVerify     func(ctx context.Context, localDir, remote string) *exec.Cmd
	runWithProgress func(cmd *exec.Cmd, onProgress func(Progress)) error
	runCommand      func(cmd *exec.Cmd) ([]byte, error)
}

// NewUploader returns an uploader that shells out to rclone.
func NewUploader() *Uploader {
	return &Uploader{
		validatePath:    helpers.ValidatePath,
		calculateLocal:  helpers.CalculateLocalSize,
		removeContents:  removeContents,
		buildUpload:     BuildUploadCommand,
		buildVerify:     BuildVerifyCommand,
		runWithProgress: RunWithProgress,
		runCommand:      func(cmd *exec.Cmd) ([]byte, error) { return cmd.CombinedOutput() },
	}
}

// Upload copies localDir to the remote. With delete_after_upload the copy is
// verified first and local files are only removed when the check passes.
// A disabled config is a no-op.
func (u *Uploader) Upload(ctx context.Context, cfg *model.Config, localDir string, hooks Hooks) error {
	if !cfg.RcloneEnabled {
		return nil
	}
	if err := u.validatePath(localDir); err != nil {
		return fmt.Errorf("invalid local path: %w", err)
	}

	cmd, remote, err := u.buildUpload(ctx, localDir, cfg)
	if err != nil {
		return err
	}
	if hooks.OnStart != nil {
		hooks.OnStart(remote, u.calculateLocal(localDir))
	}
	if err := u.runWithProgress(cmd, hooks.OnProgress); err != nil {
		return fmt.Errorf("rclone upload failed: %w", err)
	}
	if hooks.OnComplete != nil {
		hooks.OnComplete()
	}

	if !cfg.DeleteAfterUpload {
		return nil
	}
	if out, err := u.runCommand(u.buildVerify(ctx, localDir, remote)); err != nil {
		return fmt.Errorf("upload verification failed - NOT deleting local files: %w\nOutput: %s", err, out)
	}
	if hooks.OnDelete != nil {
		hooks.OnDelete(localDir)
	}
	if err := u.removeContents(localDir); err != nil {
		return fmt.Errorf("failed to delete local files: %w", err)
	}
	return nil
}

// removeContents empties dir but keeps the directory itself.
func removeContents(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
