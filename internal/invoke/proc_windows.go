//go:build windows

package invoke

import "os/exec"

// configureProcess kills the downloader itself on cancellation. Child processes
// are not tracked on Windows.
func configureProcess(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
