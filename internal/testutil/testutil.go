// Package testutil provides shared test helpers used across internal packages.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ChdirTemp changes to a temp directory and restores cwd on cleanup.
func ChdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("failed to chdir temp: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(orig)
	})
	return tmp
}

// RequireShell skips the test on platforms without /bin/sh.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake downloader scripts need /bin/sh")
	}
}

// WriteScript writes an executable shell script named name into dir and
// returns its path. body is everything after the shebang line.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequireShell(t)
	path := filepath.Join(dir, name)
	content := []byte("#!/bin/sh\n" + body + "\n")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("failed to write script %s: %v", path, err)
	}
	return path
}

// FakeTool writes a script that records every invocation's arguments as one
// line in a calls file before running body. It returns the script path and the
// calls file path.
func FakeTool(t *testing.T, name, body string) (script, calls string) {
	t.Helper()
	dir := t.TempDir()
	calls = filepath.Join(dir, name+".calls")
	script = WriteScript(t, dir, name, `echo "$*" >> '`+calls+"'\n"+body)
	return script, calls
}

// Calls returns the argument lines recorded by a FakeTool script.
func Calls(t *testing.T, calls string) []string {
	t.Helper()
	data, err := os.ReadFile(calls)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read calls file: %v", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
