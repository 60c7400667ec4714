package helpers

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file (not directory) exists at the given path.
func FileExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return !f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidatePath checks that a path does not contain dangerous characters.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains invalid characters")
	}
	return nil
}

// TemplateDir returns the leading directory of an output template that contains
// no tool placeholders, so it can be created before the tool runs.
func TemplateDir(template string) string {
	dir := filepath.Dir(template)
	for dir != "." && dir != string(filepath.Separator) && strings.ContainsAny(dir, "{%") {
		dir = filepath.Dir(dir)
	}
	return dir
}

// CalculateLocalSize walks the directory tree and calculates total size in bytes.
func CalculateLocalSize(localPath string) int64 {
	var totalSize int64

	err := filepath.Walk(localPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		return 0
	}

	return totalSize
}

// RemoveEmptyDirs deletes every empty directory below root, deepest first.
// root itself is kept. With dryRun set nothing is removed, but the directories
// that would go are still returned.
func RemoveEmptyDirs(root string, dryRun bool) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	// Deepest paths first so parents emptied by the pass are removed too.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	removed := make([]string, 0)
	gone := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("read %s: %w", dir, err)
		}
		empty := true
		for _, e := range entries {
			if !gone[filepath.Join(dir, e.Name())] {
				empty = false
				break
			}
		}
		if !empty {
			continue
		}
		if !dryRun {
			if err := os.Remove(dir); err != nil {
				return removed, fmt.Errorf("remove %s: %w", dir, err)
			}
		}
		gone[dir] = true
		removed = append(removed, dir)
	}
	return removed, nil
}
