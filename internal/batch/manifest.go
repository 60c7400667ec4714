// Package batch runs a manifest of download targets and keeps per-line status
// markers in the manifest itself.
package batch

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/jmagar/tunefetch/internal/model"
)

const utf8BOM = "\ufeff"

// Manifest is a parsed manifest file. Items map one to one onto lines.
type Manifest struct {
	Path  string
	Items []model.BatchItem

	crlf bool
	bom  bool
	mode fs.FileMode
}

// ParseLine splits one manifest line into target, status and note. Lines that
// are blank or start with '#' yield an empty CleanTarget.
func ParseLine(lineNo int, raw string) model.BatchItem {
	item := model.BatchItem{LineNo: lineNo, RawLine: raw}
	target, comment := splitComment(raw)
	item.CleanTarget = target
	if target == "" {
		return item
	}
	item.Status, item.Note = statusOf(comment)
	return item
}

// splitComment cuts raw at the first '#' that begins the line or follows
// whitespace. A '#' inside a URL fragment stays part of the target.
func splitComment(raw string) (target, comment string) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '#' {
			continue
		}
		if i == 0 || raw[i-1] == ' ' || raw[i-1] == '\t' {
			return strings.TrimSpace(raw[:i]), raw[i:]
		}
	}
	return strings.TrimSpace(raw), ""
}

// statusOf reads the markers in a comment. DOWNLOADED anywhere wins; otherwise
// the last FAILED or VALIDATION_FAILED marker decides.
func statusOf(comment string) (model.ItemStatus, string) {
	if comment == "" {
		return model.StatusPending, ""
	}
	status := model.StatusPending
	note := ""
	for _, seg := range strings.Split(comment, "#")[1:] {
		word := strings.TrimSpace(seg)
		switch {
		case hasPrefixFold(word, "DOWNLOADED"):
			return model.StatusDownloaded, ""
		case hasPrefixFold(word, "VALIDATION_FAILED"):
			status = model.StatusValidationFailed
			note = strings.TrimSpace(strings.TrimPrefix(word[len("VALIDATION_FAILED"):], ":"))
		case hasPrefixFold(word, "FAILED"):
			status = model.StatusFailed
			note = ""
		}
	}
	return status, note
}

// RenderLine writes target followed by exactly one marker for status. Pending
// items render as the bare target.
func RenderLine(item model.BatchItem) string {
	switch item.Status {
	case model.StatusDownloaded:
		return item.CleanTarget + " " + model.MarkerDownloaded
	case model.StatusFailed:
		return item.CleanTarget + " " + model.MarkerFailed
	case model.StatusValidationFailed:
		if item.Note == "" {
			return item.CleanTarget + " " + model.MarkerValidationFailed
		}
		return item.CleanTarget + " " + model.MarkerValidationFailed + ": " + oneLine(item.Note)
	default:
		return item.CleanTarget
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// oneLine flattens a note so it survives the next parse.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "#", "")), " ")
}

// ParseManifest splits data into items. Lines have no length limit. Line
// endings and a leading BOM are remembered so Render gives them back.
func ParseManifest(path string, data []byte) *Manifest {
	m := &Manifest{Path: path, mode: 0644}
	if bytes.HasPrefix(data, []byte(utf8BOM)) {
		m.bom = true
		data = data[len(utf8BOM):]
	}
	m.crlf = bytes.Contains(data, []byte("\r\n"))

	if len(data) == 0 {
		return m
	}
	lines := bytes.Split(data, []byte("\n"))
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	m.Items = make([]model.BatchItem, 0, len(lines))
	for i, line := range lines {
		raw := strings.TrimSuffix(string(line), "\r")
		m.Items = append(m.Items, ParseLine(i+1, raw))
	}
	return m
}

// ReadManifest loads path. Errors are returned untouched so the caller never
// writes back over a file it could not read.
func ReadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to read manifest: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := ParseManifest(path, data)
	m.mode = info.Mode().Perm()
	return m, nil
}

// Pending returns the indexes of items still waiting for a download.
func (m *Manifest) Pending() []int {
	var out []int
	for i, item := range m.Items {
		if item.Actionable() {
			out = append(out, i)
		}
	}
	return out
}

// Done counts items already marked downloaded.
func (m *Manifest) Done() int {
	return lo.CountBy(m.Items, func(item model.BatchItem) bool {
		return item.CleanTarget != "" && item.Status == model.StatusDownloaded
	})
}

// Targets returns the clean targets of the given items.
func (m *Manifest) Targets(idx []int) []string {
	return lo.Map(idx, func(i int, _ int) string {
		return m.Items[i].CleanTarget
	})
}

// Mark replaces the status of item i and rewrites its line.
func (m *Manifest) Mark(i int, status model.ItemStatus, note string) {
	item := m.Items[i]
	item.Status = status
	item.Note = note
	item.RawLine = RenderLine(item)
	m.Items[i] = item
}

// Render returns the manifest text. Untouched lines come back verbatim.
func (m *Manifest) Render() []byte {
	eol := "\n"
	if m.crlf {
		eol = "\r\n"
	}
	var buf bytes.Buffer
	if m.bom {
		buf.WriteString(utf8BOM)
	}
	for _, item := range m.Items {
		buf.WriteString(item.RawLine)
		buf.WriteString(eol)
	}
	return buf.Bytes()
}

// Save writes the manifest through a temp file in the same directory and
// renames it over Path.
func (m *Manifest) Save() error {
	return WriteFileAtomic(m.Path, m.Render(), m.mode)
}

// WriteFileAtomic replaces path with data. A reader sees either the old or
// the new content.
func WriteFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
