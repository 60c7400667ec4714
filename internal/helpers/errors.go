package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrOpenTextFile indicates opening a text file failed.
	ErrOpenTextFile = errors.New("failed to open text file")
	// ErrScanTextFile indicates scanner iteration over a text file failed.
	ErrScanTextFile = errors.New("failed to scan text file")
)

// ReadTxtFile reads non-empty, non-comment lines from a text file. Anything
// after a " #" is dropped.
func ReadTxtFile(path string) ([]string, error) {
	var lines []string
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpenTextFile, path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if scanner.Err() != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrScanTextFile, path, scanner.Err())
	}
	return lines, nil
}

// Contains checks if a string slice contains a value (case-insensitive).
func Contains(lines []string, value string) bool {
	for _, line := range lines {
		if strings.EqualFold(line, value) {
			return true
		}
	}
	return false
}

// ProcessUrls expands .txt file arguments into their lines and deduplicates.
func ProcessUrls(urls []string) ([]string, error) {
	var (
		processed []string
		txtPaths  []string
	)
	for _, _url := range urls {
		if strings.HasSuffix(_url, ".txt") && !Contains(txtPaths, _url) {
			txtLines, err := ReadTxtFile(_url)
			if err != nil {
				return nil, err
			}
			for _, txtLine := range txtLines {
				txtLine = strings.TrimSuffix(txtLine, "/")
				if !Contains(processed, txtLine) {
					processed = append(processed, txtLine)
				}
			}
			txtPaths = append(txtPaths, _url)
		} else {
			_url = strings.TrimSuffix(_url, "/")
			if !Contains(processed, _url) {
				processed = append(processed, _url)
			}
		}
	}
	return processed, nil
}
