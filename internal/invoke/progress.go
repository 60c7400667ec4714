package invoke

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunefetch/internal/model"
)

var (
	percentRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%`)
	sizeRe    = regexp.MustCompile(`of\s+~?\s*([\d.]+\s*[KMGTP]?i?B)\b`)
	speedRe   = regexp.MustCompile(`at\s+([\d.]+\s*[KMGTP]?i?B/s)`)
	etaRe     = regexp.MustCompile(`ETA\s+([\d:]+)`)
)

// ParseProgress pulls percent, size, speed and ETA out of a downloader output
// line. ok is false when the line carries no progress information.
func ParseProgress(line string) (p model.Progress, ok bool) {
	p.Line = line
	if m := percentRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v <= 100 {
			p.Percent = v
			ok = true
		}
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		if n, err := humanize.ParseBytes(strings.ReplaceAll(m[1], " ", "")); err == nil {
			p.TotalBytes = n
			ok = true
		}
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		p.Speed = strings.ReplaceAll(m[1], " ", "")
		ok = true
	}
	if m := etaRe.FindStringSubmatch(line); m != nil {
		p.ETA = m[1]
		ok = true
	}
	return p, ok
}

// readLines calls fn for every line of r. Both '\r' and '\n' end a line, so
// carriage-return progress redraws arrive as separate lines. Lines of any
// length are delivered whole.
func readLines(r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(line) > 0 {
				fn(string(line))
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if b == '\n' || b == '\r' {
			fn(string(line))
			line = line[:0]
			continue
		}
		line = append(line, b)
	}
}
