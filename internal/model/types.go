package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies what a download target refers to.
type Kind int

const (
	KindTrack Kind = iota
	KindAlbum
	KindPlaylist
	KindArtist
	KindSearchQuery
	KindUserCollection
)

var kindNames = map[Kind]string{
	KindTrack:          "track",
	KindAlbum:          "album",
	KindPlaylist:       "playlist",
	KindArtist:         "artist",
	KindSearchQuery:    "search",
	KindUserCollection: "collection",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// DownloadRequest identifies one unit of work. Build it with profile.Build and treat
// it as read-only afterwards.
type DownloadRequest struct {
	Target         string
	Kind           Kind
	OutputTemplate string
	ExtraArgs      []string
}

// String renders the request for status lines.
func (r DownloadRequest) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.Target)
}

// Classification is the outcome category of one external invocation.
type Classification int

const (
	Unclassified Classification = iota
	Success
	RetryableFailure
	NonRetryableFailure
	Timeout
	ProcessError
)

// String returns the display name of the classification.
func (c Classification) String() string {
	switch c {
	case Success:
		return "success"
	case RetryableFailure:
		return "retryable"
	case NonRetryableFailure:
		return "non-retryable"
	case Timeout:
		return "timeout"
	case ProcessError:
		return "process-error"
	default:
		return "unclassified"
	}
}

// Retryable reports whether another attempt may change the result.
func (c Classification) Retryable() bool {
	return c == RetryableFailure || c == Timeout || c == ProcessError
}

// AttemptOutcome is the result of one external-process invocation. Values are
// produced fresh for each attempt and never modified in place.
type AttemptOutcome struct {
	Target  string
	Attempt int
	// ExitCode is only meaningful when Exited is true.
	ExitCode int
	Exited   bool
	TimedOut bool
	// StartErr holds the launch failure text when the process never ran.
	StartErr string
	// Output is the merged stdout and stderr stream, kept in full.
	Output         string
	Classification Classification
	Reason         string
	Duration       time.Duration
}

// Classified returns a copy of the outcome carrying the given classification.
func (o AttemptOutcome) Classified(c Classification, reason string) AttemptOutcome {
	o.Classification = c
	o.Reason = reason
	return o
}

// OK reports whether the outcome was classified as a success.
func (o AttemptOutcome) OK() bool {
	return o.Classification == Success
}

// ExitStatus renders the exit code, or "none" when the process did not exit.
func (o AttemptOutcome) ExitStatus() string {
	if !o.Exited {
		return "none"
	}
	return fmt.Sprintf("%d", o.ExitCode)
}

// Tail returns at most max trailing bytes of the captured output, trimmed.
func (o AttemptOutcome) Tail(max int) string {
	return Truncate(strings.TrimSpace(o.Output), max)
}

// Truncate keeps the last max bytes of s, prefixing "..." when it cut anything.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

// ItemStatus is the manifest state of one batch line.
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusDownloaded
	StatusFailed
	StatusValidationFailed
)

// Manifest markers written after a line's target.
const (
	MarkerDownloaded       = "# DOWNLOADED"
	MarkerFailed           = "# FAILED"
	MarkerValidationFailed = "# VALIDATION_FAILED"
)

// String returns the marker keyword for the status.
func (s ItemStatus) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	case StatusValidationFailed:
		return "validation-failed"
	default:
		return "pending"
	}
}

// BatchItem is one line of a manifest file.
type BatchItem struct {
	LineNo      int
	RawLine     string
	CleanTarget string
	// Note is the free-text part of a VALIDATION_FAILED marker.
	Note   string
	Status ItemStatus
}

// Actionable reports whether the line carries a target still waiting for download.
func (b BatchItem) Actionable() bool {
	return b.CleanTarget != "" && b.Status != StatusDownloaded
}

// Progress is a best-effort snapshot parsed from one line of downloader output.
type Progress struct {
	Percent    float64
	TotalBytes uint64
	Speed      string
	ETA        string
	Line       string
}
