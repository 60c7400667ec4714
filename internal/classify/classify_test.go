package classify

import (
	"strings"
	"testing"
	"time"

	"github.com/jmagar/tunefetch/internal/model"
)

func exited(code int, output string) model.AttemptOutcome {
	return model.AttemptOutcome{Target: "t", Attempt: 1, Exited: true, ExitCode: code, Output: output}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		in         model.AttemptOutcome
		wantClass  model.Classification
		wantReason string
	}{
		{
			name:      "clean exit",
			in:        exited(0, "[download] 100% of 3.40MiB\nDownloaded \"Song\""),
			wantClass: model.Success,
		},
		{
			name:      "exit zero with recovered rate limit warning",
			in:        exited(0, "WARNING: rate limit hit, retrying\nDownloaded"),
			wantClass: model.Success,
		},
		{
			name:      "exit zero with generic not found stays success",
			in:        exited(0, "WARNING: subtitles not found\nDownloaded"),
			wantClass: model.Success,
		},
		{
			name:       "exit zero but no results",
			in:         exited(0, "LookupError: No results found for song: X"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "no results found",
		},
		{
			name:       "video unavailable",
			in:         exited(1, "ERROR: [youtube] abc: Video unavailable"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "video unavailable",
		},
		{
			name:       "private video",
			in:         exited(1, "ERROR: Private video. Sign in if you've been granted access"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "private video",
		},
		{
			name:       "age restriction",
			in:         exited(1, "ERROR: Sign in to confirm your age"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "age-restricted",
		},
		{
			name:       "metadata nonetype",
			in:         exited(1, "Error while fetching metadata: 'NoneType' object is not subscriptable"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "metadata error",
		},
		{
			name:      "typeerror without metadata is not the metadata rule",
			in:        exited(1, "TypeError: unsupported operand"),
			wantClass: model.RetryableFailure,
		},
		{
			name:       "generic not found",
			in:         exited(1, "ERROR: playlist not found"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "not found",
		},
		{
			name:       "non-retryable wins over retryable",
			in:         exited(1, "rate limit exceeded\nVideo unavailable"),
			wantClass:  model.NonRetryableFailure,
			wantReason: "video unavailable",
		},
		{
			name:       "rate limited",
			in:         exited(1, "HTTP Error 429: Too Many Requests"),
			wantClass:  model.RetryableFailure,
			wantReason: "rate limited",
		},
		{
			name:       "quota",
			in:         exited(1, "Quota exceeded for quota metric"),
			wantClass:  model.RetryableFailure,
			wantReason: "quota exceeded",
		},
		{
			name:       "audio provider",
			in:         exited(1, "AudioProviderError: YT-DLP download error"),
			wantClass:  model.RetryableFailure,
			wantReason: "audio provider error",
		},
		{
			name:       "network",
			in:         exited(1, "urlopen error [Errno 104] Connection reset by peer"),
			wantClass:  model.RetryableFailure,
			wantReason: "network error",
		},
		{
			name:       "timeout",
			in:         model.AttemptOutcome{TimedOut: true, Duration: 120 * time.Second, Output: "[download] 45.0%"},
			wantClass:  model.Timeout,
			wantReason: "timed out after 2m0s",
		},
		{
			name:       "timeout with permanent text is non-retryable",
			in:         model.AttemptOutcome{TimedOut: true, Output: "Video unavailable"},
			wantClass:  model.NonRetryableFailure,
			wantReason: "video unavailable",
		},
		{
			name:       "process never started",
			in:         model.AttemptOutcome{StartErr: "spotdl not installed"},
			wantClass:  model.ProcessError,
			wantReason: "spotdl not installed",
		},
		{
			name:       "unknown nonzero exit",
			in:         exited(2, "something odd happened"),
			wantClass:  model.RetryableFailure,
			wantReason: "exit code 2: something odd happened",
		},
		{
			name:       "unknown nonzero exit without output",
			in:         exited(137, ""),
			wantClass:  model.RetryableFailure,
			wantReason: "exit code 137",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if got.Classification != tt.wantClass {
				t.Fatalf("Classify() class = %v (%q), want %v", got.Classification, got.Reason, tt.wantClass)
			}
			if tt.wantReason != "" && got.Reason != tt.wantReason {
				t.Fatalf("Classify() reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	in := exited(1, "Video unavailable")
	_ = Classify(in)
	if in.Classification != model.Unclassified || in.Reason != "" {
		t.Fatalf("input outcome was modified: %+v", in)
	}
}

func TestClassify_GenericReasonIsTruncated(t *testing.T) {
	out := Classify(exited(1, strings.Repeat("x", 5*DetailLimit)))
	if len(out.Reason) > DetailLimit+len("exit code 1: ...") {
		t.Fatalf("reason length %d exceeds limit", len(out.Reason))
	}
	if len(out.Output) != 5*DetailLimit {
		t.Fatalf("full output not retained: %d bytes", len(out.Output))
	}
}

func TestClassifier_CustomTables(t *testing.T) {
	c := Classifier{
		NonRetryable: []Rule{{Reason: "geo blocked", Class: model.NonRetryableFailure, Any: []string{"not available in your country"}}},
		Retryable:    []Rule{},
	}
	got := c.Classify(exited(1, "This track is not available in your country"))
	if got.Classification != model.NonRetryableFailure || got.Reason != "geo blocked" {
		t.Fatalf("custom classify = %v %q", got.Classification, got.Reason)
	}
	got = c.Classify(exited(1, "rate limit"))
	if got.Classification != model.RetryableFailure || !strings.HasPrefix(got.Reason, "exit code 1") {
		t.Fatalf("empty retryable table should fall through to generic, got %v %q", got.Classification, got.Reason)
	}
}

func TestRule_Match(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		text string
		want bool
	}{
		{name: "empty rule never matches", rule: Rule{}, text: "anything", want: false},
		{name: "all only", rule: Rule{All: []string{"a", "b"}}, text: "b then a", want: true},
		{name: "all missing one", rule: Rule{All: []string{"a", "z"}}, text: "abc", want: false},
		{name: "any", rule: Rule{Any: []string{"x", "b"}}, text: "abc", want: true},
		{name: "all and any", rule: Rule{All: []string{"metadata"}, Any: []string{"nonetype"}}, text: "metadata ok", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Match(tt.text); got != tt.want {
				t.Fatalf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFirst(t *testing.T) {
	r, ok := First(RetryableRules, "Too Many Requests")
	if !ok || r.Reason != "rate limited" {
		t.Fatalf("First() = %+v, %v", r, ok)
	}
	if _, ok := First(RetryableRules, "all good"); ok {
		t.Fatal("First() matched unrelated text")
	}
}
