package validate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmagar/tunefetch/internal/invoke"
	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/profile"
	"github.com/jmagar/tunefetch/internal/ratelimit"
	"github.com/jmagar/tunefetch/internal/testutil"
)

func validatorFor(t *testing.T, body string) *Validator {
	t.Helper()
	script := testutil.WriteScript(t, t.TempDir(), "spotdl", body)
	p := profile.Spotdl()
	p.Binary = script
	return New(invoke.New(p), nil, 5*time.Second)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		available bool
		message   string
	}{
		{
			name:      "track with duration",
			body:      `echo '{"name":"One More Time","type":"track","duration":320}'`,
			available: true,
			message:   "track available: One More Time",
		},
		{
			name:    "track without duration",
			body:    `echo '{"title":"Live","duration":0}'`,
			message: "invalid duration",
		},
		{
			name:    "missing title",
			body:    `echo '{"type":"track","duration":100}'`,
			message: "missing title metadata",
		},
		{
			name:      "album with some tracks available",
			body:      `echo '{"name":"Discovery","type":"album","tracks":[{"available":true},{"available":false},{}]}'`,
			available: true,
			message:   "album available (2/3 tracks)",
		},
		{
			name:    "playlist with zero available tracks",
			body:    `echo '{"name":"Mix","type":"playlist","tracks":[{"available":false},{"available":false}]}'`,
			message: "no available tracks in this playlist",
		},
		{
			name:    "empty playlist",
			body:    `echo '{"name":"Empty","type":"playlist","tracks":[]}'`,
			message: "no tracks in this playlist",
		},
		{
			name:    "yt-dlp unavailable availability",
			body:    `echo '{"title":"Gone","duration":10,"availability":"unavailable"}'`,
			message: "resource unavailable",
		},
		{
			name:      "json lines playlist",
			body:      "echo '{\"title\":\"a\",\"playlist_title\":\"Road Trip\",\"duration\":1}'\necho '{\"title\":\"b\",\"availability\":\"private\"}'",
			available: true,
			message:   "playlist available (1/2 tracks)",
		},
		{
			name:    "not found on stderr",
			body:    `echo 'ERROR: Playlist not found' >&2; exit 1`,
			message: "resource not found",
		},
		{
			name:    "private on stderr",
			body:    `echo 'This is a private playlist' >&2; exit 1`,
			message: "private resource, requires authentication",
		},
		{
			name:    "region on stderr",
			body:    `echo 'Track unavailable' >&2; exit 1`,
			message: "resource unavailable or region restricted",
		},
		{
			name:    "rate limit on stderr",
			body:    `echo 'HTTP 429 rate limit' >&2; exit 1`,
			message: "rate limit exceeded, try later",
		},
		{
			name:    "generic failure",
			body:    `echo 'Segmentation Fault' >&2; exit 139`,
			message: "validation failed: segmentation fault",
		},
		{
			name:    "unparsable output",
			body:    `echo 'not json at all'`,
			message: "validation failed: unparsable metadata",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validatorFor(t, tt.body)
			res := v.Validate(context.Background(), "https://open.spotify.com/x", &model.Config{})
			if res.Available != tt.available || res.Message != tt.message {
				t.Fatalf("Validate() = %v %q, want %v %q", res.Available, res.Message, tt.available, tt.message)
			}
		})
	}
}

func TestValidate_ToolMissingIsUnavailable(t *testing.T) {
	inv := invoke.New(profile.Spotdl())
	inv.LookPath = func(string) (string, error) { return "", errors.New("nope") }
	res := New(inv, nil, 0).Validate(context.Background(), "x", &model.Config{})
	if res.Available || res.Message != "validation error: spotdl not installed" {
		t.Fatalf("Validate() = %+v", res)
	}
}

func TestValidate_Timeout(t *testing.T) {
	v := validatorFor(t, "sleep 5")
	v.Timeout = 300 * time.Millisecond
	v.Invoker.WaitDelay = 200 * time.Millisecond
	res := v.Validate(context.Background(), "x", &model.Config{})
	if res.Available || !strings.HasPrefix(res.Message, "validation timed out") {
		t.Fatalf("Validate() = %+v", res)
	}
}

func TestValidate_UsesLimiterAndTarget(t *testing.T) {
	script, calls := testutil.FakeTool(t, "spotdl", `echo '{"name":"x","duration":1}'`)
	p := profile.Spotdl()
	p.Binary = script
	limiter := ratelimit.New(6000)
	v := New(invoke.New(p), limiter, time.Second)

	results := v.ValidateAll(context.Background(), []string{"t1", "t2"}, &model.Config{}, nil)
	if len(results) != 2 || !results[0].Available || !results[1].Available {
		t.Fatalf("ValidateAll() = %+v", results)
	}
	got := testutil.Calls(t, calls)
	want := []string{"--skip-download --print-json --no-warnings t1", "--skip-download --print-json --no-warnings t2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestValidate_CancelledContext(t *testing.T) {
	v := validatorFor(t, "exit 0")
	v.Limiter = ratelimit.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := v.Limiter.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	res := v.Validate(ctx, "x", &model.Config{})
	if res.Available || !strings.HasPrefix(res.Message, "validation cancelled") {
		t.Fatalf("Validate() = %+v", res)
	}
}

func TestParseMetadata_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "[1,2]", "{\"a\":1}\nnot json"} {
		if _, ok := ParseMetadata(in); ok {
			t.Errorf("ParseMetadata(%q) ok", in)
		}
	}
}
