// Package notify provides push notification helpers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmagar/tunefetch/internal/batch"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

// Notifier posts one message. Nil means notifications are off.
type Notifier func(ctx context.Context, title, message string, priority int) error

// Send posts a message to a Gotify server.
// Returns nil immediately if url or token are empty.
func Send(ctx context.Context, serverURL, token, title, message string, priority int) error {
	if serverURL == "" || token == "" {
		return nil
	}

	url := strings.TrimRight(serverURL, "/") + "/message"

	body, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}

// BuildNotifier returns a Notifier wired to the given Gotify server.
// Returns nil (disabling notifications) if url or token are empty.
func BuildNotifier(serverURL, token string) Notifier {
	if serverURL == "" || token == "" {
		return nil
	}
	return func(ctx context.Context, title, message string, priority int) error {
		return Send(ctx, serverURL, token, title, message, priority)
	}
}

// BatchMessage renders a batch result as a notification. Runs with failures
// or an interrupt get a higher priority.
func BatchMessage(manifestPath string, res batch.Result) (title, message string, priority int) {
	title = "tunefetch: " + filepath.Base(manifestPath)
	var b strings.Builder
	b.WriteString(res.Summary())
	fmt.Fprintf(&b, "\nTook %s", res.Duration.Round(time.Second))
	const maxListed = 10
	for i, f := range res.Failures {
		if i == maxListed {
			fmt.Fprintf(&b, "\n... and %d more", len(res.Failures)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n✗ %s: %s", f.Target, f.Reason)
	}

	priority = 4
	if res.Failed > 0 || res.Interrupted || res.Aborted {
		priority = 7
	}
	return title, b.String(), priority
}

// NotifyBatch sends the batch summary through n. A nil notifier is a no-op.
func NotifyBatch(ctx context.Context, n Notifier, manifestPath string, res batch.Result) error {
	if n == nil {
		return nil
	}
	title, message, priority := BatchMessage(manifestPath, res)
	return n(ctx, title, message, priority)
}
