// Package netx contains small HTTP helpers that do not belong to any
// particular API client.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Probe sends a HEAD request to url and reports whether the host answered.
// Any HTTP status counts as reachable; only transport failures are errors.
func Probe(ctx context.Context, client *http.Client, url string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return nil
}
