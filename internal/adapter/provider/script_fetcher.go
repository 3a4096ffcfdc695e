package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxScriptBytes = 4 << 20

// ScriptFetcher downloads the provider's embed script.
type ScriptFetcher struct {
	client *http.Client
}

func NewScriptFetcher(timeout time.Duration) *ScriptFetcher {
	return &ScriptFetcher{client: &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}}
}

func (f *ScriptFetcher) FetchScript(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build script request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch script returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return body, nil
}
