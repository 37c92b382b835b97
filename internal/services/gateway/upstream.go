package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPChannelWriter writes samples to a ThingSpeak-style update endpoint:
// one GET per sample with api_key, field1 (temperature) and field2
// (humidity) as query parameters. The endpoint answers the new entry id,
// or "0" when the update was not accepted (typically rate enforcement on
// the server side).
type HTTPChannelWriter struct {
	base   string
	client *http.Client
}

var _ ChannelWriter = (*HTTPChannelWriter)(nil)

// NewHTTPChannelWriter points the writer at base (e.g.
// "https://api.thingspeak.com/update") with a per-call timeout.
func NewHTTPChannelWriter(base string, timeout time.Duration) *HTTPChannelWriter {
	return &HTTPChannelWriter{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Write performs one channel update. A transport error, a timeout, a
// non-2xx status and a "0" body are all rejections; the caller decides
// whether to retry (it does not — the next periodic sample supersedes).
func (u *HTTPChannelWriter) Write(ctx context.Context, writeKey string, temperature, humidity float64) error {
	q := url.Values{}
	q.Set("api_key", writeKey)
	q.Set("field1", fmt.Sprintf("%.2f", temperature))
	q.Set("field2", fmt.Sprintf("%.2f", humidity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.base+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return fmt.Errorf("upstream read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("upstream refused update")
	}
	return nil
}
