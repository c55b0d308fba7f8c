package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// Request performs one REST call against the versioned API and returns the
// decoded payload. auth=true signs with OAuth 1.0a user context; otherwise the
// bearer token is used. Either falls back to the other when its credentials
// are missing. A 204 or an empty body yields a nil payload and no error.
func (c *Client) Request(ctx context.Context, method, version, path string, auth bool, params map[string]string) (payload.Raw, error) {
	return c.do(ctx, method, endpointURL(c.cfg.BaseURL, version, path), endpointLabel(version, path), auth, params)
}

func (c *Client) do(ctx context.Context, method, rawURL, endpoint string, auth bool, params map[string]string) (payload.Raw, error) {
	hc, bearer, err := c.httpClient(auth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) > 0 {
		rawURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	setHeaders(req, apiHeaders(c.cfg.Profile.UserAgent))
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Credentials.BearerToken)
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.recordAPICall(endpoint, false, false)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordAPICall(endpoint, false, false)
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}

	status := resp.StatusCode
	if status < 200 || status >= 300 {
		rateLimited := status == http.StatusTooManyRequests
		c.recordAPICall(endpoint, false, rateLimited)
		slog.Warn("request failed",
			slog.String("endpoint", endpoint),
			slog.Int("status", status),
			slog.String("body", truncateBytes(body, 500)))
		return nil, newHTTPError(endpoint, status, body, lowerHeaders(resp.Header))
	}

	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		c.recordAPICall(endpoint, true, false)
		return nil, nil
	}

	raw, err := payload.Decode(body)
	if err != nil {
		c.recordAPICall(endpoint, false, false)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if _, hasErrors := raw["errors"]; hasErrors && raw["data"] == nil {
		if apiErr := newAPIError(endpoint, body); apiErr != nil {
			c.recordAPICall(endpoint, false, false)
			return nil, apiErr
		}
	}

	c.recordAPICall(endpoint, true, false)
	return raw, nil
}

// httpClient picks the signer for a request. bearer reports whether the
// caller must add the bearer Authorization header itself.
func (c *Client) httpClient(auth bool) (hc *http.Client, bearer bool, err error) {
	hasBearer := c.cfg.Credentials.BearerToken != ""
	switch {
	case auth && c.oauth != nil:
		return c.oauth, false, nil
	case !auth && hasBearer:
		return c.bearer, true, nil
	case c.oauth != nil:
		return c.oauth, false, nil
	case hasBearer:
		return c.bearer, true, nil
	}
	return nil, false, ErrMissingCredentials
}

// endpointLabel collapses numeric path segments so metric labels stay bounded.
func endpointLabel(version, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return version + "/" + strings.Join(parts, "/")
}

func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}
