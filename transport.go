package twitter

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
)

// stealthTransport adapts a stealth.BrowserClient to http.RoundTripper so
// that the OAuth signer and the bearer path share one fingerprinted client.
type stealthTransport struct {
	client *stealth.BrowserClient
	order  []string
}

func newStealthTransport(cfg ClientConfig) (*stealthTransport, error) {
	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(apiHeaderOrder),
		stealth.WithProfile(cfg.Profile.TLSProfile),
	}
	if cfg.Proxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.Proxy))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return &stealthTransport{client: bc, order: apiHeaderOrder}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *stealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = req.Body
	}
	respBody, respHdrs, status, err := t.client.DoWithHeaderOrder(req.Method, req.URL.String(), headers, body, t.order)
	if err != nil {
		return nil, err
	}

	h := make(http.Header, len(respHdrs))
	for k, v := range respHdrs {
		h.Set(k, v)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(respBody)),
		ContentLength: int64(len(respBody)),
		Request:       req,
	}, nil
}
