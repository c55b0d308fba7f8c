package twitter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// recorder serves canned bodies by URL path and remembers every request.
type recorder struct {
	mu     sync.Mutex
	routes map[string]func(*http.Request) *http.Response
	calls  []*http.Request
}

func newRecorder() *recorder {
	return &recorder{routes: make(map[string]func(*http.Request) *http.Response)}
}

func (r *recorder) handle(path string, status int, body string) {
	r.routes[path] = func(*http.Request) *http.Response { return jsonResponse(status, body) }
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls = append(r.calls, req)
	route, ok := r.routes[req.URL.Path]
	r.mu.Unlock()
	if !ok {
		return jsonResponse(http.StatusNotFound, `{"title":"Not Found Error","detail":"no route `+req.URL.Path+`"}`), nil
	}
	return route(req), nil
}

func (r *recorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.URL.Path == path {
			n++
		}
	}
	return n
}

func (r *recorder) lastFor(path string) *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].URL.Path == path {
			return r.calls[i]
		}
	}
	return nil
}

func (r *recorder) last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestClient(t *testing.T, rt http.RoundTripper, mutate ...func(*ClientConfig)) *Client {
	t.Helper()
	cfg := ClientConfig{
		Credentials: Credentials{
			ConsumerKey:    "ck",
			ConsumerSecret: "cs",
			AccessToken:    "1-token",
			AccessSecret:   "as",
			BearerToken:    "BEARER",
		},
		BaseURL:    "https://api.test",
		PublishURL: "https://publish.test",
		Transport:  rt,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewClientSelfIDFromAccessToken(t *testing.T) {
	c := newTestClient(t, newRecorder())
	if c.SelfID() != 1 {
		t.Fatalf("expected self id 1, got %d", c.SelfID())
	}
}

func TestNewClientSelfIDFromFetchMe(t *testing.T) {
	rec := newRecorder()
	rec.handle("/2/users/me", 200, `{"data":{"id":"42","username":"me"}}`)
	c := newTestClient(t, rec, func(cfg *ClientConfig) { cfg.Credentials.AccessToken = "opaque" })
	if c.SelfID() != 42 {
		t.Fatalf("expected self id 42, got %d", c.SelfID())
	}
}

func TestRequestBearer(t *testing.T) {
	rec := newRecorder()
	rec.handle("/2/users/by/username/jack", 200, `{"data":{"id":"12","username":"jack"}}`)
	c := newTestClient(t, rec)

	u, err := c.FetchUserByUsername(context.Background(), "@jack")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 12 {
		t.Fatalf("expected id 12, got %d", u.ID)
	}
	req := rec.last()
	if got := req.Header.Get("Authorization"); got != "Bearer BEARER" {
		t.Fatalf("expected bearer auth, got %q", got)
	}
	if req.URL.Query().Get("user.fields") == "" {
		t.Fatal("expected user.fields query parameter")
	}
	if req.Header.Get("User-Agent") == "" {
		t.Fatal("expected a user agent")
	}
}

func TestRequestOAuthForUserContext(t *testing.T) {
	rec := newRecorder()
	rec.handle("/1.1/account/settings.json", 200, `{"screen_name":"me","language":"en"}`)
	c := newTestClient(t, rec)

	s, err := c.FetchSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.ScreenName != "me" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if got := rec.last().Header.Get("Authorization"); !strings.HasPrefix(got, "OAuth ") {
		t.Fatalf("expected OAuth signature, got %q", got)
	}
}

func TestRequestFallsBackWithoutBearer(t *testing.T) {
	rec := newRecorder()
	rec.handle("/2/users/5", 200, `{"data":{"id":"5"}}`)
	c := newTestClient(t, rec, func(cfg *ClientConfig) { cfg.Credentials.BearerToken = "" })

	if _, err := c.FetchUser(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if got := rec.last().Header.Get("Authorization"); !strings.HasPrefix(got, "OAuth ") {
		t.Fatalf("expected OAuth fallback, got %q", got)
	}
}

func TestRequestMissingCredentials(t *testing.T) {
	c := newTestClient(t, newRecorder(), func(cfg *ClientConfig) {
		cfg.Credentials = Credentials{}
		cfg.SelfID = 1
	})
	_, err := c.Request(context.Background(), http.MethodGet, V2, "users/1", false, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestRequestEmptyBody(t *testing.T) {
	rec := newRecorder()
	rec.routes["/2/users/1"] = func(*http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusNoContent, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}
	}
	c := newTestClient(t, rec)

	raw, err := c.Request(context.Background(), http.MethodGet, V2, "users/1", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if raw != nil {
		t.Fatalf("expected nil payload, got %v", raw)
	}
}

func TestRequestHTTPError(t *testing.T) {
	rec := newRecorder()
	rec.routes["/2/users/1"] = func(*http.Request) *http.Response {
		resp := jsonResponse(http.StatusTooManyRequests, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
		resp.Header.Set("X-Rate-Limit-Reset", "1700000000")
		return resp
	}

	var calls []string
	c := newTestClient(t, rec, func(cfg *ClientConfig) {
		cfg.MetricsHook = func(endpoint string, success, rateLimited bool) {
			if success || !rateLimited {
				t.Errorf("expected rate limited failure for %s", endpoint)
			}
			calls = append(calls, endpoint)
		}
	})

	_, err := c.Request(context.Background(), http.MethodGet, V2, "users/1", false, nil)
	if !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.Code != 88 || httpErr.RateLimitReset.Unix() != 1700000000 {
		t.Fatalf("unexpected error fields: %+v", httpErr)
	}
	if len(calls) != 1 || calls[0] != "2/users/:id" {
		t.Fatalf("unexpected metrics calls: %v", calls)
	}
}

func TestRequestPartialErrors(t *testing.T) {
	rec := newRecorder()
	rec.handle("/2/tweets/9", 200, `{"errors":[{"value":"9","detail":"Could not find tweet with id: [9].","title":"Not Found Error","type":"https://api.twitter.com/2/problems/resource-not-found"}]}`)
	c := newTestClient(t, rec)

	_, err := c.FetchTweet(context.Background(), 9)
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestFetchUsersBatches(t *testing.T) {
	rec := newRecorder()
	rec.routes["/2/users"] = func(req *http.Request) *http.Response {
		ids := strings.Split(req.URL.Query().Get("ids"), ",")
		var b strings.Builder
		b.WriteString(`{"data":[`)
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"id":"` + id + `"}`)
		}
		b.WriteString(`]}`)
		return jsonResponse(200, b.String())
	}
	c := newTestClient(t, rec)

	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	users, err := c.FetchUsers(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 150 {
		t.Fatalf("expected 150 users, got %d", len(users))
	}
	if n := rec.count("/2/users"); n != 2 {
		t.Fatalf("expected 2 batched requests, got %d", n)
	}
}

func TestFetchTweetMetrics(t *testing.T) {
	rec := newRecorder()
	rec.handle("/2/tweets/3", 200, `{"data":{"id":"3","public_metrics":{"like_count":4,"retweet_count":"2","impression_count":"n/a"}}}`)
	c := newTestClient(t, rec)

	m, err := c.FetchTweetMetrics(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if m["like_count"] != 4 || m["retweet_count"] != 2 {
		t.Fatalf("unexpected metrics: %v", m)
	}
	if m["impression_count"] >= 0 {
		t.Fatalf("expected unconvertible sentinel, got %d", m["impression_count"])
	}
}

func TestFetchEmbed(t *testing.T) {
	rec := newRecorder()
	rec.handle("/oembed", 200, `{"url":"https://twitter.com/x/status/1","author_name":"x","html":"<blockquote/>","status":"200"}`)
	c := newTestClient(t, rec)

	e, err := c.FetchEmbed(context.Background(), "https://twitter.com/x/status/1")
	if err != nil {
		t.Fatal(err)
	}
	if e.AuthorName != "x" || e.StatusCode != 200 {
		t.Fatalf("unexpected embed: %+v", e)
	}
	if got := rec.last().URL.Host; got != "publish.test" {
		t.Fatalf("expected publish host, got %s", got)
	}
}

func TestFetchTrendLocations(t *testing.T) {
	rec := newRecorder()
	rec.handle("/1.1/trends/available.json", 200, `[{"name":"Worldwide","woeid":1,"placeType":{"code":19,"name":"Supername"},"countryCode":null,"parentid":0}]`)
	c := newTestClient(t, rec)

	locs, err := c.FetchTrendLocations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 || locs[0].WOEID != 1 || locs[0].PlaceType != "Supername" {
		t.Fatalf("unexpected locations: %+v", locs)
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		version, path, want string
	}{
		{V2, "users/123/followers", "2/users/:id/followers"},
		{V2, "/users/me", "2/users/me"},
		{V1, "direct_messages/events/list", "1.1/direct_messages/events/list"},
	}
	for _, tt := range tests {
		if got := endpointLabel(tt.version, tt.path); got != tt.want {
			t.Fatalf("endpointLabel(%q, %q) = %q, want %q", tt.version, tt.path, got, tt.want)
		}
	}
}

func TestRequestTransportError(t *testing.T) {
	down := errors.New("connection refused")
	var failures int
	c := newTestClient(t, roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, down }),
		func(cfg *ClientConfig) {
			cfg.MetricsHook = func(_ string, success, _ bool) {
				if !success {
					failures++
				}
			}
		})

	_, err := c.FetchUser(context.Background(), 1)
	if !errors.Is(err, down) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if failures != 1 {
		t.Fatalf("expected 1 failed call, got %d", failures)
	}
}

func TestRequestCanceledContext(t *testing.T) {
	rec := newRecorder()
	c := newTestClient(t, rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchUser(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
