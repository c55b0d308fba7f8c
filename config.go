package twitter

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anatolykoptev/go-twitter-api/cache"
	"github.com/anatolykoptev/go-twitter-api/metrics"
)

// ClientConfig holds all configuration for the Twitter client.
type ClientConfig struct {
	// Credentials are the app and user tokens. OAuth 1.0a user context is
	// used for auth=true requests, the bearer token for the rest.
	Credentials Credentials

	// BaseURL is the REST API root. Default: https://api.twitter.com
	BaseURL string

	// PublishURL is the oEmbed root. Default: https://publish.twitter.com
	PublishURL string

	// Proxy is an optional proxy URL for all API traffic.
	Proxy string

	// Profile selects the browser TLS fingerprint and User-Agent.
	// Default: the first built-in stealth profile.
	Profile *BrowserProfile

	// Transport overrides the stealth round tripper. Tests use it to serve
	// canned responses.
	Transport http.RoundTripper

	// Timeout bounds each HTTP request. Default: 30s.
	Timeout time.Duration

	// UserCache, TweetCache and MessageCache size the dispatch caches.
	// Zero capacity means cache.DefaultCapacity; use cache.Unbounded to
	// never evict.
	UserCache    cache.Policy
	TweetCache   cache.Policy
	MessageCache cache.Policy

	// Clock drives cache expiry and event timestamp fallbacks.
	Clock clockwork.Clock

	// SelfID is the id of the authenticated account. Participants with this
	// id are never cached. Default: the prefix of the access token, or
	// FetchMe when no access token is configured.
	SelfID int64

	// PositionalFamily makes the classifier pick the event family from the
	// second top-level key of a delivery when no family is supplied. Off by
	// default: families are matched by key presence instead.
	PositionalFamily bool

	// MetricsHook is called on each API request for external metrics collection.
	// endpoint is the API path, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool)

	// CacheObserver is notified of every cache lookup.
	CacheObserver cache.Observer

	// Metrics, when set, backs MetricsHook and CacheObserver if those are
	// nil and counts dispatched events and handler failures.
	Metrics *metrics.Metrics

	// UserLookup resolves participants that are neither embedded in a
	// delivery nor cached. Default: the client itself.
	UserLookup UserLookup
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twitterAPIURL
	}
	if cfg.PublishURL == "" {
		cfg.PublishURL = twitterPublishURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Profile == nil {
		p := DefaultBrowserProfile()
		cfg.Profile = &p
	}
	if cfg.Metrics != nil {
		if cfg.MetricsHook == nil {
			cfg.MetricsHook = cfg.Metrics.RecordAPICall
		}
		if cfg.CacheObserver == nil {
			cfg.CacheObserver = cfg.Metrics.RecordCacheLookup
		}
	}
}
