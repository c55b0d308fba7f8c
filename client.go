package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dghubble/oauth1"

	"github.com/anatolykoptev/go-twitter-api/cache"
)

// UserLookup resolves users by id when a delivery does not embed them.
type UserLookup interface {
	FetchUser(ctx context.Context, id int64) (*User, error)
	FetchUsers(ctx context.Context, ids []int64) ([]*User, error)
}

// Client is the top-level Twitter API client. It issues REST requests,
// classifies webhook deliveries and dispatches them to registered handlers.
type Client struct {
	*Dispatcher

	cfg    ClientConfig
	bearer *http.Client
	oauth  *http.Client // nil without user context
	lookup UserLookup
	selfID int64

	users    *cache.Cache[int64, *User]
	tweets   *cache.Cache[int64, *Tweet]
	messages *cache.Cache[int64, *DirectMessage]
}

// NewClient creates a fully-wired Twitter client.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()

	rt := cfg.Transport
	if rt == nil {
		st, err := newStealthTransport(cfg)
		if err != nil {
			return nil, err
		}
		rt = st
	}

	users, err := cache.New[int64, *User]("users", cfg.UserCache, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("user cache: %w", err)
	}
	tweets, err := cache.New[int64, *Tweet]("tweets", cfg.TweetCache, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("tweet cache: %w", err)
	}
	messages, err := cache.New[int64, *DirectMessage]("messages", cfg.MessageCache, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("message cache: %w", err)
	}
	if cfg.CacheObserver != nil {
		users.SetObserver(cfg.CacheObserver)
		tweets.SetObserver(cfg.CacheObserver)
		messages.SetObserver(cfg.CacheObserver)
	}

	c := &Client{
		cfg:      cfg,
		bearer:   &http.Client{Transport: rt, Timeout: cfg.Timeout},
		users:    users,
		tweets:   tweets,
		messages: messages,
	}

	creds := cfg.Credentials
	if creds.HasUserContext() {
		base := context.WithValue(context.Background(), oauth1.HTTPClient, &http.Client{Transport: rt})
		oc := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret).
			Client(base, oauth1.NewToken(creds.AccessToken, creds.AccessSecret))
		oc.Timeout = cfg.Timeout
		c.oauth = oc
	}

	c.lookup = cfg.UserLookup
	if c.lookup == nil {
		c.lookup = c
	}

	c.selfID = cfg.SelfID
	if c.selfID == 0 {
		c.selfID = creds.SelfID()
	}
	if c.selfID == 0 && c.oauth != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		me, err := c.FetchMe(ctx)
		cancel()
		if err != nil {
			slog.Warn("self identity unresolved, own account will be cached", slog.Any("error", err))
		} else {
			c.selfID = me.ID
		}
	}

	c.Dispatcher = newDispatcher(dispatcherConfig{
		selfID:   c.selfID,
		users:    users,
		tweets:   tweets,
		messages: messages,
		metrics:  cfg.Metrics,
	})
	slog.Debug("twitter client ready",
		slog.Int64("self_id", c.selfID),
		slog.Bool("user_context", c.oauth != nil),
		slog.Int("user_cache", users.Policy().Capacity),
		slog.Int("tweet_cache", tweets.Policy().Capacity),
		slog.Int("message_cache", messages.Policy().Capacity))
	return c, nil
}

// SelfID returns the id of the authenticated account, or 0 if unknown.
func (c *Client) SelfID() int64 { return c.selfID }

// CachedUser returns a user seen in an earlier event.
func (c *Client) CachedUser(id int64) (*User, bool) { return c.users.Get(id) }

// CachedTweet returns a tweet seen in an earlier event.
func (c *Client) CachedTweet(id int64) (*Tweet, bool) { return c.tweets.Get(id) }

// CachedMessage returns a direct message seen in an earlier event.
func (c *Client) CachedMessage(id int64) (*DirectMessage, bool) { return c.messages.Get(id) }

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}
