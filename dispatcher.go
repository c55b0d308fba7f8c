package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/anatolykoptev/go-twitter-api/cache"
	"github.com/anatolykoptev/go-twitter-api/metrics"
)

// Handler receives the events of one channel.
type Handler func(ctx context.Context, ev Event) error

type dispatcherConfig struct {
	selfID   int64
	users    *cache.Cache[int64, *User]
	tweets   *cache.Cache[int64, *Tweet]
	messages *cache.Cache[int64, *DirectMessage]
	metrics  *metrics.Metrics
}

// Dispatcher routes events to the handlers registered for their channel and
// keeps the user, tweet and message caches current. Events on one channel
// are delivered one at a time; different channels do not block each other.
type Dispatcher struct {
	cfg dispatcherConfig

	mu       sync.RWMutex
	handlers map[string][]Handler
	locks    map[string]*sync.Mutex
}

func newDispatcher(cfg dispatcherConfig) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		handlers: make(map[string][]Handler),
		locks:    make(map[string]*sync.Mutex),
	}
}

// On registers h for channel. Handlers run in registration order. A handler
// registered while an event is being dispatched sees the next event.
func (d *Dispatcher) On(channel string, h Handler) {
	d.mu.Lock()
	d.handlers[channel] = append(d.handlers[channel], h)
	d.mu.Unlock()
}

// Dispatch updates the caches from ev and runs the channel's handlers.
// Handler errors and panics do not stop later handlers; they are joined
// into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.record(ev)

	channel := ev.Channel()
	handlers, lock := d.snapshot(channel)
	if d.cfg.metrics != nil {
		d.cfg.metrics.Events.WithLabelValues(channel).Inc()
	}

	lock.Lock()
	defer lock.Unlock()

	var errs []error
	for i, h := range handlers {
		if err := invoke(ctx, h, ev); err != nil {
			slog.Warn("event handler failed",
				slog.String("channel", channel),
				slog.Int("handler", i),
				slog.String("delivery_id", ev.DeliveryID()),
				slog.Any("error", err))
			if d.cfg.metrics != nil {
				d.cfg.metrics.HandlerErrors.WithLabelValues(channel).Inc()
			}
			errs = append(errs, fmt.Errorf("%s handler %d: %w", channel, i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) snapshot(channel string) ([]Handler, *sync.Mutex) {
	d.mu.RLock()
	handlers := slices.Clone(d.handlers[channel])
	lock, ok := d.locks[channel]
	d.mu.RUnlock()
	if ok {
		return handlers, lock
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if lock, ok = d.locks[channel]; !ok {
		lock = &sync.Mutex{}
		d.locks[channel] = lock
	}
	return handlers, lock
}

func invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

// record stores the event's participants and content. The account's own
// user is never cached.
func (d *Dispatcher) record(ev Event) {
	switch e := ev.(type) {
	case DirectMessageEvent:
		if e.Message != nil {
			d.addUser(e.Message.Sender)
			d.addUser(e.Message.Recipient)
			d.cfg.messages.Add(e.Message.ID, e.Message)
		}
	case DirectMessageTypingEvent:
		d.addUser(e.Sender)
		d.addUser(e.Recipient)
	case DirectMessageReadEvent:
		d.addUser(e.Sender)
		d.addUser(e.Recipient)
	case TweetCreateEvent:
		if e.Tweet != nil {
			d.cfg.tweets.Add(e.Tweet.ID, e.Tweet)
		}
	case TweetDeleteEvent:
		if _, ok := d.cfg.tweets.Pop(e.TweetID); ok {
			slog.Debug("deleted tweet evicted",
				slog.String("cache", d.cfg.tweets.Name()),
				slog.Int64("tweet_id", e.TweetID),
				slog.Int("size", d.cfg.tweets.Len()))
		}
	case TweetFavoriteEvent:
		d.addUser(e.Liker)
	case UserActionEvent:
		d.addUser(e.Source)
		d.addUser(e.Target)
	}
}

func (d *Dispatcher) addUser(u *User) {
	if u == nil || u.ID == d.cfg.selfID {
		return
	}
	d.cfg.users.Add(u.ID, u)
}

// HandleDelivery classifies a webhook body and dispatches the event.
// family may be empty. Unrecognized events are logged and returned.
func (c *Client) HandleDelivery(ctx context.Context, family string, body []byte) error {
	ev, err := c.Classify(ctx, family, body)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedEventKind) {
			slog.Warn("unrecognized webhook event",
				slog.String("family", family),
				slog.String("delivery_id", DeliveryIDFromContext(ctx)),
				slog.Any("error", err))
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Unrecognized.Inc()
			}
		}
		return err
	}
	slog.Debug("webhook event",
		slog.String("channel", ev.Channel()),
		slog.String("delivery_id", ev.DeliveryID()))
	return c.Dispatch(ctx, ev)
}
