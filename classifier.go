package twitter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// Webhook event families, in key-presence matching order.
const (
	FamilyDirectMessage = "direct_message_events"
	FamilyTyping        = "direct_message_indicate_typing_events"
	FamilyRead          = "direct_message_mark_read_events"
	FamilyTweetCreate   = "tweet_create_events"
	FamilyTweetDelete   = "tweet_delete_events"
	FamilyFavorite      = "favorite_events"
	FamilyFollow        = "follow_events"
	FamilyBlock         = "block_events"
	FamilyMute          = "mute_events"
	FamilyUserEvent     = "user_event"
)

var eventFamilies = []string{
	FamilyDirectMessage, FamilyTyping, FamilyRead,
	FamilyTweetCreate, FamilyTweetDelete, FamilyFavorite,
	FamilyFollow, FamilyBlock, FamilyMute,
	FamilyUserEvent,
}

var errInvalidBody = errors.New("body is not a JSON object")

// delivery is one decoded webhook body and the event object picked from it.
type delivery struct {
	family string
	raw    payload.Raw
	event  payload.Raw
	id     string
}

type eventBuilder func(c *Client, ctx context.Context, d delivery) (Event, error)

var eventBuilders = map[string]eventBuilder{
	FamilyDirectMessage: (*Client).buildDirectMessage,
	FamilyTyping:        (*Client).buildTyping,
	FamilyRead:          (*Client).buildRead,
	FamilyTweetCreate:   (*Client).buildTweetCreate,
	FamilyTweetDelete:   (*Client).buildTweetDelete,
	FamilyFavorite:      (*Client).buildFavorite,
	FamilyFollow:        (*Client).buildUserAction,
	FamilyBlock:         (*Client).buildUserAction,
	FamilyMute:          (*Client).buildUserAction,
	FamilyUserEvent:     (*Client).buildRevoke,
}

// Classify builds the event a webhook delivery describes. family is the
// event family named by the ingestion layer; when empty it is detected from
// the body. Unknown families and action types yield *UnrecognizedEventError.
func (c *Client) Classify(ctx context.Context, family string, body []byte) (Event, error) {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("Classify: %w", errInvalidBody)
	}
	if family == "" {
		family = c.detectFamily(body)
	}
	build, ok := eventBuilders[family]
	if !ok {
		return nil, &UnrecognizedEventError{Family: family}
	}

	raw, err := payload.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("Classify: %w", err)
	}
	d := delivery{family: family, raw: raw, id: DeliveryIDFromContext(ctx)}
	if family == FamilyUserEvent {
		d.event = payload.Map(raw[family])
	} else if items := payload.List(raw[family]); len(items) > 0 {
		d.event = payload.Map(items[0])
	}
	if d.event == nil {
		return nil, fmt.Errorf("Classify %s: no event object", family)
	}

	ev, err := build(c, ctx, d)
	if err != nil {
		return nil, fmt.Errorf("Classify %s: %w", family, err)
	}
	return ev, nil
}

// detectFamily names the family of a body without a supplied one. gjson
// walks keys in document order, which the positional rule relies on.
func (c *Client) detectFamily(body []byte) string {
	if c.cfg.PositionalFamily {
		var key string
		i := 0
		gjson.ParseBytes(body).ForEach(func(k, _ gjson.Result) bool {
			if i == 1 {
				key = k.String()
				return false
			}
			i++
			return true
		})
		return key
	}
	for _, f := range eventFamilies {
		if gjson.GetBytes(body, f).Exists() {
			return f
		}
	}
	return ""
}

func (c *Client) meta(d delivery, ts any) eventMeta {
	created := parseTime(ts)
	if created.IsZero() {
		created = c.cfg.Clock.Now()
	}
	return eventMeta{
		deliveryID: d.id,
		createdAt:  created,
		forUserID:  int64Of(d.raw["for_user_id"]),
		body:       d.event,
	}
}

// resolveUser builds a user from its embedded v1.1 object, or failing that
// from the user cache and then the configured lookup.
func (c *Client) resolveUser(ctx context.Context, embedded payload.Raw, id int64) (*User, error) {
	if embedded != nil {
		return newUser(payload.NormalizeUser(embedded))
	}
	if id == 0 {
		return nil, fmt.Errorf("resolve user: %w", errMissingID)
	}
	if u, ok := c.users.Get(id); ok {
		return u, nil
	}
	u, err := c.lookup.FetchUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", id, err)
	}
	return u, nil
}

// participant resolves a direct message participant from the delivery's
// users map, keyed by id string.
func (c *Client) participant(ctx context.Context, d delivery, idStr string) (*User, error) {
	id, _ := strconv.ParseInt(idStr, 10, 64)
	return c.resolveUser(ctx, payload.Map(payload.Map(d.raw["users"])[idStr]), id)
}

func (c *Client) senderRecipient(ctx context.Context, d delivery, senderID, recipientID string) (*User, *User, error) {
	sender, err := c.participant(ctx, d, senderID)
	if err != nil {
		return nil, nil, err
	}
	recipient, err := c.participant(ctx, d, recipientID)
	if err != nil {
		return nil, nil, err
	}
	return sender, recipient, nil
}

// sourceApp picks the app a message was sent from: the one matching
// source_app_id, else the first by key.
func sourceApp(apps payload.Raw, appID string) payload.Raw {
	if app := payload.Map(apps[appID]); app != nil {
		return app
	}
	keys := make([]string, 0, len(apps))
	for k := range apps {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if app := payload.Map(apps[k]); app != nil {
			return app
		}
	}
	return nil
}

func (c *Client) buildDirectMessage(ctx context.Context, d delivery) (Event, error) {
	mc := payload.Map(d.event["message_create"])
	senderID := payload.String(mc["sender_id"])
	recipientID := payload.String(payload.Map(mc["target"])["recipient_id"])
	sender, recipient, err := c.senderRecipient(ctx, d, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	msg, err := newDirectMessage(d.event)
	if err != nil {
		return nil, err
	}
	msg.Sender, msg.Recipient = sender, recipient
	if app := sourceApp(payload.Map(d.raw["apps"]), payload.String(mc["source_app_id"])); app != nil {
		msg.SourceApp = newApplicationInfo(app)
	}
	return DirectMessageEvent{eventMeta: c.meta(d, d.event["created_timestamp"]), Message: msg}, nil
}

func (c *Client) buildTyping(ctx context.Context, d delivery) (Event, error) {
	sender, recipient, err := c.senderRecipient(ctx, d,
		payload.String(d.event["sender_id"]),
		payload.String(payload.Map(d.event["target"])["recipient_id"]))
	if err != nil {
		return nil, err
	}
	return DirectMessageTypingEvent{
		eventMeta: c.meta(d, d.event["created_timestamp"]),
		Sender:    sender,
		Recipient: recipient,
	}, nil
}

func (c *Client) buildRead(ctx context.Context, d delivery) (Event, error) {
	sender, recipient, err := c.senderRecipient(ctx, d,
		payload.String(d.event["sender_id"]),
		payload.String(payload.Map(d.event["target"])["recipient_id"]))
	if err != nil {
		return nil, err
	}
	ev := DirectMessageReadEvent{
		eventMeta:       c.meta(d, d.event["created_timestamp"]),
		Sender:          sender,
		Recipient:       recipient,
		LastReadEventID: int64Of(d.event["last_read_event_id"]),
	}
	if msg, ok := c.messages.Get(ev.LastReadEventID); ok {
		ev.LastRead = msg
	}
	return ev, nil
}

func (c *Client) buildTweetCreate(_ context.Context, d delivery) (Event, error) {
	tweet, err := newTweet(payload.NormalizeTweet(d.event))
	if err != nil {
		return nil, err
	}
	meta := c.meta(d, d.event["timestamp_ms"])
	if !tweet.CreatedAt.IsZero() {
		meta.createdAt = tweet.CreatedAt
	}
	return TweetCreateEvent{eventMeta: meta, Tweet: tweet}, nil
}

func (c *Client) buildTweetDelete(_ context.Context, d delivery) (Event, error) {
	status := payload.Map(d.event["status"])
	id, ok := idOf(status)
	if !ok {
		return nil, fmt.Errorf("tweet delete: %w", errMissingID)
	}
	ev := TweetDeleteEvent{
		eventMeta: c.meta(d, d.event["timestamp_ms"]),
		TweetID:   id,
		UserID:    int64Of(status["user_id"]),
	}
	if tweet, ok := c.tweets.Get(id); ok {
		ev.Tweet = tweet
		if ev.UserID == 0 {
			ev.UserID = tweet.AuthorID
		}
	}
	return ev, nil
}

func (c *Client) buildFavorite(ctx context.Context, d delivery) (Event, error) {
	tweet, err := newTweet(payload.NormalizeTweet(payload.Map(d.event["favorited_status"])))
	if err != nil {
		return nil, err
	}
	liker, err := c.resolveUser(ctx, payload.Map(d.event["user"]), 0)
	if err != nil {
		return nil, err
	}
	return TweetFavoriteEvent{
		eventMeta: c.meta(d, d.event["timestamp_ms"]),
		ID:        payload.String(d.event["id"]),
		Tweet:     tweet,
		Liker:     liker,
	}, nil
}

func (c *Client) buildUserAction(ctx context.Context, d delivery) (Event, error) {
	typ := payload.String(d.event["type"])
	kind, ok := userActionTypes[typ]
	if !ok {
		return nil, &UnrecognizedEventError{Family: d.family, Type: typ}
	}
	source, err := c.resolveUser(ctx, payload.Map(d.event["source"]), 0)
	if err != nil {
		return nil, err
	}
	target, err := c.resolveUser(ctx, payload.Map(d.event["target"]), 0)
	if err != nil {
		return nil, err
	}
	return UserActionEvent{
		eventMeta: c.meta(d, d.event["created_timestamp"]),
		Action:    kind.action,
		Polarity:  kind.polarity,
		Source:    source,
		Target:    target,
	}, nil
}

func (c *Client) buildRevoke(_ context.Context, d delivery) (Event, error) {
	revoke := payload.Map(d.event["revoke"])
	if revoke == nil {
		return nil, &UnrecognizedEventError{Family: d.family}
	}
	meta := c.meta(d, revoke["date_time"])
	meta.body = revoke
	return UserRevokeEvent{
		eventMeta: meta,
		AppID:     int64Of(payload.Map(revoke["target"])["app_id"]),
		UserID:    int64Of(payload.Map(revoke["source"])["user_id"]),
	}, nil
}
