package twitter

import (
	"context"
	"time"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// Channels handlers can register on.
const (
	ChannelDirectMessage = "direct_message"
	ChannelTyping        = "typing"
	ChannelRead          = "read"
	ChannelTweetCreate   = "tweet_create"
	ChannelTweetDelete   = "tweet_delete"
	ChannelTweetFavorite = "tweet_favorite"
	ChannelUserFollow    = "user_follow"
	ChannelUserUnfollow  = "user_unfollow"
	ChannelUserBlock     = "user_block"
	ChannelUserUnblock   = "user_unblock"
	ChannelUserMute      = "user_mute"
	ChannelUserUnmute    = "user_unmute"
	ChannelUserRevoke    = "user_revoke"
)

// Channels lists every channel in a stable order.
var Channels = []string{
	ChannelDirectMessage, ChannelTyping, ChannelRead,
	ChannelTweetCreate, ChannelTweetDelete, ChannelTweetFavorite,
	ChannelUserFollow, ChannelUserUnfollow,
	ChannelUserBlock, ChannelUserUnblock,
	ChannelUserMute, ChannelUserUnmute,
	ChannelUserRevoke,
}

// EventKind names the concrete event variant.
type EventKind string

const (
	KindDirectMessage EventKind = "direct_message_create"
	KindTyping        EventKind = "direct_message_typing"
	KindRead          EventKind = "direct_message_read"
	KindTweetCreate   EventKind = "tweet_create"
	KindTweetDelete   EventKind = "tweet_delete"
	KindTweetFavorite EventKind = "tweet_favorite"
	KindUserAction    EventKind = "user_action"
	KindUserRevoke    EventKind = "user_revoke"
)

// Event is one classified webhook delivery.
type Event interface {
	Kind() EventKind
	Channel() string
	CreatedAt() time.Time
	DeliveryID() string
	// ForUserID is the subscribed account the delivery was sent for.
	ForUserID() int64
	// Body is the raw event object the event was built from.
	Body() payload.Raw
}

type eventMeta struct {
	deliveryID string
	createdAt  time.Time
	forUserID  int64
	body       payload.Raw
}

func (m eventMeta) CreatedAt() time.Time { return m.createdAt }
func (m eventMeta) DeliveryID() string   { return m.deliveryID }
func (m eventMeta) ForUserID() int64     { return m.forUserID }
func (m eventMeta) Body() payload.Raw    { return m.body }

// DirectMessageEvent is a direct message sent or received by the account.
type DirectMessageEvent struct {
	eventMeta
	Message *DirectMessage
}

func (DirectMessageEvent) Kind() EventKind { return KindDirectMessage }
func (DirectMessageEvent) Channel() string { return ChannelDirectMessage }

// DirectMessageTypingEvent reports that Sender is typing to Recipient.
type DirectMessageTypingEvent struct {
	eventMeta
	Sender    *User
	Recipient *User
}

func (DirectMessageTypingEvent) Kind() EventKind { return KindTyping }
func (DirectMessageTypingEvent) Channel() string { return ChannelTyping }

// DirectMessageReadEvent reports that Sender read the conversation up to
// LastReadEventID. LastRead is nil when that message was never seen.
type DirectMessageReadEvent struct {
	eventMeta
	Sender          *User
	Recipient       *User
	LastReadEventID int64
	LastRead        *DirectMessage
}

func (DirectMessageReadEvent) Kind() EventKind { return KindRead }
func (DirectMessageReadEvent) Channel() string { return ChannelRead }

// TweetCreateEvent is a tweet by, mentioning or replying to the account.
type TweetCreateEvent struct {
	eventMeta
	Tweet *Tweet
}

func (TweetCreateEvent) Kind() EventKind { return KindTweetCreate }
func (TweetCreateEvent) Channel() string { return ChannelTweetCreate }

// TweetDeleteEvent reports a deleted tweet. Tweet is nil when the tweet was
// not in the cache; only TweetID and UserID are known then.
type TweetDeleteEvent struct {
	eventMeta
	TweetID int64
	UserID  int64
	Tweet   *Tweet
}

func (TweetDeleteEvent) Kind() EventKind { return KindTweetDelete }
func (TweetDeleteEvent) Channel() string { return ChannelTweetDelete }

// Degraded reports whether the deleted tweet is known by id only.
func (e TweetDeleteEvent) Degraded() bool { return e.Tweet == nil }

// TweetFavoriteEvent reports that Liker liked Tweet.
type TweetFavoriteEvent struct {
	eventMeta
	ID    string
	Tweet *Tweet
	Liker *User
}

func (TweetFavoriteEvent) Kind() EventKind { return KindTweetFavorite }
func (TweetFavoriteEvent) Channel() string { return ChannelTweetFavorite }

// UserAction is what a user did to another.
type UserAction string

const (
	ActionFollow UserAction = "follow"
	ActionBlock  UserAction = "block"
	ActionMute   UserAction = "mute"
)

// Polarity tells whether an action was applied or undone.
type Polarity int

const (
	Assert Polarity = iota
	Revoke
)

func (p Polarity) String() string {
	if p == Revoke {
		return "revoke"
	}
	return "assert"
}

// userActionTypes maps the webhook "type" field onto action and polarity.
var userActionTypes = map[string]struct {
	action   UserAction
	polarity Polarity
}{
	"follow":   {ActionFollow, Assert},
	"unfollow": {ActionFollow, Revoke},
	"block":    {ActionBlock, Assert},
	"unblock":  {ActionBlock, Revoke},
	"mute":     {ActionMute, Assert},
	"unmute":   {ActionMute, Revoke},
}

// UserActionEvent covers follow, block and mute and their reversals. Source
// acted on Target.
type UserActionEvent struct {
	eventMeta
	Action   UserAction
	Polarity Polarity
	Source   *User
	Target   *User
}

func (UserActionEvent) Kind() EventKind { return KindUserAction }

// Type returns the webhook name of the action, e.g. "unfollow".
func (e UserActionEvent) Type() string {
	if e.Polarity == Revoke {
		return "un" + string(e.Action)
	}
	return string(e.Action)
}

func (e UserActionEvent) Channel() string { return "user_" + e.Type() }

// Follower returns the acting user; for follow events that is the follower.
func (e UserActionEvent) Follower() *User { return e.Source }

// UserRevokeEvent reports that UserID revoked AppID's access.
type UserRevokeEvent struct {
	eventMeta
	AppID  int64
	UserID int64
}

func (UserRevokeEvent) Kind() EventKind { return KindUserRevoke }
func (UserRevokeEvent) Channel() string { return ChannelUserRevoke }

type deliveryIDKey struct{}

// WithDeliveryID attaches the delivery id events built under ctx carry.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryIDKey{}, id)
}

// DeliveryIDFromContext returns the delivery id attached to ctx, if any.
func DeliveryIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deliveryIDKey{}).(string)
	return id
}
