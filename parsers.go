package twitter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

const rubyDateLayout = "Mon Jan 02 15:04:05 +0000 2006"

var errMissingID = errors.New("missing id")

// parseTime accepts RFC 3339 (v2), the v1.1 created_at layout and
// millisecond epochs as number or string.
func parseTime(v any) time.Time {
	if ms, ok := payload.Int64(v); ok {
		return time.UnixMilli(ms).UTC()
	}
	s := payload.String(v)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(rubyDateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// idOf reads an id from "id", falling back to "id_str".
func idOf(raw payload.Raw) (int64, bool) {
	if id, ok := payload.Int64(raw["id"]); ok {
		return id, true
	}
	return payload.Int64(raw["id_str"])
}

func int64Of(v any) int64 {
	n, _ := payload.Int64(v)
	return n
}

// newUser builds a User from a canonical user payload, either a v2
// response ({"data": {...}}) or a bare user object.
func newUser(raw payload.Raw) (*User, error) {
	body := payload.Body(raw)
	id, ok := idOf(body)
	if !ok {
		return nil, fmt.Errorf("parse user: %w", errMissingID)
	}
	metrics := payload.Map(body["public_metrics"])
	return &User{
		ID:              id,
		Username:        payload.String(body["username"]),
		Name:            payload.String(body["name"]),
		Description:     strings.TrimSpace(payload.String(body["description"])),
		Location:        payload.String(body["location"]),
		URL:             payload.String(body["url"]),
		ProfileImageURL: payload.String(body["profile_image_url"]),
		Protected:       payload.Bool(body["protected"]),
		Verified:        payload.Bool(body["verified"]),
		CreatedAt:       parseTime(body["created_at"]),
		PinnedTweetID:   int64Of(body["pinned_tweet_id"]),
		Followers:       int64Of(metrics["followers_count"]),
		Following:       int64Of(metrics["following_count"]),
		TweetCount:      int64Of(metrics["tweet_count"]),
		ListedCount:     int64Of(metrics["listed_count"]),
		Raw:             raw,
	}, nil
}

// newTweet builds a Tweet from a canonical tweet payload. The author is
// the includes user matching author_id, else includes.users[0].
func newTweet(raw payload.Raw) (*Tweet, error) {
	body := payload.Body(raw)
	id, ok := idOf(body)
	if !ok {
		return nil, fmt.Errorf("parse tweet: %w", errMissingID)
	}

	text := payload.String(body["text"])
	if text == "" {
		text = payload.String(body["full_text"])
	}
	created := parseTime(body["created_at"])
	if created.IsZero() {
		created = parseTime(body["timestamp"])
	}

	t := &Tweet{
		ID:                id,
		AuthorID:          int64Of(body["author_id"]),
		Text:              text,
		Lang:              payload.String(body["lang"]),
		Source:            payload.String(body["source"]),
		ConversationID:    int64Of(body["conversation_id"]),
		InReplyToUserID:   int64Of(body["in_reply_to_user_id"]),
		PossiblySensitive: payload.Bool(body["possibly_sensitive"]),
		CreatedAt:         created,
		Raw:               raw,
	}

	metrics := payload.Map(body["public_metrics"])
	t.Likes = int64Of(metrics["like_count"])
	t.Retweets = int64Of(metrics["retweet_count"])
	t.Replies = int64Of(metrics["reply_count"])
	t.Quotes = int64Of(metrics["quote_count"])

	includes := payload.Map(raw["includes"])
	if mentions, ok := includes["mentions"]; ok {
		for _, m := range payload.List(mentions) {
			t.Mentions = append(t.Mentions, payload.String(m))
		}
	} else {
		for _, m := range payload.List(payload.Map(body["entities"])["mentions"]) {
			t.Mentions = append(t.Mentions, payload.String(payload.Map(m)["username"]))
		}
	}

	users := payload.List(includes["users"])
	var author payload.Raw
	for _, u := range users {
		if id, ok := idOf(payload.Map(u)); ok && t.AuthorID != 0 && id == t.AuthorID {
			author = payload.Map(u)
			break
		}
	}
	if author == nil && len(users) > 0 {
		author = payload.Map(users[0])
	}
	if author != nil {
		if u, err := newUser(author); err == nil {
			t.Author = u
			if t.AuthorID == 0 {
				t.AuthorID = u.ID
			}
		}
	}
	return t, nil
}

// newList builds a List from a canonical list payload.
func newList(raw payload.Raw) (*List, error) {
	body := payload.Body(raw)
	id, ok := idOf(body)
	if !ok {
		return nil, fmt.Errorf("parse list: %w", errMissingID)
	}
	l := &List{
		ID:          id,
		Name:        payload.String(body["name"]),
		Description: payload.String(body["description"]),
		OwnerID:     int64Of(body["owner_id"]),
		Private:     payload.Bool(body["private"]),
		Followers:   int64Of(body["follower_count"]),
		Members:     int64Of(body["member_count"]),
		CreatedAt:   parseTime(body["created_at"]),
		Raw:         raw,
	}
	if users := payload.List(payload.Map(raw["includes"])["users"]); len(users) > 0 {
		if owner := payload.Map(users[0]); owner != nil {
			if u, err := newUser(owner); err == nil {
				l.Owner = u
			}
		}
	}
	return l, nil
}

// newApplicationInfo builds the source app of a direct message.
func newApplicationInfo(raw payload.Raw) *ApplicationInfo {
	if raw == nil {
		return nil
	}
	return &ApplicationInfo{
		ID:   int64Of(raw["id"]),
		Name: payload.String(raw["name"]),
		URL:  payload.String(raw["url"]),
	}
}

// newDirectMessage builds a DirectMessage from a message_create event,
// optionally wrapped as {"event": {...}}. Participants already attached
// under message_create.target are decoded too.
func newDirectMessage(raw payload.Raw) (*DirectMessage, error) {
	ev := raw
	if inner := payload.Map(raw["event"]); inner != nil {
		ev = inner
	}
	id, ok := idOf(ev)
	if !ok {
		return nil, fmt.Errorf("parse direct message: %w", errMissingID)
	}
	mc := payload.Map(ev["message_create"])
	target := payload.Map(mc["target"])

	m := &DirectMessage{
		ID:          id,
		Text:        payload.String(payload.Map(mc["message_data"])["text"]),
		CreatedAt:   parseTime(ev["created_timestamp"]),
		SenderID:    int64Of(mc["sender_id"]),
		RecipientID: int64Of(target["recipient_id"]),
		SourceApp:   newApplicationInfo(payload.Map(target["source_application"])),
		Raw:         raw,
	}
	if u := payload.Map(target["sender"]); u != nil {
		m.Sender, _ = newUser(u)
	}
	if u := payload.Map(target["recipient"]); u != nil {
		m.Recipient, _ = newUser(u)
	}
	return m, nil
}

// newSettings builds Settings from a normalized account/settings payload.
func newSettings(raw payload.Raw) *Settings {
	tz := payload.Map(raw["timezone"])
	sleep := payload.Map(raw["sleep_time_setting"])
	return &Settings{
		ScreenName: payload.String(raw["screen_name"]),
		Language:   payload.String(raw["language"]),
		Protected:  payload.Bool(raw["protected"]),
		Timezone: Timezone{
			Name:      payload.String(tz["name"]),
			NameInfo:  payload.String(raw["name_info"]),
			UTCOffset: int64Of(tz["utc_offset"]),
		},
		SleepTime: SleepTime{
			Enabled:   payload.Bool(sleep["enabled"]),
			StartTime: int64Of(sleep["start_time"]),
			EndTime:   int64Of(sleep["end_time"]),
		},
		Raw: raw,
	}
}

// newTrendLocation builds a TrendLocation from a normalized entry.
func newTrendLocation(raw payload.Raw) *TrendLocation {
	place := payload.Map(raw["place_type"])
	return &TrendLocation{
		Name:        payload.String(raw["name"]),
		WOEID:       int64Of(raw["woeid"]),
		Country:     payload.String(raw["country"]),
		CountryCode: payload.String(raw["country_code"]),
		URL:         payload.String(raw["url"]),
		PlaceType:   payload.String(place["name"]),
		PlaceCode:   int64Of(place["code"]),
		Raw:         raw,
	}
}

// newEmbed builds an Embed from a normalized oEmbed payload.
func newEmbed(raw payload.Raw) *Embed {
	return &Embed{
		URL:          payload.String(raw["url"]),
		AuthorName:   payload.String(raw["author_name"]),
		AuthorURL:    payload.String(raw["author_url"]),
		HTML:         payload.String(raw["html"]),
		Width:        int64Of(raw["width"]),
		Type:         payload.String(raw["type"]),
		ProviderName: payload.String(raw["provider_name"]),
		CacheAge:     int64Of(raw["cache_age"]),
		StatusCode:   int64Of(raw["status_code"]),
		Raw:          raw,
	}
}
