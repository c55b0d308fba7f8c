package twitter

import (
	"time"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// User represents a Twitter/X account profile.
type User struct {
	ID              int64
	Username        string
	Name            string
	Description     string
	Location        string
	URL             string
	ProfileImageURL string
	Protected       bool
	Verified        bool
	CreatedAt       time.Time
	PinnedTweetID   int64

	Followers   int64
	Following   int64
	TweetCount  int64
	ListedCount int64

	Raw payload.Raw
}

// ItemID implements pagination.Item.
func (u *User) ItemID() int64 { return u.ID }

// Tweet represents a single tweet.
type Tweet struct {
	ID                int64
	AuthorID          int64
	// Author is the includes user matching AuthorID. Listing pages carry
	// one author per page, so without a match it is the page's first user
	// and Author.ID may differ from AuthorID.
	Author            *User
	Text              string
	Lang              string
	Source            string
	ConversationID    int64
	InReplyToUserID   int64
	PossiblySensitive bool
	CreatedAt         time.Time
	Mentions          []string // usernames, in order of appearance

	Likes    int64
	Retweets int64
	Replies  int64
	Quotes   int64

	Raw payload.Raw
}

// ItemID implements pagination.Item.
func (t *Tweet) ItemID() int64 { return t.ID }

// List represents a Twitter list.
type List struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	Owner       *User
	Private     bool
	Followers   int64
	Members     int64
	CreatedAt   time.Time

	Raw payload.Raw
}

// ItemID implements pagination.Item.
func (l *List) ItemID() int64 { return l.ID }

// ApplicationInfo identifies the app a direct message was sent from.
type ApplicationInfo struct {
	ID   int64
	Name string
	URL  string
}

// DirectMessage is one message_create event.
type DirectMessage struct {
	ID          int64
	Text        string
	CreatedAt   time.Time
	SenderID    int64
	RecipientID int64
	Sender      *User
	Recipient   *User
	SourceApp   *ApplicationInfo

	Raw payload.Raw
}

// ItemID implements pagination.Item.
func (m *DirectMessage) ItemID() int64 { return m.ID }

// Timezone is the time zone part of the account settings.
type Timezone struct {
	Name      string
	NameInfo  string
	UTCOffset int64
}

// SleepTime is the quiet-hours part of the account settings.
type SleepTime struct {
	Enabled   bool
	StartTime int64
	EndTime   int64
}

// Settings holds the authenticated account's settings.
type Settings struct {
	ScreenName string
	Language   string
	Protected  bool
	Timezone   Timezone
	SleepTime  SleepTime

	Raw payload.Raw
}

// TrendLocation is one location trends are available for.
type TrendLocation struct {
	Name        string
	WOEID       int64
	Country     string
	CountryCode string
	URL         string
	PlaceType   string
	PlaceCode   int64

	Raw payload.Raw
}

// Embed is an oEmbed representation of a tweet.
type Embed struct {
	URL          string
	AuthorName   string
	AuthorURL    string
	HTML         string
	Width        int64
	Type         string
	ProviderName string
	CacheAge     int64
	StatusCode   int64

	Raw payload.Raw
}
