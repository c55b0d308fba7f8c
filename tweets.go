package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anatolykoptev/go-twitter-api/pagination"
	"github.com/anatolykoptev/go-twitter-api/payload"
)

// TweetPagination pages through tweet listings.
type TweetPagination = pagination.Cursor[*Tweet]

// FetchTweet fetches one tweet with its author attached.
func (c *Client) FetchTweet(ctx context.Context, id int64) (*Tweet, error) {
	raw, err := c.Request(ctx, http.MethodGet, V2, "tweets/"+strconv.FormatInt(id, 10), false, tweetParams())
	if err != nil {
		return nil, fmt.Errorf("FetchTweet: %w", err)
	}
	authorID := payload.String(payload.Body(raw)["author_id"])
	for _, u := range payload.List(payload.Map(raw["includes"])["users"]) {
		if m := payload.Map(u); m != nil && payload.String(m["id"]) == authorID {
			raw = payload.InjectAuthor(raw, m)
			break
		}
	}
	return newTweet(raw)
}

// FetchTweetMetrics returns the public engagement counters of a tweet.
// Counters the API reports in a non-integer form come back as
// payload.Unconvertible.
func (c *Client) FetchTweetMetrics(ctx context.Context, id int64) (map[string]int64, error) {
	raw, err := c.Request(ctx, http.MethodGet, V2, "tweets/"+strconv.FormatInt(id, 10), false,
		map[string]string{"tweet.fields": "public_metrics"})
	if err != nil {
		return nil, fmt.Errorf("FetchTweetMetrics: %w", err)
	}
	return payload.NormalizeMetricMapping(payload.Map(payload.Body(raw)["public_metrics"])), nil
}

// FetchTimeline pages through the tweets a user posted.
func (c *Client) FetchTimeline(ctx context.Context, userID int64) (*TweetPagination, error) {
	return c.tweetPagination(ctx, fmt.Sprintf("users/%d/tweets", userID), false)
}

// FetchMentions pages through tweets mentioning a user.
func (c *Client) FetchMentions(ctx context.Context, userID int64) (*TweetPagination, error) {
	return c.tweetPagination(ctx, fmt.Sprintf("users/%d/mentions", userID), false)
}

// FetchLikedTweets pages through the tweets a user liked.
func (c *Client) FetchLikedTweets(ctx context.Context, userID int64) (*TweetPagination, error) {
	return c.tweetPagination(ctx, fmt.Sprintf("users/%d/liked_tweets", userID), false)
}

// FetchListTweets pages through the tweets of a list.
func (c *Client) FetchListTweets(ctx context.Context, listID int64) (*TweetPagination, error) {
	return c.tweetPagination(ctx, fmt.Sprintf("lists/%d/tweets", listID), false)
}

func (c *Client) tweetPagination(ctx context.Context, path string, auth bool) (*TweetPagination, error) {
	params := tweetParams()
	first, err := c.Request(ctx, http.MethodGet, V2, path, auth, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pagination.New(first, pagination.Options[*Tweet]{
		Decode: newTweet,
		Fetch:  c.pageFetcher(V2, path, auth),
		Params: params,
		Items:  payload.InjectPaginationAuthors,
	})
}

// FetchEmbed returns the oEmbed representation of a tweet URL.
func (c *Client) FetchEmbed(ctx context.Context, tweetURL string) (*Embed, error) {
	raw, err := c.do(ctx, http.MethodGet, c.cfg.PublishURL+"/oembed", "oembed", false, map[string]string{"url": tweetURL})
	if err != nil {
		return nil, fmt.Errorf("FetchEmbed: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("FetchEmbed: %w", ErrNotFound)
	}
	return newEmbed(payload.NormalizeEmbed(raw)), nil
}
