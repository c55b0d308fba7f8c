package twitter

import (
	"fmt"
	"strings"
)

const (
	twitterAPIURL     = "https://api.twitter.com"
	twitterPublishURL = "https://publish.twitter.com"
)

// API versions accepted by Client.Request.
const (
	V1 = "1.1"
	V2 = "2"
)

// Field and expansion sets requested from v2 endpoints.
const (
	TweetExpansions       = "attachments.poll_ids,attachments.media_keys,author_id,geo.place_id,in_reply_to_user_id,referenced_tweets.id,entities.mentions.username,referenced_tweets.id.author_id"
	ListExpansions        = "owner_id"
	PinnedTweetExpansions = "pinned_tweet_id"

	TweetFields = "attachments,author_id,context_annotations,conversation_id,created_at,geo,entities,in_reply_to_user_id,lang,possibly_sensitive,public_metrics,referenced_tweets,reply_settings,source,text,withheld"
	UserFields  = "created_at,description,entities,id,location,name,profile_image_url,protected,public_metrics,url,username,verified,withheld,pinned_tweet_id"
	MediaFields = "duration_ms,height,media_key,preview_image_url,public_metrics,type,url,width"
	PlaceFields = "contained_within,country,country_code,full_name,geo,id,name,place_type"
	PollFields  = "duration_minutes,end_datetime,id,options,voting_status"
	ListFields  = "created_at,follower_count,member_count,private,description,owner_id"
)

// maxUsersPerLookup is the id limit of GET /2/users.
const maxUsersPerLookup = 100

// endpointURL builds the full URL for a versioned API path. v1.1 paths get
// the .json suffix.
func endpointURL(base, version, path string) string {
	path = strings.TrimPrefix(path, "/")
	if version == V1 && !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), version, path)
}

// userParams returns the v2 query parameters for user objects.
func userParams() map[string]string {
	return map[string]string{
		"user.fields":  UserFields,
		"expansions":   PinnedTweetExpansions,
		"tweet.fields": TweetFields,
	}
}

// tweetParams returns the v2 query parameters for tweet objects.
func tweetParams() map[string]string {
	return map[string]string{
		"expansions":   TweetExpansions,
		"tweet.fields": TweetFields,
		"user.fields":  UserFields,
		"media.fields": MediaFields,
		"place.fields": PlaceFields,
		"poll.fields":  PollFields,
	}
}

// listParams returns the v2 query parameters for list objects.
func listParams() map[string]string {
	return map[string]string{
		"expansions":  ListExpansions,
		"list.fields": ListFields,
		"user.fields": UserFields,
	}
}

func withParams(base map[string]string, extra map[string]string) map[string]string {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
