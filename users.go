package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go-twitter-api/pagination"
	"github.com/anatolykoptev/go-twitter-api/payload"
)

// UserPagination pages through user lists (followers, members, likers...).
type UserPagination = pagination.Cursor[*User]

// FetchUser fetches a user profile by id.
func (c *Client) FetchUser(ctx context.Context, id int64) (*User, error) {
	raw, err := c.Request(ctx, http.MethodGet, V2, "users/"+strconv.FormatInt(id, 10), false, userParams())
	if err != nil {
		return nil, fmt.Errorf("FetchUser: %w", err)
	}
	return newUser(raw)
}

// FetchUserByUsername fetches a user profile by handle, with or without "@".
func (c *Client) FetchUserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimPrefix(username, "@")
	raw, err := c.Request(ctx, http.MethodGet, V2, "users/by/username/"+username, false, userParams())
	if err != nil {
		return nil, fmt.Errorf("FetchUserByUsername: %w", err)
	}
	return newUser(raw)
}

// FetchMe fetches the authenticated account.
func (c *Client) FetchMe(ctx context.Context) (*User, error) {
	raw, err := c.Request(ctx, http.MethodGet, V2, "users/me", true, userParams())
	if err != nil {
		return nil, fmt.Errorf("FetchMe: %w", err)
	}
	return newUser(raw)
}

// FetchUsers fetches many users by id, batching per request limit. Unknown
// ids are skipped.
func (c *Client) FetchUsers(ctx context.Context, ids []int64) ([]*User, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.FormatInt(id, 10)
	}
	raws, err := c.fetchUserPayloads(ctx, strs)
	if err != nil {
		return nil, fmt.Errorf("FetchUsers: %w", err)
	}
	users := make([]*User, 0, len(raws))
	for _, raw := range raws {
		u, err := newUser(raw)
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// fetchUserPayloads returns the raw user objects for ids, in batches of
// maxUsersPerLookup.
func (c *Client) fetchUserPayloads(ctx context.Context, ids []string) ([]payload.Raw, error) {
	var out []payload.Raw
	for start := 0; start < len(ids); start += maxUsersPerLookup {
		end := min(start+maxUsersPerLookup, len(ids))
		params := withParams(userParams(), map[string]string{"ids": strings.Join(ids[start:end], ",")})
		raw, err := c.Request(ctx, http.MethodGet, V2, "users", false, params)
		if err != nil {
			return out, err
		}
		for _, u := range payload.List(raw["data"]) {
			if m := payload.Map(u); m != nil {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// FetchFollowers pages through the followers of a user.
func (c *Client) FetchFollowers(ctx context.Context, userID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("users/%d/followers", userID), true)
}

// FetchFollowing pages through the accounts a user follows.
func (c *Client) FetchFollowing(ctx context.Context, userID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("users/%d/following", userID), true)
}

// FetchBlocked pages through the accounts the user blocks.
func (c *Client) FetchBlocked(ctx context.Context, userID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("users/%d/blocking", userID), true)
}

// FetchMuted pages through the accounts the user mutes.
func (c *Client) FetchMuted(ctx context.Context, userID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("users/%d/muting", userID), true)
}

// FetchLikingUsers pages through the users who liked a tweet.
func (c *Client) FetchLikingUsers(ctx context.Context, tweetID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("tweets/%d/liking_users", tweetID), false)
}

// FetchRetweeters pages through the users who retweeted a tweet.
func (c *Client) FetchRetweeters(ctx context.Context, tweetID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("tweets/%d/retweeted_by", tweetID), false)
}

// FetchListMembers pages through the members of a list.
func (c *Client) FetchListMembers(ctx context.Context, listID int64) (*UserPagination, error) {
	return c.userPagination(ctx, fmt.Sprintf("lists/%d/members", listID), false)
}

func (c *Client) userPagination(ctx context.Context, path string, auth bool) (*UserPagination, error) {
	params := userParams()
	first, err := c.Request(ctx, http.MethodGet, V2, path, auth, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pagination.New(first, pagination.Options[*User]{
		Decode: newUser,
		Fetch:  c.pageFetcher(V2, path, auth),
		Params: params,
	})
}

// pageFetcher returns a pagination.FetchFunc issuing GET version/path.
func (c *Client) pageFetcher(version, path string, auth bool) pagination.FetchFunc {
	return func(ctx context.Context, params map[string]string) (payload.Raw, error) {
		return c.Request(ctx, http.MethodGet, version, path, auth, params)
	}
}
