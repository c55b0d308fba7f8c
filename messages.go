package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anatolykoptev/go-twitter-api/pagination"
	"github.com/anatolykoptev/go-twitter-api/payload"
)

const (
	messageHistoryPath = "direct_messages/events/list"
	messageCursorParam = "cursor"
)

// MessagePagination pages through direct message history.
type MessagePagination = pagination.Cursor[*DirectMessage]

// FetchMessageHistory pages through the direct messages of the last 30
// days, newest first. Every page resolves its participants with one user
// lookup.
func (c *Client) FetchMessageHistory(ctx context.Context) (*MessagePagination, error) {
	first, err := c.Request(ctx, http.MethodGet, V1, messageHistoryPath, true, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchMessageHistory: %w", err)
	}
	normalize := func(ctx context.Context, page payload.Raw) (payload.Raw, error) {
		return payload.NormalizeMessagesForPagination(ctx, page, c.participantPayloads)
	}
	first, err = normalize(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("FetchMessageHistory: %w", err)
	}
	return pagination.New(first, pagination.Options[*DirectMessage]{
		Decode:     newDirectMessage,
		Fetch:      c.pageFetcher(V1, messageHistoryPath, true),
		TokenParam: messageCursorParam,
		Normalize:  normalize,
	})
}

// participantPayloads resolves message participants through the configured
// UserLookup in one FetchUsers call.
func (c *Client) participantPayloads(ctx context.Context, ids []string) ([]payload.Raw, error) {
	nums := make([]int64, 0, len(ids))
	for _, s := range ids {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			nums = append(nums, id)
		}
	}
	users, err := c.lookup.FetchUsers(ctx, nums)
	if err != nil {
		return nil, err
	}
	out := make([]payload.Raw, 0, len(users))
	for _, u := range users {
		if u != nil {
			out = append(out, userPayload(u))
		}
	}
	return out, nil
}

// userPayload returns the payload a user was decoded from, or a minimal
// one for users built without it.
func userPayload(u *User) payload.Raw {
	if u.Raw != nil {
		return u.Raw
	}
	return payload.Raw{
		"id":                strconv.FormatInt(u.ID, 10),
		"username":          u.Username,
		"name":              u.Name,
		"profile_image_url": u.ProfileImageURL,
	}
}
