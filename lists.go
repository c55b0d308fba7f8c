package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anatolykoptev/go-twitter-api/pagination"
	"github.com/anatolykoptev/go-twitter-api/payload"
)

// ListPagination pages through list listings.
type ListPagination = pagination.Cursor[*List]

// FetchList fetches a list with its owner attached.
func (c *Client) FetchList(ctx context.Context, id int64) (*List, error) {
	raw, err := c.Request(ctx, http.MethodGet, V2, "lists/"+strconv.FormatInt(id, 10), false, listParams())
	if err != nil {
		return nil, fmt.Errorf("FetchList: %w", err)
	}
	return newList(raw)
}

// FetchOwnedLists pages through the lists a user owns.
func (c *Client) FetchOwnedLists(ctx context.Context, userID int64) (*ListPagination, error) {
	return c.listPagination(ctx, fmt.Sprintf("users/%d/owned_lists", userID))
}

// FetchListMemberships pages through the lists a user is a member of.
func (c *Client) FetchListMemberships(ctx context.Context, userID int64) (*ListPagination, error) {
	return c.listPagination(ctx, fmt.Sprintf("users/%d/list_memberships", userID))
}

// FetchFollowedLists pages through the lists a user follows.
func (c *Client) FetchFollowedLists(ctx context.Context, userID int64) (*ListPagination, error) {
	return c.listPagination(ctx, fmt.Sprintf("users/%d/followed_lists", userID))
}

func (c *Client) listPagination(ctx context.Context, path string) (*ListPagination, error) {
	params := listParams()
	first, err := c.Request(ctx, http.MethodGet, V2, path, false, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pagination.New(first, pagination.Options[*List]{
		Decode: newList,
		Fetch:  c.pageFetcher(V2, path, false),
		Params: params,
		Items:  payload.InjectPaginationAuthors,
	})
}
