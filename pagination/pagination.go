// Package pagination walks cursor-paginated API listings page by page and
// remembers the pages it has seen.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// ErrNoPageAvailable is returned when there is no page in the requested
// direction, or the API returned nothing for the requested token.
var ErrNoPageAvailable = errors.New("no page available")

// DefaultTokenParam is the v2 query parameter carrying the cursor token.
const DefaultTokenParam = "pagination_token"

// Item is anything that can appear on a page. Items are compared by id when
// deciding whether a fetched page is new.
type Item interface {
	ItemID() int64
}

// FetchFunc requests one page. It returns nil, nil when the API has no
// content for the given parameters.
type FetchFunc func(ctx context.Context, params map[string]string) (payload.Raw, error)

// Options wires a Cursor to its endpoint and item type.
type Options[T Item] struct {
	// Decode builds one item from its canonical payload. Required.
	Decode func(raw payload.Raw) (T, error)

	// Fetch requests a page for the given parameters. Required.
	Fetch FetchFunc

	// Params are the query parameters of the first request.
	Params map[string]string

	// TokenParam names the parameter the cursor token is sent in.
	// Default: DefaultTokenParam.
	TokenParam string

	// Items splits a page into per-item payloads. Default: the objects of
	// the page's data array.
	Items func(page payload.Raw) []payload.Raw

	// Normalize reshapes every fetched page before it is read.
	Normalize func(ctx context.Context, page payload.Raw) (payload.Raw, error)
}

type page[T Item] struct {
	ids   []int64
	items map[int64]T
}

func (p page[T]) list() []T {
	out := make([]T, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, p.items[id])
	}
	return out
}

// Cursor is one position in a paginated listing. It is not safe for
// concurrent use.
type Cursor[T Item] struct {
	opts   Options[T]
	params map[string]string

	payload  payload.Raw
	current  int
	next     string
	previous string

	cache map[int]page[T]
}

// New creates a cursor positioned on first, which must already be in
// canonical form. The first page is decoded and cached as page 1.
func New[T Item](first payload.Raw, opts Options[T]) (*Cursor[T], error) {
	if opts.Decode == nil || opts.Fetch == nil {
		return nil, errors.New("pagination: Decode and Fetch are required")
	}
	if opts.TokenParam == "" {
		opts.TokenParam = DefaultTokenParam
	}
	if opts.Items == nil {
		opts.Items = dataItems
	}

	c := &Cursor[T]{
		opts:    opts,
		params:  maps.Clone(opts.Params),
		current: 1,
		cache:   make(map[int]page[T]),
	}
	if c.params == nil {
		c.params = make(map[string]string)
	}
	c.load(first)

	content, err := c.Content()
	if err != nil {
		return nil, err
	}
	c.cache[1] = newPage(content)
	return c, nil
}

// Content decodes the items of the current page.
func (c *Cursor[T]) Content() ([]T, error) {
	raws := c.opts.Items(c.payload)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		item, err := c.opts.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode page %d: %w", c.current, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Next moves to the following page. It returns ErrNoPageAvailable without
// fetching when there is no next token.
func (c *Cursor[T]) Next(ctx context.Context) error {
	return c.step(ctx, c.next, 1)
}

// Previous moves to the preceding page. It returns ErrNoPageAvailable without
// fetching when there is no previous token.
func (c *Cursor[T]) Previous(ctx context.Context) error {
	return c.step(ctx, c.previous, -1)
}

func (c *Cursor[T]) step(ctx context.Context, token string, delta int) error {
	if token == "" {
		return ErrNoPageAvailable
	}
	c.params[c.opts.TokenParam] = token

	res, err := c.opts.Fetch(ctx, maps.Clone(c.params))
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return ErrNoPageAvailable
	}
	if c.opts.Normalize != nil {
		if res, err = c.opts.Normalize(ctx, res); err != nil {
			return err
		}
	}

	before, err := c.Content()
	if err != nil {
		return err
	}
	oldPayload, oldNext, oldPrev := c.payload, c.next, c.previous
	c.load(res)
	after, err := c.Content()
	if err != nil {
		c.payload, c.next, c.previous = oldPayload, oldNext, oldPrev
		return err
	}
	c.current += delta

	// Keyed by cache size, not page number: after mixed forward and backward
	// moves the key no longer matches CurrentPageNumber.
	if firstDiffers(before, after) {
		c.cache[len(c.cache)+1] = newPage(after)
	}
	return nil
}

// PageContent returns the cached items of page n. A cached page without
// items is present and empty, as Pages reports it. Page 0 is never present.
func (c *Cursor[T]) PageContent(n int) ([]T, bool) {
	p, ok := c.cache[n]
	if !ok {
		return nil, false
	}
	return p.list(), true
}

// Pages yields every cached page as (number, items), numbered from 1.
// Each call walks the cache afresh.
func (c *Cursor[T]) Pages() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for n := 1; n <= len(c.cache); n++ {
			if !yield(n, c.cache[n].list()) {
				return
			}
		}
	}
}

// CurrentPageNumber returns the 1-based page position.
func (c *Cursor[T]) CurrentPageNumber() int { return c.current }

// NextToken returns the cursor token of the following page, or "".
func (c *Cursor[T]) NextToken() string { return c.next }

// PreviousToken returns the cursor token of the preceding page, or "".
func (c *Cursor[T]) PreviousToken() string { return c.previous }

// Payload returns the canonical payload of the current page.
func (c *Cursor[T]) Payload() payload.Raw { return c.payload }

func (c *Cursor[T]) load(raw payload.Raw) {
	c.payload = raw
	meta := payload.Map(raw["meta"])
	c.next = payload.String(meta["next_token"])
	c.previous = payload.String(meta["previous_token"])
}

func newPage[T Item](items []T) page[T] {
	p := page[T]{ids: make([]int64, 0, len(items)), items: make(map[int64]T, len(items))}
	for _, item := range items {
		id := item.ItemID()
		if _, dup := p.items[id]; !dup {
			p.ids = append(p.ids, id)
		}
		p.items[id] = item
	}
	return p
}

func firstDiffers[T Item](before, after []T) bool {
	switch {
	case len(before) == 0 && len(after) == 0:
		return false
	case len(before) == 0 || len(after) == 0:
		return true
	}
	return before[0].ItemID() != after[0].ItemID()
}

func dataItems(page payload.Raw) []payload.Raw {
	list := payload.List(page["data"])
	out := make([]payload.Raw, 0, len(list))
	for _, v := range list {
		if m := payload.Map(v); m != nil {
			out = append(out, m)
		}
	}
	return out
}
