package twitter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anatolykoptev/go-twitter-api/payload"
)

// FetchSettings fetches the authenticated account's settings.
func (c *Client) FetchSettings(ctx context.Context) (*Settings, error) {
	raw, err := c.Request(ctx, http.MethodGet, V1, "account/settings", true, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchSettings: %w", err)
	}
	return newSettings(payload.NormalizeSleepTime(payload.NormalizeTimezone(raw))), nil
}

// FetchTrendLocations lists the locations trends are available for.
func (c *Client) FetchTrendLocations(ctx context.Context) ([]*TrendLocation, error) {
	raw, err := c.Request(ctx, http.MethodGet, V1, "trends/available", false, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchTrendLocations: %w", err)
	}
	var out []*TrendLocation
	for _, v := range payload.List(raw["data"]) {
		if m := payload.Map(v); m != nil {
			out = append(out, newTrendLocation(payload.NormalizeTrendLocation(m)))
		}
	}
	return out, nil
}
