package payload

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUser(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
	}{
		{"full", Raw{
			"id_str":                  "10",
			"followers_count":         json.Number("100"),
			"friends_count":           json.Number("50"),
			"statuses_count":          json.Number("2000"),
			"screen_name":             "alice",
			"created_timestamp":       "1600000000000",
			"profile_image_url_https": "https://pbs.twimg.com/a.jpg",
		}},
		{"counters only", Raw{
			"followers_count": 0,
			"friends_count":   7,
			"statuses_count":  3,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeUser(tt.raw)
			pm := Map(got["public_metrics"])
			require.NotNil(t, pm)
			assert.Equal(t, tt.raw["followers_count"], pm["followers_count"])
			assert.Equal(t, tt.raw["friends_count"], pm["following_count"])
			assert.Equal(t, tt.raw["statuses_count"], pm["tweet_count"])
			assert.Equal(t, 0, pm["listed_count"])

			if v, ok := tt.raw["screen_name"]; ok {
				assert.Equal(t, v, got["username"])
			} else {
				assert.NotContains(t, got, "username")
			}
			if v, ok := tt.raw["created_timestamp"]; ok {
				assert.Equal(t, v, got["created_at"])
			}
			if v, ok := tt.raw["profile_image_url_https"]; ok {
				assert.Equal(t, v, got["profile_image_url"])
			}
			assert.NotContains(t, tt.raw, "public_metrics", "input must not be mutated")
		})
	}
}

func TestNormalizeTweet_Mentions(t *testing.T) {
	tests := []struct {
		name     string
		mentions []any
		want     []any
	}{
		{"none", nil, []any{}},
		{"one", []any{Raw{"screen_name": "bob"}}, []any{"bob"}},
		{"ordered", []any{
			Raw{"screen_name": "c"},
			Raw{"screen_name": "a"},
			Raw{"screen_name": "b"},
		}, []any{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Raw{"id_str": "5", "favorite_count": 3}
			if tt.mentions != nil {
				raw["entities"] = Raw{"user_mentions": tt.mentions}
			}
			got := NormalizeTweet(raw)
			includes := Map(got["includes"])
			require.NotNil(t, includes)
			assert.Equal(t, tt.want, includes["mentions"])
			assert.Len(t, List(includes["mentions"]), len(tt.mentions))
		})
	}
}

func TestNormalizeTweet_EmbeddedUser(t *testing.T) {
	raw := Raw{
		"id_str":         "123",
		"text":           "hi",
		"favorite_count": 4,
		"retweet_count":  1,
		"timestamp_ms":   "1600000000000",
		"user":           Raw{"id_str": "10", "screen_name": "alice", "followers_count": 9},
	}
	got := NormalizeTweet(raw)

	assert.Equal(t, "123", got["id"])
	assert.Equal(t, "1600000000000", got["timestamp"])
	assert.Equal(t, 4, Map(got["public_metrics"])["like_count"])

	users := List(Map(got["includes"])["users"])
	require.Len(t, users, 1)
	author := Map(users[0])
	assert.Equal(t, "alice", author["username"])
	assert.Equal(t, 9, Map(author["public_metrics"])["followers_count"])
	assert.NotContains(t, raw, "includes")
}

func TestNormalizeSettings(t *testing.T) {
	tz := NormalizeTimezone(Raw{
		"tzinfo_name": "Europe/Berlin",
		"time_zone":   Raw{"name": "Berlin", "utc_offset": 3600},
		"language":    "en",
	})
	assert.Equal(t, "Europe/Berlin", tz["name_info"])
	assert.Equal(t, "Berlin", Map(tz["timezone"])["name"])
	assert.NotContains(t, tz, "tzinfo_name")
	assert.NotContains(t, tz, "time_zone")
	assert.Equal(t, "en", tz["language"])

	sleep := NormalizeSleepTime(Raw{"sleep_time": Raw{"enabled": false}})
	assert.Equal(t, false, Map(sleep["sleep_time_setting"])["enabled"])
	assert.NotContains(t, sleep, "sleep_time")
}

func TestNormalizeTrendLocation(t *testing.T) {
	got := NormalizeTrendLocation(Raw{
		"name":        "Worldwide",
		"woeid":       1,
		"parentid":    0,
		"placeType":   Raw{"code": 19, "name": "Supername"},
		"countryCode": nil,
	})
	assert.Equal(t, Raw{"code": 19, "name": "Supername"}, got["place_type"])
	assert.Nil(t, got["country_code"])
	for _, k := range []string{"placeType", "countryCode", "parentid"} {
		assert.NotContains(t, got, k)
	}
	loc := Map(got["location"])
	require.NotNil(t, loc)
	assert.Equal(t, "Worldwide", loc["name"])
	assert.NotContains(t, loc, "location")
}

func TestNormalizeEmbed(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want any
	}{
		{"status", Raw{"status": 404}, 404},
		{"status_code", Raw{"status_code": 200}, 200},
		{"neither", Raw{"html": "<blockquote/>"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEmbed(tt.raw)
			assert.Equal(t, tt.want, got["status_code"])
			assert.NotContains(t, got, "status")
		})
	}
}

func TestInjectPaginationAuthors(t *testing.T) {
	author := Raw{"id": "1", "username": "alice"}
	page := Raw{
		"data":     []any{Raw{"id": "100"}, Raw{"id": "101"}, Raw{"id": "102"}},
		"includes": Raw{"users": []any{author, Raw{"id": "2"}}},
	}
	items := InjectPaginationAuthors(page)
	require.Len(t, items, 3)
	for _, item := range items {
		users := List(Map(item["includes"])["users"])
		require.Len(t, users, 1)
		assert.Equal(t, author, users[0])
	}
	assert.Equal(t, "101", Map(items[1]["data"])["id"])

	bare := InjectPaginationAuthors(Raw{"data": []any{Raw{"id": "1"}}})
	require.Len(t, bare, 1)
	assert.Equal(t, []any{nil}, Map(bare[0]["includes"])["users"])
}

func TestInjectAuthor(t *testing.T) {
	raw := Raw{"data": Raw{"id": "1"}, "includes": Raw{"tweets": []any{}}}
	got := InjectAuthor(raw, Raw{"id": "9"})
	assert.Equal(t, Raw{"users": []any{Raw{"id": "9"}}}, got["includes"])
	assert.Equal(t, Raw{"tweets": []any{}}, raw["includes"])
}

func TestNormalizeMetricMapping(t *testing.T) {
	got := NormalizeMetricMapping(Raw{"a": "12", "b": "x"})
	assert.Equal(t, map[string]int64{"a": 12, "b": Unconvertible}, got)

	got = NormalizeMetricMapping(Raw{
		"n":    json.Number("7"),
		"f":    json.Number("7.9"),
		"flt":  2.0,
		"t":    true,
		"nil":  nil,
		"list": []any{1},
	})
	assert.Equal(t, int64(7), got["n"])
	assert.Equal(t, int64(7), got["f"])
	assert.Equal(t, int64(2), got["flt"])
	assert.Equal(t, int64(1), got["t"])
	assert.Equal(t, Unconvertible, got["nil"])
	assert.Equal(t, Unconvertible, got["list"])
}

func TestNormalizeMetricMappingReservesSentinel(t *testing.T) {
	got := NormalizeMetricMapping(Raw{
		"str": "-9223372036854775808",
		"num": json.Number("-9223372036854775808"),
		"max": json.Number("9223372036854775807"),
	})
	assert.NotEqual(t, Unconvertible, got["str"])
	assert.NotEqual(t, Unconvertible, got["num"])
	assert.Equal(t, Unconvertible+1, got["str"])
	assert.Equal(t, int64(math.MaxInt64), got["max"])
}

func TestNormalizeMessagesForPagination(t *testing.T) {
	raw := Raw{
		"next_cursor": "NEXT",
		"events": []any{
			Raw{"id": "m1", "message_create": Raw{
				"sender_id":     "10",
				"source_app_id": "77",
				"target":        Raw{"recipient_id": "20"},
			}},
			Raw{"id": "m2", "message_create": Raw{
				"sender_id": "20",
				"target":    Raw{"recipient_id": "10"},
			}},
		},
		"apps": Raw{"77": Raw{"id": "77", "name": "app", "url": "https://example.com"}},
	}

	var calls [][]string
	lookup := func(_ context.Context, ids []string) ([]Raw, error) {
		calls = append(calls, ids)
		return []Raw{
			{"data": Raw{"id": "20", "username": "bob"}},
			{"data": Raw{"id": "10", "username": "alice"}},
		}, nil
	}

	got, err := NormalizeMessagesForPagination(context.Background(), raw, lookup)
	require.NoError(t, err)
	require.Len(t, calls, 1, "participants resolved in one batch")
	assert.ElementsMatch(t, []string{"10", "20"}, calls[0])

	assert.Equal(t, Raw{"next_token": "NEXT", "previous_token": nil}, got["meta"])
	assert.NotContains(t, got, "events")

	data := List(got["data"])
	require.Len(t, data, 2)
	target := Map(Map(Map(data[0])["message_create"])["target"])
	assert.Equal(t, "bob", Map(Map(target["recipient"])["data"])["username"])
	assert.Equal(t, "alice", Map(Map(target["sender"])["data"])["username"])
	assert.Equal(t, "app", Map(target["source_application"])["name"])

	second := Map(Map(Map(data[1])["message_create"])["target"])
	assert.NotContains(t, second, "source_application")

	orig := Map(Map(List(raw["events"])[0])["message_create"])
	assert.NotContains(t, Map(orig["target"]), "sender", "input must not be mutated")
}

func TestNormalizeMessagesForPagination_LookupError(t *testing.T) {
	raw := Raw{"events": []any{Raw{"message_create": Raw{
		"sender_id": "1",
		"target":    Raw{"recipient_id": "2"},
	}}}}
	boom := errors.New("boom")
	_, err := NormalizeMessagesForPagination(context.Background(), raw, func(context.Context, []string) ([]Raw, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestNormalizeMessagesForPagination_Empty(t *testing.T) {
	called := false
	got, err := NormalizeMessagesForPagination(context.Background(), Raw{"events": []any{}}, func(context.Context, []string) ([]Raw, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, List(got["data"]))
}

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(`{"id": 1234567890123456789}`))
	require.NoError(t, err)
	id, ok := Int64(got["id"])
	require.True(t, ok)
	assert.Equal(t, int64(1234567890123456789), id)

	got, err = Decode([]byte(`[{"id":"1"}]`))
	require.NoError(t, err)
	assert.Len(t, List(got["data"]), 1)

	got, err = Decode([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Decode([]byte(`{bad`))
	assert.Error(t, err)
}
