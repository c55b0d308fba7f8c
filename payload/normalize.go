package payload

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeUser converts a v1.1 user object into the v2 field layout.
func NormalizeUser(raw Raw) Raw {
	out := Clone(raw)
	out["public_metrics"] = Raw{
		"followers_count": raw["followers_count"],
		"following_count": raw["friends_count"],
		"tweet_count":     raw["statuses_count"],
		"listed_count":    0,
	}
	if v, ok := raw["created_timestamp"]; ok {
		out["created_at"] = v
	}
	if v, ok := raw["screen_name"]; ok {
		out["username"] = v
	}
	if v, ok := raw["profile_image_url_https"]; ok {
		out["profile_image_url"] = v
	}
	return out
}

// NormalizeTweet converts a v1.1 tweet object into the v2 field layout.
// The embedded author, if any, lands in includes.users[0].
func NormalizeTweet(raw Raw) Raw {
	out := Clone(raw)
	out["public_metrics"] = Raw{
		"quote_count":   raw["quote_count"],
		"reply_count":   raw["reply_count"],
		"retweet_count": raw["retweet_count"],
		"like_count":    raw["favorite_count"],
	}
	if v, ok := raw["id_str"]; ok {
		out["id"] = v
	}

	mentions := []any{}
	for _, m := range List(Map(raw["entities"])["user_mentions"]) {
		mentions = append(mentions, Map(m)["screen_name"])
	}
	includes := Raw{"mentions": mentions}

	if v, ok := raw["timestamp_ms"]; ok {
		out["timestamp"] = v
	}
	if user := Map(raw["user"]); user != nil {
		includes["users"] = []any{NormalizeUser(user)}
	}
	out["includes"] = includes
	return out
}

// NormalizeTimezone reshapes the time zone part of account settings.
func NormalizeTimezone(raw Raw) Raw {
	out := Clone(raw)
	out["name_info"] = raw["tzinfo_name"]
	out["timezone"] = Clone(Map(raw["time_zone"]))
	delete(out, "time_zone")
	delete(out, "tzinfo_name")
	return out
}

// NormalizeTrendLocation reshapes one entry of trends/available.
func NormalizeTrendLocation(raw Raw) Raw {
	out := Clone(raw)
	out["place_type"] = raw["placeType"]
	out["country_code"] = raw["countryCode"]
	delete(out, "placeType")
	delete(out, "countryCode")
	delete(out, "parentid")
	out["location"] = Clone(out)
	return out
}

// NormalizeSleepTime moves sleep_time under sleep_time_setting.
func NormalizeSleepTime(raw Raw) Raw {
	out := Clone(raw)
	out["sleep_time_setting"] = Clone(Map(raw["sleep_time"]))
	delete(out, "sleep_time")
	return out
}

// NormalizeEmbed unifies the oEmbed status field name.
func NormalizeEmbed(raw Raw) Raw {
	out := Clone(raw)
	status := raw["status"]
	if status == nil || status == "" {
		status = raw["status_code"]
	}
	out["status_code"] = status
	delete(out, "status")
	return out
}

// InjectAuthor replaces includes with a single-author users list.
func InjectAuthor(raw Raw, author Raw) Raw {
	out := Clone(raw)
	out["includes"] = Raw{"users": []any{author}}
	return out
}

// InjectPaginationAuthors splits a page into one {data, includes} wrapper per
// item. The first includes.users entry is attached to every item: pages are
// assumed to come from a single author's listing.
func InjectPaginationAuthors(page Raw) []Raw {
	var author any
	if users := List(Map(page["includes"])["users"]); len(users) > 0 {
		author = users[0]
	}
	items := List(page["data"])
	out := make([]Raw, 0, len(items))
	for _, item := range items {
		out = append(out, Raw{
			"data":     item,
			"includes": Raw{"users": []any{author}},
		})
	}
	return out
}

// NormalizeMetricMapping coerces every value to an integer. Values that do
// not convert become Unconvertible.
func NormalizeMetricMapping(raw Raw) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		out[k] = toMetric(v)
	}
	return out
}

// toMetric coerces v, reserving Unconvertible for values that do not
// convert: a real math.MinInt64 is reported one above it.
func toMetric(v any) int64 {
	n, ok := coerceMetric(v)
	switch {
	case !ok:
		return Unconvertible
	case n == Unconvertible:
		return Unconvertible + 1
	}
	return n
}

func coerceMetric(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return int64(f), true
		}
	case float64:
		if !math.IsInf(x, 0) && !math.IsNaN(x) {
			return int64(x), true
		}
	case int:
		return int64(x), true
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
