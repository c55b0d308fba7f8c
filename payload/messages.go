package payload

import (
	"context"
	"fmt"
)

// IdentityLookup resolves user ids to canonical user payloads in one call.
// Results may come back in any order and may omit unknown ids.
type IdentityLookup func(ctx context.Context, ids []string) ([]Raw, error)

// NormalizeMessagesForPagination reshapes a v1.1 dm/events/list page into a
// v2-style page: events move to data, cursors move to meta, and each
// message_create gets its sender, recipient and source application attached
// under target. All participants are resolved with a single lookup call.
func NormalizeMessagesForPagination(ctx context.Context, raw Raw, lookup IdentityLookup) (Raw, error) {
	out := Clone(raw)
	out["meta"] = Raw{
		"next_token":     raw["next_cursor"],
		"previous_token": raw["previous_cursor"],
	}

	events := List(raw["events"])
	if len(events) > 0 {
		delete(out, "events")
	} else {
		events = List(raw["data"])
	}

	var ids []string
	seen := make(map[string]bool)
	for _, ev := range events {
		mc := Map(Map(ev)["message_create"])
		for _, id := range []string{String(Map(mc["target"])["recipient_id"]), String(mc["sender_id"])} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users := make(map[string]Raw, len(ids))
	if len(ids) > 0 && lookup != nil {
		resolved, err := lookup(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve message participants: %w", err)
		}
		for _, u := range resolved {
			users[String(Body(u)["id"])] = u
		}
	}

	apps := make(map[string]Raw)
	for _, v := range Map(raw["apps"]) {
		if app := Map(v); app != nil {
			apps[String(app["id"])] = app
		}
	}

	data := make([]any, 0, len(events))
	for _, ev := range events {
		evRaw := Map(ev)
		if evRaw == nil {
			continue
		}
		mc := Map(evRaw["message_create"])
		if mc == nil {
			data = append(data, evRaw)
			continue
		}
		target := Clone(Map(mc["target"]))
		if u, ok := users[String(target["recipient_id"])]; ok {
			target["recipient"] = u
		}
		if u, ok := users[String(mc["sender_id"])]; ok {
			target["sender"] = u
		}
		if app, ok := apps[String(mc["source_app_id"])]; ok {
			target["source_application"] = app
		}

		newMC := Clone(mc)
		newMC["target"] = target
		newEv := Clone(evRaw)
		newEv["message_create"] = newMC
		data = append(data, newEv)
	}
	out["data"] = data
	return out, nil
}
