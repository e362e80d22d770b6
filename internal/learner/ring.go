package learner

// RecentActivityCap bounds the recent-activity list per user.
const RecentActivityCap = 10

// UpsertRecent inserts or refreshes the entry for e.TopicID in a
// most-recent-first activity list. An existing entry for the topic is
// replaced and moved to the front; otherwise the entry is pushed to the
// front and the oldest entry beyond capacity is evicted. The list holds
// at most one entry per topic.
func UpsertRecent(entries []ActivityEntry, e ActivityEntry, capacity int) []ActivityEntry {
	if capacity <= 0 {
		capacity = RecentActivityCap
	}

	out := make([]ActivityEntry, 0, len(entries)+1)
	out = append(out, e)
	for _, cur := range entries {
		if cur.TopicID == e.TopicID {
			continue
		}
		out = append(out, cur)
	}
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}
