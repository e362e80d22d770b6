package learner

import (
	"fmt"
	"testing"
	"time"
)

func entry(topicID string, at time.Time) ActivityEntry {
	return ActivityEntry{TopicID: topicID, LastAccessed: at, Status: StatusInProgress}
}

func TestUpsertRecent_NewEntryGoesFirst(t *testing.T) {
	now := time.Now()
	list := []ActivityEntry{entry("a", now), entry("b", now)}

	got := UpsertRecent(list, entry("c", now), RecentActivityCap)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].TopicID != "c" {
		t.Errorf("first entry = %q, want c", got[0].TopicID)
	}
}

func TestUpsertRecent_ExistingTopicMovesToFront(t *testing.T) {
	now := time.Now()
	list := []ActivityEntry{entry("a", now), entry("b", now), entry("c", now)}

	refreshed := entry("c", now.Add(time.Minute))
	refreshed.Status = StatusCompleted
	got := UpsertRecent(list, refreshed, RecentActivityCap)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (no duplicate)", len(got))
	}
	if got[0].TopicID != "c" || got[0].Status != StatusCompleted {
		t.Errorf("first entry = %+v, want refreshed c", got[0])
	}
	for i, e := range got[1:] {
		if e.TopicID == "c" {
			t.Errorf("duplicate c at index %d", i+1)
		}
	}
}

func TestUpsertRecent_EvictsBeyondCapacity(t *testing.T) {
	now := time.Now()
	var list []ActivityEntry
	for i := 0; i < RecentActivityCap; i++ {
		list = UpsertRecent(list, entry(fmt.Sprintf("t%d", i), now), RecentActivityCap)
	}
	if len(list) != RecentActivityCap {
		t.Fatalf("len = %d, want %d", len(list), RecentActivityCap)
	}

	list = UpsertRecent(list, entry("newest", now), RecentActivityCap)

	if len(list) != RecentActivityCap {
		t.Errorf("len = %d, want cap %d", len(list), RecentActivityCap)
	}
	if list[0].TopicID != "newest" {
		t.Errorf("first = %q, want newest", list[0].TopicID)
	}
	// t0 was the oldest entry and falls off the end.
	for _, e := range list {
		if e.TopicID == "t0" {
			t.Error("oldest entry t0 should have been evicted")
		}
	}
}

func TestUpsertRecent_ZeroCapacityUsesDefault(t *testing.T) {
	got := UpsertRecent(nil, entry("a", time.Now()), 0)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}
