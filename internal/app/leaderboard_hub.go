package app

import (
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

// Hub fans out leaderboard snapshots of one story to live subscribers.
type Hub struct {
	storyID     int64
	now         func() time.Time
	mu          sync.RWMutex
	latest      []domain.LeaderboardEntry
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewHub is exported for infrastructure layers that keep hubs per story.
func NewHub(storyID int64) *Hub {
	return NewHubWithClock(storyID, time.Now)
}

// NewHubWithClock is used by tests for deterministic timestamps.
func NewHubWithClock(storyID int64, now func() time.Time) *Hub {
	return &Hub{
		storyID:     storyID,
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Publish replaces the current standings and pushes them to every subscriber.
func (h *Hub) Publish(entries []domain.LeaderboardEntry) domain.Leaderboard {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = append([]domain.LeaderboardEntry(nil), entries...)
	return h.broadcastLocked()
}

// IsEmpty reports whether nobody is listening.
func (h *Hub) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers) == 0
}

// Subscribe registers a listener and queues the current snapshot on it. initial
// seeds the standings of a hub that has not been published to yet. Hub stores
// call this while holding their own lock so a hub is never dropped between
// lookup and subscription.
func (h *Hub) Subscribe(initial []domain.LeaderboardEntry) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	if h.latest == nil {
		h.latest = append([]domain.LeaderboardEntry(nil), initial...)
	}
	h.subscribers[ch] = struct{}{}
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	ch <- snapshot

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) broadcastLocked() domain.Leaderboard {
	lb := h.snapshotLocked()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: drop its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (h *Hub) snapshotLocked() domain.Leaderboard {
	entries := append([]domain.LeaderboardEntry(nil), h.latest...)

	// score desc, then whoever reached it first, then name
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
		}
		return entries[i].Username < entries[j].Username
	})

	return domain.Leaderboard{
		StoryID:   h.storyID,
		Entries:   entries,
		UpdatedAt: h.now().UTC(),
	}
}
