package memory

import (
	"sync"

	"truthquest-service/internal/app"
	"truthquest-service/internal/domain"
)

// HubStore is an in-memory implementation of app.HubRepository.
type HubStore struct {
	mu      sync.RWMutex
	hubs    map[int64]*app.Hub
	onOpen  func(storyID int64)
	onClose func(storyID int64)
}

func NewHubStore() *HubStore {
	return NewHubStoreWithHooks(nil, nil)
}

// NewHubStoreWithHooks calls onOpen when a story's hub is created and onClose
// when it is dropped. Both run under the store lock.
func NewHubStoreWithHooks(onOpen, onClose func(storyID int64)) *HubStore {
	return &HubStore{
		hubs:    make(map[int64]*app.Hub),
		onOpen:  onOpen,
		onClose: onClose,
	}
}

// Subscribe creates the hub if needed and joins it under one lock, so a
// concurrent cancel cannot drop the hub in between.
func (s *HubStore) Subscribe(storyID int64, initial []domain.LeaderboardEntry) (<-chan domain.Leaderboard, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hub, ok := s.hubs[storyID]
	if !ok {
		hub = app.NewHub(storyID)
		s.hubs[storyID] = hub
		if s.onOpen != nil {
			s.onOpen(storyID)
		}
	}
	ch, leave := hub.Subscribe(initial)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			leave()
			if s.hubs[storyID] == hub && hub.IsEmpty() {
				delete(s.hubs, storyID)
				if s.onClose != nil {
					s.onClose(storyID)
				}
			}
		})
	}
}

func (s *HubStore) Get(storyID int64) (*app.Hub, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hub, ok := s.hubs[storyID]
	return hub, ok
}
