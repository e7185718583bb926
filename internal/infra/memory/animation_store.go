package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

type storyAnimation struct {
	storyID int64
	typ     domain.AnimationType
}

// AnimationStore is an in-memory app.AnimationRepository. Saving replaces the
// animation already stored for the same story and type.
type AnimationStore struct {
	mu     sync.Mutex
	clock  func() time.Time
	nextID int64
	rows   map[storyAnimation]domain.Animation
}

func NewAnimationStore() *AnimationStore {
	return &AnimationStore{
		clock: time.Now,
		rows:  make(map[storyAnimation]domain.Animation),
	}
}

func (s *AnimationStore) Save(_ context.Context, a domain.Animation) (domain.Animation, error) {
	if err := a.Validate(); err != nil {
		return domain.Animation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock().UTC()
	key := storyAnimation{a.StoryID, a.Type}
	if existing, ok := s.rows[key]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		a.ID = s.nextID
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.rows[key] = a
	return a, nil
}

func (s *AnimationStore) FindActive(_ context.Context, storyID int64, typ domain.AnimationType) (domain.Animation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[storyAnimation{storyID, typ}]
	if !ok || !a.IsActive {
		return domain.Animation{}, domain.ErrAnimationNotFound
	}
	return a, nil
}

func (s *AnimationStore) ListActive(_ context.Context, storyID int64) ([]domain.Animation, error) {
	s.mu.Lock()
	out := make([]domain.Animation, 0)
	for key, a := range s.rows {
		if key.storyID == storyID && a.IsActive {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}
