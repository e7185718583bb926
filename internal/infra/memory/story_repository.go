package memory

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"truthquest-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// StoryLoader fetches authored content from a backing store (e.g., Postgres).
type StoryLoader interface {
	LoadStory(ctx context.Context, storyID int64) (domain.Story, error)
	ListStories(ctx context.Context) ([]domain.Story, error)
	LoadScenario(ctx context.Context, scenarioID int64) (domain.Scenario, error)
}

// StoryRepository caches story trees with TTL to avoid repeated DB hits.
// Story lists and single scenarios are not cached.
type StoryRepository struct {
	loader StoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedStory
}

type cachedStory struct {
	story     domain.Story
	expiresAt time.Time
}

func NewStoryRepository(loader StoryLoader, ttl time.Duration) *StoryRepository {
	return &StoryRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedStory),
	}
}

func (r *StoryRepository) GetStory(ctx context.Context, storyID int64) (domain.Story, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[storyID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.story, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(strconv.FormatInt(storyID, 10), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[storyID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.story, nil
		}
		r.mu.RUnlock()

		story, err := r.loader.LoadStory(ctx, storyID)
		if err != nil {
			return domain.Story{}, err
		}
		story.Sort()

		r.mu.Lock()
		r.cache[storyID] = cachedStory{
			story:     story,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return story, nil
	})
	if err != nil {
		return domain.Story{}, err
	}
	return result.(domain.Story), nil
}

func (r *StoryRepository) ListStories(ctx context.Context) ([]domain.Story, error) {
	return r.loader.ListStories(ctx)
}

func (r *StoryRepository) GetScenario(ctx context.Context, scenarioID int64) (domain.Scenario, error) {
	return r.loader.LoadScenario(ctx, scenarioID)
}

// Invalidate drops a cached story so the next read reloads it.
func (r *StoryRepository) Invalidate(storyID int64) {
	r.mu.Lock()
	delete(r.cache, storyID)
	r.mu.Unlock()
}

func (r *StoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticStoryLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticStoryLoader struct {
	stories map[int64]domain.Story
}

func NewStaticStoryLoader(stories ...domain.Story) *StaticStoryLoader {
	l := &StaticStoryLoader{stories: make(map[int64]domain.Story, len(stories))}
	for _, s := range stories {
		l.stories[s.ID] = s
	}
	return l
}

func (l *StaticStoryLoader) LoadStory(_ context.Context, storyID int64) (domain.Story, error) {
	if story, ok := l.stories[storyID]; ok {
		return story, nil
	}
	return domain.Story{}, domain.ErrStoryNotFound
}

func (l *StaticStoryLoader) ListStories(_ context.Context) ([]domain.Story, error) {
	out := make([]domain.Story, 0, len(l.stories))
	for _, s := range l.stories {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *StaticStoryLoader) LoadScenario(_ context.Context, scenarioID int64) (domain.Scenario, error) {
	for _, story := range l.stories {
		for _, level := range story.Levels {
			for _, sc := range level.Scenarios {
				if sc.ID == scenarioID {
					return sc, nil
				}
			}
		}
	}
	return domain.Scenario{}, domain.ErrScenarioNotFound
}
