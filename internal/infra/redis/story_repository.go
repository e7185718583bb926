package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"truthquest-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// StoryLoader fetches authored content from a backing store (e.g., Postgres).
type StoryLoader interface {
	LoadStory(ctx context.Context, storyID int64) (domain.Story, error)
	ListStories(ctx context.Context) ([]domain.Story, error)
	LoadScenario(ctx context.Context, scenarioID int64) (domain.Scenario, error)
}

// StoryRepository caches the whole story tree as JSON and falls back to a
// loader on cache miss. Stored as: SET story:{storyID}:tree {json} EX ttl
type StoryRepository struct {
	client *redis.Client
	loader StoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewStoryRepository(client *redis.Client, loader StoryLoader, ttl time.Duration) *StoryRepository {
	return &StoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *StoryRepository) GetStory(ctx context.Context, storyID int64) (domain.Story, error) {
	key := r.treeKey(storyID)
	if story, ok := r.cached(ctx, key); ok {
		return story, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if story, ok := r.cached(ctx, key); ok {
			return story, nil
		}

		story, err := r.loader.LoadStory(ctx, storyID)
		if err != nil {
			return domain.Story{}, err
		}
		story.Sort()

		if data, err := json.Marshal(story); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
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

// Invalidate drops a cached story tree.
func (r *StoryRepository) Invalidate(ctx context.Context, storyID int64) error {
	return r.client.Del(ctx, r.treeKey(storyID)).Err()
}

func (r *StoryRepository) cached(ctx context.Context, key string) (domain.Story, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Story{}, false
	}
	var story domain.Story
	if err := json.Unmarshal(data, &story); err != nil {
		return domain.Story{}, false
	}
	return story, true
}

func (r *StoryRepository) treeKey(storyID int64) string {
	return "story:" + strconv.FormatInt(storyID, 10) + ":tree"
}

func (r *StoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	// fills for different stories run concurrently; rand.Rand is not safe for that
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
