package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"truthquest-service/internal/domain"
	"truthquest-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStoryRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{StoryLoader: memory.NewStaticStoryLoader(sampleStory())}
	repo := NewStoryRepository(client, loader, time.Minute)

	story, err := repo.GetStory(context.Background(), 1)
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("story:1:tree") {
		t.Fatalf("expected story tree cached")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetStory(context.Background(), 1)
	if err != nil {
		t.Fatalf("get cached story: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Title != story.Title || len(cached.Levels) != 1 || len(cached.Levels[0].Scenarios[0].Actions) != 1 {
		t.Fatalf("cached tree differs: %+v", cached)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetStory(context.Background(), 1)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

func TestStoryRepositoryMissDoesNotCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewStoryRepository(newClient(mr), memory.NewStaticStoryLoader(), time.Minute)
	if _, err := repo.GetStory(context.Background(), 9); err != domain.ErrStoryNotFound {
		t.Fatalf("expected story not found, got %v", err)
	}
	if mr.Exists("story:9:tree") {
		t.Fatalf("expected no cache entry for missing story")
	}
}

type countingLoader struct {
	StoryLoader
	calls int
}

func (l *countingLoader) LoadStory(ctx context.Context, storyID int64) (domain.Story, error) {
	l.calls++
	return l.StoryLoader.LoadStory(ctx, storyID)
}

func sampleStory() domain.Story {
	scenarioID := int64(11)
	return domain.Story{
		ID:    1,
		Title: "The Mysterious Message",
		Levels: []domain.Level{
			{
				ID: 1, StoryID: 1, Title: "The First Clue", Order: 1,
				Scenarios: []domain.Scenario{
					{
						ID: 11, StoryID: 1, LevelID: 1, Order: 1,
						Description: "A forwarded message claims free tickets.",
						Actions: []domain.Action{
							{ID: 101, ScenarioID: &scenarioID, Text: "Check the source", IsCorrect: true, Points: 10},
						},
					},
				},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestStoryRepositoryConcurrentFillsOfDistinctStories(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	const n = 50
	stories := make([]domain.Story, 0, n)
	for i := 1; i <= n; i++ {
		stories = append(stories, domain.Story{ID: int64(i), Title: fmt.Sprintf("story %d", i)})
	}
	repo := NewStoryRepository(newClient(mr), memory.NewStaticStoryLoader(stories...), time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := repo.GetStory(context.Background(), id); err != nil {
				errs <- err
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("get story: %v", err)
	}

	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("story:%d:tree", i)
		ttl := mr.TTL(key)
		if ttl < time.Minute || ttl > time.Minute+6*time.Second {
			t.Fatalf("%s: ttl %v outside jitter window", key, ttl)
		}
	}
}
