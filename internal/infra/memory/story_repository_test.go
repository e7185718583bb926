package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"truthquest-service/internal/domain"
)

func TestStoryRepositoryCaches(t *testing.T) {
	loader := &countingLoader{StoryLoader: NewStaticStoryLoader(sampleStory())}
	repo := NewStoryRepository(loader, time.Minute)

	story, err := repo.GetStory(context.Background(), 1)
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
	if story.Levels[0].Order != 1 {
		t.Fatalf("expected levels sorted by order, got %+v", story.Levels)
	}

	if _, err := repo.GetStory(context.Background(), 1); err != nil {
		t.Fatalf("get story 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	repo.Invalidate(1)
	if _, err := repo.GetStory(context.Background(), 1); err != nil {
		t.Fatalf("get story 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestStoryRepositoryMissing(t *testing.T) {
	repo := NewStoryRepository(NewStaticStoryLoader(), time.Minute)
	_, err := repo.GetStory(context.Background(), 42)
	if !errors.Is(err, domain.ErrStoryNotFound) {
		t.Fatalf("expected story not found, got %v", err)
	}
}

func TestStaticLoaderFindsScenario(t *testing.T) {
	repo := NewStoryRepository(NewStaticStoryLoader(sampleStory()), time.Minute)
	sc, err := repo.GetScenario(context.Background(), 11)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if len(sc.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(sc.Actions))
	}
	if _, err := repo.GetScenario(context.Background(), 99); !errors.Is(err, domain.ErrScenarioNotFound) {
		t.Fatalf("expected scenario not found, got %v", err)
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
			{ID: 2, StoryID: 1, Title: "Digging Deeper", Order: 2},
			{
				ID: 1, StoryID: 1, Title: "The First Clue", Order: 1,
				Scenarios: []domain.Scenario{
					{
						ID: 11, StoryID: 1, LevelID: 1, Order: 1,
						Description: "A forwarded message claims free tickets.",
						Actions: []domain.Action{
							{ID: 101, ScenarioID: &scenarioID, Text: "Check the source", IsCorrect: true, Points: 10},
							{ID: 102, ScenarioID: &scenarioID, Text: "Share it", Points: 0},
						},
					},
				},
			},
		},
	}
}
