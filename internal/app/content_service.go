package app

import (
	"context"

	"truthquest-service/internal/domain"
)

// ContentService exposes the read-only story tree.
type ContentService struct {
	stories StoryRepository
}

func NewContentService(stories StoryRepository) *ContentService {
	return &ContentService{stories: stories}
}

func (s *ContentService) ListStories(ctx context.Context) ([]domain.Story, error) {
	stories, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Story, 0, len(stories))
	for _, story := range stories {
		out = append(out, story.Summary())
	}
	return out, nil
}

// GetStory returns a story with its ordered levels, scenarios and actions.
func (s *ContentService) GetStory(ctx context.Context, storyID int64) (domain.Story, error) {
	return s.stories.GetStory(ctx, storyID)
}

// ListLevels returns a story's levels in play order without nested content.
func (s *ContentService) ListLevels(ctx context.Context, storyID int64) ([]domain.Level, error) {
	story, err := s.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	levels := make([]domain.Level, 0, len(story.Levels))
	for _, l := range story.Levels {
		l.Scenarios = nil
		levels = append(levels, l)
	}
	return levels, nil
}

// ListScenarios returns the scenarios of one level, ordered within the level.
func (s *ContentService) ListScenarios(ctx context.Context, storyID, levelID int64) ([]domain.Scenario, error) {
	story, err := s.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	level, ok := story.Level(levelID)
	if !ok {
		return nil, domain.ErrLevelNotFound
	}
	return append([]domain.Scenario{}, level.Scenarios...), nil
}

// ListActions returns the actions of a scenario with their outcomes.
func (s *ContentService) ListActions(ctx context.Context, scenarioID int64) ([]domain.Action, error) {
	scenario, err := s.stories.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	return append([]domain.Action{}, scenario.Actions...), nil
}
