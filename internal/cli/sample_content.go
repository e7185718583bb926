package cli

import (
	"context"
	"fmt"

	"truthquest-service/internal/app"
	"truthquest-service/internal/domain"
	transport "truthquest-service/internal/transport/http"
)

const sampleStoryID = int64(1)

// sampleStory is served when no database is configured.
func sampleStory() domain.Story {
	s1, s2, s3 := int64(1), int64(2), int64(3)
	return domain.Story{
		ID:          sampleStoryID,
		Title:       "Truth Quest",
		Description: "Follow a rumour through town and learn to check before you share.",
		Levels: []domain.Level{
			{
				ID: 1, StoryID: sampleStoryID, Order: 1,
				Title:  "The Forwarded Message",
				Prompt: "A message is spreading in the class group chat.",
				Scenarios: []domain.Scenario{
					{
						ID: 1, StoryID: sampleStoryID, LevelID: 1, Order: 1,
						Description: "A message claims the school will close tomorrow. What do you do?",
						Actions: []domain.Action{
							{ID: 1, ScenarioID: &s1, Text: "Check the school website", IsCorrect: true, Points: 10},
							{ID: 2, ScenarioID: &s1, Text: "Forward it to everyone"},
						},
					},
					{
						ID: 2, StoryID: sampleStoryID, LevelID: 1, Order: 2,
						Description: "The message links to a site you have never heard of.",
						Actions: []domain.Action{
							{ID: 3, ScenarioID: &s2, Text: "Look up who runs the site", IsCorrect: true, Points: 10},
							{ID: 4, ScenarioID: &s2, Text: "Trust it, it looks official", Points: 0},
						},
					},
				},
			},
			{
				ID: 2, StoryID: sampleStoryID, Order: 2,
				Title:  "The Viral Photo",
				Prompt: "A dramatic photo is trending.",
				Scenarios: []domain.Scenario{
					{
						ID: 3, StoryID: sampleStoryID, LevelID: 2, Order: 1,
						Description: "The photo shows flooding downtown, but the weather was sunny.",
						Actions: []domain.Action{
							{ID: 5, ScenarioID: &s3, Text: "Run a reverse image search", IsCorrect: true, Points: 15},
							{ID: 6, ScenarioID: &s3, Text: "Share it with a warning", Points: 5},
						},
					},
				},
			},
		},
	}
}

func sampleBadges() []domain.Badge {
	return []domain.Badge{
		{ID: 1, Name: "Fact Finder", Description: "Finished the first level without losing a life."},
		{ID: 2, Name: "Myth Buster", Description: "Completed a story."},
	}
}

func sampleAnimations() []domain.Animation {
	return []domain.Animation{
		{StoryID: sampleStoryID, Type: domain.AnimationCorrect, Title: "Well spotted", GifFile: "animations/correct.gif", IsActive: true},
		{StoryID: sampleStoryID, Type: domain.AnimationIncorrect, Title: "Not quite", GifFile: "animations/incorrect.gif", IsActive: true},
		{StoryID: sampleStoryID, Type: domain.AnimationGameComplete, Title: "Quest complete", MP4File: "animations/complete.mp4", IsActive: true},
	}
}

// seedSampleContent fills the in-memory stores with power-ups and animations
// for the sample story.
func seedSampleContent(ctx context.Context, services transport.Services) error {
	if _, err := services.PowerUps.Seed(ctx, sampleStoryID, app.SamplePowerUps()); err != nil {
		return fmt.Errorf("seed power-ups: %w", err)
	}
	for _, a := range sampleAnimations() {
		if _, err := services.Animations.Register(ctx, a); err != nil {
			return fmt.Errorf("seed animation %s: %w", a.Type, err)
		}
	}
	return nil
}
