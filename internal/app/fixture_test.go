package app_test

import (
	"testing"
	"time"

	"truthquest-service/internal/app"
	"truthquest-service/internal/domain"
	"truthquest-service/internal/infra/memory"

	"go.uber.org/zap"
)

const storyID = int64(1)

var (
	alice = domain.User{ID: 1, Username: "alice"}
	bob   = domain.User{ID: 2, Username: "bob"}
)

// clock is a settable time source shared by the services under test.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	clock      *clock
	stories    *memory.StoryRepository
	hubs       *memory.HubStore
	powerStore *memory.PowerUpStore

	scores     *app.ScoreService
	progress   *app.ProgressService
	powerups   *app.PowerUpService
	sessions   *app.GameSessionService
	invites    *app.InviteService
	animations *app.AnimationService
	content    *app.ContentService
	profiles   *app.ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	stories := memory.NewStoryRepository(memory.NewStaticStoryLoader(sampleStory()), time.Minute)
	hubs := memory.NewHubStore()
	profileStore := memory.NewProfileStore(domain.Badge{ID: 1, Name: "Fact Finder"})
	powerStore := memory.NewPowerUpStore()
	sessionStore := memory.NewGameSessionStore()

	return &fixture{
		clock:      c,
		stories:    stories,
		hubs:       hubs,
		powerStore: powerStore,
		scores:     app.NewScoreService(memory.NewLeaderboardStore(), profileStore, stories, hubs, logger).WithClock(c.Now),
		progress:   app.NewProgressService(memory.NewProgressStore(), stories, logger).WithClock(c.Now),
		powerups:   app.NewPowerUpService(powerStore, sessionStore, logger).WithClock(c.Now),
		sessions:   app.NewGameSessionService(sessionStore, stories, logger).WithClock(c.Now),
		invites:    app.NewInviteService(memory.NewInviteStore(), stories, profileStore, logger).WithClock(c.Now),
		animations: app.NewAnimationService(memory.NewAnimationStore()),
		content:    app.NewContentService(stories),
		profiles:   app.NewProfileService(profileStore, logger),
	}
}

func sampleStory() domain.Story {
	scenarioID := int64(11)
	return domain.Story{
		ID:          storyID,
		Title:       "The Mysterious Message",
		Description: "Learn to spot misinformation.",
		Levels: []domain.Level{
			{ID: 2, StoryID: storyID, Title: "Digging Deeper", Order: 2},
			{
				ID: 1, StoryID: storyID, Title: "The First Clue", Order: 1,
				Scenarios: []domain.Scenario{
					{ID: 12, StoryID: storyID, LevelID: 1, Order: 2, Description: "A viral photo."},
					{
						ID: 11, StoryID: storyID, LevelID: 1, Order: 1,
						Description: "A forwarded message claims free tickets.",
						Actions: []domain.Action{
							{ID: 101, ScenarioID: &scenarioID, Text: "Check the source", IsCorrect: true, Points: 10},
							{ID: 102, ScenarioID: &scenarioID, Text: "Share it"},
						},
					},
				},
			},
		},
	}
}
