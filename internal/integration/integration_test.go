package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"truthquest-service/internal/app"
	"truthquest-service/internal/domain"
	"truthquest-service/internal/infra/postgres"
	infraredis "truthquest-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var (
	alice = domain.User{ID: 1, Username: "alice"}
	bob   = domain.User{ID: 2, Username: "bob"}
)

type stack struct {
	db         *bun.DB
	loader     *postgres.StoryLoader
	profiles   *postgres.ProfileRepository
	stories    app.StoryRepository
	scores     *app.ScoreService
	progress   *app.ProgressService
	powerups   *app.PowerUpService
	sessions   *app.GameSessionService
	invites    *app.InviteService
	animations *app.AnimationService
	content    *app.ContentService
	badges     *app.ProfileService
}

func TestTruthQuestEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.Open(pgURL)
	defer db.Close()
	_, err := postgres.Migrate(ctx, db)
	require.NoError(t, err)
	seedContent(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	s := newStack(db, pool, redisClient)

	t.Run("content is read in play order", func(t *testing.T) {
		id, err := s.loader.FindStoryID(ctx, "Truth Quest")
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		levels, err := s.content.ListLevels(ctx, 1)
		require.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, "The Forwarded Message", levels[0].Title)

		scenarios, err := s.content.ListScenarios(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, scenarios, 2)
		assert.Equal(t, int64(100), scenarios[0].ID)

		actions, err := s.content.ListActions(ctx, 100)
		require.NoError(t, err)
		require.Len(t, actions, 2)
		var withOutcome int
		for _, a := range actions {
			if a.Outcome != nil {
				withOutcome++
			}
		}
		assert.Equal(t, 1, withOutcome)

		_, err = s.content.GetStory(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	})

	t.Run("leaderboard keeps last score and profile keeps best", func(t *testing.T) {
		_, err := s.scores.Submit(ctx, alice, 1, 50)
		require.NoError(t, err)
		_, err = s.scores.Submit(ctx, alice, 1, 30)
		require.NoError(t, err)

		entries, err := s.scores.Leaderboard(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 30, entries[0].Score)
		assert.Equal(t, "alice", entries[0].Username)

		profile, err := s.badges.Get(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 50, profile.HighScores.Best(1))
	})

	t.Run("failed personal best rolls back the leaderboard write", func(t *testing.T) {
		failing := &failAfterRaise{ProfileRepository: s.profiles}
		scores := app.NewScoreService(postgres.NewLeaderboardRepository(s.db), failing, s.stories, infraredis.NewHubStore(redisClient, time.Minute), zap.NewNop()).
			WithTransactor(postgres.NewTxManager(s.db))

		_, err := scores.Submit(ctx, alice, 1, 70)
		require.Error(t, err)
		assert.True(t, failing.raised, "the high score was written before the failure")

		entries, err := s.scores.Leaderboard(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 30, entries[0].Score, "leaderboard write is rolled back")

		profile, err := s.badges.Get(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 50, profile.HighScores.Best(1), "personal best write is rolled back")
	})

	t.Run("concurrent submissions keep one row per user and story", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 1; i <= 10; i++ {
			wg.Add(1)
			go func(score int) {
				defer wg.Done()
				if _, err := s.scores.Submit(ctx, bob, 1, score); err != nil {
					errs <- err
				}
			}(i * 10)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var rows int
		require.NoError(t, db.NewSelect().TableExpr("leaderboard_entries").
			Where("user_id = ? AND story_id = ?", bob.ID, 1).ColumnExpr("count(*)").Scan(ctx, &rows))
		assert.Equal(t, 1, rows)

		profile, err := s.badges.Get(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 100, profile.HighScores.Best(1))

		top, err := s.scores.TopScores(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, top)
	})

	t.Run("progress is created then replaced", func(t *testing.T) {
		_, err := s.progress.Get(ctx, alice, 1)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)

		_, created, err := s.progress.Save(ctx, alice, domain.UserProgress{StoryID: 1, Level: 1, Lives: 3})
		require.NoError(t, err)
		assert.True(t, created)

		saved, created, err := s.progress.Save(ctx, alice, domain.UserProgress{
			StoryID: 1, Level: 2, Score: 40, Lives: 2, ScenarioIndex: 1,
			StateData: []byte(`{"answered":[100]}`),
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 2, saved.Level)

		got, err := s.progress.Get(ctx, alice, 1)
		require.NoError(t, err)
		assert.Equal(t, 40, got.Score)
		assert.JSONEq(t, `{"answered":[100]}`, string(got.StateData))
	})

	t.Run("power-up grant is redeemed exactly once", func(t *testing.T) {
		seeded, err := s.powerups.Seed(ctx, 1, app.SamplePowerUps())
		require.NoError(t, err)
		require.Len(t, seeded, 4)
		// seeding again updates in place
		again, err := s.powerups.Seed(ctx, 1, app.SamplePowerUps())
		require.NoError(t, err)
		assert.Equal(t, seeded[0].ID, again[0].ID)

		extraLife := seeded[0]
		session, err := s.sessions.Start(ctx, alice, 1)
		require.NoError(t, err)

		_, err = s.powerups.Earn(ctx, alice, domain.EarnRequest{StoryID: 1, PowerUpID: extraLife.ID, CorrectAnswerCount: 4})
		assert.ErrorIs(t, err, domain.ErrValidation)

		grant, err := s.powerups.Earn(ctx, alice, domain.EarnRequest{
			StoryID: 1, PowerUpID: extraLife.ID, CorrectAnswerCount: 5, GameSessionID: &session.ID,
		})
		require.NoError(t, err)
		assert.True(t, grant.IsActive())

		storyID := int64(1)
		active, err := s.powerups.ListActive(ctx, alice, &storyID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Extra Life", active[0].PowerUp.Name)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
			used int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := s.powerups.Use(ctx, alice, grant.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, domain.ErrPowerUpAlreadyUsed):
					used++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
		assert.Equal(t, 9, used)

		_, _, err = s.powerups.Use(ctx, bob, grant.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		active, err = s.powerups.ListActive(ctx, alice, nil)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("invite exposes the inviter best score", func(t *testing.T) {
		invite, err := s.invites.Create(ctx, alice, 1)
		require.NoError(t, err)

		score, err := s.invites.InviterScore(ctx, invite.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.InviterScore{Username: "alice", HighestScore: 50}, score)

		list, err := s.invites.List(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		later := s.invites.WithClock(func() time.Time { return time.Now().Add(domain.InviteHorizon + time.Hour) })
		_, err = later.InviterScore(ctx, invite.Token)
		assert.ErrorIs(t, err, domain.ErrInviteExpired)
	})

	t.Run("animations resolve by type", func(t *testing.T) {
		_, err := s.animations.Register(ctx, domain.Animation{
			StoryID: 1, Type: domain.AnimationCorrect, Title: "Nice", GifFile: "correct.gif", IsActive: true,
		})
		require.NoError(t, err)
		_, err = s.animations.Register(ctx, domain.Animation{
			StoryID: 1, Type: domain.AnimationCorrect, Title: "Nice", MP4File: "correct.mp4", IsActive: true,
		})
		require.NoError(t, err)

		got, err := s.animations.Resolve(ctx, 1, "correct")
		require.NoError(t, err)
		assert.Equal(t, "mp4", got.FileType())

		_, err = s.animations.Resolve(ctx, 1, "gameover")
		assert.ErrorIs(t, err, domain.ErrAnimationNotFound)
	})

	t.Run("sessions and badges", func(t *testing.T) {
		session, err := s.sessions.Start(ctx, bob, 1)
		require.NoError(t, err)
		_, err = s.sessions.Complete(ctx, alice, session.ID, 10)
		assert.ErrorIs(t, err, domain.ErrGameSessionNotFound)
		done, err := s.sessions.Complete(ctx, bob, session.ID, 90)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		require.NotNil(t, done.EndTime)

		badge, err := s.profiles.SaveBadge(ctx, domain.Badge{Name: "Myth Buster", Description: "Completed a story."})
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err = s.badges.AwardBadge(ctx, bob, badge.ID)
			require.NoError(t, err)
		}
		profile, err := s.badges.Get(ctx, bob)
		require.NoError(t, err)
		require.Len(t, profile.Badges, 1)
		assert.Equal(t, "Myth Buster", profile.Badges[0].Name)
	})
}

// failAfterRaise performs the real high score update, then fails the unit of work.
type failAfterRaise struct {
	*postgres.ProfileRepository
	raised bool
}

func (f *failAfterRaise) RaiseHighScore(ctx context.Context, userID, storyID int64, score int) (bool, error) {
	raised, err := f.ProfileRepository.RaiseHighScore(ctx, userID, storyID, score)
	if err != nil {
		return false, err
	}
	f.raised = raised
	return false, errors.New("profile write failed after update")
}

func newStack(db *bun.DB, pool *pgxpool.Pool, redisClient *goredis.Client) *stack {
	logger := zap.NewNop()
	loader := postgres.NewStoryLoader(pool)
	stories := infraredis.NewStoryRepository(redisClient, loader, 5*time.Minute)
	hubs := infraredis.NewHubStore(redisClient, 5*time.Minute)
	profiles := postgres.NewProfileRepository(db)
	sessions := postgres.NewGameSessionRepository(db)

	return &stack{
		db:         db,
		loader:     loader,
		profiles:   profiles,
		stories:    stories,
		scores:     app.NewScoreService(postgres.NewLeaderboardRepository(db), profiles, stories, hubs, logger).WithTransactor(postgres.NewTxManager(db)),
		progress:   app.NewProgressService(postgres.NewProgressRepository(db), stories, logger),
		powerups:   app.NewPowerUpService(postgres.NewPowerUpRepository(db), sessions, logger),
		sessions:   app.NewGameSessionService(sessions, stories, logger),
		invites:    app.NewInviteService(postgres.NewInviteRepository(db), stories, profiles, logger),
		animations: app.NewAnimationService(postgres.NewAnimationRepository(db)),
		content:    app.NewContentService(stories),
		badges:     app.NewProfileService(profiles, logger),
	}
}

// seedContent inserts one story with levels stored out of play order.
func seedContent(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	statements := []string{
		`INSERT INTO stories (id, title, description) VALUES (1, 'Truth Quest', 'Check before you share.')`,
		`INSERT INTO levels (id, story_id, title, "order") VALUES (20, 1, 'The Viral Photo', 2), (10, 1, 'The Forwarded Message', 1)`,
		`INSERT INTO scenarios (id, story_id, level_id, description, "order") VALUES
			(101, 1, 10, 'The message links to an unknown site.', 2),
			(100, 1, 10, 'A message claims school is closed.', 1),
			(200, 1, 20, 'A photo of a flood on a sunny day.', 1)`,
		`INSERT INTO actions (id, scenario_id, text, is_correct, points) VALUES
			(1000, 100, 'Check the school website', TRUE, 10),
			(1001, 100, 'Forward it', FALSE, 0)`,
		`INSERT INTO outcomes (action_id, text) VALUES (1000, 'The website says school is open.')`,
	}
	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "truthquest", "POSTGRES_PASSWORD": "truthquest", "POSTGRES_DB": "truthquest"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://truthquest:truthquest@%s:%s/truthquest?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
