package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"truthquest-service/internal/app"
	"truthquest-service/internal/domain"
	"truthquest-service/internal/infra/postgres"
	redisinfra "truthquest-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedPowerUpsCmd upserts the default power-ups for a story found by title.
func NewSeedPowerUpsCmd(configPath *string) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "seed-powerups",
		Short: "Create or update the sample power-ups of a story",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			db := postgres.Open(cfg.Postgres.URL)
			defer db.Close()

			storyID, err := postgres.NewStoryLoader(pool).FindStoryID(ctx, title)
			if err != nil {
				return fmt.Errorf("story %q: %w", title, err)
			}
			service := app.NewPowerUpService(postgres.NewPowerUpRepository(db), postgres.NewGameSessionRepository(db), logger)
			saved, err := service.Seed(ctx, storyID, app.SamplePowerUps())
			if err != nil {
				return err
			}
			for _, p := range saved {
				logger.Info("power-up seeded",
					zap.Int64("id", p.ID),
					zap.String("name", p.Name),
					zap.String("type", string(p.Type)),
					zap.Int("requiredCorrectAnswers", p.RequiredCorrectAnswers),
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "story", "Truth Quest", "title of the story to seed")
	return cmd
}

// NewCheckLevelsCmd prints the levels and scenarios of a story in play order.
func NewCheckLevelsCmd(configPath *string) *cobra.Command {
	var storyID int64
	cmd := &cobra.Command{
		Use:   "check-levels",
		Short: "Print the levels and scenarios of a story",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return printLevels(cmd.Context(), cmd.OutOrStdout(), postgres.NewStoryLoader(pool), storyID)
		},
	}
	cmd.Flags().Int64Var(&storyID, "story-id", 1, "id of the story to inspect")
	return cmd
}

type storyLoader interface {
	LoadStory(ctx context.Context, storyID int64) (domain.Story, error)
}

func printLevels(ctx context.Context, w io.Writer, loader storyLoader, storyID int64) error {
	story, err := loader.LoadStory(ctx, storyID)
	if err != nil {
		return err
	}
	story.Sort()
	fmt.Fprintf(w, "Story %d: %s\n", story.ID, story.Title)
	for _, level := range story.Levels {
		fmt.Fprintf(w, "Level %d (order %d): %s\n", level.ID, level.Order, level.Title)
		for _, sc := range level.Scenarios {
			fmt.Fprintf(w, "  Scenario %d (order %d): %s\n", sc.ID, sc.Order, sc.Description)
		}
	}
	return nil
}

// NewSeedBadgesCmd creates the sample badges, updating any with the same name.
func NewSeedBadgesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-badges",
		Short: "Create or update the sample badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			db := postgres.Open(cfg.Postgres.URL)
			defer db.Close()
			return seedBadges(cmd.Context(), postgres.NewProfileRepository(db), sampleBadges(), logger)
		},
	}
}

type badgeSaver interface {
	SaveBadge(ctx context.Context, badge domain.Badge) (domain.Badge, error)
}

func seedBadges(ctx context.Context, saver badgeSaver, badges []domain.Badge, logger *zap.Logger) error {
	for _, b := range badges {
		saved, err := saver.SaveBadge(ctx, b)
		if err != nil {
			return fmt.Errorf("badge %q: %w", b.Name, err)
		}
		logger.Info("badge seeded", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	}
	return nil
}

// NewInvalidateContentCmd drops cached story trees after content edits.
func NewInvalidateContentCmd(configPath *string) *cobra.Command {
	var storyIDs []int64
	cmd := &cobra.Command{
		Use:   "invalidate-content",
		Short: "Drop cached story trees from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Redis.Addr == "" {
				return errors.New("redis addr not configured")
			}
			client := newRedisClient(cfg)
			defer client.Close()
			// the loader is never consulted when only invalidating
			stories := redisinfra.NewStoryRepository(client, nil, 0)
			return invalidateStories(cmd.Context(), stories, storyIDs, logger)
		},
	}
	cmd.Flags().Int64SliceVar(&storyIDs, "story-id", nil, "id of a story to drop from the cache (repeatable)")
	_ = cmd.MarkFlagRequired("story-id")
	return cmd
}

type storyInvalidator interface {
	Invalidate(ctx context.Context, storyID int64) error
}

func invalidateStories(ctx context.Context, inv storyInvalidator, storyIDs []int64, logger *zap.Logger) error {
	for _, id := range storyIDs {
		if err := inv.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("invalidate story %d: %w", id, err)
		}
		logger.Info("story cache dropped", zap.Int64("storyID", id))
	}
	return nil
}
