package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"truthquest-service/internal/app"
	"truthquest-service/internal/config"
	"truthquest-service/internal/infra/memory"
	"truthquest-service/internal/infra/postgres"
	redisinfra "truthquest-service/internal/infra/redis"
	transport "truthquest-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runServer(cmd.Context(), cfg, *port, logger)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, portFlag string, logger *zap.Logger) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	verifier, err := transport.NewJWTVerifier(cfg.Auth.JWTSecret, logger)
	if err != nil {
		return err
	}

	services, cleanup, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	router := transport.NewRouter(transport.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     true,
	}, services, verifier, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting truthquest service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildServices picks Postgres-backed stores when a URL is configured and the
// in-memory ones otherwise. Redis, when configured, fronts content and hubs.
func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (transport.Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)

	var (
		loader      memory.StoryLoader
		progress    app.ProgressRepository
		leaderboard app.LeaderboardRepository
		profiles    app.ProfileRepository
		powerups    app.PowerUpRepository
		sessions    app.GameSessionRepository
		invites     app.InviteRepository
		animations  app.AnimationRepository
		txm         *postgres.TxManager
	)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return transport.Services{}, nil, err
		}
		closers = append(closers, pool.Close)
		db := postgres.Open(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })

		loader = postgres.NewStoryLoader(pool)
		progress = postgres.NewProgressRepository(db)
		leaderboard = postgres.NewLeaderboardRepository(db)
		profiles = postgres.NewProfileRepository(db)
		powerups = postgres.NewPowerUpRepository(db)
		sessions = postgres.NewGameSessionRepository(db)
		invites = postgres.NewInviteRepository(db)
		animations = postgres.NewAnimationRepository(db)
		txm = postgres.NewTxManager(db)
	} else {
		logger.Warn("postgres not configured, serving sample content from memory")
		loader = memory.NewStaticStoryLoader(sampleStory())
		progress = memory.NewProgressStore()
		leaderboard = memory.NewLeaderboardStore()
		profiles = memory.NewProfileStore(sampleBadges()...)
		powerups = memory.NewPowerUpStore()
		sessions = memory.NewGameSessionStore()
		invites = memory.NewInviteStore()
		animations = memory.NewAnimationStore()
	}

	var stories app.StoryRepository
	var hubs app.HubRepository
	if redisClient != nil {
		stories = redisinfra.NewStoryRepository(redisClient, loader, contentTTL)
		hubs = redisinfra.NewHubStore(redisClient, redisTTL)
	} else {
		stories = memory.NewStoryRepository(loader, contentTTL)
		hubs = memory.NewHubStore()
	}

	scores := app.NewScoreService(leaderboard, profiles, stories, hubs, logger)
	if txm != nil {
		scores = scores.WithTransactor(txm)
	}

	services := transport.Services{
		Content:    app.NewContentService(stories),
		Scores:     scores,
		Progress:   app.NewProgressService(progress, stories, logger),
		PowerUps:   app.NewPowerUpService(powerups, sessions, logger),
		Sessions:   app.NewGameSessionService(sessions, stories, logger),
		Invites:    app.NewInviteService(invites, stories, profiles, logger),
		Animations: app.NewAnimationService(animations),
		Profiles:   app.NewProfileService(profiles, logger),
	}

	if cfg.Postgres.URL == "" {
		if err := seedSampleContent(ctx, services); err != nil {
			cleanup()
			return transport.Services{}, nil, err
		}
	}
	return services, cleanup, nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
