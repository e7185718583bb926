package http

import (
	"net/http"
	"time"

	"truthquest-service/internal/app"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Content    *app.ContentService
	Scores     *app.ScoreService
	Progress   *app.ProgressService
	PowerUps   *app.PowerUpService
	Sessions   *app.GameSessionService
	Invites    *app.InviteService
	Animations *app.AnimationService
	Profiles   *app.ProfileService
}

type RouterConfig struct {
	CORSOrigins []string
	// Metrics mounts /metrics and request instrumentation.
	Metrics bool
}

// NewRouter wires middleware, REST handlers and the leaderboard websocket.
func NewRouter(cfg RouterConfig, services Services, verifier *JWTVerifier, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger.Named("http")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// must precede route registration; gin only applies middleware to later routes
	if cfg.Metrics {
		p := ginprometheus.NewPrometheus("truthquest_http")
		p.Use(router)
	}

	health := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	router.GET("/healthz", health)
	router.HEAD("/healthz", health)

	h := &Handler{services: services}
	ws := NewWSHandler(services.Scores, logger)

	// public reads
	router.GET("/stories/", h.listStories)
	router.GET("/stories/:id/", h.getStory)
	router.GET("/stories/:id/levels/", h.listLevels)
	router.GET("/stories/:id/levels/:level_id/scenarios/", h.listScenarios)
	router.GET("/scenarios/:id/actions/", h.listActions)
	router.GET("/power-ups/by-story/:story_id/", h.listPowerUps)
	router.GET("/leaderboard/", h.listLeaderboard)
	router.GET("/leaderboard/top-scores/", h.topScores)
	router.GET("/invites/:token/inviter-score/", h.inviterScore)
	router.GET("/animations/", h.listAnimations)
	router.GET("/animations/by-type/:type/", h.animationByType)
	router.GET("/badges/", h.listBadges)
	router.GET("/ws/leaderboard", gin.WrapF(ws.ServeWS))

	authed := router.Group("/", RequireUser(verifier))
	authed.POST("/leaderboard/", h.submitScore)
	authed.POST("/progress/save-progress/", h.saveProgress)
	authed.GET("/progress/get-progress/", h.getProgress)
	authed.POST("/power-ups/earn/", h.earnPowerUp)
	authed.POST("/power-ups/:id/use/", h.usePowerUp)
	authed.GET("/power-ups/active/", h.activePowerUps)
	authed.POST("/game-sessions/", h.startSession)
	authed.GET("/game-sessions/", h.listSessions)
	authed.GET("/game-sessions/:id/", h.getSession)
	authed.POST("/game-sessions/:id/complete/", h.completeSession)
	authed.POST("/invites/", h.createInvite)
	authed.GET("/invites/", h.listInvites)
	authed.GET("/profiles/me/", h.myProfile)
	authed.POST("/badges/:id/award/", h.awardBadge)
	return router
}
