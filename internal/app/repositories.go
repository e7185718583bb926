package app

import (
	"context"
	"time"

	"truthquest-service/internal/domain"
)

// Transactor runs fn as one unit of work. Repositories sharing the backing
// store join the unit through ctx.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type directTx struct{}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// StoryRepository serves authored content (from a cache or the backing store).
// Stories are returned with levels and scenarios in play order and must be
// treated as read-only.
type StoryRepository interface {
	GetStory(ctx context.Context, storyID int64) (domain.Story, error)
	ListStories(ctx context.Context) ([]domain.Story, error)
	GetScenario(ctx context.Context, scenarioID int64) (domain.Scenario, error)
}

// ProgressRepository stores one progress row per (user, story).
// Upsert replaces every field of an existing row and reports whether it inserted.
type ProgressRepository interface {
	Upsert(ctx context.Context, progress domain.UserProgress) (domain.UserProgress, bool, error)
	Get(ctx context.Context, userID, storyID int64) (domain.UserProgress, error)
}

// LeaderboardRepository stores one entry per (user, story). Upsert overwrites
// the score and keeps the original created_at.
type LeaderboardRepository interface {
	Upsert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error)
	ListByStory(ctx context.Context, storyID int64) ([]domain.LeaderboardEntry, error)
	TopScores(ctx context.Context) ([]domain.TopScore, error)
}

// ProfileRepository owns the denormalized per-user aggregate.
type ProfileRepository interface {
	Ensure(ctx context.Context, user domain.User) error
	Get(ctx context.Context, userID int64) (domain.Profile, error)
	// RaiseHighScore stores score for the story only if it beats the current best.
	RaiseHighScore(ctx context.Context, userID, storyID int64, score int) (bool, error)
	AddBadge(ctx context.Context, userID, badgeID int64) error
	ListBadges(ctx context.Context) ([]domain.Badge, error)
}

// PowerUpRepository stores definitions and grants.
type PowerUpRepository interface {
	GetPowerUp(ctx context.Context, powerUpID int64) (domain.PowerUp, error)
	ListPowerUps(ctx context.Context, storyID int64) ([]domain.PowerUp, error)
	SavePowerUp(ctx context.Context, powerUp domain.PowerUp) (domain.PowerUp, error)
	CreateGrant(ctx context.Context, grant domain.UserPowerUp) (domain.UserPowerUp, error)
	// RedeemGrant flips an active grant owned by userID to used in one
	// conditional write. Losers of a race get domain.ErrPowerUpAlreadyUsed.
	RedeemGrant(ctx context.Context, userID, grantID int64, at time.Time) (domain.UserPowerUp, error)
	ListActiveGrants(ctx context.Context, userID int64, storyID *int64) ([]domain.UserPowerUp, error)
}

// GameSessionRepository stores play-throughs.
type GameSessionRepository interface {
	Create(ctx context.Context, session domain.GameSession) (domain.GameSession, error)
	Get(ctx context.Context, sessionID int64) (domain.GameSession, error)
	Complete(ctx context.Context, userID, sessionID int64, score int, at time.Time) (domain.GameSession, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.GameSession, error)
}

// InviteRepository stores invites. Expired rows are filtered, never swept.
type InviteRepository interface {
	Create(ctx context.Context, invite domain.GameInvite) (domain.GameInvite, error)
	GetByToken(ctx context.Context, token string) (domain.GameInvite, error)
	ListByInviter(ctx context.Context, inviterID int64, now time.Time) ([]domain.GameInvite, error)
}

// AnimationRepository stores at most one animation per (story, type).
type AnimationRepository interface {
	Save(ctx context.Context, animation domain.Animation) (domain.Animation, error)
	FindActive(ctx context.Context, storyID int64, typ domain.AnimationType) (domain.Animation, error)
	ListActive(ctx context.Context, storyID int64) ([]domain.Animation, error)
}

// HubRepository keeps the live leaderboard hubs (in-memory, Redis, etc).
type HubRepository interface {
	// Subscribe joins the story's hub, creating it on first use. Cancelling the
	// last subscription drops the hub.
	Subscribe(storyID int64, initial []domain.LeaderboardEntry) (<-chan domain.Leaderboard, func())
	Get(storyID int64) (*Hub, bool)
}
