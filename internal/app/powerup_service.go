package app

import (
	"context"
	"errors"
	"time"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// PowerUpService mints grants once a user answers enough questions correctly
// and redeems them exactly once. Effects are returned to the client to apply;
// no progress or session row is modified here.
type PowerUpService struct {
	powerups PowerUpRepository
	sessions GameSessionRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewPowerUpService(powerups PowerUpRepository, sessions GameSessionRepository, logger *zap.Logger) *PowerUpService {
	return &PowerUpService{
		powerups: powerups,
		sessions: sessions,
		logger:   logger.Named("powerups"),
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *PowerUpService) WithClock(now func() time.Time) *PowerUpService {
	s.now = now
	return s
}

// ListForStory returns the active definitions of a story.
func (s *PowerUpService) ListForStory(ctx context.Context, storyID int64) ([]domain.PowerUp, error) {
	if storyID <= 0 {
		return nil, domain.Invalidf("story_id is required")
	}
	return s.powerups.ListPowerUps(ctx, storyID)
}

// Earn creates a new active grant. Every successful call creates a new grant.
func (s *PowerUpService) Earn(ctx context.Context, user domain.User, req domain.EarnRequest) (domain.UserPowerUp, error) {
	if req.StoryID <= 0 {
		return domain.UserPowerUp{}, domain.Invalidf("story_id is required")
	}
	if req.PowerUpID <= 0 {
		return domain.UserPowerUp{}, domain.Invalidf("power_up_id is required")
	}
	if req.CorrectAnswerCount < 0 {
		return domain.UserPowerUp{}, domain.Invalidf("correct_answer_count must not be negative")
	}

	powerUp, err := s.powerups.GetPowerUp(ctx, req.PowerUpID)
	if err != nil {
		return domain.UserPowerUp{}, err
	}
	if !powerUp.IsActive || powerUp.StoryID != req.StoryID {
		return domain.UserPowerUp{}, domain.ErrPowerUpNotFound
	}
	if !powerUp.Eligible(req.CorrectAnswerCount) {
		return domain.UserPowerUp{}, domain.Invalidf("%d correct answers required, got %d",
			powerUp.RequiredCorrectAnswers, req.CorrectAnswerCount)
	}

	if req.GameSessionID != nil {
		session, err := s.sessions.Get(ctx, *req.GameSessionID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && session.UserID != user.ID) {
			return domain.UserPowerUp{}, domain.ErrGameSessionNotFound
		}
		if err != nil {
			return domain.UserPowerUp{}, err
		}
	}

	grant, err := s.powerups.CreateGrant(ctx, domain.UserPowerUp{
		UserID:             user.ID,
		PowerUp:            powerUp,
		GameSessionID:      req.GameSessionID,
		EarnedAtLevel:      req.Level,
		EarnedAtScenario:   req.Scenario,
		CorrectAnswerCount: req.CorrectAnswerCount,
		EarnedAt:           s.now().UTC(),
		State:              domain.Active{},
	})
	if err != nil {
		s.logger.Error("grant create failed", zap.Int64("userID", user.ID), zap.Int64("powerUpID", req.PowerUpID), zap.Error(err))
		return domain.UserPowerUp{}, err
	}
	s.logger.Info("power-up earned",
		zap.Int64("userID", user.ID),
		zap.Int64("grantID", grant.ID),
		zap.String("type", string(powerUp.Type)),
	)
	return grant, nil
}

// Use redeems a grant owned by the user and returns its effects.
func (s *PowerUpService) Use(ctx context.Context, user domain.User, grantID int64) (domain.Effects, domain.UserPowerUp, error) {
	if grantID <= 0 {
		return domain.Effects{}, domain.UserPowerUp{}, domain.ErrGrantNotFound
	}
	grant, err := s.powerups.RedeemGrant(ctx, user.ID, grantID, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrPowerUpAlreadyUsed) {
			s.logger.Debug("power-up redeem rejected", zap.Int64("userID", user.ID), zap.Int64("grantID", grantID))
		}
		return domain.Effects{}, domain.UserPowerUp{}, err
	}
	s.logger.Info("power-up used", zap.Int64("userID", user.ID), zap.Int64("grantID", grantID))
	return grant.PowerUp.Effects(), grant, nil
}

// ListActive returns unredeemed grants, optionally limited to one story.
func (s *PowerUpService) ListActive(ctx context.Context, user domain.User, storyID *int64) ([]domain.UserPowerUp, error) {
	return s.powerups.ListActiveGrants(ctx, user.ID, storyID)
}

// Seed stores definitions for a story, matching existing ones by name.
func (s *PowerUpService) Seed(ctx context.Context, storyID int64, defs []domain.PowerUp) ([]domain.PowerUp, error) {
	out := make([]domain.PowerUp, 0, len(defs))
	for _, def := range defs {
		if !def.Type.Valid() {
			return nil, domain.Invalidf("unknown power-up type %q", def.Type)
		}
		def.StoryID = storyID
		saved, err := s.powerups.SavePowerUp(ctx, def)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// SamplePowerUps is the default power-up set shipped with a story.
func SamplePowerUps() []domain.PowerUp {
	return []domain.PowerUp{
		{
			Name:                   "Extra Life",
			Type:                   domain.PowerUpExtraLife,
			Description:            "Earn an extra life to continue your journey when you make a mistake.",
			RequiredCorrectAnswers: 5,
			BonusLives:             1,
			ScoreMultiplier:        1.0,
			IsActive:               true,
		},
		{
			Name:                   "Score Booster",
			Type:                   domain.PowerUpScoreBoost,
			Description:            "Double your points for the next correct answer!",
			RequiredCorrectAnswers: 7,
			ScoreMultiplier:        2.0,
			IsActive:               true,
		},
		{
			Name:                   "Time Extension",
			Type:                   domain.PowerUpTimeExtension,
			Description:            "Add 30 seconds to your timer. Use wisely!",
			RequiredCorrectAnswers: 8,
			ScoreMultiplier:        1.0,
			TimeExtensionSeconds:   30,
			IsActive:               true,
		},
		{
			Name:                   "Hint",
			Type:                   domain.PowerUpHint,
			Description:            "Get a helpful hint for a challenging question.",
			RequiredCorrectAnswers: 6,
			ScoreMultiplier:        1.0,
			IsActive:               true,
		},
	}
}
