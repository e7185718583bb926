package app

import (
	"context"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// ProfileService reads the profile aggregate and awards badges. High scores
// are only written by ScoreService.
type ProfileService struct {
	profiles ProfileRepository
	logger   *zap.Logger
}

func NewProfileService(profiles ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger.Named("profiles")}
}

// Get returns the caller's profile, creating an empty one on first use.
func (s *ProfileService) Get(ctx context.Context, user domain.User) (domain.Profile, error) {
	if err := s.profiles.Ensure(ctx, user); err != nil {
		return domain.Profile{}, err
	}
	return s.profiles.Get(ctx, user.ID)
}

// AwardBadge adds a badge to the user's set. Awarding a held badge is a no-op.
func (s *ProfileService) AwardBadge(ctx context.Context, user domain.User, badgeID int64) (domain.Profile, error) {
	if badgeID <= 0 {
		return domain.Profile{}, domain.ErrBadgeNotFound
	}
	if err := s.profiles.Ensure(ctx, user); err != nil {
		return domain.Profile{}, err
	}
	if err := s.profiles.AddBadge(ctx, user.ID, badgeID); err != nil {
		return domain.Profile{}, err
	}
	s.logger.Info("badge awarded", zap.Int64("userID", user.ID), zap.Int64("badgeID", badgeID))
	return s.profiles.Get(ctx, user.ID)
}

func (s *ProfileService) Badges(ctx context.Context) ([]domain.Badge, error) {
	return s.profiles.ListBadges(ctx)
}
