package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// InviteService issues shareable invites and answers score lookups for them.
type InviteService struct {
	invites  InviteRepository
	stories  StoryRepository
	profiles ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewInviteService(invites InviteRepository, stories StoryRepository, profiles ProfileRepository, logger *zap.Logger) *InviteService {
	return &InviteService{
		invites:  invites,
		stories:  stories,
		profiles: profiles,
		logger:   logger.Named("invites"),
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *InviteService) WithClock(now func() time.Time) *InviteService {
	s.now = now
	return s
}

// Create issues an invite for a story valid for domain.InviteHorizon.
func (s *InviteService) Create(ctx context.Context, inviter domain.User, storyID int64) (domain.GameInvite, error) {
	if storyID <= 0 {
		return domain.GameInvite{}, domain.Invalidf("story_id is required")
	}
	if _, err := s.stories.GetStory(ctx, storyID); err != nil {
		return domain.GameInvite{}, err
	}
	if err := s.profiles.Ensure(ctx, inviter); err != nil {
		return domain.GameInvite{}, err
	}
	invite, err := s.invites.Create(ctx, domain.NewInvite(inviter.ID, storyID, s.now()))
	if err != nil {
		s.logger.Error("invite create failed", zap.Int64("inviterID", inviter.ID), zap.Error(err))
		return domain.GameInvite{}, err
	}
	return invite, nil
}

// List returns the inviter's invites that have not expired yet.
func (s *InviteService) List(ctx context.Context, inviter domain.User) ([]domain.GameInvite, error) {
	return s.invites.ListByInviter(ctx, inviter.ID, s.now().UTC())
}

// InviterScore returns the inviter's best score for the invite's story.
// The invite stays usable until it expires.
func (s *InviteService) InviterScore(ctx context.Context, token string) (domain.InviterScore, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.InviterScore{}, domain.ErrInviteNotFound
	}
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return domain.InviterScore{}, err
	}
	if invite.IsExpired(s.now()) {
		return domain.InviterScore{}, domain.ErrInviteExpired
	}

	profile, err := s.profiles.Get(ctx, invite.InviterID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.InviterScore{}, domain.ErrInviteNotFound
	}
	if err != nil {
		return domain.InviterScore{}, err
	}
	return domain.InviterScore{
		Username:     profile.Username,
		HighestScore: profile.HighScores.Best(invite.StoryID),
	}, nil
}
