package app

import (
	"context"
	"time"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// GameSessionService tracks play-throughs of a story.
type GameSessionService struct {
	sessions GameSessionRepository
	stories  StoryRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewGameSessionService(sessions GameSessionRepository, stories StoryRepository, logger *zap.Logger) *GameSessionService {
	return &GameSessionService{
		sessions: sessions,
		stories:  stories,
		logger:   logger.Named("sessions"),
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *GameSessionService) WithClock(now func() time.Time) *GameSessionService {
	s.now = now
	return s
}

func (s *GameSessionService) Start(ctx context.Context, user domain.User, storyID int64) (domain.GameSession, error) {
	if storyID <= 0 {
		return domain.GameSession{}, domain.Invalidf("story_id is required")
	}
	if _, err := s.stories.GetStory(ctx, storyID); err != nil {
		return domain.GameSession{}, err
	}
	return s.sessions.Create(ctx, domain.GameSession{
		UserID:    user.ID,
		StoryID:   storyID,
		StartTime: s.now().UTC(),
	})
}

// Complete stamps the final score and end time on one of the user's sessions.
func (s *GameSessionService) Complete(ctx context.Context, user domain.User, sessionID int64, score int) (domain.GameSession, error) {
	session, err := s.sessions.Complete(ctx, user.ID, sessionID, score, s.now().UTC())
	if err != nil {
		return domain.GameSession{}, err
	}
	s.logger.Debug("session completed", zap.Int64("userID", user.ID), zap.Int64("sessionID", sessionID), zap.Int("score", score))
	return session, nil
}

// Get returns a session owned by the user.
func (s *GameSessionService) Get(ctx context.Context, user domain.User, sessionID int64) (domain.GameSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	if session.UserID != user.ID {
		return domain.GameSession{}, domain.ErrGameSessionNotFound
	}
	return session, nil
}

func (s *GameSessionService) List(ctx context.Context, user domain.User) ([]domain.GameSession, error) {
	return s.sessions.ListByUser(ctx, user.ID)
}
