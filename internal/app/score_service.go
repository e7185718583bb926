package app

import (
	"context"
	"time"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// ScoreService reconciles submitted scores into the leaderboard and the
// profile's personal bests. The two are updated by different rules: the
// leaderboard keeps the last submitted score, the profile keeps the maximum.
type ScoreService struct {
	leaderboard LeaderboardRepository
	profiles    ProfileRepository
	stories     StoryRepository
	hubs        HubRepository
	tx          Transactor
	logger      *zap.Logger
	now         func() time.Time
}

func NewScoreService(leaderboard LeaderboardRepository, profiles ProfileRepository, stories StoryRepository, hubs HubRepository, logger *zap.Logger) *ScoreService {
	return &ScoreService{
		leaderboard: leaderboard,
		profiles:    profiles,
		stories:     stories,
		hubs:        hubs,
		tx:          directTx{},
		logger:      logger.Named("scores"),
		now:         time.Now,
	}
}

// Submit records score as the user's current leaderboard entry for the story
// and raises the personal best when it is higher.
func (s *ScoreService) Submit(ctx context.Context, user domain.User, storyID int64, score int) (domain.LeaderboardEntry, error) {
	if storyID <= 0 {
		return domain.LeaderboardEntry{}, domain.Invalidf("story_id is required")
	}
	if _, err := s.stories.GetStory(ctx, storyID); err != nil {
		return domain.LeaderboardEntry{}, err
	}

	// both views of the score land together or not at all
	var entry domain.LeaderboardEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.profiles.Ensure(ctx, user); err != nil {
			return err
		}
		var err error
		if entry, err = s.RecordLeaderboardScore(ctx, user, storyID, score); err != nil {
			return err
		}
		_, err = s.RecordPersonalBest(ctx, user, storyID, score)
		return err
	})
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}

	s.publish(ctx, storyID)
	return entry, nil
}

// RecordLeaderboardScore overwrites the (user, story) entry, lower scores included.
func (s *ScoreService) RecordLeaderboardScore(ctx context.Context, user domain.User, storyID int64, score int) (domain.LeaderboardEntry, error) {
	now := s.now().UTC()
	entry, err := s.leaderboard.Upsert(ctx, domain.LeaderboardEntry{
		UserID:    user.ID,
		Username:  user.Username,
		StoryID:   storyID,
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Error("leaderboard upsert failed", zap.Int64("userID", user.ID), zap.Int64("storyID", storyID), zap.Error(err))
		return domain.LeaderboardEntry{}, err
	}
	if entry.Username == "" {
		entry.Username = user.Username
	}
	return entry, nil
}

// RecordPersonalBest raises profile.high_scores[story] if score is higher.
func (s *ScoreService) RecordPersonalBest(ctx context.Context, user domain.User, storyID int64, score int) (bool, error) {
	raised, err := s.profiles.RaiseHighScore(ctx, user.ID, storyID, score)
	if err != nil {
		s.logger.Error("high score update failed", zap.Int64("userID", user.ID), zap.Int64("storyID", storyID), zap.Error(err))
		return false, err
	}
	if raised {
		s.logger.Debug("personal best raised", zap.Int64("userID", user.ID), zap.Int64("storyID", storyID), zap.Int("score", score))
	}
	return raised, nil
}

// Leaderboard lists the entries of one story, best first.
func (s *ScoreService) Leaderboard(ctx context.Context, storyID int64) ([]domain.LeaderboardEntry, error) {
	if storyID <= 0 {
		return nil, domain.Invalidf("story_id is required")
	}
	return s.leaderboard.ListByStory(ctx, storyID)
}

// TopScores ranks users by their best entry across all stories.
func (s *ScoreService) TopScores(ctx context.Context) ([]domain.TopScore, error) {
	return s.leaderboard.TopScores(ctx)
}

// Subscribe returns a channel of leaderboard snapshots for a story.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ScoreService) Subscribe(ctx context.Context, storyID int64) (<-chan domain.Leaderboard, func(), error) {
	if _, err := s.stories.GetStory(ctx, storyID); err != nil {
		return nil, nil, err
	}
	entries, err := s.leaderboard.ListByStory(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hubs.Subscribe(storyID, entries)
	return ch, cancel, nil
}

func (s *ScoreService) publish(ctx context.Context, storyID int64) {
	hub, ok := s.hubs.Get(storyID)
	if !ok {
		return
	}
	entries, err := s.leaderboard.ListByStory(ctx, storyID)
	if err != nil {
		s.logger.Warn("leaderboard snapshot failed", zap.Int64("storyID", storyID), zap.Error(err))
		return
	}
	hub.Publish(entries)
}

// WithTransactor makes Submit atomic across the leaderboard and profile stores.
func (s *ScoreService) WithTransactor(tx Transactor) *ScoreService {
	s.tx = tx
	return s
}

// WithClock overrides the time source; used by tests.
func (s *ScoreService) WithClock(now func() time.Time) *ScoreService {
	s.now = now
	return s
}
