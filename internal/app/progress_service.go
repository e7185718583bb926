package app

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"truthquest-service/internal/domain"

	"go.uber.org/zap"
)

// ProgressService saves and restores a user's place in a story.
// Level, score, lives and scenario index are trusted as sent; nothing checks
// them against content or against the previous save.
type ProgressService struct {
	progress ProgressRepository
	stories  StoryRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewProgressService(progress ProgressRepository, stories StoryRepository, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		progress: progress,
		stories:  stories,
		logger:   logger.Named("progress"),
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// Save replaces the user's progress for the story wholesale (last write wins).
// The bool result is true when a new row was created.
func (s *ProgressService) Save(ctx context.Context, user domain.User, in domain.UserProgress) (domain.UserProgress, bool, error) {
	if in.StoryID <= 0 {
		return domain.UserProgress{}, false, domain.Invalidf("story_id is required")
	}
	state, err := normalizeStateData(in.StateData)
	if err != nil {
		return domain.UserProgress{}, false, err
	}
	if _, err := s.stories.GetStory(ctx, in.StoryID); err != nil {
		return domain.UserProgress{}, false, err
	}

	now := s.now().UTC()
	in.UserID = user.ID
	in.StateData = state
	in.CreatedAt = now
	in.UpdatedAt = now

	saved, created, err := s.progress.Upsert(ctx, in)
	if err != nil {
		s.logger.Error("progress upsert failed", zap.Int64("userID", user.ID), zap.Int64("storyID", in.StoryID), zap.Error(err))
		return domain.UserProgress{}, false, err
	}
	s.logger.Debug("progress saved",
		zap.Int64("userID", user.ID),
		zap.Int64("storyID", in.StoryID),
		zap.Int("level", in.Level),
		zap.Int("scenarioIndex", in.ScenarioIndex),
		zap.Bool("created", created),
	)
	return saved, created, nil
}

// Get returns the saved progress or domain.ErrProgressNotFound.
func (s *ProgressService) Get(ctx context.Context, user domain.User, storyID int64) (domain.UserProgress, error) {
	if storyID <= 0 {
		return domain.UserProgress{}, domain.Invalidf("story_id is required")
	}
	return s.progress.Get(ctx, user.ID, storyID)
}

// normalizeStateData accepts a JSON object (kept byte for byte) or nothing.
func normalizeStateData(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, domain.Invalidf("state_data must be a JSON object")
	}
	return append(json.RawMessage(nil), trimmed...), nil
}
