package app

import (
	"context"

	"truthquest-service/internal/domain"
)

// AnimationService picks the presentation asset for a game event.
type AnimationService struct {
	animations AnimationRepository
}

func NewAnimationService(animations AnimationRepository) *AnimationService {
	return &AnimationService{animations: animations}
}

// Resolve returns the single active animation for (story, type).
func (s *AnimationService) Resolve(ctx context.Context, storyID int64, rawType string) (domain.Animation, error) {
	if storyID <= 0 {
		return domain.Animation{}, domain.Invalidf("story_id is required")
	}
	typ, err := domain.ParseAnimationType(rawType)
	if err != nil {
		return domain.Animation{}, err
	}
	return s.animations.FindActive(ctx, storyID, typ)
}

// List returns the active animations of a story.
func (s *AnimationService) List(ctx context.Context, storyID int64) ([]domain.Animation, error) {
	if storyID <= 0 {
		return nil, domain.Invalidf("story_id is required")
	}
	return s.animations.ListActive(ctx, storyID)
}

// Register validates and stores an animation, replacing the one for the same
// (story, type).
func (s *AnimationService) Register(ctx context.Context, animation domain.Animation) (domain.Animation, error) {
	if err := animation.Validate(); err != nil {
		return domain.Animation{}, err
	}
	return s.animations.Save(ctx, animation)
}
