package postgres

import (
	"context"
	"fmt"
	"time"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

// AnimationRepository relies on the (story_id, animation_type) unique key to
// keep at most one animation per event.
type AnimationRepository struct {
	db    *bun.DB
	clock func() time.Time
}

func NewAnimationRepository(db *bun.DB) *AnimationRepository {
	return &AnimationRepository{db: db, clock: time.Now}
}

func (r *AnimationRepository) Save(ctx context.Context, a domain.Animation) (domain.Animation, error) {
	if err := a.Validate(); err != nil {
		return domain.Animation{}, err
	}
	now := r.clock().UTC()
	m := &animationModel{
		StoryID:     a.StoryID,
		Type:        string(a.Type),
		Title:       a.Title,
		Description: a.Description,
		GifFile:     a.GifFile,
		MP4File:     a.MP4File,
		IsActive:    a.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (story_id, animation_type) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("gif_file = EXCLUDED.gif_file").
		Set("mp4_file = EXCLUDED.mp4_file").
		Set("is_active = EXCLUDED.is_active").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Animation{}, fmt.Errorf("save animation: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AnimationRepository) FindActive(ctx context.Context, storyID int64, typ domain.AnimationType) (domain.Animation, error) {
	m := new(animationModel)
	err := r.db.NewSelect().
		Model(m).
		Where("an.story_id = ?", storyID).
		Where("an.animation_type = ?", string(typ)).
		Where("an.is_active").
		Scan(ctx)
	if isNoRows(err) {
		return domain.Animation{}, domain.ErrAnimationNotFound
	}
	if err != nil {
		return domain.Animation{}, fmt.Errorf("find animation: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AnimationRepository) ListActive(ctx context.Context, storyID int64) ([]domain.Animation, error) {
	var rows []animationModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("an.story_id = ?", storyID).
		Where("an.is_active").
		OrderExpr("an.animation_type ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list animations: %w", err)
	}
	out := make([]domain.Animation, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
