package postgres

import (
	"context"
	"fmt"
	"time"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

// ProfileRepository stores profiles, their JSONB high-score map and badges.
type ProfileRepository struct {
	db    *bun.DB
	clock func() time.Time
}

func NewProfileRepository(db *bun.DB) *ProfileRepository {
	return &ProfileRepository{db: db, clock: time.Now}
}

func (r *ProfileRepository) Ensure(ctx context.Context, user domain.User) error {
	m := &profileModel{
		UserID:     user.ID,
		Username:   user.Username,
		HighScores: domain.HighScores{},
		CreatedAt:  r.clock().UTC(),
	}
	_, err := conn(ctx, r.db).NewInsert().
		Model(m).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	m := new(profileModel)
	err := conn(ctx, r.db).NewSelect().Model(m).Where("p.user_id = ?", userID).Scan(ctx)
	if isNoRows(err) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	var badges []badgeModel
	err = conn(ctx, r.db).NewSelect().
		Model(&badges).
		Join("JOIN profile_badges AS pb ON pb.badge_id = b.id").
		Where("pb.user_id = ?", userID).
		OrderExpr("b.id ASC").
		Scan(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list profile badges: %w", err)
	}

	profile := domain.Profile{
		UserID:     m.UserID,
		Username:   m.Username,
		HighScores: m.HighScores,
		Badges:     make([]domain.Badge, 0, len(badges)),
		CreatedAt:  m.CreatedAt.UTC(),
	}
	if profile.HighScores == nil {
		profile.HighScores = domain.HighScores{}
	}
	for _, b := range badges {
		profile.Badges = append(profile.Badges, b.toDomain())
	}
	return profile, nil
}

// RaiseHighScore writes the story's key only when score beats the stored one.
// The comparison is part of the UPDATE, so concurrent submissions cannot lower
// the best, and keys for other stories are left untouched.
func (r *ProfileRepository) RaiseHighScore(ctx context.Context, userID, storyID int64, score int) (bool, error) {
	key := domain.StoryKey(storyID)
	res, err := conn(ctx, r.db).NewUpdate().
		Model((*profileModel)(nil)).
		Set("high_scores = jsonb_set(high_scores, ARRAY[?]::text[], to_jsonb(?::bigint), true)", key, score).
		Where("user_id = ?", userID).
		Where("COALESCE((high_scores->>?)::bigint, 0) < ?", key, score).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("raise high score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ProfileRepository) AddBadge(ctx context.Context, userID, badgeID int64) error {
	exists, err := conn(ctx, r.db).NewSelect().Model((*badgeModel)(nil)).Where("b.id = ?", badgeID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("find badge: %w", err)
	}
	if !exists {
		return domain.ErrBadgeNotFound
	}
	exists, err = conn(ctx, r.db).NewSelect().Model((*profileModel)(nil)).Where("p.user_id = ?", userID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("find profile: %w", err)
	}
	if !exists {
		return domain.ErrProfileNotFound
	}
	_, err = conn(ctx, r.db).NewInsert().
		Model(&profileBadgeModel{UserID: userID, BadgeID: badgeID}).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add badge: %w", err)
	}
	return nil
}

func (r *ProfileRepository) ListBadges(ctx context.Context) ([]domain.Badge, error) {
	var rows []badgeModel
	if err := conn(ctx, r.db).NewSelect().Model(&rows).OrderExpr("b.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	out := make([]domain.Badge, 0, len(rows))
	for _, b := range rows {
		out = append(out, b.toDomain())
	}
	return out, nil
}

// SaveBadge inserts a badge or updates the one with the same name.
func (r *ProfileRepository) SaveBadge(ctx context.Context, badge domain.Badge) (domain.Badge, error) {
	m := &badgeModel{Name: badge.Name, Description: badge.Description, Image: badge.Image}
	_, err := conn(ctx, r.db).NewInsert().
		Model(m).
		On("CONFLICT (name) DO UPDATE").
		Set("description = EXCLUDED.description").
		Set("image = EXCLUDED.image").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Badge{}, fmt.Errorf("save badge: %w", err)
	}
	return m.toDomain(), nil
}
