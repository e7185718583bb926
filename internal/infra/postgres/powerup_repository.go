package postgres

import (
	"context"
	"fmt"
	"time"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

// PowerUpRepository stores power-up definitions and user grants.
type PowerUpRepository struct {
	db *bun.DB
}

func NewPowerUpRepository(db *bun.DB) *PowerUpRepository {
	return &PowerUpRepository{db: db}
}

func (r *PowerUpRepository) GetPowerUp(ctx context.Context, powerUpID int64) (domain.PowerUp, error) {
	m := new(powerUpModel)
	err := r.db.NewSelect().Model(m).Where("pu.id = ?", powerUpID).Scan(ctx)
	if isNoRows(err) {
		return domain.PowerUp{}, domain.ErrPowerUpNotFound
	}
	if err != nil {
		return domain.PowerUp{}, fmt.Errorf("get power-up: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PowerUpRepository) ListPowerUps(ctx context.Context, storyID int64) ([]domain.PowerUp, error) {
	var rows []powerUpModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("pu.story_id = ?", storyID).
		Where("pu.is_active").
		OrderExpr("pu.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list power-ups: %w", err)
	}
	out := make([]domain.PowerUp, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// SavePowerUp upserts a definition by (story, name).
func (r *PowerUpRepository) SavePowerUp(ctx context.Context, p domain.PowerUp) (domain.PowerUp, error) {
	m := powerUpFromDomain(p)
	m.ID = 0
	_, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (story_id, name) DO UPDATE").
		Set("description = EXCLUDED.description").
		Set("image = EXCLUDED.image").
		Set("power_up_type = EXCLUDED.power_up_type").
		Set("required_correct_answers = EXCLUDED.required_correct_answers").
		Set("bonus_lives = EXCLUDED.bonus_lives").
		Set("score_multiplier = EXCLUDED.score_multiplier").
		Set("time_extension_seconds = EXCLUDED.time_extension_seconds").
		Set("is_active = EXCLUDED.is_active").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.PowerUp{}, fmt.Errorf("save power-up: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PowerUpRepository) CreateGrant(ctx context.Context, g domain.UserPowerUp) (domain.UserPowerUp, error) {
	m := grantFromDomain(g)
	m.ID = 0
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return domain.UserPowerUp{}, fmt.Errorf("create grant: %w", err)
	}
	out := m.toDomain()
	out.PowerUp = g.PowerUp
	return out, nil
}

// RedeemGrant flips is_active with a conditional UPDATE. Only one concurrent
// caller can match "is_active"; the rest see zero rows affected.
func (r *PowerUpRepository) RedeemGrant(ctx context.Context, userID, grantID int64, at time.Time) (domain.UserPowerUp, error) {
	res, err := r.db.NewUpdate().
		Model((*grantModel)(nil)).
		Set("is_active = FALSE").
		Set("used_at = ?", at).
		Where("id = ?", grantID).
		Where("user_id = ?", userID).
		Where("is_active").
		Exec(ctx)
	if err != nil {
		return domain.UserPowerUp{}, fmt.Errorf("redeem grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.UserPowerUp{}, err
	}
	if n == 0 {
		exists, err := r.db.NewSelect().
			Model((*grantModel)(nil)).
			Where("upu.id = ?", grantID).
			Where("upu.user_id = ?", userID).
			Exists(ctx)
		if err != nil {
			return domain.UserPowerUp{}, fmt.Errorf("find grant: %w", err)
		}
		if exists {
			return domain.UserPowerUp{}, domain.ErrPowerUpAlreadyUsed
		}
		return domain.UserPowerUp{}, domain.ErrGrantNotFound
	}
	return r.getGrant(ctx, grantID)
}

func (r *PowerUpRepository) getGrant(ctx context.Context, grantID int64) (domain.UserPowerUp, error) {
	m := new(grantModel)
	err := r.db.NewSelect().
		Model(m).
		Relation("PowerUp").
		Where("upu.id = ?", grantID).
		Scan(ctx)
	if isNoRows(err) {
		return domain.UserPowerUp{}, domain.ErrGrantNotFound
	}
	if err != nil {
		return domain.UserPowerUp{}, fmt.Errorf("get grant: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PowerUpRepository) ListActiveGrants(ctx context.Context, userID int64, storyID *int64) ([]domain.UserPowerUp, error) {
	var rows []grantModel
	q := r.db.NewSelect().
		Model(&rows).
		Relation("PowerUp").
		Where("upu.user_id = ?", userID).
		Where("upu.is_active").
		OrderExpr("upu.earned_at DESC, upu.id DESC")
	if storyID != nil {
		q = q.Where("power_up.story_id = ?", *storyID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list active grants: %w", err)
	}
	out := make([]domain.UserPowerUp, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
