package postgres

import (
	"context"
	"fmt"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

// ProgressRepository upserts one row per (user, story).
type ProgressRepository struct {
	db *bun.DB
}

func NewProgressRepository(db *bun.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Upsert resolves the create/update race inside Postgres: concurrent first
// saves collapse onto the unique (user_id, story_id) key.
func (r *ProgressRepository) Upsert(ctx context.Context, p domain.UserProgress) (domain.UserProgress, bool, error) {
	m := &progressModel{
		UserID:        p.UserID,
		StoryID:       p.StoryID,
		Level:         p.Level,
		Score:         p.Score,
		Lives:         p.Lives,
		ScenarioIndex: p.ScenarioIndex,
		StateData:     p.StateData,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	_, err := conn(ctx, r.db).NewInsert().
		Model(m).
		On("CONFLICT (user_id, story_id) DO UPDATE").
		Set("level = EXCLUDED.level").
		Set("score = EXCLUDED.score").
		Set("lives = EXCLUDED.lives").
		Set("scenario_index = EXCLUDED.scenario_index").
		Set("state_data = EXCLUDED.state_data").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*, (xmax = 0) AS inserted").
		Exec(ctx)
	if err != nil {
		return domain.UserProgress{}, false, fmt.Errorf("upsert progress: %w", err)
	}
	return m.toDomain(), m.Inserted, nil
}

func (r *ProgressRepository) Get(ctx context.Context, userID, storyID int64) (domain.UserProgress, error) {
	m := new(progressModel)
	err := conn(ctx, r.db).NewSelect().
		Model(m).
		Where("up.user_id = ?", userID).
		Where("up.story_id = ?", storyID).
		Scan(ctx)
	if isNoRows(err) {
		return domain.UserProgress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.UserProgress{}, fmt.Errorf("get progress: %w", err)
	}
	return m.toDomain(), nil
}

// LeaderboardRepository keeps the last submitted score per (user, story).
type LeaderboardRepository struct {
	db *bun.DB
}

func NewLeaderboardRepository(db *bun.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Upsert overwrites score and updated_at. created_at is left as first written.
func (r *LeaderboardRepository) Upsert(ctx context.Context, e domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	m := &leaderboardModel{
		UserID:    e.UserID,
		StoryID:   e.StoryID,
		Score:     e.Score,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	_, err := conn(ctx, r.db).NewInsert().
		Model(m).
		On("CONFLICT (user_id, story_id) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	m.Username = e.Username
	return m.toDomain(), nil
}

func (r *LeaderboardRepository) ListByStory(ctx context.Context, storyID int64) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardModel
	err := conn(ctx, r.db).NewSelect().
		Model(&rows).
		ColumnExpr("le.*").
		ColumnExpr("COALESCE(p.username, '') AS username").
		Join("LEFT JOIN profiles AS p ON p.user_id = le.user_id").
		Where("le.story_id = ?", storyID).
		OrderExpr("le.score DESC, le.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	out := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// TopScores returns each user's highest entry across stories.
func (r *LeaderboardRepository) TopScores(ctx context.Context) ([]domain.TopScore, error) {
	var rows []struct {
		Username string `bun:"username"`
		Score    int    `bun:"score"`
	}
	err := conn(ctx, r.db).NewSelect().
		TableExpr("leaderboard_entries AS le").
		ColumnExpr("p.username").
		ColumnExpr("MAX(le.score) AS score").
		Join("JOIN profiles AS p ON p.user_id = le.user_id").
		GroupExpr("p.user_id, p.username").
		OrderExpr("score DESC, p.username ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	out := make([]domain.TopScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.TopScore{Username: row.Username, Score: row.Score})
	}
	return out, nil
}
