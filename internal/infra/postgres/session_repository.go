package postgres

import (
	"context"
	"fmt"
	"time"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

type GameSessionRepository struct {
	db *bun.DB
}

func NewGameSessionRepository(db *bun.DB) *GameSessionRepository {
	return &GameSessionRepository{db: db}
}

func (r *GameSessionRepository) Create(ctx context.Context, s domain.GameSession) (domain.GameSession, error) {
	m := &gameSessionModel{
		UserID:    s.UserID,
		StoryID:   s.StoryID,
		Score:     s.Score,
		Completed: s.Completed,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return domain.GameSession{}, fmt.Errorf("create game session: %w", err)
	}
	return m.toDomain(), nil
}

func (r *GameSessionRepository) Get(ctx context.Context, sessionID int64) (domain.GameSession, error) {
	m := new(gameSessionModel)
	err := r.db.NewSelect().Model(m).Where("gs.id = ?", sessionID).Scan(ctx)
	if isNoRows(err) {
		return domain.GameSession{}, domain.ErrGameSessionNotFound
	}
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("get game session: %w", err)
	}
	return m.toDomain(), nil
}

func (r *GameSessionRepository) Complete(ctx context.Context, userID, sessionID int64, score int, at time.Time) (domain.GameSession, error) {
	res, err := r.db.NewUpdate().
		Model((*gameSessionModel)(nil)).
		Set("score = ?", score).
		Set("completed = TRUE").
		Set("end_time = ?", at).
		Where("id = ?", sessionID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("complete game session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.GameSession{}, err
	} else if n == 0 {
		return domain.GameSession{}, domain.ErrGameSessionNotFound
	}
	return r.Get(ctx, sessionID)
}

func (r *GameSessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	var rows []gameSessionModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("gs.user_id = ?", userID).
		OrderExpr("gs.start_time DESC, gs.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list game sessions: %w", err)
	}
	out := make([]domain.GameSession, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// InviteRepository stores invites; expiry is applied when reading.
type InviteRepository struct {
	db *bun.DB
}

func NewInviteRepository(db *bun.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite domain.GameInvite) (domain.GameInvite, error) {
	m := &inviteModel{
		Token:     invite.Token,
		InviterID: invite.InviterID,
		StoryID:   invite.StoryID,
		CreatedAt: invite.CreatedAt,
		ExpiresAt: invite.ExpiresAt,
	}
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return domain.GameInvite{}, fmt.Errorf("create invite: %w", err)
	}
	return m.toDomain(), nil
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (domain.GameInvite, error) {
	m := new(inviteModel)
	err := r.db.NewSelect().Model(m).Where("gi.token = ?", token).Scan(ctx)
	if isNoRows(err) {
		return domain.GameInvite{}, domain.ErrInviteNotFound
	}
	if err != nil {
		return domain.GameInvite{}, fmt.Errorf("get invite: %w", err)
	}
	return m.toDomain(), nil
}

func (r *InviteRepository) ListByInviter(ctx context.Context, inviterID int64, now time.Time) ([]domain.GameInvite, error) {
	var rows []inviteModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("gi.inviter_id = ?", inviterID).
		Where("gi.expires_at >= ?", now).
		OrderExpr("gi.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	out := make([]domain.GameInvite, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
