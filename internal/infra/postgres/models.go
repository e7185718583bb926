package postgres

import (
	"encoding/json"
	"time"

	"truthquest-service/internal/domain"

	"github.com/uptrace/bun"
)

type progressModel struct {
	bun.BaseModel `bun:"table:user_progress,alias:up"`

	ID            int64           `bun:"id,pk,autoincrement"`
	UserID        int64           `bun:"user_id,notnull"`
	StoryID       int64           `bun:"story_id,notnull"`
	Level         int             `bun:"level,notnull"`
	Score         int             `bun:"score,notnull"`
	Lives         int             `bun:"lives,notnull"`
	ScenarioIndex int             `bun:"scenario_index,notnull"`
	StateData     json.RawMessage `bun:"state_data,type:jsonb,notnull"`
	CreatedAt     time.Time       `bun:"created_at,notnull"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull"`

	Inserted bool `bun:"inserted,scanonly"`
}

func (m progressModel) toDomain() domain.UserProgress {
	return domain.UserProgress{
		UserID:        m.UserID,
		StoryID:       m.StoryID,
		Level:         m.Level,
		Score:         m.Score,
		Lives:         m.Lives,
		ScenarioIndex: m.ScenarioIndex,
		StateData:     m.StateData,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type leaderboardModel struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	StoryID   int64     `bun:"story_id,notnull"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Username string `bun:"username,scanonly"`
}

func (m leaderboardModel) toDomain() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Username:  m.Username,
		StoryID:   m.StoryID,
		Score:     m.Score,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type profileModel struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID     int64             `bun:"user_id,pk"`
	Username   string            `bun:"username,notnull"`
	HighScores domain.HighScores `bun:"high_scores,type:jsonb,notnull"`
	CreatedAt  time.Time         `bun:"created_at,notnull"`
}

type badgeModel struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	Image       string `bun:"image,notnull"`
}

func (m badgeModel) toDomain() domain.Badge {
	return domain.Badge{ID: m.ID, Name: m.Name, Description: m.Description, Image: m.Image}
}

type profileBadgeModel struct {
	bun.BaseModel `bun:"table:profile_badges,alias:pb"`

	UserID  int64 `bun:"user_id,pk"`
	BadgeID int64 `bun:"badge_id,pk"`
}

type powerUpModel struct {
	bun.BaseModel `bun:"table:power_ups,alias:pu"`

	ID                     int64   `bun:"id,pk,autoincrement"`
	StoryID                int64   `bun:"story_id,notnull"`
	Name                   string  `bun:"name,notnull"`
	Description            string  `bun:"description,notnull"`
	Image                  string  `bun:"image,notnull"`
	Type                   string  `bun:"power_up_type,notnull"`
	RequiredCorrectAnswers int     `bun:"required_correct_answers,notnull"`
	BonusLives             int     `bun:"bonus_lives,notnull"`
	ScoreMultiplier        float64 `bun:"score_multiplier,notnull"`
	TimeExtensionSeconds   int     `bun:"time_extension_seconds,notnull"`
	IsActive               bool    `bun:"is_active,notnull"`
}

func powerUpFromDomain(p domain.PowerUp) *powerUpModel {
	return &powerUpModel{
		ID:                     p.ID,
		StoryID:                p.StoryID,
		Name:                   p.Name,
		Description:            p.Description,
		Image:                  p.Image,
		Type:                   string(p.Type),
		RequiredCorrectAnswers: p.RequiredCorrectAnswers,
		BonusLives:             p.BonusLives,
		ScoreMultiplier:        p.ScoreMultiplier,
		TimeExtensionSeconds:   p.TimeExtensionSeconds,
		IsActive:               p.IsActive,
	}
}

func (m powerUpModel) toDomain() domain.PowerUp {
	return domain.PowerUp{
		ID:                     m.ID,
		StoryID:                m.StoryID,
		Name:                   m.Name,
		Description:            m.Description,
		Image:                  m.Image,
		Type:                   domain.PowerUpType(m.Type),
		RequiredCorrectAnswers: m.RequiredCorrectAnswers,
		BonusLives:             m.BonusLives,
		ScoreMultiplier:        m.ScoreMultiplier,
		TimeExtensionSeconds:   m.TimeExtensionSeconds,
		IsActive:               m.IsActive,
	}
}

// grantModel keeps is_active and used_at as columns; domain.GrantState is
// rebuilt from used_at on read.
type grantModel struct {
	bun.BaseModel `bun:"table:user_power_ups,alias:upu"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	UserID             int64      `bun:"user_id,notnull"`
	PowerUpID          int64      `bun:"power_up_id,notnull"`
	GameSessionID      *int64     `bun:"game_session_id"`
	EarnedAtLevel      *int       `bun:"earned_at_level"`
	EarnedAtScenario   *int       `bun:"earned_at_scenario"`
	CorrectAnswerCount int        `bun:"correct_answer_count,notnull"`
	EarnedAt           time.Time  `bun:"earned_at,notnull"`
	IsActive           bool       `bun:"is_active,notnull"`
	UsedAt             *time.Time `bun:"used_at"`

	PowerUp *powerUpModel `bun:"rel:belongs-to,join:power_up_id=id"`
}

func grantFromDomain(g domain.UserPowerUp) *grantModel {
	m := &grantModel{
		ID:                 g.ID,
		UserID:             g.UserID,
		PowerUpID:          g.PowerUp.ID,
		GameSessionID:      g.GameSessionID,
		EarnedAtLevel:      g.EarnedAtLevel,
		EarnedAtScenario:   g.EarnedAtScenario,
		CorrectAnswerCount: g.CorrectAnswerCount,
		EarnedAt:           g.EarnedAt,
		IsActive:           true,
	}
	if at, used := g.UsedAt(); used {
		m.IsActive = false
		m.UsedAt = &at
	}
	return m
}

func (m grantModel) toDomain() domain.UserPowerUp {
	g := domain.UserPowerUp{
		ID:                 m.ID,
		UserID:             m.UserID,
		GameSessionID:      m.GameSessionID,
		EarnedAtLevel:      m.EarnedAtLevel,
		EarnedAtScenario:   m.EarnedAtScenario,
		CorrectAnswerCount: m.CorrectAnswerCount,
		EarnedAt:           m.EarnedAt.UTC(),
		State:              domain.GrantStateFromColumns(m.UserID, utcPtr(m.UsedAt)),
	}
	if m.PowerUp != nil {
		g.PowerUp = m.PowerUp.toDomain()
	} else {
		g.PowerUp.ID = m.PowerUpID
	}
	return g
}

type gameSessionModel struct {
	bun.BaseModel `bun:"table:game_sessions,alias:gs"`

	ID        int64      `bun:"id,pk,autoincrement"`
	UserID    int64      `bun:"user_id,notnull"`
	StoryID   int64      `bun:"story_id,notnull"`
	Score     int        `bun:"score,notnull"`
	Completed bool       `bun:"completed,notnull"`
	StartTime time.Time  `bun:"start_time,notnull"`
	EndTime   *time.Time `bun:"end_time"`
}

func (m gameSessionModel) toDomain() domain.GameSession {
	return domain.GameSession{
		ID:        m.ID,
		UserID:    m.UserID,
		StoryID:   m.StoryID,
		Score:     m.Score,
		Completed: m.Completed,
		StartTime: m.StartTime.UTC(),
		EndTime:   utcPtr(m.EndTime),
	}
}

type inviteModel struct {
	bun.BaseModel `bun:"table:game_invites,alias:gi"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Token     string    `bun:"token,notnull"`
	InviterID int64     `bun:"inviter_id,notnull"`
	StoryID   int64     `bun:"story_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

func (m inviteModel) toDomain() domain.GameInvite {
	return domain.GameInvite{
		ID:        m.ID,
		Token:     m.Token,
		InviterID: m.InviterID,
		StoryID:   m.StoryID,
		CreatedAt: m.CreatedAt.UTC(),
		ExpiresAt: m.ExpiresAt.UTC(),
	}
}

type animationModel struct {
	bun.BaseModel `bun:"table:animations,alias:an"`

	ID          int64     `bun:"id,pk,autoincrement"`
	StoryID     int64     `bun:"story_id,notnull"`
	Type        string    `bun:"animation_type,notnull"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	GifFile     string    `bun:"gif_file,notnull"`
	MP4File     string    `bun:"mp4_file,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (m animationModel) toDomain() domain.Animation {
	return domain.Animation{
		ID:          m.ID,
		StoryID:     m.StoryID,
		Type:        domain.AnimationType(m.Type),
		Title:       m.Title,
		Description: m.Description,
		GifFile:     m.GifFile,
		MP4File:     m.MP4File,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
