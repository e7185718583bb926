package domain

import "time"

// PowerUpType selects which effect a power-up grants.
type PowerUpType string

const (
	PowerUpExtraLife     PowerUpType = "extra_life"
	PowerUpScoreBoost    PowerUpType = "score_boost"
	PowerUpTimeExtension PowerUpType = "time_extension"
	PowerUpHint          PowerUpType = "hint"
)

// Valid reports whether t is one of the known types.
func (t PowerUpType) Valid() bool {
	switch t {
	case PowerUpExtraLife, PowerUpScoreBoost, PowerUpTimeExtension, PowerUpHint:
		return true
	}
	return false
}

// PowerUp is the authored definition of a reward within a story.
type PowerUp struct {
	ID                     int64       `json:"id"`
	StoryID                int64       `json:"story"`
	Name                   string      `json:"name"`
	Description            string      `json:"description"`
	Image                  string      `json:"image,omitempty"`
	Type                   PowerUpType `json:"power_up_type"`
	RequiredCorrectAnswers int         `json:"required_correct_answers"`
	BonusLives             int         `json:"bonus_lives"`
	ScoreMultiplier        float64     `json:"score_multiplier"`
	TimeExtensionSeconds   int         `json:"time_extension_seconds"`
	IsActive               bool        `json:"is_active"`
}

// Eligible reports whether correct answers meet the threshold.
func (p PowerUp) Eligible(correctAnswers int) bool {
	return correctAnswers >= p.RequiredCorrectAnswers
}

// Effects is the payload a client applies after redeeming a grant.
type Effects struct {
	Type                 PowerUpType `json:"type"`
	BonusLives           int         `json:"bonus_lives"`
	ScoreMultiplier      float64     `json:"score_multiplier"`
	TimeExtensionSeconds int         `json:"time_extension_seconds"`
}

// Effects returns the effect magnitudes of the definition.
func (p PowerUp) Effects() Effects {
	return Effects{
		Type:                 p.Type,
		BonusLives:           p.BonusLives,
		ScoreMultiplier:      p.ScoreMultiplier,
		TimeExtensionSeconds: p.TimeExtensionSeconds,
	}
}

// GrantState is either Active or Used. Used is terminal.
type GrantState interface {
	grantState()
}

// Active marks a grant that has not been redeemed yet.
type Active struct{}

// Used marks a redeemed grant.
type Used struct {
	At time.Time
	By int64
}

func (Active) grantState() {}
func (Used) grantState()   {}

// UserPowerUp is a power-up granted to a user.
type UserPowerUp struct {
	ID                 int64
	UserID             int64
	PowerUp            PowerUp
	GameSessionID      *int64
	EarnedAtLevel      *int
	EarnedAtScenario   *int
	CorrectAnswerCount int
	EarnedAt           time.Time
	State              GrantState
}

// IsActive reports whether the grant can still be redeemed.
func (g UserPowerUp) IsActive() bool {
	_, ok := g.State.(Used)
	return !ok
}

// UsedAt returns the redemption time of a used grant.
func (g UserPowerUp) UsedAt() (time.Time, bool) {
	if u, ok := g.State.(Used); ok {
		return u.At, true
	}
	return time.Time{}, false
}

// Redeem moves the grant from Active to Used.
func (g *UserPowerUp) Redeem(at time.Time) error {
	if !g.IsActive() {
		return ErrPowerUpAlreadyUsed
	}
	g.State = Used{At: at, By: g.UserID}
	return nil
}

// GrantStateFromColumns rebuilds the state from the stored used_at column.
func GrantStateFromColumns(userID int64, usedAt *time.Time) GrantState {
	if usedAt == nil {
		return Active{}
	}
	return Used{At: *usedAt, By: userID}
}

// EarnRequest carries the context a grant is earned in.
type EarnRequest struct {
	StoryID            int64
	PowerUpID          int64
	CorrectAnswerCount int
	Level              *int
	Scenario           *int
	GameSessionID      *int64
}
