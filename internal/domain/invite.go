package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteHorizon is how long an invite stays valid after creation.
const InviteHorizon = 7 * 24 * time.Hour

// GameInvite lets invitees compare against the inviter's best score.
type GameInvite struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	InviterID int64     `json:"inviter"`
	StoryID   int64     `json:"story"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewInvite builds an invite with a fresh random token.
func NewInvite(inviterID, storyID int64, now time.Time) GameInvite {
	now = now.UTC()
	return GameInvite{
		Token:     uuid.NewString(),
		InviterID: inviterID,
		StoryID:   storyID,
		CreatedAt: now,
		ExpiresAt: now.Add(InviteHorizon),
	}
}

// IsExpired reports whether now is past the expiry instant.
func (i GameInvite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InviterScore is what an invitee sees about the inviter.
type InviterScore struct {
	Username     string `json:"username"`
	HighestScore int    `json:"highest_score"`
}
