package domain

import (
	"strconv"
	"time"
)

// User is the authenticated identity handed over by the auth layer.
type User struct {
	ID       int64
	Username string
}

// Badge is an achievement a profile can hold.
type Badge struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// HighScores maps a story id (decimal string) to the best score seen for it.
type HighScores map[string]int

// StoryKey is the key a story's best score is stored under.
func StoryKey(storyID int64) string {
	return strconv.FormatInt(storyID, 10)
}

// Best returns the recorded best for a story, 0 when absent.
func (h HighScores) Best(storyID int64) int {
	return h[StoryKey(storyID)]
}

// Raise stores score if it beats the current best and reports whether it did.
func (h HighScores) Raise(storyID int64, score int) bool {
	if score <= h.Best(storyID) {
		return false
	}
	h[StoryKey(storyID)] = score
	return true
}

// Clone copies the map so callers can hand it out without sharing state.
func (h HighScores) Clone() HighScores {
	out := make(HighScores, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Profile is the per-user aggregate holding the personal bests and badges.
type Profile struct {
	UserID     int64      `json:"id"`
	Username   string     `json:"username"`
	HighScores HighScores `json:"high_scores"`
	Badges     []Badge    `json:"badges"`
	CreatedAt  time.Time  `json:"created_at"`
}
