package domain

import (
	"encoding/json"
	"time"
)

// LeaderboardEntry holds the last submitted score of a user for a story.
type LeaderboardEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Username  string    `json:"username"`
	StoryID   int64     `json:"story"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// TopScore is one row of the cross-story ranking.
type TopScore struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Leaderboard is the ordered snapshot pushed to live subscribers of a story.
type Leaderboard struct {
	StoryID   int64              `json:"story"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// UserProgress is the saved position of a user within a story. It is stored as
// given: the values are not checked against content.
type UserProgress struct {
	UserID        int64           `json:"user"`
	StoryID       int64           `json:"story"`
	Level         int             `json:"level"`
	Score         int             `json:"score"`
	Lives         int             `json:"lives"`
	ScenarioIndex int             `json:"scenario_index"`
	StateData     json.RawMessage `json:"state_data"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
