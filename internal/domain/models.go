package domain

import (
	"sort"
	"time"
)

// Story is the root of the authored content tree.
type Story struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverImage  string  `json:"cover_image,omitempty"`
	Levels      []Level `json:"levels,omitempty"`
}

// Level belongs to a story; Order is unique within the story.
type Level struct {
	ID        int64      `json:"id"`
	StoryID   int64      `json:"story"`
	Title     string     `json:"title"`
	Prompt    string     `json:"prompt"`
	Image     string     `json:"image,omitempty"`
	Order     int        `json:"order"`
	Scenarios []Scenario `json:"scenarios,omitempty"`
}

// Scenario belongs to a level. StoryID is carried for filtering only; the level
// decides where a scenario is played.
type Scenario struct {
	ID          int64    `json:"id"`
	StoryID     int64    `json:"story"`
	LevelID     int64    `json:"level"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	Order       int      `json:"order"`
	Actions     []Action `json:"actions,omitempty"`
}

// Action is a choice offered in a scenario. ScenarioID is nil for detached actions.
type Action struct {
	ID         int64    `json:"id"`
	ScenarioID *int64   `json:"scenario"`
	Text       string   `json:"text"`
	IsCorrect  bool     `json:"is_correct"`
	Points     int      `json:"points"`
	Outcome    *Outcome `json:"outcome,omitempty"`
}

// Outcome is the text revealed after an action is chosen.
type Outcome struct {
	ID        int64     `json:"id"`
	ActionID  *int64    `json:"action"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Level returns the level with the given id.
func (s Story) Level(levelID int64) (Level, bool) {
	for _, l := range s.Levels {
		if l.ID == levelID {
			return l, true
		}
	}
	return Level{}, false
}

// Summary strips the nested content tree.
func (s Story) Summary() Story {
	s.Levels = nil
	return s
}

// Sort orders levels and their scenarios by Order, keeping ids as a tie-breaker
// so the sequence is stable for equal orders.
func (s *Story) Sort() {
	sort.SliceStable(s.Levels, func(i, j int) bool {
		if s.Levels[i].Order != s.Levels[j].Order {
			return s.Levels[i].Order < s.Levels[j].Order
		}
		return s.Levels[i].ID < s.Levels[j].ID
	})
	for i := range s.Levels {
		scenarios := s.Levels[i].Scenarios
		sort.SliceStable(scenarios, func(a, b int) bool {
			if scenarios[a].Order != scenarios[b].Order {
				return scenarios[a].Order < scenarios[b].Order
			}
			return scenarios[a].ID < scenarios[b].ID
		})
	}
}

// GameSession is one play-through of a story.
type GameSession struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user"`
	StoryID   int64      `json:"story"`
	Score     int        `json:"score"`
	Completed bool       `json:"completed"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}
