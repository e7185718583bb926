package domain

import (
	"encoding/json"
	"time"
)

// AnimationType is the game event an animation is played for.
type AnimationType string

const (
	AnimationCorrect       AnimationType = "correct"
	AnimationPartial       AnimationType = "partial"
	AnimationIncorrect     AnimationType = "incorrect"
	AnimationGameOver      AnimationType = "gameover"
	AnimationLevelComplete AnimationType = "levelcomplete"
	AnimationGameComplete  AnimationType = "gamecomplete"
)

// ParseAnimationType validates a raw type name.
func ParseAnimationType(raw string) (AnimationType, error) {
	switch t := AnimationType(raw); t {
	case AnimationCorrect, AnimationPartial, AnimationIncorrect,
		AnimationGameOver, AnimationLevelComplete, AnimationGameComplete:
		return t, nil
	}
	return "", Invalidf("unknown animation type %q", raw)
}

// Animation is the presentation asset for one (story, type) pair.
// Exactly one of GifFile and MP4File is set.
type Animation struct {
	ID          int64         `json:"id"`
	StoryID     int64         `json:"story"`
	Type        AnimationType `json:"animation_type"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	GifFile     string        `json:"gif_file,omitempty"`
	MP4File     string        `json:"mp4_file,omitempty"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate enforces the single-asset rule before an animation is stored.
func (a Animation) Validate() error {
	if a.StoryID <= 0 {
		return Invalidf("story is required")
	}
	if _, err := ParseAnimationType(string(a.Type)); err != nil {
		return err
	}
	if a.GifFile == "" && a.MP4File == "" {
		return Invalidf("either a GIF or an MP4 file must be provided")
	}
	if a.GifFile != "" && a.MP4File != "" {
		return Invalidf("only one of GIF or MP4 file may be provided, not both")
	}
	return nil
}

// FileType is "gif" or "mp4" depending on which asset is set.
func (a Animation) FileType() string {
	if a.GifFile != "" {
		return "gif"
	}
	return "mp4"
}

// FileURL returns the populated asset.
func (a Animation) FileURL() string {
	if a.GifFile != "" {
		return a.GifFile
	}
	return a.MP4File
}

func (a Animation) MarshalJSON() ([]byte, error) {
	type plain Animation
	return json.Marshal(struct {
		plain
		FileType string `json:"file_type"`
		FileURL  string `json:"file_url"`
	}{plain(a), a.FileType(), a.FileURL()})
}
