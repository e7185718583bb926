package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

type userStory struct {
	userID  int64
	storyID int64
}

// ProgressStore is an in-memory app.ProgressRepository.
type ProgressStore struct {
	mu   sync.Mutex
	rows map[userStory]domain.UserProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{rows: make(map[userStory]domain.UserProgress)}
}

func (s *ProgressStore) Upsert(_ context.Context, p domain.UserProgress) (domain.UserProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userStory{p.UserID, p.StoryID}
	existing, ok := s.rows[key]
	if ok {
		p.CreatedAt = existing.CreatedAt
	}
	s.rows[key] = p
	return p, !ok, nil
}

func (s *ProgressStore) Get(_ context.Context, userID, storyID int64) (domain.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[userStory{userID, storyID}]
	if !ok {
		return domain.UserProgress{}, domain.ErrProgressNotFound
	}
	return p, nil
}

// LeaderboardStore is an in-memory app.LeaderboardRepository.
type LeaderboardStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[userStory]domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{rows: make(map[userStory]domain.LeaderboardEntry)}
}

func (s *LeaderboardStore) Upsert(_ context.Context, e domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userStory{e.UserID, e.StoryID}
	if existing, ok := s.rows[key]; ok {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		e.ID = s.nextID
	}
	s.rows[key] = e
	return e, nil
}

// ListByStory returns the story's entries, highest score first.
func (s *LeaderboardStore) ListByStory(_ context.Context, storyID int64) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	out := make([]domain.LeaderboardEntry, 0)
	for key, e := range s.rows {
		if key.storyID == storyID {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// TopScores ranks users by their highest entry over all stories.
func (s *LeaderboardStore) TopScores(_ context.Context) ([]domain.TopScore, error) {
	s.mu.Lock()
	best := make(map[int64]domain.TopScore)
	for key, e := range s.rows {
		if cur, ok := best[key.userID]; !ok || e.Score > cur.Score {
			best[key.userID] = domain.TopScore{Username: e.Username, Score: e.Score}
		}
	}
	s.mu.Unlock()

	out := make([]domain.TopScore, 0, len(best))
	for _, ts := range best {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// ProfileStore is an in-memory app.ProfileRepository with a fixed badge catalog.
type ProfileStore struct {
	mu       sync.Mutex
	clock    func() time.Time
	profiles map[int64]*domain.Profile
	badges   map[int64]domain.Badge
}

func NewProfileStore(badges ...domain.Badge) *ProfileStore {
	catalog := make(map[int64]domain.Badge, len(badges))
	for _, b := range badges {
		catalog[b.ID] = b
	}
	return &ProfileStore{
		clock:    time.Now,
		profiles: make(map[int64]*domain.Profile),
		badges:   catalog,
	}
}

func (s *ProfileStore) Ensure(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[user.ID]; ok {
		return nil
	}
	s.profiles[user.ID] = &domain.Profile{
		UserID:     user.ID,
		Username:   user.Username,
		HighScores: domain.HighScores{},
		Badges:     []domain.Badge{},
		CreatedAt:  s.clock().UTC(),
	}
	return nil
}

func (s *ProfileStore) Get(_ context.Context, userID int64) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	out := *p
	out.HighScores = p.HighScores.Clone()
	out.Badges = append([]domain.Badge{}, p.Badges...)
	return out, nil
}

func (s *ProfileStore) RaiseHighScore(_ context.Context, userID, storyID int64, score int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return false, domain.ErrProfileNotFound
	}
	return p.HighScores.Raise(storyID, score), nil
}

func (s *ProfileStore) AddBadge(_ context.Context, userID, badgeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	badge, ok := s.badges[badgeID]
	if !ok {
		return domain.ErrBadgeNotFound
	}
	p, ok := s.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	for _, held := range p.Badges {
		if held.ID == badgeID {
			return nil
		}
	}
	p.Badges = append(p.Badges, badge)
	return nil
}

func (s *ProfileStore) ListBadges(_ context.Context) ([]domain.Badge, error) {
	s.mu.Lock()
	out := make([]domain.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, b)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
