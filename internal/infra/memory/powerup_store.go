package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

// PowerUpStore is an in-memory app.PowerUpRepository. Redemption runs under
// the store mutex, so concurrent redeems of one grant see a single winner.
type PowerUpStore struct {
	mu          sync.Mutex
	nextPowerUp int64
	nextGrant   int64
	powerUps    map[int64]domain.PowerUp
	grants      map[int64]*domain.UserPowerUp
}

func NewPowerUpStore() *PowerUpStore {
	return &PowerUpStore{
		powerUps: make(map[int64]domain.PowerUp),
		grants:   make(map[int64]*domain.UserPowerUp),
	}
}

func (s *PowerUpStore) GetPowerUp(_ context.Context, powerUpID int64) (domain.PowerUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.powerUps[powerUpID]
	if !ok {
		return domain.PowerUp{}, domain.ErrPowerUpNotFound
	}
	return p, nil
}

func (s *PowerUpStore) ListPowerUps(_ context.Context, storyID int64) ([]domain.PowerUp, error) {
	s.mu.Lock()
	out := make([]domain.PowerUp, 0)
	for _, p := range s.powerUps {
		if p.StoryID == storyID && p.IsActive {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SavePowerUp inserts a definition or updates the one with the same story and name.
func (s *PowerUpStore) SavePowerUp(_ context.Context, p domain.PowerUp) (domain.PowerUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.powerUps {
		if existing.StoryID == p.StoryID && existing.Name == p.Name {
			p.ID = id
			s.powerUps[id] = p
			return p, nil
		}
	}
	s.nextPowerUp++
	p.ID = s.nextPowerUp
	s.powerUps[p.ID] = p
	return p, nil
}

func (s *PowerUpStore) CreateGrant(_ context.Context, g domain.UserPowerUp) (domain.UserPowerUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.powerUps[g.PowerUp.ID]; !ok {
		return domain.UserPowerUp{}, domain.ErrPowerUpNotFound
	}
	s.nextGrant++
	g.ID = s.nextGrant
	if g.State == nil {
		g.State = domain.Active{}
	}
	stored := g
	s.grants[g.ID] = &stored
	return g, nil
}

func (s *PowerUpStore) RedeemGrant(_ context.Context, userID, grantID int64, at time.Time) (domain.UserPowerUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID]
	if !ok || g.UserID != userID {
		return domain.UserPowerUp{}, domain.ErrGrantNotFound
	}
	if err := g.Redeem(at); err != nil {
		return domain.UserPowerUp{}, err
	}
	return *g, nil
}

// ListActiveGrants returns the newest grants first.
func (s *PowerUpStore) ListActiveGrants(_ context.Context, userID int64, storyID *int64) ([]domain.UserPowerUp, error) {
	s.mu.Lock()
	out := make([]domain.UserPowerUp, 0)
	for _, g := range s.grants {
		if g.UserID != userID || !g.IsActive() {
			continue
		}
		if storyID != nil && g.PowerUp.StoryID != *storyID {
			continue
		}
		out = append(out, *g)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.After(out[j].EarnedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
