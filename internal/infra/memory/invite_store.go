package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

// InviteStore is an in-memory app.InviteRepository keyed by token.
type InviteStore struct {
	mu      sync.Mutex
	nextID  int64
	invites map[string]domain.GameInvite
}

func NewInviteStore() *InviteStore {
	return &InviteStore{invites: make(map[string]domain.GameInvite)}
}

func (s *InviteStore) Create(_ context.Context, invite domain.GameInvite) (domain.GameInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[invite.Token]; ok {
		return domain.GameInvite{}, domain.Invalidf("invite token already exists")
	}
	s.nextID++
	invite.ID = s.nextID
	s.invites[invite.Token] = invite
	return invite, nil
}

func (s *InviteStore) GetByToken(_ context.Context, token string) (domain.GameInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[token]
	if !ok {
		return domain.GameInvite{}, domain.ErrInviteNotFound
	}
	return invite, nil
}

func (s *InviteStore) ListByInviter(_ context.Context, inviterID int64, now time.Time) ([]domain.GameInvite, error) {
	s.mu.Lock()
	out := make([]domain.GameInvite, 0)
	for _, invite := range s.invites {
		if invite.InviterID == inviterID && !invite.IsExpired(now) {
			out = append(out, invite)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
