package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthquest-service/internal/domain"
)

// GameSessionStore is an in-memory app.GameSessionRepository.
type GameSessionStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]domain.GameSession
}

func NewGameSessionStore() *GameSessionStore {
	return &GameSessionStore{sessions: make(map[int64]domain.GameSession)}
}

func (s *GameSessionStore) Create(_ context.Context, session domain.GameSession) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	session.ID = s.nextID
	s.sessions[session.ID] = session
	return session, nil
}

func (s *GameSessionStore) Get(_ context.Context, sessionID int64) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.GameSession{}, domain.ErrGameSessionNotFound
	}
	return session, nil
}

func (s *GameSessionStore) Complete(_ context.Context, userID, sessionID int64, score int, at time.Time) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return domain.GameSession{}, domain.ErrGameSessionNotFound
	}
	session.Score = score
	session.Completed = true
	session.EndTime = &at
	s.sessions[sessionID] = session
	return session, nil
}

// ListByUser returns the most recently started sessions first.
func (s *GameSessionStore) ListByUser(_ context.Context, userID int64) ([]domain.GameSession, error) {
	s.mu.Lock()
	out := make([]domain.GameSession, 0)
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
