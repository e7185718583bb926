package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaderboardMessage struct {
	Type    string `json:"type"`
	Payload struct {
		Story   int64 `json:"story"`
		Entries []struct {
			Username string `json:"username"`
			Score    int    `json:"score"`
		} `json:"entries"`
	} `json:"payload"`
}

func TestLeaderboardFeedStreamsSubmittedScores(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard?story_id=1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readLeaderboard(t, conn)
	assert.Equal(t, "leaderboard", initial.Type)
	assert.Equal(t, int64(1), initial.Payload.Story)
	assert.Empty(t, initial.Payload.Entries)

	rec := s.do(t, http.MethodPost, "/leaderboard/", &alice, map[string]any{"story_id": 1, "score": 40})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/leaderboard/", &bob, map[string]any{"story_id": 1, "score": 60})
	require.Equal(t, http.StatusCreated, rec.Code)

	// snapshots may be coalesced for slow readers; wait for the one with both players
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msg := readLeaderboard(t, conn)
		if len(msg.Payload.Entries) < 2 {
			continue
		}
		assert.Equal(t, "bob", msg.Payload.Entries[0].Username)
		assert.Equal(t, 60, msg.Payload.Entries[0].Score)
		assert.Equal(t, "alice", msg.Payload.Entries[1].Username)
		return
	}
	t.Fatal("no snapshot with both entries received")
}

func TestLeaderboardFeedRejectsBadStory(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard"
	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?story_id=42", nil)
	require.NoError(t, err)
	defer conn.Close()
	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Message string `json:"message"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Payload.Message, "not found")
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) leaderboardMessage {
	t.Helper()
	var msg leaderboardMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}
