package http

import (
	"context"
	"net/http"
	"strconv"

	"truthquest-service/internal/app"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler streams live leaderboard snapshots for a story.
type WSHandler struct {
	scores   *app.ScoreService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(scores *app.ScoreService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		scores: scores,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.Named("ws"),
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes a snapshot after every score
// submission for the story. Inbound frames are read only to notice the close.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	storyID, err := strconv.ParseInt(r.URL.Query().Get("story_id"), 10, 64)
	if err != nil || storyID <= 0 {
		http.Error(w, "missing or invalid story_id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// the request context is not cancelled when a hijacked connection closes
	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	updates, cancel, err := h.scores.Subscribe(ctx, storyID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	h.logger.Debug("leaderboard subscriber joined", zap.Int64("storyID", storyID))

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: update}); err != nil {
					h.logger.Debug("ws write failed", zap.Error(err))
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	stop()
	<-writerDone
	h.logger.Debug("leaderboard subscriber left", zap.Int64("storyID", storyID))
}
