package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"truthquest-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// Handler serves the REST endpoints on top of the app services.
type Handler struct {
	services Services
}

// flexInt accepts either a JSON number or a numeric string.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Invalidf("expected an integer, got %s", string(b))
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return domain.Invalidf("expected an integer, got %q", s)
	}
	f.Value, f.Set = n, true
	return nil
}

// flexInt32 is a flexInt bound for an integer column; wider values are a
// client error rather than a storage failure.
type flexInt32 struct{ flexInt }

func (f *flexInt32) UnmarshalJSON(b []byte) error {
	if err := f.flexInt.UnmarshalJSON(b); err != nil {
		return err
	}
	if f.Value < math.MinInt32 || f.Value > math.MaxInt32 {
		return domain.Invalidf("integer %d is out of range", f.Value)
	}
	return nil
}

func (f flexInt) intPtr() *int {
	if !f.Set {
		return nil
	}
	v := int(f.Value)
	return &v
}

func (f flexInt) int64Ptr() *int64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// bindJSON decodes the body; every decode failure is a client error.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			err = domain.Invalidf("invalid request body: %v", err)
		}
		respondError(c, err)
		return false
	}
	return true
}

func queryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, domain.Invalidf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalidf("%s must be an integer", name)
	}
	return id, nil
}

// pathID parses a path parameter; anything non-numeric cannot name an entity.
func pathID(c *gin.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

// content

func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.services.Content.ListStories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrStoryNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	story, err := h.services.Content.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) listLevels(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrStoryNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	levels, err := h.services.Content.ListLevels(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

func (h *Handler) listScenarios(c *gin.Context) {
	storyID, err := pathID(c, "id", domain.ErrStoryNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	levelID, err := pathID(c, "level_id", domain.ErrLevelNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	scenarios, err := h.services.Content.ListScenarios(c.Request.Context(), storyID, levelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

func (h *Handler) listActions(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrScenarioNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	actions, err := h.services.Content.ListActions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// leaderboard

type submitScoreRequest struct {
	StoryID flexInt   `json:"story_id"`
	Score   flexInt32 `json:"score"`
}

func (h *Handler) submitScore(c *gin.Context) {
	var req submitScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.StoryID.Set {
		respondError(c, domain.Invalidf("story_id is required"))
		return
	}
	if !req.Score.Set {
		respondError(c, domain.Invalidf("score is required"))
		return
	}
	entry, err := h.services.Scores.Submit(c.Request.Context(), currentUser(c), req.StoryID.Value, int(req.Score.Value))
	if err != nil {
		respondError(c, err)
		return
	}
	scoresSubmittedTotal.Inc()
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) listLeaderboard(c *gin.Context) {
	storyID, err := queryID(c, "story_id")
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := h.services.Scores.Leaderboard(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) topScores(c *gin.Context) {
	scores, err := h.services.Scores.TopScores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

// progress

type saveProgressRequest struct {
	StoryID       flexInt         `json:"story_id"`
	Level         flexInt32       `json:"level"`
	Score         flexInt32       `json:"score"`
	Lives         flexInt32       `json:"lives"`
	ScenarioIndex flexInt32       `json:"scenario_index"`
	StateData     json.RawMessage `json:"state_data"`
}

func (r saveProgressRequest) toDomain() domain.UserProgress {
	p := domain.UserProgress{
		StoryID:       r.StoryID.Value,
		Level:         1,
		Score:         int(r.Score.Value),
		Lives:         3,
		ScenarioIndex: int(r.ScenarioIndex.Value),
		StateData:     r.StateData,
	}
	if r.Level.Set {
		p.Level = int(r.Level.Value)
	}
	if r.Lives.Set {
		p.Lives = int(r.Lives.Value)
	}
	return p
}

func (h *Handler) saveProgress(c *gin.Context) {
	var req saveProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.StoryID.Set {
		respondError(c, domain.Invalidf("story_id is required"))
		return
	}
	progress, created, err := h.services.Progress.Save(c.Request.Context(), currentUser(c), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, progress)
}

func (h *Handler) getProgress(c *gin.Context) {
	storyID, err := queryID(c, "story_id")
	if err != nil {
		respondError(c, err)
		return
	}
	progress, err := h.services.Progress.Get(c.Request.Context(), currentUser(c), storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// power-ups

type grantResponse struct {
	ID                 int64          `json:"id"`
	PowerUp            domain.PowerUp `json:"power_up"`
	GameSession        *int64         `json:"game_session"`
	EarnedAtLevel      *int           `json:"earned_at_level"`
	EarnedAtScenario   *int           `json:"earned_at_scenario"`
	CorrectAnswerCount int            `json:"correct_answer_count"`
	EarnedAt           time.Time      `json:"earned_at"`
	IsActive           bool           `json:"is_active"`
	UsedAt             *time.Time     `json:"used_at"`
}

func newGrantResponse(g domain.UserPowerUp) grantResponse {
	resp := grantResponse{
		ID:                 g.ID,
		PowerUp:            g.PowerUp,
		GameSession:        g.GameSessionID,
		EarnedAtLevel:      g.EarnedAtLevel,
		EarnedAtScenario:   g.EarnedAtScenario,
		CorrectAnswerCount: g.CorrectAnswerCount,
		EarnedAt:           g.EarnedAt,
		IsActive:           g.IsActive(),
	}
	if at, ok := g.UsedAt(); ok {
		resp.UsedAt = &at
	}
	return resp
}

type earnRequest struct {
	StoryID            flexInt   `json:"story_id"`
	PowerUpID          flexInt   `json:"power_up_id"`
	CorrectAnswerCount flexInt32 `json:"correct_answer_count"`
	Level              flexInt32 `json:"level"`
	Scenario           flexInt32 `json:"scenario"`
	GameSessionID      flexInt   `json:"game_session_id"`
}

func (h *Handler) earnPowerUp(c *gin.Context) {
	var req earnRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.CorrectAnswerCount.Set {
		respondError(c, domain.Invalidf("correct_answer_count is required"))
		return
	}
	grant, err := h.services.PowerUps.Earn(c.Request.Context(), currentUser(c), domain.EarnRequest{
		StoryID:            req.StoryID.Value,
		PowerUpID:          req.PowerUpID.Value,
		CorrectAnswerCount: int(req.CorrectAnswerCount.Value),
		Level:              req.Level.intPtr(),
		Scenario:           req.Scenario.intPtr(),
		GameSessionID:      req.GameSessionID.int64Ptr(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	powerUpsEarnedTotal.WithLabelValues(string(grant.PowerUp.Type)).Inc()
	c.JSON(http.StatusCreated, newGrantResponse(grant))
}

func (h *Handler) usePowerUp(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrGrantNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	effects, grant, err := h.services.PowerUps.Use(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	powerUpsUsedTotal.WithLabelValues(string(effects.Type)).Inc()
	c.JSON(http.StatusOK, gin.H{"effects": effects, "user_power_up": newGrantResponse(grant)})
}

func (h *Handler) activePowerUps(c *gin.Context) {
	var storyID *int64
	if c.Query("story_id") != "" {
		id, err := queryID(c, "story_id")
		if err != nil {
			respondError(c, err)
			return
		}
		storyID = &id
	}
	grants, err := h.services.PowerUps.ListActive(c.Request.Context(), currentUser(c), storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, newGrantResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) listPowerUps(c *gin.Context) {
	id, err := pathID(c, "story_id", domain.ErrStoryNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	powerUps, err := h.services.PowerUps.ListForStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, powerUps)
}

// sessions

type storyRequest struct {
	StoryID flexInt `json:"story_id"`
}

func (h *Handler) startSession(c *gin.Context) {
	var req storyRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.services.Sessions.Start(c.Request.Context(), currentUser(c), req.StoryID.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.services.Sessions.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) getSession(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrGameSessionNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	session, err := h.services.Sessions.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type completeSessionRequest struct {
	Score flexInt32 `json:"score"`
}

func (h *Handler) completeSession(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrGameSessionNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	var req completeSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Score.Set {
		respondError(c, domain.Invalidf("score is required"))
		return
	}
	session, err := h.services.Sessions.Complete(c.Request.Context(), currentUser(c), id, int(req.Score.Value))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// invites

func (h *Handler) createInvite(c *gin.Context) {
	var req storyRequest
	if !bindJSON(c, &req) {
		return
	}
	invite, err := h.services.Invites.Create(c.Request.Context(), currentUser(c), req.StoryID.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	invitesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, invite)
}

func (h *Handler) listInvites(c *gin.Context) {
	invites, err := h.services.Invites.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

func (h *Handler) inviterScore(c *gin.Context) {
	score, err := h.services.Invites.InviterScore(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// animations

func (h *Handler) animationByType(c *gin.Context) {
	storyID, err := queryID(c, "story_id")
	if err != nil {
		respondError(c, err)
		return
	}
	animation, err := h.services.Animations.Resolve(c.Request.Context(), storyID, c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, animation)
}

func (h *Handler) listAnimations(c *gin.Context) {
	storyID, err := queryID(c, "story_id")
	if err != nil {
		respondError(c, err)
		return
	}
	animations, err := h.services.Animations.List(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, animations)
}

// profiles and badges

func (h *Handler) myProfile(c *gin.Context) {
	profile, err := h.services.Profiles.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) listBadges(c *gin.Context) {
	badges, err := h.services.Profiles.Badges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

func (h *Handler) awardBadge(c *gin.Context) {
	id, err := pathID(c, "id", domain.ErrBadgeNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	profile, err := h.services.Profiles.AwardBadge(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
