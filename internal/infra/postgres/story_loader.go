package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"truthquest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// StoryLoader reads the authored story tree with pgx. Content is read-only
// to this service.
type StoryLoader struct {
	pool *pgxpool.Pool
}

func NewStoryLoader(pool *pgxpool.Pool) *StoryLoader {
	return &StoryLoader{pool: pool}
}

func (l *StoryLoader) ListStories(ctx context.Context) ([]domain.Story, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, description, cover_image FROM stories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]domain.Story, 0)
	for rows.Next() {
		var s domain.Story
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CoverImage); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// FindStoryID resolves a story by its exact title.
func (l *StoryLoader) FindStoryID(ctx context.Context, title string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx, `SELECT id FROM stories WHERE title=$1 ORDER BY id LIMIT 1`, title).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrStoryNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find story: %w", err)
	}
	return id, nil
}

// LoadStory returns a story with levels, scenarios and actions in play order.
func (l *StoryLoader) LoadStory(ctx context.Context, storyID int64) (domain.Story, error) {
	var story domain.Story
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, description, cover_image FROM stories WHERE id=$1`, storyID,
	).Scan(&story.ID, &story.Title, &story.Description, &story.CoverImage)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Story{}, domain.ErrStoryNotFound
	}
	if err != nil {
		return domain.Story{}, fmt.Errorf("load story: %w", err)
	}

	levels, err := l.loadLevels(ctx, storyID)
	if err != nil {
		return domain.Story{}, err
	}
	scenarios, err := l.loadScenarios(ctx, `WHERE sc.story_id=$1`, storyID)
	if err != nil {
		return domain.Story{}, err
	}

	// scenarios are grouped under their level; the level decides placement
	byLevel := make(map[int64][]domain.Scenario, len(levels))
	for _, sc := range scenarios {
		byLevel[sc.LevelID] = append(byLevel[sc.LevelID], sc)
	}
	for i := range levels {
		levels[i].Scenarios = byLevel[levels[i].ID]
	}
	story.Levels = levels
	return story, nil
}

// LoadScenario returns one scenario with its actions and outcomes.
func (l *StoryLoader) LoadScenario(ctx context.Context, scenarioID int64) (domain.Scenario, error) {
	scenarios, err := l.loadScenarios(ctx, `WHERE sc.id=$1`, scenarioID)
	if err != nil {
		return domain.Scenario{}, err
	}
	if len(scenarios) == 0 {
		return domain.Scenario{}, domain.ErrScenarioNotFound
	}
	return scenarios[0], nil
}

func (l *StoryLoader) loadLevels(ctx context.Context, storyID int64) ([]domain.Level, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, story_id, title, prompt, image, "order" FROM levels WHERE story_id=$1 ORDER BY "order", id`, storyID)
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	defer rows.Close()

	levels := make([]domain.Level, 0)
	for rows.Next() {
		var lv domain.Level
		if err := rows.Scan(&lv.ID, &lv.StoryID, &lv.Title, &lv.Prompt, &lv.Image, &lv.Order); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		levels = append(levels, lv)
	}
	return levels, rows.Err()
}

func (l *StoryLoader) loadScenarios(ctx context.Context, where string, arg int64) ([]domain.Scenario, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT sc.id, sc.story_id, sc.level_id, sc.description, sc.image, sc."order"
		 FROM scenarios sc `+where+` ORDER BY sc.level_id, sc."order", sc.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	scenarios := make([]domain.Scenario, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var sc domain.Scenario
		if err := rows.Scan(&sc.ID, &sc.StoryID, &sc.LevelID, &sc.Description, &sc.Image, &sc.Order); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		scenarios = append(scenarios, sc)
		ids = append(ids, sc.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return scenarios, nil
	}

	actions, err := l.loadActions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range scenarios {
		scenarios[i].Actions = actions[scenarios[i].ID]
	}
	return scenarios, nil
}

func (l *StoryLoader) loadActions(ctx context.Context, scenarioIDs []int64) (map[int64][]domain.Action, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT a.id, a.scenario_id, a.text, a.is_correct, a.points, o.id, o.text, o.created_at
		 FROM actions a
		 LEFT JOIN outcomes o ON o.action_id = a.id
		 WHERE a.scenario_id = ANY($1)
		 ORDER BY a.id`, scenarioIDs)
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Action, len(scenarioIDs))
	for rows.Next() {
		var (
			a          domain.Action
			outcomeID  *int64
			outcomeTxt *string
			outcomeAt  *time.Time
		)
		if err := rows.Scan(&a.ID, &a.ScenarioID, &a.Text, &a.IsCorrect, &a.Points, &outcomeID, &outcomeTxt, &outcomeAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if outcomeID != nil {
			actionID := a.ID
			a.Outcome = &domain.Outcome{ID: *outcomeID, ActionID: &actionID}
			if outcomeTxt != nil {
				a.Outcome.Text = *outcomeTxt
			}
			if outcomeAt != nil {
				a.Outcome.CreatedAt = outcomeAt.UTC()
			}
		}
		if a.ScenarioID != nil {
			out[*a.ScenarioID] = append(out[*a.ScenarioID], a)
		}
	}
	return out, rows.Err()
}
