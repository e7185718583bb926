package redis

import (
	"context"
	"strconv"
	"time"

	"truthquest-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
)

// HubStore keeps hubs in process and mirrors a liveness marker per story into
// Redis so other instances can tell which leaderboards have live viewers.
type HubStore struct {
	*memory.HubStore
	client *redis.Client
	ttl    time.Duration
}

func NewHubStore(client *redis.Client, ttl time.Duration) *HubStore {
	s := &HubStore{client: client, ttl: ttl}
	s.HubStore = memory.NewHubStoreWithHooks(s.markLive, s.clearLive)
	return s
}

// markers are best effort; a lost write only hides a viewer from other instances
func (s *HubStore) markLive(storyID int64) {
	_ = s.client.Set(context.Background(), s.key(storyID), "1", s.ttl).Err()
}

func (s *HubStore) clearLive(storyID int64) {
	_ = s.client.Del(context.Background(), s.key(storyID)).Err()
}

func (s *HubStore) key(storyID int64) string {
	return "leaderboard:hub:" + strconv.FormatInt(storyID, 10)
}
