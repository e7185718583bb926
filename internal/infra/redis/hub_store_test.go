package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewHubStore(client, time.Minute)

	_, first := store.Subscribe(7, nil)
	_, second := store.Subscribe(7, nil)
	if !mr.Exists("leaderboard:hub:7") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("leaderboard:hub:7"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	first()
	if !mr.Exists("leaderboard:hub:7") {
		t.Fatalf("expected redis key to survive while a viewer remains")
	}
	if _, ok := store.Get(7); !ok {
		t.Fatalf("expected hub to survive while a viewer remains")
	}

	second()
	if mr.Exists("leaderboard:hub:7") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(7); ok {
		t.Fatalf("expected hub to be dropped")
	}
}
