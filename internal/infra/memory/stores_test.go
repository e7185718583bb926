package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"truthquest-service/internal/domain"
)

func TestHubStoreLifecycle(t *testing.T) {
	var opened, closed []int64
	store := NewHubStoreWithHooks(
		func(id int64) { opened = append(opened, id) },
		func(id int64) { closed = append(closed, id) },
	)

	_, first := store.Subscribe(1, nil)
	hub, ok := store.Get(1)
	if !ok {
		t.Fatalf("expected hub present")
	}
	_, second := store.Subscribe(1, nil)
	if again, _ := store.Get(1); again != hub {
		t.Fatalf("expected same hub for story")
	}

	first()
	first()
	if _, ok := store.Get(1); !ok {
		t.Fatalf("expected hub kept while a subscriber remains")
	}

	second()
	if _, ok := store.Get(1); ok {
		t.Fatalf("expected hub removed when empty")
	}
	if len(opened) != 1 || len(closed) != 1 {
		t.Fatalf("expected one open and one close, got %v / %v", opened, closed)
	}
}

func TestHubStoreChurnKeepsLiveSubscriberAttached(t *testing.T) {
	store := NewHubStore()
	kept, cancel := store.Subscribe(1, nil)
	defer cancel()
	<-kept

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, leave := store.Subscribe(1, nil)
				leave()
			}
		}()
	}
	wg.Wait()

	hub, ok := store.Get(1)
	if !ok {
		t.Fatalf("expected hub kept while a subscriber remains")
	}
	hub.Publish([]domain.LeaderboardEntry{{UserID: 1, Username: "ana", StoryID: 1, Score: 10}})
	select {
	case lb := <-kept:
		if len(lb.Entries) != 1 || lb.Entries[0].Score != 10 {
			t.Fatalf("unexpected snapshot %+v", lb)
		}
	case <-time.After(time.Second):
		t.Fatalf("kept subscriber missed the publish")
	}
}

func TestLeaderboardStoreKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, _ := store.Upsert(ctx, domain.LeaderboardEntry{UserID: 1, Username: "ana", StoryID: 5, Score: 50, CreatedAt: t0, UpdatedAt: t0})
	second, _ := store.Upsert(ctx, domain.LeaderboardEntry{UserID: 1, Username: "ana", StoryID: 5, Score: 30, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour)})

	if second.ID != first.ID {
		t.Fatalf("expected same row, got ids %d and %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(t0) || second.Score != 30 {
		t.Fatalf("unexpected entry %+v", second)
	}

	_, _ = store.Upsert(ctx, domain.LeaderboardEntry{UserID: 1, Username: "ana", StoryID: 6, Score: 40})
	_, _ = store.Upsert(ctx, domain.LeaderboardEntry{UserID: 2, Username: "ben", StoryID: 5, Score: 35})
	top, _ := store.TopScores(ctx)
	if len(top) != 2 || top[0] != (domain.TopScore{Username: "ana", Score: 40}) || top[1].Username != "ben" {
		t.Fatalf("unexpected top scores %+v", top)
	}
}

func TestPowerUpStoreRedeemHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := NewPowerUpStore()
	def, _ := store.SavePowerUp(ctx, domain.PowerUp{StoryID: 1, Name: "Hint", Type: domain.PowerUpHint, IsActive: true})
	grant, err := store.CreateGrant(ctx, domain.UserPowerUp{UserID: 7, PowerUp: def})
	if err != nil {
		t.Fatalf("create grant: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		lost int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RedeemGrant(ctx, 7, grant.ID, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrPowerUpAlreadyUsed):
				lost++
			}
		}()
	}
	wg.Wait()
	if wins != 1 || lost != 15 {
		t.Fatalf("expected 1 win and 15 losses, got %d/%d", wins, lost)
	}

	active, _ := store.ListActiveGrants(ctx, 7, nil)
	if len(active) != 0 {
		t.Fatalf("expected no active grants, got %d", len(active))
	}
}

func TestPowerUpStoreRedeemChecksOwner(t *testing.T) {
	ctx := context.Background()
	store := NewPowerUpStore()
	def, _ := store.SavePowerUp(ctx, domain.PowerUp{StoryID: 1, Name: "Hint", Type: domain.PowerUpHint, IsActive: true})
	grant, _ := store.CreateGrant(ctx, domain.UserPowerUp{UserID: 7, PowerUp: def})

	if _, err := store.RedeemGrant(ctx, 8, grant.ID, time.Now()); !errors.Is(err, domain.ErrGrantNotFound) {
		t.Fatalf("expected grant not found for other user, got %v", err)
	}
	if _, err := store.RedeemGrant(ctx, 7, grant.ID, time.Now()); err != nil {
		t.Fatalf("owner redeem: %v", err)
	}
}

func TestSavePowerUpMatchesByName(t *testing.T) {
	ctx := context.Background()
	store := NewPowerUpStore()
	first, _ := store.SavePowerUp(ctx, domain.PowerUp{StoryID: 1, Name: "Hint", RequiredCorrectAnswers: 6, IsActive: true})
	second, _ := store.SavePowerUp(ctx, domain.PowerUp{StoryID: 1, Name: "Hint", RequiredCorrectAnswers: 4, IsActive: true})
	if first.ID != second.ID {
		t.Fatalf("expected update in place, got ids %d and %d", first.ID, second.ID)
	}
	list, _ := store.ListPowerUps(ctx, 1)
	if len(list) != 1 || list[0].RequiredCorrectAnswers != 4 {
		t.Fatalf("unexpected definitions %+v", list)
	}
}

func TestAnimationStoreReplacesPerType(t *testing.T) {
	ctx := context.Background()
	store := NewAnimationStore()
	a, err := store.Save(ctx, domain.Animation{StoryID: 1, Type: domain.AnimationCorrect, Title: "yay", GifFile: "a.gif", IsActive: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := store.Save(ctx, domain.Animation{StoryID: 1, Type: domain.AnimationCorrect, Title: "yay 2", MP4File: "b.mp4", IsActive: true})
	if err != nil {
		t.Fatalf("save 2: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected replacement, got ids %d and %d", a.ID, b.ID)
	}
	got, err := store.FindActive(ctx, 1, domain.AnimationCorrect)
	if err != nil || got.MP4File != "b.mp4" {
		t.Fatalf("unexpected animation %+v, %v", got, err)
	}
	if _, err := store.Save(ctx, domain.Animation{StoryID: 1, Type: domain.AnimationIncorrect, GifFile: "x.gif", MP4File: "x.mp4"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
