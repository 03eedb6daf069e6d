package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/cache"
	"github.com/SanjarHikmatov/unired-task/internal/testutil"
)

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestLookupCachesFoundCard(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	testutil.SeedCard(t, repo, testutil.SenderCard, testutil.SenderExpiry, "1500.5")
	store := &testutil.CountingCardStore{Store: repo}
	svc := NewCardService(store, cache.NewMemoryStore(time.Minute), 0, testutil.Logger())

	for i := 0; i < 3; i++ {
		info, err := svc.Lookup(ctx, testutil.SenderCard, testutil.SenderExpiry)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if info.MaskedCard != "860012******9012" {
			t.Errorf("masked card = %q", info.MaskedCard)
		}
		if info.Balance != "1500.50" || info.CardStatus != "active" || info.Phone != "+998901234567" {
			t.Errorf("unexpected info %+v", info)
		}
	}
	if store.Calls() != 1 {
		t.Errorf("store calls = %d, want 1", store.Calls())
	}
}

func TestLookupCachesNotFound(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	store := &testutil.CountingCardStore{Store: repo}
	svc := NewCardService(store, cache.NewMemoryStore(time.Minute), 0, testutil.Logger())

	for i := 0; i < 2; i++ {
		if _, err := svc.Lookup(ctx, "0000000000000000", "01/30"); !errors.Is(err, ErrCardNotFound) {
			t.Fatalf("call %d: expected ErrCardNotFound, got %v", i+1, err)
		}
	}
	if store.Calls() != 1 {
		t.Errorf("store calls = %d, want 1", store.Calls())
	}

	// a card added after the miss stays hidden until the entry expires
	testutil.SeedCard(t, repo, "0000000000000000", "01/30", "1")
	if _, err := svc.Lookup(ctx, "0000000000000000", "01/30"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected cached miss, got %v", err)
	}
}

func TestLookupKeyIncludesExpiry(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	testutil.SeedCard(t, repo, testutil.SenderCard, testutil.SenderExpiry, "1")
	store := &testutil.CountingCardStore{Store: repo}
	svc := NewCardService(store, cache.NewMemoryStore(time.Minute), 0, testutil.Logger())

	if _, err := svc.Lookup(ctx, testutil.SenderCard, "11/27"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound for wrong expiry, got %v", err)
	}
	if _, err := svc.Lookup(ctx, testutil.SenderCard, testutil.SenderExpiry); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if store.Calls() != 2 {
		t.Errorf("store calls = %d, want 2", store.Calls())
	}
}

func TestLookupEntryExpires(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	store := &testutil.CountingCardStore{Store: repo}
	svc := NewCardService(store, cache.NewMemoryStore(time.Minute), 20*time.Millisecond, testutil.Logger())

	svc.Lookup(ctx, testutil.SenderCard, testutil.SenderExpiry)
	time.Sleep(50 * time.Millisecond)
	svc.Lookup(ctx, testutil.SenderCard, testutil.SenderExpiry)

	if store.Calls() != 2 {
		t.Errorf("store calls = %d, want 2 after expiry", store.Calls())
	}
}

func TestLookupSurvivesCacheFailure(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	testutil.SeedCard(t, repo, testutil.SenderCard, testutil.SenderExpiry, "10")
	svc := NewCardService(repo, brokenCache{}, 0, testutil.Logger())

	info, err := svc.Lookup(ctx, testutil.SenderCard, testutil.SenderExpiry)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if info.Balance != "10.00" {
		t.Errorf("balance = %q", info.Balance)
	}
}
