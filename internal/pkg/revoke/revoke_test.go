package revoke

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Fatalf("close redis: %v", err)
		}
	})
	return NewStore(rdb), s
}

func TestStore_RevokeAndLookup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const tok = "header.payload.signature"

	revoked, err := store.IsRevoked(ctx, tok)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("token should not be revoked yet")
	}

	if err := store.Revoke(ctx, tok, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, tok)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("token should be revoked")
	}
}

func TestStore_EntryExpiresWithToken(t *testing.T) {
	store, s := newTestStore(t)
	ctx := context.Background()

	const tok = "expiring.token.value"
	if err := store.Revoke(ctx, tok, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	s.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, tok)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("entry should have expired with the token")
	}
}

func TestStore_AlreadyExpiredTokenIgnored(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "stale.token", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "stale.token")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("expired token should not be stored")
	}
}
