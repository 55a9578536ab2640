package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestScratchStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewScratchStore(client, "")

	if _, ok, err := store.Get(ctx, "active-session"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "active-session", `{"quizId":"q1"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "active-session-quiz", `{"id":"q1"}`); err != nil {
		t.Fatalf("set quiz: %v", err)
	}
	if !mr.Exists("quiztaker:scratch:active-session") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiztaker:scratch:active-session"); ttl != 0 {
		t.Fatalf("scratch keys must not expire, ttl %v", ttl)
	}

	value, ok, err := store.Get(ctx, "active-session")
	if err != nil || !ok || value != `{"quizId":"q1"}` {
		t.Fatalf("unexpected get: %q %v %v", value, ok, err)
	}

	if err := store.Delete(ctx, "active-session", "active-session-quiz"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiztaker:scratch:active-session") || mr.Exists("quiztaker:scratch:active-session-quiz") {
		t.Fatalf("expected redis keys to be removed")
	}
}

func TestScratchStoreReportsOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewScratchStore(client, "")
	mr.Close()

	if _, _, err := store.Get(context.Background(), "active-session"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
