package idcache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	if _, ok := c.Get(ctx, "uid-1"); ok {
		t.Fatal("empty cache reported a hit")
	}
	id := uuid.New()
	c.Set(ctx, "uid-1", id)
	got, ok := c.Get(ctx, "uid-1")
	if !ok || got != id {
		t.Fatalf("Get: ok=%v got=%v want=%v", ok, got, id)
	}
	if _, ok := c.Get(ctx, "uid-2"); ok {
		t.Fatal("unrelated key reported a hit")
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(20 * time.Millisecond)
	c.Set(ctx, "uid-1", uuid.New())
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(ctx, "uid-1"); ok {
		t.Fatal("entry survived its ttl")
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	c.Set(context.Background(), "uid-1", uuid.New())
	if _, ok := c.Get(context.Background(), "uid-1"); ok {
		t.Fatal("Nop returned a hit")
	}
}
