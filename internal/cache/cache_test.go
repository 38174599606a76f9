package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/typetrack/internal/model"
)

func TestMemoryRoundTrip(t *testing.T) {
	c := NewMemory(4, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	avg := 1.5
	want := model.Analysis{SessionID: "s1", WPM: 64, AverageTypingSpeed: &avg}
	if err := c.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.SessionID != "s1" || *got.AverageTypingSpeed != 1.5 {
		t.Fatalf("unexpected analysis %+v", got)
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	c := NewMemory(2, time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := c.Set(ctx, fmt.Sprintf("k%d", i), model.Analysis{}); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "k0"); ok {
		t.Fatalf("expected k0 to be evicted")
	}
}

func TestMemoryExpires(t *testing.T) {
	c := NewMemory(2, 20*time.Millisecond)
	ctx := context.Background()
	if err := c.Set(ctx, "k", model.Analysis{}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestDialRedisRejectsBadURL(t *testing.T) {
	if _, err := DialRedis(context.Background(), "http://nope", time.Minute); err == nil {
		t.Fatalf("expected error for non-redis url")
	}
}

func TestRedisGetReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedis(client, time.Minute)
	defer r.Close()

	_, ok, err := r.Get(context.Background(), "k")
	if err == nil || ok {
		t.Fatalf("expected connection error, got ok=%v err=%v", ok, err)
	}
}
