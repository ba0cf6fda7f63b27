package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGetReturnsWhatWasSet(t *testing.T) {
	c := New(time.Minute)
	key := Key(uuid.New(), "general")

	c.Set(key, 42)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected a miss for an unknown key")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New(20 * time.Millisecond)
	key := Key(uuid.New(), "general")

	c.Set(key, "v")
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expected the entry to have expired")
	}
}

func TestInvalidateOwnerDropsOnlyThatOwner(t *testing.T) {
	c := New(time.Minute)
	owner := uuid.New()
	other := uuid.New()

	c.Set(Key(owner, "general"), 1)
	c.Set(Key(owner, "area", "Storia"), 2)
	c.Set(Key(other, "general"), 3)

	c.InvalidateOwner(owner)

	if _, ok := c.Get(Key(owner, "general")); ok {
		t.Error("owner's general entry should be gone")
	}
	if _, ok := c.Get(Key(owner, "area", "Storia")); ok {
		t.Error("owner's area entry should be gone")
	}
	if _, ok := c.Get(Key(other, "general")); !ok {
		t.Error("other owner's entry should survive")
	}
}

func TestPruneRemovesExpiredEntries(t *testing.T) {
	c := New(20 * time.Millisecond)

	c.Set(Key(uuid.New(), "general"), 1)
	c.Set(Key(uuid.New(), "general"), 2)
	time.Sleep(40 * time.Millisecond)
	c.Set(Key(uuid.New(), "general"), 3)

	dropped := c.Prune()
	if dropped != 2 {
		t.Errorf("expected 2 pruned entries, got %d", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 live entry, got %d", c.Len())
	}
}
