package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/storage/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.New()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	return New(store, WithClock(clock.Now)), store, clock
}

func TestFingerprintDeterministic(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "hello"},
	}
	h1 := Fingerprint("openai", "gpt-4", msgs)
	h2 := Fingerprint("openai", "gpt-4", []models.Message{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "hello"},
	})
	if h1 != h2 {
		t.Error("same input should produce same fingerprint")
	}
	if h1[:len("openai:")] != "openai:" {
		t.Errorf("expected provider tag prefix, got %s", h1)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := []models.Message{
		{Role: models.RoleUser, Content: "a"},
		{Role: models.RoleAssistant, Content: "b"},
	}
	ref := Fingerprint("openai", "gpt-4", base)

	variants := map[string]string{
		"provider": Fingerprint("zhipu", "gpt-4", base),
		"model":    Fingerprint("openai", "gpt-4-turbo", base),
		"order": Fingerprint("openai", "gpt-4", []models.Message{
			{Role: models.RoleAssistant, Content: "b"},
			{Role: models.RoleUser, Content: "a"},
		}),
		"count": Fingerprint("openai", "gpt-4", base[:1]),
		"role": Fingerprint("openai", "gpt-4", []models.Message{
			{Role: models.RoleSystem, Content: "a"},
			{Role: models.RoleAssistant, Content: "b"},
		}),
		"content": Fingerprint("openai", "gpt-4", []models.Message{
			{Role: models.RoleUser, Content: "a"},
			{Role: models.RoleAssistant, Content: "b "},
		}),
		"boundary": Fingerprint("openai", "gpt-4", []models.Message{
			{Role: models.RoleUser, Content: "ab"},
		}),
	}
	for name, fp := range variants {
		if fp == ref {
			t.Errorf("%s change should change the fingerprint", name)
		}
	}

	if Fingerprint("openai", "gpt-4", nil) != Fingerprint("openai", "gpt-4", []models.Message{}) {
		t.Error("nil and empty message lists should fingerprint the same")
	}
}

func TestPutAndGet(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	fp := Fingerprint("openai", "gpt-4", []models.Message{{Role: models.RoleUser, Content: "hi"}})

	if err := c.Put(ctx, fp, "hello"); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(ctx, fp)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "hello" {
		t.Errorf("unexpected payload: %s", got)
	}

	if _, ok := c.Get(ctx, Fingerprint("gemini", "gpt-4", []models.Message{{Role: models.RoleUser, Content: "hi"}})); ok {
		t.Error("expected cache miss for different provider")
	}
}

func TestTTLExpiration(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "fp", "data"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(TTL - time.Second)
	if _, ok := c.Get(ctx, "fp"); !ok {
		t.Fatal("expected hit just before TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Error("expected miss once TTL elapsed")
	}
	if _, ok, _ := store.Get(ctx, KeyPrefix+"fp"); ok {
		t.Error("expected expired entry evicted from storage")
	}
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Error("expected miss on subsequent lookup")
	}
}

func TestGetDoesNotRefreshTTL(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "fp", "data")
	clock.Advance(3 * time.Minute)
	if _, ok := c.Get(ctx, "fp"); !ok {
		t.Fatal("expected hit")
	}
	clock.Advance(3 * time.Minute)
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Error("a read must not extend the entry lifetime")
	}
}

func TestPutOverwrites(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "fp", "first")
	_ = c.Put(ctx, "fp", "second")

	got, ok := c.Get(ctx, "fp")
	if !ok || got != "second" {
		t.Errorf("expected latest payload, got %q ok=%v", got, ok)
	}
	keys, _ := store.ListKeysWithPrefix(ctx, KeyPrefix)
	if len(keys) != 1 {
		t.Errorf("expected 1 entry, got %d", len(keys))
	}
}

func TestCorruptEntryIsAbsent(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	_ = store.Set(ctx, KeyPrefix+"fp", "{not json")
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Error("expected corrupt entry treated as absent")
	}
	if _, ok, _ := store.Get(ctx, KeyPrefix+"fp"); ok {
		t.Error("expected corrupt entry removed")
	}
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestPutFailure(t *testing.T) {
	c := New(failingStore{memory.New()})
	if err := c.Put(context.Background(), "fp", "x"); err == nil {
		t.Error("expected put error to be reported")
	}
}

func TestStats(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "h1", "data")
	c.Get(ctx, "h1") // hit
	c.Get(ctx, "h2") // miss

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "old", "data")
	clock.Advance(TTL)
	_ = c.Put(ctx, "fresh", "data")
	_ = store.Set(ctx, "settings_api_key", "sk-keep")

	n, err := c.Clear(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired entry removed, got %d", n)
	}
	if _, ok := c.Get(ctx, "fresh"); !ok {
		t.Error("fresh entry should survive an expired-only clear")
	}

	n, err = c.Clear(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry removed, got %d", n)
	}
	stats, _ := c.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
	if _, ok, _ := store.Get(ctx, "settings_api_key"); !ok {
		t.Error("clear must not touch non-cache keys")
	}
}
