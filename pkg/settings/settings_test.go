package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/storage/memory"
)

func TestDefaults(t *testing.T) {
	s := New(memory.New())
	if s.SelectedModel() != "gpt-4" {
		t.Errorf("expected gpt-4, got %s", s.SelectedModel())
	}
	if c := s.Credentials(context.Background()); c != (models.Credentials{}) {
		t.Errorf("expected empty credentials, got %+v", c)
	}
}

func TestSetPersistsAndLoads(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	s := New(store)
	if err := s.SetAPIKey(ctx, "ak"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSecretKey(ctx, "sk"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSelectedModel(ctx, "ernie-bot-4"); err != nil {
		t.Fatal(err)
	}

	v, ok, _ := store.Get(ctx, KeyAPIKey)
	if !ok || v != "ak" {
		t.Errorf("api key not persisted: %q %v", v, ok)
	}

	reloaded := New(store)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	want := models.Credentials{APIKey: "ak", SecretKey: "sk"}
	if got := reloaded.Credentials(ctx); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if reloaded.SelectedModel() != "ernie-bot-4" {
		t.Errorf("expected ernie-bot-4, got %s", reloaded.SelectedModel())
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Set(ctx, KeySecretKey, "stored-secret")

	s := New(store,
		WithDefaults(models.Credentials{APIKey: "from-config", SecretKey: "config-secret"}),
		WithDefaultModel("qwen-max"),
	)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if s.APIKey() != "from-config" {
		t.Errorf("expected config api key, got %s", s.APIKey())
	}
	if s.SecretKey() != "stored-secret" {
		t.Errorf("expected stored secret to win, got %s", s.SecretKey())
	}
	if s.SelectedModel() != "qwen-max" {
		t.Errorf("expected qwen-max, got %s", s.SelectedModel())
	}
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("read-only")
}

func TestSetFailureStillApplies(t *testing.T) {
	s := New(brokenStore{memory.New()})
	if err := s.SetAPIKey(context.Background(), "ak"); err == nil {
		t.Fatal("expected persist error")
	}
	if s.APIKey() != "ak" {
		t.Errorf("expected in-memory value to be updated")
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetAPIKey(ctx, "k")
		}()
		go func() {
			defer wg.Done()
			_ = s.Credentials(ctx)
		}()
	}
	wg.Wait()
}
