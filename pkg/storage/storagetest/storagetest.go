// Package storagetest holds a conformance suite shared by storage drivers.
package storagetest

import (
	"context"
	"reflect"
	"testing"

	"github.com/nextchat-ai/nextchat/pkg/storage"
)

// Run exercises the storage.Storage contract against a fresh store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, "absent")
		if err != nil {
			t.Fatal(err)
		}
		if ok || v != "" {
			t.Errorf("expected absent key, got %q ok=%v", v, ok)
		}
	})

	t.Run("SetGetOverwrite", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", "v1"); err != nil {
			t.Fatal(err)
		}
		if err := s.Set(ctx, "k", "v2"); err != nil {
			t.Fatal(err)
		}
		v, ok, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != "v2" {
			t.Errorf("expected v2, got %q ok=%v", v, ok)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", "v")
		if err := s.Remove(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.Get(ctx, "k"); ok {
			t.Error("expected key removed")
		}
		if err := s.Remove(ctx, "never-set"); err != nil {
			t.Errorf("removing missing key: %v", err)
		}
	})

	t.Run("ListKeysWithPrefix", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"cache_b", "cache_a", "settings_api_key", "cacheX", "cache%_literal"} {
			if err := s.Set(ctx, k, "x"); err != nil {
				t.Fatal(err)
			}
		}
		keys, err := s.ListKeysWithPrefix(ctx, "cache_")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"cache_a", "cache_b"}
		if !reflect.DeepEqual(keys, want) {
			t.Errorf("expected %v, got %v", want, keys)
		}

		keys, err = s.ListKeysWithPrefix(ctx, "cache%")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(keys, []string{"cache%_literal"}) {
			t.Errorf("wildcard prefix should match literally, got %v", keys)
		}
	})
}
