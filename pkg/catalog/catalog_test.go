package catalog

import "testing"

func TestAllIsACopy(t *testing.T) {
	all := All()
	if len(all) != 18 {
		t.Fatalf("expected 18 models, got %d", len(all))
	}
	all[0].Name = "changed"
	if All()[0].Name != "GPT-4" {
		t.Error("All should return a copy")
	}
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("ernie-bot-4")
	if !ok {
		t.Fatal("expected ernie-bot-4")
	}
	if m.Provider != "Baidu" || m.Name != "ERNIE Bot 4" {
		t.Errorf("unexpected entry %+v", m)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("unexpected hit")
	}
}

func TestSupported(t *testing.T) {
	for id, want := range map[string]bool{
		"gpt-4":         true,
		"gemini-pro":    true,
		"glm-3-turbo":   true,
		"claude-3-opus": false,
		"kimi-chat":     false,
	} {
		m, _ := Lookup(id)
		if got := m.Supported(); got != want {
			t.Errorf("%s: expected %v, got %v", id, want, got)
		}
	}
}

func TestIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range All() {
		if seen[m.ID] {
			t.Errorf("duplicate id %s", m.ID)
		}
		seen[m.ID] = true
	}
}
