package rates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bher20/fxratemanager/pkg/providers"
)

func TestBureaus_DefaultsUsedWhenEnvEmpty(t *testing.T) {
	t.Setenv(bureausEnv, "")
	t.Setenv(bureausFileEnv, "")
	bs := Bureaus()
	if len(bs) != 6 {
		t.Fatalf("expected 6 default bureaus, got %d", len(bs))
	}
	for i, b := range bs {
		want := providers.GroupFX
		if i >= 4 {
			want = providers.GroupGoldOunce
		}
		if b.Group != want {
			t.Errorf("bureau %d (%s): group %q, want %q", i, b.Key, b.Group, want)
		}
	}
	if bs[4].Key != "istanbul" || bs[5].Key != "london" {
		t.Fatalf("expected istanbul and london at positions 4 and 5; got %q, %q", bs[4].Key, bs[5].Key)
	}
}

func TestBureaus_OverrideFromEnv(t *testing.T) {
	overrideJSON := `[
        {
            "key": "kapali",
            "name": "Kapalıçarşı",
            "url": "https://kapali.example.com",
            "group": "fx",
            "kind": "static",
            "quotes": {"USD": {"buy": 42.1, "sell": 42.3}}
        }
    ]`
	t.Setenv(bureausEnv, overrideJSON)

	bs := Bureaus()
	if len(bs) != 1 {
		t.Fatalf("expected exactly 1 bureau from override, got %d", len(bs))
	}
	if bs[0].Key != "kapali" {
		t.Fatalf("expected key 'kapali', got %q", bs[0].Key)
	}
	if bs[0].Quotes["USD"].Sell != 42.3 {
		t.Fatalf("unexpected quotes: %+v", bs[0].Quotes)
	}
}

func TestBureaus_InvalidJSONFallsBack(t *testing.T) {
	t.Setenv(bureausEnv, "{not valid json")
	t.Setenv(bureausFileEnv, "")
	if bs := Bureaus(); len(bs) != 6 {
		t.Fatalf("expected fallback to defaults on invalid JSON, got %d", len(bs))
	}
}

func TestBureaus_FromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bureaus.yaml")
	doc := `bureaus:
  - key: a
    name: A
    group: fx
    kind: static
    quotes:
      EUR: {buy: 48.8, sell: 49.1}
  - key: b
    name: B
    group: gold-ounce
    kind: gold-spot
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv(bureausEnv, "")
	t.Setenv(bureausFileEnv, path)

	bs := Bureaus()
	if len(bs) != 2 {
		t.Fatalf("expected 2 bureaus from file, got %d", len(bs))
	}
	if bs[1].Group != providers.GroupGoldOunce || bs[0].Quotes["EUR"].Buy != 48.8 {
		t.Fatalf("unexpected bureaus: %+v", bs)
	}
}

// Ensure GetBureau respects the current Bureaus() list.
func TestGetBureau_UsesOverride(t *testing.T) {
	t.Setenv(bureausEnv, `[{"key":"x","name":"X Döviz","kind":"static"}]`)

	b, ok := GetBureau("x")
	if !ok {
		t.Fatalf("expected bureau 'x' to be found")
	}
	if b.Name != "X Döviz" {
		t.Fatalf("unexpected bureau name: %q", b.Name)
	}
	if _, ok := GetBureau("harem"); ok {
		t.Fatalf("did not expect default bureau harem when override is set")
	}
}
