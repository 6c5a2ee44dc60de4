package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalog = `[
  {"name": "Base Set",
   "black": [{"text": "Why can't I sleep at night?", "pick": 1}],
   "white": [{"text": "A lifetime of sadness."}, {"text": "Kittens.", "pack": "Base Set"}, {"text": "Kittens."}]},
  {"name": "Expansion",
   "black": [],
   "white": [{"text": "Kittens."}, {"text": ""}]}
]`

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(c) != 2 {
		t.Fatalf("Expected 2 packs, got %d", len(c))
	}

	base := c[0]
	if len(base.White) != 2 {
		t.Errorf("Expected duplicate Kittens. to be dropped, got %+v", base.White)
	}
	for _, card := range base.White {
		if card.Pack != "Base Set" {
			t.Errorf("Expected pack to be filled in, got %+v", card)
		}
	}

	// Same text in another pack is a different card; empty text is skipped.
	if len(c[1].White) != 1 || c[1].White[0].Pack != "Expansion" {
		t.Errorf("Unexpected expansion cards: %+v", c[1].White)
	}

	white, black := Stats(c)
	if white != 3 || black != 1 {
		t.Errorf("Expected 3 white and 1 black, got %d and %d", white, black)
	}
}

func TestDecode_PromptAndResponseWithSameText(t *testing.T) {
	c, err := Decode(strings.NewReader(`[{"name":"p","black":[{"text":"Same"}],"white":[{"text":"Same"}]}]`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	white, black := Stats(c)
	if white != 1 || black != 1 {
		t.Errorf("Expected the card in both decks, got %d white and %d black", white, black)
	}
}

func TestDecode_BadJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"name": "oops"}`)); err == nil {
		t.Error("Decode should fail when the top level is not an array")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c) != 2 {
		t.Errorf("Expected 2 packs, got %d", len(c))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}
