package usecase

import (
	"testing"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

func catalogFixture() []entity.Product {
	return []entity.Product{
		{ID: "p1", Name: "Enceinte JBL Pro", Categories: []string{"Sonorisation"}},
		{ID: "p2", Name: "Pack Lumière LED", Categories: []string{"Éclairage"}},
		{ID: "p3", Name: "Micro HF Shure", Categories: []string{"Sonorisation"}},
	}
}

func TestExtractMentionsResolvesTrailingProse(t *testing.T) {
	refs := ExtractMentions("Je voudrais @Enceinte JBL pour un mariage", catalogFixture())

	if len(refs) != 1 {
		t.Fatalf("expected 1 mention, got %d (%v)", len(refs), refs)
	}
	if refs[0].ID != "p1" || refs[0].Name != "Enceinte JBL Pro" {
		t.Errorf("resolved wrong product: %+v", refs[0])
	}
	if refs[0].Category != "Sonorisation" {
		t.Errorf("expected category Sonorisation, got %q", refs[0].Category)
	}
}

func TestExtractMentionsKeepsSourceOrderAndDuplicates(t *testing.T) {
	text := "Comparez @Micro HF avec @Enceinte JBL et encore @Micro HF"
	refs := ExtractMentions(text, catalogFixture())

	if len(refs) != 3 {
		t.Fatalf("expected 3 mentions, got %d (%v)", len(refs), refs)
	}
	want := []string{"p3", "p1", "p3"}
	for i, id := range want {
		if refs[i].ID != id {
			t.Errorf("mention %d: expected %s, got %s", i, id, refs[i].ID)
		}
	}
}

func TestExtractMentionsIsCaseInsensitive(t *testing.T) {
	refs := ExtractMentions("que vaut @enceinte jbl pro ?", catalogFixture())

	if len(refs) != 1 || refs[0].ID != "p1" {
		t.Fatalf("expected p1, got %v", refs)
	}
}

func TestExtractMentionsMatchesWhenTokenContainsName(t *testing.T) {
	products := []entity.Product{{ID: "p9", Name: "JBL"}}
	refs := ExtractMentions("infos sur @JBL Pro 715", products)

	if len(refs) != 1 || refs[0].ID != "p9" {
		t.Fatalf("expected p9, got %v", refs)
	}
}

func TestExtractMentionsDropsUnresolvedTokens(t *testing.T) {
	refs := ExtractMentions("avez-vous @Machine Fumée Inconnue ?", catalogFixture())

	if len(refs) != 0 {
		t.Fatalf("expected no mentions, got %v", refs)
	}
}

func TestExtractMentionsEmptyInputs(t *testing.T) {
	if refs := ExtractMentions("", catalogFixture()); refs != nil {
		t.Errorf("empty text: expected nil, got %v", refs)
	}
	if refs := ExtractMentions("@Enceinte JBL", nil); refs != nil {
		t.Errorf("empty catalog: expected nil, got %v", refs)
	}
	if refs := ExtractMentions("aucune mention ici", catalogFixture()); refs != nil {
		t.Errorf("no tokens: expected nil, got %v", refs)
	}
}
