package usecase

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededEngine() *SuggestionEngine {
	return NewSuggestionEngine(rand.New(rand.NewSource(42)))
}

func TestComputeEmptyCatalogReturnsDefaults(t *testing.T) {
	engine := seededEngine()

	got := engine.Compute(nil, []entity.HistoryEntry{
		{Text: "quel est le prix ?", Sender: entity.SenderUser},
	})

	require.Equal(t, defaultSuggestions, got)
}

func TestComputeCapsAtFourUnrelatedSuggestions(t *testing.T) {
	engine := seededEngine()
	history := []entity.HistoryEntry{
		{Text: WelcomeText, Sender: entity.SenderBot},
		{Text: "je cherche du matériel pour un mariage", Sender: entity.SenderUser},
		{Text: "Je vous recommande l'Enceinte JBL Pro pour votre événement.", Sender: entity.SenderBot},
	}

	got := engine.Compute(catalogFixture(), history)

	require.LessOrEqual(t, len(got), maxSuggestions)
	require.NotEmpty(t, got)
	for i, a := range got {
		for j, b := range got {
			if i == j {
				continue
			}
			assert.False(t, strings.Contains(strings.ToLower(a), strings.ToLower(b)),
				"suggestion %q is related to %q", a, b)
		}
	}
}

func TestComputeIsDeterministicForFixedSeed(t *testing.T) {
	history := []entity.HistoryEntry{
		{Text: "L'Enceinte JBL Pro est parfaite pour un concert.", Sender: entity.SenderBot},
	}

	first := seededEngine().Compute(catalogFixture(), history)
	second := seededEngine().Compute(catalogFixture(), history)

	require.Equal(t, first, second)
}

func TestComputeSurfacesMentionedProduct(t *testing.T) {
	engine := seededEngine()
	history := []entity.HistoryEntry{
		{Text: "Je vous conseille l'Enceinte JBL Pro, très demandée.", Sender: entity.SenderBot},
	}

	got := engine.Compute(catalogFixture(), history)

	found := false
	for _, s := range got {
		if strings.Contains(s, "Enceinte JBL Pro") {
			found = true
			break
		}
	}
	assert.True(t, found, "no suggestion references the discussed product: %v", got)
}

func TestClassifyContext(t *testing.T) {
	tests := []struct {
		name    string
		history []entity.HistoryEntry
		want    string
	}{
		{
			name: "pricing keywords win",
			history: []entity.HistoryEntry{
				{Text: "quel est le prix ? avez-vous un tarif week-end ?", Sender: entity.SenderUser},
			},
			want: "pricing",
		},
		{
			name: "logistics keywords win",
			history: []entity.HistoryEntry{
				{Text: "proposez-vous la livraison et l'installation ?", Sender: entity.SenderUser},
			},
			want: "logistics",
		},
		{
			name: "tie falls back to general",
			history: []entity.HistoryEntry{
				{Text: "le prix de la livraison", Sender: entity.SenderUser},
			},
			want: "general",
		},
		{
			name:    "no keywords",
			history: []entity.HistoryEntry{{Text: "bonjour !", Sender: entity.SenderUser}},
			want:    "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyContext(tt.history))
		})
	}
}

func TestCategorySuggestionsRankByFrequencyThenName(t *testing.T) {
	products := []entity.Product{
		{Name: "A", Categories: []string{"Sonorisation"}},
		{Name: "B", Categories: []string{"Sonorisation"}},
		{Name: "C", Categories: []string{"Éclairage"}},
		{Name: "D", Categories: []string{"Vidéo"}},
		{Name: "E", Categories: []string{"Mobilier"}},
	}

	got := categorySuggestions(products)

	require.Len(t, got, 3)
	assert.Contains(t, got[0], "Sonorisation")
	// Mobilier < Vidéo < Éclairage alphabetically among the 1-product
	// categories.
	assert.Contains(t, got[1], "Mobilier")
	assert.Contains(t, got[2], "Vidéo")
}

func TestDedupeSuggestionsDropsSubstringRelated(t *testing.T) {
	candidates := []string{
		"Quel est le tarif de location ?",
		"quel est le tarif de location ?",
		"tarif de location",
		"Assurez-vous la livraison ?",
	}

	got := dedupeSuggestions(candidates)

	require.Equal(t, []string{
		"Quel est le tarif de location ?",
		"Assurez-vous la livraison ?",
	}, got)
}
