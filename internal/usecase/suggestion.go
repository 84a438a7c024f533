package usecase

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

const (
	// maxSuggestions caps the returned list.
	maxSuggestions = 4

	// recentWindow is how many trailing messages feed the contextual
	// layer and the conversation classification.
	recentWindow = 5
)

// suggestionPools are the canned follow-up questions per conversation
// context.
var suggestionPools = map[string][]string{
	"general": {
		"Quels sont vos produits les plus demandés ?",
		"Proposez-vous des formules complètes pour les événements ?",
	},
	"pricing": {
		"Comment sont calculés vos tarifs de location ?",
		"Proposez-vous des tarifs dégressifs sur plusieurs jours ?",
	},
	"logistics": {
		"Assurez-vous la livraison et l'installation du matériel ?",
		"Comment se passe la récupération du matériel après l'événement ?",
	},
	"technical": {
		"Pouvez-vous m'aider à dimensionner la sonorisation de ma salle ?",
		"Quelles puissances proposez-vous sur vos enceintes ?",
	},
	"comparison": {
		"Quelles sont les alternatives dans la même gamme ?",
		"Comment choisir entre vos différentes gammes ?",
	},
	"location": {
		"Quelle est la durée minimale de location ?",
		"Demandez-vous une caution pour le matériel ?",
	},
	"experience": {
		"Avez-vous des retours de clients sur ce type d'événement ?",
		"Pouvez-vous me conseiller à partir d'événements similaires ?",
	},
}

// defaultSuggestions is the empty-catalog fallback: one entry per
// domain pool, always returned as-is.
var defaultSuggestions = []string{
	suggestionPools["general"][0],
	suggestionPools["pricing"][0],
	suggestionPools["logistics"][0],
	suggestionPools["technical"][0],
}

// contextKeywords drive the conversation-context classification.
var contextKeywords = map[string][]string{
	"pricing":    {"prix", "tarif", "coût", "cout", "budget", "devis", "euro"},
	"logistics":  {"livraison", "transport", "installation", "montage", "récupération", "horaire"},
	"technical":  {"puissance", "watt", "dimension", "poids", "spécification", "technique", "branchement"},
	"comparison": {"différence", "comparer", "versus", "mieux", "choix", "alternative"},
	"location":   {"durée", "caution", "contrat", "assurance", "prolonger", "réservation"},
	"experience": {"conseil", "recommand", "avis", "expérience", "déjà", "exemple"},
}

// SuggestionEngine produces ranked follow-up questions from the catalog
// and the conversation history. The random source is injected so tests
// can fix the seed; everything else is deterministic.
type SuggestionEngine struct {
	rng *rand.Rand
}

// NewSuggestionEngine creates an engine around the given random source.
// A nil source gets a time-seeded one.
func NewSuggestionEngine(rng *rand.Rand) *SuggestionEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SuggestionEngine{rng: rng}
}

// Compute returns at most four unique suggestions. With an empty
// catalog it returns exactly the four static defaults.
func (e *SuggestionEngine) Compute(products []entity.Product, history []entity.HistoryEntry) []string {
	if len(products) == 0 {
		return append([]string(nil), defaultSuggestions...)
	}

	recent := history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var candidates []string
	candidates = append(candidates, e.contextualSuggestions(products, recent)...)
	candidates = append(candidates, categorySuggestions(products)...)
	candidates = append(candidates, productSuggestions(products)...)
	candidates = append(candidates, suggestionPools[classifyContext(recent)][:2]...)

	return dedupeSuggestions(candidates)
}

// contextualSuggestions inspects the latest bot and user messages of
// the recent window.
func (e *SuggestionEngine) contextualSuggestions(products []entity.Product, recent []entity.HistoryEntry) []string {
	var out []string

	if bot, ok := latestBySender(recent, entity.SenderBot); ok {
		botLower := strings.ToLower(bot)

		var hits []entity.Product
		for _, p := range products {
			if p.Name != "" && strings.Contains(botLower, strings.ToLower(p.Name)) {
				hits = append(hits, p)
			}
		}

		if len(hits) > 0 {
			var pool []string
			for _, p := range hits {
				pool = append(pool,
					fmt.Sprintf("Quel est le tarif de location de %s ?", p.Name),
					fmt.Sprintf("Quelles sont les caractéristiques techniques de %s ?", p.Name),
					fmt.Sprintf("Quels accessoires recommandez-vous avec %s ?", p.Name),
					fmt.Sprintf("%s est-il disponible pour ma date ?", p.Name),
					fmt.Sprintf("Avez-vous des exemples d'utilisation de %s ?", p.Name),
				)
			}
			for _, idx := range e.sample(len(pool), 3) {
				out = append(out, pool[idx])
			}
			if len(hits) >= 2 {
				out = append(out, fmt.Sprintf("Quelle est la différence entre %s et %s ?", hits[0].Name, hits[1].Name))
			}
		}

		if strings.Contains(botLower, "disponible") || strings.Contains(botLower, "stock") {
			out = append(out, "Jusqu'à quand puis-je réserver pour garantir la disponibilité ?")
		}
		if strings.Contains(botLower, "événement") || strings.Contains(botLower, "occasion") {
			out = append(out, "Proposez-vous un accompagnement pour organiser mon événement ?")
		}
	}

	if user, ok := latestBySender(recent, entity.SenderUser); ok {
		userLower := strings.ToLower(user)
		if strings.Contains(userLower, "mariage") {
			out = append(out, "Quel matériel recommandez-vous pour un mariage ?")
		}
		if strings.Contains(userLower, "conférence") || strings.Contains(userLower, "séminaire") {
			out = append(out, "Quelle solution audio conseillez-vous pour une conférence ?")
		}
		if strings.Contains(userLower, "festival") || strings.Contains(userLower, "concert") {
			out = append(out, "Quelle sonorisation faut-il prévoir pour un concert en extérieur ?")
		}
	}

	return out
}

// sample returns up to n distinct indices out of [0, total).
func (e *SuggestionEngine) sample(total, n int) []int {
	if n > total {
		n = total
	}
	return e.rng.Perm(total)[:n]
}

// classifyContext scores the recent window against the keyword sets.
// The category with the strictly highest hit count wins; ties and
// all-zero scores fall back to "general".
func classifyContext(recent []entity.HistoryEntry) string {
	var sb strings.Builder
	for _, h := range recent {
		sb.WriteString(strings.ToLower(h.Text))
		sb.WriteString(" ")
	}
	joined := sb.String()

	best, bestScore, tied := "general", 0, false
	for _, category := range []string{"pricing", "logistics", "technical", "comparison", "location", "experience"} {
		score := 0
		for _, kw := range contextKeywords[category] {
			if strings.Contains(joined, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = category, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return "general"
	}
	return best
}

// categorySuggestions synthesizes one question per top-3 catalog
// category by product frequency.
func categorySuggestions(products []entity.Product) []string {
	freq := make(map[string]int)
	for _, p := range products {
		for _, cat := range p.Categories {
			freq[cat]++
		}
	}

	categories := make([]string, 0, len(freq))
	for cat := range freq {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if freq[categories[i]] != freq[categories[j]] {
			return freq[categories[i]] > freq[categories[j]]
		}
		return categories[i] < categories[j]
	})

	if len(categories) > 3 {
		categories = categories[:3]
	}
	out := make([]string, 0, len(categories))
	for _, cat := range categories {
		out = append(out, fmt.Sprintf("Que proposez-vous dans la catégorie %s ?", cat))
	}
	return out
}

// productSuggestions synthesizes up to two generic questions from the
// first five catalog products.
func productSuggestions(products []entity.Product) []string {
	window := products
	if len(window) > 5 {
		window = window[:5]
	}
	var out []string
	for _, p := range window {
		if len(out) == 2 {
			break
		}
		out = append(out, fmt.Sprintf("Pouvez-vous m'en dire plus sur %s ?", p.Name))
	}
	return out
}

// dedupeSuggestions greedily keeps candidates that are not
// substring-related (case-insensitively, either direction) to any
// already-kept one, stopping at the cap.
func dedupeSuggestions(candidates []string) []string {
	var kept []string
	for _, c := range candidates {
		if len(kept) == maxSuggestions {
			break
		}
		cLower := strings.ToLower(c)
		related := false
		for _, k := range kept {
			kLower := strings.ToLower(k)
			if strings.Contains(kLower, cLower) || strings.Contains(cLower, kLower) {
				related = true
				break
			}
		}
		if !related {
			kept = append(kept, c)
		}
	}
	return kept
}

func latestBySender(entries []entity.HistoryEntry, sender entity.Sender) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Sender == sender {
			return entries[i].Text, true
		}
	}
	return "", false
}
