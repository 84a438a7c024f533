package usecase

import (
	"regexp"
	"strings"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// mentionPattern captures an @ followed by word characters, spaces or
// hyphens; the match ends at the next character outside that class.
var mentionPattern = regexp.MustCompile(`@([\w\s-]+)`)

// ExtractMentions scans free text for @name tokens and resolves each one
// against the catalog snapshot, in source-token order. A token resolves
// to the first product whose name contains it or is contained by it,
// case-insensitively; when the raw token matches nothing, trailing words
// are dropped one at a time so prose after the mention does not defeat
// the lookup ("@Enceinte JBL pour un mariage" still finds "Enceinte JBL
// Pro"). Unresolved tokens are dropped silently and duplicate
// resolutions are kept.
func ExtractMentions(text string, products []entity.Product) []entity.ProductRef {
	if text == "" || len(products) == 0 {
		return nil
	}

	var refs []entity.ProductRef
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		token := strings.TrimSpace(match[1])
		if token == "" {
			continue
		}
		if ref, ok := resolveMention(token, products); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// resolveMention tries the full token, then successively shorter
// whitespace-truncated prefixes of it.
func resolveMention(token string, products []entity.Product) (entity.ProductRef, bool) {
	words := strings.Fields(token)
	for end := len(words); end > 0; end-- {
		candidate := strings.ToLower(strings.Join(words[:end], " "))
		for _, p := range products {
			name := strings.ToLower(p.Name)
			if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
				return p.Ref(), true
			}
		}
	}
	return entity.ProductRef{}, false
}
