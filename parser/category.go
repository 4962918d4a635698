// Package parser turns results-platform markup into athlete results.
package parser

import (
	"sort"
	"strings"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// Classifier maps event codes to category labels by prefix.
type Classifier struct {
	prefixes []models.CategoryPrefix
	fallback string
}

// NewClassifier orders prefixes longest first so a short generic prefix never
// shadows a more specific one. Ties are broken alphabetically.
func NewClassifier(prefixes []models.CategoryPrefix, fallback string) *Classifier {
	ordered := make([]models.CategoryPrefix, 0, len(prefixes))
	for _, p := range prefixes {
		if p.Prefix == "" {
			continue
		}
		ordered = append(ordered, models.CategoryPrefix{Prefix: strings.ToUpper(p.Prefix), Label: p.Label})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Prefix) != len(ordered[j].Prefix) {
			return len(ordered[i].Prefix) > len(ordered[j].Prefix)
		}
		return ordered[i].Prefix < ordered[j].Prefix
	})
	return &Classifier{prefixes: ordered, fallback: fallback}
}

// Category returns the label of the longest matching prefix, or the fallback.
func (c *Classifier) Category(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range c.prefixes {
		if strings.HasPrefix(upper, p.Prefix) {
			return p.Label
		}
	}
	return c.fallback
}
