package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Ruleset holds the category and merchant-keyword lists the classifier
// matches against. It is plain configuration: load it from a file, tune it,
// and inject it. Classification logic never changes with the lists.
type Ruleset struct {
	EssentialCategories    []string `json:"essential_categories"`
	NonEssentialCategories []string `json:"non_essential_categories"`
	EssentialKeywords      []string `json:"essential_keywords"`
	NonEssentialKeywords   []string `json:"non_essential_keywords"`
}

// Validate checks that the ruleset has at least one rule to match against
func (r *Ruleset) Validate() error {
	total := len(r.EssentialCategories) + len(r.NonEssentialCategories) +
		len(r.EssentialKeywords) + len(r.NonEssentialKeywords)
	if total == 0 {
		return fmt.Errorf("ruleset has no categories or keywords")
	}
	return nil
}

// LoadRuleset reads a ruleset from a JSON file
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}

	var rs Ruleset
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset file: %w", err)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}

	return &rs, nil
}

// DefaultRuleset returns the built-in curated lists. Category entries match
// provider-supplied categories; keyword entries match merchant names.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		EssentialCategories: []string{
			"rent", "mortgage", "housing",
			"utilities", "electric", "water", "internet",
			"groceries", "supermarket", "grocery",
			"insurance",
			"debt payment", "loan payment",
			"medical", "healthcare", "pharmacy",
			"transportation", "public transit", "fuel",
			"childcare", "education",
		},
		NonEssentialCategories: []string{
			"entertainment", "movies", "streaming", "gaming",
			"dining", "restaurant", "fast food", "coffee",
			"shopping", "clothing", "electronics",
			"subscriptions",
			"travel", "vacation", "hotel", "airline",
			"personal care", "salon", "spa",
		},
		EssentialKeywords: []string{
			"grocery", "supermarket", "trader joe", "whole foods",
			"pharmacy", "cvs", "walgreens", "doctor", "hospital",
			"electric company", "water utility", "gas station",
			"insurance", "rent", "mortgage", "transit",
		},
		NonEssentialKeywords: []string{
			"netflix", "spotify", "hulu", "steam",
			"starbucks", "restaurant", "uber eats", "doordash",
			"amazon", "target", "best buy",
			"cinema", "movie theater", "hotel", "airline", "airbnb",
			"salon", "spa",
		},
	}
}

// matcher is a compiled, lowercased view of one list of patterns
type matcher struct {
	patterns []string
}

func newMatcher(patterns []string) matcher {
	compiled := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			compiled = append(compiled, p)
		}
	}
	return matcher{patterns: compiled}
}

// match returns the first pattern contained in s (case handled at compile
// time), or "" when nothing matches
func (m matcher) match(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	for _, p := range m.patterns {
		if strings.Contains(s, p) {
			return p
		}
	}
	return ""
}
