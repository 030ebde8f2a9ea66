package cleanup

import (
	"regexp"
	"strings"
)

// categoryRule maps one catalog category to the name patterns that
// select it.
type categoryRule struct {
	category string
	patterns []*regexp.Regexp
}

// Category rules, checked in order, first match wins. Drinkware sits
// before T-Shirts so "mug" and "bottle" are never shadowed by broader
// apparel rules. Word boundaries are mandatory: "tee" must not match
// inside "steel".
var categoryRules = []categoryRule{
	{category: "Drinkware", patterns: compilePatterns(
		`\bmug\b`, `\bcup\b`, `\bwater bottle\b`, `\bbottle\b`, `\bceramic\b`,
	)},
	{category: "Hoodies & Sweatshirts", patterns: compilePatterns(
		`\bhoodie\b`, `\bsweatshirt\b`, `\bpullover\b`,
	)},
	{category: "Hats", patterns: compilePatterns(
		`\bhat\b`, `\bcap\b`, `\btrucker\b`,
	)},
	{category: "Footwear", patterns: compilePatterns(
		`\bsneaker`, `\bslides?\b`, `\bshoe`,
	)},
	{category: "Accessories", patterns: compilePatterns(
		`\bcandle\b`, `\bsticker`, `\blicense plate\b`, `\bdecal\b`, `\bphone case\b`,
	)},
	{category: "T-Shirts", patterns: compilePatterns(
		`\bt-shirt\b`, `\btee\b`, "\\bt\u2011shirt\\b",
	)},
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// DetectCategory infers the catalog category from a product name.
// Names matching no rule land in "Other".
func DetectCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, p := range rule.patterns {
			if p.MatchString(lower) {
				return rule.category
			}
		}
	}
	return "Other"
}
