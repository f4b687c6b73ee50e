// Package matcher evaluates item titles against keyword rules.
package matcher

import (
	"strings"

	"trendwatch/model"
)

// Match reports whether title satisfies rule. Matching is case-insensitive
// substring containment for every term. Excluded terms dominate: if any
// excluded term appears, the title never matches, regardless of the plain
// and required sets. An empty title matches nothing, and a rule with neither
// plain nor required terms matches nothing.
func Match(title string, rule model.KeywordRule) bool {
	if title == "" {
		return false
	}
	if len(rule.Plain) == 0 && len(rule.Required) == 0 {
		return false
	}

	lower := strings.ToLower(title)

	for _, term := range rule.Excluded {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}

	for _, term := range rule.Required {
		if term == "" || !strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}

	if len(rule.Plain) == 0 {
		return true
	}
	for _, term := range rule.Plain {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
