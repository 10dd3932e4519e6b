// Package rules resolves transaction text to a category through the
// user's ordered category rules.
package rules

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/marric/gelt/internal/database/repository"
)

// Validation failures carry the message shown to the user.
var (
	ErrEmptyPattern = errors.New("Pattern cannot be empty")
	ErrBadMatchType = errors.New("Unsupported match_type")
	ErrInvalidRegex = errors.New("Invalid regex pattern")
	ErrBadAppliesTo = errors.New("Unsupported applies_to_kind")
)

var matchTypes = map[string]bool{
	"contains":    true,
	"starts_with": true,
	"equals":      true,
	"regex":       true,
}

var appliesToKinds = map[string]bool{
	"all":     true,
	"expense": true,
	"income":  true,
}

// KindFromAmount derives the transaction kind from the amount sign.
// Zero counts as income; callers reject zero amounts before matching.
func KindFromAmount(amount float64) string {
	if amount < 0 {
		return "expense"
	}
	return "income"
}

// ValidatePattern normalizes and checks a rule pattern for the given
// match type. Regex patterns must compile here so match time never has
// to report a bad pattern.
func ValidatePattern(pattern, matchType string) (string, error) {
	normalized := normalizeText(pattern)
	if normalized == "" {
		return "", ErrEmptyPattern
	}
	if !matchTypes[matchType] {
		return "", ErrBadMatchType
	}
	if matchType == "regex" {
		if _, err := regexp.Compile(normalized); err != nil {
			return "", ErrInvalidRegex
		}
	}
	return normalized, nil
}

// ValidateAppliesTo checks the kind gate of a rule.
func ValidateAppliesTo(kind string) error {
	if !appliesToKinds[kind] {
		return ErrBadAppliesTo
	}
	return nil
}

// Matcher scans a user's active rules in priority order and returns
// the category of the first rule that matches.
type Matcher struct {
	Rules *repository.CategoryRuleRepo
}

// Match returns the matched category id, or nil when no rule applies.
// The rule list is re-read on every call so matches always see current
// rule state.
func (m *Matcher) Match(ctx context.Context, userID int64, description, note string, amount float64) (*int64, error) {
	texts := candidateTexts(description, note)
	if len(texts) == 0 {
		return nil, nil
	}
	kind := KindFromAmount(amount)

	ruleList, err := m.Rules.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	for _, rule := range ruleList {
		if rule.AppliesToKind != "all" && rule.AppliesToKind != kind {
			continue
		}
		for _, text := range texts {
			if ruleMatchesText(rule, text) {
				id := rule.CategoryID
				return &id, nil
			}
		}
	}
	return nil, nil
}

// candidateTexts yields the normalized description, the normalized
// note, and their concatenation when both are present.
func candidateTexts(description, note string) []string {
	var texts []string
	if d := normalizeText(description); d != "" {
		texts = append(texts, d)
	}
	if n := normalizeText(note); n != "" {
		texts = append(texts, n)
	}
	if len(texts) == 2 {
		texts = append(texts, texts[0]+" "+texts[1])
	}
	return texts
}

func ruleMatchesText(rule repository.CategoryRule, text string) bool {
	if text == "" {
		return false
	}

	pattern := rule.Pattern
	target := text
	if !rule.CaseSensitive {
		pattern = strings.ToLower(pattern)
		target = strings.ToLower(target)
	}

	switch rule.MatchType {
	case "contains":
		return strings.Contains(target, pattern)
	case "starts_with":
		return strings.HasPrefix(target, pattern)
	case "equals":
		return target == pattern
	case "regex":
		expr := rule.Pattern
		if !rule.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			// Validated at creation; a bad pattern here means corrupt
			// rule data, which must not break matching.
			return false
		}
		return re.MatchString(text)
	}
	return false
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
