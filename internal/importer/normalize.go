package importer

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var currencySymbols = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
}

var knownCurrencyCodes = []string{"EUR", "USD", "GBP", "CHF"}

// NormalizeText collapses whitespace runs to single spaces and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseAmount converts a statement amount cell to a signed value.
// It accepts parenthesised and trailing-minus negatives, and both
// comma-decimal and dot-decimal formats with thousands separators.
// Unparseable input yields nil.
func ParseAmount(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	negative := strings.Contains(s, "(") && strings.Contains(s, ")")
	if strings.HasSuffix(s, "-") {
		negative = true
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSuffix(b.String(), "-")
	if cleaned == "" {
		return nil
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal mark.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) >= 1 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if negative && value > 0 {
		value = -value
	}
	return &value
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Day-first layouts come before month-first so ambiguous dates such as
// 02/01/2026 resolve to January 2nd.
var dateLayouts = []string{
	"2006/1/2",
	"2.1.2006",
	"2/1/2006",
	"1/2/2006",
}

// ParseDate parses statement dates, trying ISO forms first and common
// regional forms after. The result is always UTC; nil means unparseable.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// ParseCurrency resolves a raw currency cell against the account default.
// Symbols map to their codes; otherwise the first three letters win.
// Anything shorter falls back to the default.
func ParseCurrency(raw, fallback string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return strings.ToUpper(strings.TrimSpace(fallback))
	}
	if code, ok := currencySymbols[s]; ok {
		return code
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	letters := strings.ToUpper(b.String())
	if len(letters) >= 3 {
		return letters[:3]
	}
	return strings.ToUpper(strings.TrimSpace(fallback))
}

// currencyFromText scans free text for a currency hint.
func currencyFromText(text, fallback string) string {
	for _, sym := range []string{"€", "$", "£"} {
		if strings.Contains(text, sym) {
			return currencySymbols[sym]
		}
	}
	upper := strings.ToUpper(text)
	for _, code := range knownCurrencyCodes {
		if strings.Contains(upper, code) {
			return code
		}
	}
	return strings.ToUpper(strings.TrimSpace(fallback))
}

// fingerprint identifies a transaction for duplicate detection by
// account, calendar day, two-decimal amount and folded description.
func fingerprint(accountID int64, occurredAt time.Time, amount float64, description string) string {
	base := fmt.Sprintf("%d|%s|%.2f|%s",
		accountID,
		occurredAt.Format("2006-01-02"),
		amount,
		strings.ToLower(NormalizeText(description)))
	sum := sha256.Sum256([]byte(base))
	return fmt.Sprintf("%x", sum[:])
}
