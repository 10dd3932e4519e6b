package service

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/marric/gelt/internal/database/repository"
)

// suggestScanLimit caps how many recent categorized transactions a
// suggestion scans.
const suggestScanLimit = 500

// maxSuggestDistance is the levenshtein distance ratio above which a
// description is considered unrelated.
const maxSuggestDistance = 0.4

// SuggestService proposes a category for a description by finding the
// closest already-categorized transaction. It complements the rule
// matcher for descriptions no rule covers.
type SuggestService struct {
	Transactions *repository.TransactionRepo
	Categories   *repository.CategoryRepo
}

// CategorySuggestion is a fuzzy-matched category with the transaction
// description that produced it.
type CategorySuggestion struct {
	CategoryID         int64
	CategoryName       string
	Similarity         float64
	MatchedDescription string
}

// Suggest returns the best matching category or nil when nothing
// comes close enough.
func (s *SuggestService) Suggest(ctx context.Context, userID int64, description string) (*CategorySuggestion, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil
	}
	candidates, err := s.Transactions.ListCategorized(ctx, userID, suggestScanLimit)
	if err != nil {
		return nil, err
	}

	var best *CategorySuggestion
	for _, candidate := range candidates {
		if candidate.CategoryID == nil {
			continue
		}
		score, ok := descriptionSimilarity(description, candidate.Description)
		if !ok {
			continue
		}
		if best != nil && score <= best.Similarity {
			continue
		}
		best = &CategorySuggestion{
			CategoryID:         *candidate.CategoryID,
			Similarity:         score,
			MatchedDescription: candidate.Description,
		}
	}
	if best == nil {
		return nil, nil
	}

	category, err := s.Categories.Get(ctx, userID, best.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}
	best.CategoryName = category.Name
	return best, nil
}

// descriptionSimilarity scores two descriptions in [0, 1], rejecting
// pairs whose distance ratio crosses the unrelated threshold.
func descriptionSimilarity(a, b string) (float64, bool) {
	maxLen := float64(len(a))
	if len(b) > len(a) {
		maxLen = float64(len(b))
	}
	if maxLen == 0 {
		return 0, false
	}
	dist := levenshtein.ComputeDistance(strings.ToUpper(a), strings.ToUpper(b))
	ratio := float64(dist) / maxLen
	if ratio >= maxSuggestDistance {
		return 0, false
	}
	return 1 - ratio, true
}
