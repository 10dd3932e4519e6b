package service

import (
	"context"
	"errors"
	"strings"

	"github.com/marric/gelt/internal/database/repository"
	"github.com/marric/gelt/internal/rules"
)

var (
	ErrRuleNotFound     = errors.New("Category rule not found")
	ErrRuleKindMismatch = errors.New("Rule applies_to_kind must match the selected category kind")
)

// RuleService manages category rules. Patterns are validated here so
// the matcher never sees one that cannot compile.
type RuleService struct {
	Rules      *repository.CategoryRuleRepo
	Categories *repository.CategoryRepo
}

// RuleInput carries the writable rule fields.
type RuleInput struct {
	CategoryID    int64
	Pattern       string
	MatchType     string
	AppliesToKind string
	Priority      int
	CaseSensitive bool
	IsActive      bool
}

// RulePatch updates the fields that are non-nil.
type RulePatch struct {
	CategoryID    *int64
	Pattern       *string
	MatchType     *string
	AppliesToKind *string
	Priority      *int
	CaseSensitive *bool
	IsActive      *bool
}

func (s *RuleService) Create(ctx context.Context, userID int64, in RuleInput) (*repository.CategoryRule, error) {
	if err := rules.ValidateAppliesTo(in.AppliesToKind); err != nil {
		return nil, err
	}
	category, err := s.Categories.Get(ctx, userID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := validateKindAlignment(category.Kind, in.AppliesToKind); err != nil {
		return nil, err
	}
	pattern, err := rules.ValidatePattern(in.Pattern, in.MatchType)
	if err != nil {
		return nil, err
	}

	id, err := s.Rules.Create(ctx, repository.CategoryRule{
		UserID:        userID,
		CategoryID:    in.CategoryID,
		Pattern:       pattern,
		MatchType:     in.MatchType,
		AppliesToKind: in.AppliesToKind,
		Priority:      in.Priority,
		CaseSensitive: in.CaseSensitive,
		IsActive:      in.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return s.Rules.Get(ctx, userID, id)
}

func (s *RuleService) Get(ctx context.Context, userID, id int64) (*repository.CategoryRule, error) {
	rule, err := s.Rules.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List returns the user's rules in matching order.
func (s *RuleService) List(ctx context.Context, userID int64, activeOnly bool) ([]repository.CategoryRule, error) {
	return s.Rules.List(ctx, userID, activeOnly)
}

// Update merges the patch over the stored rule and re-validates the
// merged result before writing.
func (s *RuleService) Update(ctx context.Context, userID, id int64, patch RulePatch) (*repository.CategoryRule, error) {
	rule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		rule.CategoryID = *patch.CategoryID
	}
	if patch.Pattern != nil {
		rule.Pattern = *patch.Pattern
	}
	if patch.MatchType != nil {
		rule.MatchType = *patch.MatchType
	}
	if patch.AppliesToKind != nil {
		rule.AppliesToKind = *patch.AppliesToKind
	}
	if patch.Priority != nil {
		rule.Priority = *patch.Priority
	}
	if patch.CaseSensitive != nil {
		rule.CaseSensitive = *patch.CaseSensitive
	}
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}

	if err := rules.ValidateAppliesTo(rule.AppliesToKind); err != nil {
		return nil, err
	}
	category, err := s.Categories.Get(ctx, userID, rule.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := validateKindAlignment(category.Kind, rule.AppliesToKind); err != nil {
		return nil, err
	}
	pattern, err := rules.ValidatePattern(rule.Pattern, rule.MatchType)
	if err != nil {
		return nil, err
	}
	rule.Pattern = pattern

	if err := s.Rules.Update(ctx, *rule); err != nil {
		return nil, err
	}
	return s.Rules.Get(ctx, userID, id)
}

func (s *RuleService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Rules.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrRuleNotFound
	}
	return nil
}

func validateKindAlignment(categoryKind, appliesToKind string) error {
	if appliesToKind == "all" {
		return nil
	}
	if strings.ToLower(categoryKind) != appliesToKind {
		return ErrRuleKindMismatch
	}
	return nil
}
