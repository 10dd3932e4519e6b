package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marric/gelt/internal/rules"
)

func TestRuleCreateValidates(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	groceries := env.seedCategory(t, ctx, "Supermarkets", "expense")

	_, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "   ",
		MatchType:     "contains",
		AppliesToKind: "expense",
	})
	require.ErrorIs(t, err, rules.ErrEmptyPattern)

	_, err = env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "lidl",
		MatchType:     "soundex",
		AppliesToKind: "expense",
	})
	require.ErrorIs(t, err, rules.ErrBadMatchType)

	_, err = env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "(",
		MatchType:     "regex",
		AppliesToKind: "expense",
	})
	require.ErrorIs(t, err, rules.ErrInvalidRegex)

	_, err = env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    404,
		Pattern:       "lidl",
		MatchType:     "contains",
		AppliesToKind: "expense",
	})
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestRuleCreateNormalizesPattern(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	groceries := env.seedCategory(t, ctx, "Supermarkets", "expense")

	rule, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "  LIDL   City  ",
		MatchType:     "contains",
		AppliesToKind: "all",
		Priority:      3,
		IsActive:      true,
	})
	require.NoError(t, err)
	require.Equal(t, "LIDL City", rule.Pattern, "stored pattern is whitespace-normalized")
	require.Equal(t, "all", rule.AppliesToKind)
	require.Equal(t, 3, rule.Priority)
}

func TestRuleKindMustMatchCategory(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	salary := env.seedCategory(t, ctx, "Payroll", "income")

	_, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    salary,
		Pattern:       "acme",
		MatchType:     "contains",
		AppliesToKind: "expense",
	})
	require.ErrorIs(t, err, ErrRuleKindMismatch)

	// "all" sidesteps the alignment check.
	rule, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    salary,
		Pattern:       "acme",
		MatchType:     "contains",
		AppliesToKind: "all",
		IsActive:      true,
	})
	require.NoError(t, err)
	require.Equal(t, salary, rule.CategoryID)
}

func TestRuleUpdateRevalidatesMergedState(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	groceries := env.seedCategory(t, ctx, "Supermarkets", "expense")
	salary := env.seedCategory(t, ctx, "Payroll", "income")

	rule, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "lidl",
		MatchType:     "contains",
		AppliesToKind: "expense",
		IsActive:      true,
	})
	require.NoError(t, err)

	// Retargeting to an income category leaves the merged rule
	// claiming applies-to expense, which no longer aligns.
	_, err = env.ruleSvc.Update(ctx, env.userID, rule.ID, RulePatch{CategoryID: &salary})
	require.ErrorIs(t, err, ErrRuleKindMismatch)

	updated, err := env.ruleSvc.Update(ctx, env.userID, rule.ID, RulePatch{
		CategoryID:    &salary,
		AppliesToKind: strPtr("income"),
		Pattern:       strPtr("  acme   payroll "),
	})
	require.NoError(t, err)
	require.Equal(t, salary, updated.CategoryID)
	require.Equal(t, "income", updated.AppliesToKind)
	require.Equal(t, "acme payroll", updated.Pattern)

	_, err = env.ruleSvc.Update(ctx, env.userID, rule.ID, RulePatch{MatchType: strPtr("glob")})
	require.ErrorIs(t, err, rules.ErrBadMatchType)
}

func TestRuleListAndDelete(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	groceries := env.seedCategory(t, ctx, "Supermarkets", "expense")

	active, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "aldi",
		MatchType:     "contains",
		AppliesToKind: "all",
		IsActive:      true,
	})
	require.NoError(t, err)
	inactive, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "netto",
		MatchType:     "contains",
		AppliesToKind: "all",
	})
	require.NoError(t, err)

	onlyActive, err := env.ruleSvc.List(ctx, env.userID, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	require.Equal(t, active.ID, onlyActive[0].ID)

	all, err := env.ruleSvc.List(ctx, env.userID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, env.ruleSvc.Delete(ctx, env.userID, inactive.ID))
	require.ErrorIs(t, env.ruleSvc.Delete(ctx, env.userID, inactive.ID), ErrRuleNotFound)
}
