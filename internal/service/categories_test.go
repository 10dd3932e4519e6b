package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryCreateValidatesKind(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	_, err := env.categories.Create(ctx, env.userID, CategoryInput{Name: "Pets", Kind: "fun"})
	require.ErrorIs(t, err, ErrBadCategoryKind)

	created, err := env.categories.Create(ctx, env.userID, CategoryInput{Name: "Pets", Kind: "expense"})
	require.NoError(t, err)
	require.False(t, created.IsSystem, "user categories never come back as system")
}

func TestCategorySystemIsReadOnly(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	system := env.systemCategory(t, ctx, "expense")

	_, err := env.categories.Update(ctx, env.userID, system.ID, CategoryPatch{Name: strPtr("Renamed")})
	require.ErrorIs(t, err, ErrSystemCategory)

	err = env.categories.Delete(ctx, env.userID, system.ID)
	require.ErrorIs(t, err, ErrSystemCategory)

	got, err := env.categories.Get(ctx, env.userID, system.ID)
	require.NoError(t, err)
	require.Equal(t, system.Name, got.Name)
}

func TestCategoryUpdateRevalidatesKind(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	id := env.seedCategory(t, ctx, "Side Hustle", "income")

	_, err := env.categories.Update(ctx, env.userID, id, CategoryPatch{Kind: strPtr("windfall")})
	require.ErrorIs(t, err, ErrBadCategoryKind)

	updated, err := env.categories.Update(ctx, env.userID, id, CategoryPatch{
		Kind:  strPtr("expense"),
		Color: strPtr("#ff8800"),
	})
	require.NoError(t, err)
	require.Equal(t, "expense", updated.Kind)
	require.Equal(t, "#ff8800", *updated.Color)
}

func TestCategoryListFiltersByKind(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	env.seedCategory(t, ctx, "Freelance", "income")

	income, err := env.categories.List(ctx, env.userID, "income")
	require.NoError(t, err)
	require.NotEmpty(t, income)
	for _, c := range income {
		require.Equal(t, "income", c.Kind)
	}

	all, err := env.categories.List(ctx, env.userID, "")
	require.NoError(t, err)
	require.Greater(t, len(all), len(income))
}

func TestCategoryMissingIDs(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	_, err := env.categories.Get(ctx, env.userID, 404)
	require.ErrorIs(t, err, ErrCategoryNotFound)

	err = env.categories.Delete(ctx, env.userID, 404)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}
