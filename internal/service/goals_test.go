package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoalCreateDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	goal, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:         "Emergency Fund",
		Currency:     "eur",
		TargetAmount: 3000,
	})
	require.NoError(t, err)
	require.Equal(t, "savings", goal.Kind)
	require.Equal(t, "active", goal.Status)
	require.Equal(t, "EUR", goal.Currency)
	require.Equal(t, 0.0, goal.ProgressPct)

	_, err = env.goals.Create(ctx, env.userID, GoalInput{Name: "X", Currency: "EUR", TargetAmount: 0})
	require.ErrorIs(t, err, ErrBadGoalTarget)

	_, err = env.goals.Create(ctx, env.userID, GoalInput{Name: "X", Currency: "EUR", TargetAmount: 100, CurrentAmount: -1})
	require.ErrorIs(t, err, ErrNegativeGoalFunds)

	_, err = env.goals.Create(ctx, env.userID, GoalInput{Name: "X", Currency: "EUR", TargetAmount: 100, Kind: "lottery"})
	require.ErrorIs(t, err, ErrBadGoalKind)

	_, err = env.goals.Create(ctx, env.userID, GoalInput{Name: "X", Currency: "EUR", TargetAmount: 100, Status: "paused"})
	require.ErrorIs(t, err, ErrBadGoalStatus)
}

func TestGoalProgressRounding(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	goal, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:          "Bike",
		Currency:      "EUR",
		TargetAmount:  900,
		CurrentAmount: 300,
	})
	require.NoError(t, err)
	require.Equal(t, 33.33, goal.ProgressPct)
}

func TestGoalAutoCompletesWhenFunded(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	// Created already funded.
	funded, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:          "Deposit",
		Currency:      "EUR",
		TargetAmount:  500,
		CurrentAmount: 500,
	})
	require.NoError(t, err)
	require.Equal(t, "completed", funded.Status)
	require.Equal(t, 100.0, funded.ProgressPct)

	// Contribution crosses the line.
	goal, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:          "Laptop",
		Currency:      "EUR",
		TargetAmount:  1200,
		CurrentAmount: 1100,
	})
	require.NoError(t, err)

	topped, err := env.goals.Contribute(ctx, env.userID, goal.ID, 150)
	require.NoError(t, err)
	require.Equal(t, 1250.0, topped.CurrentAmount)
	require.Equal(t, "completed", topped.Status)

	// Archived goals never flip, even when funded via update.
	archived, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:         "Old Plan",
		Currency:     "EUR",
		TargetAmount: 100,
		Status:       "archived",
	})
	require.NoError(t, err)
	still, err := env.goals.Update(ctx, env.userID, archived.ID, GoalPatch{CurrentAmount: f64Ptr(100)})
	require.NoError(t, err)
	require.Equal(t, "archived", still.Status)
}

func TestGoalContributeFloorsAtZero(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	goal, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name:          "Trip",
		Currency:      "EUR",
		TargetAmount:  800,
		CurrentAmount: 50,
	})
	require.NoError(t, err)

	drained, err := env.goals.Contribute(ctx, env.userID, goal.ID, -200)
	require.NoError(t, err)
	require.Equal(t, 0.0, drained.CurrentAmount, "withdrawals cannot go negative")
}

func TestGoalListOrdersByTargetDate(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	_, err := env.goals.Create(ctx, env.userID, GoalInput{
		Name: "Undated", Currency: "EUR", TargetAmount: 100,
	})
	require.NoError(t, err)
	_, err = env.goals.Create(ctx, env.userID, GoalInput{
		Name: "December", Currency: "EUR", TargetAmount: 100,
		TargetDate: timePtr(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	_, err = env.goals.Create(ctx, env.userID, GoalInput{
		Name: "October", Currency: "EUR", TargetAmount: 100,
		TargetDate: timePtr(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	goals, err := env.goals.List(ctx, env.userID)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	require.Equal(t, "October", goals[0].Name)
	require.Equal(t, "December", goals[1].Name)
	require.Equal(t, "Undated", goals[2].Name, "goals without a date sort last")
}

func TestGoalMissingIDs(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	_, err := env.goals.Get(ctx, env.userID, 404)
	require.ErrorIs(t, err, ErrGoalNotFound)

	_, err = env.goals.Contribute(ctx, env.userID, 404, 10)
	require.ErrorIs(t, err, ErrGoalNotFound)

	require.ErrorIs(t, env.goals.Delete(ctx, env.userID, 404), ErrGoalNotFound)
}
