package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedRecurring(t *testing.T, ctx context.Context, accountID int64, in RecurringInput) *RecurringPaymentView {
	t.Helper()
	in.AccountID = accountID
	payment, err := e.recurring.Create(ctx, e.userID, in)
	require.NoError(t, err)
	return payment
}

func TestRecurringCreateValidates(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	base := RecurringInput{
		AccountID:   accountID,
		Name:        "Rent",
		Currency:    "EUR",
		Amount:      800,
		Kind:        "expense",
		Frequency:   "monthly",
		Interval:    1,
		NextDueDate: today(),
		IsActive:    true,
	}

	bad := base
	bad.Kind = "transfer"
	_, err := env.recurring.Create(ctx, env.userID, bad)
	require.ErrorIs(t, err, ErrBadKind)

	bad = base
	bad.Frequency = "daily"
	_, err = env.recurring.Create(ctx, env.userID, bad)
	require.ErrorIs(t, err, ErrBadFrequency)

	bad = base
	bad.Interval = 0
	_, err = env.recurring.Create(ctx, env.userID, bad)
	require.ErrorIs(t, err, ErrBadInterval)

	bad = base
	bad.AccountID = 404
	_, err = env.recurring.Create(ctx, env.userID, bad)
	require.ErrorIs(t, err, ErrAccountNotFound)

	bad = base
	bad.CategoryID = i64Ptr(404)
	_, err = env.recurring.Create(ctx, env.userID, bad)
	require.ErrorIs(t, err, ErrCategoryNotFound)

	created, err := env.recurring.Create(ctx, env.userID, base)
	require.NoError(t, err)
	require.Equal(t, "Rent", created.Name)
	require.True(t, created.NextDueDate.Equal(today()))
	require.Equal(t, 0, created.DaysUntilDue)
}

func TestRecurringListDueWindow(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Rent", Currency: "EUR", Amount: 800, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 2), IsActive: true,
	})
	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Gym", Currency: "EUR", Amount: 30, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 20), IsActive: true,
	})
	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Old Club", Currency: "EUR", Amount: 10, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 1), IsActive: false,
	})

	due, err := env.recurring.List(ctx, env.userID, false, intPtr(7))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "Rent", due[0].Name)
	require.Equal(t, 2, due[0].DaysUntilDue)

	everything, err := env.recurring.List(ctx, env.userID, true, nil)
	require.NoError(t, err)
	require.Len(t, everything, 3)
	require.Equal(t, "Old Club", everything[0].Name, "soonest due first regardless of active flag")

	_, err = env.recurring.List(ctx, env.userID, false, intPtr(400))
	require.ErrorIs(t, err, ErrBadDueWindow)
}

func TestRecurringRecordPaymentExpense(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")
	housing := env.seedCategory(t, ctx, "Rent and Housing", "expense")

	dueDate := today().AddDate(0, 0, -10)
	payment := env.seedRecurring(t, ctx, accountID, RecurringInput{
		CategoryID:  &housing,
		Name:        "Rent",
		Note:        strPtr("flat 4b"),
		Currency:    "EUR",
		Amount:      800,
		Kind:        "expense",
		Frequency:   "monthly",
		Interval:    1,
		NextDueDate: dueDate,
		IsActive:    true,
	})

	result, err := env.recurring.RecordPayment(ctx, env.userID, payment.ID, nil, nil)
	require.NoError(t, err)
	require.NotZero(t, result.TransactionID)

	tx, err := env.transactions.Get(ctx, env.userID, result.TransactionID)
	require.NoError(t, err)
	require.Equal(t, -800.0, tx.Amount, "expenses post negative")
	require.Equal(t, "Rent", tx.Description)
	require.Equal(t, "flat 4b", *tx.Note, "payment note carries over when the payload has none")
	require.Equal(t, housing, *tx.CategoryID)
	require.True(t, tx.IsManual)

	wantDue := addMonths(dueDate, 1)
	require.True(t, result.Payment.NextDueDate.Equal(wantDue), "due date advances past the occurrence")
}

func TestRecurringRecordPaymentIncomeAndLateAdvance(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	dueDate := today().AddDate(0, 0, -15)
	payment := env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name:        "Salary",
		Currency:    "EUR",
		Amount:      -2500, // sign on the stored amount is ignored
		Kind:        "income",
		Frequency:   "weekly",
		Interval:    1,
		NextDueDate: dueDate,
		IsActive:    true,
	})

	occurred := time.Now().UTC()
	result, err := env.recurring.RecordPayment(ctx, env.userID, payment.ID, &occurred, strPtr("early transfer"))
	require.NoError(t, err)

	tx, err := env.transactions.Get(ctx, env.userID, result.TransactionID)
	require.NoError(t, err)
	require.Equal(t, 2500.0, tx.Amount, "income posts positive")
	require.Equal(t, "early transfer", *tx.Note)

	// Fifteen days late on a weekly schedule skips the two missed
	// weeks and lands six days out.
	wantDue := today().AddDate(0, 0, 6)
	require.True(t, result.Payment.NextDueDate.Equal(wantDue))
}

func TestRecurringRecordPaymentRejectsInactive(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	payment := env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Paused", Currency: "EUR", Amount: 5, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today(),
	})

	_, err := env.recurring.RecordPayment(ctx, env.userID, payment.ID, nil, nil)
	require.ErrorIs(t, err, ErrRecurringInactive)

	_, err = env.recurring.RecordPayment(ctx, env.userID, 404, nil, nil)
	require.ErrorIs(t, err, ErrRecurringNotFound)
}

func TestRecurringUpdateAndDelete(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	payment := env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Streaming", Currency: "eur", Amount: 12.99, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today(), IsActive: true,
	})
	require.Equal(t, "EUR", payment.Currency)

	updated, err := env.recurring.Update(ctx, env.userID, payment.ID, RecurringPatch{
		Amount:   f64Ptr(14.99),
		Interval: intPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, 14.99, updated.Amount)
	require.Equal(t, 2, updated.Interval)

	_, err = env.recurring.Update(ctx, env.userID, payment.ID, RecurringPatch{Frequency: strPtr("hourly")})
	require.ErrorIs(t, err, ErrBadFrequency)

	require.NoError(t, env.recurring.Delete(ctx, env.userID, payment.ID))
	require.ErrorIs(t, env.recurring.Delete(ctx, env.userID, payment.ID), ErrRecurringNotFound)
}

func TestAddMonthsClampsDay(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		start  time.Time
		months int
		want   time.Time
	}{
		"jan 31 to february": {
			start:  time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		"leap year february": {
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		"two months keeps day": {
			start:  time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		"year rollover": {
			start:  time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		"backwards": {
			start:  time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			months: -1,
			want:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.True(t, addMonths(tc.start, tc.months).Equal(tc.want))
		})
	}
}

func TestNextDueAfterAlwaysAdvances(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	// Paying early still moves the schedule one period forward.
	early := nextDueAfter(due, "monthly", 1, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, early.Equal(time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)))

	// Paying months late skips every missed period.
	late := nextDueAfter(due, "monthly", 1, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, late.Equal(time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)))

	weekly := nextDueAfter(due, "weekly", 2, time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, weekly.Equal(time.Date(2026, 6, 24, 0, 0, 0, 0, time.UTC)))
}
