package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrRecurringNotFound = errors.New("Recurring payment not found")
	ErrRecurringInactive = errors.New("Recurring payment is inactive")
	ErrBadFrequency      = errors.New("Frequency must be weekly or monthly")
	ErrBadKind           = errors.New("Kind must be expense or income")
	ErrBadInterval       = errors.New("Interval must be at least 1")
	ErrBadDueWindow      = errors.New("due_within_days must be between 0 and 365")
)

// RecurringService manages scheduled payments and posts their
// occurrences to the ledger.
type RecurringService struct {
	Payments     *repository.RecurringRepo
	Accounts     *repository.AccountRepo
	Categories   *repository.CategoryRepo
	Transactions *TransactionService
}

// RecurringInput carries the writable recurring payment fields.
type RecurringInput struct {
	AccountID   int64
	CategoryID  *int64
	Name        string
	Note        *string
	Currency    string
	Amount      float64
	Kind        string
	Frequency   string
	Interval    int
	NextDueDate time.Time
	IsActive    bool
}

// RecurringPatch updates the fields that are non-nil.
type RecurringPatch struct {
	AccountID   *int64
	CategoryID  *int64
	Name        *string
	Note        *string
	Currency    *string
	Amount      *float64
	Kind        *string
	Frequency   *string
	Interval    *int
	NextDueDate *time.Time
	IsActive    *bool
}

// RecurringPaymentView is a payment with its due distance from today.
type RecurringPaymentView struct {
	repository.RecurringPayment
	DaysUntilDue int
}

// RecordPaymentResult reports the posted occurrence.
type RecordPaymentResult struct {
	Payment       RecurringPaymentView
	TransactionID int64
}

func (s *RecurringService) Create(ctx context.Context, userID int64, in RecurringInput) (*RecurringPaymentView, error) {
	if err := validateSchedule(in.Kind, in.Frequency, in.Interval); err != nil {
		return nil, err
	}
	if err := s.validateRefs(ctx, userID, in.AccountID, in.CategoryID); err != nil {
		return nil, err
	}
	id, err := s.Payments.Create(ctx, repository.RecurringPayment{
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Note:        in.Note,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Amount:      in.Amount,
		Kind:        in.Kind,
		Frequency:   in.Frequency,
		Interval:    in.Interval,
		NextDueDate: dateOnly(in.NextDueDate),
		IsActive:    in.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, id)
}

func (s *RecurringService) Get(ctx context.Context, userID, id int64) (*RecurringPaymentView, error) {
	return s.view(ctx, userID, id)
}

// List returns payments soonest due first. dueWithinDays, when
// non-nil, keeps only payments due between today and that many days
// out.
func (s *RecurringService) List(ctx context.Context, userID int64, includeInactive bool, dueWithinDays *int) ([]RecurringPaymentView, error) {
	var dueFrom, dueTo time.Time
	if dueWithinDays != nil {
		if *dueWithinDays < 0 || *dueWithinDays > 365 {
			return nil, ErrBadDueWindow
		}
		dueFrom = today()
		dueTo = dueFrom.AddDate(0, 0, *dueWithinDays)
	}
	payments, err := s.Payments.List(ctx, userID, includeInactive, dueFrom, dueTo)
	if err != nil {
		return nil, err
	}
	views := make([]RecurringPaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, newPaymentView(p))
	}
	return views, nil
}

func (s *RecurringService) Update(ctx context.Context, userID, id int64, patch RecurringPatch) (*RecurringPaymentView, error) {
	payment, err := s.Payments.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrRecurringNotFound
	}
	if patch.AccountID != nil {
		payment.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		payment.CategoryID = patch.CategoryID
	}
	if patch.Name != nil {
		payment.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Note != nil {
		payment.Note = patch.Note
	}
	if patch.Currency != nil {
		payment.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.Amount != nil {
		payment.Amount = *patch.Amount
	}
	if patch.Kind != nil {
		payment.Kind = *patch.Kind
	}
	if patch.Frequency != nil {
		payment.Frequency = *patch.Frequency
	}
	if patch.Interval != nil {
		payment.Interval = *patch.Interval
	}
	if patch.NextDueDate != nil {
		payment.NextDueDate = dateOnly(*patch.NextDueDate)
	}
	if patch.IsActive != nil {
		payment.IsActive = *patch.IsActive
	}

	if err := validateSchedule(payment.Kind, payment.Frequency, payment.Interval); err != nil {
		return nil, err
	}
	if err := s.validateRefs(ctx, userID, payment.AccountID, payment.CategoryID); err != nil {
		return nil, err
	}
	if err := s.Payments.Update(ctx, *payment); err != nil {
		return nil, err
	}
	return s.view(ctx, userID, id)
}

func (s *RecurringService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Payments.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrRecurringNotFound
	}
	return nil
}

// RecordPayment posts one occurrence to the ledger with the amount
// signed by kind, then advances the due date past the occurrence.
func (s *RecurringService) RecordPayment(ctx context.Context, userID, id int64, occurredAt *time.Time, note *string) (*RecordPaymentResult, error) {
	payment, err := s.Payments.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrRecurringNotFound
	}
	if !payment.IsActive {
		return nil, ErrRecurringInactive
	}

	occurred := database.Now()
	if occurredAt != nil {
		occurred = occurredAt.UTC()
	}
	amount := payment.Amount
	if amount < 0 {
		amount = -amount
	}
	if payment.Kind == "expense" {
		amount = -amount
	}
	txNote := note
	if txNote == nil {
		txNote = payment.Note
	}

	created, err := s.Transactions.Create(ctx, userID, TransactionInput{
		AccountID:   payment.AccountID,
		CategoryID:  payment.CategoryID,
		Description: payment.Name,
		Note:        txNote,
		Currency:    payment.Currency,
		Amount:      amount,
		OccurredAt:  occurred,
		IsManual:    true,
	})
	if err != nil {
		return nil, err
	}

	payment.NextDueDate = nextDueAfter(payment.NextDueDate, payment.Frequency, payment.Interval, dateOnly(occurred))
	if err := s.Payments.Update(ctx, *payment); err != nil {
		return nil, err
	}
	view, err := s.view(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &RecordPaymentResult{Payment: *view, TransactionID: created.ID}, nil
}

func (s *RecurringService) view(ctx context.Context, userID, id int64) (*RecurringPaymentView, error) {
	payment, err := s.Payments.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrRecurringNotFound
	}
	view := newPaymentView(*payment)
	return &view, nil
}

func (s *RecurringService) validateRefs(ctx context.Context, userID, accountID int64, categoryID *int64) error {
	account, err := s.Accounts.Get(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if categoryID != nil {
		category, err := s.Categories.Get(ctx, userID, *categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrCategoryNotFound
		}
	}
	return nil
}

func validateSchedule(kind, frequency string, interval int) error {
	if kind != "expense" && kind != "income" {
		return ErrBadKind
	}
	if frequency != "weekly" && frequency != "monthly" {
		return ErrBadFrequency
	}
	if interval < 1 {
		return ErrBadInterval
	}
	return nil
}

func newPaymentView(p repository.RecurringPayment) RecurringPaymentView {
	days := int(dateOnly(p.NextDueDate).Sub(today()).Hours() / 24)
	return RecurringPaymentView{RecurringPayment: p, DaysUntilDue: days}
}

// addMonths shifts by calendar months, clamping the day to the length
// of the target month so Jan 31 + 1 month lands on Feb 28/29.
func addMonths(d time.Time, months int) time.Time {
	year := d.Year()
	month := int(d.Month()) - 1 + months
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	day := d.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC)
}

func advanceDueDate(d time.Time, frequency string, interval int) time.Time {
	if frequency == "weekly" {
		return d.AddDate(0, 0, 7*interval)
	}
	return addMonths(d, interval)
}

// nextDueAfter advances the schedule until it passes the occurrence
// date, so recording a late payment never leaves a due date in the
// past.
func nextDueAfter(currentDue time.Time, frequency string, interval int, occurredOn time.Time) time.Time {
	next := advanceDueDate(dateOnly(currentDue), frequency, interval)
	for !next.After(occurredOn) {
		next = advanceDueDate(next, frequency, interval)
	}
	return next
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func today() time.Time {
	return dateOnly(time.Now())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
