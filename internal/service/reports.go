package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database/repository"
)

var ErrBadMonthRange = errors.New("months must be between 1 and 24")

const (
	defaultReportMonths = 6
	maxReportMonths     = 24
	topCategoryCount    = 5
)

// ReportService builds multi-month cashflow reports.
type ReportService struct {
	Transactions *repository.TransactionRepo
}

// MonthlyPoint is one month of cashflow, oldest months first in a
// report series.
type MonthlyPoint struct {
	Month   time.Time
	Inflow  float64
	Outflow float64
	Net     float64
}

// Report is a cashflow series ending at the current month plus the
// heaviest spending categories over the same range.
type Report struct {
	Currency             string
	Months               []MonthlyPoint
	TopExpenseCategories []repository.CategorySpend
}

// MonthlySummary reports the trailing months of cashflow. months
// defaults to six when zero.
func (s *ReportService) MonthlySummary(ctx context.Context, userID int64, months int, currency string) (*Report, error) {
	if months == 0 {
		months = defaultReportMonths
	}
	if months < 1 || months > maxReportMonths {
		return nil, ErrBadMonthRange
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultQuoteCurrency
	}

	currentMonth := monthStart(today())
	firstMonth := addMonths(currentMonth, -(months - 1))

	points := make([]MonthlyPoint, 0, months)
	for step := 0; step < months; step++ {
		month := addMonths(firstMonth, step)
		start, end := monthBounds(month)
		inflow, outflow, err := s.Transactions.CashflowTotals(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		points = append(points, MonthlyPoint{
			Month:   month,
			Inflow:  inflow,
			Outflow: outflow,
			Net:     inflow - outflow,
		})
	}

	_, rangeEnd := monthBounds(currentMonth)
	spend, err := s.Transactions.SpendByCategory(ctx, userID, firstMonth, rangeEnd)
	if err != nil {
		return nil, err
	}
	top := make([]repository.CategorySpend, 0, topCategoryCount)
	for _, cs := range spend {
		if cs.Amount <= 0 {
			continue
		}
		top = append(top, cs)
		if len(top) == topCategoryCount {
			break
		}
	}

	return &Report{Currency: currency, Months: points, TopExpenseCategories: top}, nil
}
