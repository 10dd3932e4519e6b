package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrGoalNotFound      = errors.New("Goal not found")
	ErrBadGoalKind       = errors.New("Goal kind must be savings, debt_payoff or purchase")
	ErrBadGoalStatus     = errors.New("Goal status must be active, completed or archived")
	ErrBadGoalTarget     = errors.New("Target amount must be greater than zero")
	ErrNegativeGoalFunds = errors.New("Current amount must be zero or greater")
)

// GoalService manages savings goals. A goal whose funds reach its
// target while active flips to completed on any write path.
type GoalService struct {
	Goals *repository.GoalRepo
}

// GoalInput carries the writable goal fields.
type GoalInput struct {
	Name          string
	Currency      string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    *time.Time
	Kind          string
	Status        string
	Notes         *string
}

// GoalPatch updates the fields that are non-nil.
type GoalPatch struct {
	Name          *string
	Currency      *string
	TargetAmount  *float64
	CurrentAmount *float64
	TargetDate    *time.Time
	Kind          *string
	Status        *string
	Notes         *string
}

// GoalView is a goal with its funding progress as a percentage.
type GoalView struct {
	repository.Goal
	ProgressPct float64
}

func (s *GoalService) Create(ctx context.Context, userID int64, in GoalInput) (*GoalView, error) {
	if in.Kind == "" {
		in.Kind = "savings"
	}
	if in.Status == "" {
		in.Status = "active"
	}
	if err := validateGoal(in.Kind, in.Status, in.TargetAmount, in.CurrentAmount); err != nil {
		return nil, err
	}
	goal := repository.Goal{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		TargetDate:    in.TargetDate,
		Kind:          in.Kind,
		Status:        in.Status,
		Notes:         in.Notes,
	}
	completeIfFunded(&goal)
	id, err := s.Goals.Create(ctx, goal)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, id)
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (*GoalView, error) {
	return s.view(ctx, userID, id)
}

// List returns goals nearest target date first, undated goals last.
func (s *GoalService) List(ctx context.Context, userID int64) ([]GoalView, error) {
	goals, err := s.Goals.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, newGoalView(g))
	}
	return views, nil
}

func (s *GoalService) Update(ctx context.Context, userID, id int64, patch GoalPatch) (*GoalView, error) {
	goal, err := s.Goals.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	if patch.Name != nil {
		goal.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Currency != nil {
		goal.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.TargetAmount != nil {
		goal.TargetAmount = *patch.TargetAmount
	}
	if patch.CurrentAmount != nil {
		goal.CurrentAmount = *patch.CurrentAmount
	}
	if patch.TargetDate != nil {
		goal.TargetDate = patch.TargetDate
	}
	if patch.Kind != nil {
		goal.Kind = *patch.Kind
	}
	if patch.Status != nil {
		goal.Status = *patch.Status
	}
	if patch.Notes != nil {
		goal.Notes = patch.Notes
	}
	if err := validateGoal(goal.Kind, goal.Status, goal.TargetAmount, goal.CurrentAmount); err != nil {
		return nil, err
	}
	completeIfFunded(goal)
	if err := s.Goals.Update(ctx, *goal); err != nil {
		return nil, err
	}
	return s.view(ctx, userID, id)
}

// Contribute adds amount to the goal's funds. Negative amounts
// withdraw, floored at zero.
func (s *GoalService) Contribute(ctx context.Context, userID, id int64, amount float64) (*GoalView, error) {
	goal, err := s.Goals.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	goal.CurrentAmount = math.Max(goal.CurrentAmount+amount, 0)
	completeIfFunded(goal)
	if err := s.Goals.Update(ctx, *goal); err != nil {
		return nil, err
	}
	return s.view(ctx, userID, id)
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Goals.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGoalNotFound
	}
	return nil
}

func (s *GoalService) view(ctx context.Context, userID, id int64) (*GoalView, error) {
	goal, err := s.Goals.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	view := newGoalView(*goal)
	return &view, nil
}

func validateGoal(kind, status string, target, current float64) error {
	switch kind {
	case "savings", "debt_payoff", "purchase":
	default:
		return ErrBadGoalKind
	}
	switch status {
	case "active", "completed", "archived":
	default:
		return ErrBadGoalStatus
	}
	if target <= 0 {
		return ErrBadGoalTarget
	}
	if current < 0 {
		return ErrNegativeGoalFunds
	}
	return nil
}

func completeIfFunded(goal *repository.Goal) {
	if goal.CurrentAmount >= goal.TargetAmount && goal.Status == "active" {
		goal.Status = "completed"
	}
}

func newGoalView(g repository.Goal) GoalView {
	progress := 0.0
	if g.TargetAmount > 0 {
		progress = math.Min(g.CurrentAmount/g.TargetAmount*100, 9999)
	}
	return GoalView{Goal: g, ProgressPct: math.Round(progress*100) / 100}
}
