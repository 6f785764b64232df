package core

import (
	"errors"
	"strings"
	"time"
)

// CategoryAll is the sentinel that disables category filtering.
const CategoryAll = "All"

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type (
	Period string

	Money struct {
		Cents int64
	}

	// Expense is a single spending transaction as returned by the upstream
	// API. ID and CreatedAt are assigned by the server and never change.
	Expense struct {
		ID          int64
		CreatedAt   time.Time
		Title       string
		Amount      Money
		Category    string
		Description string
	}

	// Budget is a spending cap declared for a category and period.
	Budget struct {
		ID       int64
		Category string
		Amount   Money
		Period   Period
	}

	// ExpenseInput carries the user-editable fields of an expense.
	ExpenseInput struct {
		Title       string
		Amount      Money
		Category    string
		Description string
	}

	// BudgetInput carries the fields needed to declare a budget.
	BudgetInput struct {
		Category string
		Amount   Money
		Period   Period
	}

	// FilterState is the active category and date-range selection.
	FilterState struct {
		Category    string
		Range       Range
		CustomStart string
		CustomEnd   string
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPeriod = errors.New("invalid period")
)

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in ExpenseInput) Validate() error {
	if len(strings.TrimSpace(in.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(in.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (in BudgetInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	// Budgets require a strictly positive cap, unlike expenses.
	if in.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch in.Period {
	case PeriodWeekly, PeriodMonthly:
	default:
		return ErrInvalidPeriod
	}
	return nil
}

// DefaultFilter selects everything: all categories, all time.
func DefaultFilter() FilterState {
	return FilterState{Category: CategoryAll, Range: RangeAllTime}
}
