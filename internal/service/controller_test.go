package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"capify/internal/core"
)

// fakeAPI implements API with overridable function fields.
type fakeAPI struct {
	listExpenses  func(ctx context.Context) ([]core.Expense, error)
	createExpense func(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	updateExpense func(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	deleteExpense func(ctx context.Context, id int64) error
	listBudgets   func(ctx context.Context) ([]core.Budget, error)
	createBudget  func(ctx context.Context, in core.BudgetInput) (core.Budget, error)
}

func (f *fakeAPI) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if f.listExpenses == nil {
		return nil, nil
	}
	return f.listExpenses(ctx)
}

func (f *fakeAPI) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	return f.createExpense(ctx, in)
}

func (f *fakeAPI) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	return f.updateExpense(ctx, id, in)
}

func (f *fakeAPI) DeleteExpense(ctx context.Context, id int64) error {
	return f.deleteExpense(ctx, id)
}

func (f *fakeAPI) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	if f.listBudgets == nil {
		return nil, nil
	}
	return f.listBudgets(ctx)
}

func (f *fakeAPI) CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	return f.createBudget(ctx, in)
}

func expenseSet(ids ...int64) []core.Expense {
	out := make([]core.Expense, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.Expense{
			ID:        id,
			CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			Title:     "Item",
			Amount:    core.Money{Cents: 100 * id},
			Category:  "Food",
		})
	}
	return out
}

func TestController_Refresh(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return expenseSet(1, 2), nil
		},
		listBudgets: func(ctx context.Context) ([]core.Budget, error) {
			return []core.Budget{{ID: 1, Category: "Food", Amount: core.Money{Cents: 50000}, Period: core.PeriodMonthly}}, nil
		},
	}
	c := NewController(api, nil, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := len(c.Expenses()); got != 2 {
		t.Errorf("len(Expenses()) = %d, want 2", got)
	}
	if !c.Ready() {
		t.Error("Ready() = false after successful refresh")
	}
}

func TestController_RefreshPartialFailure(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return expenseSet(1), nil
		},
		listBudgets: func(ctx context.Context) ([]core.Budget, error) {
			return nil, errors.New("budgets endpoint down")
		},
	}
	c := NewController(api, nil, nil)

	err := c.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh() error = nil, want error from budget leg")
	}
	// The expense leg's result is kept even though the budget leg failed.
	if got := len(c.Expenses()); got != 1 {
		t.Errorf("len(Expenses()) = %d, want 1 after partial refresh", got)
	}
}

func TestController_StaleGenerationDiscarded(t *testing.T) {
	c := NewController(&fakeAPI{}, nil, nil)

	newer := c.nextGen.Add(1)
	older := newer // simulate a fetch that started earlier
	newer = c.nextGen.Add(1)

	if !c.applyExpenses(newer, expenseSet(1, 2, 3)) {
		t.Fatal("applyExpenses(newer) = false, want true")
	}
	if c.applyExpenses(older, expenseSet(9)) {
		t.Error("applyExpenses(older) = true, want stale fetch discarded")
	}
	if got := len(c.Expenses()); got != 3 {
		t.Errorf("len(Expenses()) = %d, want 3 (newer fetch kept)", got)
	}
}

func TestController_CreateExpenseRefetches(t *testing.T) {
	listCalls := 0
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			listCalls++
			return expenseSet(1, 2, 3), nil
		},
		createExpense: func(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
			return core.Expense{ID: 3, Title: in.Title, Amount: in.Amount, Category: in.Category}, nil
		},
	}
	c := NewController(api, nil, nil)

	created, err := c.CreateExpense(context.Background(), core.ExpenseInput{
		Title: "Lunch", Amount: core.Money{Cents: 1200}, Category: "Food",
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if created.ID != 3 {
		t.Errorf("CreateExpense().ID = %v, want 3", created.ID)
	}
	if listCalls != 1 {
		t.Errorf("ListExpenses called %d times, want 1 refetch after mutation", listCalls)
	}
	if got := len(c.Expenses()); got != 3 {
		t.Errorf("len(Expenses()) = %d, want 3 from refetch", got)
	}
}

func TestController_CreateExpenseValidatesFirst(t *testing.T) {
	apiCalled := false
	api := &fakeAPI{
		createExpense: func(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
			apiCalled = true
			return core.Expense{}, nil
		},
	}
	c := NewController(api, nil, nil)

	_, err := c.CreateExpense(context.Background(), core.ExpenseInput{Title: "", Amount: core.Money{Cents: 100}, Category: "Food"})
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("CreateExpense() error = %v, want ErrEmptyTitle", err)
	}
	if apiCalled {
		t.Error("upstream called despite validation failure")
	}
}

func TestController_DeleteExpenseRefetches(t *testing.T) {
	listCalls := 0
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			listCalls++
			return expenseSet(1), nil
		},
		deleteExpense: func(ctx context.Context, id int64) error {
			if id != 2 {
				t.Errorf("DeleteExpense id = %v, want 2", id)
			}
			return nil
		},
	}
	c := NewController(api, nil, nil)

	if err := c.DeleteExpense(context.Background(), 2); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if listCalls != 1 {
		t.Errorf("ListExpenses called %d times, want 1", listCalls)
	}
}

func TestController_MutationErrorSkipsRefresh(t *testing.T) {
	listCalls := 0
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			listCalls++
			return nil, nil
		},
		createBudget: func(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
			return core.Budget{}, errors.New("duplicate")
		},
	}
	c := NewController(api, nil, nil)

	_, err := c.CreateBudget(context.Background(), core.BudgetInput{
		Category: "Food", Amount: core.Money{Cents: 100}, Period: core.PeriodMonthly,
	})
	if err == nil {
		t.Fatal("CreateBudget() error = nil, want error")
	}
	if listCalls != 0 {
		t.Errorf("ListExpenses called %d times after failed mutation, want 0", listCalls)
	}
}

func TestController_OnChange(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api, nil, nil)
	changed := 0
	c.OnChange = func() { changed++ }

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if changed != 1 {
		t.Errorf("OnChange fired %d times, want 1", changed)
	}
}

func TestController_Analytics(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return []core.Expense{
				{ID: 1, CreatedAt: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), Title: "A", Amount: core.Money{Cents: 1000}, Category: "Food"},
				{ID: 2, CreatedAt: time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC), Title: "B", Amount: core.Money{Cents: 2000}, Category: "Transport"},
			}, nil
		},
	}
	c := NewController(api, nil, nil)
	c.now = func() time.Time { return time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC) }

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	t.Run("all", func(t *testing.T) {
		snap := c.Analytics(core.DefaultFilter())
		if snap == nil {
			t.Fatal("Analytics() = nil, want snapshot")
		}
		if snap.Summary.Total.Cents != 3000 {
			t.Errorf("Total = %v, want 3000", snap.Summary.Total.Cents)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		snap := c.Analytics(core.FilterState{Category: "Food", Range: core.RangeAllTime})
		if snap.Summary.Count != 1 {
			t.Errorf("Count = %v, want 1", snap.Summary.Count)
		}
	})

	t.Run("empty result is nil", func(t *testing.T) {
		snap := c.Analytics(core.FilterState{Category: "Rent", Range: core.RangeAllTime})
		if snap != nil {
			t.Errorf("Analytics() = %v, want nil for empty filter result", snap)
		}
	})
}

type fakeMirror struct {
	expenses []core.Expense
	budgets  []core.Budget
	replaced int
}

func (m *fakeMirror) ReplaceExpenses(ctx context.Context, expenses []core.Expense) error {
	m.expenses = expenses
	m.replaced++
	return nil
}

func (m *fakeMirror) ReplaceBudgets(ctx context.Context, budgets []core.Budget) error {
	m.budgets = budgets
	return nil
}

func (m *fakeMirror) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	return m.expenses, nil
}

func (m *fakeMirror) LoadBudgets(ctx context.Context) ([]core.Budget, error) {
	return m.budgets, nil
}

func TestController_StartFallsBackToMirror(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return nil, errors.New("connection refused")
		},
		listBudgets: func(ctx context.Context) ([]core.Budget, error) {
			return nil, errors.New("connection refused")
		},
	}
	mirror := &fakeMirror{expenses: expenseSet(1, 2)}
	c := NewController(api, mirror, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v, want mirror fallback", err)
	}
	if got := len(c.Expenses()); got != 2 {
		t.Errorf("len(Expenses()) = %d, want 2 from mirror", got)
	}
	if !c.Stale() {
		t.Error("Stale() = false, want true after mirror fallback")
	}
}

func TestController_RefreshWritesMirror(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return expenseSet(1), nil
		},
	}
	mirror := &fakeMirror{}
	c := NewController(api, mirror, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if mirror.replaced != 1 {
		t.Errorf("mirror ReplaceExpenses called %d times, want 1", mirror.replaced)
	}
}

type fakeEvents struct {
	refreshes int
	alerts    []string
}

func (e *fakeEvents) PublishRefresh(ctx context.Context, expenseCount, budgetCount int) error {
	e.refreshes++
	return nil
}

func (e *fakeEvents) PublishBudgetAlert(ctx context.Context, category string, priority int, message string, percentage float64) error {
	e.alerts = append(e.alerts, category)
	return nil
}

func TestController_MutationPublishesDangerAlerts(t *testing.T) {
	api := &fakeAPI{
		listExpenses: func(ctx context.Context) ([]core.Expense, error) {
			return []core.Expense{
				{ID: 1, CreatedAt: time.Now(), Title: "Big", Amount: core.Money{Cents: 60000}, Category: "Food"},
			}, nil
		},
		listBudgets: func(ctx context.Context) ([]core.Budget, error) {
			return []core.Budget{{ID: 1, Category: "Food", Amount: core.Money{Cents: 50000}, Period: core.PeriodMonthly}}, nil
		},
		createExpense: func(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
			return core.Expense{ID: 1}, nil
		},
	}
	events := &fakeEvents{}
	c := NewController(api, nil, events)

	_, err := c.CreateExpense(context.Background(), core.ExpenseInput{
		Title: "Big", Amount: core.Money{Cents: 60000}, Category: "Food",
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if events.refreshes != 1 {
		t.Errorf("refresh events = %d, want 1", events.refreshes)
	}
	if len(events.alerts) != 1 {
		t.Fatalf("alert events = %d, want 1 danger alert", len(events.alerts))
	}
	if events.alerts[0] != "Food" {
		t.Errorf("alert category = %q, want Food", events.alerts[0])
	}
}
