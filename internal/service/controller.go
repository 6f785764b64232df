// Package service holds the sync controller, the single writer of the
// in-memory expense and budget sets. It proxies mutations to the
// upstream API, refetches both sets after every successful mutation,
// and recomputes derived views from scratch on demand.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"capify/internal/core"
)

// API is the slice of the upstream client the controller uses.
type API interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error)
}

// Mirror persists the last successfully fetched sets so the service can
// serve stale data across restarts and upstream outages.
type Mirror interface {
	ReplaceExpenses(ctx context.Context, expenses []core.Expense) error
	ReplaceBudgets(ctx context.Context, budgets []core.Budget) error
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
	LoadBudgets(ctx context.Context) ([]core.Budget, error)
}

// Events publishes change notifications. Implementations must be safe
// for concurrent use.
type Events interface {
	PublishRefresh(ctx context.Context, expenseCount, budgetCount int) error
	PublishBudgetAlert(ctx context.Context, category string, priority int, message string, percentage float64) error
}

// Controller owns the record sets. All reads go through the RWMutex;
// writes carry a generation so a slow fetch can never overwrite the
// result of a newer one.
type Controller struct {
	api    API
	mirror Mirror
	events Events

	// OnChange runs after the in-memory sets are replaced, outside the
	// lock. The HTTP layer uses it to drop cached responses.
	OnChange func()

	now func() time.Time

	mu       sync.RWMutex
	expenses []core.Expense
	budgets  []core.Budget
	ready    bool
	stale    bool

	nextGen    atomic.Uint64
	expenseGen uint64
	budgetGen  uint64
}

// NewController wires the controller. mirror and events may be nil;
// the corresponding behavior is skipped.
func NewController(api API, mirror Mirror, events Events) *Controller {
	return &Controller{
		api:    api,
		mirror: mirror,
		events: events,
		now:    time.Now,
	}
}

// Start performs the initial load. If the upstream is unreachable the
// controller falls back to the mirror and serves stale data until a
// refresh succeeds.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial refresh failed, falling back to mirror", "error", err)
		if mirrorErr := c.loadFromMirror(ctx); mirrorErr != nil {
			return fmt.Errorf("initial load: upstream: %w, mirror: %v", err, mirrorErr)
		}
	}
	return nil
}

// Refresh refetches expenses and budgets in parallel. The legs are
// independent: a failure on one does not discard the other's result.
// Each leg is tagged with a generation taken before the fetch; a
// completion older than what is already applied is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.nextGen.Add(1)

	var g errgroup.Group
	g.Go(func() error {
		expenses, err := c.api.ListExpenses(ctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		c.applyExpenses(gen, expenses)
		return nil
	})
	g.Go(func() error {
		budgets, err := c.api.ListBudgets(ctx)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		c.applyBudgets(gen, budgets)
		return nil
	})
	err := g.Wait()

	c.mu.RLock()
	expenses, budgets := c.expenses, c.budgets
	c.mu.RUnlock()

	if c.OnChange != nil {
		c.OnChange()
	}
	if err == nil {
		c.saveToMirror(ctx, expenses, budgets)
		c.publishRefresh(ctx, len(expenses), len(budgets))
	}
	return err
}

// applyExpenses installs a fetched expense set unless a newer fetch has
// already landed.
func (c *Controller) applyExpenses(gen uint64, expenses []core.Expense) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen <= c.expenseGen {
		slog.Debug("Discarding stale expense fetch", "generation", gen, "applied", c.expenseGen)
		return false
	}
	c.expenseGen = gen
	c.expenses = expenses
	c.ready = true
	c.stale = false
	return true
}

func (c *Controller) applyBudgets(gen uint64, budgets []core.Budget) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen <= c.budgetGen {
		slog.Debug("Discarding stale budget fetch", "generation", gen, "applied", c.budgetGen)
		return false
	}
	c.budgetGen = gen
	c.budgets = budgets
	c.ready = true
	c.stale = false
	return true
}

// CreateExpense validates, creates upstream, and refreshes both sets.
func (c *Controller) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := c.api.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	c.afterMutation(ctx)
	return created, nil
}

func (c *Controller) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	updated, err := c.api.UpdateExpense(ctx, id, in)
	if err != nil {
		return core.Expense{}, err
	}
	c.afterMutation(ctx)
	return updated, nil
}

func (c *Controller) DeleteExpense(ctx context.Context, id int64) error {
	if err := c.api.DeleteExpense(ctx, id); err != nil {
		return err
	}
	c.afterMutation(ctx)
	return nil
}

func (c *Controller) CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	created, err := c.api.CreateBudget(ctx, in)
	if err != nil {
		return core.Budget{}, err
	}
	c.afterMutation(ctx)
	return created, nil
}

// afterMutation refreshes the sets and raises alerts for budgets that
// the mutation pushed over their limit. Refresh failures are logged,
// not returned: the mutation itself already succeeded upstream.
func (c *Controller) afterMutation(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Refresh after mutation failed", "error", err)
		return
	}
	c.publishDangerAlerts(ctx)
}

func (c *Controller) publishDangerAlerts(ctx context.Context) {
	if c.events == nil {
		return
	}
	insights := c.BudgetInsights()
	byCategory := make(map[string]float64, len(insights.Budgets))
	for _, b := range insights.Budgets {
		byCategory[b.Category] = b.Percentage
	}
	for _, a := range insights.Alerts {
		if a.Priority != core.PriorityDanger {
			continue
		}
		if err := c.events.PublishBudgetAlert(ctx, a.Category, a.Priority, a.Message, byCategory[a.Category]); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"category", a.Category, "error", err)
		}
	}
}

func (c *Controller) publishRefresh(ctx context.Context, expenseCount, budgetCount int) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishRefresh(ctx, expenseCount, budgetCount); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh event", "error", err)
	}
}

func (c *Controller) saveToMirror(ctx context.Context, expenses []core.Expense, budgets []core.Budget) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.ReplaceExpenses(ctx, expenses); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror expenses", "error", err)
	}
	if err := c.mirror.ReplaceBudgets(ctx, budgets); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror budgets", "error", err)
	}
}

func (c *Controller) loadFromMirror(ctx context.Context) error {
	if c.mirror == nil {
		return fmt.Errorf("no mirror configured")
	}
	expenses, err := c.mirror.LoadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	budgets, err := c.mirror.LoadBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	c.mu.Lock()
	c.expenses = expenses
	c.budgets = budgets
	c.ready = true
	c.stale = true
	c.mu.Unlock()
	slog.InfoContext(ctx, "Serving stale data from mirror",
		"expenses", len(expenses), "budgets", len(budgets))
	return nil
}

// Analytics resolves the filter against the current set and aggregates.
// Returns nil when the filtered set is empty.
func (c *Controller) Analytics(f core.FilterState) *core.Snapshot {
	now := c.now()
	iv := core.Resolve(f.Range, now, f.CustomStart, f.CustomEnd)

	c.mu.RLock()
	expenses := c.expenses
	c.mu.RUnlock()

	filtered := core.FilterExpenses(expenses, f.Category, iv)
	return core.Aggregate(filtered, now)
}

// BudgetInsights evaluates all budgets against the full expense set.
func (c *Controller) BudgetInsights() core.BudgetInsights {
	c.mu.RLock()
	expenses, budgets := c.expenses, c.budgets
	c.mu.RUnlock()
	return core.EvaluateBudgets(budgets, expenses)
}

// Expenses returns a copy of the current expense set.
func (c *Controller) Expenses() []core.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Expense, len(c.expenses))
	copy(out, c.expenses)
	return out
}

// Ready reports whether at least one load (upstream or mirror) landed.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Stale reports whether the current data came from the mirror rather
// than a live upstream fetch.
func (c *Controller) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
