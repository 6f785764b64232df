package core

import (
	"fmt"
	"sort"
)

// Budget status thresholds, in percent of the budgeted amount.
const (
	WarningThreshold   = 80.0
	DangerThreshold    = 100.0
	UnderusedThreshold = 50.0

	OverallCritical = 90.0
	OverallWarning  = 75.0

	HighEfficiency = 20.0
)

const (
	StatusSafe    BudgetStatus = "safe"
	StatusWarning BudgetStatus = "warning"
	StatusDanger  BudgetStatus = "danger"
)

// Alert priorities, lower is more urgent.
const (
	PriorityOverall  = 0
	PriorityDanger   = 1
	PriorityWarning  = 2
	PriorityPositive = 3
)

type (
	BudgetStatus string

	// EvaluatedBudget is a budget with its spending figures attached.
	EvaluatedBudget struct {
		Budget
		Spent      Money
		Remaining  Money
		Percentage float64
		Status     BudgetStatus
	}

	// Alert is a prioritized message about budget health.
	Alert struct {
		Priority int
		Category string
		Message  string
	}

	// ComparisonRow pairs one budget with its actual spending.
	// Efficiency is the surplus as a percent of the budgeted amount;
	// EfficiencyDefined is false when the budgeted amount is zero.
	ComparisonRow struct {
		Category          string
		Budgeted          Money
		Spent             Money
		Variance          Money
		Efficiency        float64
		EfficiencyDefined bool
	}

	// BudgetComparison aggregates the per-budget rows.
	BudgetComparison struct {
		Rows              []ComparisonRow
		TotalBudgeted     Money
		TotalSpent        Money
		TotalVariance     Money
		AverageEfficiency float64
		DangerCount       int
		SafeCount         int
	}

	// BudgetInsights is the full output of a budget evaluation pass.
	BudgetInsights struct {
		Budgets         []EvaluatedBudget
		Alerts          []Alert
		Comparison      BudgetComparison
		Recommendations []string
	}
)

// EvaluateBudgets computes spending status, alerts, a budget-vs-actual
// comparison, and recommendations for the given budgets. Spent is summed
// over all same-category expenses in the passed-in set; the budget period
// is informational and does not window the sum, so the caller decides
// which expenses are in scope by what it passes. Alerts are sorted by
// priority ascending and never truncated here.
func EvaluateBudgets(budgets []Budget, expenses []Expense) BudgetInsights {
	spentByCategory := make(map[string]int64)
	for _, e := range expenses {
		spentByCategory[e.Category] += e.Amount.Cents
	}

	evaluated := make([]EvaluatedBudget, 0, len(budgets))
	alerts := make([]Alert, 0)
	rows := make([]ComparisonRow, 0, len(budgets))
	var totalBudgeted, totalSpent int64
	var efficiencySum float64
	var efficiencyCount, dangerCount, safeCount int

	for _, b := range budgets {
		spent := spentByCategory[b.Category]
		remaining := b.Amount.Cents - spent

		var pct float64
		if b.Amount.Cents > 0 {
			pct = float64(spent) / float64(b.Amount.Cents) * 100
		}

		status := StatusSafe
		switch {
		case pct >= DangerThreshold:
			status = StatusDanger
		case pct >= WarningThreshold:
			status = StatusWarning
		}

		evaluated = append(evaluated, EvaluatedBudget{
			Budget:     b,
			Spent:      Money{Cents: spent},
			Remaining:  Money{Cents: remaining},
			Percentage: pct,
			Status:     status,
		})

		switch status {
		case StatusDanger:
			dangerCount++
			alerts = append(alerts, Alert{
				Priority: PriorityDanger,
				Category: b.Category,
				Message:  fmt.Sprintf("%s is over budget: spent %s of %s (%.0f%%)", b.Category, Money{Cents: spent}, b.Amount, pct),
			})
		case StatusWarning:
			alerts = append(alerts, Alert{
				Priority: PriorityWarning,
				Category: b.Category,
				Message:  fmt.Sprintf("%s is approaching its limit: %.0f%% used", b.Category, pct),
			})
		default:
			safeCount++
			if pct < UnderusedThreshold {
				alerts = append(alerts, Alert{
					Priority: PriorityPositive,
					Category: b.Category,
					Message:  fmt.Sprintf("%s is well under budget: only %.0f%% used", b.Category, pct),
				})
			}
		}

		row := ComparisonRow{
			Category: b.Category,
			Budgeted: b.Amount,
			Spent:    Money{Cents: spent},
			Variance: Money{Cents: remaining},
		}
		if b.Amount.Cents > 0 {
			row.Efficiency = float64(remaining) / float64(b.Amount.Cents) * 100
			row.EfficiencyDefined = true
			efficiencySum += row.Efficiency
			efficiencyCount++
		}
		rows = append(rows, row)

		totalBudgeted += b.Amount.Cents
		totalSpent += spent
	}

	var overallPct float64
	if totalBudgeted > 0 {
		overallPct = float64(totalSpent) / float64(totalBudgeted) * 100
	}
	if overallPct >= OverallCritical {
		alerts = append(alerts, Alert{
			Priority: PriorityOverall,
			Message:  fmt.Sprintf("overall spending is critical: %.0f%% of all budgets used", overallPct),
		})
	} else if overallPct >= OverallWarning {
		alerts = append(alerts, Alert{
			Priority: PriorityOverall,
			Message:  fmt.Sprintf("overall spending is high: %.0f%% of all budgets used", overallPct),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority < alerts[j].Priority
	})

	var avgEfficiency float64
	if efficiencyCount > 0 {
		avgEfficiency = efficiencySum / float64(efficiencyCount)
	}

	comparison := BudgetComparison{
		Rows:              rows,
		TotalBudgeted:     Money{Cents: totalBudgeted},
		TotalSpent:        Money{Cents: totalSpent},
		TotalVariance:     Money{Cents: totalBudgeted - totalSpent},
		AverageEfficiency: avgEfficiency,
		DangerCount:       dangerCount,
		SafeCount:         safeCount,
	}

	return BudgetInsights{
		Budgets:         evaluated,
		Alerts:          alerts,
		Comparison:      comparison,
		Recommendations: recommendations(evaluated, avgEfficiency),
	}
}

func recommendations(evaluated []EvaluatedBudget, avgEfficiency float64) []string {
	recs := make([]string, 0, 3)
	over := make([]string, 0)
	for _, b := range evaluated {
		if b.Status == StatusDanger {
			over = append(over, b.Category)
		}
	}
	for _, cat := range over {
		recs = append(recs, fmt.Sprintf("Reduce spending in %s, the budget is exhausted", cat))
	}
	if avgEfficiency > HighEfficiency {
		recs = append(recs, "You have surplus across your budgets, consider reallocating it to savings")
	}
	recs = append(recs, "Review your budgets monthly to keep them aligned with your habits")
	return recs
}
