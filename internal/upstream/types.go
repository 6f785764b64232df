package upstream

import (
	"time"

	"capify/internal/core"
)

// Wire types for the expense API. Field names follow the upstream JSON,
// which exposes uppercase ID and CreatedAt on records.
type (
	expenseDTO struct {
		ID          int64     `json:"ID"`
		CreatedAt   time.Time `json:"CreatedAt"`
		Title       string    `json:"title"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
	}

	budgetDTO struct {
		ID       int64   `json:"ID"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Period   string  `json:"period"`
	}

	expenseListResponse struct {
		Expenses []expenseDTO `json:"expenses"`
	}

	expenseResponse struct {
		Expense expenseDTO `json:"expense"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}

	expensePayload struct {
		Title       string  `json:"title"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}

	budgetPayload struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Period   string  `json:"period"`
	}
)

func (d expenseDTO) toDomain() core.Expense {
	return core.Expense{
		ID:          d.ID,
		CreatedAt:   d.CreatedAt,
		Title:       d.Title,
		Amount:      core.MoneyFromFloat(d.Amount),
		Category:    d.Category,
		Description: d.Description,
	}
}

func (d budgetDTO) toDomain() core.Budget {
	return core.Budget{
		ID:       d.ID,
		Category: d.Category,
		Amount:   core.MoneyFromFloat(d.Amount),
		Period:   core.Period(d.Period),
	}
}

func expensePayloadFrom(in core.ExpenseInput) expensePayload {
	return expensePayload{
		Title:       in.Title,
		Amount:      in.Amount.Float(),
		Category:    in.Category,
		Description: in.Description,
	}
}

func budgetPayloadFrom(in core.BudgetInput) budgetPayload {
	return budgetPayload{
		Category: in.Category,
		Amount:   in.Amount.Float(),
		Period:   string(in.Period),
	}
}
