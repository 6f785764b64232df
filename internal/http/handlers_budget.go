package http

import (
	"encoding/json"
	"net/http"

	"capify/internal/core"
)

// maxAlerts caps the alerts surfaced per insights response; evaluation
// itself never truncates.
const maxAlerts = 5

type (
	budgetRequest struct {
		Category string      `json:"category"`
		Amount   json.Number `json:"amount"`
		Period   string      `json:"period"`
	}

	budgetDTO struct {
		ID       int64   `json:"id"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Period   string  `json:"period"`
	}

	evaluatedBudgetDTO struct {
		budgetDTO
		Spent      float64 `json:"spent"`
		Remaining  float64 `json:"remaining"`
		Percentage float64 `json:"percentage"`
		Status     string  `json:"status"`
	}

	alertDTO struct {
		Priority int    `json:"priority"`
		Category string `json:"category,omitempty"`
		Message  string `json:"message"`
	}

	comparisonRowDTO struct {
		Category   string   `json:"category"`
		Budgeted   float64  `json:"budgeted"`
		Spent      float64  `json:"spent"`
		Variance   float64  `json:"variance"`
		Efficiency *float64 `json:"efficiency,omitempty"`
	}

	comparisonDTO struct {
		Rows              []comparisonRowDTO `json:"rows"`
		TotalBudgeted     float64            `json:"total_budgeted"`
		TotalSpent        float64            `json:"total_spent"`
		TotalVariance     float64            `json:"total_variance"`
		AverageEfficiency float64            `json:"average_efficiency"`
		DangerCount       int                `json:"danger_count"`
		SafeCount         int                `json:"safe_count"`
	}

	insightsResponse struct {
		Budgets         []evaluatedBudgetDTO `json:"budgets"`
		Alerts          []alertDTO           `json:"alerts"`
		Comparison      comparisonDTO        `json:"comparison"`
		Recommendations []string             `json:"recommendations"`
	}
)

func (s *Server) handleBudgetInsights(w http.ResponseWriter, r *http.Request) {
	insights := s.controller.BudgetInsights()

	resp := insightsResponse{
		Budgets:         make([]evaluatedBudgetDTO, 0, len(insights.Budgets)),
		Alerts:          make([]alertDTO, 0, maxAlerts),
		Recommendations: insights.Recommendations,
	}
	for _, b := range insights.Budgets {
		resp.Budgets = append(resp.Budgets, evaluatedBudgetDTO{
			budgetDTO: budgetDTO{
				ID:       b.ID,
				Category: b.Category,
				Amount:   b.Amount.Float(),
				Period:   string(b.Period),
			},
			Spent:      b.Spent.Float(),
			Remaining:  b.Remaining.Float(),
			Percentage: b.Percentage,
			Status:     string(b.Status),
		})
	}
	for i, a := range insights.Alerts {
		if i == maxAlerts {
			break
		}
		resp.Alerts = append(resp.Alerts, alertDTO{
			Priority: a.Priority,
			Category: a.Category,
			Message:  a.Message,
		})
	}

	c := insights.Comparison
	resp.Comparison = comparisonDTO{
		Rows:              make([]comparisonRowDTO, 0, len(c.Rows)),
		TotalBudgeted:     c.TotalBudgeted.Float(),
		TotalSpent:        c.TotalSpent.Float(),
		TotalVariance:     c.TotalVariance.Float(),
		AverageEfficiency: c.AverageEfficiency,
		DangerCount:       c.DangerCount,
		SafeCount:         c.SafeCount,
	}
	for _, row := range c.Rows {
		dto := comparisonRowDTO{
			Category: row.Category,
			Budgeted: row.Budgeted.Float(),
			Spent:    row.Spent.Float(),
			Variance: row.Variance.Float(),
		}
		if row.EfficiencyDefined {
			eff := row.Efficiency
			dto.Efficiency = &eff
		}
		resp.Comparison.Rows = append(resp.Comparison.Rows, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in := core.BudgetInput{
		Category: req.Category,
		Amount:   core.Money{Cents: cents},
		Period:   core.Period(req.Period),
	}

	created, err := s.controller.CreateBudget(r.Context(), in)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"budget": budgetDTO{
		ID:       created.ID,
		Category: created.Category,
		Amount:   created.Amount.Float(),
		Period:   string(created.Period),
	}})
}
