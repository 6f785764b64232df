package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"capify/internal/core"
)

type (
	expenseRequest struct {
		Title       string      `json:"title"`
		Amount      json.Number `json:"amount"`
		Category    string      `json:"category"`
		Description string      `json:"description"`
	}

	expenseDTO struct {
		ID          int64   `json:"id"`
		CreatedAt   string  `json:"created_at"`
		Title       string  `json:"title"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}
)

func expenseDTOFrom(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:          e.ID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		Title:       e.Title,
		Amount:      e.Amount.Float(),
		Category:    e.Category,
		Description: e.Description,
	}
}

// toInput validates the amount eagerly so a bad amount is reported
// before any upstream call.
func (req expenseRequest) toInput() (core.ExpenseInput, error) {
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Title:       req.Title,
		Amount:      core.Money{Cents: cents},
		Category:    req.Category,
		Description: req.Description,
	}, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.controller.Expenses()
	out := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseDTOFrom(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.controller.CreateExpense(r.Context(), in)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expenseDTOFrom(created)})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.controller.UpdateExpense(r.Context(), id, in)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expense": expenseDTOFrom(updated)})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	if err := s.controller.DeleteExpense(r.Context(), id); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}
