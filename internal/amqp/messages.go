package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage announces that the in-memory sets were replaced after a
// successful upstream fetch.
type RefreshMessage struct {
	ExpenseCount int       `json:"expense_count"`
	BudgetCount  int       `json:"budget_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// BudgetAlertMessage carries a budget that crossed its danger threshold.
type BudgetAlertMessage struct {
	Category   string    `json:"category"`
	Priority   int       `json:"priority"`
	Message    string    `json:"message"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRefreshMessage(expenseCount, budgetCount int) *RefreshMessage {
	return &RefreshMessage{
		ExpenseCount: expenseCount,
		BudgetCount:  budgetCount,
		Timestamp:    time.Now(),
	}
}

func NewBudgetAlertMessage(category string, priority int, message string, percentage float64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Category:   category,
		Priority:   priority,
		Message:    message,
		Percentage: percentage,
		Timestamp:  time.Now(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var m RefreshMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var m BudgetAlertMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
