// Package upstream is the HTTP client for the expense API. It translates
// wire records to domain types and maps upstream failures onto a small
// set of sentinel errors the rest of the service branches on.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"capify/internal/core"
)

var (
	ErrUnauthorized = errors.New("upstream rejected the token")
	ErrConflict     = errors.New("upstream conflict")
	ErrNotFound     = errors.New("upstream record not found")
	ErrUnavailable  = errors.New("upstream unavailable")
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// NewClient builds a client for the API at baseURL. A zero timeout uses
// the default.
func NewClient(baseURL string, tokens TokenStore, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var out expenseListResponse
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &out); err != nil {
		return nil, err
	}
	expenses := make([]core.Expense, 0, len(out.Expenses))
	for _, d := range out.Expenses {
		expenses = append(expenses, d.toDomain())
	}
	return expenses, nil
}

func (c *Client) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	var out expenseResponse
	if err := c.do(ctx, http.MethodPost, "/expenses", expensePayloadFrom(in), &out); err != nil {
		return core.Expense{}, err
	}
	return out.Expense.toDomain(), nil
}

func (c *Client) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	var out expenseResponse
	path := "/expenses/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, expensePayloadFrom(in), &out); err != nil {
		return core.Expense{}, err
	}
	return out.Expense.toDomain(), nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	path := "/expenses/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListBudgets returns the declared budgets. The upstream responds with a
// bare JSON array, unlike the wrapped expense list.
func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []budgetDTO
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &out); err != nil {
		return nil, err
	}
	budgets := make([]core.Budget, 0, len(out))
	for _, d := range out {
		budgets = append(budgets, d.toDomain())
	}
	return budgets, nil
}

func (c *Client) CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	var out budgetDTO
	if err := c.do(ctx, http.MethodPost, "/budgets", budgetPayloadFrom(in), &out); err != nil {
		return core.Budget{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	var apiErr errorResponse
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// The token is dead; drop it so we stop presenting it.
		if err := c.tokens.Clear(); err != nil {
			return fmt.Errorf("%w: clearing token: %v", ErrUnauthorized, err)
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, msg)
	}
}
