// Package storage keeps a SQLite mirror of the last successfully
// fetched upstream sets. The mirror is a fallback cache, not a source
// of truth: each refresh replaces the tables wholesale.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"capify/internal/core"

	_ "modernc.org/sqlite"
)

type Mirror struct {
	db *sql.DB
}

func NewMirror(dbPath string) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// ReplaceExpenses swaps the mirrored expense set in one transaction so
// readers never observe a half-written snapshot.
func (m *Mirror) ReplaceExpenses(ctx context.Context, expenses []core.Expense) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	for _, e := range expenses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, created_at, title, amount_cents, category, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.Title, e.Amount.Cents, e.Category, e.Description)
		if err != nil {
			return fmt.Errorf("insert expense %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expenses: %w", err)
	}
	return nil
}

func (m *Mirror) ReplaceBudgets(ctx context.Context, budgets []core.Budget) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}
	for _, b := range budgets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, category, amount_cents, period) VALUES (?, ?, ?, ?)`,
			b.ID, b.Category, b.Amount.Cents, string(b.Period))
		if err != nil {
			return fmt.Errorf("insert budget %d: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit budgets: %w", err)
	}
	return nil
}

func (m *Mirror) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, created_at, title, amount_cents, category, description FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var createdAt string
		if err := rows.Scan(&e.ID, &createdAt, &e.Title, &e.Amount.Cents, &e.Category, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, category, amount_cents, period FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var period string
		if err := rows.Scan(&b.ID, &b.Category, &b.Amount.Cents, &period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.Period(period)
		out = append(out, b)
	}
	return out, rows.Err()
}
