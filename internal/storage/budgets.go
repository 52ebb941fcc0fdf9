package storage

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/core"
)

const budgetColumns = "id, user_id, category_id, month, limit_cents"

func (r *SQLRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, r.db, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id))
	if err != nil {
		return core.Budget{}, notFound("budget", id, err)
	}
	return b, nil
}

func (r *SQLRepository) FindBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error) {
	row := r.queryRow(ctx, r.db,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND category_id = ? AND month = ?",
		userID, categoryID, string(month))
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound("budget", fmt.Sprintf("(%d, %d, %s)", userID, categoryID, month), err)
	}
	return b, nil
}

// UpsertBudget relies on the (user_id, category_id, month) unique constraint:
// a conflicting insert updates the limit of the existing row and keeps its id.
func (r *SQLRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row := r.queryRow(ctx, r.db,
		`INSERT INTO budgets (user_id, category_id, month, limit_cents) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month) DO UPDATE SET limit_cents = excluded.limit_cents
		RETURNING `+budgetColumns,
		b.UserID, b.CategoryID, string(b.Month), b.Limit.Cents)
	saved, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, mapWriteError("upsert budget", err)
	}
	slog.InfoContext(ctx, "Budget saved",
		"id", saved.ID,
		"category_id", saved.CategoryID,
		"month", saved.Month,
		"limit_cents", saved.Limit.Cents)
	return saved, nil
}

func (r *SQLRepository) ListBudgetsByMonth(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error) {
	rows, err := r.query(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND month = ? ORDER BY id",
		userID, string(month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLRepository) DeleteBudget(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "budgets", id)
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b     core.Budget
		month string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &month, &b.Limit.Cents); err != nil {
		return core.Budget{}, err
	}
	b.Month = core.Month(month)
	return b, nil
}
