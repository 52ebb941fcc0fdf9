package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"spendwise/internal/core"
)

const expenseColumns = "id, user_id, category_id, amount_cents, description, date"

func (r *SQLRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	err := r.queryRow(ctx, r.db,
		"INSERT INTO expenses (user_id, category_id, amount_cents, description, date) VALUES (?, ?, ?, ?, ?) RETURNING id",
		e.UserID, nullableID(e.CategoryID), e.Amount.Cents, e.Description, e.Date.String(),
	).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, mapWriteError("insert expense", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

func (r *SQLRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.queryRow(ctx, r.db, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound("expense", id, err)
	}
	return e, nil
}

func (r *SQLRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.exec(ctx,
		"UPDATE expenses SET user_id = ?, category_id = ?, amount_cents = ?, description = ?, date = ? WHERE id = ?",
		e.UserID, nullableID(e.CategoryID), e.Amount.Cents, e.Description, e.Date.String(), e.ID,
	)
	if err != nil {
		return core.Expense{}, mapWriteError("update expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Expense updated", "id", e.ID)
	return e, nil
}

func (r *SQLRepository) DeleteExpense(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "expenses", id)
}

func (r *SQLRepository) ListExpensesByOwner(ctx context.Context, userID int64) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC", userID)
}

func (r *SQLRepository) ListExpensesInRange(ctx context.Context, userID int64, from, to core.Date) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date DESC, id DESC",
		userID, from.String(), to.String())
}

func (r *SQLRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e        core.Expense
		category sql.NullInt64
		date     string
	)
	if err := s.Scan(&e.ID, &e.UserID, &category, &e.Amount.Cents, &e.Description, &date); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored expense %d: %w", e.ID, err)
	}
	e.Date = d
	e.CategoryID = idPtr(category)
	return e, nil
}
