package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// BudgetMonitor raises a BudgetAlert when an expense write moves a category
// across the warning threshold or over its monthly budget.
type BudgetMonitor struct {
	budgets    ports.BudgetStore
	expenses   ports.ExpenseStore
	categories ports.CategoryStore
	publisher  ports.EventPublisher
	now        func() time.Time
}

var _ ExpenseObserver = (*BudgetMonitor)(nil)

func NewBudgetMonitor(budgets ports.BudgetStore, expenses ports.ExpenseStore, categories ports.CategoryStore, publisher ports.EventPublisher) *BudgetMonitor {
	return &BudgetMonitor{
		budgets:    budgets,
		expenses:   expenses,
		categories: categories,
		publisher:  publisher,
		now:        time.Now,
	}
}

// AlertMessage is the user-facing text of an alert.
func AlertMessage(level core.AlertLevel, categoryName string) string {
	switch level {
	case core.AlertExceeded:
		return "You have exceeded your monthly budget for " + categoryName
	case core.AlertWarning:
		return "You are nearing your monthly budget for " + categoryName
	default:
		return ""
	}
}

// ExpenseChanged implements ExpenseObserver. Deletes only lower spending and
// never raise alerts.
func (m *BudgetMonitor) ExpenseChanged(ctx context.Context, ownerID int64, before, after *core.Expense) {
	if after == nil || after.CategoryID == nil {
		return
	}
	alert, err := m.Check(ctx, ownerID, before, after)
	if err != nil {
		slog.ErrorContext(ctx, "Budget check failed", "expense_id", after.ID, "error", err)
		return
	}
	if alert == nil {
		return
	}

	slog.InfoContext(ctx, "Budget alert raised",
		"user_id", alert.UserID,
		"category_id", alert.CategoryID,
		"level", alert.Level)
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishBudgetAlert(ctx, *alert); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert", "error", err)
	}
}

// Check compares the level of after's category and month with the level it
// had before the write. It returns an alert only when the level rose to
// warning or exceeded.
func (m *BudgetMonitor) Check(ctx context.Context, userID int64, before, after *core.Expense) (*core.BudgetAlert, error) {
	categoryID := *after.CategoryID
	month := core.MonthOf(after.Date)

	budget, err := m.budgets.FindBudget(ctx, userID, categoryID, month)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find budget: %w", err)
	}

	from, to := month.Bounds()
	expenses, err := m.expenses.ListExpensesInRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	var spent core.Money
	for _, e := range expenses {
		if e.CategoryID != nil && *e.CategoryID == categoryID {
			spent = spent.Add(e.Amount)
		}
	}

	previous := spent.Sub(after.Amount)
	if before != nil && before.CategoryID != nil && *before.CategoryID == categoryID && core.MonthOf(before.Date) == month {
		previous = previous.Add(before.Amount)
	}

	level := core.LevelFor(spent, budget.Limit)
	if rank(level) <= rank(core.LevelFor(previous, budget.Limit)) {
		return nil, nil
	}

	category, err := m.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	return &core.BudgetAlert{
		UserID:       userID,
		CategoryID:   categoryID,
		CategoryName: category.Name,
		Month:        month,
		Level:        level,
		Spent:        spent,
		Limit:        budget.Limit,
		Message:      AlertMessage(level, category.Name),
		RaisedAt:     m.now(),
	}, nil
}

func rank(l core.AlertLevel) int {
	switch l {
	case core.AlertWarning:
		return 1
	case core.AlertExceeded:
		return 2
	default:
		return 0
	}
}
