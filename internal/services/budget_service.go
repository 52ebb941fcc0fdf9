package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// BudgetService manages per-category monthly limits.
type BudgetService struct {
	budgets    ports.BudgetStore
	categories ports.CategoryStore
	summaries  SummaryInvalidator
}

func NewBudgetService(budgets ports.BudgetStore, categories ports.CategoryStore, summaries SummaryInvalidator) *BudgetService {
	return &BudgetService{budgets: budgets, categories: categories, summaries: summaries}
}

// Set creates the budget for (user, category, month) or overwrites the limit
// of the existing one. The category must be visible to the user.
func (s *BudgetService) Set(ctx context.Context, user core.User, categoryID int64, month core.Month, limit core.Money) (core.Budget, error) {
	b := core.Budget{
		UserID:     user.ID,
		CategoryID: categoryID,
		Month:      month,
		Limit:      limit,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := resolveCategory(ctx, s.categories, user.ID, categoryID); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.budgets.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	if s.summaries != nil {
		s.summaries.Invalidate(ctx, user.ID, saved.Month)
	}
	return saved, nil
}

func (s *BudgetService) List(ctx context.Context, user core.User, month core.Month) ([]core.Budget, error) {
	if _, err := core.ParseMonth(string(month)); err != nil {
		return nil, err
	}
	return s.budgets.ListBudgetsByMonth(ctx, user.ID, month)
}

// Delete removes one of the user's budgets. Budgets of other users are
// reported as not found.
func (s *BudgetService) Delete(ctx context.Context, user core.User, id int64) error {
	b, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if b.UserID != user.ID {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err := s.budgets.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if s.summaries != nil {
		s.summaries.Invalidate(ctx, user.ID, b.Month)
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id, "user_id", user.ID)
	return nil
}
