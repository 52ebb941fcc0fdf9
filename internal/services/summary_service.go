package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// SummaryStore is the read side the summary needs.
type SummaryStore interface {
	ports.CategoryStore
	ports.BudgetStore
	ports.ExpenseStore
}

// SummaryService builds month summaries and caches them per user and month.
type SummaryService struct {
	store SummaryStore
	cache cache.Cache[core.MonthSummary]
}

var (
	_ SummaryInvalidator = (*SummaryService)(nil)
	_ ExpenseObserver    = (*SummaryService)(nil)
)

// NewSummaryService creates the service. A nil cache disables caching.
func NewSummaryService(store SummaryStore, c cache.Cache[core.MonthSummary]) *SummaryService {
	return &SummaryService{store: store, cache: c}
}

// Month returns the budget-vs-spending summary of the user for month.
func (s *SummaryService) Month(ctx context.Context, user core.User, month core.Month) (core.MonthSummary, error) {
	if _, err := core.ParseMonth(string(month)); err != nil {
		return core.MonthSummary{}, err
	}

	key := summaryKey(user.ID, month)
	if s.cache != nil {
		if summary, ok := s.cache.Get(ctx, key); ok {
			return summary, nil
		}
	}

	var (
		categories []core.Category
		budgets    []core.Budget
		expenses   []core.Expense
	)
	from, to := month.Bounds()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategoriesVisibleTo(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgetsByMonth(gctx, user.ID, month)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpensesInRange(gctx, user.ID, from, to)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.MonthSummary{}, err
	}

	summary := core.BuildMonthSummary(month, categories, budgets, expenses)
	if s.cache != nil {
		s.cache.Set(ctx, key, summary)
	}
	return summary, nil
}

// Invalidate drops the cached summary of one month.
func (s *SummaryService) Invalidate(ctx context.Context, userID int64, month core.Month) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, summaryKey(userID, month))
}

// InvalidateUser drops every cached summary of the user.
func (s *SummaryService) InvalidateUser(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	n := s.cache.DeletePrefix(ctx, userKeyPrefix(userID))
	slog.DebugContext(ctx, "Cached summaries dropped", "user_id", userID, "count", n)
}

// ExpenseChanged implements ExpenseObserver.
func (s *SummaryService) ExpenseChanged(ctx context.Context, ownerID int64, before, after *core.Expense) {
	if before != nil {
		s.Invalidate(ctx, ownerID, core.MonthOf(before.Date))
	}
	if after != nil {
		s.Invalidate(ctx, ownerID, core.MonthOf(after.Date))
	}
}

// The trailing colon keeps user 1 from matching user 12.
func userKeyPrefix(userID int64) string {
	return fmt.Sprintf("summary:%d:", userID)
}

func summaryKey(userID int64, month core.Month) string {
	return userKeyPrefix(userID) + string(month)
}
