package ports

import (
	"context"

	"spendwise/internal/core"
)

// Stores return core.ErrNotFound (wrapped) when a lookup by id or key misses.
type (
	UserStore interface {
		// CreateUserWithCategories inserts the user and the given categories
		// atomically. Category owners are rewritten to the new user. Returns
		// core.ErrDuplicateEmail when the email is taken.
		CreateUserWithCategories(ctx context.Context, u core.User, seeds []core.Category) (core.User, []core.Category, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		EmailExists(ctx context.Context, email string) (bool, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// ListCategoriesByOwner returns the categories owned by userID only.
		ListCategoriesByOwner(ctx context.Context, userID int64) ([]core.Category, error)
		// ListCategoriesVisibleTo returns owned categories plus global defaults.
		ListCategoriesVisibleTo(ctx context.Context, userID int64) ([]core.Category, error)
		// DeleteCategory removes the category; expenses referencing it become
		// uncategorized and its budgets are removed.
		DeleteCategory(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
		// ListExpensesByOwner orders by date descending, newest id first on ties.
		ListExpensesByOwner(ctx context.Context, userID int64) ([]core.Expense, error)
		// ListExpensesInRange is inclusive on both ends, same ordering.
		ListExpensesInRange(ctx context.Context, userID int64, from, to core.Date) ([]core.Expense, error)
	}

	BudgetStore interface {
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		FindBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error)
		// UpsertBudget inserts the budget or, when a row for the same
		// (user, category, month) exists, overwrites its limit only. The
		// operation is atomic with respect to concurrent upserts.
		UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgetsByMonth(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	Store interface {
		UserStore
		CategoryStore
		ExpenseStore
		BudgetStore
		Close() error
	}
)

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev core.ExpenseEvent) error
	PublishBudgetAlert(ctx context.Context, alert core.BudgetAlert) error
}
