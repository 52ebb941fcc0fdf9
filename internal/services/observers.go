package services

import (
	"context"

	"spendwise/internal/core"
)

// ExpenseObserver is notified after a successful expense write. ownerID is
// the user the expense belongs to, which differs from the caller when
// ownership is not enforced. before is nil on create, after is nil on delete.
// Observers log their own failures.
type ExpenseObserver interface {
	ExpenseChanged(ctx context.Context, ownerID int64, before, after *core.Expense)
}

// SummaryInvalidator drops cached month summaries.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, userID int64, month core.Month)
	InvalidateUser(ctx context.Context, userID int64)
}
