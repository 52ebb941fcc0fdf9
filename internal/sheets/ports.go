package sheets

import (
	"context"
	"time"

	"spendwise/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror appends one row per expense change to an external sheet.
	ExpenseMirror interface {
		AppendExpense(ctx context.Context, row ExpenseRow) (rowRef string, err error)
	}

	// AlertMirror appends one row per budget alert.
	AlertMirror interface {
		AppendAlert(ctx context.Context, row AlertRow) (rowRef string, err error)
	}

	Mirror interface {
		ExpenseMirror
		AlertMirror
	}
)

// ExpenseRow is the denormalized view of an expense written to the sheet.
type ExpenseRow struct {
	Event       core.ExpenseEventType
	ExpenseID   int64
	Date        core.Date
	Description string
	Amount      core.Money
	Currency    string
	Category    string // empty when uncategorized
	UserEmail   string
}

// AlertRow is the sheet view of a budget alert.
type AlertRow struct {
	RaisedAt  time.Time
	Month     core.Month
	UserEmail string
	Category  string
	Level     core.AlertLevel
	Spent     core.Money
	Limit     core.Money
	Message   string
}

// Values returns the cells of the row in column order A:H.
func (r ExpenseRow) Values() []any {
	return []any{
		r.Date.String(),
		r.Description,
		r.Amount.String(),
		r.Currency,
		r.Category,
		r.UserEmail,
		r.ExpenseID,
		string(r.Event),
	}
}

// Values returns the cells of the row in column order A:H.
func (r AlertRow) Values() []any {
	return []any{
		r.RaisedAt.UTC().Format(time.RFC3339),
		string(r.Month),
		r.UserEmail,
		r.Category,
		string(r.Level),
		r.Spent.String(),
		r.Limit.String(),
		r.Message,
	}
}
