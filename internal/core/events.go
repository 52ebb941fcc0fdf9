package core

import "time"

const (
	ExpenseCreated ExpenseEventType = "expense.created"
	ExpenseUpdated ExpenseEventType = "expense.updated"
	ExpenseDeleted ExpenseEventType = "expense.deleted"
)

type ExpenseEventType string

// ExpenseEvent is a lightweight notification; consumers load the expense by id.
type ExpenseEvent struct {
	Type       ExpenseEventType
	ExpenseID  int64
	UserID     int64
	OccurredAt time.Time
}

// BudgetAlert is raised when spending in a category reaches the warning
// threshold or exceeds the month's budget.
type BudgetAlert struct {
	UserID       int64
	CategoryID   int64
	CategoryName string
	Month        Month
	Level        AlertLevel
	Spent        Money
	Limit        Money
	Message      string
	RaisedAt     time.Time
}
