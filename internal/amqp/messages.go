package amqp

import (
	"encoding/json"
	"time"

	"spendwise/internal/core"
)

// Message types, carried in the AMQP Type property.
const (
	TypeExpenseEvent = "expense_event"
	TypeBudgetAlert  = "budget_alert"
)

// Routing keys the queue is bound with.
const (
	RoutingKeyExpense     = "expense"
	RoutingKeyBudgetAlert = "budget_alert"
)

// ExpenseEventMessage is a lightweight notification about an expense write.
// The worker loads the current expense from the database.
type ExpenseEventMessage struct {
	Event     string    `json:"event"`
	ExpenseID int64     `json:"expense_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(ev core.ExpenseEvent) *ExpenseEventMessage {
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ExpenseEventMessage{
		Event:     string(ev.Type),
		ExpenseID: ev.ExpenseID,
		UserID:    ev.UserID,
		Timestamp: ts,
	}
}

func (m *ExpenseEventMessage) ToEvent() core.ExpenseEvent {
	return core.ExpenseEvent{
		Type:       core.ExpenseEventType(m.Event),
		ExpenseID:  m.ExpenseID,
		UserID:     m.UserID,
		OccurredAt: m.Timestamp,
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage carries a budget warning or overrun.
type BudgetAlertMessage struct {
	UserID       int64     `json:"user_id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Month        string    `json:"month"`
	Level        string    `json:"level"`
	SpentCents   int64     `json:"spent_cents"`
	LimitCents   int64     `json:"limit_cents"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(a core.BudgetAlert) *BudgetAlertMessage {
	ts := a.RaisedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &BudgetAlertMessage{
		UserID:       a.UserID,
		CategoryID:   a.CategoryID,
		CategoryName: a.CategoryName,
		Month:        string(a.Month),
		Level:        string(a.Level),
		SpentCents:   a.Spent.Cents,
		LimitCents:   a.Limit.Cents,
		Message:      a.Message,
		Timestamp:    ts,
	}
}

func (m *BudgetAlertMessage) ToAlert() core.BudgetAlert {
	return core.BudgetAlert{
		UserID:       m.UserID,
		CategoryID:   m.CategoryID,
		CategoryName: m.CategoryName,
		Month:        core.Month(m.Month),
		Level:        core.AlertLevel(m.Level),
		Spent:        core.Money{Cents: m.SpentCents},
		Limit:        core.Money{Cents: m.LimitCents},
		Message:      m.Message,
		RaisedAt:     m.Timestamp,
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
