// Package worker handles queued expense events and budget alerts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/ports"
	"spendwise/internal/sheets"
)

// Store is the read side the worker needs to build mirror rows.
type Store interface {
	ports.UserStore
	ports.CategoryStore
	ports.ExpenseStore
}

// MirrorWorker mirrors expense writes and budget alerts to a spreadsheet.
// A nil mirror only logs.
type MirrorWorker struct {
	store  Store
	mirror sheets.Mirror
}

func NewMirrorWorker(store Store, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// Handlers returns the consumer callbacks for amqp.Client.Consume.
func (w *MirrorWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		ExpenseEvent: w.HandleExpenseEvent,
		BudgetAlert:  w.HandleBudgetAlert,
	}
}

// HandleExpenseEvent appends the current state of a created or updated
// expense. Deleted expenses are skipped; a returned error requeues the message.
func (w *MirrorWorker) HandleExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	ev := msg.ToEvent()
	slog.InfoContext(ctx, "Processing expense event",
		"event", ev.Type,
		"id", ev.ExpenseID,
		"user_id", ev.UserID)

	switch ev.Type {
	case core.ExpenseCreated, core.ExpenseUpdated:
	case core.ExpenseDeleted:
		slog.InfoContext(ctx, "Skipping deleted expense", "id", ev.ExpenseID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown expense event", "event", ev.Type, "id", ev.ExpenseID)
		return nil
	}

	row, err := w.expenseRow(ctx, ev)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, skipping", "id", ev.ExpenseID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	if w.mirror == nil {
		slog.DebugContext(ctx, "No mirror configured", "id", ev.ExpenseID)
		return nil
	}
	ref, err := w.mirror.AppendExpense(ctx, row)
	if err != nil {
		return fmt.Errorf("append expense to mirror: %w", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored expense",
		"id", ev.ExpenseID,
		"sheets_ref", ref,
		"amount_cents", row.Amount.Cents)
	return nil
}

func (w *MirrorWorker) expenseRow(ctx context.Context, ev core.ExpenseEvent) (sheets.ExpenseRow, error) {
	e, err := w.store.GetExpense(ctx, ev.ExpenseID)
	if err != nil {
		return sheets.ExpenseRow{}, fmt.Errorf("get expense: %w", err)
	}
	u, err := w.store.GetUser(ctx, e.UserID)
	if err != nil {
		return sheets.ExpenseRow{}, fmt.Errorf("get user: %w", err)
	}

	row := sheets.ExpenseRow{
		Event:       ev.Type,
		ExpenseID:   e.ID,
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    u.Currency,
		UserEmail:   u.Email,
	}
	if e.CategoryID != nil {
		c, err := w.store.GetCategory(ctx, *e.CategoryID)
		switch {
		case err == nil:
			row.Category = c.Name
		case errors.Is(err, core.ErrNotFound):
			slog.DebugContext(ctx, "Expense category gone", "category_id", *e.CategoryID)
		default:
			return sheets.ExpenseRow{}, fmt.Errorf("get category: %w", err)
		}
	}
	return row, nil
}

// HandleBudgetAlert logs the alert at warn level and appends it to the
// alerts sheet.
func (w *MirrorWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	alert := msg.ToAlert()
	slog.WarnContext(ctx, alert.Message,
		"user_id", alert.UserID,
		"category_id", alert.CategoryID,
		"month", alert.Month,
		"level", alert.Level,
		"spent_cents", alert.Spent.Cents,
		"limit_cents", alert.Limit.Cents)

	if w.mirror == nil {
		return nil
	}

	row := sheets.AlertRow{
		RaisedAt: alert.RaisedAt,
		Month:    alert.Month,
		Category: alert.CategoryName,
		Level:    alert.Level,
		Spent:    alert.Spent,
		Limit:    alert.Limit,
		Message:  alert.Message,
	}
	u, err := w.store.GetUser(ctx, alert.UserID)
	switch {
	case err == nil:
		row.UserEmail = u.Email
	case errors.Is(err, core.ErrNotFound):
		slog.DebugContext(ctx, "Alert user gone", "user_id", alert.UserID)
	default:
		return fmt.Errorf("get user: %w", err)
	}

	ref, err := w.mirror.AppendAlert(ctx, row)
	if err != nil {
		return fmt.Errorf("append alert to mirror: %w", err)
	}
	slog.InfoContext(ctx, "Budget alert mirrored", "sheets_ref", ref, "level", alert.Level)
	return nil
}
