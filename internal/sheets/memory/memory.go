// Package memory is an in-process sheets mirror that records appended rows.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendwise/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu       sync.Mutex
	expenses []sheets.ExpenseRow
	alerts   []sheets.AlertRow
}

func New() *Mirror {
	return &Mirror{}
}

// AppendExpense stores the row and returns a synthetic row reference.
func (m *Mirror) AppendExpense(_ context.Context, row sheets.ExpenseRow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, row)
	return fmt.Sprintf("mem:expenses:%d", len(m.expenses)), nil
}

func (m *Mirror) AppendAlert(_ context.Context, row sheets.AlertRow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, row)
	return fmt.Sprintf("mem:alerts:%d", len(m.alerts)), nil
}

// Expenses returns a copy of the recorded expense rows.
func (m *Mirror) Expenses() []sheets.ExpenseRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sheets.ExpenseRow(nil), m.expenses...)
}

// Alerts returns a copy of the recorded alert rows.
func (m *Mirror) Alerts() []sheets.AlertRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sheets.AlertRow(nil), m.alerts...)
}
