package memory

import (
	"context"
	"testing"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

func TestMirrorAppend(t *testing.T) {
	m := New()
	ctx := context.Background()

	ref, err := m.AppendExpense(ctx, sheets.ExpenseRow{
		Event:       core.ExpenseCreated,
		ExpenseID:   7,
		Date:        core.NewDate(2024, 5, 2),
		Description: "Lunch",
		Amount:      core.Money{Cents: 1250},
	})
	if err != nil || ref != "mem:expenses:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ref, err = m.AppendAlert(ctx, sheets.AlertRow{RaisedAt: time.Now(), Level: core.AlertWarning})
	if err != nil || ref != "mem:alerts:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := m.Expenses()
	if len(rows) != 1 || rows[0].ExpenseID != 7 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	rows[0].ExpenseID = 99
	if m.Expenses()[0].ExpenseID != 7 {
		t.Fatal("Expenses must return a copy")
	}
	if len(m.Alerts()) != 1 {
		t.Fatalf("expected one alert row")
	}
}

func TestRowValues(t *testing.T) {
	row := sheets.ExpenseRow{
		Event:       core.ExpenseUpdated,
		ExpenseID:   3,
		Date:        core.NewDate(2024, 5, 2),
		Description: "Lunch",
		Amount:      core.Money{Cents: 1250},
		Currency:    "USD",
		Category:    "Food & Dining",
		UserEmail:   "a@x.com",
	}
	got := row.Values()
	want := []any{"2024-05-02", "Lunch", "12.50", "USD", "Food & Dining", "a@x.com", int64(3), "expense.updated"}
	if len(got) != len(want) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d: got %v, want %v", i, got[i], want[i])
		}
	}

	alert := sheets.AlertRow{
		RaisedAt: time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC),
		Month:    "2024-05",
		Level:    core.AlertExceeded,
		Spent:    core.Money{Cents: 11000},
		Limit:    core.Money{Cents: 10000},
	}
	cells := alert.Values()
	if cells[0] != "2024-05-03T10:00:00Z" || cells[4] != "exceeded" || cells[5] != "110.00" || cells[6] != "100.00" {
		t.Fatalf("unexpected alert cells: %v", cells)
	}
}
