package core

import "testing"

func ptr(v int64) *int64 { return &v }

func TestLevelFor(t *testing.T) {
	cases := []struct {
		spent, limit int64
		want         AlertLevel
	}{
		{0, 10000, AlertOK},
		{7999, 10000, AlertOK},
		{8000, 10000, AlertWarning},
		{10000, 10000, AlertWarning},
		{10001, 10000, AlertExceeded},
		{0, 0, AlertOK},
		{1, 0, AlertExceeded},
	}
	for _, tc := range cases {
		if got := LevelFor(Money{Cents: tc.spent}, Money{Cents: tc.limit}); got != tc.want {
			t.Fatalf("LevelFor(%d, %d) = %s, want %s", tc.spent, tc.limit, got, tc.want)
		}
	}
}

func TestBuildMonthSummary(t *testing.T) {
	cats := []Category{
		{ID: 1, Name: "Food & Dining", Kind: KindExpense, Color: "#ef4444"},
		{ID: 2, Name: "Transportation", Kind: KindExpense, Color: "#3b82f6"},
		{ID: 3, Name: "Utilities", Kind: KindExpense, Color: "#eab308"},
	}
	budgets := []Budget{
		{ID: 10, CategoryID: 1, Month: "2024-05", Limit: Money{Cents: 20000}},
		{ID: 11, CategoryID: 3, Month: "2024-05", Limit: Money{Cents: 5000}},
	}
	expenses := []Expense{
		{Amount: Money{Cents: 12000}, Date: NewDate(2024, 5, 2), CategoryID: ptr(1)},
		{Amount: Money{Cents: 5000}, Date: NewDate(2024, 5, 9), CategoryID: ptr(1)},
		{Amount: Money{Cents: 1500}, Date: NewDate(2024, 5, 9), CategoryID: ptr(2)},
		{Amount: Money{Cents: 700}, Date: NewDate(2024, 5, 10)},
		{Amount: Money{Cents: 900}, Date: NewDate(2024, 5, 11), CategoryID: ptr(99)},
		{Amount: Money{Cents: 99999}, Date: NewDate(2024, 4, 30), CategoryID: ptr(1)},
	}

	s := BuildMonthSummary("2024-05", cats, budgets, expenses)
	if s.TotalSpent.Cents != 12000+5000+1500+700+900 {
		t.Fatalf("unexpected total spent %d", s.TotalSpent.Cents)
	}
	if s.TotalBudget.Cents != 25000 {
		t.Fatalf("unexpected total budget %d", s.TotalBudget.Cents)
	}
	if s.Uncategorized.Cents != 1600 {
		t.Fatalf("unexpected uncategorized %d", s.Uncategorized.Cents)
	}
	if len(s.Categories) != 3 {
		t.Fatalf("expected 3 category rows, got %d", len(s.Categories))
	}

	food := s.Categories[0]
	if food.Name != "Food & Dining" || food.Spent.Cents != 17000 || food.Remaining.Cents != 3000 || food.Level != AlertWarning {
		t.Fatalf("unexpected food row %+v", food)
	}
	if food.PercentUsed != 85 {
		t.Fatalf("unexpected percent %v", food.PercentUsed)
	}
	transport := s.Categories[1]
	if transport.HasBudget || transport.Spent.Cents != 1500 || transport.Level != AlertOK {
		t.Fatalf("unexpected transport row %+v", transport)
	}
	utilities := s.Categories[2]
	if !utilities.HasBudget || utilities.Spent.Cents != 0 || utilities.Remaining.Cents != 5000 {
		t.Fatalf("unexpected utilities row %+v", utilities)
	}
}
