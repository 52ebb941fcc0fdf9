package core

import "sort"

const (
	AlertOK       AlertLevel = "ok"
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// warningRatio is the share of a budget after which spending is flagged.
const warningRatio = 0.8

type AlertLevel string

// CategorySummary compares spending in one category with its budget.
type CategorySummary struct {
	CategoryID  int64
	Name        string
	Color       string
	HasBudget   bool
	Limit       Money
	Spent       Money
	Remaining   Money
	PercentUsed float64 // 0 when there is no budget or the limit is zero
	Level       AlertLevel
}

// MonthSummary is a compact budget-vs-spending summary for one user and month.
type MonthSummary struct {
	Month         Month
	TotalSpent    Money
	TotalBudget   Money
	Uncategorized Money
	Categories    []CategorySummary
}

// LevelFor classifies spent against limit. Without a budget the level is ok.
func LevelFor(spent, limit Money) AlertLevel {
	switch {
	case spent.Cents > limit.Cents:
		return AlertExceeded
	case limit.Cents > 0 && float64(spent.Cents) >= warningRatio*float64(limit.Cents):
		return AlertWarning
	default:
		return AlertOK
	}
}

// BuildMonthSummary aggregates expenses of the month per category and joins
// them with the month's budgets. Only EXPENSE categories with either a budget
// or spending are listed, ordered by name. Expenses outside the month are ignored.
func BuildMonthSummary(month Month, categories []Category, budgets []Budget, expenses []Expense) MonthSummary {
	summary := MonthSummary{Month: month}

	spent := make(map[int64]Money)
	for _, e := range expenses {
		if MonthOf(e.Date) != month {
			continue
		}
		summary.TotalSpent = summary.TotalSpent.Add(e.Amount)
		if e.CategoryID == nil {
			summary.Uncategorized = summary.Uncategorized.Add(e.Amount)
			continue
		}
		spent[*e.CategoryID] = spent[*e.CategoryID].Add(e.Amount)
	}

	limits := make(map[int64]Money)
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		limits[b.CategoryID] = b.Limit
		summary.TotalBudget = summary.TotalBudget.Add(b.Limit)
	}

	known := make(map[int64]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		limit, hasBudget := limits[c.ID]
		s, hasSpend := spent[c.ID]
		if !hasBudget && !hasSpend {
			continue
		}
		if c.Kind != KindExpense && !hasBudget {
			continue
		}
		cs := CategorySummary{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			HasBudget:  hasBudget,
			Limit:      limit,
			Spent:      s,
			Level:      AlertOK,
		}
		if hasBudget {
			cs.Remaining = limit.Sub(s)
			cs.Level = LevelFor(s, limit)
			if limit.Cents > 0 {
				cs.PercentUsed = float64(s.Cents) * 100 / float64(limit.Cents)
			}
		}
		summary.Categories = append(summary.Categories, cs)
	}

	// Spending on categories the caller can no longer see counts as uncategorized.
	for id, s := range spent {
		if !known[id] {
			summary.Uncategorized = summary.Uncategorized.Add(s)
		}
	}

	sort.SliceStable(summary.Categories, func(i, j int) bool {
		if summary.Categories[i].Name == summary.Categories[j].Name {
			return summary.Categories[i].CategoryID < summary.Categories[j].CategoryID
		}
		return summary.Categories[i].Name < summary.Categories[j].Name
	})
	return summary
}
