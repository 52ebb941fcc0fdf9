package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func seedUser(t *testing.T, s *Store, email string) (core.User, []core.Category) {
	t.Helper()
	u, cats, err := s.CreateUserWithCategories(context.Background(), core.User{
		Name: "Ann", Email: email, PasswordHash: "x", Currency: "USD",
	}, core.DefaultCategories(0))
	require.NoError(t, err)
	return u, cats
}

func TestCreateUserWithCategories(t *testing.T) {
	s := New()
	u, cats := seedUser(t, s, "Ann@Example.com")

	assert.Equal(t, "ann@example.com", u.Email)
	require.Len(t, cats, 8)
	for _, c := range cats {
		assert.True(t, c.Owner.Owns(u.ID))
	}

	_, _, err := s.CreateUserWithCategories(context.Background(), core.User{Email: "ann@example.com"}, core.DefaultCategories(0))
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	users, categories, _, _ := s.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 8, categories)
}

func TestCategoryVisibility(t *testing.T) {
	s := NewWithGlobals([]core.Category{{Name: "Shared", Kind: core.KindExpense, Color: core.FallbackColor}})
	ctx := context.Background()
	ann, _ := seedUser(t, s, "ann@example.com")
	bob, _ := seedUser(t, s, "bob@example.com")

	owned, err := s.ListCategoriesByOwner(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 8)

	visible, err := s.ListCategoriesVisibleTo(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 9)
	assert.Equal(t, "Shared", visible[0].Name)
}

func TestDeleteCategoryUncategorizesExpensesAndDropsBudgets(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, cats := seedUser(t, s, "ann@example.com")
	catID := cats[0].ID

	e, err := s.CreateExpense(ctx, core.Expense{
		UserID: u.ID, Amount: core.Money{Cents: 500}, Description: "lunch",
		Date: core.NewDate(2024, 5, 2), CategoryID: &catID,
	})
	require.NoError(t, err)
	_, err = s.UpsertBudget(ctx, core.Budget{UserID: u.ID, CategoryID: catID, Month: "2024-05", Limit: core.Money{Cents: 100}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, catID))

	got, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	budgets, err := s.ListBudgetsByMonth(ctx, u.ID, "2024-05")
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestExpenseOrderingAndRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := seedUser(t, s, "ann@example.com")

	add := func(desc string, d core.Date) core.Expense {
		e, err := s.CreateExpense(ctx, core.Expense{UserID: u.ID, Amount: core.Money{Cents: 100}, Description: desc, Date: d})
		require.NoError(t, err)
		return e
	}
	add("old", core.NewDate(2024, 4, 30))
	add("first", core.NewDate(2024, 5, 10))
	add("second", core.NewDate(2024, 5, 10))
	add("late", core.NewDate(2024, 6, 1))

	all, err := s.ListExpensesByOwner(ctx, u.ID)
	require.NoError(t, err)
	var names []string
	for _, e := range all {
		names = append(names, e.Description)
	}
	assert.Equal(t, []string{"late", "second", "first", "old"}, names)

	from, to := core.Month("2024-05").Bounds()
	inMay, err := s.ListExpensesInRange(ctx, u.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, inMay, 2)
}

func TestExpenseUnknownReferences(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := seedUser(t, s, "ann@example.com")

	missing := int64(999)
	_, err := s.CreateExpense(ctx, core.Expense{UserID: u.ID, Amount: core.Money{Cents: 1}, Description: "x", Date: core.Today(), CategoryID: &missing})
	assert.ErrorIs(t, err, core.ErrUnresolvedReference)

	_, err = s.CreateExpense(ctx, core.Expense{UserID: 404, Amount: core.Money{Cents: 1}, Description: "x", Date: core.Today()})
	assert.ErrorIs(t, err, core.ErrUnresolvedReference)

	_, err = s.GetExpense(ctx, 12345)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, 12345), core.ErrNotFound)
}

func TestUpsertBudgetKeepsRow(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, cats := seedUser(t, s, "ann@example.com")

	first, err := s.UpsertBudget(ctx, core.Budget{UserID: u.ID, CategoryID: cats[2].ID, Month: "2024-05", Limit: core.Money{Cents: 20000}})
	require.NoError(t, err)
	second, err := s.UpsertBudget(ctx, core.Budget{UserID: u.ID, CategoryID: cats[2].ID, Month: "2024-05", Limit: core.Money{Cents: 15000}})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(15000), second.Limit.Cents)

	found, err := s.FindBudget(ctx, u.ID, cats[2].ID, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestUpsertBudgetConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, cats := seedUser(t, s, "ann@example.com")

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(limit int64) {
			defer wg.Done()
			_, err := s.UpsertBudget(ctx, core.Budget{UserID: u.ID, CategoryID: cats[0].ID, Month: "2024-05", Limit: core.Money{Cents: limit}})
			assert.NoError(t, err)
		}(int64(i * 100))
	}
	wg.Wait()

	budgets, err := s.ListBudgetsByMonth(ctx, u.ID, "2024-05")
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}
