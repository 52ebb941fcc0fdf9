package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/cache"
	"spendwise/internal/core"
)

func TestCreateExpense(t *testing.T) {
	f := newFixture(t, ExpensePolicy{EnforceOwnership: true})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	food := f.categoryNamed(t, u, "Food & Dining")

	e, err := f.expenses.Create(ctx, u, NewExpense{
		Amount: money(1250), Description: "Lunch", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: &food.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, e.UserID)
	require.NotNil(t, e.CategoryID)
	assert.Equal(t, food.ID, *e.CategoryID)

	require.Len(t, f.publisher.expenses, 1)
	assert.Equal(t, core.ExpenseCreated, f.publisher.expenses[0].Type)
	assert.Equal(t, e.ID, f.publisher.expenses[0].ExpenseID)
}

func TestCreateExpenseDefaultsDateToToday(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	fixed := time.Date(2024, 5, 17, 22, 30, 0, 0, time.UTC)
	f.expenses.now = func() time.Time { return fixed }
	u := f.signup(t, "a@x.com")

	e, err := f.expenses.Create(context.Background(), u, NewExpense{Amount: money(100), Description: "Coffee"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-17", e.Date.String())
}

func TestCreateExpenseUnknownCategoryIsDropped(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	u := f.signup(t, "a@x.com")

	e, err := f.expenses.Create(context.Background(), u, NewExpense{
		Amount: money(100), Description: "Mystery", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: ptr(int64(9999)),
	})
	require.NoError(t, err)
	assert.Nil(t, e.CategoryID)
}

func TestCreateExpenseOtherUsersCategoryIsDropped(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ann := f.signup(t, "a@x.com")
	bob := f.signup(t, "b@x.com")
	bobs := f.categoryNamed(t, bob, "Shopping")

	e, err := f.expenses.Create(context.Background(), ann, NewExpense{
		Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: &bobs.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, e.CategoryID)
}

func TestCreateExpenseStrictCategoryRefs(t *testing.T) {
	f := newFixture(t, ExpensePolicy{StrictCategoryRefs: true})
	u := f.signup(t, "a@x.com")

	_, err := f.expenses.Create(context.Background(), u, NewExpense{
		Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: ptr(int64(9999)),
	})
	assert.ErrorIs(t, err, core.ErrUnresolvedReference)

	_, _, expenses, _ := f.store.Counts()
	assert.Zero(t, expenses)
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	u := f.signup(t, "a@x.com")
	ctx := context.Background()

	_, err := f.expenses.Create(ctx, u, NewExpense{Amount: money(0), Description: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = f.expenses.Create(ctx, u, NewExpense{Amount: money(100), Description: "  "})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
}

func TestUpdateExpenseDescriptionOnly(t *testing.T) {
	f := newFixture(t, ExpensePolicy{EnforceOwnership: true})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	food := f.categoryNamed(t, u, "Food & Dining")

	e, err := f.expenses.Create(ctx, u, NewExpense{
		Amount: money(1250), Description: "Lunch", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: &food.ID,
	})
	require.NoError(t, err)

	updated, err := f.expenses.Update(ctx, u, e.ID, core.ExpensePatch{Description: ptr("Team lunch")})
	require.NoError(t, err)

	assert.Equal(t, "Team lunch", updated.Description)
	assert.Equal(t, e.Amount, updated.Amount)
	assert.Equal(t, e.Date.String(), updated.Date.String())
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, food.ID, *updated.CategoryID)

	stored, err := f.store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", stored.Description)
}

func TestUpdateExpenseUnresolvedCategoryLeavesCategory(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	food := f.categoryNamed(t, u, "Food & Dining")

	e, err := f.expenses.Create(ctx, u, NewExpense{Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2)), CategoryID: &food.ID})
	require.NoError(t, err)

	updated, err := f.expenses.Update(ctx, u, e.ID, core.ExpensePatch{CategoryID: ptr(int64(9999)), Amount: ptr(money(300))})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, food.ID, *updated.CategoryID)
	assert.Equal(t, int64(300), updated.Amount.Cents)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	f := newFixture(t, ExpensePolicy{EnforceOwnership: true})
	u := f.signup(t, "a@x.com")

	_, err := f.expenses.Update(context.Background(), u, 404, core.ExpensePatch{Description: ptr("x")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpenseOwnershipPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("enforced", func(t *testing.T) {
		f := newFixture(t, ExpensePolicy{EnforceOwnership: true})
		ann := f.signup(t, "a@x.com")
		bob := f.signup(t, "b@x.com")
		e, err := f.expenses.Create(ctx, ann, NewExpense{Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2))})
		require.NoError(t, err)

		_, err = f.expenses.Get(ctx, bob, e.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = f.expenses.Update(ctx, bob, e.ID, core.ExpensePatch{Description: ptr("mine")})
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.ErrorIs(t, f.expenses.Delete(ctx, bob, e.ID), core.ErrNotFound)

		_, err = f.store.GetExpense(ctx, e.ID)
		assert.NoError(t, err)
	})

	t.Run("not enforced", func(t *testing.T) {
		f := newFixture(t, ExpensePolicy{EnforceOwnership: false})
		ann := f.signup(t, "a@x.com")
		bob := f.signup(t, "b@x.com")
		e, err := f.expenses.Create(ctx, ann, NewExpense{Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2))})
		require.NoError(t, err)

		updated, err := f.expenses.Update(ctx, bob, e.ID, core.ExpensePatch{Description: ptr("edited")})
		require.NoError(t, err)
		assert.Equal(t, ann.ID, updated.UserID)
		assert.NoError(t, f.expenses.Delete(ctx, bob, e.ID))
	})
}

func TestForeignWritesActOnOwnerData(t *testing.T) {
	f := newFixture(t, ExpensePolicy{EnforceOwnership: false})
	lru := cache.NewLRUCache[core.MonthSummary](16, time.Hour)
	f.summaries = NewSummaryService(f.store, lru)
	f.expenses = NewExpenseService(f.store, f.store, f.publisher, ExpensePolicy{}, f.summaries, f.monitor)
	ctx := context.Background()

	ann := f.signup(t, "a@x.com")
	bob := f.signup(t, "b@x.com")
	food := f.categoryNamed(t, ann, "Food & Dining")
	bobsFood := f.categoryNamed(t, bob, "Food & Dining")

	_, err := f.budgets.Set(ctx, ann, food.ID, "2024-05", money(10000))
	require.NoError(t, err)
	e, err := f.expenses.Create(ctx, ann, NewExpense{Amount: money(5000), Description: "Groceries", Date: ptr(core.NewDate(2024, 5, 3)), CategoryID: &food.ID})
	require.NoError(t, err)

	s, err := f.summaries.Month(ctx, ann, "2024-05")
	require.NoError(t, err)
	require.Equal(t, int64(5000), s.TotalSpent.Cents)

	// bob's own category does not resolve for ann's expense
	updated, err := f.expenses.Update(ctx, bob, e.ID, core.ExpensePatch{Amount: ptr(money(9000)), CategoryID: &bobsFood.ID})
	require.NoError(t, err)
	assert.Equal(t, food.ID, *updated.CategoryID)

	s, err = f.summaries.Month(ctx, ann, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), s.TotalSpent.Cents)

	require.Len(t, f.publisher.alerts, 1)
	assert.Equal(t, ann.ID, f.publisher.alerts[0].UserID)
	assert.Equal(t, core.AlertWarning, f.publisher.alerts[0].Level)

	require.NoError(t, f.expenses.Delete(ctx, bob, e.ID))
	s, err = f.summaries.Month(ctx, ann, "2024-05")
	require.NoError(t, err)
	assert.Zero(t, s.TotalSpent.Cents)

	require.Len(t, f.publisher.expenses, 3)
	for _, ev := range f.publisher.expenses {
		assert.Equal(t, ann.ID, ev.UserID, ev.Type)
	}
}

func TestDeleteExpensePublishesEvent(t *testing.T) {
	f := newFixture(t, ExpensePolicy{EnforceOwnership: true})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	e, err := f.expenses.Create(ctx, u, NewExpense{Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2))})
	require.NoError(t, err)

	require.NoError(t, f.expenses.Delete(ctx, u, e.ID))
	_, err = f.expenses.Get(ctx, u, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.Len(t, f.publisher.expenses, 2)
	assert.Equal(t, core.ExpenseDeleted, f.publisher.expenses[1].Type)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	f.publisher.err = assert.AnError
	u := f.signup(t, "a@x.com")

	_, err := f.expenses.Create(context.Background(), u, NewExpense{Amount: money(100), Description: "x", Date: ptr(core.NewDate(2024, 5, 2))})
	assert.NoError(t, err)
}

func TestListExpenses(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	ann := f.signup(t, "a@x.com")
	bob := f.signup(t, "b@x.com")

	for _, d := range []core.Date{core.NewDate(2024, 4, 30), core.NewDate(2024, 5, 10), core.NewDate(2024, 6, 1)} {
		_, err := f.expenses.Create(ctx, ann, NewExpense{Amount: money(100), Description: d.String(), Date: ptr(d)})
		require.NoError(t, err)
	}
	_, err := f.expenses.Create(ctx, bob, NewExpense{Amount: money(100), Description: "bob", Date: ptr(core.NewDate(2024, 5, 11))})
	require.NoError(t, err)

	all, err := f.expenses.List(ctx, ann, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-06-01", all[0].Description)
	assert.Equal(t, "2024-04-30", all[2].Description)

	fromMay, err := f.expenses.List(ctx, ann, ptr(core.NewDate(2024, 5, 1)), nil)
	require.NoError(t, err)
	assert.Len(t, fromMay, 2)

	untilMay, err := f.expenses.List(ctx, ann, nil, ptr(core.NewDate(2024, 5, 31)))
	require.NoError(t, err)
	assert.Len(t, untilMay, 2)

	_, err = f.expenses.List(ctx, ann, ptr(core.NewDate(2024, 6, 1)), ptr(core.NewDate(2024, 5, 1)))
	assert.ErrorIs(t, err, core.ErrInvalidRange)
}
