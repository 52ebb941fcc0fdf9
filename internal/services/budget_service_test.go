package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func TestSetBudgetTwiceKeepsOneRow(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	utilities := f.categoryNamed(t, u, "Utilities")

	first, err := f.budgets.Set(ctx, u, utilities.ID, "2024-05", money(20000))
	require.NoError(t, err)
	second, err := f.budgets.Set(ctx, u, utilities.ID, "2024-05", money(15000))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	budgets, err := f.budgets.List(ctx, u, "2024-05")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, int64(15000), budgets[0].Limit.Cents)
}

func TestSetBudgetConcurrentNeverDuplicates(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	u := f.signup(t, "a@x.com")
	food := f.categoryNamed(t, u, "Food & Dining")

	var wg sync.WaitGroup
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(limit int64) {
			defer wg.Done()
			_, err := f.budgets.Set(ctx, u, food.ID, "2024-05", money(limit))
			assert.NoError(t, err)
		}(int64(i * 100))
	}
	wg.Wait()

	budgets, err := f.budgets.List(ctx, u, "2024-05")
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func TestSetBudgetValidation(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	ann := f.signup(t, "a@x.com")
	bob := f.signup(t, "b@x.com")
	food := f.categoryNamed(t, ann, "Food & Dining")
	bobs := f.categoryNamed(t, bob, "Food & Dining")

	_, err := f.budgets.Set(ctx, ann, food.ID, "2024-13", money(100))
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = f.budgets.Set(ctx, ann, food.ID, "2024-05", money(-1))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = f.budgets.Set(ctx, ann, 9999, "2024-05", money(100))
	assert.ErrorIs(t, err, core.ErrUnresolvedReference)

	_, err = f.budgets.Set(ctx, ann, bobs.ID, "2024-05", money(100))
	assert.ErrorIs(t, err, core.ErrUnresolvedReference)

	zero, err := f.budgets.Set(ctx, ann, food.ID, "2024-05", money(0))
	require.NoError(t, err)
	assert.Zero(t, zero.Limit.Cents)
}

func TestBudgetListAndDelete(t *testing.T) {
	f := newFixture(t, ExpensePolicy{})
	ctx := context.Background()
	ann := f.signup(t, "a@x.com")
	bob := f.signup(t, "b@x.com")
	food := f.categoryNamed(t, ann, "Food & Dining")

	may, err := f.budgets.Set(ctx, ann, food.ID, "2024-05", money(100))
	require.NoError(t, err)
	_, err = f.budgets.Set(ctx, ann, food.ID, "2024-06", money(100))
	require.NoError(t, err)

	budgets, err := f.budgets.List(ctx, ann, "2024-05")
	require.NoError(t, err)
	assert.Len(t, budgets, 1)

	_, err = f.budgets.List(ctx, ann, "May")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	assert.ErrorIs(t, f.budgets.Delete(ctx, bob, may.ID), core.ErrNotFound)
	require.NoError(t, f.budgets.Delete(ctx, ann, may.ID))
	assert.ErrorIs(t, f.budgets.Delete(ctx, ann, may.ID), core.ErrNotFound)
}
