package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// ExpensePolicy holds the configurable expense rules.
type ExpensePolicy struct {
	// EnforceOwnership hides other users' expenses from get, update and delete.
	EnforceOwnership bool
	// StrictCategoryRefs rejects unresolved category ids instead of dropping them.
	StrictCategoryRefs bool
}

// NewExpense is the input of ExpenseService.Create. A nil Date means today.
type NewExpense struct {
	Amount      core.Money
	Description string
	Date        *core.Date
	CategoryID  *int64
}

// ExpenseService orchestrates expense writes, events and observers.
type ExpenseService struct {
	expenses   ports.ExpenseStore
	categories ports.CategoryStore
	publisher  ports.EventPublisher
	observers  []ExpenseObserver
	policy     ExpensePolicy
	now        func() time.Time
}

func NewExpenseService(
	expenses ports.ExpenseStore,
	categories ports.CategoryStore,
	publisher ports.EventPublisher,
	policy ExpensePolicy,
	observers ...ExpenseObserver,
) *ExpenseService {
	return &ExpenseService{
		expenses:   expenses,
		categories: categories,
		publisher:  publisher,
		observers:  observers,
		policy:     policy,
		now:        time.Now,
	}
}

// Create stores an expense owned by user. A category id that does not
// resolve is dropped unless the strict policy is on.
func (s *ExpenseService) Create(ctx context.Context, user core.User, in NewExpense) (core.Expense, error) {
	e := core.Expense{
		UserID:      user.ID,
		Amount:      in.Amount,
		Description: in.Description,
	}
	if in.Date != nil {
		e.Date = *in.Date
	} else {
		e.Date = core.DateOf(s.now())
	}

	if in.CategoryID != nil {
		id, err := s.categoryRef(ctx, user.ID, *in.CategoryID)
		if err != nil {
			return core.Expense{}, err
		}
		e.CategoryID = id
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.afterWrite(ctx, core.ExpenseCreated, nil, &created)
	return created, nil
}

func (s *ExpenseService) Get(ctx context.Context, user core.User, id int64) (core.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if s.policy.EnforceOwnership && e.UserID != user.ID {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return e, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
func (s *ExpenseService) Update(ctx context.Context, user core.User, id int64, patch core.ExpensePatch) (core.Expense, error) {
	before, err := s.Get(ctx, user, id)
	if err != nil {
		return core.Expense{}, err
	}

	if patch.CategoryID != nil {
		// resolved against the owner's categories, not the caller's
		resolved, err := s.categoryRef(ctx, before.UserID, *patch.CategoryID)
		if err != nil {
			return core.Expense{}, err
		}
		// unresolved and not strict: leave the category untouched
		patch.CategoryID = resolved
	}

	after := patch.Apply(before)
	if err := after.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.expenses.UpdateExpense(ctx, after)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.afterWrite(ctx, core.ExpenseUpdated, &before, &updated)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, user core.User, id int64) error {
	before, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.afterWrite(ctx, core.ExpenseDeleted, &before, nil)
	return nil
}

// List returns the user's expenses, newest first. Either bound may be nil;
// a missing bound is open-ended.
func (s *ExpenseService) List(ctx context.Context, user core.User, from, to *core.Date) ([]core.Expense, error) {
	if from == nil && to == nil {
		return s.expenses.ListExpensesByOwner(ctx, user.ID)
	}

	lo, hi := core.NewDate(1, 1, 1), core.NewDate(9999, 12, 31)
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	if lo.After(hi.Time) {
		return nil, core.ErrInvalidRange
	}
	return s.expenses.ListExpensesInRange(ctx, user.ID, lo, hi)
}

// categoryRef resolves a client supplied category id. It returns nil when the
// id does not resolve and the strict policy is off.
func (s *ExpenseService) categoryRef(ctx context.Context, ownerID, id int64) (*int64, error) {
	c, err := resolveCategory(ctx, s.categories, ownerID, id)
	if err == nil {
		return &c.ID, nil
	}
	if !errors.Is(err, core.ErrUnresolvedReference) || s.policy.StrictCategoryRefs {
		return nil, err
	}
	slog.WarnContext(ctx, "Ignoring unresolved category", "category_id", id, "user_id", ownerID)
	return nil, nil
}

// afterWrite publishes the expense event and notifies observers on behalf of
// the expense owner. Failures are logged; the write already succeeded.
func (s *ExpenseService) afterWrite(ctx context.Context, typ core.ExpenseEventType, before, after *core.Expense) {
	ref := after
	if ref == nil {
		ref = before
	}
	owner := ref.UserID

	if s.publisher != nil {
		ev := core.ExpenseEvent{Type: typ, ExpenseID: ref.ID, UserID: owner, OccurredAt: s.now()}
		if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense event",
				"event", typ, "id", ref.ID, "error", err)
		}
	}

	for _, o := range s.observers {
		o.ExpenseChanged(ctx, owner, before, after)
	}
}
