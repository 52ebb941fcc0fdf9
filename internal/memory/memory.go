// Package memory implements ports.Store on in-process maps. It is used by the
// memory backend and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type budgetKey struct {
	userID, categoryID int64
	month              core.Month
}

type Store struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]core.User
	emails     map[string]int64
	categories map[int64]core.Category
	expenses   map[int64]core.Expense
	budgets    map[int64]core.Budget
	budgetKeys map[budgetKey]int64
}

func New() *Store {
	return &Store{
		users:      make(map[int64]core.User),
		emails:     make(map[string]int64),
		categories: make(map[int64]core.Category),
		expenses:   make(map[int64]core.Expense),
		budgets:    make(map[int64]core.Budget),
		budgetKeys: make(map[budgetKey]int64),
	}
}

// NewWithGlobals returns a store pre-seeded with global categories.
func NewWithGlobals(globals []core.Category) *Store {
	s := New()
	for _, c := range globals {
		c.Owner = core.GlobalOwner()
		s.nextID++
		c.ID = s.nextID
		s.categories[c.ID] = c
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUserWithCategories(_ context.Context, u core.User, seeds []core.Category) (core.User, []core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := core.NormalizeEmail(u.Email)
	if _, taken := s.emails[email]; taken {
		return core.User{}, nil, core.ErrDuplicateEmail
	}
	u.ID = s.id()
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	s.emails[email] = u.ID

	created := make([]core.Category, 0, len(seeds))
	for _, c := range seeds {
		c.ID = s.id()
		c.Owner = core.OwnedBy(u.ID)
		s.categories[c.ID] = c
		created = append(created, c)
	}
	return u, created, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[core.NormalizeEmail(email)]
	if !ok {
		return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.emails[core.NormalizeEmail(email)]
	return ok, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uid, owned := c.Owner.UserID(); owned {
		if _, ok := s.users[uid]; !ok {
			return core.Category{}, fmt.Errorf("owner %d: %w", uid, core.ErrUnresolvedReference)
		}
	}
	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCategoriesByOwner(_ context.Context, userID int64) ([]core.Category, error) {
	return s.filterCategories(func(c core.Category) bool { return c.Owner.Owns(userID) }), nil
}

func (s *Store) ListCategoriesVisibleTo(_ context.Context, userID int64) ([]core.Category, error) {
	return s.filterCategories(func(c core.Category) bool { return c.VisibleTo(userID) }), nil
}

func (s *Store) filterCategories(keep func(core.Category) bool) []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	delete(s.categories, id)
	for eid, e := range s.expenses {
		if e.CategoryID != nil && *e.CategoryID == id {
			e.CategoryID = nil
			s.expenses[eid] = e
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
			delete(s.budgetKeys, budgetKey{b.UserID, b.CategoryID, b.Month})
		}
	}
	return nil
}

func (s *Store) checkExpenseRefs(e core.Expense) error {
	if _, ok := s.users[e.UserID]; !ok {
		return fmt.Errorf("owner %d: %w", e.UserID, core.ErrUnresolvedReference)
	}
	if e.CategoryID != nil {
		if _, ok := s.categories[*e.CategoryID]; !ok {
			return fmt.Errorf("category %d: %w", *e.CategoryID, core.ErrUnresolvedReference)
		}
	}
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExpenseRefs(e); err != nil {
		return core.Expense{}, err
	}
	e.ID = s.id()
	e.CategoryID = cloneID(e.CategoryID)
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	e.CategoryID = cloneID(e.CategoryID)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
	}
	if err := s.checkExpenseRefs(e); err != nil {
		return core.Expense{}, err
	}
	e.CategoryID = cloneID(e.CategoryID)
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpensesByOwner(_ context.Context, userID int64) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool { return e.UserID == userID }), nil
}

func (s *Store) ListExpensesInRange(_ context.Context, userID int64, from, to core.Date) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool {
		return e.UserID == userID && !e.Date.Before(from.Time) && !e.Date.After(to.Time)
	}), nil
}

func (s *Store) filterExpenses(keep func(core.Expense) bool) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if keep(e) {
			e.CategoryID = cloneID(e.CategoryID)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date.Time) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) FindBudget(_ context.Context, userID, categoryID int64, month core.Month) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.budgetKeys[budgetKey{userID, categoryID, month}]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget (%d, %d, %s): %w", userID, categoryID, month, core.ErrNotFound)
	}
	return s.budgets[id], nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.UserID]; !ok {
		return core.Budget{}, fmt.Errorf("owner %d: %w", b.UserID, core.ErrUnresolvedReference)
	}
	if _, ok := s.categories[b.CategoryID]; !ok {
		return core.Budget{}, fmt.Errorf("category %d: %w", b.CategoryID, core.ErrUnresolvedReference)
	}

	key := budgetKey{b.UserID, b.CategoryID, b.Month}
	if id, ok := s.budgetKeys[key]; ok {
		existing := s.budgets[id]
		existing.Limit = b.Limit
		s.budgets[id] = existing
		return existing, nil
	}
	b.ID = s.id()
	s.budgets[b.ID] = b
	s.budgetKeys[key] = b.ID
	return b, nil
}

func (s *Store) ListBudgetsByMonth(_ context.Context, userID int64, month core.Month) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	delete(s.budgetKeys, budgetKey{b.UserID, b.CategoryID, b.Month})
	return nil
}

// Counts reports the number of stored rows per entity.
func (s *Store) Counts() (users, categories, expenses, budgets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.categories), len(s.expenses), len(s.budgets)
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
