package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingPublisher struct {
	mu       sync.Mutex
	expenses []core.ExpenseEvent
	alerts   []core.BudgetAlert
	err      error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev core.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = append(p.expenses, ev)
	return p.err
}

func (p *recordingPublisher) PublishBudgetAlert(_ context.Context, a core.BudgetAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return p.err
}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	accounts  *AccountService
	cats      *CategoryService
	expenses  *ExpenseService
	budgets   *BudgetService
	summaries *SummaryService
	monitor   *BudgetMonitor
}

func newFixture(t *testing.T, policy ExpensePolicy) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	summaries := NewSummaryService(store, nil)
	monitor := NewBudgetMonitor(store, store, store, pub)
	return &fixture{
		store:     store,
		publisher: pub,
		accounts:  NewAccountService(store, auth.NewTokenIssuer(testSecret, time.Hour), core.DefaultCurrency),
		cats:      NewCategoryService(store, true, summaries),
		expenses:  NewExpenseService(store, store, pub, policy, summaries, monitor),
		budgets:   NewBudgetService(store, store, summaries),
		summaries: summaries,
		monitor:   monitor,
	}
}

func (f *fixture) signup(t *testing.T, email string) core.User {
	t.Helper()
	u, err := f.accounts.Signup(context.Background(), SignupRequest{Name: "Ann", Email: email, Password: "pw"})
	require.NoError(t, err)
	return u
}

func (f *fixture) categoryNamed(t *testing.T, user core.User, name string) core.Category {
	t.Helper()
	cats, err := f.cats.List(context.Background(), user)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return core.Category{}
}

func ptr[T any](v T) *T { return &v }

func money(cents int64) core.Money { return core.Money{Cents: cents} }
