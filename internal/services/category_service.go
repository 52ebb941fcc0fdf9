package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// CategoryService lists and manages the categories a user can see.
type CategoryService struct {
	store         ports.CategoryStore
	includeGlobal bool
	summaries     SummaryInvalidator
}

// NewCategoryService creates the service. includeGlobal selects whether List
// returns global defaults next to the user's own categories.
func NewCategoryService(store ports.CategoryStore, includeGlobal bool, summaries SummaryInvalidator) *CategoryService {
	return &CategoryService{store: store, includeGlobal: includeGlobal, summaries: summaries}
}

func (s *CategoryService) List(ctx context.Context, user core.User) ([]core.Category, error) {
	if s.includeGlobal {
		return s.store.ListCategoriesVisibleTo(ctx, user.ID)
	}
	return s.store.ListCategoriesByOwner(ctx, user.ID)
}

// Create stores a category owned by the user. Kind defaults to EXPENSE and
// color to the fallback gray.
func (s *CategoryService) Create(ctx context.Context, user core.User, c core.Category) (core.Category, error) {
	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	c.Owner = core.OwnedBy(user.ID)
	if c.Kind == "" {
		c.Kind = core.KindExpense
	}
	c.Kind = core.CategoryKind(strings.ToUpper(string(c.Kind)))
	if c.Color == "" {
		c.Color = core.FallbackColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// Delete removes a category owned by the user. Global categories are
// read-only; categories of other users are reported as not found.
func (s *CategoryService) Delete(ctx context.Context, user core.User, id int64) error {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.Owner.IsGlobal() {
		return fmt.Errorf("category %d is global: %w", id, core.ErrForbidden)
	}
	if !c.Owner.Owns(user.ID) {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if s.summaries != nil {
		s.summaries.InvalidateUser(ctx, user.ID)
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", id, "user_id", user.ID)
	return nil
}

// resolveCategory returns the category when it exists and is visible to the
// user, otherwise core.ErrUnresolvedReference.
func resolveCategory(ctx context.Context, store ports.CategoryStore, userID, id int64) (core.Category, error) {
	c, err := store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrUnresolvedReference)
		}
		return core.Category{}, err
	}
	if !c.VisibleTo(userID) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrUnresolvedReference)
	}
	return c, nil
}
