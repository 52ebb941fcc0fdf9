package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"spendwise/internal/core"
)

const categoryColumns = "id, name, kind, color, user_id"

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	var owner sql.NullInt64
	if id, ok := c.Owner.UserID(); ok {
		owner = sql.NullInt64{Int64: id, Valid: true}
	}
	err := r.queryRow(ctx, r.db,
		"INSERT INTO categories (name, kind, color, user_id) VALUES (?, ?, ?, ?) RETURNING id",
		c.Name, string(c.Kind), c.Color, owner,
	).Scan(&c.ID)
	if err != nil {
		return core.Category{}, mapWriteError("insert category", err)
	}
	slog.InfoContext(ctx, "Category created", "category_id", c.ID, "owner", c.Owner.String())
	return c, nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.queryRow(ctx, r.db, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound("category", id, err)
	}
	return c, nil
}

func (r *SQLRepository) ListCategoriesByOwner(ctx context.Context, userID int64) ([]core.Category, error) {
	return r.listCategories(ctx, "SELECT "+categoryColumns+" FROM categories WHERE user_id = ? ORDER BY id", userID)
}

func (r *SQLRepository) ListCategoriesVisibleTo(ctx context.Context, userID int64) ([]core.Category, error) {
	return r.listCategories(ctx, "SELECT "+categoryColumns+" FROM categories WHERE user_id = ? OR user_id IS NULL ORDER BY id", userID)
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "categories", id)
}

func (r *SQLRepository) listCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c     core.Category
		kind  string
		owner sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Name, &kind, &c.Color, &owner); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.CategoryKind(kind)
	if owner.Valid {
		c.Owner = core.OwnedBy(owner.Int64)
	}
	return c, nil
}
