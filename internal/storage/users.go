package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
)

const userColumns = "id, name, email, password_hash, currency, created_at"

// CreateUserWithCategories inserts the user and its seed categories in one
// transaction so a user never exists without them.
func (r *SQLRepository) CreateUserWithCategories(ctx context.Context, u core.User, seeds []core.Category) (core.User, []core.Category, error) {
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.User{}, nil, fmt.Errorf("begin signup tx: %w", err)
	}
	defer tx.Rollback()

	err = r.queryRow(ctx, tx,
		"INSERT INTO users (name, email, password_hash, currency, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
		u.Name, u.Email, u.PasswordHash, u.Currency, u.CreatedAt.Format(time.RFC3339),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, nil, core.ErrDuplicateEmail
		}
		return core.User{}, nil, fmt.Errorf("insert user: %w", err)
	}

	created := make([]core.Category, 0, len(seeds))
	for _, c := range seeds {
		c.Owner = core.OwnedBy(u.ID)
		err := r.queryRow(ctx, tx,
			"INSERT INTO categories (name, kind, color, user_id) VALUES (?, ?, ?, ?) RETURNING id",
			c.Name, string(c.Kind), c.Color, u.ID,
		).Scan(&c.ID)
		if err != nil {
			return core.User{}, nil, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		created = append(created, c)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, nil, core.ErrDuplicateEmail
		}
		return core.User{}, nil, fmt.Errorf("commit signup tx: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "categories", len(created))
	return u, created, nil
}

func (r *SQLRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx, r.db, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return core.User{}, notFound("user", id, err)
	}
	return u, nil
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	u, err := scanUser(r.queryRow(ctx, r.db, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return core.User{}, notFound("user", email, err)
	}
	return u, nil
}

func (r *SQLRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.queryRow(ctx, r.db, "SELECT COUNT(*) FROM users WHERE email = ?", core.NormalizeEmail(email)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Currency, &created); err != nil {
		return core.User{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return core.User{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	u.CreatedAt = t
	return u, nil
}
