package core

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	KindExpense CategoryKind = "EXPENSE"
	KindIncome  CategoryKind = "INCOME"
)

// DefaultCurrency is used when neither the signup request nor the
// configuration names one.
const DefaultCurrency = "USD"

const maxDescriptionLen = 255

type (
	CategoryKind string

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Currency     string
		CreatedAt    time.Time
	}

	// Owner is the owning user of a category. The zero value is the global
	// owner: a category shared by every user. Use OwnedBy for user categories.
	Owner struct {
		userID int64
		set    bool
	}

	Category struct {
		ID    int64
		Name  string
		Kind  CategoryKind
		Color string
		Owner Owner
	}

	Expense struct {
		ID          int64
		UserID      int64
		Amount      Money
		Description string
		Date        Date
		CategoryID  *int64 // nil when uncategorized
	}

	// ExpensePatch carries a partial update: nil fields are left untouched.
	ExpensePatch struct {
		Amount      *Money
		Description *string
		Date        *Date
		CategoryID  *int64
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Month      Month
		Limit      Money
	}
)

// GlobalOwner marks a category as a global default.
func GlobalOwner() Owner { return Owner{} }

// OwnedBy marks a category as owned by the given user.
func OwnedBy(userID int64) Owner { return Owner{userID: userID, set: true} }

// UserID returns the owning user id and false for global categories.
func (o Owner) UserID() (int64, bool) { return o.userID, o.set }

// IsGlobal reports whether the category is shared by all users.
func (o Owner) IsGlobal() bool { return !o.set }

// Owns reports whether userID owns the category.
func (o Owner) Owns(userID int64) bool { return o.set && o.userID == userID }

func (o Owner) String() string {
	if !o.set {
		return "global"
	}
	return fmt.Sprintf("user:%d", o.userID)
}

// VisibleTo reports whether the category may be referenced by userID.
func (c Category) VisibleTo(userID int64) bool {
	return c.Owner.IsGlobal() || c.Owner.Owns(userID)
}

var (
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
	colorRe    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func (k CategoryKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	default:
		return ErrInvalidKind
	}
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCurrency checks for a three-letter ISO 4217 style code.
func ValidateCurrency(code string) error {
	if !currencyRe.MatchString(code) {
		return ErrInvalidCurrency
	}
	return nil
}

// Name and email limits match the users table columns.
const (
	MaxUserNameLength = 100
	MaxEmailLength    = 255
)

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(u.Name) > MaxUserNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(u.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || strings.ContainsAny(u.Email, " <>") {
		return ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return errors.Join(ErrInvalid, errors.New("missing password hash"))
	}
	return ValidateCurrency(u.Currency)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if !colorRe.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return e.Amount.Validate()
}

// Apply overwrites the fields of e that are set in the patch.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		e.CategoryID = &id
	}
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Date == nil && p.CategoryID == nil
}

func (b Budget) Validate() error {
	if _, err := ParseMonth(string(b.Month)); err != nil {
		return err
	}
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return b.Limit.ValidateLimit()
}
