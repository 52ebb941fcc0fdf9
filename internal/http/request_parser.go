// Package http provides the JSON API server and its handlers.
//
// This file implements the request shapes accepted by the API and the helpers
// that decode bodies, path ids and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

const maxBodyBytes = 1 << 20

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Currency string `json:"currency"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

// categoryRef is the nested {"category": {"id": n}} form sent by older clients.
type categoryRef struct {
	ID *int64 `json:"id"`
}

// expenseRequest serves both create and partial update: absent fields are nil.
type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Date        *core.Date       `json:"date"`
	CategoryID  *int64           `json:"categoryId"`
	Category    *categoryRef     `json:"category"`
}

type budgetRequest struct {
	CategoryID  *int64           `json:"categoryId"`
	Category    *categoryRef     `json:"category"`
	Month       string           `json:"month"`
	LimitAmount *decimal.Decimal `json:"limitAmount"`
}

// categoryID prefers the flat categoryId over the nested category object.
func (r expenseRequest) categoryID() *int64 {
	return pickCategory(r.CategoryID, r.Category)
}

func (r budgetRequest) categoryID() *int64 {
	return pickCategory(r.CategoryID, r.Category)
}

func pickCategory(flat *int64, nested *categoryRef) *int64 {
	if flat != nil {
		return flat
	}
	if nested != nil {
		return nested.ID
	}
	return nil
}

// toNewExpense converts a create body. A missing amount is a validation error.
func (r expenseRequest) toNewExpense() (services.NewExpense, error) {
	if r.Amount == nil {
		return services.NewExpense{}, core.ErrInvalidAmount
	}
	amount, err := core.MoneyFromDecimal(*r.Amount)
	if err != nil {
		return services.NewExpense{}, err
	}
	in := services.NewExpense{
		Amount:     amount,
		Date:       r.Date,
		CategoryID: r.categoryID(),
	}
	if r.Description != nil {
		in.Description = sanitizeInput(*r.Description)
	}
	return in, nil
}

// toPatch converts an update body; fields left out stay untouched.
func (r expenseRequest) toPatch() (core.ExpensePatch, error) {
	var patch core.ExpensePatch
	if r.Amount != nil {
		amount, err := core.MoneyFromDecimal(*r.Amount)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.Amount = &amount
	}
	if r.Description != nil {
		desc := sanitizeInput(*r.Description)
		patch.Description = &desc
	}
	patch.Date = r.Date
	patch.CategoryID = r.categoryID()
	return patch, nil
}

// limit converts the budget limit. A missing limit is a validation error.
func (r budgetRequest) limit() (core.Money, error) {
	if r.LimitAmount == nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.MoneyFromDecimal(*r.LimitAmount)
}

// decodeJSON reads a single JSON object into dst. Syntax and type errors are
// reported as errBadRequest; validation errors raised while decoding (such as
// an invalid date) keep their own kind.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalid) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (*core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

// queryMonth parses the month query parameter, defaulting to the current month.
func queryMonth(r *http.Request) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.CurrentMonth(), nil
	}
	return core.ParseMonth(v)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
