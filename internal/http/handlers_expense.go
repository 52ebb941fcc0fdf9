package http

import (
	"encoding/json"
	"net/http"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type expenseResponse struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        core.Date   `json:"date"`
	CategoryID  *int64      `json:"categoryId"`
}

func newExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      amountJSON(e.Amount),
		Description: e.Description,
		Date:        e.Date,
		CategoryID:  e.CategoryID,
	}
}

// amountJSON renders money as a JSON number with two decimals.
func amountJSON(m core.Money) json.Number {
	return json.Number(m.Decimal().StringFixed(2))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	expenses, err := s.svc.Expenses.List(r.Context(), currentUser(r), from, to)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.toNewExpense()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	created, err := s.svc.Expenses.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseResponse(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	e, err := s.svc.Expenses.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	updated, err := s.svc.Expenses.Update(r.Context(), currentUser(r), id, patch)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
