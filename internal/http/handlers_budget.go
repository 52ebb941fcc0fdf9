package http

import (
	"encoding/json"
	"net/http"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type budgetResponse struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userId"`
	CategoryID  int64       `json:"categoryId"`
	Month       string      `json:"month"`
	LimitAmount json.Number `json:"limitAmount"`
}

func newBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		Month:       string(b.Month),
		LimitAmount: amountJSON(b.Limit),
	}
}

type categorySummaryResponse struct {
	CategoryID  int64       `json:"categoryId"`
	Name        string      `json:"name"`
	Color       string      `json:"color"`
	HasBudget   bool        `json:"hasBudget"`
	Limit       json.Number `json:"limit"`
	Spent       json.Number `json:"spent"`
	Remaining   json.Number `json:"remaining"`
	PercentUsed float64     `json:"percentUsed"`
	Level       string      `json:"level"`
}

type summaryResponse struct {
	Month         string                    `json:"month"`
	TotalSpent    json.Number               `json:"totalSpent"`
	TotalBudget   json.Number               `json:"totalBudget"`
	Uncategorized json.Number               `json:"uncategorized"`
	Categories    []categorySummaryResponse `json:"categories"`
}

func newSummaryResponse(s core.MonthSummary) summaryResponse {
	out := summaryResponse{
		Month:         string(s.Month),
		TotalSpent:    amountJSON(s.TotalSpent),
		TotalBudget:   amountJSON(s.TotalBudget),
		Uncategorized: amountJSON(s.Uncategorized),
		Categories:    make([]categorySummaryResponse, 0, len(s.Categories)),
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, categorySummaryResponse{
			CategoryID:  c.CategoryID,
			Name:        c.Name,
			Color:       c.Color,
			HasBudget:   c.HasBudget,
			Limit:       amountJSON(c.Limit),
			Spent:       amountJSON(c.Spent),
			Remaining:   amountJSON(c.Remaining),
			PercentUsed: c.PercentUsed,
			Level:       string(c.Level),
		})
	}
	return out
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	budgets, err := s.svc.Budgets.List(r.Context(), currentUser(r), month)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, newBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSetBudget upserts the budget of a category for a month.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	categoryID := req.categoryID()
	if categoryID == nil {
		writeError(w, r, applog.OpCreate, core.ErrMissingCategory)
		return
	}
	limit, err := req.limit()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	saved, err := s.svc.Budgets.Set(r.Context(), currentUser(r), *categoryID, core.Month(req.Month), limit)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(saved))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}
	summary, err := s.svc.Summaries.Month(r.Context(), currentUser(r), month)
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}
