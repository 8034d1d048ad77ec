package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/finance-ledger/internal/middleware"
	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type amountRequest struct {
	UserID *int64           `json:"user_id"`
	Amount *decimal.Decimal `json:"amount"`
}

type recordRequest struct {
	UserID      *int64           `json:"user_id"`
	CategoryID  *int64           `json:"category_id"`
	Amount      *decimal.Decimal `json:"amount"`
	IsExpense   bool             `json:"is_expense"`
	Description string           `json:"description"`
}

// parseAmountRequest reads user_id and amount from the query string, or from
// a JSON body when the query carries no amount
func parseAmountRequest(w http.ResponseWriter, r *http.Request) (amountRequest, error) {
	var req amountRequest
	q := r.URL.Query()
	if !q.Has("amount") {
		if err := decodeJSON(w, r, &req); err != nil {
			return req, err
		}
	} else {
		amount, err := decimal.NewFromString(q.Get("amount"))
		if err != nil {
			return req, fmt.Errorf("%w: invalid amount", service.ErrBadRequest)
		}
		req.Amount = &amount
		if raw := q.Get("user_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return req, fmt.Errorf("%w: invalid user_id", service.ErrBadRequest)
			}
			req.UserID = &id
		}
	}
	if req.Amount == nil {
		return req, fmt.Errorf("%w: amount is required", service.ErrBadRequest)
	}
	return req, nil
}

// Deposit handles balance top-ups
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Deposit)
}

// Withdraw handles balance withdrawals
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Withdraw)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID int64, amount decimal.Decimal) (*models.User, error)) {
	req, err := parseAmountRequest(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := callerFor(r, req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := op(r.Context(), userID, *req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser returns the caller's own user with its balance
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := callerFor(r, &id); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateRecord handles income and expense records
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Amount == nil {
		h.fail(w, r, fmt.Errorf("%w: amount is required", service.ErrBadRequest))
		return
	}
	userID, err := callerFor(r, req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	record, err := h.svc.CreateRecord(r.Context(), models.Record{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      *req.Amount,
		IsExpense:   req.IsExpense,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// GetRecord returns one of the caller's records with its category
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	record, err := h.svc.GetRecord(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// other users' records are indistinguishable from missing ones
	if caller, _ := middleware.UserID(r.Context()); record.UserID != caller {
		h.fail(w, r, service.ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
