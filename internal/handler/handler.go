package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/finance-ledger/internal/middleware"
	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc   *service.Service
	store Pinger
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, store Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, store: store, log: log}
}

// Health reports liveness together with store reachability
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		http.Error(w, "Store unavailable.", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps service errors onto status codes and plain-text reasons
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := http.StatusInternalServerError, "Internal server error."
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		status, reason = http.StatusNotFound, "User not found."
	case errors.Is(err, service.ErrCategoryNotFound):
		status, reason = http.StatusNotFound, "Category not found."
	case errors.Is(err, service.ErrRecordNotFound):
		status, reason = http.StatusNotFound, "Record not found."
	case errors.Is(err, service.ErrNotFound):
		status, reason = http.StatusNotFound, "Not found."
	case errors.Is(err, service.ErrExpenseNotCovered):
		status, reason = http.StatusBadRequest, "Insufficient funds for expense."
	case errors.Is(err, service.ErrInsufficientFunds):
		status, reason = http.StatusBadRequest, "Insufficient funds."
	case errors.Is(err, service.ErrBadRequest):
		status, reason = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, reason = http.StatusUnauthorized, "Unauthorized."
	case errors.Is(err, service.ErrForbidden):
		status, reason = http.StatusForbidden, "Forbidden."
	case errors.Is(err, service.ErrNameTaken):
		status, reason = http.StatusConflict, "Name already taken."
	case errors.Is(err, service.ErrConflict):
		status, reason = http.StatusConflict, "Concurrent update, please retry."
	}

	entry := h.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": middleware.RequestID(r.Context()),
	})
	if status == http.StatusInternalServerError {
		entry.Errorf("Request failed: %v", err)
	} else {
		entry.Debugf("Request rejected: %v", err)
	}
	http.Error(w, reason, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", service.ErrBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", service.ErrBadRequest)
	}
	return id, nil
}

// callerFor resolves the user an authenticated request acts on. An absent
// user id means the caller; acting on someone else is forbidden.
func callerFor(r *http.Request, requested *int64) (int64, error) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, service.ErrUnauthorized
	}
	if requested != nil && *requested != caller {
		return 0, service.ErrForbidden
	}
	return caller, nil
}
