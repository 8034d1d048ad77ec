package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires public and protected routes. Routes behind auth run the
// auth middleware; everything runs the request logger.
func NewRouter(h *Handler, auth mux.MiddlewareFunc, mws ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(mws...)

	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/category/{id:[0-9]+}", h.GetCategory).Methods(http.MethodGet)

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(auth)
	authRouter.HandleFunc("/user/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	authRouter.HandleFunc("/deposit", h.Deposit).Methods(http.MethodPost)
	authRouter.HandleFunc("/withdraw", h.Withdraw).Methods(http.MethodPost)
	authRouter.HandleFunc("/category", h.CreateCategory).Methods(http.MethodPost)
	authRouter.HandleFunc("/category/{id:[0-9]+}", h.DeleteCategory).Methods(http.MethodDelete)
	authRouter.HandleFunc("/record", h.CreateRecord).Methods(http.MethodPost)
	authRouter.HandleFunc("/record/{id:[0-9]+}", h.GetRecord).Methods(http.MethodGet)

	return r
}
