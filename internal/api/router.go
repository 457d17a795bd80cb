// Package api is the HTTP Surface (spec.md §6.1): maps external requests
// to engine operations through the Permission Evaluator and HMAC Auth
// layers, with the uniform JSON error envelope spec.md §6.1/§7 describe.
// Routing uses gorilla/mux (grounded on the replay-api-replay-api
// manifest's choice for a ledger-adjacent service; the teacher exposed no
// HTTP router).
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/models"
)

// Server wires the router to the store and process config.
type Server struct {
	db     *database.Store
	cfg    *models.Config
	router *mux.Router
	http   *http.Server
}

// NewServer builds the full route table.
func NewServer(db *database.Store, cfg *models.Config) *Server {
	s := &Server{db: db, cfg: cfg, router: mux.NewRouter()}

	s.router.Use(loggingMiddleware)
	auth := authMiddleware(db, cfg.HMAC)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(auth)

	api.HandleFunc("/holders/", s.handleListHolders).Methods(http.MethodGet)
	api.HandleFunc("/holders/detail/", s.handleGetHolder).Methods(http.MethodGet)
	api.HandleFunc("/holders/create/", s.handleCreateHolder).Methods(http.MethodPost)

	api.HandleFunc("/accounts/detail/", s.handleGetAccount).Methods(http.MethodGet)

	api.HandleFunc("/units/", s.handleListUnits).Methods(http.MethodGet)

	api.HandleFunc("/adjustments/create/", s.handleCreateAdjustment).Methods(http.MethodPost)
	api.HandleFunc("/adjustments/confirm/", s.handleConfirmAdjustment).Methods(http.MethodPost)
	api.HandleFunc("/adjustments/reject/", s.handleRejectAdjustment).Methods(http.MethodPost)

	api.HandleFunc("/transfers/create/", s.handleCreateTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transfers/confirm/", s.handleConfirmTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transfers/reject/", s.handleRejectTransfer).Methods(http.MethodPost)

	api.HandleFunc("/exchanges/create/", s.handleCreateExchange).Methods(http.MethodPost)
	api.HandleFunc("/exchanges/confirm/", s.handleConfirmExchange).Methods(http.MethodPost)
	api.HandleFunc("/exchanges/reject/", s.handleRejectExchange).Methods(http.MethodPost)

	return s
}

// ServeHTTP lets Server be used directly as an http.Handler, e.g. in tests
// via httptest, without going through ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("api server listening", zap.String("addr", s.cfg.Server.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
