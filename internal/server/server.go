// Package server exposes the extraction pipeline over HTTP as a stream of
// newline-delimited JSON progress events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/internal/metrics"
	"github.com/go-scripts/reviews/pkg/common"
)

// Runner starts an extraction and streams its events
type Runner interface {
	Run(ctx context.Context, url string) <-chan common.Event
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	runner  Runner
	logger  *log.Logger
	metrics *metrics.Metrics
	router  *mux.Router
}

func New(runner Runner, logger *log.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		metrics: m,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/reviews", s.handleReviews).Methods(http.MethodGet)
	s.router.HandleFunc("/api/test", s.handleTest).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	s.router.Use(s.logRequests, s.recoverPanics)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// In-flight extractions are cancelled along with ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working!"})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errs.ErrURLRequired.Message})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.WriteHeader(http.StatusOK)

	stream := newEventWriter(w)
	for event := range s.runner.Run(r.Context(), page) {
		if err := stream.Write(event); err != nil {
			s.logger.Debug("Client went away", "url", page, "err", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
