package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server hosts the HTTP API.
type Server struct {
	server *http.Server
	logger *logrus.Logger
	addr   string
}

// NewRouter builds the API route table over the given handlers.
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/flows", h.GetFlows).Methods("GET")
	api.HandleFunc("/graph", h.GetGraph).Methods("GET")
	api.HandleFunc("/graph/neighborhood", h.GetNeighborhood).Methods("GET")
	api.HandleFunc("/alerts", h.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts", h.ClearAlerts).Methods("DELETE")
	api.HandleFunc("/alerts/{id}", h.DeleteAlert).Methods("DELETE")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/history/search", h.SearchHistory).Methods("GET")
	api.HandleFunc("/geoip/{ip}", h.GetGeoIP).Methods("GET")
	api.HandleFunc("/stream", h.Stream).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	return router
}

// NewServer builds the HTTP server over the given handlers.
func NewServer(addr string, h *Handlers, logger *logrus.Logger) *Server {
	router := NewRouter(h)

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      0, // websocket streaming
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 15 * time.Second,
		},
		logger: logger,
		addr:   addr,
	}
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("API server starting on %s", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("API server failed: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down API server...")
	return s.server.Shutdown(shutdownCtx)
}

// Stop shuts the server down without waiting on a context.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
