package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hanweng/lingtutor/internal/db"
	"github.com/hanweng/lingtutor/internal/history"
	"github.com/hanweng/lingtutor/internal/lesson"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string // directory for the SQLite DB
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server is the lesson API server. It owns the HTTP stack; the lesson
// and history packages register their own routes on its router.
type Server struct {
	cfg        Config
	db         *db.DB
	sessions   *lesson.Manager
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around the given database and session manager
// and mounts all API routes.
func New(cfg Config, database *db.DB, sessions *lesson.Manager) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		sessions: sessions,
	}

	s.router = s.buildRouter()
	lesson.RegisterRoutes(s.router, sessions)
	history.RegisterRoutes(s.router, history.NewStore(database))

	return s
}

// buildRouter creates and configures the chi router.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Sessions returns the session manager.
func (s *Server) Sessions() *lesson.Manager { return s.sessions }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("lingtutor server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
