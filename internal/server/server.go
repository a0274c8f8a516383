// Package server wires the stores, the list service, the classifier, and the
// websocket hub into one HTTP handler.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrequena/cesta/internal/classify"
	"github.com/mrequena/cesta/internal/config"
	"github.com/mrequena/cesta/internal/handler"
	"github.com/mrequena/cesta/internal/list"
	"github.com/mrequena/cesta/internal/middleware"
	"github.com/mrequena/cesta/internal/store"
	ws "github.com/mrequena/cesta/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	listSvc      *list.Service
	authH        *handler.AuthHandler
	listH        *handler.ListHandler
	categorizeH  *handler.CategorizeHandler
	preferenceH  *handler.PreferenceHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger

	unsubscribe func()
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	prefStore := store.NewPreferenceStore(db)
	treeStore := store.NewTreeStore(db)

	classifier := classify.NewClient(classify.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger.With("component", "classify"))
	if !classifier.HasKey() {
		logger.Warn("no classifier API key configured, new items will be uncategorized")
	}

	listSvc := list.NewService(treeStore, classifier, logger.With("component", "list"))

	// Every mutation fans the fresh snapshot out to all connected clients.
	unsubscribe := listSvc.Subscribe(func(snap list.Snapshot) {
		hub.Broadcast(ws.SnapshotMessage(snap))
	})

	return &Server{
		db:           db,
		hub:          hub,
		listSvc:      listSvc,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		listH:        handler.NewListHandler(listSvc, prefStore, logger.With("component", "list_handler")),
		categorizeH:  handler.NewCategorizeHandler(classifier, logger.With("component", "categorize")),
		preferenceH:  handler.NewPreferenceHandler(prefStore, logger.With("component", "preference")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
		unsubscribe:  unsubscribe,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Close stops the snapshot fan-out.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	mux.HandleFunc("GET /api/list", s.listH.GetList)
	mux.HandleFunc("POST /api/items", s.listH.AddItem)
	mux.HandleFunc("POST /api/items/quick", s.listH.QuickAdd)
	mux.HandleFunc("POST /api/items/{id}/toggle", s.listH.TogglePurchased)
	mux.HandleFunc("PUT /api/items/{id}/quantity", s.listH.UpdateQuantity)
	mux.HandleFunc("PUT /api/items/{id}/price", s.listH.UpdatePrice)
	mux.HandleFunc("DELETE /api/items/{id}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/list/clear-purchased", s.listH.ClearPurchased)
	mux.HandleFunc("DELETE /api/list", s.listH.EmptyList)

	mux.HandleFunc("POST /api/categorize", s.categorizeH.Categorize)

	mux.HandleFunc("GET /api/preferences/language", s.preferenceH.GetLanguage)
	mux.HandleFunc("PUT /api/preferences/language", s.preferenceH.SetLanguage)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, func() (ws.Message, error) {
		snap, err := s.listSvc.Snapshot()
		if err != nil {
			return ws.Message{}, err
		}
		return ws.SnapshotMessage(snap), nil
	}, s.logger.With("component", "websocket")))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
