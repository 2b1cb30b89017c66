package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"account-ledger/internal/config"
	"account-ledger/internal/domain"
	"account-ledger/internal/handler"
	"account-ledger/internal/migrations"
	"account-ledger/internal/repository"
	"account-ledger/internal/repository/memory"
	"account-ledger/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	store  domain.Store
	db     *sql.DB
	logger *slog.Logger
	port   string
}

// NewServer opens the configured storage backend and wires the HTTP API on
// top of it.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return NewServerWithStore(memory.NewStore(logger), logger), nil
	}

	db, err := openPostgres(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := NewServerWithStore(repository.NewStore(db, logger), logger)
	s.db = db
	return s, nil
}

func openPostgres(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn := cfg.GetDBConnectionString()

	if cfg.DBAutoMigrate {
		if err := migrations.Up(dsn, logger); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Successfully connected to database", "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

// NewServerWithStore wires services and routes over an existing store.
func NewServerWithStore(store domain.Store, logger *slog.Logger) *Server {
	accountService := service.NewAccountService(store, logger)
	movementService := service.NewMovementService(store, logger)
	dispatcher := service.NewLedgerDispatcher(store, logger)

	accountHandler := handler.NewAccountHandler(accountService)
	eventHandler := handler.NewEventHandler(dispatcher)
	movementHandler := handler.NewMovementHandler(movementService)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/balance", accountHandler.GetBalance).Methods("GET")

	router.HandleFunc("/events", eventHandler.ProcessEvent).Methods("POST")
	router.HandleFunc("/movements", movementHandler.ListMovements).Methods("GET")

	router.HandleFunc("/health", healthHandler(store)).Methods("GET")

	return &Server{
		router: router,
		store:  store,
		logger: logger,
	}
}

func healthHandler(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "storage unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_id", r.Header.Get(handler.UserIDHeader),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start listens on port ("0" picks a free one) and serves in the background.
// It returns the port actually bound.
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", "error", err)
		}
	}()

	return s.port, nil
}

// Stop drains in-flight requests, then releases the database.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) GetPort() string {
	return s.port
}

func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer builds and starts a server. A nil logger discards output.
func StartServer(cfg *config.Config, logger *slog.Logger) (*Server, string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.Stop(context.Background())
		return nil, "", err
	}

	return server, port, nil
}
