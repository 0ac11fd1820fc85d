package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ccod-search/internal/companieshouse"
	"github.com/ccod-search/internal/db"
	"github.com/ccod-search/internal/loader"
	"github.com/ccod-search/internal/observability"
	"github.com/ccod-search/internal/search"
	"github.com/ccod-search/internal/web/handlers"
	"github.com/ccod-search/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	conn       *db.Connection
	log        zerolog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config, log zerolog.Logger) (*Server, error) {
	conn, err := db.Open(config.Database.DatabaseURL, config.Database.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := conn.EnableForeignKeys(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := conn.CreateSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	server := &Server{
		config: config,
		conn:   conn,
		log:    log,
	}

	if err := server.setupRoutes(); err != nil {
		conn.Close()
		return nil, err
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports can be large
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() error {
	s.router = mux.NewRouter()

	store := search.NewStore(s.conn)
	dataLoader := loader.New(s.conn, s.log)

	// Director search is optional: it only works with an API key.
	var directors search.OfficerClient
	if s.config.CompaniesHouse.APIKey != "" {
		client, err := companieshouse.New(
			s.config.CompaniesHouse.BaseURL,
			s.config.CompaniesHouse.APIKey,
			s.config.CompaniesHouse.RequestsPerSecond,
		)
		if err != nil {
			return err
		}
		directors = client
	}

	searchHandler := &handlers.SearchHandler{Store: store, Directors: directors, Log: s.log}
	exportHandler := &handlers.ExportHandler{Store: store, Directors: directors, Log: s.log}
	adminHandler := &handlers.AdminHandler{
		Loader:  dataLoader,
		Store:   store,
		CSVPath: s.config.Loader.CSVPath,
		Log:     s.log,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	// OPTIONS is matched so preflights reach the CORS middleware,
	// which answers them before the handler runs.
	api.HandleFunc("/search", searchHandler.Search).Methods("POST", "OPTIONS")
	api.HandleFunc("/export/csv", exportHandler.ExportCSV).Methods("POST", "OPTIONS")
	api.HandleFunc("/export/json", exportHandler.ExportJSON).Methods("POST", "OPTIONS")
	api.HandleFunc("/reload", adminHandler.Reload).Methods("POST", "OPTIONS")
	api.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	api.HandleFunc("/health", adminHandler.Health).Methods("GET")

	reg := observability.InitRegistry()
	s.router.Handle("/metrics", observability.MetricsHandler(reg)).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))

	return nil
}

// Start starts the web server and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("server shutdown error")
	}

	if err := s.conn.Close(); err != nil {
		s.log.Error().Err(err).Msg("database close error")
	}

	s.log.Info().Msg("server stopped")
	return nil
}
