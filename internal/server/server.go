package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Server serves planet meshes over HTTP and websocket.
type Server struct {
	cfg        *config.Config
	log        *slog.Logger
	store      *storage.Storage
	generators *Registry
	sessions   *Sessions
	upgrader   websocket.Upgrader
	router     *mux.Router
}

// New creates a new Server with the given config, preset store and logger.
func New(cfg *config.Config, store *storage.Storage, log *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log,
		store:      store,
		generators: NewRegistry(cfg.GeneratorLimit(), log),
		sessions:   NewSessions(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/kernels", s.handleKernels).Methods(http.MethodGet)
	r.HandleFunc("/presets", s.handleListPresets).Methods(http.MethodGet)
	r.HandleFunc("/presets/{name}", s.handleGetPreset).Methods(http.MethodGet)
	r.HandleFunc("/presets/{name}", s.handlePutPreset).Methods(http.MethodPut)
	r.HandleFunc("/planet", s.handlePlanet).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for connections and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.log.Info("server started",
		"port", s.cfg.Port,
		"seed", s.cfg.Seed,
		"kernel", s.cfg.Kernel,
		"maxDivisions", s.cfg.DivisionLimit(),
		"maxGenerators", s.cfg.GeneratorLimit(),
	)
	return s.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is cancelled, then closes
// websocket sessions and shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	hs := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("server shutting down", "sessions", s.sessions.Count())
	s.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
