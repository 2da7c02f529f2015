package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/drawroom/drawroom/internal/auth"
	"github.com/drawroom/drawroom/internal/collab"
	"github.com/drawroom/drawroom/internal/config"
	"github.com/drawroom/drawroom/internal/db"
	"github.com/drawroom/drawroom/internal/discovery"
	mw "github.com/drawroom/drawroom/internal/middleware"
	"github.com/drawroom/drawroom/internal/render"
	"github.com/drawroom/drawroom/internal/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	render.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	roomService := room.NewService(queries, logger)
	roomHandler := room.NewHandler(roomService, room.Exporter{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight})

	hub := collab.NewHub(roomService)
	go hub.Run()

	authenticate := func(r *http.Request) (collab.Identity, error) {
		userID, err := authService.UserFromQuery(r)
		if err != nil {
			return collab.Identity{}, err
		}
		user, err := authService.GetUser(r.Context(), userID)
		if err != nil {
			return collab.Identity{}, err
		}
		return collab.Identity{UserID: user.ID, DisplayName: user.Name}, nil
	}
	collabHandler := collab.NewHandler(hub, authenticate, roomService.ResolveID, cfg.Origins())

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Public
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/signin", authHandler.Signin).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/rooms", roomHandler.List).Methods("GET")
	api.HandleFunc("/rooms", roomHandler.Create).Methods("POST")
	api.HandleFunc("/rooms/{roomId}", roomHandler.Get).Methods("GET")
	api.HandleFunc("/rooms/{roomId}/shapes", roomHandler.Shapes).Methods("GET")
	api.HandleFunc("/rooms/{roomId}/presence", collabHandler.Presence).Methods("GET")
	api.HandleFunc("/rooms/{roomId}/export.png", roomHandler.Export(room.FormatPNG)).Methods("GET")
	api.HandleFunc("/rooms/{roomId}/export.pdf", roomHandler.Export(room.FormatPDF)).Methods("GET")
	api.HandleFunc("/relays", handleRelays).Methods("GET")

	// WebSocket endpoint, authenticated with ?token=
	r.HandleFunc("/ws/room/{roomId}", collabHandler.ServeRoom)

	var advertiser *discovery.Advertiser
	if cfg.MDNSEnabled {
		advertiser, err = discovery.Advertise(cfg.MDNSInstance, cfg.Port)
		if err != nil {
			slog.Warn("mdns advertise failed, continuing without discovery", "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		if advertiser != nil {
			advertiser.Shutdown()
		}
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleRelays lists the relay servers advertised on the local network.
func handleRelays(w http.ResponseWriter, r *http.Request) {
	servers, err := discovery.Browse(r.Context(), 2*time.Second)
	if err != nil {
		slog.Warn("browse relays", "error", err)
		servers = []discovery.Server{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"relays": servers})
}
