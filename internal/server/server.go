// Package server provides HTTP server initialization and lifecycle
// management for the Attune API: turn handling, user data portability,
// websocket turn events, and prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attuneai/attune/internal/config"
	"github.com/attuneai/attune/internal/engine"
)

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0). The server
// shuts down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, eng *engine.Engine) (string, error) {
	mux := http.NewServeMux()

	wsHub := NewWebSocketHub()
	go wsHub.Run()

	// Turn events flow to both the metrics and the websocket clients.
	observeTurns(eng)
	eng.Subscribe(func(ev engine.TurnEvent) {
		wsHub.Broadcast(ev)
	})

	api := NewAPIHandlers(eng)
	rateLimiter := NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/turns", timed("turns", api.PostTurn))
	apiMux.HandleFunc("POST /api/responses", timed("responses", api.PostResponse))
	apiMux.HandleFunc("POST /api/users/{id}/onboarding", timed("onboarding", api.PostOnboarding))
	apiMux.HandleFunc("POST /api/users/{id}/end-session", timed("end_session", api.PostEndSession))
	apiMux.HandleFunc("GET /api/users/{id}/export", timed("export", api.GetExport))
	apiMux.HandleFunc("POST /api/users/{id}/import", timed("import", api.PostImport))
	apiMux.HandleFunc("DELETE /api/users/{id}", timed("delete_user", api.DeleteUser))
	apiMux.HandleFunc("GET /api/users/{id}/summary", timed("summary", api.GetSummary))
	apiMux.HandleFunc("GET /api/stats", timed("stats", api.GetStats))

	// Health endpoint stays outside auth so monitoring can reach it.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/api/", requireAuth(apiMux, cfg.Server.APIToken))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/ws", wsHub)

	handler := rateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	log.Printf("server: listening on %s", actualAddr)
	return actualAddr, nil
}
