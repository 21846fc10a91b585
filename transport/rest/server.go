package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// NewRouter - routes for health checks and the read-only match listing.
func NewRouter(logger *slog.Logger, registry matchRegistry) http.Handler {
	handlers := newGameHandlers(logger, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /games", handlers.ListGames)
	mux.HandleFunc("GET /games/{matchId}", handlers.GetGame)

	return mux
}

// Start - starts HTTP server and blocks until ctx is done.
func Start(ctx context.Context, logger *slog.Logger, port string, registry matchRegistry) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(logger, registry),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
