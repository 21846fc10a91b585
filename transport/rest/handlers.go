package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

type matchRegistry interface {
	ListMatches() []entity.MatchSnapshot
	Snapshot(id string) (entity.MatchSnapshot, error)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

type gameHandlers struct {
	logger   *slog.Logger
	registry matchRegistry
}

func newGameHandlers(logger *slog.Logger, registry matchRegistry) *gameHandlers {
	return &gameHandlers{
		logger:   logger.With("component", "rest"),
		registry: registry,
	}
}

func (that *gameHandlers) ListGames(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.registry.ListMatches())
}

func (that *gameHandlers) GetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetGame")

	snapshot, err := that.registry.Snapshot(r.PathValue("matchId"))
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			that.writeJSON(w, http.StatusNotFound, errorResponse{
				Message:    notFound.Error(),
				Error:      http.StatusText(http.StatusNotFound),
				StatusCode: http.StatusNotFound,
			})
			return
		}

		log.Error("failed to get match", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message:    "Internal server error",
			Error:      http.StatusText(http.StatusInternalServerError),
			StatusCode: http.StatusInternalServerError,
		})
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *gameHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
