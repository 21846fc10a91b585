package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/repository"
)

var errRegistryBroken = errors.New("registry broken")

func newTestRouter(t *testing.T) (http.Handler, *repository.MatchRegistry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := repository.NewMatchRegistry(logger, repository.NeverEvict{})

	return NewRouter(logger, registry), registry
}

func serve(handler http.Handler, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	return recorder
}

func TestPing(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := serve(router, "/ping")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", resp.Body.String())
}

func TestListGames(t *testing.T) {
	t.Run("Empty registry returns an empty array", func(t *testing.T) {
		router, _ := newTestRouter(t)

		resp := serve(router, "/games")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[]`, resp.Body.String())
	})

	t.Run("Matches are listed in creation order", func(t *testing.T) {
		router, registry := newTestRouter(t)

		// Given: two matches, the first one started
		first := registry.CreateMatch("player-a")
		require.NoError(t, registry.JoinMatch(first, "player-b"))
		second := registry.CreateMatch("player-c")

		// When: listing
		resp := serve(router, "/games")

		// Then: both come back with their phase
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

		var snapshots []entity.MatchSnapshot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snapshots))
		require.Len(t, snapshots, 2)
		assert.Equal(t, first, snapshots[0].ID)
		assert.Equal(t, entity.PhaseInProgress, snapshots[0].Phase)
		assert.Equal(t, second, snapshots[1].ID)
		assert.Equal(t, entity.PhaseAwaitingOpponent, snapshots[1].Phase)
	})
}

func TestGetGame(t *testing.T) {
	t.Run("Existing match", func(t *testing.T) {
		router, registry := newTestRouter(t)
		id := registry.CreateMatch("player-a")

		resp := serve(router, "/games/"+id)

		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, id, body["id"])
		assert.Equal(t, "player-a", body["currentPlayer"])
		assert.Nil(t, body["winner"])
		assert.Len(t, body["board"], 9)
	})

	t.Run("Unknown match", func(t *testing.T) {
		router, _ := newTestRouter(t)

		resp := serve(router, "/games/missing")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.JSONEq(t, `{"message":"Match missing not found","error":"Not Found","statusCode":404}`, resp.Body.String())
	})

	t.Run("Registry failure", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		router := NewRouter(logger, brokenRegistry{})

		resp := serve(router, "/games/any")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

type brokenRegistry struct{}

func (brokenRegistry) ListMatches() []entity.MatchSnapshot {
	return nil
}

func (brokenRegistry) Snapshot(string) (entity.MatchSnapshot, error) {
	return entity.MatchSnapshot{}, errRegistryBroken
}
