package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/repository"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/usecase"
)

const readTimeout = 2 * time.Second

func newTestServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := repository.NewMatchRegistry(logger, repository.NeverEvict{})
	gateway := usecase.NewGameGateway(logger, registry, broadcast.NewHub(logger))

	srv := httptest.NewServer(New(logger, gateway).Handler(ctx))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/game"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) entity.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var event entity.Event
	require.NoError(t, conn.ReadJSON(&event))

	return event
}

func expect[T any](t *testing.T, conn *websocket.Conn, action string) T {
	t.Helper()

	event := readEvent(t, conn)
	require.Equal(t, action, event.Action, "payload %s", event.Payload)

	var payload T
	require.NoError(t, json.Unmarshal(event.Payload, &payload))

	return payload
}

func mark(t *testing.T, conn *websocket.Conn, matchID string, row, col int) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{"matchId": matchID, "rowId": row, "colId": col})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: actionMarkCell, Payload: payload}))
}

// startMatch - connects A then B and consumes the join announcements.
func startMatch(t *testing.T, url string) (string, *websocket.Conn, string, *websocket.Conn, string) {
	t.Helper()

	connA := dial(t, url)
	matchID := expect[entity.MatchCreatedPayload](t, connA, entity.ActionMatchCreated).MatchID
	playerA := expect[entity.PlayerPayload](t, connA, entity.ActionMatchJoined).PlayerID
	require.Equal(t, playerA, expect[entity.PlayerPayload](t, connA, entity.ActionTurnChanged).PlayerID)

	connB := dial(t, url+"?matchId="+matchID)
	playerB := expect[entity.PlayerPayload](t, connA, entity.ActionMatchJoined).PlayerID
	require.Equal(t, playerA, expect[entity.PlayerPayload](t, connA, entity.ActionTurnChanged).PlayerID)
	require.Equal(t, playerB, expect[entity.PlayerPayload](t, connB, entity.ActionMatchJoined).PlayerID)
	require.Equal(t, playerA, expect[entity.PlayerPayload](t, connB, entity.ActionTurnChanged).PlayerID)

	return matchID, connA, playerA, connB, playerB
}

func TestServer_FullMatch(t *testing.T) {
	url := newTestServer(t)

	// Given: a started match
	matchID, connA, playerA, connB, playerB := startMatch(t, url)
	assert.NotEqual(t, playerA, playerB)

	// When: A takes column 1 while B plays column 2
	moves := []struct {
		conn     *websocket.Conn
		row, col int
		symbol   entity.Mark
		next     string
	}{
		{connA, 1, 1, entity.Cross, playerB},
		{connB, 1, 2, entity.Circle, playerA},
		{connA, 2, 1, entity.Cross, playerB},
		{connB, 2, 2, entity.Circle, playerA},
		{connA, 3, 1, entity.Cross, playerB},
	}

	var stats entity.MatchStatsPayload
	for _, move := range moves {
		mark(t, move.conn, matchID, move.row, move.col)

		// Then: both players see the same three events in order
		for _, conn := range []*websocket.Conn{connA, connB} {
			cell := expect[entity.CellMarkedPayload](t, conn, entity.ActionCellMarked)
			assert.Equal(t, entity.CellMarkedPayload{RowID: move.row, ColID: move.col, Symbol: move.symbol}, cell)
			assert.Equal(t, move.next, expect[entity.PlayerPayload](t, conn, entity.ActionTurnChanged).PlayerID)
			stats = expect[entity.MatchStatsPayload](t, conn, entity.ActionMatchStats)
		}
	}

	// And: the last stats name A as the winner
	require.NotNil(t, stats.Winner)
	assert.Equal(t, playerA, *stats.Winner)
	assert.True(t, stats.IsEnded)
	assert.False(t, stats.IsDraw)

	// And: a further mark is refused as ended
	mark(t, connB, matchID, 3, 3)
	payload := expect[entity.ErrorPayload](t, connB, entity.ActionError)
	assert.Equal(t, apperror.KindMatchEnded, payload.Kind)
}

func TestServer_RejectionsGoToTheOffenderOnly(t *testing.T) {
	url := newTestServer(t)
	matchID, connA, playerA, connB, _ := startMatch(t, url)

	// When: B moves out of turn
	mark(t, connB, matchID, 1, 1)

	// Then: B is told to wait
	payload := expect[entity.ErrorPayload](t, connB, entity.ActionError)
	assert.Equal(t, apperror.KindNotYourTurn, payload.Kind)
	assert.Equal(t, []string{"Please wait for your turn."}, payload.Messages)

	// And: the next thing A sees is its own legal move, not B's error
	mark(t, connA, matchID, 1, 1)
	expect[entity.CellMarkedPayload](t, connA, entity.ActionCellMarked)
	assert.NotEqual(t, playerA, expect[entity.PlayerPayload](t, connA, entity.ActionTurnChanged).PlayerID)
}

func TestServer_BadRequests(t *testing.T) {
	url := newTestServer(t)
	matchID, connA, _, _, _ := startMatch(t, url)

	t.Run("Out of range", func(t *testing.T) {
		mark(t, connA, matchID, 0, 4)

		payload := expect[entity.ErrorPayload](t, connA, entity.ActionError)
		assert.Equal(t, apperror.KindBadRequest, payload.Kind)
		assert.Equal(t, []string{"rowId must not be less than 1", "colId must not be greater than 3"}, payload.Messages)
	})

	t.Run("Unknown action", func(t *testing.T) {
		require.NoError(t, connA.WriteJSON(Message{Action: "resign"}))

		payload := expect[entity.ErrorPayload](t, connA, entity.ActionError)
		assert.Equal(t, []string{"unknown action resign"}, payload.Messages)
	})

	t.Run("Malformed frame", func(t *testing.T) {
		require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte("{not json")))

		payload := expect[entity.ErrorPayload](t, connA, entity.ActionError)
		assert.Equal(t, apperror.KindBadRequest, payload.Kind)
	})

	t.Run("Connection survives bad requests", func(t *testing.T) {
		mark(t, connA, matchID, 2, 2)

		expect[entity.CellMarkedPayload](t, connA, entity.ActionCellMarked)
	})
}

func TestServer_UnknownMatch(t *testing.T) {
	url := newTestServer(t)

	// When: joining a match that does not exist
	conn := dial(t, url+"?matchId=missing")

	// Then: an error event arrives, then the server closes the socket
	payload := expect[entity.ErrorPayload](t, conn, entity.ActionError)
	assert.Equal(t, apperror.KindMatchNotFound, payload.Kind)
	assert.Equal(t, []string{"Match missing not found."}, payload.Messages)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestServer_ThirdPlayerIsTurnedAway(t *testing.T) {
	url := newTestServer(t)
	matchID, _, _, _, _ := startMatch(t, url)

	conn := dial(t, url+"?matchId="+matchID)

	payload := expect[entity.ErrorPayload](t, conn, entity.ActionError)
	assert.Equal(t, apperror.KindMatchFull, payload.Kind)
	assert.Equal(t, []string{"Match is already full."}, payload.Messages)
}

func TestServer_OpponentLeaving(t *testing.T) {
	url := newTestServer(t)
	matchID, connA, _, connB, _ := startMatch(t, url)

	// Given: B disconnects
	require.NoError(t, connB.Close())

	// When: A keeps playing
	mark(t, connA, matchID, 1, 1)

	// Then: A still gets its events
	expect[entity.CellMarkedPayload](t, connA, entity.ActionCellMarked)
}
