package entity

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
)

const (
	ActionMatchCreated = "matchCreated"
	ActionMatchJoined  = "matchJoined"
	ActionTurnChanged  = "turnChanged"
	ActionCellMarked   = "cellMarked"
	ActionMatchStats   = "matchStats"
	ActionError        = "error"
)

// Event is the envelope of every message sent to a connection.
type Event struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Recipient is anything an event can be delivered to. Send must not block.
type Recipient interface {
	ID() string
	Send(event Event)
}

type MatchCreatedPayload struct {
	MatchID string `json:"matchId"`
}

type PlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type CellMarkedPayload struct {
	RowID  int  `json:"rowId"`
	ColID  int  `json:"colId"`
	Symbol Mark `json:"symbol"`
}

type MatchStatsPayload struct {
	Winner  *string `json:"winner"`
	IsEnded bool    `json:"isEnded"`
	IsDraw  bool    `json:"isDraw"`
}

type ErrorPayload struct {
	Kind     apperror.Kind `json:"kind"`
	Messages []string      `json:"messages"`
}

func NewEvent(action string, payload any) Event {
	return Event{
		Action:  action,
		Payload: mustMarshal(payload),
	}
}

func MatchCreated(matchID string) Event {
	return NewEvent(ActionMatchCreated, MatchCreatedPayload{MatchID: matchID})
}

func MatchJoined(playerID string) Event {
	return NewEvent(ActionMatchJoined, PlayerPayload{PlayerID: playerID})
}

func TurnChanged(playerID string) Event {
	return NewEvent(ActionTurnChanged, PlayerPayload{PlayerID: playerID})
}

func CellMarked(result MarkResult) Event {
	return NewEvent(ActionCellMarked, CellMarkedPayload{
		RowID:  result.RowID,
		ColID:  result.ColID,
		Symbol: result.Symbol,
	})
}

func MatchStats(result MarkResult) Event {
	payload := MatchStatsPayload{
		IsEnded: result.IsEnded,
		IsDraw:  result.IsDraw,
	}

	if result.Winner != "" {
		winner := result.Winner
		payload.Winner = &winner
	}

	return NewEvent(ActionMatchStats, payload)
}

// ErrorEvent - builds the error event for err, using the game error taxonomy.
func ErrorEvent(err error) Event {
	return NewEvent(ActionError, ErrorPayload{
		Kind:     apperror.KindOf(err),
		Messages: apperror.Messages(err),
	})
}

func BadRequest(messages ...string) Event {
	return NewEvent(ActionError, ErrorPayload{
		Kind:     apperror.KindBadRequest,
		Messages: messages,
	})
}

// payloads are plain structs, marshaling them cannot fail.
func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}
