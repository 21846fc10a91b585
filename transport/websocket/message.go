package websocket

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/usecase"
)

const actionMarkCell = "markCell"

// Message is the envelope of every inbound frame.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// MarkRequest keeps raw fields so each one can be reported on its own.
type MarkRequest struct {
	MatchID json.RawMessage `json:"matchId"`
	RowID   json.RawMessage `json:"rowId"`
	ColID   json.RawMessage `json:"colId"`
}

// Validate - converts the request to a command, or returns one message per invalid field.
func (that MarkRequest) Validate() (usecase.MarkCommand, []string) {
	var problems []string

	matchID, err := optionalString(that.MatchID)
	if err != nil {
		problems = append(problems, "matchId must be a string")
	}

	row, rowProblems := coordinate("rowId", that.RowID)
	col, colProblems := coordinate("colId", that.ColID)

	problems = append(problems, rowProblems...)
	problems = append(problems, colProblems...)

	if len(problems) > 0 {
		return usecase.MarkCommand{}, problems
	}

	return usecase.MarkCommand{MatchID: matchID, RowID: row, ColID: col}, nil
}

func optionalString(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("failed to unmarshal string: %w", err)
	}

	return value, nil
}

func coordinate(name string, raw json.RawMessage) (int, []string) {
	if isAbsent(raw) {
		return 0, []string{name + " should not be empty"}
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, []string{name + " must be a number"}
	}

	if value != math.Trunc(value) {
		return 0, []string{name + " must be an integer number"}
	}

	switch {
	case value < 1:
		return 0, []string{name + " must not be less than 1"}
	case value > entity.BoardSize:
		return 0, []string{fmt.Sprintf("%s must not be greater than %d", name, entity.BoardSize)}
	}

	return int(value), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
