package entity

import (
	"slices"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
)

const MaxPlayers = 2

type Phase string

const (
	PhaseAwaitingOpponent Phase = "awaiting_opponent"
	PhaseInProgress       Phase = "in_progress"
	PhaseEnded            Phase = "ended"
)

// Match holds one game between up to two players. players[0] plays Cross, players[1] plays Circle.
//
// Match methods do not lock. Callers sharing a Match across goroutines hold its
// embedded mutex around every call.
type Match struct {
	deadlock.Mutex

	id            string
	players       []string
	currentPlayer string
	board         Board

	createdAt time.Time
	updatedAt time.Time
}

// MarkResult is everything a successful mark changes, ready to be broadcast.
type MarkResult struct {
	RowID         int
	ColID         int
	Symbol        Mark
	CurrentPlayer string
	Winner        string
	IsEnded       bool
	IsDraw        bool
}

type MatchSnapshot struct {
	ID            string    `json:"id"`
	Players       []string  `json:"players"`
	CurrentPlayer string    `json:"currentPlayer"`
	Board         []Cell    `json:"board"`
	Winner        *string   `json:"winner"`
	IsEnded       bool      `json:"isEnded"`
	IsDraw        bool      `json:"isDraw"`
	Phase         Phase     `json:"phase"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewMatch(id, firstPlayer string, now time.Time) *Match {
	return &Match{
		id:            id,
		players:       []string{firstPlayer},
		currentPlayer: firstPlayer,
		board:         NewBoard(),
		createdAt:     now,
		updatedAt:     now,
	}
}

func (that *Match) ID() string {
	return that.id
}

func (that *Match) Players() []string {
	return slices.Clone(that.players)
}

func (that *Match) CurrentPlayer() string {
	return that.currentPlayer
}

func (that *Match) Board() Board {
	return that.board
}

func (that *Match) UpdatedAt() time.Time {
	return that.updatedAt
}

func (that *Match) HasPlayer(player string) bool {
	return slices.Contains(that.players, player)
}

// CurrentSymbol - Cross if the first player acts next, Circle otherwise.
func (that *Match) CurrentSymbol() Mark {
	if that.currentPlayer == that.players[0] {
		return Cross
	}

	return Circle
}

// Winner - identity of the player owning the first uniform line.
func (that *Match) Winner() (string, bool) {
	symbol, ok := that.board.WinningLine()
	if !ok {
		return "", false
	}

	switch {
	case symbol == Cross:
		return that.players[0], true
	case symbol == Circle && len(that.players) == MaxPlayers:
		return that.players[1], true
	default:
		return "", false
	}
}

func (that *Match) IsDraw() bool {
	_, hasWinner := that.Winner()
	return that.board.IsFull() && !hasWinner
}

func (that *Match) IsEnded() bool {
	_, hasWinner := that.Winner()
	return hasWinner || that.IsDraw()
}

func (that *Match) Phase() Phase {
	switch {
	case that.IsEnded():
		return PhaseEnded
	case len(that.players) < MaxPlayers:
		return PhaseAwaitingOpponent
	default:
		return PhaseInProgress
	}
}

func (that *Match) Join(player string, now time.Time) error {
	if len(that.players) >= MaxPlayers {
		return apperror.ErrMatchFull
	}

	if that.HasPlayer(player) {
		return apperror.ErrDuplicatePlayer
	}

	that.players = append(that.players, player)
	that.updatedAt = now

	return nil
}

// AttemptMark - places the current symbol for actor and passes the turn.
// The check order decides which message a player sees: ended, then opponent presence, then turn.
func (that *Match) AttemptMark(actor string, row, col int, now time.Time) (MarkResult, error) {
	if that.IsEnded() {
		return MarkResult{}, apperror.ErrMatchEnded
	}

	if len(that.players) < MaxPlayers {
		return MarkResult{}, apperror.ErrOpponentNotJoined
	}

	if actor != that.currentPlayer {
		return MarkResult{}, apperror.ErrNotYourTurn
	}

	symbol := that.CurrentSymbol()
	if err := that.board.Mark(row, col, symbol); err != nil {
		return MarkResult{}, err
	}

	that.switchTurn()
	that.updatedAt = now

	winner, _ := that.Winner()

	return MarkResult{
		RowID:         row,
		ColID:         col,
		Symbol:        symbol,
		CurrentPlayer: that.currentPlayer,
		Winner:        winner,
		IsEnded:       that.IsEnded(),
		IsDraw:        that.IsDraw(),
	}, nil
}

func (that *Match) switchTurn() {
	if that.currentPlayer == that.players[0] {
		that.currentPlayer = that.players[1]
		return
	}

	that.currentPlayer = that.players[0]
}

func (that *Match) Snapshot() MatchSnapshot {
	snapshot := MatchSnapshot{
		ID:            that.id,
		Players:       that.Players(),
		CurrentPlayer: that.currentPlayer,
		Board:         that.board.Cells(),
		IsEnded:       that.IsEnded(),
		IsDraw:        that.IsDraw(),
		Phase:         that.Phase(),
		CreatedAt:     that.createdAt,
		UpdatedAt:     that.updatedAt,
	}

	if winner, ok := that.Winner(); ok {
		snapshot.Winner = &winner
	}

	return snapshot
}
